//go:build !js_eval

package opts

// NewJSEvaluator returns nil unless built with the js_eval tag. Callers
// should go through NewEvaluator, which reports ErrNoEvaluator instead.
func NewJSEvaluator(...JSEvaluatorOption) Evaluator {
	return nil
}

func isJSEvaluator(Evaluator) bool { return false }
