//go:build js_eval

package opts

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// jsEvaluator runs each rule in a fresh goja runtime. Compiled scripts are
// shared, runtimes are not.
type jsEvaluator struct {
	cfg jsEvaluatorConfig
}

// NewJSEvaluator builds a goja engine.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	e := &jsEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(&e.cfg)
		}
	}
	return e
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	return e.compile(expression)
}

func (e *jsEvaluator) compile(expression string) (*jsRule, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	key := EngineJS + ":" + expression
	if program, ok := cachedProgram[*goja.Program](e.cfg.cache, key); ok {
		return &jsRule{evaluator: e, expression: expression, program: program}, nil
	}
	source := fmt.Sprintf("(function(){ return (%s); })()", expression)
	program, err := goja.Compile("rule", source, true)
	if err != nil {
		return nil, ruleError(EngineJS, expression, "", err)
	}
	storeProgram(e.cfg.cache, key, program)
	return &jsRule{evaluator: e, expression: expression, program: program}, nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	value, err := r.evaluator.run(ctx, r.program)
	if err != nil {
		return nil, ruleError(EngineJS, r.expression, ctx.scopeLabel(), err)
	}
	return value, nil
}

func (e *jsEvaluator) run(ctx RuleContext, program *goja.Program) (any, error) {
	vm := goja.New()
	for name, value := range ctx.bindings() {
		if err := vm.Set(name, value); err != nil {
			return nil, err
		}
	}
	for name, fn := range e.cfg.registry.callables() {
		if err := vm.Set(name, fn); err != nil {
			return nil, err
		}
	}
	if e.cfg.timeout > 0 {
		timer := time.AfterFunc(e.cfg.timeout, func() {
			vm.Interrupt(ErrRuleTimeout)
		})
		defer timer.Stop()
	}

	value, err := vm.RunProgram(program)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("%w after %s", ErrRuleTimeout, e.cfg.timeout)
		}
		return nil, err
	}
	return value.Export(), nil
}

func isJSEvaluator(e Evaluator) bool {
	_, ok := e.(*jsEvaluator)
	return ok
}
