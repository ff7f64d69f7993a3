package opts

import (
	"errors"
	"fmt"
	"strings"
)

// Engine names accepted by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

var (
	ErrNoEvaluator     = errors.New("opts: evaluator not configured")
	ErrEmptyExpression = errors.New("opts: expression must not be empty")
	ErrRuleTimeout     = errors.New("opts: rule timed out")
)

// EvaluationError reports a rule that failed to compile or run.
type EvaluationError struct {
	Engine string
	Expr   string
	Scope  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("opts: ")
	b.WriteString(e.Engine)
	b.WriteString(" rule")
	if e.Expr != "" {
		fmt.Fprintf(&b, " %q", e.Expr)
	}
	if e.Scope != "" {
		fmt.Fprintf(&b, " in scope %s", e.Scope)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ruleError attaches engine, expression and scope to err. An EvaluationError
// already in the chain keeps its fields and only gains the missing ones.
func ruleError(engine, expr, scope string, err error) error {
	if err == nil || errors.Is(err, ErrEmptyExpression) {
		return err
	}
	var existing *EvaluationError
	if !errors.As(err, &existing) {
		return &EvaluationError{Engine: engine, Expr: expr, Scope: scope, Err: err}
	}
	if existing.Engine == "" {
		existing.Engine = engine
	}
	if existing.Expr == "" {
		existing.Expr = expr
	}
	if existing.Scope == "" {
		existing.Scope = scope
	}
	return err
}

// NewEvaluator builds the named engine sharing cache and registry. The js
// engine needs the js_eval build tag.
func NewEvaluator(engine string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		if evaluator := NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry)); evaluator != nil {
			return evaluator, nil
		}
		return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

// EngineName reports the engine behind e, or "custom" for foreign evaluators.
func EngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	}
	if isJSEvaluator(e) {
		return EngineJS
	}
	return "custom"
}
