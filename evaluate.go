package opts

import "time"

// Evaluate runs expr against the wrapped value.
func (o *Options[T]) Evaluate(expr string) (Response[any], error) {
	return o.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith runs expr with ctx. A nil ctx.Snapshot binds the wrapped value
// and a ctx without scope inherits the wrapper scope. Every attempt is
// reported to the evaluator logger.
func (o *Options[T]) EvaluateWith(ctx RuleContext, expr string) (Response[any], error) {
	if expr == "" {
		return Response[any]{}, ErrEmptyExpression
	}
	evaluator := o.engine()
	if ctx.Snapshot == nil {
		ctx.Snapshot = o.Value
	}
	ctx = ctx.withDefaults().inScope(o.cfg.scope)
	engine := EngineName(evaluator)

	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expr)
	err = ruleError(engine, expr, ctx.scopeLabel(), err)
	o.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Scope:    ctx.scopeLabel(),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return Response[any]{}, err
	}
	return Response[any]{Value: value}, nil
}

// engine returns the configured evaluator, building the expr default once.
func (o *Options[T]) engine() Evaluator {
	if o.cfg.evaluator == nil {
		o.cfg.evaluator = NewExprEvaluator(
			ExprWithProgramCache(o.cfg.programCache),
			ExprWithFunctionRegistry(o.cfg.functions),
		)
	}
	return o.cfg.evaluator
}
