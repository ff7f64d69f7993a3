package opts

import (
	"reflect"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL engine.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache reuses checked programs across evaluations.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry exposes registry through call(name, [args]).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry != nil {
			e.registry = registry.Clone()
		}
	}
}

// celEvaluator type-checks rules against the variables bound at evaluation
// time, so programs are cached per expression and variable set.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator builds a cel-go engine.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	return (&celRule{evaluator: e, expression: expression}).Evaluate(ctx)
}

// Compile defers type checking until the first Evaluate because the variable
// set is only known then.
func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	return &celRule{evaluator: e, expression: expression}, nil
}

type celRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	vars := ctx.bindings()
	program, err := r.evaluator.program(r.expression, vars)
	if err == nil {
		var out ref.Val
		if out, _, err = program.Eval(vars); err == nil {
			return out.Value(), nil
		}
	}
	return nil, ruleError(EngineCEL, r.expression, ctx.scopeLabel(), err)
}

func (e *celEvaluator) program(expression string, vars map[string]any) (celgo.Program, error) {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	key := EngineCEL + ":" + strings.Join(names, ",") + ":" + expression
	if program, ok := cachedProgram[celgo.Program](e.cache, key); ok {
		return program, nil
	}

	env, err := celgo.NewEnv(e.declarations(names)...)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	storeProgram(e.cache, key, program)
	return program, nil
}

func (e *celEvaluator) declarations(names []string) []celgo.EnvOption {
	decls := make([]celgo.EnvOption, 0, len(names)+1)
	for _, name := range names {
		kind := celgo.DynType
		if name == "now" {
			kind = celgo.TimestampType
		}
		decls = append(decls, celgo.Variable(name, kind))
	}
	if e.registry != nil {
		decls = append(decls, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.call),
			),
		))
	}
	return decls
}

func (e *celEvaluator) call(nameVal, argsVal ref.Val) ref.Val {
	name, ok := nameVal.Value().(string)
	if !ok {
		return types.NewErr("opts: call name must be a string")
	}
	native, err := argsVal.ConvertToNative(reflect.TypeOf([]any{}))
	if err != nil {
		return types.NewErr("opts: call arguments: %v", err)
	}
	args, _ := native.([]any)
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}
