package opts

// Option configures an Options wrapper.
type Option func(*optionsConfig)

type optionsConfig struct {
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          EvaluatorLogger
	schemaGenerator SchemaGenerator
	scope           Scope
	scopeSchema     bool
}

func applyOptions(opts []Option) optionsConfig {
	var cfg optionsConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEvaluator sets the engine used by Evaluate. Without it an expr engine is
// built on first use from the configured cache and function registry.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *optionsConfig) {
		cfg.evaluator = e
	}
}

// WithFunctionRegistry exposes a copy of registry to the default engine.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *optionsConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction registers a single function for the default engine.
// Duplicate names keep the first registration.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *optionsConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithScope sets the scope reported to rules that do not carry their own.
func WithScope(scope Scope) Option {
	return func(cfg *optionsConfig) {
		cfg.scope = scope.clone()
	}
}

// WithScopeSchema adds the contributing scopes to generated schemas.
func WithScopeSchema(include bool) Option {
	return func(cfg *optionsConfig) {
		cfg.scopeSchema = include
	}
}

// WithSchemaGenerator replaces the descriptor schema generator.
func WithSchemaGenerator(generator SchemaGenerator) Option {
	return func(cfg *optionsConfig) {
		cfg.schemaGenerator = generator
	}
}

func (o *Options[T]) evaluatorLogger() EvaluatorLogger {
	if o.cfg.logger == nil {
		return noopEvaluatorLogger{}
	}
	return o.cfg.logger
}

func (o *Options[T]) schemaGenerator() SchemaGenerator {
	if o == nil || o.cfg.schemaGenerator == nil {
		return DefaultSchemaGenerator()
	}
	return o.cfg.schemaGenerator
}
