package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	opts "github.com/goliatone/go-browser-opts"
	"github.com/goliatone/go-browser-opts/pkg/activity"
)

// RunnerHeadlessRule is the default the test runner applies when neither
// scope sets headless: hide the window on CI or without a terminal.
const RunnerHeadlessRule = "ci || !tty"

// DefaultViewport is the page size used when no scope sets one.
var DefaultViewport = Size{Width: 414, Height: 896}

// DefaultSettings returns the built-in defaults layer.
func DefaultSettings() Settings {
	return Settings{
		Headless: Bool(false),
		Viewport: &Viewport{Width: Int(DefaultViewport.Width), Height: Int(DefaultViewport.Height)},
	}
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDefaults replaces the built-in defaults layer. A nil Headless becomes
// false, so the defaults layer always supplies the headless value.
func WithDefaults(defaults Settings) ResolverOption {
	return func(r *Resolver) {
		if defaults.Headless == nil {
			defaults.Headless = Bool(false)
		}
		r.defaults = defaults
	}
}

// WithHeadlessRule computes the defaults-layer headless value with rule. A nil
// evaluator selects the expr engine.
func WithHeadlessRule(rule string, evaluator opts.Evaluator) ResolverOption {
	return func(r *Resolver) {
		r.rule = rule
		r.evaluator = evaluator
	}
}

// WithRuleFunctions exposes registry to the headless rule.
func WithRuleFunctions(registry *opts.FunctionRegistry) ResolverOption {
	return func(r *Resolver) {
		r.functions = registry.Clone()
	}
}

// WithEnvironment pins the rule environment instead of detecting it.
func WithEnvironment(env Environment) ResolverOption {
	return func(r *Resolver) {
		r.env = &env
	}
}

// WithObserver adds an observer notified for every resolved instance.
func WithObserver(observer Observer) ResolverOption {
	return func(r *Resolver) {
		if observer != nil {
			r.observers = append(r.observers, observer)
		}
	}
}

// WithActivityHooks emits layer and resolution events to hooks.
func WithActivityHooks(hooks activity.Hooks) ResolverOption {
	return func(r *Resolver) {
		r.emitter = activity.NewEmitter(hooks, activity.Config{Enabled: true, Channel: activity.DefaultChannel})
	}
}

// WithLogger sets the logger. Nil discards.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver turns a Config into one Effective configuration per instance.
// A Resolver is safe for concurrent use.
type Resolver struct {
	defaults  Settings
	rule      string
	evaluator opts.Evaluator
	functions *opts.FunctionRegistry
	env       *Environment
	observers observers
	emitter   *activity.Emitter
	source    *layerSource
	logger    *slog.Logger
}

// NewResolver builds a Resolver.
func NewResolver(options ...ResolverOption) *Resolver {
	r := &Resolver{defaults: DefaultSettings()}
	for _, option := range options {
		if option != nil {
			option(r)
		}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	r.logger = r.logger.With("component", "browser")
	return r
}

// Resolve validates cfg and resolves every instance in declaration order.
// A disabled config without instances resolves to an empty Resolution.
func (r *Resolver) Resolve(ctx context.Context, cfg Config) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}
	providerName := r.provider(cfg)
	if err := cfg.validate(providerName); err != nil {
		return Resolution{}, err
	}
	resolution := Resolution{Provider: providerName}
	if len(cfg.Instances) == 0 {
		return resolution, nil
	}

	defaults, err := r.defaultsFor(providerName)
	if err != nil {
		return Resolution{}, err
	}
	resolution.Instances = make([]Effective, 0, len(cfg.Instances))
	for _, instance := range cfg.Instances {
		if err := ctx.Err(); err != nil {
			return Resolution{}, err
		}
		effective, err := r.resolve(ctx, cfg, instance, defaults)
		if err != nil {
			return Resolution{}, err
		}
		resolution.Instances = append(resolution.Instances, effective)
	}
	return resolution, nil
}

// ResolveInstance resolves a single instance against cfg. The instance does
// not need to be listed in cfg.Instances.
func (r *Resolver) ResolveInstance(ctx context.Context, cfg Config, instance InstanceConfig) (Effective, error) {
	if err := ctx.Err(); err != nil {
		return Effective{}, err
	}
	providerName := r.provider(cfg)
	if _, ok := providers[providerName]; !ok {
		return Effective{}, fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}
	if err := instance.validate(providerName); err != nil {
		return Effective{}, err
	}
	defaults, err := r.defaultsFor(providerName)
	if err != nil {
		return Effective{}, err
	}
	return r.resolve(ctx, cfg, instance, defaults)
}

// Explain reports which scope supplied path for the named instance, strongest
// layer first.
func (r *Resolver) Explain(ctx context.Context, cfg Config, instanceName, path string) (opts.Trace, error) {
	if err := ctx.Err(); err != nil {
		return opts.Trace{}, err
	}
	providerName := r.provider(cfg)
	if err := cfg.validate(providerName); err != nil {
		return opts.Trace{}, err
	}
	for _, instance := range cfg.Instances {
		if instance.InstanceName() != instanceName {
			continue
		}
		defaults, err := r.defaultsFor(providerName)
		if err != nil {
			return opts.Trace{}, err
		}
		stack, err := r.stack(ctx, cfg, instance, defaults)
		if err != nil {
			return opts.Trace{}, err
		}
		merged, err := stack.Merge()
		if err != nil {
			return opts.Trace{}, err
		}
		_, trace, err := merged.ResolveWithTrace(path)
		return trace, err
	}
	return opts.Trace{}, fmt.Errorf("%w: %q", ErrInstanceNotFound, instanceName)
}

func (r *Resolver) resolve(ctx context.Context, cfg Config, instance InstanceConfig, defaults Settings) (Effective, error) {
	name := instance.InstanceName()
	stack, err := r.stack(ctx, cfg, instance, defaults)
	if err != nil {
		return Effective{}, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return Effective{}, fmt.Errorf("browser: instance %q: %w", name, err)
	}
	_, trace, err := merged.ResolveWithTrace("headless")
	if err != nil {
		return Effective{}, err
	}

	value := merged.Value
	effective := Effective{
		Name:     name,
		Browser:  value.Browser,
		Provider: value.Provider,
		Headless: value.Headless != nil && *value.Headless,
		Viewport: DefaultViewport,
	}
	if winner, ok := trace.Winner(); ok {
		effective.HeadlessSource = winner.Scope.Name
	}
	if value.Viewport != nil {
		if value.Viewport.Width != nil {
			effective.Viewport.Width = *value.Viewport.Width
		}
		if value.Viewport.Height != nil {
			effective.Viewport.Height = *value.Viewport.Height
		}
	}
	if value.Launch != nil {
		effective.Launch = *value.Launch
	}
	for _, layer := range stack.Layers() {
		if layer.SnapshotID == "" {
			continue
		}
		if effective.SnapshotIDs == nil {
			effective.SnapshotIDs = make(map[string]string, stack.Len())
		}
		effective.SnapshotIDs[layer.Scope.Name] = layer.SnapshotID
	}

	if err := checkBrowser(normalizeProvider(effective.Provider), effective.Browser); err != nil {
		return Effective{}, fmt.Errorf("browser: instance %q: %w", name, err)
	}
	if effective.Headless && !SupportsHeadless(effective.Provider) {
		return Effective{}, fmt.Errorf("%w: instance %q uses %s (set by %s)",
			ErrHeadlessUnsupported, name, effective.Provider, effective.HeadlessSource)
	}

	r.logger.Debug("instance resolved",
		"instance", name,
		"browser", effective.Browser,
		"headless", effective.Headless,
		"source", effective.HeadlessSource,
	)
	r.observers.ObserveInstance(ctx, effective)
	r.emit(ctx, stack, effective)
	return effective, nil
}

func (r *Resolver) stack(ctx context.Context, cfg Config, instance InstanceConfig, defaults Settings) (*opts.Stack[Settings], error) {
	name := instance.InstanceName()
	instanceSettings, instanceID, err := r.source.overlay(ctx, opts.InstanceScope(name), Settings{
		Browser:  instance.Browser,
		Headless: instance.Headless,
		Viewport: instance.Viewport,
		Launch:   instance.Launch,
	}, cfg.SnapshotID)
	if err != nil {
		return nil, err
	}
	browserSettings, browserID, err := r.source.overlay(ctx, opts.BrowserScope(), Settings{
		Provider: cfg.Provider,
		Headless: cfg.Headless,
		Viewport: cfg.Viewport,
		Launch:   cfg.Launch,
	}, cfg.SnapshotID)
	if err != nil {
		return nil, err
	}
	return opts.BrowserLayers[Settings]{
		InstanceName: name,
		Instance:     instanceSettings,
		Browser:      browserSettings,
		Defaults:     defaults,
		SnapshotIDs: map[string]string{
			opts.ScopeInstance: instanceID,
			opts.ScopeBrowser:  browserID,
			opts.ScopeDefaults: opts.ScopeDefaults,
		},
	}.Stack()
}

func (r *Resolver) provider(cfg Config) string {
	if cfg.Provider != "" {
		return cfg.Provider
	}
	return normalizeProvider(r.defaults.Provider)
}

// defaultsFor returns the defaults layer for one resolution, running the
// headless rule when one is configured and the provider can go headless.
func (r *Resolver) defaultsFor(providerName string) (Settings, error) {
	defaults := r.defaults
	defaults.Provider = providerName
	if r.rule == "" || !SupportsHeadless(providerName) {
		return defaults, nil
	}

	env := r.environment()
	options := []opts.Option{
		opts.WithScope(opts.DefaultsScope()),
		opts.WithEvaluatorLogger(opts.SlogEvaluatorLogger(r.logger)),
		opts.WithFunctionRegistry(r.ruleFunctions(env)),
	}
	if r.evaluator != nil {
		options = append(options, opts.WithEvaluator(r.evaluator))
	}
	response, err := opts.New(env.bindings(providerName), options...).Evaluate(r.rule)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrHeadlessRule, err)
	}
	headless, ok := response.Value.(bool)
	if !ok {
		return Settings{}, fmt.Errorf("%w: %q returned %T, want bool", ErrHeadlessRule, r.rule, response.Value)
	}
	defaults.Headless = Bool(headless)
	return defaults, nil
}

func (r *Resolver) environment() Environment {
	if r.env != nil {
		return *r.env
	}
	return DetectEnvironment()
}

// ruleFunctions adds getenv(name, fallback) unless the caller registered a
// function with that name.
func (r *Resolver) ruleFunctions(env Environment) *opts.FunctionRegistry {
	registry := r.functions.Clone()
	if registry == nil {
		registry = opts.NewFunctionRegistry()
	}
	if !registry.Has("getenv") {
		_ = registry.Register("getenv", func(args ...any) (any, error) {
			if len(args) != 2 {
				return nil, errors.New("getenv expects a name and a fallback")
			}
			name, _ := args[0].(string)
			if value, ok := env.Env[name]; ok {
				return value, nil
			}
			return args[1], nil
		})
	}
	return registry
}

func (r *Resolver) emit(ctx context.Context, stack *opts.Stack[Settings], effective Effective) {
	if !r.emitter.Enabled() {
		return
	}
	base := activity.ResolutionInput{
		Instance: effective.Name,
		Browser:  effective.Browser,
		Provider: effective.Provider,
	}
	var errs []error
	for _, layer := range stack.Layers() {
		input := base
		input.Scope = activity.ScopeContext{
			Name:       layer.Scope.Name,
			Label:      layer.Scope.Label,
			Priority:   layer.Scope.Priority,
			Metadata:   layer.Scope.Metadata,
			SnapshotID: layer.SnapshotID,
		}
		errs = append(errs, r.emitter.Emit(ctx, activity.BuildLayerAppliedEvent(input)))
	}
	resolved := base
	resolved.Headless = effective.Headless
	resolved.HeadlessSource = effective.HeadlessSource
	errs = append(errs, r.emitter.Emit(ctx, activity.BuildInstanceResolvedEvent(resolved)))
	if err := errors.Join(errs...); err != nil {
		r.logger.Warn("activity emission failed", "instance", effective.Name, "error", err)
	}
}
