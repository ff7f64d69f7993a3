package opts

import (
	"time"

	"github.com/goliatone/go-browser-opts/layering"
)

// RuleContext carries the inputs of one rule evaluation. Snapshot may be a
// map or a struct; struct fields are bound under their json names.
type RuleContext struct {
	Snapshot  any
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
	Scope     Scope
	ScopeName string
}

// Names bound by every engine. Snapshot keys never shadow them.
var reservedBindings = map[string]struct{}{
	"now":      {},
	"args":     {},
	"metadata": {},
	"scope":    {},
	"call":     {},
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

// inScope falls back to scope when ctx names none.
func (ctx RuleContext) inScope(scope Scope) RuleContext {
	if ctx.Scope.isZero() && !scope.isZero() {
		ctx.Scope = scope.clone()
	}
	if ctx.ScopeName == "" {
		ctx.ScopeName = ctx.Scope.Name
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

func (ctx RuleContext) scopeLabel() string {
	switch {
	case ctx.Scope.Name != "":
		return ctx.Scope.Name
	case ctx.ScopeName != "":
		return ctx.ScopeName
	default:
		return "unknown"
	}
}

// bindings returns every variable a rule can read.
func (ctx RuleContext) bindings() map[string]any {
	vars := map[string]any{}
	if ctx.Snapshot != nil {
		for key, value := range layering.ToMap(ctx.Snapshot) {
			if _, reserved := reservedBindings[key]; !reserved {
				vars[key] = value
			}
		}
	}
	vars["now"] = ctx.timestamp()
	vars["args"] = ctx.Args
	vars["metadata"] = ctx.Metadata
	if scope := ctx.scopeBinding(); scope != nil {
		vars["scope"] = scope
	}
	return vars
}

func (ctx RuleContext) scopeBinding() map[string]any {
	if ctx.Scope.isZero() {
		if ctx.ScopeName == "" {
			return nil
		}
		return map[string]any{"name": ctx.ScopeName}
	}
	binding := map[string]any{
		"name":     ctx.Scope.Name,
		"label":    ctx.Scope.Label,
		"priority": ctx.Scope.Priority,
	}
	if len(ctx.Scope.Metadata) > 0 {
		binding["metadata"] = copyMetadata(ctx.Scope.Metadata)
	}
	return binding
}
