package opts

// Scope is a named precedence level. A higher Priority wins over a lower one.
type Scope struct {
	Name     string         `json:"name"`
	Label    string         `json:"label,omitempty"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Built-in browser scopes, weakest first.
const (
	ScopeDefaults = "defaults"
	ScopeBrowser  = "browser"
	ScopeInstance = "instance"
)

const (
	ScopePriorityDefaults = 0
	ScopePriorityBrowser  = 100
	ScopePriorityInstance = 200
)

// ScopeOption configures NewScope.
type ScopeOption func(*Scope)

// WithScopeLabel sets the display label.
func WithScopeLabel(label string) ScopeOption {
	return func(s *Scope) {
		s.Label = label
	}
}

// WithScopeMetadata attaches a copy of metadata.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(s *Scope) {
		if len(metadata) > 0 {
			s.Metadata = copyMetadata(metadata)
		}
	}
}

// NewScope builds a scope. Names and priorities are checked by NewStack.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	scope := Scope{Name: name, Priority: priority}
	for _, opt := range opts {
		if opt != nil {
			opt(&scope)
		}
	}
	return scope
}

// DefaultsScope holds the built-in provider defaults.
func DefaultsScope() Scope {
	return NewScope(ScopeDefaults, ScopePriorityDefaults, WithScopeLabel("Provider Defaults"))
}

// BrowserScope holds the global browser config.
func BrowserScope() Scope {
	return NewScope(ScopeBrowser, ScopePriorityBrowser, WithScopeLabel("Browser Config"))
}

// InstanceScope holds the config of the named instance, recorded under the
// "instance" metadata key.
func InstanceScope(name string) Scope {
	return NewScope(ScopeInstance, ScopePriorityInstance,
		WithScopeLabel("Browser Instance"),
		WithScopeMetadata(map[string]any{"instance": name}),
	)
}

func (s Scope) clone() Scope {
	s.Metadata = copyMetadata(s.Metadata)
	return s
}

func (s Scope) isZero() bool {
	return s.Name == "" && s.Label == "" && s.Priority == 0 && len(s.Metadata) == 0
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
