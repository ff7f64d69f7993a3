package opts

// Options wraps a typed settings value. Wrappers returned by Stack.Merge keep
// the layers they were merged from so any field can be traced to its scope.
type Options[T any] struct {
	Value T

	cfg    optionsConfig
	layers []layerSnapshot
}

// SchemaFormat names the encoding of a SchemaDocument.
type SchemaFormat string

const (
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	SchemaFormatOpenAPI     SchemaFormat = "openapi"
)

// SchemaDocument is a generated schema. Document must be JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
	Scopes   []SchemaScope
}

// SchemaScope describes one layer that fed the documented value.
type SchemaScope struct {
	Name       string         `json:"name"`
	Label      string         `json:"label,omitempty"`
	Priority   int            `json:"priority"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	SnapshotID string         `json:"snapshot_id,omitempty"`
}

// SchemaGenerator builds a schema document for a settings value. It must be
// safe for concurrent use.
type SchemaGenerator interface {
	Generate(value any) (SchemaDocument, error)
}

// Response holds the result of a rule evaluation.
type Response[T any] struct {
	Value T
}

// Evaluator runs rule expressions such as the headless fallback rule.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is an expression prepared once and evaluated many times.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}
