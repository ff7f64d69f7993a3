// Package openapi publishes an OpenAPI 3 document describing the browser test
// configuration format, derived from the Go types that hold it.
package openapi

import (
	"reflect"

	opts "github.com/goliatone/go-browser-opts"
)

type generator struct {
	options []GeneratorOption
}

// NewGenerator returns a SchemaGenerator producing OpenAPI documents.
func NewGenerator(options ...GeneratorOption) opts.SchemaGenerator {
	return generator{options: append([]GeneratorOption(nil), options...)}
}

// Option makes Options.Schema produce OpenAPI documents.
func Option(options ...GeneratorOption) opts.Option {
	return opts.WithSchemaGenerator(NewGenerator(options...))
}

func (g generator) Generate(value any) (opts.SchemaDocument, error) {
	document, err := Document(value, g.options...)
	if err != nil {
		return opts.SchemaDocument{}, err
	}
	return opts.SchemaDocument{Format: opts.SchemaFormatOpenAPI, Document: document}, nil
}

// Document builds the OpenAPI document for the type of value. Nil yields an
// empty object schema.
func Document(value any, options ...GeneratorOption) (map[string]any, error) {
	root := map[string]any{"type": "object", "properties": map[string]any{}}
	if value != nil {
		schema, err := schemaForType(reflect.TypeOf(value), map[reflect.Type]bool{})
		if err != nil {
			return nil, err
		}
		root = schema
	}
	return applySettings(options).document(root)
}
