package opts

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/goliatone/go-browser-opts/layering"
)

// FieldDescriptor describes a path and the inferred type.
type FieldDescriptor struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// DefaultSchemaGenerator returns the built-in descriptor-based schema generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(value any) (SchemaDocument, error) {
	descriptors := deriveFieldDescriptors(value)
	if descriptors == nil {
		descriptors = []FieldDescriptor{}
	}
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: descriptors,
	}, nil
}

// Schema generates a schema document for the wrapped value. When scope schema
// is enabled the contributing layers are listed strongest first.
func (o *Options[T]) Schema() (SchemaDocument, error) {
	if o == nil {
		return DefaultSchemaGenerator().Generate(nil)
	}
	doc, err := o.schemaGenerator().Generate(o.Value)
	if err != nil {
		return SchemaDocument{}, fmt.Errorf("opts: schema: %w", err)
	}
	if o.cfg.scopeSchema && len(o.layers) > 0 {
		doc.Scopes = make([]SchemaScope, 0, len(o.layers))
		for _, layer := range o.layers {
			doc.Scopes = append(doc.Scopes, SchemaScope{
				Name:       layer.Scope.Name,
				Label:      layer.Scope.Label,
				Priority:   layer.Scope.Priority,
				Metadata:   copyMetadata(layer.Scope.Metadata),
				SnapshotID: layer.SnapshotID,
			})
		}
	}
	return doc, nil
}

func deriveFieldDescriptors(value any) []FieldDescriptor {
	if value == nil {
		return nil
	}
	paths := layering.Paths(value)
	fields := make([]FieldDescriptor, 0, len(paths))
	for _, path := range paths {
		leaf, ok := layering.Lookup(value, path)
		if !ok {
			continue
		}
		fields = append(fields, FieldDescriptor{Path: path, Type: typeName(leaf)})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })
	return fields
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice {
		if rv.Len() > 0 {
			return "[]" + typeName(rv.Index(0).Interface())
		}
		return rv.Type().String()
	}
	return fmt.Sprintf("%T", value)
}
