package openapi

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// schemaForType derives a schema from the static type so unset pointer fields
// still describe their shape. Pointers become nullable.
func schemaForType(rt reflect.Type, seen map[reflect.Type]bool) (map[string]any, error) {
	if rt == nil {
		return map[string]any{}, nil
	}
	nullable := false
	for rt.Kind() == reflect.Pointer {
		nullable = true
		rt = rt.Elem()
	}

	var schema map[string]any
	switch rt.Kind() {
	case reflect.Bool:
		schema = map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		schema = map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		schema = map[string]any{"type": "number"}
	case reflect.String:
		schema = map[string]any{"type": "string"}
	case reflect.Interface:
		schema = map[string]any{}
	case reflect.Struct:
		if rt == timeType {
			schema = map[string]any{"type": "string", "format": "date-time"}
			break
		}
		if seen[rt] {
			return nil, fmt.Errorf("openapi: recursive type %s unsupported", rt)
		}
		seen[rt] = true
		object, err := schemaForStruct(rt, seen)
		delete(seen, rt)
		if err != nil {
			return nil, err
		}
		schema = object
	case reflect.Map:
		if rt.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("openapi: map key type %s unsupported", rt.Key())
		}
		values, err := schemaForType(rt.Elem(), seen)
		if err != nil {
			return nil, err
		}
		schema = map[string]any{"type": "object", "additionalProperties": values}
	case reflect.Slice, reflect.Array:
		if rt.Elem().Kind() == reflect.Uint8 {
			schema = map[string]any{"type": "string", "format": "byte"}
			break
		}
		items, err := schemaForType(rt.Elem(), seen)
		if err != nil {
			return nil, err
		}
		schema = map[string]any{"type": "array", "items": items}
	default:
		return nil, fmt.Errorf("openapi: kind %s unsupported", rt.Kind())
	}
	if nullable {
		schema["nullable"] = true
	}
	return schema, nil
}

func schemaForStruct(rt reflect.Type, seen map[reflect.Type]bool) (map[string]any, error) {
	properties := map[string]any{}
	var required []string
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := parseJSONName(field)
		if skip {
			continue
		}
		child, err := schemaForType(field.Type, seen)
		if err != nil {
			return nil, fmt.Errorf("openapi: field %s: %w", field.Name, err)
		}
		if err := applyFieldMetadata(child, field); err != nil {
			return nil, err
		}
		properties[name] = child
		if !omitEmpty && field.Type.Kind() != reflect.Pointer {
			required = append(required, name)
		}
	}
	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		sort.Strings(required)
		schema["required"] = required
	}
	return schema, nil
}

func parseJSONName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, false, false
	}
	segments := strings.Split(tag, ",")
	if segments[0] == "-" {
		return "", false, true
	}
	name = segments[0]
	if name == "" {
		name = field.Name
	}
	for _, segment := range segments[1:] {
		if segment == "omitempty" || segment == "omitzero" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

// applyFieldMetadata reads the description, enum, default and minimum tags.
func applyFieldMetadata(schema map[string]any, field reflect.StructField) error {
	base := field.Type
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if description := field.Tag.Get("description"); description != "" {
		schema["description"] = description
	}
	if raw := field.Tag.Get("enum"); raw != "" {
		values := make([]any, 0)
		for _, part := range strings.Split(raw, ",") {
			value, err := parseScalar(base, strings.TrimSpace(part))
			if err != nil {
				return fmt.Errorf("openapi: parse enum for field %s: %w", field.Name, err)
			}
			values = append(values, value)
		}
		schema["enum"] = values
	}
	if raw := field.Tag.Get("default"); raw != "" {
		value, err := parseScalar(base, raw)
		if err != nil {
			return fmt.Errorf("openapi: parse default for field %s: %w", field.Name, err)
		}
		schema["default"] = value
	}
	if raw := field.Tag.Get("minimum"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("openapi: parse minimum for field %s: %w", field.Name, err)
		}
		schema["minimum"] = value
	}
	return nil
}

func parseScalar(t reflect.Type, raw string) (any, error) {
	switch t.Kind() {
	case reflect.Bool:
		return strconv.ParseBool(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(raw, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(raw, 10, 64)
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(raw, 64)
	case reflect.String:
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", t.Kind())
	}
}
