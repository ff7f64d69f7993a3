package layering

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Lookup walks value along a dot separated path and returns the leaf it finds.
// Struct segments match the exported field name (case-insensitive) or its json
// tag. Pointers and interfaces are dereferenced, so a *bool leaf is returned as
// a bool. A nil pointer or a zero scalar struct field reports not found, which
// mirrors how MergeLayers decides that a layer left a setting unset.
func Lookup(value any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	current := reflect.ValueOf(value)
	for _, segment := range strings.Split(path, ".") {
		current = indirect(current)
		if !current.IsValid() {
			return nil, false
		}
		switch current.Kind() {
		case reflect.Struct:
			field, ok := structField(current, segment)
			if !ok {
				return nil, false
			}
			if isScalar(field.Kind()) && field.IsZero() {
				return nil, false
			}
			current = field
		case reflect.Map:
			keyType := current.Type().Key()
			if keyType.Kind() != reflect.String {
				return nil, false
			}
			next := current.MapIndex(reflect.ValueOf(segment).Convert(keyType))
			if !next.IsValid() {
				return nil, false
			}
			current = next
		case reflect.Slice, reflect.Array:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= current.Len() {
				return nil, false
			}
			current = current.Index(index)
		default:
			return nil, false
		}
	}
	current = indirect(current)
	if !current.IsValid() {
		return nil, false
	}
	return current.Interface(), true
}

// Paths enumerates the leaf paths present in value, sorted alphabetically.
// Slices are reported as a single leaf.
func Paths(value any) []string {
	var out []string
	collectPaths(reflect.ValueOf(value), "", &out)
	sort.Strings(out)
	return out
}

// ToMap converts value into a map keyed by json names (or field names when no
// tag is present). Pointers are dereferenced and nil pointers become nil
// entries so rule expressions can test for absence.
func ToMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	converted, ok := toPlain(reflect.ValueOf(value)).(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return converted
}

func collectPaths(v reflect.Value, prefix string, out *[]string) {
	v = indirect(v)
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			fv := v.Field(i)
			if isScalar(fv.Kind()) && fv.IsZero() {
				continue
			}
			collectPaths(fv, joinPath(prefix, field.Name), out)
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return
		}
		iter := v.MapRange()
		for iter.Next() {
			collectPaths(iter.Value(), joinPath(prefix, iter.Key().String()), out)
		}
	case reflect.Slice:
		if !v.IsNil() && prefix != "" {
			*out = append(*out, prefix)
		}
	default:
		if prefix != "" {
			*out = append(*out, prefix)
		}
	}
}

func toPlain(v reflect.Value) any {
	v = indirect(v)
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		out := make(map[string]any, v.NumField())
		for i := 0; i < v.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := fieldName(field)
			if name == "-" {
				continue
			}
			out[name] = toPlain(v.Field(i))
		}
		return out
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return v.Interface()
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = toPlain(iter.Value())
		}
		return out
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = toPlain(v.Index(i))
		}
		return out
	default:
		return v.Interface()
	}
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func structField(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if strings.EqualFold(field.Name, name) || fieldName(field) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func fieldName(field reflect.StructField) string {
	if tag := field.Tag.Get("json"); tag != "" {
		if name := strings.Split(tag, ",")[0]; name != "" {
			return name
		}
	}
	return field.Name
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
