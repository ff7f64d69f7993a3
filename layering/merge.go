package layering

import "reflect"

// MergeLayers folds snapshots listed strongest first into one value. Settings
// present in a stronger layer win; missing ones fall through to weaker layers.
//
// Missing means a nil pointer, map, slice or interface, or a scalar struct
// field at its zero value. Use a pointer to state an explicit zero, such as a
// *bool headless flag set to false. Map keys count as present whenever they
// exist. Slices are replaced, never appended.
func MergeLayers[T any](layers ...T) T {
	if len(layers) == 0 {
		var zero T
		return zero
	}
	merged := cloneValue(reflect.ValueOf(layers[len(layers)-1]))
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeValue(reflect.ValueOf(layers[i]), merged)
	}
	return asType[T](merged)
}

func mergeValue(strong, weak reflect.Value) reflect.Value {
	if !strong.IsValid() {
		return cloneValue(weak)
	}
	switch strong.Kind() {
	case reflect.Pointer, reflect.Interface:
		return mergeIndirect(strong, weak)
	case reflect.Struct:
		return mergeStruct(strong, weak)
	case reflect.Map:
		return mergeMap(strong, weak)
	case reflect.Slice:
		if strong.IsNil() {
			return inherit(strong, weak)
		}
		return cloneValue(strong)
	case reflect.Array:
		return mergeArray(strong, weak)
	default:
		return cloneValue(strong)
	}
}

// mergeIndirect merges the targets of two pointers or interfaces.
func mergeIndirect(strong, weak reflect.Value) reflect.Value {
	if strong.IsNil() {
		return inherit(strong, weak)
	}
	var weakElem reflect.Value
	if weak.IsValid() && weak.Kind() == strong.Kind() && !weak.IsNil() {
		weakElem = weak.Elem()
	}
	merged := mergeValue(strong.Elem(), weakElem)
	if strong.Kind() == reflect.Interface {
		return merged.Convert(strong.Type())
	}
	out := reflect.New(strong.Type().Elem())
	out.Elem().Set(merged)
	return out
}

func mergeStruct(strong, weak reflect.Value) reflect.Value {
	out := reflect.New(strong.Type()).Elem()
	sameType := weak.IsValid() && weak.Type() == strong.Type()
	for i := 0; i < strong.NumField(); i++ {
		field := out.Field(i)
		if !field.CanSet() {
			continue
		}
		var weakField reflect.Value
		if sameType {
			weakField = weak.Field(i)
		}
		strongField := strong.Field(i)
		if weakField.IsValid() && isScalar(strongField.Kind()) && strongField.IsZero() {
			field.Set(cloneValue(weakField))
		} else {
			field.Set(mergeValue(strongField, weakField))
		}
	}
	return out
}

func mergeMap(strong, weak reflect.Value) reflect.Value {
	if strong.IsNil() {
		return inherit(strong, weak)
	}
	out := reflect.MakeMapWithSize(strong.Type(), strong.Len())
	if weak.IsValid() && weak.Type() == strong.Type() && !weak.IsNil() {
		for iter := weak.MapRange(); iter.Next(); {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
	}
	for iter := strong.MapRange(); iter.Next(); {
		key := iter.Key()
		if existing := out.MapIndex(key); existing.IsValid() {
			out.SetMapIndex(key, mergeValue(iter.Value(), existing))
		} else {
			out.SetMapIndex(key, cloneValue(iter.Value()))
		}
	}
	return out
}

func mergeArray(strong, weak reflect.Value) reflect.Value {
	out := reflect.New(strong.Type()).Elem()
	for i := 0; i < strong.Len(); i++ {
		var weakElem reflect.Value
		if weak.IsValid() && weak.Kind() == reflect.Array && i < weak.Len() {
			weakElem = weak.Index(i)
		}
		out.Index(i).Set(mergeValue(strong.Index(i), weakElem))
	}
	return out
}

// inherit copies weak in place of an unset strong value. Without a weak value
// of the same type the result is the typed zero of strong.
func inherit(strong, weak reflect.Value) reflect.Value {
	if weak.IsValid() && weak.Type() == strong.Type() {
		return cloneValue(weak)
	}
	return reflect.Zero(strong.Type())
}

func isScalar(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}
