package opts

import (
	"reflect"

	"github.com/goliatone/go-browser-opts/layering"
)

// New wraps value without validating it.
func New[T any](value T, opts ...Option) *Options[T] {
	return &Options[T]{Value: value, cfg: applyOptions(opts)}
}

// Load wraps value and runs its Validate method, if it has one.
func Load[T any](value T, opts ...Option) (*Options[T], error) {
	if err := validateValue(value); err != nil {
		return nil, err
	}
	return New(value, opts...), nil
}

// ApplyDefaults returns defaults when value is the zero value of T.
func ApplyDefaults[T any](value T, defaults T) T {
	if rv := reflect.ValueOf(value); rv.IsValid() && !rv.IsZero() {
		return value
	}
	return defaults
}

func (o *Options[T]) Validate() error {
	return validateValue(o.Value)
}

// WithValue returns a copy of the wrapper holding value. Configuration and
// layer provenance carry over.
func (o *Options[T]) WithValue(value T) *Options[T] {
	if o == nil {
		return New(value)
	}
	return &Options[T]{
		Value:  value,
		cfg:    o.cfg,
		layers: append([]layerSnapshot(nil), o.layers...),
	}
}

// LayerWith puts layers, strongest first, on top of the current value and
// returns the merged result. Provenance from Stack.Merge is kept but the new
// layers are not traced.
func (o *Options[T]) LayerWith(layers ...T) *Options[T] {
	if o == nil {
		if len(layers) == 0 {
			return nil
		}
		return New(layering.MergeLayers(layers...))
	}
	return o.WithValue(layering.MergeLayers(append(append([]T(nil), layers...), o.Value)...))
}

func validateValue[T any](value T) error {
	if v, ok := any(value).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	if v, ok := any(&value).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}
