package opts

import (
	"encoding/json"
	"errors"

	"github.com/goliatone/go-browser-opts/layering"
)

// ErrPathRequired indicates a trace was requested without a path.
var ErrPathRequired = errors.New("opts: path must not be empty")

// Trace captures provenance information for a given path lookup across the
// scoped layers that produced the effective value.
type Trace struct {
	Path   string       `json:"path"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how a specific scope contributed to a traced path.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Path       string `json:"path"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
}

// Winner returns the strongest layer that set the traced path.
func (t Trace) Winner() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// ResolveWithTrace returns the effective value at path together with the
// per-layer provenance, strongest layer first. Wrappers built without a Stack
// report a single synthetic layer using the configured scope.
func (o *Options[T]) ResolveWithTrace(path string) (any, Trace, error) {
	if path == "" {
		return nil, Trace{}, ErrPathRequired
	}
	if o == nil {
		return nil, Trace{Path: path}, nil
	}

	value, found := layering.Lookup(o.Value, path)
	trace := Trace{Path: path}
	if len(o.layers) == 0 {
		trace.Layers = []Provenance{{
			Scope: o.syntheticScope(),
			Path:  path,
			Value: value,
			Found: found,
		}}
		return value, trace, nil
	}

	trace.Layers = make([]Provenance, 0, len(o.layers))
	for _, layer := range o.layers {
		layerValue, ok := layering.Lookup(layer.Snapshot, path)
		trace.Layers = append(trace.Layers, Provenance{
			Scope:      layer.Scope.clone(),
			SnapshotID: layer.SnapshotID,
			Path:       path,
			Value:      layerValue,
			Found:      ok,
		})
	}
	return value, trace, nil
}

// FlattenWithProvenance enumerates every leaf path of the effective value and
// attributes it to the strongest layer that supplied it.
func (o *Options[T]) FlattenWithProvenance() ([]Provenance, error) {
	if o == nil {
		return nil, nil
	}
	paths := layering.Paths(o.Value)
	out := make([]Provenance, 0, len(paths))
	for _, path := range paths {
		value, trace, err := o.ResolveWithTrace(path)
		if err != nil {
			return nil, err
		}
		if winner, ok := trace.Winner(); ok {
			out = append(out, winner)
			continue
		}
		out = append(out, Provenance{
			Scope: o.syntheticScope(),
			Path:  path,
			Value: value,
			Found: true,
		})
	}
	return out, nil
}

func (o *Options[T]) syntheticScope() Scope {
	if !o.cfg.scope.isZero() {
		return o.cfg.scope.clone()
	}
	return Scope{Name: "value"}
}
