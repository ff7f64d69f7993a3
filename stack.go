package opts

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/goliatone/go-browser-opts/layering"
)

var (
	ErrScopeNameRequired  = errors.New("scope: name must be provided")
	ErrDuplicateScopeName = errors.New("scope: names must be unique")
	ErrPriorityOrder      = errors.New("scope: priorities must be strictly ordered")
	ErrEmptyStack         = errors.New("scope: stack must include at least one layer")
)

// Layer is the snapshot one scope contributes. SnapshotID names the source
// the snapshot was read from and is carried into traces.
type Layer[T any] struct {
	Scope      Scope
	Snapshot   T
	SnapshotID string
}

// LayerOption configures NewLayer.
type LayerOption[T any] func(*Layer[T])

func WithSnapshotID[T any](id string) LayerOption[T] {
	return func(layer *Layer[T]) {
		layer.SnapshotID = id
	}
}

// NewLayer copies scope and snapshot into a new Layer.
func NewLayer[T any](scope Scope, snapshot T, opts ...LayerOption[T]) Layer[T] {
	layer := Layer[T]{Scope: scope, Snapshot: snapshot}
	for _, opt := range opts {
		if opt != nil {
			opt(&layer)
		}
	}
	return layer.clone()
}

func (l Layer[T]) clone() Layer[T] {
	l.Scope = l.Scope.clone()
	l.Snapshot = layering.Clone(l.Snapshot)
	return l
}

// Stack is an immutable set of layers ordered strongest first.
type Stack[T any] struct {
	layers []Layer[T]
}

// NewStack copies layers and orders them by descending priority. Every scope
// needs a unique name and a unique priority.
func NewStack[T any](layers ...Layer[T]) (*Stack[T], error) {
	names := make(map[string]struct{}, len(layers))
	ordered := make([]Layer[T], 0, len(layers))
	for _, layer := range layers {
		name := layer.Scope.Name
		if name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, seen := names[name]; seen {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, name)
		}
		names[name] = struct{}{}
		ordered = append(ordered, layer.clone())
	}

	slices.SortStableFunc(ordered, func(a, b Layer[T]) int {
		return cmp.Compare(b.Scope.Priority, a.Scope.Priority)
	})
	for i := 1; i < len(ordered); i++ {
		stronger, weaker := ordered[i-1].Scope, ordered[i].Scope
		if stronger.Priority == weaker.Priority {
			return nil, fmt.Errorf("%w: %s and %s share %d",
				ErrPriorityOrder, stronger.Name, weaker.Name, weaker.Priority)
		}
	}
	return &Stack[T]{layers: ordered}, nil
}

// Layers returns copies of the layers, strongest first.
func (s *Stack[T]) Layers() []Layer[T] {
	if s.Len() == 0 {
		return nil
	}
	out := make([]Layer[T], len(s.layers))
	for i, layer := range s.layers {
		out[i] = layer.clone()
	}
	return out
}

func (s *Stack[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Merge collapses the stack into one value. Set fields of stronger layers win
// and unset ones fall through, see layering.MergeLayers. The wrapper keeps
// the layers for ResolveWithTrace; opts configure it.
func (s *Stack[T]) Merge(opts ...Option) (*Options[T], error) {
	if s.Len() == 0 {
		return nil, ErrEmptyStack
	}
	values := make([]T, len(s.layers))
	provenance := make([]layerSnapshot, len(s.layers))
	for i, layer := range s.layers {
		values[i] = layer.Snapshot
		provenance[i] = layerSnapshot{
			Scope:      layer.Scope.clone(),
			Snapshot:   layering.Clone(layer.Snapshot),
			SnapshotID: layer.SnapshotID,
		}
	}
	merged := New(layering.MergeLayers(values...), opts...)
	merged.layers = provenance
	return merged, nil
}

type layerSnapshot struct {
	Scope      Scope
	Snapshot   any
	SnapshotID string
}

// BrowserLayers is the input of one instance resolution.
type BrowserLayers[T any] struct {
	InstanceName string
	Instance     T
	Browser      T
	Defaults     T
	// SnapshotIDs maps a scope name to the source its snapshot came from.
	SnapshotIDs map[string]string
}

// Stack builds the instance > browser > defaults stack.
func (b BrowserLayers[T]) Stack() (*Stack[T], error) {
	return NewStack(
		NewLayer(InstanceScope(b.InstanceName), b.Instance, WithSnapshotID[T](b.SnapshotIDs[ScopeInstance])),
		NewLayer(BrowserScope(), b.Browser, WithSnapshotID[T](b.SnapshotIDs[ScopeBrowser])),
		NewLayer(DefaultsScope(), b.Defaults, WithSnapshotID[T](b.SnapshotIDs[ScopeDefaults])),
	)
}
