package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	opts "github.com/goliatone/go-browser-opts"
	"github.com/goliatone/go-browser-opts/layering"
)

var (
	// ErrETagMismatch indicates a Mutate call raced another writer.
	ErrETagMismatch = errors.New("state: etag mismatch")
	// ErrUnsupportedScope indicates a Ref whose scope has no storage key.
	ErrUnsupportedScope = errors.New("state: unsupported scope")
	// ErrNoLayers indicates none of the requested scopes had a snapshot.
	ErrNoLayers = errors.New("state: no layers found")
)

// Ref identifies one persisted snapshot for one project.
type Ref struct {
	Project string
	Scope   opts.Scope
}

// Meta is storage-owned metadata used for trace/audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty" cbor:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty" cbor:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty" cbor:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty" cbor:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single scope reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

// Resolver orchestrates scoped loads and merges them into a single Options wrapper.
type Resolver[T any] struct {
	Store Store[T]
}

type Mutator[T any] func(*T) error

// Identifier returns the deterministic storage key for the ref.
func (r Ref) Identifier() (string, error) {
	if r.Project == "" {
		return "", fmt.Errorf("state: project is required")
	}
	switch r.Scope.Name {
	case opts.ScopeDefaults, opts.ScopeBrowser:
		return fmt.Sprintf("%s/%s", r.Scope.Name, r.Project), nil
	case opts.ScopeInstance:
		name, _ := r.Scope.Metadata["instance"].(string)
		if name == "" {
			return "", fmt.Errorf("state: missing metadata key %q for scope %q", "instance", r.Scope.Name)
		}
		return fmt.Sprintf("%s/%s/%s", r.Scope.Name, r.Project, name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScope, r.Scope.Name)
	}
}

// Resolve loads every requested scope for project and merges the ones that
// exist. Missing snapshots are skipped.
func (r Resolver[T]) Resolve(ctx context.Context, project string, scopes ...opts.Scope) (*opts.Options[T], error) {
	if err := r.check(project); err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("state: at least one scope is required")
	}

	layers, err := r.load(ctx, project, scopes)
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: project %q", ErrNoLayers, project)
	}
	return merge(layers)
}

// ResolveWithDefaults behaves like Resolve but always appends defaults as the
// weakest layer. The defaults scope name is reserved.
func (r Resolver[T]) ResolveWithDefaults(ctx context.Context, project string, defaults T, scopes ...opts.Scope) (*opts.Options[T], error) {
	if err := r.check(project); err != nil {
		return nil, err
	}

	taken := make(map[int]struct{}, len(scopes))
	for _, scope := range scopes {
		if scope.Name == opts.ScopeDefaults {
			return nil, fmt.Errorf("state: scope name %q is reserved", opts.ScopeDefaults)
		}
		taken[scope.Priority] = struct{}{}
	}
	priority := opts.ScopePriorityDefaults
	for _, scope := range scopes {
		if scope.Priority <= priority {
			priority = scope.Priority - 1
		}
	}
	for {
		if _, ok := taken[priority]; !ok {
			break
		}
		priority--
	}

	layers, err := r.load(ctx, project, scopes)
	if err != nil {
		return nil, err
	}
	defaultsScope := opts.NewScope(opts.ScopeDefaults, priority, opts.WithScopeLabel("Provider Defaults"))
	layers = append(layers, opts.NewLayer(defaultsScope, defaults))
	return merge(layers)
}

// Mutate loads one snapshot, applies fn, validates via opts.Load, then saves.
func (r Resolver[T]) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator[T]) (*opts.Options[T], Meta, error) {
	if err := r.check(ref.Project); err != nil {
		return nil, Meta{}, err
	}
	if ref.Scope.Name == "" {
		return nil, Meta{}, fmt.Errorf("state: scope name is required")
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}

	snapshot, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q for scope %q: %w", ref.Project, ref.Scope.Name, err)
	}
	if !ok {
		var zero T
		snapshot = zero
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	snapshot = layering.Clone(snapshot)
	if err := fn(&snapshot); err != nil {
		return nil, loadedMeta, err
	}

	if _, err := opts.Load(snapshot); err != nil {
		return nil, loadedMeta, err
	}

	savedMeta, err := r.Store.Save(ctx, ref, snapshot, mergeMeta(loadedMeta, meta))
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: save %q for scope %q: %w", ref.Project, ref.Scope.Name, err)
	}

	options, err := merge([]opts.Layer[T]{
		opts.NewLayer(ref.Scope, snapshot, opts.WithSnapshotID[T](savedMeta.SnapshotID)),
	})
	if err != nil {
		return nil, loadedMeta, err
	}
	return options, savedMeta, nil
}

func (r Resolver[T]) check(project string) error {
	if r.Store == nil {
		return fmt.Errorf("state: store is required")
	}
	if project == "" {
		return fmt.Errorf("state: project is required")
	}
	return nil
}

func (r Resolver[T]) load(ctx context.Context, project string, scopes []opts.Scope) ([]opts.Layer[T], error) {
	layers := make([]opts.Layer[T], 0, len(scopes)+1)
	for _, scope := range scopes {
		snapshot, meta, ok, err := r.Store.Load(ctx, Ref{Project: project, Scope: scope})
		if err != nil {
			return nil, fmt.Errorf("state: load %q for scope %q: %w", project, scope.Name, err)
		}
		if !ok {
			continue
		}
		layers = append(layers, opts.NewLayer(scope, snapshot, opts.WithSnapshotID[T](meta.SnapshotID)))
	}
	return layers, nil
}

func merge[T any](layers []opts.Layer[T]) (*opts.Options[T], error) {
	stack, err := opts.NewStack(layers...)
	if err != nil {
		return nil, fmt.Errorf("state: stack: %w", err)
	}
	return stack.Merge(opts.WithScopeSchema(true))
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
