package browser

import (
	"context"
	"fmt"

	opts "github.com/goliatone/go-browser-opts"
	"github.com/goliatone/go-browser-opts/layering"
	"github.com/goliatone/go-browser-opts/pkg/state"
)

// WithLayerSource reads persisted browser and instance snapshots for project
// from store. A stored snapshot is merged over the file's settings for the
// same scope, so stored fields win and unset ones fall back to the file. The
// stored snapshot ID replaces the file's in the resolution.
func WithLayerSource(store state.Store[Settings], project string) ResolverOption {
	return func(r *Resolver) {
		if store != nil {
			r.source = &layerSource{store: store, project: project}
		}
	}
}

type layerSource struct {
	store   state.Store[Settings]
	project string
}

func (s *layerSource) overlay(ctx context.Context, scope opts.Scope, settings Settings, snapshotID string) (Settings, string, error) {
	if s == nil {
		return settings, snapshotID, nil
	}
	stored, meta, ok, err := s.store.Load(ctx, state.Ref{Project: s.project, Scope: scope})
	if err != nil {
		return Settings{}, "", fmt.Errorf("%w: %s scope of %q: %w", ErrLayerSource, scope.Name, s.project, err)
	}
	if !ok {
		return settings, snapshotID, nil
	}
	if meta.SnapshotID != "" {
		snapshotID = meta.SnapshotID
	}
	return layering.MergeLayers(stored, settings), snapshotID, nil
}
