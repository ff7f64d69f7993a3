package browser

import (
	"context"
	"errors"
	"testing"

	opts "github.com/goliatone/go-browser-opts"
	"github.com/goliatone/go-browser-opts/pkg/state"
)

type failingStore struct{ err error }

func (s failingStore) Load(context.Context, state.Ref) (Settings, state.Meta, bool, error) {
	return Settings{}, state.Meta{}, false, s.err
}

func (s failingStore) Save(context.Context, state.Ref, Settings, state.Meta) (state.Meta, error) {
	return state.Meta{}, s.err
}

func seedScope(t *testing.T, store *state.MemoryStore[Settings], scope opts.Scope, value Settings, snapshotID string) {
	t.Helper()
	ref := state.Ref{Project: "web", Scope: scope}
	if _, err := store.Save(context.Background(), ref, value, state.Meta{SnapshotID: snapshotID}); err != nil {
		t.Fatalf("seed %s: %v", scope.Name, err)
	}
}

func TestLayerSourceOverridesFileScopes(t *testing.T) {
	store := state.NewMemoryStore[Settings]()
	seedScope(t, store, opts.BrowserScope(), Settings{Headless: Bool(true)}, "browser-v2")
	seedScope(t, store, opts.InstanceScope("firefox"), Settings{Headless: Bool(false)}, "firefox-v7")

	cfg := Config{
		Provider:   ProviderPlaywright,
		Viewport:   &Viewport{Width: Int(1280)},
		SnapshotID: "file",
		Instances:  []InstanceConfig{{Browser: "chromium"}, {Browser: "firefox", Headless: Bool(true)}},
	}
	resolution, err := NewResolver(WithLayerSource(store, "web")).Resolve(context.Background(), cfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	chromium, _ := resolution.Instance("chromium")
	if !chromium.Headless || chromium.HeadlessSource != opts.ScopeBrowser {
		t.Fatalf("expected stored browser headless, got %+v", chromium)
	}
	if chromium.Viewport.Width != 1280 {
		t.Fatalf("expected file viewport kept under stored snapshot, got %+v", chromium.Viewport)
	}
	if chromium.SnapshotIDs[opts.ScopeBrowser] != "browser-v2" || chromium.SnapshotIDs[opts.ScopeInstance] != "file" {
		t.Fatalf("unexpected snapshot ids %v", chromium.SnapshotIDs)
	}

	firefox, _ := resolution.Instance("firefox")
	if firefox.Headless || firefox.HeadlessSource != opts.ScopeInstance {
		t.Fatalf("expected stored instance value to win over the file, got %+v", firefox)
	}
	if firefox.SnapshotIDs[opts.ScopeInstance] != "firefox-v7" {
		t.Fatalf("unexpected snapshot ids %v", firefox.SnapshotIDs)
	}

	trace, err := NewResolver(WithLayerSource(store, "web")).Explain(context.Background(), cfg, "chromium", "headless")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if winner, ok := trace.Winner(); !ok || winner.SnapshotID != "browser-v2" {
		t.Fatalf("expected explain to report the stored snapshot, got %+v", trace)
	}
}

func TestLayerSourceValidatesMergedInstance(t *testing.T) {
	store := state.NewMemoryStore[Settings]()
	cfg := Config{Instances: []InstanceConfig{{Browser: "chrome"}}}

	seedScope(t, store, opts.InstanceScope("chrome"), Settings{Headless: Bool(true)}, "")
	_, err := NewResolver(WithLayerSource(store, "web")).Resolve(context.Background(), cfg)
	if !errors.Is(err, ErrHeadlessUnsupported) {
		t.Fatalf("expected preview headless rejected, got %v", err)
	}

	seedScope(t, store, opts.InstanceScope("chrome"), Settings{}, "")
	seedScope(t, store, opts.BrowserScope(), Settings{Provider: ProviderPlaywright}, "")
	_, err = NewResolver(WithLayerSource(store, "web")).Resolve(context.Background(), cfg)
	if !errors.Is(err, ErrUnsupportedBrowser) {
		t.Fatalf("expected chrome rejected for stored playwright provider, got %v", err)
	}
}

func TestLayerSourceErrors(t *testing.T) {
	cfg := Config{Instances: []InstanceConfig{{Browser: "chrome"}}}
	down := errors.New("connection refused")

	_, err := NewResolver(WithLayerSource(failingStore{err: down}, "web")).Resolve(context.Background(), cfg)
	if !errors.Is(err, ErrLayerSource) || !errors.Is(err, down) {
		t.Fatalf("expected wrapped store failure, got %v", err)
	}

	_, err = NewResolver(WithLayerSource(state.NewMemoryStore[Settings](), "")).Resolve(context.Background(), cfg)
	if !errors.Is(err, ErrLayerSource) {
		t.Fatalf("expected missing project reported, got %v", err)
	}
}
