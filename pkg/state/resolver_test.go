package state_test

import (
	"context"
	"errors"
	"testing"

	opts "github.com/goliatone/go-browser-opts"
	"github.com/goliatone/go-browser-opts/pkg/state"
)

type failingStore struct{ err error }

func (s failingStore) Load(context.Context, state.Ref) (settings, state.Meta, bool, error) {
	return settings{}, state.Meta{}, false, s.err
}

func (s failingStore) Save(context.Context, state.Ref, settings, state.Meta) (state.Meta, error) {
	return state.Meta{}, s.err
}

func seed(t *testing.T, store *state.MemoryStore[settings], scope opts.Scope, value settings, snapshotID string) {
	t.Helper()
	ref := state.Ref{Project: "web", Scope: scope}
	if _, err := store.Save(context.Background(), ref, value, state.Meta{SnapshotID: snapshotID}); err != nil {
		t.Fatalf("seed %s: %v", scope.Name, err)
	}
}

func TestResolverInstanceInheritsBrowserHeadless(t *testing.T) {
	store := state.NewMemoryStore[settings]()
	seed(t, store, opts.BrowserScope(), settings{Provider: "playwright", Headless: boolPtr(true)}, "snap-browser")
	seed(t, store, opts.InstanceScope("chromium"), settings{Channel: "chrome"}, "snap-instance")

	resolver := state.Resolver[settings]{Store: store}
	options, err := resolver.Resolve(context.Background(), "web", opts.InstanceScope("chromium"), opts.BrowserScope())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if options.Value.Headless == nil || !*options.Value.Headless {
		t.Fatalf("expected inherited headless=true, got %v", options.Value.Headless)
	}
	if options.Value.Channel != "chrome" || options.Value.Provider != "playwright" {
		t.Fatalf("unexpected merged value: %+v", options.Value)
	}

	_, trace, err := options.ResolveWithTrace("headless")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	winner, ok := trace.Winner()
	if !ok || winner.Scope.Name != opts.ScopeBrowser || winner.SnapshotID != "snap-browser" {
		t.Fatalf("expected browser scope to win, got %+v", winner)
	}
	if trace.Layers[0].Found {
		t.Fatalf("expected instance layer to report headless unset")
	}

	doc, err := options.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if len(doc.Scopes) != 2 || doc.Scopes[0].Name != opts.ScopeInstance || doc.Scopes[0].SnapshotID != "snap-instance" {
		t.Fatalf("unexpected schema scopes: %+v", doc.Scopes)
	}
}

func TestResolverInstanceOverridesBrowser(t *testing.T) {
	store := state.NewMemoryStore[settings]()
	seed(t, store, opts.BrowserScope(), settings{Headless: boolPtr(true)}, "")
	seed(t, store, opts.InstanceScope("webkit"), settings{Headless: boolPtr(false)}, "")

	resolver := state.Resolver[settings]{Store: store}
	options, err := resolver.Resolve(context.Background(), "web", opts.InstanceScope("webkit"), opts.BrowserScope())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if options.Value.Headless == nil || *options.Value.Headless {
		t.Fatalf("expected explicit instance false to win, got %v", options.Value.Headless)
	}
}

func TestResolverSkipsMissingScopes(t *testing.T) {
	store := state.NewMemoryStore[settings]()
	seed(t, store, opts.BrowserScope(), settings{Headless: boolPtr(true)}, "")

	resolver := state.Resolver[settings]{Store: store}
	options, err := resolver.Resolve(context.Background(), "web", opts.InstanceScope("firefox"), opts.BrowserScope())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	doc, err := options.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if len(doc.Scopes) != 1 || doc.Scopes[0].Name != opts.ScopeBrowser {
		t.Fatalf("expected only browser scope, got %+v", doc.Scopes)
	}
}

func TestResolverNoLayers(t *testing.T) {
	resolver := state.Resolver[settings]{Store: state.NewMemoryStore[settings]()}
	_, err := resolver.Resolve(context.Background(), "web", opts.BrowserScope())
	if !errors.Is(err, state.ErrNoLayers) {
		t.Fatalf("expected ErrNoLayers, got %v", err)
	}
}

func TestResolverRequiresStoreProjectAndScopes(t *testing.T) {
	if _, err := (state.Resolver[settings]{}).Resolve(context.Background(), "web", opts.BrowserScope()); err == nil {
		t.Fatalf("expected missing store error")
	}
	resolver := state.Resolver[settings]{Store: state.NewMemoryStore[settings]()}
	if _, err := resolver.Resolve(context.Background(), "", opts.BrowserScope()); err == nil {
		t.Fatalf("expected missing project error")
	}
	if _, err := resolver.Resolve(context.Background(), "web"); err == nil {
		t.Fatalf("expected missing scopes error")
	}
}

func TestResolverPropagatesLoadErrors(t *testing.T) {
	boom := errors.New("connection refused")
	resolver := state.Resolver[settings]{Store: failingStore{err: boom}}
	_, err := resolver.Resolve(context.Background(), "web", opts.BrowserScope())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
}

func TestResolveWithDefaultsAppendsWeakestLayer(t *testing.T) {
	store := state.NewMemoryStore[settings]()
	seed(t, store, opts.InstanceScope("chromium"), settings{Channel: "chrome"}, "")

	resolver := state.Resolver[settings]{Store: store}
	defaults := settings{Provider: "preview", Headless: boolPtr(false)}
	options, err := resolver.ResolveWithDefaults(context.Background(), "web", defaults, opts.InstanceScope("chromium"), opts.BrowserScope())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if options.Value.Headless == nil || *options.Value.Headless {
		t.Fatalf("expected default headless=false, got %v", options.Value.Headless)
	}
	if options.Value.Provider != "preview" || options.Value.Channel != "chrome" {
		t.Fatalf("unexpected merged value: %+v", options.Value)
	}

	doc, err := options.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	last := doc.Scopes[len(doc.Scopes)-1]
	if last.Name != opts.ScopeDefaults || last.Priority != opts.ScopePriorityDefaults {
		t.Fatalf("expected defaults scope at priority 0, got %+v", last)
	}
}

func TestResolveWithDefaultsShiftsBelowNegativePriorities(t *testing.T) {
	store := state.NewMemoryStore[settings]()
	resolver := state.Resolver[settings]{Store: store}

	low := opts.NewScope(opts.ScopeBrowser, -5)
	options, err := resolver.ResolveWithDefaults(context.Background(), "web", settings{Provider: "preview"}, low)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	doc, err := options.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if len(doc.Scopes) != 1 || doc.Scopes[0].Priority != -6 {
		t.Fatalf("expected defaults below -5, got %+v", doc.Scopes)
	}
}

func TestResolveWithDefaultsRejectsReservedScope(t *testing.T) {
	resolver := state.Resolver[settings]{Store: state.NewMemoryStore[settings]()}
	_, err := resolver.ResolveWithDefaults(context.Background(), "web", settings{}, opts.DefaultsScope())
	if err == nil {
		t.Fatalf("expected reserved scope error")
	}
}
