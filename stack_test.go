package opts

import (
	"errors"
	"testing"
)

type viewportSnapshot struct {
	Browser string
	Width   *int
	Env     map[string]string
}

func intPtr(v int) *int {
	return &v
}

func TestNewScopeCopiesMetadata(t *testing.T) {
	meta := map[string]any{"instance": "chromium"}
	scope := NewScope(ScopeInstance, ScopePriorityInstance,
		WithScopeLabel("Browser Instance"),
		WithScopeMetadata(meta),
	)

	meta["instance"] = "mutated"

	if got := scope.Metadata["instance"]; got != "chromium" {
		t.Fatalf("expected metadata copy to remain 'chromium', got %q", got)
	}
	if scope.Label != "Browser Instance" {
		t.Fatalf("label not set, got %q", scope.Label)
	}
}

func TestScopeHelpers(t *testing.T) {
	if s := DefaultsScope(); s.Name != ScopeDefaults || s.Priority != ScopePriorityDefaults {
		t.Fatalf("unexpected defaults scope %+v", s)
	}
	if s := BrowserScope(); s.Name != ScopeBrowser || s.Priority != ScopePriorityBrowser {
		t.Fatalf("unexpected browser scope %+v", s)
	}
	s := InstanceScope("webkit")
	if s.Name != ScopeInstance || s.Priority != ScopePriorityInstance || s.Metadata["instance"] != "webkit" {
		t.Fatalf("unexpected instance scope %+v", s)
	}
}

func TestNewLayerClonesSnapshot(t *testing.T) {
	snapshot := viewportSnapshot{
		Browser: "chromium",
		Width:   intPtr(1280),
		Env:     map[string]string{"LANG": "en"},
	}

	layer := NewLayer(BrowserScope(), snapshot, WithSnapshotID[viewportSnapshot]("abc-123"))

	snapshot.Env["LANG"] = "de"
	*snapshot.Width = 640
	if layer.Snapshot.Env["LANG"] != "en" || *layer.Snapshot.Width != 1280 {
		t.Fatalf("expected layer snapshot to remain immutable; got %+v", layer.Snapshot)
	}
	layer.Snapshot.Env["LANG"] = "fr"
	if snapshot.Env["LANG"] != "de" {
		t.Fatalf("mutating layer snapshot should not affect original, got %q", snapshot.Env["LANG"])
	}
	if layer.SnapshotID != "abc-123" {
		t.Fatalf("snapshot id not set, got %q", layer.SnapshotID)
	}
}

func TestNewStackOrdersAndValidates(t *testing.T) {
	instance := NewLayer(InstanceScope("chromium"), viewportSnapshot{Browser: "chromium"})
	browser := NewLayer(BrowserScope(), viewportSnapshot{})
	defaults := NewLayer(DefaultsScope(), viewportSnapshot{})

	stack, err := NewStack(defaults, instance, browser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	layers := stack.Layers()
	wantOrder := []string{ScopeInstance, ScopeBrowser, ScopeDefaults}
	for i, want := range wantOrder {
		if layers[i].Scope.Name != want {
			t.Fatalf("expected layer %d to be %q, got %q", i, want, layers[i].Scope.Name)
		}
	}

	if _, err := NewStack(browser, NewLayer(NewScope(ScopeBrowser, 50), viewportSnapshot{})); !errors.Is(err, ErrDuplicateScopeName) {
		t.Fatalf("expected duplicate scope name error, got %v", err)
	}
	if _, err := NewStack(
		NewLayer(NewScope("alpha", 100), viewportSnapshot{}),
		NewLayer(NewScope("beta", 100), viewportSnapshot{}),
	); !errors.Is(err, ErrPriorityOrder) {
		t.Fatalf("expected priority order error, got %v", err)
	}
	if _, err := NewStack(NewLayer(Scope{Priority: 1}, viewportSnapshot{})); !errors.Is(err, ErrScopeNameRequired) {
		t.Fatalf("expected scope name error, got %v", err)
	}
}

func TestStackMergeStructSnapshots(t *testing.T) {
	stack, err := NewStack(
		NewLayer(DefaultsScope(), viewportSnapshot{Width: intPtr(1280), Env: map[string]string{"LANG": "en"}}),
		NewLayer(BrowserScope(), viewportSnapshot{Width: intPtr(1920)}),
		NewLayer(InstanceScope("chromium"), viewportSnapshot{Browser: "chromium", Env: map[string]string{"TZ": "UTC"}}),
	)
	if err != nil {
		t.Fatalf("stack validation failed: %v", err)
	}

	merged, err := stack.Merge()
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if merged.Value.Width == nil || *merged.Value.Width != 1920 {
		t.Fatalf("expected Width pointer set to 1920, got %+v", merged.Value.Width)
	}
	if merged.Value.Browser != "chromium" {
		t.Fatalf("expected instance browser, got %q", merged.Value.Browser)
	}
	if merged.Value.Env["LANG"] != "en" || merged.Value.Env["TZ"] != "UTC" {
		t.Fatalf("expected merged env to combine maps, got %+v", merged.Value.Env)
	}
}

func TestStackMergeMapSnapshotsKeepsExplicitFalse(t *testing.T) {
	type snapshot map[string]any
	browser := NewLayer(BrowserScope(), snapshot{"headless": true})
	instance := NewLayer(InstanceScope("firefox"), snapshot{"headless": false})

	stack, err := NewStack(browser, instance)
	if err != nil {
		t.Fatalf("stack validation failed: %v", err)
	}

	merged, err := stack.Merge()
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if merged.Value["headless"] != false {
		t.Fatalf("expected instance false to win, got %+v", merged.Value)
	}
}

func TestBrowserLayersStack(t *testing.T) {
	stack, err := BrowserLayers[map[string]any]{
		InstanceName: "chromium",
		Instance:     map[string]any{"browser": "chromium"},
		Browser:      map[string]any{"headless": true},
		Defaults:     map[string]any{"headless": false},
		SnapshotIDs:  map[string]string{ScopeBrowser: "cfg-1"},
	}.Stack()
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Value["headless"] != true || merged.Value["browser"] != "chromium" {
		t.Fatalf("expected browser headless inherited, got %+v", merged.Value)
	}
	_, trace, err := merged.ResolveWithTrace("headless")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	winner, ok := trace.Winner()
	if !ok || winner.Scope.Name != ScopeBrowser || winner.SnapshotID != "cfg-1" {
		t.Fatalf("expected browser scope to win, got %+v", winner)
	}
	if layers := stack.Layers(); layers[0].SnapshotID != "" || layers[2].Scope.Name != ScopeDefaults {
		t.Fatalf("unexpected layer order or ids: %+v", layers)
	}
}

func TestStackLayersAreImmutable(t *testing.T) {
	stack, err := NewStack(
		NewLayer(InstanceScope("chromium"), viewportSnapshot{Env: map[string]string{"key": "value"}}),
		NewLayer(BrowserScope(), viewportSnapshot{}),
	)
	if err != nil {
		t.Fatalf("stack validation failed: %v", err)
	}

	layers := stack.Layers()
	layers[0].Scope.Metadata["instance"] = "mutated"
	layers[0].Snapshot.Env["key"] = "mutated"

	next := stack.Layers()
	if next[0].Scope.Metadata["instance"] != "chromium" {
		t.Fatalf("expected metadata copy to remain 'chromium', got %q", next[0].Scope.Metadata["instance"])
	}
	if next[0].Snapshot.Env["key"] != "value" {
		t.Fatalf("expected snapshot env to remain 'value', got %q", next[0].Snapshot.Env["key"])
	}
}

func TestStackLenAndEmpty(t *testing.T) {
	stack, err := NewStack[viewportSnapshot]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stack.Len() != 0 {
		t.Fatalf("empty stack len expected 0, got %d", stack.Len())
	}
	if _, err := stack.Merge(); !errors.Is(err, ErrEmptyStack) {
		t.Fatalf("expected ErrEmptyStack, got %v", err)
	}
	if layers := stack.Layers(); layers != nil {
		t.Fatalf("expected nil layers for empty stack, got %+v", layers)
	}
}
