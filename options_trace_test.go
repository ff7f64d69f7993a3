package opts

import (
	"encoding/json"
	"errors"
	"testing"
)

type traceSnapshot struct {
	Provider string            `json:"provider"`
	Headless *bool             `json:"headless"`
	Env      map[string]string `json:"env"`
	Limits   map[string]int    `json:"limits"`
}

func TestResolveWithTraceReturnsLayerProvenance(t *testing.T) {
	browser := NewLayer(BrowserScope(), traceSnapshot{
		Provider: "playwright",
		Headless: boolPtr(true),
		Env:      map[string]string{"LANG": "en"},
	}, WithSnapshotID[traceSnapshot]("browser/1"))
	instance := NewLayer(InstanceScope("chromium"), traceSnapshot{
		Env: map[string]string{"LANG": "de", "TZ": "UTC"},
	}, WithSnapshotID[traceSnapshot]("instance/5"))

	stack, err := NewStack(browser, instance)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	opts, err := stack.Merge()
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	value, trace, err := opts.ResolveWithTrace("Env.LANG")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if value != "de" {
		t.Fatalf("expected instance override, got %v", value)
	}
	if len(trace.Layers) != 2 {
		t.Fatalf("expected 2 provenance entries, got %d", len(trace.Layers))
	}
	if !trace.Layers[0].Found || trace.Layers[0].Scope.Name != ScopeInstance || trace.Layers[0].SnapshotID != "instance/5" {
		t.Fatalf("expected first layer to be instance and found, got %+v", trace.Layers[0])
	}
	if !trace.Layers[1].Found || trace.Layers[1].Value != "en" {
		t.Fatalf("expected browser layer to provide fallback value, got %+v", trace.Layers[1])
	}

	value, trace, err = opts.ResolveWithTrace("headless")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if value != true {
		t.Fatalf("expected inherited headless, got %v", value)
	}
	if trace.Layers[0].Found {
		t.Fatalf("expected instance layer to report headless unset")
	}
	if winner, ok := trace.Winner(); !ok || winner.Scope.Name != ScopeBrowser {
		t.Fatalf("expected browser to win headless, got %+v", winner)
	}
}

func TestResolveWithTraceRequiresPath(t *testing.T) {
	if _, _, err := New(traceSnapshot{}).ResolveWithTrace(""); !errors.Is(err, ErrPathRequired) {
		t.Fatalf("expected ErrPathRequired, got %v", err)
	}
}

func TestResolveWithTraceWithoutStack(t *testing.T) {
	opts := New(map[string]any{
		"launch": map[string]any{"headless": true},
	}, WithScope(BrowserScope()))
	value, trace, err := opts.ResolveWithTrace("launch.headless")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if value != true {
		t.Fatalf("expected true, got %v", value)
	}
	if len(trace.Layers) != 1 || !trace.Layers[0].Found || trace.Layers[0].Scope.Name != ScopeBrowser {
		t.Fatalf("expected single synthetic layer, got %+v", trace.Layers)
	}
}

func TestFlattenWithProvenanceEnumeratesPaths(t *testing.T) {
	defaults := NewLayer(DefaultsScope(), traceSnapshot{
		Limits: map[string]int{"timeout": 30000, "slowMo": 0},
	})
	instance := NewLayer(InstanceScope("webkit"), traceSnapshot{
		Limits: map[string]int{"timeout": 5000},
	})
	stack, err := NewStack(defaults, instance)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	opts, err := stack.Merge()
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	results, err := opts.FlattenWithProvenance()
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	byPath := map[string]Provenance{}
	for _, prov := range results {
		byPath[prov.Path] = prov
	}
	if got := byPath["Limits.timeout"]; got.Scope.Name != ScopeInstance || got.Value != 5000 {
		t.Fatalf("timeout should be attributed to instance layer, got %+v", got)
	}
	if got := byPath["Limits.slowMo"]; got.Scope.Name != ScopeDefaults {
		t.Fatalf("slowMo should be attributed to defaults layer, got %+v", got)
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	trace := Trace{
		Path: "headless",
		Layers: []Provenance{{
			Scope: InstanceScope("chromium"),
			Path:  "headless",
			Value: true,
			Found: true,
		}},
	}
	raw, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("expected valid json, got %s", raw)
	}
	restore, err := TraceFromJSON(raw)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restore.Path != trace.Path || len(restore.Layers) != 1 || restore.Layers[0].Scope.Metadata["instance"] != "chromium" {
		t.Fatalf("round trip mismatch: %+v vs %+v", restore, trace)
	}
}
