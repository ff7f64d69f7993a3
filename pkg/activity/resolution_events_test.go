package activity

import (
	"context"
	"testing"
)

func TestBuildInstanceResolvedEventCarriesHeadlessOutcome(t *testing.T) {
	meta := map[string]any{"run": "ci-42"}
	input := ResolutionInput{
		ActorID:        " actor ",
		Project:        "web",
		Instance:       "chromium",
		Browser:        "chromium",
		Provider:       "playwright",
		Headless:       true,
		HeadlessSource: "instance",
		Metadata:       meta,
		Recipients:     []string{"qa@example.com"},
	}

	event := BuildInstanceResolvedEvent(input)

	if event.Verb != VerbInstanceResolved {
		t.Fatalf("expected verb %s got %s", VerbInstanceResolved, event.Verb)
	}
	if event.ObjectType != "browser.instance" || event.ObjectID != "chromium" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.ActorID != "actor" {
		t.Fatalf("expected trimmed actor, got %q", event.ActorID)
	}
	if event.Metadata["headless"] != true || event.Metadata["headless_source"] != "instance" {
		t.Fatalf("expected headless metadata, got %+v", event.Metadata)
	}
	if event.Metadata["provider"] != "playwright" || event.Metadata["project"] != "web" {
		t.Fatalf("expected provider and project metadata, got %+v", event.Metadata)
	}
	if event.Metadata["run"] != "ci-42" {
		t.Fatalf("expected caller metadata preserved, got %+v", event.Metadata)
	}
	event.Metadata["run"] = "changed"
	if meta["run"] != "ci-42" {
		t.Fatalf("expected input metadata untouched")
	}
	event.Recipients[0] = "changed"
	if input.Recipients[0] != "qa@example.com" {
		t.Fatalf("expected input recipients untouched, got %v", input.Recipients)
	}
}

func TestBuildInstanceResolvedEventFallsBackToBrowser(t *testing.T) {
	event := BuildInstanceResolvedEvent(ResolutionInput{Browser: "firefox"})
	if event.ObjectID != "firefox" {
		t.Fatalf("expected browser fallback, got %q", event.ObjectID)
	}
	if event.Metadata["headless"] != false {
		t.Fatalf("expected explicit false headless, got %v", event.Metadata["headless"])
	}

	empty := BuildInstanceResolvedEvent(ResolutionInput{})
	if empty.ObjectID != "browser.instance" {
		t.Fatalf("expected object type fallback, got %q", empty.ObjectID)
	}
}

func TestBuildLayerAppliedEventObjectID(t *testing.T) {
	cases := []struct {
		name  string
		input ResolutionInput
		want  string
	}{
		{
			name:  "snapshot id wins",
			input: ResolutionInput{Instance: "chromium", Scope: ScopeContext{Name: "browser", SnapshotID: "snap-1"}},
			want:  "snap-1",
		},
		{
			name:  "instance and scope",
			input: ResolutionInput{Instance: "chromium", Scope: ScopeContext{Name: "instance", Priority: 200}},
			want:  "chromium/instance",
		},
		{
			name: "fallback",
			want: "browser.layer",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := BuildLayerAppliedEvent(tc.input)
			if event.Verb != VerbLayerApplied {
				t.Fatalf("expected verb %s got %s", VerbLayerApplied, event.Verb)
			}
			if event.ObjectID != tc.want {
				t.Fatalf("expected object id %q got %q", tc.want, event.ObjectID)
			}
		})
	}
}

func TestBuildLayerAppliedEventScopeMetadata(t *testing.T) {
	scopeMeta := map[string]any{"instance": "chromium"}
	event := BuildLayerAppliedEvent(ResolutionInput{
		Instance: "chromium",
		Scope: ScopeContext{
			Name:       "instance",
			Label:      "Instance",
			Priority:   200,
			Metadata:   scopeMeta,
			SnapshotID: "abc123",
		},
	})
	if event.Metadata["scope_name"] != "instance" || event.Metadata["scope_priority"] != 200 {
		t.Fatalf("expected scope metadata, got %+v", event.Metadata)
	}
	if event.Metadata["scope_label"] != "Instance" || event.Metadata["snapshot_id"] != "abc123" {
		t.Fatalf("expected label and snapshot, got %+v", event.Metadata)
	}
	cloned, ok := event.Metadata["scope_metadata"].(map[string]any)
	if !ok || cloned["instance"] != "chromium" {
		t.Fatalf("expected scope metadata clone, got %v", event.Metadata["scope_metadata"])
	}
	cloned["instance"] = "changed"
	if scopeMeta["instance"] != "chromium" {
		t.Fatalf("expected input scope metadata untouched")
	}
}

func TestResolutionEventsPassHookValidation(t *testing.T) {
	recorder := &Recorder{}
	hooks := Hooks{recorder}

	events := []Event{
		BuildLayerAppliedEvent(ResolutionInput{Instance: "webkit", Scope: ScopeContext{Name: "defaults"}}),
		BuildInstanceResolvedEvent(ResolutionInput{Instance: "webkit", Browser: "webkit"}),
	}
	for _, event := range events {
		if err := hooks.Notify(context.Background(), event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	verbs := recorder.Verbs()
	if len(verbs) != 2 || verbs[1] != VerbInstanceResolved {
		t.Fatalf("expected layer then resolved events, got %v", verbs)
	}
}
