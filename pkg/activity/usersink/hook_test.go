package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-browser-opts/pkg/activity"
	"github.com/goliatone/go-browser-opts/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsResolvedEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildInstanceResolvedEvent(activity.ResolutionInput{
		ActorID:        actorID.String(),
		UserID:         userID.String(),
		TenantID:       tenantID.String(),
		Channel:        "browser",
		DefinitionCode: "browser:resolve",
		Recipients:     []string{"qa@example.com"},
		Instance:       "chromium",
		Browser:        "chromium",
		Provider:       "playwright",
		Headless:       true,
		HeadlessSource: "browser",
		OccurredAt:     now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != userID || record.TenantID != tenantID {
		t.Fatalf("unexpected identity fields: %+v", record)
	}
	if record.Verb != activity.VerbInstanceResolved || record.ObjectType != "browser.instance" || record.ObjectID != "chromium" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "browser" {
		t.Fatalf("expected channel browser got %q", record.Channel)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["definition_code"] != "browser:resolve" {
		t.Fatalf("expected definition_code metadata got %v", record.Data["definition_code"])
	}
	if record.Data["headless"] != true || record.Data["headless_source"] != "browser" {
		t.Fatalf("expected headless metadata passthrough got %+v", record.Data)
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "qa@example.com" {
		t.Fatalf("expected recipients metadata got %v", record.Data["recipients"])
	}
}

func TestHookNotifyFallsBackToConfiguredTenant(t *testing.T) {
	sink := &recordingSink{}
	tenant := uuid.New()
	hook := usersink.Hook{Sink: sink, Tenant: tenant}

	event := activity.BuildLayerAppliedEvent(activity.ResolutionInput{
		TenantID: "not-a-uuid",
		Instance: "webkit",
		Scope:    activity.ScopeContext{Name: "instance", Priority: 200},
	})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0].TenantID != tenant {
		t.Fatalf("expected fallback tenant %s got %s", tenant, sink.records[0].TenantID)
	}
	if sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected nil actor for missing ID, got %s", sink.records[0].ActorID)
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbInstanceResolved,
		ObjectType: "browser.instance",
		ObjectID:   "firefox",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookWithoutSinkIsNoop(t *testing.T) {
	hook := usersink.Hook{}
	if err := hook.Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestHookVerbFilter(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbInstanceResolved}}

	layer := activity.BuildLayerAppliedEvent(activity.ResolutionInput{Instance: "webkit", Scope: activity.ScopeContext{Name: "browser"}})
	resolved := activity.BuildInstanceResolvedEvent(activity.ResolutionInput{Instance: "webkit", Browser: "webkit"})
	for _, event := range []activity.Event{layer, resolved} {
		if err := hook.Notify(context.Background(), event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if len(sink.records) != 1 || sink.records[0].Verb != activity.VerbInstanceResolved {
		t.Fatalf("expected only the resolved event, got %+v", sink.records)
	}
}
