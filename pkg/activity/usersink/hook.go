// Package usersink forwards browser resolution events to a go-users
// ActivitySink so headless decisions land in the same audit trail as user
// activity.
package usersink

import (
	"context"
	"slices"
	"strings"

	"github.com/goliatone/go-browser-opts/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook is an activity.Hook writing to Sink. Events whose tenant is not a
// UUID are recorded under Tenant. A non-empty Verbs limits which events are
// forwarded.
type Hook struct {
	Sink   usertypes.ActivitySink
	Tenant uuid.UUID
	Verbs  []string
}

var _ activity.Hook = Hook{}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = event.Normalize()
	if !event.Routable() || !h.accepts(event.Verb) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, h.record(event))
}

func (h Hook) accepts(verb string) bool {
	return len(h.Verbs) == 0 || slices.Contains(h.Verbs, verb)
}

// record expects a normalized event.
func (h Hook) record(event activity.Event) usertypes.ActivityRecord {
	data := make(map[string]any, len(event.Metadata)+2)
	for key, value := range event.Metadata {
		data[key] = value
	}
	if event.DefinitionCode != "" {
		data["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		data["recipients"] = event.Recipients
	}
	if len(data) == 0 {
		data = nil
	}

	tenant := parseUUID(event.TenantID)
	if tenant == uuid.Nil {
		tenant = h.Tenant
	}
	return usertypes.ActivityRecord{
		ActorID:    parseUUID(event.ActorID),
		UserID:     parseUUID(event.UserID),
		TenantID:   tenant,
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}
}

func parseUUID(raw string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil
	}
	return id
}
