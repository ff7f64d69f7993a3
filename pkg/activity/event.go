package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event is one resolution activity record. IDs are plain strings so sinks can
// map them onto their own identifier types.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Normalize returns a trimmed copy of e that shares no maps or slices with
// it. A zero OccurredAt is stamped with the current time.
func (e Event) Normalize() Event {
	for _, field := range []*string{
		&e.Verb, &e.ActorID, &e.UserID, &e.TenantID,
		&e.ObjectType, &e.ObjectID, &e.Channel, &e.DefinitionCode,
	} {
		*field = strings.TrimSpace(*field)
	}
	e.Metadata = cloneMap(e.Metadata)
	e.Recipients = cloneStrings(e.Recipients)
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	return e
}

// Routable reports whether e names a verb and an object. Hooks drop events
// that are not routable.
func (e Event) Routable() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// Hook receives normalized, routable events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans an event out to every hook in order.
type Hooks []Hook

func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event once and delivers it to each hook. Failures do not
// stop delivery; they are joined in hook order.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = event.Normalize()
	if !event.Routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("activity: hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (h Hooks) compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

func cloneStrings(src []string) []string {
	if len(src) == 0 {
		return nil
	}
	return append([]string(nil), src...)
}
