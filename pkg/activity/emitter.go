package activity

import (
	"context"
	"strings"
	"time"
)

// DefaultChannel tags events emitted without an explicit channel.
const DefaultChannel = "browser"

// Config controls an Emitter.
type Config struct {
	Enabled bool
	Channel string
	// Clock stamps events that carry no OccurredAt. Defaults to time.Now.
	Clock func() time.Time
}

// Emitter stamps events with a channel and timestamp before handing them to
// hooks.
type Emitter struct {
	hooks   Hooks
	channel string
	clock   func() time.Time
}

// NewEmitter returns an Emitter, or a disabled one when cfg.Enabled is false
// or no usable hook is given.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	if !cfg.Enabled {
		return &Emitter{}
	}
	e := &Emitter{
		hooks:   hooks.compact(),
		channel: strings.TrimSpace(cfg.Channel),
		clock:   cfg.Clock,
	}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	return e
}

func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emit delivers event unless the emitter is disabled.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.clock()
	}
	return e.hooks.Notify(ctx, event)
}
