// Package metrics counts resolution outcomes with Prometheus.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	opts "github.com/goliatone/go-browser-opts"
	"github.com/goliatone/go-browser-opts/browser"
)

const namespace = "browseropts"

// Collector observes resolved instances. It satisfies browser.Observer.
type Collector struct {
	InstancesResolved   *prometheus.CounterVec
	HeadlessResolutions *prometheus.CounterVec
}

var _ browser.Observer = (*Collector)(nil)

// New registers the counters with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		InstancesResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instances_resolved_total",
			Help:      "Browser instances resolved, by provider and browser.",
		}, []string{"provider", "browser"}),
		HeadlessResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "headless_resolutions_total",
			Help:      "Effective headless values, by the scope that supplied them.",
		}, []string{"source", "value"}),
	}
}

// ObserveInstance records one resolution.
func (c *Collector) ObserveInstance(_ context.Context, effective browser.Effective) {
	c.InstancesResolved.WithLabelValues(effective.Provider, effective.Browser).Inc()
	// Without a source the value is the built-in default.
	source := effective.HeadlessSource
	if source == "" {
		source = opts.ScopeDefaults
	}
	c.HeadlessResolutions.WithLabelValues(source, strconv.FormatBool(effective.Headless)).Inc()
}
