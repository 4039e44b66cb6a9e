// Package metrics exposes Prometheus metrics for a running sim.Simulation,
// wired in as a sim.Hook rather than polled, so the event counters and the
// simtime gauge stay current with no separate sampling loop; the Timeline
// depth gauge changes only through SetTimelineDepth. Grounded on
// Cizor-spacetime-constellation-sim's observability package, the one
// example repo with prometheus/client_golang in its domain stack; that
// repo instruments a different kind of simulator loop (orbital
// propagation), but the same register-then-update shape applies directly
// to this one's event dispatch.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tessera-sim/evsim/sim"
)

// Collector instruments a Simulation's dispatch loop: a counter of events
// dispatched by kind, a gauge of Timeline depth, and a gauge of current
// simtime.
type Collector struct {
	gatherer prometheus.Gatherer

	EventsDispatched *prometheus.CounterVec
	TimelineDepth    prometheus.Gauge
	Simtime          prometheus.Gauge
	DispatchDropped  *prometheus.CounterVec
}

// NewCollector registers the simulation's metrics against reg, defaulting
// to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evsim_events_dispatched_total",
		Help: "Total number of Timeline events dispatched, labeled by event kind.",
	}, []string{"kind"})
	events, err := registerCounterVec(reg, events, "evsim_events_dispatched_total")
	if err != nil {
		return nil, err
	}

	depth, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "evsim_timeline_depth",
		Help: "Number of live (non-cancelled) events currently queued on the Timeline.",
	}), "evsim_timeline_depth")
	if err != nil {
		return nil, err
	}

	simtime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "evsim_simtime_nanoseconds",
		Help: "Current virtual simulation time, in nanoseconds since start.",
	}), "evsim_simtime_nanoseconds")
	if err != nil {
		return nil, err
	}

	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "evsim_dispatch_dropped_total",
		Help: "Total number of events dropped instead of dispatched, labeled by event kind.",
	}, []string{"kind"})
	dropped, err = registerCounterVec(reg, dropped, "evsim_dispatch_dropped_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		EventsDispatched: events,
		TimelineDepth:    depth,
		Simtime:          simtime,
		DispatchDropped:  dropped,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Func implements sim.Hook. Attach with simulation.AcceptHook(collector).
func (c *Collector) Func(ctx sim.HookCtx) {
	if c == nil {
		return
	}

	switch ctx.Pos {
	case sim.HookPosAfterEvent:
		c.Simtime.Set(float64(ctx.Now))
		if e, ok := ctx.Item.(*sim.Event); ok {
			c.EventsDispatched.WithLabelValues(e.Kind.String()).Inc()
		}
	case sim.HookPosDispatchDropped:
		if e, ok := ctx.Item.(*sim.Event); ok {
			c.DispatchDropped.WithLabelValues(e.Kind.String()).Inc()
		}
	}
}

// SetTimelineDepth updates the Timeline depth gauge. There is no hook
// position for "Timeline size changed" (a push can happen from several
// call sites, including outside dispatch), so callers sample it
// explicitly. Nothing in this module calls it; the gauge stays at zero
// unless a caller does.
func (c *Collector) SetTimelineDepth(n int) {
	if c == nil || c.TimelineDepth == nil {
		return
	}
	c.TimelineDepth.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
