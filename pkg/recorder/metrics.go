package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes recorder counters to prometheus. Pass one to Config to
// instrument a recorder; a nil Metrics disables instrumentation.
type Metrics struct {
	SamplesAccepted prometheus.Counter
	SamplesRejected prometheus.Counter
	DistanceMeters  prometheus.Gauge
	PointsCount     prometheus.Gauge
}

// NewMetrics registers the recorder collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SamplesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nabajk",
			Subsystem: "recorder",
			Name:      "samples_accepted_total",
			Help:      "Location samples accepted into the track buffer.",
		}),
		SamplesRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nabajk",
			Subsystem: "recorder",
			Name:      "samples_rejected_total",
			Help:      "Location samples rejected by the acceptance filter.",
		}),
		DistanceMeters: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nabajk",
			Subsystem: "recorder",
			Name:      "distance_meters",
			Help:      "Accumulated distance of the current session.",
		}),
		PointsCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nabajk",
			Subsystem: "recorder",
			Name:      "points_count",
			Help:      "Accepted points in the current session.",
		}),
	}
}
