// Package filter decides whether sampled location points are trustworthy
// enough to enter the track buffer. It screens out imprecise fixes,
// physically implausible jumps and stationary jitter.
package filter

import (
	"github.com/LukaGrunt/nabajk/pkg/geo"
	"github.com/LukaGrunt/nabajk/pkg/ride"
)

// Config holds the acceptance thresholds. Defaults are tuned for road
// cycling; change them only with domain confirmation.
type Config struct {
	// MaxAccuracyMeters rejects any sample whose horizontal accuracy is
	// worse than this, regardless of position or timing.
	MaxAccuracyMeters float64 `json:"max_accuracy_meters"`

	// MaxSpeedMps rejects movement faster than this between consecutive
	// accepted points. 22.22 m/s is roughly 80 km/h.
	MaxSpeedMps float64 `json:"max_speed_mps"`

	// JitterDistanceMeters and JitterIntervalSeconds together suppress
	// positional noise while stationary: a sample closer than the distance
	// and sooner than the interval is dropped.
	JitterDistanceMeters  float64 `json:"jitter_distance_meters"`
	JitterIntervalSeconds float64 `json:"jitter_interval_seconds"`
}

// DefaultConfig returns the road-cycling thresholds.
func DefaultConfig() *Config {
	return &Config{
		MaxAccuracyMeters:     40,
		MaxSpeedMps:           22.22,
		JitterDistanceMeters:  3,
		JitterIntervalSeconds: 5,
	}
}

// Filter applies the acceptance rules. It is stateless per call: the last
// accepted point is supplied by the caller, which owns that state.
type Filter struct {
	config *Config
}

// New creates a filter; a nil config selects the defaults.
func New(config *Config) *Filter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Filter{config: config}
}

// Accept reports whether the candidate sample should be kept given the last
// accepted point (nil for the first sample of a session). When accepted, it
// also returns the incremental distance in meters from the last point, so
// the caller does not recompute it. Rejected samples report zero distance.
func (f *Filter) Accept(candidate ride.LocationSample, last *ride.RecordedPoint) (bool, float64) {
	if candidate.HorizontalAccuracy > f.config.MaxAccuracyMeters {
		return false, 0
	}

	if last == nil {
		return true, 0
	}

	dist := geo.Haversine(last.Latitude, last.Longitude, candidate.Latitude, candidate.Longitude)
	dt := candidate.Timestamp.Sub(last.Timestamp).Seconds()

	if dt > 0 && dist/dt > f.config.MaxSpeedMps {
		return false, 0
	}
	if dist < f.config.JitterDistanceMeters && dt < f.config.JitterIntervalSeconds {
		return false, 0
	}

	return true, dist
}
