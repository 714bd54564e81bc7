package recorder

import (
	"context"
	"time"

	"github.com/LukaGrunt/nabajk/pkg/ride"
)

// AppState mirrors the host application's lifecycle state. Recording is
// foreground-only; any transition away from active stops the session.
type AppState string

const (
	AppActive     AppState = "active"
	AppInactive   AppState = "inactive"
	AppBackground AppState = "background"
)

// AccuracyTier selects the location source's power/precision trade-off.
type AccuracyTier string

const (
	AccuracyHigh     AccuracyTier = "high"
	AccuracyBalanced AccuracyTier = "balanced"
	AccuracyLow      AccuracyTier = "low"
)

// Policy is the sampling policy requested from a location source.
type Policy struct {
	Accuracy          AccuracyTier  `json:"accuracy"`
	MinInterval       time.Duration `json:"min_interval"`
	MinDistanceMeters float64       `json:"min_distance_meters"`
}

// DefaultPolicy returns the ride-recording sampling policy.
func DefaultPolicy() Policy {
	return Policy{
		Accuracy:          AccuracyBalanced,
		MinInterval:       4 * time.Second,
		MinDistanceMeters: 15,
	}
}

// Subscription is a handle over an active sample or lifecycle feed.
type Subscription interface {
	Cancel()
}

// Source delivers location samples asynchronously. Subscribe may block
// while the underlying provider is acquired; the returned subscription must
// stop the callback from firing once cancelled.
type Source interface {
	Subscribe(ctx context.Context, policy Policy, fn func(ride.LocationSample)) (Subscription, error)
}

// Lifecycle delivers host application state transitions.
type Lifecycle interface {
	Subscribe(fn func(AppState)) (Subscription, error)
}
