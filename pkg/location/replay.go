// Package location provides concrete location sources for the recording
// daemon: a gpsd watcher for live fixes and a GPX replay source for bench
// rides and integration testing.
package location

import (
	"context"
	"fmt"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/LukaGrunt/nabajk/pkg/logx"
	"github.com/LukaGrunt/nabajk/pkg/recorder"
	"github.com/LukaGrunt/nabajk/pkg/ride"
)

// replayAccuracyMeters is the simulated horizontal accuracy of replayed
// fixes; GPX tracks carry no accuracy of their own.
const replayAccuracyMeters = 5.0

// ReplaySource replays a GPX file's trackpoints as location samples.
type ReplaySource struct {
	path    string
	speedup float64
	logger  *logx.Logger
}

// NewReplaySource creates a replay source over a GPX file. When speedup is
// positive, recorded point-to-point gaps are replayed divided by it;
// otherwise samples are spaced by the subscription policy's interval.
func NewReplaySource(path string, speedup float64, logger *logx.Logger) *ReplaySource {
	return &ReplaySource{path: path, speedup: speedup, logger: logger}
}

// Subscribe parses the file and starts delivering its points until the
// track is exhausted or the subscription is cancelled.
func (s *ReplaySource) Subscribe(ctx context.Context, policy recorder.Policy, fn func(ride.LocationSample)) (recorder.Subscription, error) {
	doc, err := gpx.ParseFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("parse replay file %q: %w", s.path, err)
	}

	samples := flatten(doc)
	if len(samples) == 0 {
		return nil, fmt.Errorf("replay file %q contains no trackpoints", s.path)
	}

	runCtx, cancel := context.WithCancel(ctx)
	go s.run(runCtx, policy, samples, fn)

	s.logger.Info("Replay started", "path", s.path, "points", len(samples))
	return cancelSubscription{cancel: cancel}, nil
}

func (s *ReplaySource) run(ctx context.Context, policy recorder.Policy, samples []ride.LocationSample, fn func(ride.LocationSample)) {
	for i, sample := range samples {
		if i > 0 {
			if err := sleepCtx(ctx, s.gap(samples[i-1], sample, policy)); err != nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		fn(sample)
	}
	s.logger.Info("Replay finished", "path", s.path)
}

// gap returns the delay before delivering the next sample.
func (s *ReplaySource) gap(prev, next ride.LocationSample, policy recorder.Policy) time.Duration {
	if s.speedup > 0 {
		if dt := next.Timestamp.Sub(prev.Timestamp); dt > 0 {
			return time.Duration(float64(dt) / s.speedup)
		}
	}
	return policy.MinInterval
}

func flatten(doc *gpx.GPX) []ride.LocationSample {
	var samples []ride.LocationSample
	for _, track := range doc.Tracks {
		for _, segment := range track.Segments {
			for i := range segment.Points {
				p := &segment.Points[i]
				sample := ride.LocationSample{
					Latitude:           p.Latitude,
					Longitude:          p.Longitude,
					Timestamp:          p.Timestamp,
					HorizontalAccuracy: replayAccuracyMeters,
				}
				if p.Elevation.NotNull() {
					ele := p.Elevation.Value()
					sample.Altitude = &ele
				}
				samples = append(samples, sample)
			}
		}
	}
	return samples
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// cancelSubscription cancels a context-backed feed.
type cancelSubscription struct {
	cancel context.CancelFunc
}

func (c cancelSubscription) Cancel() {
	c.cancel()
}
