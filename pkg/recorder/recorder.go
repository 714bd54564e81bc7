// Package recorder owns the ride-recording lifecycle: it subscribes to a
// location source, screens every sample through the acceptance filter,
// accumulates distance and elapsed time, and publishes immutable state
// snapshots to subscribers.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LukaGrunt/nabajk/pkg/filter"
	"github.com/LukaGrunt/nabajk/pkg/logx"
	"github.com/LukaGrunt/nabajk/pkg/ride"
)

// Config holds recorder settings.
type Config struct {
	// Filter thresholds; nil selects filter.DefaultConfig.
	Filter *filter.Config

	// Policy requested from the location source.
	Policy Policy

	// TickInterval drives elapsed-time snapshots while recording.
	TickInterval time.Duration

	// Metrics receives sample counters when non-nil.
	Metrics *Metrics
}

// DefaultConfig returns the standard recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Policy:       DefaultPolicy(),
		TickInterval: time.Second,
	}
}

// Recorder is the ride recording state machine. Construct exactly one per
// app session and share it; all mutation happens through Start, Stop and
// Reset, every read returns a copy.
//
// Event processing is serialized: each incoming sample, tick or transition
// is applied and emitted to subscribers before the next one is processed.
// Subscriber callbacks therefore must not call Start, Stop or Reset
// synchronously.
type Recorder struct {
	source    Source
	lifecycle Lifecycle
	filter    *filter.Filter
	config    *Config
	logger    *logx.Logger
	now       func() time.Time

	// eventMu serializes whole events (state change plus emission) so
	// subscribers observe snapshots in processing order.
	eventMu sync.Mutex

	mu         sync.Mutex
	session    uint64
	status     ride.Status
	startedAt  time.Time
	elapsed    int
	distance   float64
	quality    ride.GPSQuality
	stopReason ride.StopReason
	points     []ride.RecordedPoint
	locSub     Subscription
	lifeSub    Subscription
	tickStop   chan struct{}

	listenersMu    sync.Mutex
	listeners      map[int]func(ride.RecordingState)
	nextListenerID int
}

// New creates a recorder over the given location source and app lifecycle.
// A nil config selects DefaultConfig.
func New(source Source, lifecycle Lifecycle, config *Config, logger *logx.Logger) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	return &Recorder{
		source:    source,
		lifecycle: lifecycle,
		filter:    filter.New(config.Filter),
		config:    config,
		logger:    logger,
		now:       time.Now,
		status:    ride.StatusIdle,
		quality:   ride.QualityWaiting,
		listeners: make(map[int]func(ride.RecordingState)),
	}
}

// Start begins a new recording session: clears the track buffer, starts the
// elapsed-time tick, observes app lifecycle transitions and subscribes to
// the location source. No-op when already recording.
//
// Source acquisition may block; if Stop arrives meanwhile, the eventually
// acquired subscription is cancelled immediately instead of leaking.
func (r *Recorder) Start(ctx context.Context) error {
	r.eventMu.Lock()
	r.mu.Lock()
	if r.status == ride.StatusRecording {
		r.mu.Unlock()
		r.eventMu.Unlock()
		return nil
	}

	r.session++
	session := r.session
	r.points = nil
	r.distance = 0
	r.elapsed = 0
	r.quality = ride.QualityWaiting
	r.stopReason = ""
	r.startedAt = r.now()
	r.status = ride.StatusRecording
	stop := make(chan struct{})
	r.tickStop = stop
	state := r.snapshotLocked()
	r.mu.Unlock()
	r.emit(state)
	r.eventMu.Unlock()

	r.logger.Info("Recording started", "session", session)
	go r.runTicker(session, stop)

	lifeSub, err := r.lifecycle.Subscribe(func(s AppState) {
		r.onAppState(session, s)
	})
	if err != nil {
		r.Reset()
		return fmt.Errorf("subscribe app lifecycle: %w", err)
	}
	if !r.adopt(session, lifeSub, func(sub Subscription) { r.lifeSub = sub }) {
		return nil
	}

	locSub, err := r.source.Subscribe(ctx, r.config.Policy, func(s ride.LocationSample) {
		r.onSample(session, s)
	})
	if err != nil {
		r.Reset()
		return fmt.Errorf("subscribe location source: %w", err)
	}
	if !r.adopt(session, locSub, func(sub Subscription) { r.locSub = sub }) {
		return nil
	}
	return nil
}

// adopt stores an acquired subscription if the session is still live, and
// cancels it otherwise (acquire, re-check, release-if-stale).
func (r *Recorder) adopt(session uint64, sub Subscription, store func(Subscription)) bool {
	r.mu.Lock()
	if r.session != session || r.status != ride.StatusRecording {
		r.mu.Unlock()
		sub.Cancel()
		return false
	}
	store(sub)
	r.mu.Unlock()
	return true
}

// Stop ends the current session, freezing elapsed time and recording the
// reason. No-op unless recording.
func (r *Recorder) Stop(reason ride.StopReason) {
	r.stop(reason, 0)
}

// stop ends the session when it matches the given one (0 means any).
func (r *Recorder) stop(reason ride.StopReason, session uint64) {
	r.eventMu.Lock()
	defer r.eventMu.Unlock()

	r.mu.Lock()
	if r.status != ride.StatusRecording || (session != 0 && r.session != session) {
		r.mu.Unlock()
		return
	}

	// Invalidate in-flight acquisitions and stale callbacks.
	r.session++

	locSub, lifeSub := r.locSub, r.lifeSub
	r.locSub, r.lifeSub = nil, nil
	if r.tickStop != nil {
		close(r.tickStop)
		r.tickStop = nil
	}

	r.elapsed = int(r.now().Sub(r.startedAt).Seconds())
	r.status = ride.StatusStopped
	r.stopReason = reason
	state := r.snapshotLocked()
	r.mu.Unlock()

	if locSub != nil {
		locSub.Cancel()
	}
	if lifeSub != nil {
		lifeSub.Cancel()
	}

	r.logger.Info("Recording stopped",
		"reason", string(reason),
		"elapsed_s", state.ElapsedSeconds,
		"distance_m", state.DistanceMeters,
		"points", state.PointsCount)
	r.emit(state)
}

// Reset stops any active session and returns the recorder to idle with all
// counters zeroed and the track buffer cleared.
func (r *Recorder) Reset() {
	r.stop(ride.StopUser, 0)

	r.eventMu.Lock()
	defer r.eventMu.Unlock()

	r.mu.Lock()
	r.session++
	r.points = nil
	r.distance = 0
	r.elapsed = 0
	r.quality = ride.QualityWaiting
	r.stopReason = ""
	r.status = ride.StatusIdle
	state := r.snapshotLocked()
	r.mu.Unlock()

	r.emit(state)
}

// GetState returns an immutable snapshot of the current recording state.
func (r *Recorder) GetState() ride.RecordingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// GetPoints returns a copy of the accepted track points. The buffer mutates
// while recording, so the result is only meaningful after Stop.
func (r *Recorder) GetPoints() []ride.RecordedPoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	points := make([]ride.RecordedPoint, len(r.points))
	copy(points, r.points)
	return points
}

// Subscribe registers a listener invoked with a state snapshot on every
// transition, sample and tick. The returned function unsubscribes it
// without affecting other listeners.
func (r *Recorder) Subscribe(fn func(ride.RecordingState)) func() {
	r.listenersMu.Lock()
	id := r.nextListenerID
	r.nextListenerID++
	r.listeners[id] = fn
	r.listenersMu.Unlock()

	return func() {
		r.listenersMu.Lock()
		delete(r.listeners, id)
		r.listenersMu.Unlock()
	}
}

// onSample processes one incoming location sample: quality is graded
// unconditionally, acceptance updates the buffer and distance, and a
// snapshot is emitted either way.
func (r *Recorder) onSample(session uint64, s ride.LocationSample) {
	r.eventMu.Lock()
	defer r.eventMu.Unlock()

	r.mu.Lock()
	if r.session != session || r.status != ride.StatusRecording {
		r.mu.Unlock()
		return
	}

	r.quality = ride.QualityFromAccuracy(s.HorizontalAccuracy)

	var last *ride.RecordedPoint
	if n := len(r.points); n > 0 {
		last = &r.points[n-1]
	}

	accepted, increment := r.filter.Accept(s, last)
	if accepted {
		r.points = append(r.points, ride.PointFromSample(s))
		r.distance += increment
		if r.config.Metrics != nil {
			r.config.Metrics.SamplesAccepted.Inc()
			r.config.Metrics.DistanceMeters.Set(r.distance)
			r.config.Metrics.PointsCount.Set(float64(len(r.points)))
		}
	} else if r.config.Metrics != nil {
		r.config.Metrics.SamplesRejected.Inc()
	}

	state := r.snapshotLocked()
	r.mu.Unlock()
	r.emit(state)
}

// onAppState stops the session when the app leaves the foreground.
func (r *Recorder) onAppState(session uint64, state AppState) {
	if state == AppActive {
		return
	}
	r.stop(ride.StopBackground, session)
}

func (r *Recorder) runTicker(session uint64, stop chan struct{}) {
	ticker := time.NewTicker(r.config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.onTick(session)
		}
	}
}

func (r *Recorder) onTick(session uint64) {
	r.eventMu.Lock()
	defer r.eventMu.Unlock()

	r.mu.Lock()
	if r.session != session || r.status != ride.StatusRecording {
		r.mu.Unlock()
		return
	}
	r.elapsed = int(r.now().Sub(r.startedAt).Seconds())
	state := r.snapshotLocked()
	r.mu.Unlock()
	r.emit(state)
}

func (r *Recorder) snapshotLocked() ride.RecordingState {
	return ride.RecordingState{
		Status:         r.status,
		ElapsedSeconds: r.elapsed,
		DistanceMeters: r.distance,
		PointsCount:    len(r.points),
		GPSQuality:     r.quality,
		StopReason:     r.stopReason,
	}
}

// emit delivers a snapshot to a copy of the current listener set, so a
// listener unsubscribing itself mid-callback is safe.
func (r *Recorder) emit(state ride.RecordingState) {
	r.listenersMu.Lock()
	listeners := make([]func(ride.RecordingState), 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	r.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
