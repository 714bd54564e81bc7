// nabajkd records one ride per run: it subscribes to a location source,
// filters and accumulates the track, and on shutdown encodes the polyline,
// writes the GPX export and saves the ride summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LukaGrunt/nabajk/pkg/config"
	"github.com/LukaGrunt/nabajk/pkg/gpx"
	"github.com/LukaGrunt/nabajk/pkg/location"
	"github.com/LukaGrunt/nabajk/pkg/logx"
	"github.com/LukaGrunt/nabajk/pkg/mqtt"
	"github.com/LukaGrunt/nabajk/pkg/polyline"
	"github.com/LukaGrunt/nabajk/pkg/recorder"
	"github.com/LukaGrunt/nabajk/pkg/ride"
	"github.com/LukaGrunt/nabajk/pkg/rides"
)

var (
	logLevel      = flag.String("log-level", "", "Override log level (trace|debug|info|warn|error)")
	dataDir       = flag.String("data-dir", "", "Override data directory")
	rideName      = flag.String("name", "", "Name for the saved ride")
	rideRegion    = flag.String("region", "", "Region tag for the saved ride")
	metricsListen = flag.String("metrics-listen", "", "Serve prometheus metrics on this address (e.g. :9107)")
	version       = flag.Bool("version", false, "Show version information")
)

const (
	AppName    = "nabajkd"
	AppVersion = "1.0.0"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s version %s\n", AppName, AppVersion)
		os.Exit(0)
	}

	cfg := config.Load()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *rideName != "" {
		cfg.RideName = *rideName
	}
	if *rideRegion != "" {
		cfg.RideRegion = *rideRegion
	}

	logger := logx.NewLogger(cfg.LogLevel, AppName)
	logger.Info("Starting", "version", AppVersion, "source", cfg.Source, "data_dir", cfg.DataDir)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("Failed to create data directory", "error", err)
		os.Exit(1)
	}

	kv, err := rides.OpenBolt(cfg.DBPath())
	if err != nil {
		logger.Error("Failed to open ride database", "error", err)
		os.Exit(1)
	}
	defer kv.Close()
	store := rides.NewStore(kv, logger)

	source, err := buildSource(cfg, logger)
	if err != nil {
		logger.Error("Failed to build location source", "error", err)
		os.Exit(1)
	}

	if *metricsListen != "" {
		go serveMetrics(*metricsListen, logger)
	}

	recConfig := recorder.DefaultConfig()
	recConfig.Filter = cfg.FilterConfig()
	recConfig.Metrics = recorder.NewMetrics(prometheus.DefaultRegisterer)

	lifecycle := newSignalLifecycle()
	rec := recorder.New(source, lifecycle, recConfig, logger.WithComponent("recorder"))

	publisher := mqtt.NewPublisher(cfg.MQTTConfig(), logger.WithComponent("mqtt"))
	if err := publisher.Connect(); err != nil {
		logger.Warn("MQTT telemetry unavailable", "error", err)
	}
	defer publisher.Close()

	// Log status transitions only; per-sample snapshots stay at trace.
	var lastStatus ride.Status
	unsubscribe := rec.Subscribe(func(state ride.RecordingState) {
		if state.Status != lastStatus {
			lastStatus = state.Status
			logger.Info("State changed", "status", string(state.Status), "reason", string(state.StopReason))
			return
		}
		logger.Trace("Snapshot",
			"elapsed_s", state.ElapsedSeconds,
			"distance_m", state.DistanceMeters,
			"points", state.PointsCount,
			"gps", string(state.GPSQuality))
	})
	defer unsubscribe()

	publisher.Attach(rec)

	ctx := context.Background()
	if err := rec.Start(ctx); err != nil {
		logger.Error("Failed to start recording", "error", err)
		os.Exit(1)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signals
	logger.Info("Signal received, stopping recording", "signal", sig.String())

	// Route through the lifecycle path so the stop reason reflects the
	// daemon being backgrounded rather than a user action.
	lifecycle.fire(recorder.AppBackground)

	finalize(ctx, cfg, logger, rec, store)
}

func buildSource(cfg config.Config, logger *logx.Logger) (recorder.Source, error) {
	switch cfg.Source {
	case "replay":
		if cfg.ReplayPath == "" {
			return nil, fmt.Errorf("replay source requires NABAJK_REPLAY_PATH")
		}
		return location.NewReplaySource(cfg.ReplayPath, cfg.ReplaySpeedup, logger.WithComponent("replay")), nil
	case "gpsd":
		return location.NewGpsdSource(cfg.GpsdAddr, logger.WithComponent("gpsd")), nil
	default:
		return nil, fmt.Errorf("unknown location source %q", cfg.Source)
	}
}

func finalize(ctx context.Context, cfg config.Config, logger *logx.Logger, rec *recorder.Recorder, store *rides.Store) {
	state := rec.GetState()
	points := rec.GetPoints()

	if len(points) < 2 {
		logger.Info("Not enough points to save a ride", "points", len(points))
		return
	}

	writer := gpx.NewWriter(cfg.GPXDir(), logger.WithComponent("gpx"))
	gpxPath, err := writer.Save(points, cfg.RideName)
	if err != nil {
		logger.Error("Failed to write GPX export", "error", err)
		return
	}

	saved := ride.SavedRide{
		ID:              ride.NewRideID(),
		Name:            cfg.RideName,
		Region:          cfg.RideRegion,
		CreatedAt:       time.Now(),
		DurationSeconds: state.ElapsedSeconds,
		DistanceMeters:  state.DistanceMeters,
		PolylineEncoded: polyline.EncodeTrack(points),
		PointsCount:     state.PointsCount,
		GPXPath:         gpxPath,
	}
	if err := store.Save(ctx, saved); err != nil {
		logger.Error("Failed to save ride", "error", err)
		return
	}

	logger.Info("Ride complete",
		"id", saved.ID,
		"distance_m", saved.DistanceMeters,
		"duration_s", saved.DurationSeconds,
		"points", saved.PointsCount,
		"gpx", saved.GPXPath)
}

func serveMetrics(addr string, logger *logx.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("Metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("Metrics server stopped", "error", err)
	}
}

// signalLifecycle adapts POSIX signal handling to the recorder's app
// lifecycle surface: the process is "active" until a stop signal arrives.
type signalLifecycle struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(recorder.AppState)
}

func newSignalLifecycle() *signalLifecycle {
	return &signalLifecycle{fns: make(map[int]func(recorder.AppState))}
}

func (l *signalLifecycle) Subscribe(fn func(recorder.AppState)) (recorder.Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	return &signalSubscription{lifecycle: l, id: id}, nil
}

func (l *signalLifecycle) fire(state recorder.AppState) {
	l.mu.Lock()
	fns := make([]func(recorder.AppState), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(state)
	}
}

type signalSubscription struct {
	lifecycle *signalLifecycle
	id        int
}

func (s *signalSubscription) Cancel() {
	s.lifecycle.mu.Lock()
	defer s.lifecycle.mu.Unlock()
	delete(s.lifecycle.fns, s.id)
}
