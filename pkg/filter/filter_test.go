package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LukaGrunt/nabajk/pkg/ride"
)

// metersPerDegreeLat on the haversine sphere (R * pi / 180).
const metersPerDegreeLat = 111194.9266

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// sampleAt builds a sample offset north of the origin by the given meters.
func sampleAt(meters float64, at time.Time, accuracy float64) ride.LocationSample {
	return ride.LocationSample{
		Latitude:           46.05 + meters/metersPerDegreeLat,
		Longitude:          14.50,
		Timestamp:          at,
		HorizontalAccuracy: accuracy,
	}
}

func lastAt(meters float64, at time.Time) *ride.RecordedPoint {
	p := ride.PointFromSample(sampleAt(meters, at, 5))
	return &p
}

func TestFirstSampleAcceptedOnAccuracyAlone(t *testing.T) {
	f := New(nil)

	ok, dist := f.Accept(sampleAt(0, t0, 12), nil)
	assert.True(t, ok)
	assert.Equal(t, 0.0, dist)
}

func TestRejectsPoorAccuracyRegardlessOfGeometry(t *testing.T) {
	f := New(nil)

	cases := []struct {
		name     string
		accuracy float64
		want     bool
	}{
		{"well within", 5, true},
		{"at threshold", 40, true},
		{"just over", 40.1, false},
		{"hopeless", 500, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, _ := f.Accept(sampleAt(100, t0.Add(30*time.Second), tc.accuracy), lastAt(0, t0))
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestJitterSuppression(t *testing.T) {
	f := New(nil)
	last := lastAt(0, t0)

	// 2 m in 2 s is stationary jitter.
	ok, _ := f.Accept(sampleAt(2, t0.Add(2*time.Second), 5), last)
	assert.False(t, ok)

	// The same 2 m over 10 s is slow but genuine movement.
	ok, dist := f.Accept(sampleAt(2, t0.Add(10*time.Second), 5), last)
	assert.True(t, ok)
	assert.InDelta(t, 2.0, dist, 0.01)
}

func TestSpeedGate(t *testing.T) {
	f := New(nil)
	last := lastAt(0, t0)

	// 500 m in 10 s is 180 km/h, a GPS glitch on a bicycle.
	ok, _ := f.Accept(sampleAt(500, t0.Add(10*time.Second), 5), last)
	assert.False(t, ok)

	// 500 m in 90 s is 20 km/h.
	ok, dist := f.Accept(sampleAt(500, t0.Add(90*time.Second), 5), last)
	assert.True(t, ok)
	assert.InDelta(t, 500.0, dist, 0.5)
}

func TestZeroIntervalSkipsSpeedGate(t *testing.T) {
	f := New(nil)

	// Same timestamp: no speed can be computed, but a 500 m jump clears
	// the jitter window so it is kept.
	ok, _ := f.Accept(sampleAt(500, t0, 5), lastAt(0, t0))
	assert.True(t, ok)

	// Same timestamp and nearby: jitter.
	ok, _ = f.Accept(sampleAt(2, t0, 5), lastAt(0, t0))
	assert.False(t, ok)
}

func TestCustomThresholds(t *testing.T) {
	f := New(&Config{
		MaxAccuracyMeters:     10,
		MaxSpeedMps:           50,
		JitterDistanceMeters:  1,
		JitterIntervalSeconds: 1,
	})

	ok, _ := f.Accept(sampleAt(0, t0, 15), nil)
	assert.False(t, ok, "tighter accuracy threshold applies")

	// 180 km/h passes a 50 m/s gate.
	ok, _ = f.Accept(sampleAt(500, t0.Add(10*time.Second), 5), lastAt(0, t0))
	assert.True(t, ok)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 40.0, cfg.MaxAccuracyMeters)
	assert.Equal(t, 22.22, cfg.MaxSpeedMps)
	assert.Equal(t, 3.0, cfg.JitterDistanceMeters)
	assert.Equal(t, 5.0, cfg.JitterIntervalSeconds)
}
