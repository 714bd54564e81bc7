package location

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LukaGrunt/nabajk/pkg/logx"
	"github.com/LukaGrunt/nabajk/pkg/recorder"
	"github.com/LukaGrunt/nabajk/pkg/ride"
)

const replayFixture = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>fixture</name>
    <trkseg>
      <trkpt lat="46.05000" lon="14.50000"><ele>300.0</ele><time>2024-05-01T10:00:00Z</time></trkpt>
      <trkpt lat="46.05100" lon="14.50100"><ele>301.5</ele><time>2024-05-01T10:00:10Z</time></trkpt>
      <trkpt lat="46.05200" lon="14.50200"><time>2024-05-01T10:00:20Z</time></trkpt>
    </trkseg>
  </trk>
</gpx>
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.gpx")
	require.NoError(t, os.WriteFile(path, []byte(replayFixture), 0o600))
	return path
}

func collect(t *testing.T, ch <-chan ride.LocationSample, n int) []ride.LocationSample {
	t.Helper()
	samples := make([]ride.LocationSample, 0, n)
	for len(samples) < n {
		select {
		case s := <-ch:
			samples = append(samples, s)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for sample %d of %d", len(samples)+1, n)
		}
	}
	return samples
}

func TestReplayDeliversPointsInOrder(t *testing.T) {
	source := NewReplaySource(writeFixture(t), 10000, logx.NewLogger("error", "test"))

	ch := make(chan ride.LocationSample, 8)
	sub, err := source.Subscribe(context.Background(), recorder.DefaultPolicy(), func(s ride.LocationSample) {
		ch <- s
	})
	require.NoError(t, err)
	defer sub.Cancel()

	samples := collect(t, ch, 3)

	assert.Equal(t, 46.05, samples[0].Latitude)
	assert.Equal(t, 46.051, samples[1].Latitude)
	assert.Equal(t, 46.052, samples[2].Latitude)

	require.NotNil(t, samples[0].Altitude)
	assert.InDelta(t, 300.0, *samples[0].Altitude, 0.01)
	assert.Nil(t, samples[2].Altitude, "point without elevation stays bare")

	assert.Equal(t, replayAccuracyMeters, samples[0].HorizontalAccuracy)
	assert.True(t, samples[1].Timestamp.After(samples[0].Timestamp))
}

func TestReplayCancellationStopsDelivery(t *testing.T) {
	// No speedup: delivery is paced by the policy interval, so the feed is
	// still between points when we cancel.
	source := NewReplaySource(writeFixture(t), 0, logx.NewLogger("error", "test"))

	ch := make(chan ride.LocationSample, 8)
	policy := recorder.DefaultPolicy()
	policy.MinInterval = time.Hour

	sub, err := source.Subscribe(context.Background(), policy, func(s ride.LocationSample) {
		ch <- s
	})
	require.NoError(t, err)

	collect(t, ch, 1)
	sub.Cancel()

	select {
	case s := <-ch:
		t.Fatalf("unexpected sample after cancel: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReplayMissingFile(t *testing.T) {
	source := NewReplaySource(filepath.Join(t.TempDir(), "missing.gpx"), 0, logx.NewLogger("error", "test"))
	_, err := source.Subscribe(context.Background(), recorder.DefaultPolicy(), func(ride.LocationSample) {})
	assert.Error(t, err)
}

func TestReplayEmptyTrack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gpx")
	empty := `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1"><trk><trkseg></trkseg></trk></gpx>`
	require.NoError(t, os.WriteFile(path, []byte(empty), 0o600))

	source := NewReplaySource(path, 0, logx.NewLogger("error", "test"))
	_, err := source.Subscribe(context.Background(), recorder.DefaultPolicy(), func(ride.LocationSample) {})
	assert.ErrorContains(t, err, "no trackpoints")
}
