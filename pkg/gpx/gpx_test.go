package gpx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LukaGrunt/nabajk/pkg/logx"
	"github.com/LukaGrunt/nabajk/pkg/ride"
)

func testPoints() []ride.RecordedPoint {
	ele := 312.52
	return []ride.RecordedPoint{
		{
			Latitude:  46.0569,
			Longitude: 14.5058,
			Altitude:  &ele,
			Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			Latitude:  46.0571,
			Longitude: 14.5061,
			Timestamp: time.Date(2024, 5, 1, 10, 0, 4, 0, time.UTC),
		},
	}
}

func TestRenderDocumentShape(t *testing.T) {
	doc := string(Render(testPoints(), "Morning Ride"))

	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, doc, `<gpx version="1.1" creator="NaBajk" xmlns="http://www.topografix.com/GPX/1/1">`)
	assert.Contains(t, doc, "<name>Morning Ride</name>")
	assert.Equal(t, 2, strings.Count(doc, "<trkpt "))
	assert.Contains(t, doc, `<trkpt lat="46.056900" lon="14.505800">`)
	assert.Contains(t, doc, `<trkpt lat="46.057100" lon="14.506100">`)
	assert.Contains(t, doc, "<time>2024-05-01T10:00:00Z</time>")
	assert.Contains(t, doc, "<time>2024-05-01T10:00:04Z</time>")
}

func TestRenderElevationOnlyWhenPresent(t *testing.T) {
	doc := string(Render(testPoints(), "ride"))

	// First point carries altitude rounded to one decimal, second has none.
	assert.Equal(t, 1, strings.Count(doc, "<ele>"))
	assert.Contains(t, doc, "<ele>312.5</ele>")
}

func TestRenderEscapesName(t *testing.T) {
	doc := string(Render(nil, `Tour <de> "Kamnik" & back`))
	assert.Contains(t, doc, "<name>Tour &lt;de&gt; &quot;Kamnik&quot; &amp; back</name>")
}

func TestRenderTimesInUTC(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	points := []ride.RecordedPoint{{
		Latitude:  46,
		Longitude: 14,
		Timestamp: time.Date(2024, 5, 1, 11, 30, 0, 0, cet),
	}}
	doc := string(Render(points, "ride"))
	assert.Contains(t, doc, "<time>2024-05-01T10:30:00Z</time>")
}

func TestRenderDeterministic(t *testing.T) {
	assert.Equal(t, Render(testPoints(), "ride"), Render(testPoints(), "ride"))
}

func TestWriterSave(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logx.NewLogger("error", "test"))
	w.now = func() time.Time { return time.UnixMilli(1714557600000) }

	path, err := w.Save(testPoints(), "Morning Ride")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nabajk_1714557600000.gpx"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Render(testPoints(), "Morning Ride"), content)

	// No stray temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriterSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "gpx")
	w := NewWriter(dir, logx.NewLogger("error", "test"))

	path, err := w.Save(testPoints(), "ride")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestWriterSaveFailurePropagates(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	w := NewWriter(file, logx.NewLogger("error", "test"))
	_, err := w.Save(testPoints(), "ride")
	assert.Error(t, err)
}
