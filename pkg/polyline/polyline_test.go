package polyline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LukaGrunt/nabajk/pkg/geo"
)

func TestEncodeReferenceVector(t *testing.T) {
	// Reference example from the polyline algorithm documentation.
	points := []geo.Point{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", Encode(points))
}

func TestEmptySequence(t *testing.T) {
	assert.Equal(t, "", Encode(nil))
	assert.Equal(t, "", Encode([]geo.Point{}))

	decoded, err := Decode("")
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestRoundTrip(t *testing.T) {
	sequences := [][]geo.Point{
		{{Lat: 46.05690, Lng: 14.50580}},
		{
			{Lat: 46.05690, Lng: 14.50580},
			{Lat: 46.05712, Lng: 14.50655},
			{Lat: 46.05801, Lng: 14.50702},
		},
		{
			{Lat: -33.86880, Lng: 151.20930},
			{Lat: 51.50740, Lng: -0.12780},
		},
	}

	for _, points := range sequences {
		decoded, err := Decode(Encode(points))
		require.NoError(t, err)
		require.Len(t, decoded, len(points))
		for i := range points {
			assert.InDelta(t, points[i].Lat, decoded[i].Lat, 1e-5)
			assert.InDelta(t, points[i].Lng, decoded[i].Lng, 1e-5)
		}
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	// An unterminated continuation sequence.
	_, err := Decode("_")
	assert.Error(t, err)
}

func TestBoundsOf(t *testing.T) {
	assert.Equal(t, geo.Bounds{}, BoundsOf(nil))

	b := BoundsOf([]geo.Point{
		{Lat: 46.05, Lng: 14.50},
		{Lat: 46.11, Lng: 14.42},
	})
	assert.Equal(t, 46.05, b.MinLat)
	assert.Equal(t, 46.11, b.MaxLat)
	assert.Equal(t, 14.42, b.MinLng)
	assert.Equal(t, 14.50, b.MaxLng)
}
