// Package ride defines the shared domain types of the recording pipeline:
// raw location samples, accepted track points, observable recorder state and
// the persisted ride summary.
package ride

import (
	"time"

	"github.com/google/uuid"

	"github.com/LukaGrunt/nabajk/pkg/geo"
)

// Status is the recorder lifecycle status.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRecording Status = "recording"
	StatusStopped   Status = "stopped"
)

// GPSQuality grades the most recent sample's horizontal accuracy.
type GPSQuality string

const (
	QualityWaiting GPSQuality = "waiting"
	QualityGood    GPSQuality = "good"
	QualityOK      GPSQuality = "ok"
	QualityPoor    GPSQuality = "poor"
)

// StopReason records why a recording session ended.
type StopReason string

const (
	StopUser       StopReason = "user"
	StopBackground StopReason = "background"
)

// LocationSample is one fix delivered by a location source. Timestamps are
// monotonically non-decreasing per stream.
type LocationSample struct {
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Altitude           *float64  `json:"altitude,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	HorizontalAccuracy float64   `json:"horizontal_accuracy"`
}

// RecordedPoint is a sample the recorder accepted into the track buffer.
type RecordedPoint struct {
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Altitude           *float64  `json:"altitude,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	HorizontalAccuracy float64   `json:"horizontal_accuracy"`
}

// Coordinate returns the point's coordinate pair.
func (p RecordedPoint) Coordinate() geo.Point {
	return geo.Point{Lat: p.Latitude, Lng: p.Longitude}
}

// PointFromSample converts an accepted sample into a track point.
func PointFromSample(s LocationSample) RecordedPoint {
	return RecordedPoint{
		Latitude:           s.Latitude,
		Longitude:          s.Longitude,
		Altitude:           s.Altitude,
		Timestamp:          s.Timestamp,
		HorizontalAccuracy: s.HorizontalAccuracy,
	}
}

// Coordinates extracts the coordinate sequence of a track.
func Coordinates(points []RecordedPoint) []geo.Point {
	coords := make([]geo.Point, len(points))
	for i, p := range points {
		coords[i] = p.Coordinate()
	}
	return coords
}

// QualityFromAccuracy grades a horizontal accuracy in meters.
func QualityFromAccuracy(accuracyMeters float64) GPSQuality {
	switch {
	case accuracyMeters <= 5:
		return QualityGood
	case accuracyMeters <= 20:
		return QualityOK
	default:
		return QualityPoor
	}
}

// RecordingState is the recorder's externally observable snapshot. Values
// are copies; emitted states are never mutated after emission.
type RecordingState struct {
	Status         Status     `json:"status"`
	ElapsedSeconds int        `json:"elapsed_seconds"`
	DistanceMeters float64    `json:"distance_meters"`
	PointsCount    int        `json:"points_count"`
	GPSQuality     GPSQuality `json:"gps_quality"`
	StopReason     StopReason `json:"stop_reason,omitempty"`
}

// SavedRide is the persisted summary of one completed recording session.
// Immutable after save except for the Uploaded flag.
type SavedRide struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Region          string    `json:"region"`
	CreatedAt       time.Time `json:"created_at"`
	DurationSeconds int       `json:"duration_seconds"`
	DistanceMeters  float64   `json:"distance_meters"`
	PolylineEncoded string    `json:"polyline_encoded"`
	PointsCount     int       `json:"points_count"`
	GPXPath         string    `json:"gpx_path"`
	Uploaded        bool      `json:"uploaded"`
}

// NewRideID returns a fresh ride identity.
func NewRideID() string {
	return uuid.NewString()
}
