// Package rides persists completed ride summaries. The whole collection is
// kept as one JSON blob and rewritten on every change, which is adequate for
// the single-writer, one-device scale it serves.
package rides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LukaGrunt/nabajk/pkg/logx"
	"github.com/LukaGrunt/nabajk/pkg/ride"
)

// ErrNotFound is returned when no ride matches the requested id.
var ErrNotFound = errors.New("ride not found")

const ridesKey = "rides/v1"

// Store is the ride persistence gateway.
type Store struct {
	kv     KV
	logger *logx.Logger
}

// NewStore creates a store over the given KV.
func NewStore(kv KV, logger *logx.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// Save prepends the ride to the persisted list and commits the whole list.
func (s *Store) Save(ctx context.Context, r ride.SavedRide) error {
	list := append([]ride.SavedRide{r}, s.load(ctx)...)
	if err := s.commit(ctx, list); err != nil {
		return err
	}
	s.logger.Info("Ride saved", "id", r.ID, "name", r.Name, "distance_m", r.DistanceMeters)
	return nil
}

// List returns all saved rides, newest first. Missing or unreadable storage
// yields an empty list, never an error.
func (s *Store) List(ctx context.Context) []ride.SavedRide {
	return s.load(ctx)
}

// Get returns the ride with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (ride.SavedRide, error) {
	for _, r := range s.load(ctx) {
		if r.ID == id {
			return r, nil
		}
	}
	return ride.SavedRide{}, ErrNotFound
}

// MarkUploaded flips the ride's uploaded flag and commits the list.
func (s *Store) MarkUploaded(ctx context.Context, id string) error {
	list := s.load(ctx)
	for i := range list {
		if list[i].ID == id {
			list[i].Uploaded = true
			return s.commit(ctx, list)
		}
	}
	return ErrNotFound
}

func (s *Store) load(ctx context.Context) []ride.SavedRide {
	raw, err := s.kv.Get(ctx, ridesKey)
	if err != nil {
		s.logger.Warn("Ride list unreadable, treating as empty", "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}

	var list []ride.SavedRide
	if err := json.Unmarshal(raw, &list); err != nil {
		s.logger.Warn("Ride list corrupt, treating as empty", "error", err)
		return nil
	}
	return list
}

func (s *Store) commit(ctx context.Context, list []ride.SavedRide) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode ride list: %w", err)
	}
	if err := s.kv.Put(ctx, ridesKey, raw); err != nil {
		return fmt.Errorf("persist ride list: %w", err)
	}
	return nil
}
