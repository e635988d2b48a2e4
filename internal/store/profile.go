package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pathakanu/lifesync/internal/broadcast"
	"github.com/pathakanu/lifesync/internal/model"
)

// ErrNoProfile is returned when nobody is logged in.
var ErrNoProfile = errors.New("no profile saved")

// ProfileStore holds the current user's profile.
type ProfileStore struct {
	blobs Blobs
	pub   broadcast.Publisher
	log   *slog.Logger
}

func NewProfileStore(blobs Blobs, pub broadcast.Publisher, log *slog.Logger) *ProfileStore {
	return &ProfileStore{blobs: blobs, pub: pub, log: log}
}

// Save persists profile and makes it current, replacing any previous one.
func (s *ProfileStore) Save(ctx context.Context, profile model.UserProfile) error {
	if err := writeJSON(ctx, s.blobs, KeyProfile, profile); err != nil {
		return err
	}
	broadcast.Announce(ctx, s.pub, s.log, broadcast.TopicProfile)
	return nil
}

// Load returns the last saved profile or ErrNoProfile.
func (s *ProfileStore) Load(ctx context.Context) (model.UserProfile, error) {
	var profile model.UserProfile
	found, err := readJSON(ctx, s.blobs, KeyProfile, &profile)
	if err != nil {
		return model.UserProfile{}, err
	}
	if !found {
		return model.UserProfile{}, ErrNoProfile
	}
	return profile, nil
}

// Clear removes the profile.
func (s *ProfileStore) Clear(ctx context.Context) error {
	if err := s.blobs.Delete(ctx, KeyProfile); err != nil {
		return err
	}
	broadcast.Announce(ctx, s.pub, s.log, broadcast.TopicProfile)
	return nil
}
