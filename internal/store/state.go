package store

import (
	"context"
	"log/slog"

	"github.com/pathakanu/lifesync/internal/broadcast"
)

// MatcherState remembers the last minute the reminder matcher checked.
type MatcherState struct {
	blobs Blobs
}

func NewMatcherState(blobs Blobs) *MatcherState {
	return &MatcherState{blobs: blobs}
}

// LastMinute returns the last checked "HH:MM", or "" when the matcher never ran.
func (s *MatcherState) LastMinute(ctx context.Context) (string, error) {
	var minute string
	if _, err := readJSON(ctx, s.blobs, KeyLastNotifiedMinute, &minute); err != nil {
		return "", err
	}
	return minute, nil
}

func (s *MatcherState) SetLastMinute(ctx context.Context, minute string) error {
	return writeJSON(ctx, s.blobs, KeyLastNotifiedMinute, minute)
}

// Permission is the persisted notification permission. Until it is set
// explicitly the configured default applies.
type Permission struct {
	blobs    Blobs
	fallback bool
	pub      broadcast.Publisher
	log      *slog.Logger
}

type permissionDoc struct {
	Granted bool `json:"granted"`
}

func NewPermission(blobs Blobs, fallback bool, pub broadcast.Publisher, log *slog.Logger) *Permission {
	return &Permission{blobs: blobs, fallback: fallback, pub: pub, log: log}
}

func (p *Permission) Granted(ctx context.Context) (bool, error) {
	var doc permissionDoc
	found, err := readJSON(ctx, p.blobs, KeyNotifications, &doc)
	if err != nil {
		return false, err
	}
	if !found {
		return p.fallback, nil
	}
	return doc.Granted, nil
}

func (p *Permission) Set(ctx context.Context, granted bool) error {
	if err := writeJSON(ctx, p.blobs, KeyNotifications, permissionDoc{Granted: granted}); err != nil {
		return err
	}
	broadcast.Announce(ctx, p.pub, p.log, broadcast.TopicNotifications)
	return nil
}
