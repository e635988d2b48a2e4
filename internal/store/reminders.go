package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pathakanu/lifesync/internal/broadcast"
	"github.com/pathakanu/lifesync/internal/model"
)

// ErrReminderNotFound is returned when removing an id that is not in the log.
var ErrReminderNotFound = errors.New("reminder not found")

// ReminderLog is the append/remove list of notification records shown to the user.
type ReminderLog struct {
	mu    sync.Mutex
	blobs Blobs
	pub   broadcast.Publisher
	log   *slog.Logger
	now   func() time.Time
	newID func() string
}

func NewReminderLog(blobs Blobs, pub broadcast.Publisher, log *slog.Logger) *ReminderLog {
	return &ReminderLog{
		blobs: blobs,
		pub:   pub,
		log:   log,
		now:   time.Now,
		newID: newReminderID,
	}
}

// Append records text with a fresh time-ordered id and the current time.
func (l *ReminderLog) Append(ctx context.Context, text string, role model.Role) (model.ReminderRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return model.ReminderRecord{}, err
	}
	record := model.ReminderRecord{
		ID:        l.newID(),
		Text:      text,
		Timestamp: l.now().UTC(),
		Role:      role,
	}
	records = append(records, record)
	if err := writeJSON(ctx, l.blobs, KeyReminders, records); err != nil {
		return model.ReminderRecord{}, err
	}
	broadcast.Announce(ctx, l.pub, l.log, broadcast.TopicReminders)
	return record, nil
}

// List returns every record, newest first.
func (l *ReminderLog) List(ctx context.Context) ([]model.ReminderRecord, error) {
	records, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	// UUIDv7 ids sort by creation time, so they order records sharing a timestamp.
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

// Remove deletes exactly the record with id.
func (l *ReminderLog) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return err
	}
	kept := records[:0]
	removed := false
	for _, record := range records {
		if record.ID == id {
			removed = true
			continue
		}
		kept = append(kept, record)
	}
	if !removed {
		return ErrReminderNotFound
	}
	if err := writeJSON(ctx, l.blobs, KeyReminders, kept); err != nil {
		return err
	}
	broadcast.Announce(ctx, l.pub, l.log, broadcast.TopicReminders)
	return nil
}

func (l *ReminderLog) load(ctx context.Context) ([]model.ReminderRecord, error) {
	records := []model.ReminderRecord{}
	if _, err := readJSON(ctx, l.blobs, KeyReminders, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func newReminderID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
