// Package store keeps the assistant's state as named JSON documents: the
// current profile, the active study plan, the medicine list, the reminder
// log, the matcher's last-checked minute and the notification permission.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pathakanu/lifesync/internal/database"
)

// Document names.
const (
	KeyProfile            = "lifesync_user"
	KeyLastNotifiedMinute = "lifesync_last_notified_minute"
	KeyMedicines          = "lifesync_meds"
	KeyStudyPlan          = "lifesync_active_study"
	KeyReminders          = "lifesync_reminders"
	KeyNotifications      = "lifesync_notifications"
)

// ErrCorruptBlob is returned when a stored document is not valid JSON for its type.
var ErrCorruptBlob = errors.New("store: corrupt document")

// Blobs is the key-value persistence the stores are built on.
type Blobs interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// readJSON decodes the document into v. It reports false when nothing is stored.
func readJSON(ctx context.Context, blobs Blobs, name string, v any) (bool, error) {
	data, err := blobs.Get(ctx, name)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorruptBlob, name, err)
	}
	return true, nil
}

func writeJSON(ctx context.Context, blobs Blobs, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return blobs.Put(ctx, name, data)
}
