package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/pathakanu/lifesync/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by BlobStore.Get for names that were never written or were deleted.
var ErrNotFound = errors.New("blob not found")

// BlobStore keeps named JSON documents in the blobs table.
type BlobStore struct {
	db *gorm.DB
}

// NewBlobStore wraps an already migrated connection.
func NewBlobStore(db *gorm.DB) *BlobStore {
	return &BlobStore{db: db}
}

// Get returns the raw document stored under name.
func (s *BlobStore) Get(ctx context.Context, name string) ([]byte, error) {
	var blob model.Blob
	err := s.db.WithContext(ctx).Where("name = ?", name).Take(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", name, err)
	}
	return []byte(blob.Data), nil
}

// Put creates or overwrites the document stored under name.
func (s *BlobStore) Put(ctx context.Context, name string, data []byte) error {
	blob := model.Blob{Name: name, Data: string(data)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&blob).Error
	if err != nil {
		return fmt.Errorf("put blob %s: %w", name, err)
	}
	return nil
}

// Delete removes the document stored under name. Deleting a missing name is not an error.
func (s *BlobStore) Delete(ctx context.Context, name string) error {
	if err := s.db.WithContext(ctx).Where("name = ?", name).Delete(&model.Blob{}).Error; err != nil {
		return fmt.Errorf("delete blob %s: %w", name, err)
	}
	return nil
}
