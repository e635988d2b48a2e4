package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pathakanu/lifesync/internal/broadcast"
	"github.com/pathakanu/lifesync/internal/model"
)

// ScheduleStore holds the active study plan and the medicine list.
type ScheduleStore struct {
	mu    sync.Mutex
	blobs Blobs
	pub   broadcast.Publisher
	log   *slog.Logger
}

func NewScheduleStore(blobs Blobs, pub broadcast.Publisher, log *slog.Logger) *ScheduleStore {
	return &ScheduleStore{blobs: blobs, pub: pub, log: log}
}

// SetActiveStudyPlan replaces the whole plan. There is no merge and no history.
func (s *ScheduleStore) SetActiveStudyPlan(ctx context.Context, items []model.StudyScheduleItem) error {
	if items == nil {
		items = []model.StudyScheduleItem{}
	}
	if err := writeJSON(ctx, s.blobs, KeyStudyPlan, items); err != nil {
		return err
	}
	broadcast.Announce(ctx, s.pub, s.log, broadcast.TopicStudyPlan)
	return nil
}

// ActiveStudyPlan returns the current plan, empty when none was generated.
func (s *ScheduleStore) ActiveStudyPlan(ctx context.Context) ([]model.StudyScheduleItem, error) {
	items := []model.StudyScheduleItem{}
	if _, err := readJSON(ctx, s.blobs, KeyStudyPlan, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddMedicine appends entry to the medicine list.
func (s *ScheduleStore) AddMedicine(ctx context.Context, entry model.MedicineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	medicines, err := s.Medicines(ctx)
	if err != nil {
		return err
	}
	medicines = append(medicines, entry)
	if err := writeJSON(ctx, s.blobs, KeyMedicines, medicines); err != nil {
		return err
	}
	broadcast.Announce(ctx, s.pub, s.log, broadcast.TopicMedicines)
	return nil
}

// Medicines returns every medicine in insertion order.
func (s *ScheduleStore) Medicines(ctx context.Context) ([]model.MedicineEntry, error) {
	medicines := []model.MedicineEntry{}
	if _, err := readJSON(ctx, s.blobs, KeyMedicines, &medicines); err != nil {
		return nil, err
	}
	return medicines, nil
}
