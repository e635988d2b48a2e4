package matcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pathakanu/lifesync/internal/database"
	"github.com/pathakanu/lifesync/internal/logger"
	"github.com/pathakanu/lifesync/internal/model"
	"github.com/pathakanu/lifesync/internal/notify"
	"github.com/pathakanu/lifesync/internal/store"
	"github.com/pathakanu/lifesync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	sent []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

type fixture struct {
	blobs      *database.BlobStore
	schedules  *store.ScheduleStore
	reminders  *store.ReminderLog
	permission *store.Permission
	state      *store.MatcherState
	notifier   *recordingNotifier
	matcher    *Matcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	blobs := database.NewBlobStore(testutil.NewDB(t))
	f := &fixture{
		blobs:      blobs,
		schedules:  store.NewScheduleStore(blobs, nil, log),
		reminders:  store.NewReminderLog(blobs, nil, log),
		permission: store.NewPermission(blobs, true, nil, log),
		state:      store.NewMatcherState(blobs),
		notifier:   &recordingNotifier{},
	}
	f.matcher = New(Config{
		Schedules:  f.schedules,
		State:      f.state,
		Permission: f.permission,
		Notifier:   f.notifier,
		Recorder:   f.reminders,
		Location:   time.UTC,
		Logger:     log,
	})
	return f
}

func at(hour, minute, second int) time.Time {
	return time.Date(2026, 4, 10, hour, minute, second, 0, time.UTC)
}

func TestMedicineFiresOncePerMinute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.schedules.AddMedicine(ctx, model.MedicineEntry{Disease: "Diabetes", Medicine: "Metformin", Description: "After breakfast", Time: "08:00"}))

	outcomes := []Outcome{}
	for _, second := range []int{0, 15, 30, 45} {
		result, err := f.matcher.Check(ctx, at(8, 0, second))
		require.NoError(t, err)
		outcomes = append(outcomes, result.Outcome)
	}

	assert.Equal(t, []Outcome{Checked, AlreadyChecked, AlreadyChecked, AlreadyChecked}, outcomes)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "Life Sync AI: Medicine Reminder", f.notifier.sent[0].Title)
	assert.Equal(t, "Time to take Metformin for Diabetes. After breakfast", f.notifier.sent[0].Body)
	assert.Equal(t, notify.IconMedicine, f.notifier.sent[0].Icon)
}

func TestTwoMedicinesFireInSamePass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.schedules.AddMedicine(ctx, model.MedicineEntry{Disease: "Diabetes", Medicine: "Metformin", Time: "08:00"}))
	require.NoError(t, f.schedules.AddMedicine(ctx, model.MedicineEntry{Disease: "Hypertension", Medicine: "Amlodipine", Time: "08:00"}))
	require.NoError(t, f.schedules.AddMedicine(ctx, model.MedicineEntry{Disease: "Cholesterol", Medicine: "Atorvastatin", Time: "21:00"}))

	result, err := f.matcher.Check(ctx, at(8, 0, 30))

	require.NoError(t, err)
	require.Len(t, result.Fired, 2)
	assert.Len(t, f.notifier.sent, 2)
	assert.Equal(t, "Time to take Metformin for Diabetes.", f.notifier.sent[0].Body)
	assert.Equal(t, "Time to take Amlodipine for Hypertension.", f.notifier.sent[1].Body)

	records, err := f.reminders.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, model.RoleSenior, record.Role)
	}
}

func TestDeliveryFailureDoesNotAbortPass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	calls := 0
	f.matcher.notifier = notify.NotifierFunc(func(context.Context, notify.Notification) error {
		calls++
		return errors.New("whatsapp: 503 service unavailable")
	})
	require.NoError(t, f.schedules.AddMedicine(ctx, model.MedicineEntry{Disease: "Diabetes", Medicine: "Metformin", Time: "08:00"}))
	require.NoError(t, f.schedules.AddMedicine(ctx, model.MedicineEntry{Disease: "Hypertension", Medicine: "Amlodipine", Time: "08:00"}))

	result, err := f.matcher.Check(ctx, at(8, 0, 0))

	require.NoError(t, err)
	assert.Equal(t, Checked, result.Outcome)
	assert.Len(t, result.Fired, 2)
	assert.Equal(t, 2, calls)

	records, err := f.reminders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestStudyItemsMatchNormalizedStartTimes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.schedules.SetActiveStudyPlan(ctx, []model.StudyScheduleItem{
		{Name: "Algebra", StartTime: "09:00 AM", EndTime: "10:00 AM", Priority: "High"},
		{Name: "Geometry", StartTime: "02:30 PM", EndTime: "03:30 PM", Priority: "Low"},
		{Name: "Revision", StartTime: "whenever", Priority: "Medium"},
	}))

	result, err := f.matcher.Check(ctx, at(9, 0, 0))
	require.NoError(t, err)
	require.Len(t, result.Fired, 1)
	assert.Equal(t, "Life Sync AI: Study Time", result.Fired[0].Title)
	assert.Equal(t, "Focus Session: Algebra. (Priority: High)", result.Fired[0].Body)

	result, err = f.matcher.Check(ctx, at(14, 30, 15))
	require.NoError(t, err)
	require.Len(t, result.Fired, 1)
	assert.Equal(t, "Focus Session: Geometry. (Priority: Low)", result.Fired[0].Body)

	records, err := f.reminders.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.RoleStudent, records[0].Role)
}

func TestEmptyPlanHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.schedules.SetActiveStudyPlan(ctx, nil))

	result, err := f.matcher.Check(ctx, at(10, 0, 0))

	require.NoError(t, err)
	assert.Equal(t, Checked, result.Outcome)
	assert.Empty(t, result.Fired)
	assert.Empty(t, f.notifier.sent)
	records, err := f.reminders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNoPermissionSkipsWholePass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.permission.Set(ctx, false))
	require.NoError(t, f.schedules.AddMedicine(ctx, model.MedicineEntry{Medicine: "Aspirin", Time: "08:00"}))

	result, err := f.matcher.Check(ctx, at(8, 0, 0))

	require.NoError(t, err)
	assert.Equal(t, NotPermitted, result.Outcome)
	assert.Empty(t, f.notifier.sent)
	last, err := f.state.LastMinute(ctx)
	require.NoError(t, err)
	assert.Empty(t, last, "marker untouched when not permitted")

	require.NoError(t, f.permission.Set(ctx, true))
	result, err = f.matcher.Check(ctx, at(8, 0, 45))
	require.NoError(t, err)
	assert.Len(t, result.Fired, 1)
}

func TestMarkerAdvancesEvenWithoutMatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.matcher.Check(ctx, at(7, 59, 50))
	require.NoError(t, err)

	last, err := f.state.LastMinute(ctx)
	require.NoError(t, err)
	assert.Equal(t, "07:59", last)
}

func TestCorruptMedicinesStillChecksStudyPlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.blobs.Put(ctx, store.KeyMedicines, []byte(`[{"medicine":`)))
	require.NoError(t, f.schedules.SetActiveStudyPlan(ctx, []model.StudyScheduleItem{{Name: "Chemistry", StartTime: "18:00", Priority: "High"}}))

	result, err := f.matcher.Check(ctx, at(18, 0, 0))

	require.NoError(t, err)
	require.Len(t, result.Fired, 1)
	assert.Contains(t, result.Fired[0].Body, "Chemistry")
}

func TestMatcherUsesConfiguredLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	kolkata := time.FixedZone("IST", 5*3600+1800)
	f.matcher.location = kolkata
	require.NoError(t, f.schedules.AddMedicine(ctx, model.MedicineEntry{Medicine: "Aspirin", Time: "08:00"}))

	result, err := f.matcher.Check(ctx, time.Date(2026, 4, 10, 2, 30, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, "08:00", result.Minute)
	assert.Len(t, result.Fired, 1)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "checked", Checked.String())
	assert.Equal(t, "not_permitted", NotPermitted.String())
	assert.Equal(t, "already_checked", AlreadyChecked.String())
}
