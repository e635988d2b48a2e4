package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pathakanu/lifesync/internal/database"
	"github.com/pathakanu/lifesync/internal/logger"
	"github.com/pathakanu/lifesync/internal/matcher"
	"github.com/pathakanu/lifesync/internal/model"
	"github.com/pathakanu/lifesync/internal/notify"
	"github.com/pathakanu/lifesync/internal/store"
	"github.com/pathakanu/lifesync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollaborator struct {
	answer   string
	plan     []model.StudyScheduleItem
	err      error
	lastRole model.Role
	lastPlan model.StudyPlanRequest
}

func (f *fakeCollaborator) Ask(_ context.Context, _ string, role model.Role) (string, error) {
	f.lastRole = role
	return f.answer, f.err
}

func (f *fakeCollaborator) PlanStudy(_ context.Context, req model.StudyPlanRequest) ([]model.StudyScheduleItem, error) {
	f.lastPlan = req
	return f.plan, f.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

type harness struct {
	blobs     *database.BlobStore
	assistant *Assistant
	ai        *fakeCollaborator
	notifier  *recordingNotifier
	reminders *store.ReminderLog
}

func newHarness(t *testing.T, granted bool) *harness {
	t.Helper()
	log := logger.Discard()
	blobs := database.NewBlobStore(testutil.NewDB(t))
	h := &harness{
		blobs:     blobs,
		ai:        &fakeCollaborator{},
		notifier:  &recordingNotifier{},
		reminders: store.NewReminderLog(blobs, nil, log),
	}
	h.assistant = New(Deps{
		Profiles:     store.NewProfileStore(blobs, nil, log),
		Schedules:    store.NewScheduleStore(blobs, nil, log),
		Reminders:    h.reminders,
		Permission:   store.NewPermission(blobs, granted, nil, log),
		State:        store.NewMatcherState(blobs),
		AI:           h.ai,
		Notifier:     h.notifier,
		Location:     time.UTC,
		PollInterval: time.Second,
		Logger:       log,
	})
	return h
}

var student = model.UserProfile{
	Name:           "Asha",
	Age:            19,
	Email:          "asha@example.com",
	Gender:         model.GenderFemale,
	Role:           model.RoleStudent,
	EducationLevel: model.EducationCollege,
	SeniorStatus:   model.SeniorEmployed,
}

func TestLoginNormalizesProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)

	saved, err := h.assistant.Login(ctx, student)
	require.NoError(t, err)
	assert.Empty(t, saved.SeniorStatus)

	got, err := h.assistant.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	require.NoError(t, h.assistant.Logout(ctx))
	_, err = h.assistant.Profile(ctx)
	assert.True(t, errors.Is(err, store.ErrNoProfile))
}

func TestLoginRejectsIncompleteProfile(t *testing.T) {
	h := newHarness(t, true)

	_, err := h.assistant.Login(context.Background(), model.UserProfile{Name: "Asha", Role: model.RoleStudent})

	assert.True(t, errors.Is(err, model.ErrIncompleteProfile))
}

func TestAsk(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)

	_, err := h.assistant.Ask(ctx, "   ")
	assert.True(t, errors.Is(err, ErrEmptyPrompt))

	_, err = h.assistant.Ask(ctx, "What is osmosis?")
	assert.True(t, errors.Is(err, store.ErrNoProfile))

	_, err = h.assistant.Login(ctx, student)
	require.NoError(t, err)

	h.ai.answer = "Osmosis is diffusion of water."
	answer, err := h.assistant.Ask(ctx, "What is osmosis?")
	require.NoError(t, err)
	assert.Equal(t, "Osmosis is diffusion of water.", answer)
	assert.Equal(t, model.RoleStudent, h.ai.lastRole)

	h.ai.answer = ""
	answer, err = h.assistant.Ask(ctx, "What is osmosis?")
	require.NoError(t, err)
	assert.Equal(t, AIEmptyMessage, answer)

	h.ai.err = errors.New("connection refused")
	_, err = h.assistant.Ask(ctx, "What is osmosis?")
	assert.True(t, errors.Is(err, ErrAIUnavailable))
}

func TestPlanStudyReplacesPlanAndLogsReminder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	h.ai.plan = []model.StudyScheduleItem{
		{Name: "Algebra", StartTime: "09:00 AM", EndTime: "10:00 AM", Priority: "High"},
		{Name: "Calculus", StartTime: "10:00 AM", EndTime: "11:00 AM", Priority: "Medium"},
	}

	items, err := h.assistant.PlanStudy(ctx, PlanRequest{
		StudyPlanRequest: model.StudyPlanRequest{Subject: " Mathematics ", Topics: SplitTopics("Algebra, Calculus"), ExamTomorrow: true},
		SetReminder:      true,
	})

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, h.ai.lastPlan.Hours)
	assert.Equal(t, "Mathematics", h.ai.lastPlan.Subject)

	plan, err := h.assistant.ActiveStudyPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, h.ai.plan, plan)

	records, err := h.reminders.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "EXAM TOMORROW: Mathematics. AI has scheduled 2 critical topics. Notifications are set.", records[0].Text)
	assert.Equal(t, model.RoleStudent, records[0].Role)
}

func TestPlanStudyWithoutExam(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	h.ai.plan = []model.StudyScheduleItem{{Name: "Optics", StartTime: "14:00"}}

	_, err := h.assistant.PlanStudy(ctx, PlanRequest{
		StudyPlanRequest: model.StudyPlanRequest{Subject: "Physics", Topics: []string{"Optics"}, Hours: 1},
		SetReminder:      true,
	})
	require.NoError(t, err)

	records, err := h.reminders.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "New Study Plan for Physics created. You will receive notifications at the start of each topic.", records[0].Text)
}

func TestPlanStudyFailureKeepsPreviousPlan(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	h.ai.plan = []model.StudyScheduleItem{{Name: "Optics", StartTime: "14:00"}}
	_, err := h.assistant.PlanStudy(ctx, PlanRequest{StudyPlanRequest: model.StudyPlanRequest{Subject: "Physics", Topics: []string{"Optics"}}})
	require.NoError(t, err)

	_, err = h.assistant.PlanStudy(ctx, PlanRequest{StudyPlanRequest: model.StudyPlanRequest{Subject: "Physics"}})
	assert.True(t, errors.Is(err, ErrInvalidPlanRequest))

	h.ai.err = errors.New("quota exceeded")
	_, err = h.assistant.PlanStudy(ctx, PlanRequest{StudyPlanRequest: model.StudyPlanRequest{Subject: "Physics", Topics: []string{"Waves"}}, SetReminder: true})
	assert.True(t, errors.Is(err, ErrAIUnavailable))

	plan, err := h.assistant.ActiveStudyPlan(ctx)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "Optics", plan[0].Name)

	records, err := h.reminders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPlanStudyKeepsPlanWhenReminderLogFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	require.NoError(t, h.blobs.Put(ctx, store.KeyReminders, []byte(`{"broken":`)))
	h.ai.plan = []model.StudyScheduleItem{{Name: "Optics", StartTime: "14:00", Priority: "High"}}

	items, err := h.assistant.PlanStudy(ctx, PlanRequest{
		StudyPlanRequest: model.StudyPlanRequest{Subject: "Physics", Topics: []string{"Optics"}},
		SetReminder:      true,
	})

	require.NoError(t, err)
	assert.Equal(t, h.ai.plan, items)
	plan, err := h.assistant.ActiveStudyPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, h.ai.plan, plan)

	entry, err := h.assistant.AddMedicine(ctx, model.MedicineEntry{Disease: "Asthma", Medicine: "Salbutamol", Time: "21:00"}, true)
	require.NoError(t, err)
	assert.Equal(t, "21:00", entry.Time)
}

func TestAddMedicineStoresCanonicalTime(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)

	entry, err := h.assistant.AddMedicine(ctx, model.MedicineEntry{Disease: "Diabetes", Medicine: "Metformin", Time: "8:05 pm"}, true)
	require.NoError(t, err)
	assert.Equal(t, "20:05", entry.Time)

	medicines, err := h.assistant.Medicines(ctx)
	require.NoError(t, err)
	require.Len(t, medicines, 1)
	assert.Equal(t, "20:05", medicines[0].Time)

	records, err := h.reminders.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "MEDICINE ALERT: Scheduled Metformin for 20:05 daily.", records[0].Text)
	assert.Equal(t, model.RoleSenior, records[0].Role)
}

func TestAddMedicineRejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)

	cases := map[string]model.MedicineEntry{
		"missing medicine": {Disease: "Diabetes", Time: "08:00"},
		"missing disease":  {Medicine: "Metformin", Time: "08:00"},
		"bad time":         {Disease: "Diabetes", Medicine: "Metformin", Time: "25:00"},
		"empty time":       {Disease: "Diabetes", Medicine: "Metformin"},
	}
	for name, entry := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.assistant.AddMedicine(ctx, entry, true)
			assert.True(t, errors.Is(err, ErrInvalidMedicine))
		})
	}

	_, err := h.assistant.AddMedicine(ctx, model.MedicineEntry{Disease: "Diabetes", Medicine: "Metformin", Time: "09:00 XM"}, false)
	assert.True(t, errors.Is(err, ErrInvalidTime))

	medicines, err := h.assistant.Medicines(ctx)
	require.NoError(t, err)
	assert.Empty(t, medicines)
}

func TestRemindersShowsWelcomeForRole(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)

	records, err := h.assistant.Reminders(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "default-1", records[0].ID)

	senior := model.UserProfile{Name: "Ravi", Age: 72, Email: "ravi@example.com", Role: model.RoleSenior}
	_, err = h.assistant.Login(ctx, senior)
	require.NoError(t, err)

	records, err = h.assistant.Reminders(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "default-2", records[0].ID)
	assert.Equal(t, model.RoleSenior, records[0].Role)

	stored, err := h.reminders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored, "welcome record is not persisted")

	err = h.assistant.RemoveReminder(ctx, "default-2")
	assert.True(t, errors.Is(err, store.ErrReminderNotFound))
}

func TestRemoveReminder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, true)
	record, err := h.reminders.Append(ctx, "Take a walk", model.RoleSenior)
	require.NoError(t, err)

	require.NoError(t, h.assistant.RemoveReminder(ctx, record.ID))

	records, err := h.assistant.Reminders(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "default-1", records[0].ID)
}

func TestNotificationPermission(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false)
	h.assistant.now = func() time.Time { return time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC) }
	_, err := h.assistant.AddMedicine(ctx, model.MedicineEntry{Disease: "Diabetes", Medicine: "Metformin", Time: "08:00"}, false)
	require.NoError(t, err)

	result, err := h.assistant.CheckReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, matcher.NotPermitted, result.Outcome)

	require.NoError(t, h.assistant.GrantNotifications(ctx))
	granted, err := h.assistant.NotificationsGranted(ctx)
	require.NoError(t, err)
	assert.True(t, granted)
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "Smart notifications enabled!", h.notifier.sent[0].Body)

	result, err = h.assistant.CheckReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, matcher.Checked, result.Outcome)
	assert.Len(t, result.Fired, 1)

	require.NoError(t, h.assistant.RevokeNotifications(ctx))
	granted, err = h.assistant.NotificationsGranted(ctx)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestSchedulerStartStop(t *testing.T) {
	h := newHarness(t, false)

	require.NoError(t, h.assistant.StartScheduler())
	assert.Len(t, h.assistant.cron.Entries(), 1)
	h.assistant.StopScheduler()
}

func TestSplitTopics(t *testing.T) {
	assert.Equal(t, []string{"Algebra", "Trigonometry", "Calculus"}, SplitTopics("Algebra, Trigonometry ,Calculus"))
	assert.Equal(t, []string{"Optics"}, SplitTopics(" Optics ,, "))
	assert.Nil(t, SplitTopics(""))
}
