package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pathakanu/lifesync/internal/matcher"
	"github.com/pathakanu/lifesync/internal/model"
	"github.com/pathakanu/lifesync/internal/notify"
	"github.com/pathakanu/lifesync/internal/store"
	"github.com/pathakanu/lifesync/internal/timeofday"
)

// User-facing messages shown when the AI collaborator fails or stays silent.
const (
	AIErrorMessage    = "Error connecting to AI assistant."
	AIEmptyMessage    = "No response from AI."
	permissionGranted = "Smart notifications enabled!"
)

var (
	// ErrEmptyPrompt is returned by Ask for blank questions.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	// ErrInvalidPlanRequest is returned by PlanStudy when subject or topics are missing.
	ErrInvalidPlanRequest = errors.New("subject and topics are required")
	// ErrInvalidMedicine is returned by AddMedicine for missing fields or an unparseable time.
	ErrInvalidMedicine = errors.New("invalid medicine entry")
	// ErrInvalidTime is the ErrInvalidMedicine raised for an unparseable time.
	ErrInvalidTime = fmt.Errorf("%w: unrecognized time", ErrInvalidMedicine)
	// ErrAIUnavailable wraps every collaborator failure.
	ErrAIUnavailable = errors.New("ai collaborator unavailable")
)

// Collaborator is the external generative AI service.
type Collaborator interface {
	Ask(ctx context.Context, prompt string, role model.Role) (string, error)
	PlanStudy(ctx context.Context, req model.StudyPlanRequest) ([]model.StudyScheduleItem, error)
}

// Assistant coordinates the stores, the AI collaborator and the reminder schedule.
type Assistant struct {
	profiles   *store.ProfileStore
	schedules  *store.ScheduleStore
	reminders  *store.ReminderLog
	permission *store.Permission
	ai         Collaborator
	notifier   notify.Notifier
	matcher    *matcher.Matcher
	cron       *cron.Cron
	interval   time.Duration
	log        *slog.Logger
	now        func() time.Time
}

// Deps lists everything an Assistant needs.
type Deps struct {
	Profiles     *store.ProfileStore
	Schedules    *store.ScheduleStore
	Reminders    *store.ReminderLog
	Permission   *store.Permission
	State        matcher.State
	AI           Collaborator
	Notifier     notify.Notifier
	Location     *time.Location
	PollInterval time.Duration
	Logger       *slog.Logger
}

// New creates a fully configured Assistant. The matcher schedule is not started.
func New(deps Deps) *Assistant {
	location := deps.Location
	if location == nil {
		location = time.Local
	}
	interval := deps.PollInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	m := matcher.New(matcher.Config{
		Schedules:  deps.Schedules,
		State:      deps.State,
		Permission: deps.Permission,
		Notifier:   deps.Notifier,
		Recorder:   deps.Reminders,
		Location:   location,
		Logger:     deps.Logger,
	})

	cronLog := cronLogger{log: deps.Logger}
	c := cron.New(
		cron.WithLocation(location),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	return &Assistant{
		profiles:   deps.Profiles,
		schedules:  deps.Schedules,
		reminders:  deps.Reminders,
		permission: deps.Permission,
		ai:         deps.AI,
		notifier:   deps.Notifier,
		matcher:    m,
		cron:       c,
		interval:   interval,
		log:        deps.Logger,
		now:        time.Now,
	}
}

// StartScheduler registers the reminder matcher and starts the cron loop.
func (a *Assistant) StartScheduler() error {
	schedule := fmt.Sprintf("@every %s", a.interval)
	if _, err := a.cron.AddFunc(schedule, a.checkReminders); err != nil {
		return fmt.Errorf("schedule reminder matcher: %w", err)
	}
	a.cron.Start()
	a.log.Info("scheduler started", "schedule", schedule)
	return nil
}

// StopScheduler stops the cron scheduler and waits for a running pass.
func (a *Assistant) StopScheduler() {
	ctx := a.cron.Stop()
	<-ctx.Done()
}

func (a *Assistant) checkReminders() {
	if _, err := a.CheckReminders(context.Background()); err != nil {
		a.log.Error("reminder pass failed", "error", err)
	}
}

// CheckReminders runs one matcher pass against the current time.
func (a *Assistant) CheckReminders(ctx context.Context) (matcher.Result, error) {
	return a.matcher.Check(ctx, a.now())
}

// Login validates and stores profile as the current user.
func (a *Assistant) Login(ctx context.Context, profile model.UserProfile) (model.UserProfile, error) {
	if err := profile.Validate(); err != nil {
		return model.UserProfile{}, err
	}
	profile = profile.Normalized()
	if err := a.profiles.Save(ctx, profile); err != nil {
		return model.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}
	a.log.Info("user logged in", "role", profile.Role)
	return profile, nil
}

// Logout clears the current profile. Schedules and reminders are kept.
func (a *Assistant) Logout(ctx context.Context) error {
	return a.profiles.Clear(ctx)
}

// Profile returns the current user or store.ErrNoProfile.
func (a *Assistant) Profile(ctx context.Context) (model.UserProfile, error) {
	return a.profiles.Load(ctx)
}

// Ask forwards a free-form question in the current user's role.
// Collaborator failures are wrapped in ErrAIUnavailable.
func (a *Assistant) Ask(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	profile, err := a.profiles.Load(ctx)
	if err != nil {
		return "", err
	}

	answer, err := a.ai.Ask(ctx, prompt, profile.Role)
	if err != nil {
		a.log.Warn("ai ask failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	if strings.TrimSpace(answer) == "" {
		return AIEmptyMessage, nil
	}
	return answer, nil
}

// PlanRequest is a study plan generation as submitted by the user.
type PlanRequest struct {
	model.StudyPlanRequest
	SetReminder bool `json:"setReminder"`
}

// SplitTopics turns "Algebra, Trigonometry ,Calculus" into trimmed, non-empty topics.
func SplitTopics(topics string) []string {
	var out []string
	for _, topic := range strings.Split(topics, ",") {
		if topic = strings.TrimSpace(topic); topic != "" {
			out = append(out, topic)
		}
	}
	return out
}

// PlanStudy generates a new plan, replaces the active one and optionally logs a reminder.
// A malformed AI reply results in an empty plan, not an error.
func (a *Assistant) PlanStudy(ctx context.Context, req PlanRequest) ([]model.StudyScheduleItem, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" || len(req.Topics) == 0 {
		return nil, ErrInvalidPlanRequest
	}
	if req.Hours <= 0 {
		req.Hours = 2
	}

	items, err := a.ai.PlanStudy(ctx, req.StudyPlanRequest)
	if err != nil {
		a.log.Warn("ai plan failed", "subject", req.Subject, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	if items == nil {
		items = []model.StudyScheduleItem{}
	}
	if err := a.schedules.SetActiveStudyPlan(ctx, items); err != nil {
		return nil, fmt.Errorf("store study plan: %w", err)
	}

	if req.SetReminder {
		text := fmt.Sprintf("New Study Plan for %s created. You will receive notifications at the start of each topic.", req.Subject)
		if req.ExamTomorrow {
			text = fmt.Sprintf("EXAM TOMORROW: %s. AI has scheduled %d critical topics. Notifications are set.", req.Subject, len(items))
		}
		if _, err := a.reminders.Append(ctx, text, model.RoleStudent); err != nil {
			a.log.Warn("record study reminder failed", "subject", req.Subject, "error", err)
		}
	}
	return items, nil
}

// ActiveStudyPlan returns the current plan.
func (a *Assistant) ActiveStudyPlan(ctx context.Context) ([]model.StudyScheduleItem, error) {
	return a.schedules.ActiveStudyPlan(ctx)
}

// AddMedicine validates entry, stores its time in canonical "HH:MM" form and
// optionally logs a reminder.
func (a *Assistant) AddMedicine(ctx context.Context, entry model.MedicineEntry, setReminder bool) (model.MedicineEntry, error) {
	entry.Disease = strings.TrimSpace(entry.Disease)
	entry.Medicine = strings.TrimSpace(entry.Medicine)
	entry.Description = strings.TrimSpace(entry.Description)
	if entry.Disease == "" || entry.Medicine == "" {
		return model.MedicineEntry{}, fmt.Errorf("%w: disease and medicine are required", ErrInvalidMedicine)
	}
	normalized, err := timeofday.Normalize(entry.Time)
	if err != nil {
		return model.MedicineEntry{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}
	entry.Time = normalized

	if err := a.schedules.AddMedicine(ctx, entry); err != nil {
		return model.MedicineEntry{}, fmt.Errorf("store medicine: %w", err)
	}
	if setReminder {
		text := fmt.Sprintf("MEDICINE ALERT: Scheduled %s for %s daily.", entry.Medicine, entry.Time)
		if _, err := a.reminders.Append(ctx, text, model.RoleSenior); err != nil {
			a.log.Warn("record medicine reminder failed", "medicine", entry.Medicine, "error", err)
		}
	}
	return entry, nil
}

// Medicines returns the medicine list.
func (a *Assistant) Medicines(ctx context.Context) ([]model.MedicineEntry, error) {
	return a.schedules.Medicines(ctx)
}

// Reminders returns the reminder log newest first. An empty log shows a
// single welcome record for the current role; it is not persisted.
func (a *Assistant) Reminders(ctx context.Context) ([]model.ReminderRecord, error) {
	records, err := a.reminders.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return records, nil
	}

	role := model.RoleStudent
	if profile, err := a.profiles.Load(ctx); err == nil {
		role = profile.Role
	}
	return []model.ReminderRecord{welcomeRecord(role, a.now())}, nil
}

func welcomeRecord(role model.Role, now time.Time) model.ReminderRecord {
	if role == model.RoleSenior {
		return model.ReminderRecord{
			ID:        "default-2",
			Text:      "Welcome to Life Sync AI. Add your medications in the Scheduler to see alerts.",
			Timestamp: now.UTC(),
			Role:      model.RoleSenior,
		}
	}
	return model.ReminderRecord{
		ID:        "default-1",
		Text:      "Welcome to Life Sync AI. Set your study schedule to see reminders here.",
		Timestamp: now.UTC(),
		Role:      model.RoleStudent,
	}
}

// RemoveReminder deletes one record from the log.
func (a *Assistant) RemoveReminder(ctx context.Context, id string) error {
	return a.reminders.Remove(ctx, id)
}

// NotificationsGranted reports the notification permission.
func (a *Assistant) NotificationsGranted(ctx context.Context) (bool, error) {
	return a.permission.Granted(ctx)
}

// GrantNotifications enables reminder delivery and sends a confirmation.
// A failed confirmation is logged; the grant stands.
func (a *Assistant) GrantNotifications(ctx context.Context) error {
	if err := a.permission.Set(ctx, true); err != nil {
		return err
	}
	if err := a.notifier.Notify(ctx, notify.Notification{Title: "Life Sync AI", Body: permissionGranted, Icon: notify.IconDefault}); err != nil {
		a.log.Warn("confirmation notification failed", "error", err)
	}
	return nil
}

// RevokeNotifications disables reminder delivery; matcher passes become no-ops.
func (a *Assistant) RevokeNotifications(ctx context.Context) error {
	return a.permission.Set(ctx, false)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
