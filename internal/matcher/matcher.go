// Package matcher decides, once per polling tick, whether the current wall
// clock minute matches a medicine or study plan start time and raises the
// corresponding notifications.
//
// Matching is exact at minute resolution. A single last-checked minute
// marker suppresses repeat passes within the same minute; there is no
// tolerance window and no catch-up for minutes that were never polled.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pathakanu/lifesync/internal/model"
	"github.com/pathakanu/lifesync/internal/notify"
	"github.com/pathakanu/lifesync/internal/timeofday"
)

const (
	medicineTitle = "Life Sync AI: Medicine Reminder"
	studyTitle    = "Life Sync AI: Study Time"
)

// Schedules is the read side of the schedule store.
type Schedules interface {
	Medicines(ctx context.Context) ([]model.MedicineEntry, error)
	ActiveStudyPlan(ctx context.Context) ([]model.StudyScheduleItem, error)
}

// State holds the last minute a pass ran for.
type State interface {
	LastMinute(ctx context.Context) (string, error)
	SetLastMinute(ctx context.Context, minute string) error
}

// Permission gates every pass.
type Permission interface {
	Granted(ctx context.Context) (bool, error)
}

// Recorder appends fired notifications to the reminder log.
type Recorder interface {
	Append(ctx context.Context, text string, role model.Role) (model.ReminderRecord, error)
}

// Outcome says how a pass ended.
type Outcome int

const (
	// Checked means the minute was evaluated; Fired may still be empty.
	Checked Outcome = iota
	// NotPermitted means notifications are not granted and nothing was touched.
	NotPermitted
	// AlreadyChecked means this minute was evaluated by an earlier pass.
	AlreadyChecked
)

func (o Outcome) String() string {
	switch o {
	case Checked:
		return "checked"
	case NotPermitted:
		return "not_permitted"
	case AlreadyChecked:
		return "already_checked"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes one pass.
type Result struct {
	Minute  string
	Outcome Outcome
	Fired   []notify.Notification
}

// Matcher owns the per-minute matching pass.
type Matcher struct {
	schedules  Schedules
	state      State
	permission Permission
	notifier   notify.Notifier
	recorder   Recorder
	location   *time.Location
	log        *slog.Logger
}

// Config wires a Matcher. Recorder may be nil; Location defaults to time.Local.
type Config struct {
	Schedules  Schedules
	State      State
	Permission Permission
	Notifier   notify.Notifier
	Recorder   Recorder
	Location   *time.Location
	Logger     *slog.Logger
}

func New(cfg Config) *Matcher {
	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	return &Matcher{
		schedules:  cfg.Schedules,
		state:      cfg.State,
		permission: cfg.Permission,
		notifier:   cfg.Notifier,
		recorder:   cfg.Recorder,
		location:   location,
		log:        cfg.Logger,
	}
}

// Check runs one pass for the minute containing now. Errors reading the
// permission or the marker abort the pass; a corrupt medicine list or study
// plan only skips that source, and delivery failures are logged.
func (m *Matcher) Check(ctx context.Context, now time.Time) (Result, error) {
	granted, err := m.permission.Granted(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read notification permission: %w", err)
	}
	if !granted {
		return Result{Outcome: NotPermitted}, nil
	}

	minute := timeofday.FromTime(now.In(m.location)).String()
	result := Result{Minute: minute}

	last, err := m.state.LastMinute(ctx)
	if err != nil {
		return result, fmt.Errorf("read last checked minute: %w", err)
	}
	if last == minute {
		result.Outcome = AlreadyChecked
		return result, nil
	}
	if err := m.state.SetLastMinute(ctx, minute); err != nil {
		return result, fmt.Errorf("store last checked minute: %w", err)
	}

	for _, med := range m.dueMedicines(ctx, minute) {
		n := notify.Notification{
			Title: medicineTitle,
			Body:  strings.TrimSpace(fmt.Sprintf("Time to take %s for %s. %s", med.Medicine, med.Disease, med.Description)),
			Icon:  notify.IconMedicine,
		}
		m.fire(ctx, n, model.RoleSenior)
		result.Fired = append(result.Fired, n)
	}

	for _, item := range m.dueStudyItems(ctx, minute) {
		n := notify.Notification{
			Title: studyTitle,
			Body:  fmt.Sprintf("Focus Session: %s. (Priority: %s)", item.Name, item.Priority),
			Icon:  notify.IconStudy,
		}
		m.fire(ctx, n, model.RoleStudent)
		result.Fired = append(result.Fired, n)
	}

	if len(result.Fired) > 0 {
		m.log.Info("matcher: reminders fired", "minute", minute, "count", len(result.Fired))
	}
	return result, nil
}

func (m *Matcher) dueMedicines(ctx context.Context, minute string) []model.MedicineEntry {
	medicines, err := m.schedules.Medicines(ctx)
	if err != nil {
		m.log.Error("matcher: load medicines", "error", err)
		return nil
	}
	var due []model.MedicineEntry
	for _, med := range medicines {
		if med.Time == minute {
			due = append(due, med)
		}
	}
	return due
}

func (m *Matcher) dueStudyItems(ctx context.Context, minute string) []model.StudyScheduleItem {
	plan, err := m.schedules.ActiveStudyPlan(ctx)
	if err != nil {
		m.log.Error("matcher: load study plan", "error", err)
		return nil
	}
	var due []model.StudyScheduleItem
	for _, item := range plan {
		start, err := timeofday.Normalize(item.StartTime)
		if err != nil {
			m.log.Debug("matcher: skipping study item", "name", item.Name, "error", err)
			continue
		}
		if start == minute {
			due = append(due, item)
		}
	}
	return due
}

func (m *Matcher) fire(ctx context.Context, n notify.Notification, role model.Role) {
	if err := m.notifier.Notify(ctx, n); err != nil {
		m.log.Error("matcher: deliver notification", "title", n.Title, "error", err)
	}
	if m.recorder == nil {
		return
	}
	if _, err := m.recorder.Append(ctx, n.Body, role); err != nil {
		m.log.Error("matcher: record notification", "error", err)
	}
}
