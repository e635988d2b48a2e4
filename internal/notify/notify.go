// Package notify delivers reminder notifications to the user over one or more channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Icons shown next to notifications on channels that support them.
const (
	IconDefault  = "https://cdn-icons-png.flaticon.com/512/3119/3119338.png"
	IconMedicine = "https://cdn-icons-png.flaticon.com/512/822/822143.png"
	IconStudy    = "https://cdn-icons-png.flaticon.com/512/2232/2232688.png"
)

// Notification is a user-facing alert.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

// Text renders the notification for plain-text channels.
func (n Notification) Text() string {
	if n.Title == "" {
		return n.Body
	}
	return fmt.Sprintf("%s\n%s", n.Title, n.Body)
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Channel is a named Notifier, so failures can be attributed.
type Channel struct {
	Name     string
	Notifier Notifier
}

// Fanout delivers to every channel and joins the failures.
type Fanout struct {
	channels []Channel
}

func NewFanout(channels ...Channel) *Fanout {
	return &Fanout{channels: channels}
}

// Add registers another channel.
func (f *Fanout) Add(name string, n Notifier) {
	f.channels = append(f.channels, Channel{Name: name, Notifier: n})
}

// Names lists the registered channels.
func (f *Fanout) Names() []string {
	names := make([]string, 0, len(f.channels))
	for _, ch := range f.channels {
		names = append(names, ch.Name)
	}
	return names
}

func (f *Fanout) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, ch := range f.channels {
		if err := ch.Notifier.Notify(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name, err))
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the log. It is always registered and
// stands in for a desktop notification.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.log.InfoContext(ctx, "notification", "title", n.Title, "body", n.Body)
	return nil
}
