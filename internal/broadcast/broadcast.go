// Package broadcast carries best-effort "state changed" signals between the
// stores and whoever displays them. There is no ordering or delivery
// guarantee: slow subscribers lose events and publishers never block.
package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Topic names the piece of state that changed.
type Topic string

const (
	TopicProfile       Topic = "profile"
	TopicStudyPlan     Topic = "study_plan"
	TopicMedicines     Topic = "medicines"
	TopicReminders     Topic = "reminders"
	TopicNotifications Topic = "notifications"
)

// Event is a change signal. It carries no payload; readers reload the state.
type Event struct {
	Topic Topic     `json:"topic"`
	At    time.Time `json:"at"`
}

// ErrBusClosed is returned by operations on a closed bus.
var ErrBusClosed = errors.New("broadcast: bus closed")

// Publisher sends change signals.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber receives change signals until ctx is done, at which point the channel is closed.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Bus is both ends of the broadcast.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// Announce publishes a change for topic and only logs failures.
// Writers call it after a successful write; the write itself never fails because of it.
func Announce(ctx context.Context, pub Publisher, log *slog.Logger, topic Topic) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, Event{Topic: topic, At: time.Now().UTC()}); err != nil {
		log.Warn("broadcast: publish failed", "topic", topic, "error", err)
	}
}
