package model

import "time"

// ReminderRecord is a human readable entry of the reminder log.
type ReminderRecord struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Role      Role      `json:"role"`
}
