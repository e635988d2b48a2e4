package model

import "time"

// Blob is a named JSON document. Every piece of assistant state lives in one.
type Blob struct {
	Name      string    `gorm:"primaryKey;size:128"`
	Data      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
