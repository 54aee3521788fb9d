package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrImmutable is returned by hooks when something tries to change a stored memory.
var ErrImmutable = errors.New("memories are append-only")

// Memory is one visitor's contribution to the memory book. Rows are written once and never changed.
type Memory struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	YearMet   int       `gorm:"not null" json:"year_met"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	PhotoURL  *string   `gorm:"size:1024" json:"photo_url"`
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
}

func (Memory) TableName() string { return "memories" }

// HasPhoto reports whether the memory references an uploaded photo.
func (m Memory) HasPhoto() bool {
	return m.PhotoURL != nil && *m.PhotoURL != ""
}

// BeforeCreate assigns the identifier and creation time.
func (m *Memory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (m *Memory) BeforeUpdate(tx *gorm.DB) error { return ErrImmutable }

func (m *Memory) BeforeDelete(tx *gorm.DB) error { return ErrImmutable }
