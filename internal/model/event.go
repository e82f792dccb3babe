package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a campus event shown on the home screen. Dates are calendar-date strings (YYYY-MM-DD).
type Event struct {
	ID          string  `json:"id,omitempty" gorm:"primaryKey;size:36"`
	Title       string  `json:"title" gorm:"size:256;not null"`
	Description string  `json:"description" gorm:"not null"`
	StartDate   string  `json:"startDate" gorm:"size:10;not null"`
	EndDate     string  `json:"endDate" gorm:"size:10;not null"`
	Location    *string `json:"location,omitempty" gorm:"size:256"`
}

func (Event) TableName() string { return "events" }

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
