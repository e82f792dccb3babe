package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimetableEntry is one class slot. Faculty and Classroom are free-text names, not foreign keys.
type TimetableEntry struct {
	ID        string `json:"id,omitempty" gorm:"primaryKey;size:36"`
	Day       string `json:"day" gorm:"size:16;not null"`
	StartTime string `json:"startTime" gorm:"size:16;not null"`
	EndTime   string `json:"endTime" gorm:"size:16;not null"`
	Subject   string `json:"subject" gorm:"size:256;not null"`
	Faculty   string `json:"faculty" gorm:"size:256;not null"`
	Classroom string `json:"classroom" gorm:"size:128;not null"`
}

func (TimetableEntry) TableName() string { return "timetable" }

func (t *TimetableEntry) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
