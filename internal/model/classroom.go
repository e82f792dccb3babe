package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a point on the campus map.
type Location struct {
	Latitude  float64 `json:"latitude" gorm:"not null"`
	Longitude float64 `json:"longitude" gorm:"not null"`
}

// Classroom is a room with map coordinates.
type Classroom struct {
	ID       string   `json:"id,omitempty" gorm:"primaryKey;size:36"`
	Name     string   `json:"name" gorm:"size:128;not null"`
	Location Location `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	Building *string  `json:"building,omitempty" gorm:"size:128"`
	Floor    *int     `json:"floor,omitempty"`
}

func (Classroom) TableName() string { return "classrooms" }

func (c *Classroom) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
