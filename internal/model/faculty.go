package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Faculty is a teaching staff member and the cabin they can be found in.
type Faculty struct {
	ID       string   `json:"id,omitempty" gorm:"primaryKey;size:36"`
	Name     string   `json:"name" gorm:"size:256;not null"`
	Subjects []string `json:"subjects" gorm:"serializer:json;not null"`
	Cabin    string   `json:"cabin" gorm:"size:128;not null;index"`
	Email    *string  `json:"email,omitempty" gorm:"size:256"`
	Phone    *string  `json:"phone,omitempty" gorm:"size:64"`
}

// TableName matches the collection name used by the hosted backend.
func (Faculty) TableName() string { return "faculty" }

// BeforeCreate assigns the backend-side id.
func (f *Faculty) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
