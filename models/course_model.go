package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	Level         string    `gorm:"size:50" json:"level"`
	Price         float64   `gorm:"type:numeric(10,2);not null" json:"price"`
	Currency      string    `gorm:"size:3;not null;default:'INR'" json:"currency"`
	DurationWeeks int       `gorm:"default:12" json:"duration_weeks"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
