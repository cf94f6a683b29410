package models

import (
	"time"

	"github.com/google/uuid"
)

type Instructor struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Title    string    `gorm:"size:255" json:"title"`
	Bio      string    `gorm:"type:text" json:"bio"`
	PhotoURL *string   `gorm:"size:255" json:"photo_url"`
	IsActive bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
