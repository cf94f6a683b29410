package models

import (
	"time"

	"github.com/google/uuid"
)

type Testimonial struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AuthorName string    `gorm:"size:255;not null" json:"author_name"`
	AuthorRole string    `gorm:"size:255" json:"author_role"`
	Quote      string    `gorm:"type:text;not null" json:"quote"`
	PhotoURL   *string   `gorm:"size:255" json:"photo_url"`
	Rating     int       `gorm:"default:5" json:"rating"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
