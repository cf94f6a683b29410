package models

import (
	"time"

	"github.com/google/uuid"
)

type Coupon struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Code string    `gorm:"size:20;not null;unique" json:"code"`

	// percent or flat
	DiscountType  string  `gorm:"size:10;not null" json:"discount_type"`
	DiscountValue float64 `gorm:"type:numeric(10,2);not null" json:"discount_value"`

	IsActive  bool       `gorm:"default:true" json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
