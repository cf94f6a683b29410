package models

import (
	"time"

	"github.com/google/uuid"
)

type Registration struct {
	ID       uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID   *uuid.UUID `json:"user_id"`
	CourseID uuid.UUID  `gorm:"not null" json:"course_id"`

	FullName string `gorm:"size:255;not null" json:"full_name"`
	Email    string `gorm:"size:255;not null" json:"email"`
	Phone    string `gorm:"size:20;not null" json:"phone"`
	Country  string `gorm:"size:100;not null" json:"country"`
	State    string `gorm:"size:100;not null" json:"state"`
	City     string `gorm:"size:100;not null" json:"city"`

	CouponCode *string `gorm:"size:20" json:"coupon_code"`

	// pending_payment, enrolled, failed
	Status string `gorm:"size:20;not null;default:'pending_payment'" json:"status"`

	User   User   `gorm:"foreignkey:UserID" json:"-"`
	Course Course `gorm:"foreignkey:CourseID" json:"course,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
