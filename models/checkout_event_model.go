package models

import (
	"time"

	"github.com/google/uuid"
)

type CheckoutEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReferenceID string    `gorm:"size:40;not null;index" json:"reference_id"`

	// transition or client_error
	Kind string `gorm:"size:20;not null" json:"kind"`

	Step      string  `gorm:"size:40" json:"step"`
	FromState *string `gorm:"size:20" json:"from_state"`
	ToState   *string `gorm:"size:20" json:"to_state"`
	Reason    *string `gorm:"size:40" json:"reason"`
	Detail    *string `gorm:"type:text" json:"detail"`
	UserEmail *string `gorm:"size:255" json:"user_email"`

	CreatedAt time.Time `json:"created_at"`
}
