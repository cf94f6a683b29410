package models

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReferenceID    string     `gorm:"size:40;not null;unique" json:"reference_id"`
	RegistrationID *uuid.UUID `gorm:"unique" json:"registration_id"`

	Provider        string  `gorm:"size:50;not null" json:"provider"`
	ProviderOrderID *string `gorm:"size:255;unique" json:"provider_order_id"`
	ProviderTxnID   *string `gorm:"size:255;unique" json:"provider_txn_id"`

	Amount         float64 `gorm:"type:numeric(10,2);not null" json:"amount"`
	DiscountAmount float64 `gorm:"type:numeric(10,2);default:0.00" json:"discount_amount"`
	Currency       string  `gorm:"size:3;not null" json:"currency"`

	// pending, awaiting_gateway, verifying, paid, failed, cancelled
	Status        string  `gorm:"size:20;not null" json:"status"`
	FailureReason *string `gorm:"size:40" json:"failure_reason"`
	Retriable     bool    `gorm:"default:true" json:"retriable"`

	ReconcileAttempts int     `gorm:"default:0" json:"-"`
	ReceiptURL        *string `gorm:"size:255" json:"receipt_url"`

	Registration Registration `gorm:"foreignkey:RegistrationID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
