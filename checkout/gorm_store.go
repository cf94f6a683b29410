package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/soundrise/phonics_coach/models"
	"github.com/soundrise/phonics_coach/websocket"
	"gorm.io/gorm"
)

// GormStore is the production OrderStore: registrations, payments and the
// checkout event log live in Postgres; every transition is also pushed to
// the admin live feed.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) CreateCheckout(ctx context.Context, reg *models.Registration, p *models.Payment) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reg).Error; err != nil {
			return err
		}

		p.RegistrationID = &reg.ID
		if err := tx.Create(p).Error; err != nil {
			return err
		}

		return s.recordEvent(tx, p, "begin", nil, StatePending, nil, &reg.Email)
	})
}

func (s *GormStore) FindByReference(ctx context.Context, referenceID string) (*models.Payment, error) {
	var p models.Payment
	err := s.DB.WithContext(ctx).Where("reference_id = ?", referenceID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) Transition(ctx context.Context, p *models.Payment, step string, to State, reason *Reason, retriable bool) error {
	from := State(p.Status)
	if from != to && !CanTransition(from, to) {
		return fmt.Errorf("illegal checkout transition %s -> %s for %s", from, to, p.ReferenceID)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p.Status = string(to)
		p.Retriable = retriable
		if reason != nil {
			r := string(*reason)
			p.FailureReason = &r
		} else {
			p.FailureReason = nil
		}
		if err := tx.Save(p).Error; err != nil {
			return err
		}

		if to == StateFailed && p.RegistrationID != nil && !retriable {
			if err := tx.Model(&models.Registration{}).Where("id = ?", p.RegistrationID).
				Update("status", "failed").Error; err != nil {
				return err
			}
		}

		fromStr := string(from)
		return s.recordEvent(tx, p, step, &fromStr, to, reason, nil)
	})
}

func (s *GormStore) MarkPaid(ctx context.Context, p *models.Payment, providerTxnID string) error {
	from := State(p.Status)

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p.Status = string(StatePaid)
		p.FailureReason = nil
		if providerTxnID != "" {
			p.ProviderTxnID = &providerTxnID
		}
		if err := tx.Save(p).Error; err != nil {
			return err
		}

		if p.RegistrationID != nil {
			if err := tx.Model(&models.Registration{}).Where("id = ?", p.RegistrationID).
				Update("status", "enrolled").Error; err != nil {
				return err
			}
		}

		fromStr := string(from)
		return s.recordEvent(tx, p, "verify", &fromStr, StatePaid, nil, nil)
	})
}

func (s *GormStore) recordEvent(tx *gorm.DB, p *models.Payment, step string, from *string, to State, reason *Reason, email *string) error {
	toStr := string(to)
	event := models.CheckoutEvent{
		ReferenceID: p.ReferenceID,
		Kind:        "transition",
		Step:        step,
		FromState:   from,
		ToState:     &toStr,
		UserEmail:   email,
	}
	if reason != nil {
		r := string(*reason)
		event.Reason = &r
	}

	if err := tx.Create(&event).Error; err != nil {
		return err
	}

	websocket.BroadcastEvent(&event)
	return nil
}
