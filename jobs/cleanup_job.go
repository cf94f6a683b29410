package jobs

import (
	"context"
	"log"
	"time"

	"github.com/soundrise/phonics_coach/checkout"
	"github.com/soundrise/phonics_coach/database"
	"github.com/soundrise/phonics_coach/models"
)

// ExpireAbandonedCheckouts cancels payments that never made it to a gateway:
// the registration was recorded but order creation failed or the student
// walked away before the hand-off. Cancelled attempts stay retriable, so the
// same reference can re-enter verification if a callback ever does arrive.
func ExpireAbandonedCheckouts() {
	log.Println("Running job: ExpireAbandonedCheckouts...")

	cutoff := time.Now().Add(-1 * time.Hour)

	var abandoned []models.Payment
	err := database.DB.
		Where("status = ? AND updated_at < ?", "pending", cutoff).
		Limit(100).
		Find(&abandoned).Error
	if err != nil {
		log.Printf("Error loading abandoned checkouts: %v", err)
		return
	}
	if len(abandoned) == 0 {
		return
	}

	ctx := context.Background()
	reason := checkout.ReasonCancelled

	for i := range abandoned {
		p := abandoned[i]
		if err := store.Transition(ctx, &p, "expire", checkout.StateCancelled, &reason, true); err != nil {
			log.Printf("Error expiring %s: %v", p.ReferenceID, err)
			continue
		}
	}

	log.Printf("Expired %d abandoned checkout(s).", len(abandoned))
}
