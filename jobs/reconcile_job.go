package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/soundrise/phonics_coach/checkout"
	config "github.com/soundrise/phonics_coach/configs"
	"github.com/soundrise/phonics_coach/database"
	"github.com/soundrise/phonics_coach/models"
	"github.com/soundrise/phonics_coach/notifications"
	"github.com/soundrise/phonics_coach/payments"
	"gorm.io/gorm"
)

var (
	orchestrator *checkout.Orchestrator
	store        checkout.OrderStore
)

// maxReconcileAttempts bounds how often the sweeper re-checks one stuck
// payment before handing it to support.
const maxReconcileAttempts = 6

func Init(orc *checkout.Orchestrator, s checkout.OrderStore) {
	orchestrator = orc
	store = s
}

// ReconcileStuckCheckouts sweeps payments that left for a gateway but never
// came back: a closed tab after redirect, a dropped callback, a crashed
// browser. Each is re-verified against the gateway's order-status API, so the
// outcome is the gateway's word rather than anything the client claimed.
func ReconcileStuckCheckouts() {
	log.Println("Running job: ReconcileStuckCheckouts...")

	cutoff := time.Now().Add(-15 * time.Minute)

	var stuck []models.Payment
	err := database.DB.
		Where("status IN ? AND updated_at < ?", []string{"awaiting_gateway", "verifying"}, cutoff).
		Order("updated_at asc").
		Limit(25).
		Find(&stuck).Error
	if err != nil {
		log.Printf("Error loading stuck checkouts: %v", err)
		return
	}
	if len(stuck) == 0 {
		log.Println("No stuck checkouts found.")
		return
	}

	ctx := context.Background()

	for i := range stuck {
		p := stuck[i]

		if p.ReconcileAttempts >= maxReconcileAttempts {
			log.Printf("⚠️ Reconcile budget exhausted for %s, escalating to support", p.ReferenceID)
			reason := checkout.ReasonIncomplete
			if err := store.Transition(ctx, &p, "reconcile", checkout.StateFailed, &reason, false); err != nil {
				log.Printf("🔥 Failed to close out %s: %v", p.ReferenceID, err)
				continue
			}
			notifySupport(p)
			continue
		}

		database.DB.Model(&models.Payment{}).
			Where("id = ?", p.ID).
			Update("reconcile_attempts", gorm.Expr("reconcile_attempts + 1"))

		result, err := orchestrator.HandleCallback(ctx, p.ReferenceID, payments.CallbackData{ReferenceID: p.ReferenceID})
		if err != nil {
			log.Printf("Error reconciling %s: %v", p.ReferenceID, err)
			continue
		}
		log.Printf("Reconciled %s -> %s", p.ReferenceID, result.State)
	}
}

func notifySupport(p models.Payment) {
	supportEmail := config.Config("SUPPORT_EMAIL")
	if supportEmail == "" {
		return
	}
	go notifications.SendEmail(
		"Support",
		supportEmail,
		fmt.Sprintf("Unresolved payment needs review: %s", p.ReferenceID),
		fmt.Sprintf("<h1>Manual Review Needed</h1><p>Payment <b>%s</b> (%s, %.2f %s) could not be confirmed or declined after %d automatic checks. Please verify it in the %s dashboard.</p>", p.ReferenceID, p.Provider, p.Amount, p.Currency, maxReconcileAttempts, p.Provider),
	)
}
