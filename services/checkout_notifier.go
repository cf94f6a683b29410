package services

import (
	"fmt"
	"log"

	"github.com/soundrise/phonics_coach/checkout"
	"github.com/soundrise/phonics_coach/database"
	"github.com/soundrise/phonics_coach/models"
	"github.com/soundrise/phonics_coach/notifications"
)

// CheckoutNotifier wires terminal checkout outcomes to email and receipt
// generation. Everything here is fire-and-forget; the checkout state is
// settled before any of it runs.
type CheckoutNotifier struct{}

func (CheckoutNotifier) OnPaid(p *models.Payment) {
	payment := *p
	go GenerateEnrollmentReceipt(payment)

	go func() {
		if payment.RegistrationID == nil {
			return
		}
		var registration models.Registration
		if err := database.DB.Preload("Course").First(&registration, "id = ?", payment.RegistrationID).Error; err != nil {
			log.Printf("Failed to load registration for confirmation email %s: %v", payment.ReferenceID, err)
			return
		}
		notifications.SendEmail(
			registration.FullName,
			registration.Email,
			"Your Enrollment is Confirmed!",
			fmt.Sprintf("<h1>Welcome to SoundRise Phonics!</h1><p>Your payment was successful and your enrollment in %s is confirmed. Your coach will reach out with the class schedule shortly.</p><p>Reference: %s</p>", registration.Course.Name, payment.ReferenceID),
		)
	}()
}

func (CheckoutNotifier) OnFailed(p *models.Payment, reason checkout.Reason) {
	// Only the support-escalation path emails the student; ordinary declines
	// and cancellations surface in the UI with a retry action.
	if reason != checkout.ReasonIncomplete {
		return
	}

	payment := *p
	go func() {
		if payment.RegistrationID == nil {
			return
		}
		var registration models.Registration
		if err := database.DB.First(&registration, "id = ?", payment.RegistrationID).Error; err != nil {
			log.Printf("Failed to load registration for failure email %s: %v", payment.ReferenceID, err)
			return
		}
		notifications.SendEmail(
			registration.FullName,
			registration.Email,
			"We Could Not Confirm Your Payment",
			fmt.Sprintf("<h1>Payment Needs Attention</h1><p>We could not confirm the status of your payment. If money left your account, please contact support and quote reference <b>%s</b> so we can resolve it manually.</p>", payment.ReferenceID),
		)
	}()
}
