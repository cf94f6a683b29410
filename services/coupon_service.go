package services

import (
	"strings"
	"time"

	"github.com/soundrise/phonics_coach/database"
	"github.com/soundrise/phonics_coach/models"
)

// ApplyCoupon computes the discounted price. Pure function: the same inputs
// always produce the same output, so the same math runs for the public
// preview and for the amount actually charged. The server-computed result is
// the source of truth; a client-displayed discount is never trusted.
func ApplyCoupon(price float64, coupon *models.Coupon) (total float64, discount float64) {
	if coupon == nil {
		return price, 0
	}

	switch coupon.DiscountType {
	case "percent":
		discount = price * coupon.DiscountValue / 100
	case "flat":
		discount = coupon.DiscountValue
	default:
		return price, 0
	}

	if discount > price {
		discount = price
	}
	if discount < 0 {
		discount = 0
	}

	return price - discount, discount
}

// LookupCoupon resolves a code against the coupon table. A missing, inactive
// or expired code is not an error; checkout proceeds at full price.
func LookupCoupon(code string) *models.Coupon {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}

	var coupon models.Coupon
	if err := database.DB.Where("code = ? AND is_active = ?", code, true).First(&coupon).Error; err != nil {
		return nil
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(time.Now()) {
		return nil
	}

	return &coupon
}
