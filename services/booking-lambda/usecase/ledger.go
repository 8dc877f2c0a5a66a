package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventhive-services/common/validator"
	"github.com/eventhive-services/services/booking-lambda/models"
	"github.com/eventhive-services/services/booking-lambda/repository"
)

var hundred = decimal.NewFromInt(100)

// ApplyDiscount decides what a promo code does to amount for an event at now.
// It never touches storage; a nil promo means the code does not exist.
func ApplyDiscount(promo *models.PromoCode, eventID int64, amount decimal.Decimal, now time.Time) models.PromoResult {
	rejected := func(reason string) models.PromoResult {
		code := ""
		if promo != nil {
			code = promo.Code
		}
		return rejectedPromo(code, reason, amount)
	}

	switch {
	case promo == nil:
		return rejected(models.PromoReasonNotFound)
	case !promo.IsActive:
		return rejected(models.PromoReasonInactive)
	case promo.UsedCount >= promo.MaxUses:
		return rejected(models.PromoReasonExhausted)
	case promo.ValidUntil != nil && now.After(*promo.ValidUntil):
		return rejected(models.PromoReasonExpired)
	case promo.EventID != nil && *promo.EventID != eventID:
		return rejected(models.PromoReasonWrongEvent)
	}

	var discount decimal.Decimal
	if promo.DiscountPercent > 0 {
		discount = amount.Mul(decimal.NewFromInt(int64(promo.DiscountPercent))).Div(hundred).Round(2)
	} else {
		discount = promo.DiscountAmount
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}
	if !discount.IsPositive() {
		return rejected(models.PromoReasonNoDiscount)
	}

	final := amount.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return models.PromoResult{
		Outcome:     models.PromoApplied,
		Code:        promo.Code,
		Discount:    discount,
		FinalAmount: final,
	}
}

// Ledger validates and consumes promo codes inside the booking transaction.
type Ledger struct {
	now func() time.Time
}

func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{now: now}
}

// Redeem looks the code up under a row lock and consumes one use when it
// discounts. Rejections come back as a PromoResult, not an error; only
// storage failures are returned as errors.
func (l *Ledger) Redeem(ctx context.Context, tx repository.Tx, code string, eventID int64, amount decimal.Decimal) (models.PromoResult, error) {
	code = validator.NormalizePromoCode(code)
	if code == "" {
		return models.PromoResult{Outcome: models.PromoNone, Discount: decimal.Zero, FinalAmount: amount}, nil
	}
	if !validator.IsValidPromoCode(code) {
		return rejectedPromo(code, models.PromoReasonNotFound, amount), nil
	}

	promo, err := tx.LockPromoCode(ctx, code)
	if err != nil {
		return models.PromoResult{}, err
	}

	result := ApplyDiscount(promo, eventID, amount, l.now())
	if promo == nil {
		result.Code = code
	}
	if result.Outcome != models.PromoApplied {
		return result, nil
	}

	consumed, err := tx.ConsumePromoCode(ctx, promo.ID)
	if err != nil {
		return models.PromoResult{}, err
	}
	if !consumed {
		// The row is locked, so this only happens if the cap moved under us.
		return rejectedPromo(promo.Code, models.PromoReasonExhausted, amount), nil
	}
	return result, nil
}

func rejectedPromo(code, reason string, amount decimal.Decimal) models.PromoResult {
	return models.PromoResult{
		Outcome:     models.PromoInvalid,
		Reason:      reason,
		Code:        code,
		Discount:    decimal.Zero,
		FinalAmount: amount,
	}
}
