package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
)

// Engine computes every money split of the marketplace from configured
// rates. It is a pure calculator: no side effects, no persistence.
type Engine struct {
	commissionRate decimal.Decimal
	taxRate        decimal.Decimal
	advanceRate    decimal.Decimal
}

func NewEngine(commissionRate, taxRate, advanceRate decimal.Decimal) *Engine {
	return &Engine{
		commissionRate: commissionRate,
		taxRate:        taxRate,
		advanceRate:    advanceRate,
	}
}

// Quote is the full price breakdown of a booking at creation time.
// Invariants: TotalPrice = BasePrice + PlatformCommission + Tax, and for
// advance bookings AdvanceAmount + RemainingAmount = TotalPrice.
type Quote struct {
	BasePrice          decimal.Decimal `json:"base_price"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	Tax                decimal.Decimal `json:"tax"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	AdvanceAmount      decimal.Decimal `json:"advance_amount"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
}

// roundMoney rounds half-up to the smallest currency unit (paise).
// Every quoted field is rounded exactly once and stored; totals are sums
// of already-rounded parts, never re-derived.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Compute builds the price breakdown for a base price and payment type.
// Commission applies to the base price, tax to base plus commission, and
// the advance share to the rounded total.
func (e *Engine) Compute(basePrice decimal.Decimal, paymentType string) (*Quote, error) {
	if basePrice.Sign() <= 0 {
		return nil, apperror.ErrInvalidPrice
	}

	basePrice = roundMoney(basePrice)
	commission := roundMoney(basePrice.Mul(e.commissionRate))
	tax := roundMoney(basePrice.Add(commission).Mul(e.taxRate))
	total := basePrice.Add(commission).Add(tax)

	q := &Quote{
		BasePrice:          basePrice,
		PlatformCommission: commission,
		Tax:                tax,
		TotalPrice:         total,
		AdvanceAmount:      decimal.Zero,
		RemainingAmount:    decimal.Zero,
	}

	switch paymentType {
	case models.PaymentTypeAdvance:
		q.AdvanceAmount = roundMoney(total.Mul(e.advanceRate))
		q.RemainingAmount = total.Sub(q.AdvanceAmount)
	case models.PaymentTypeCashOnDelivery:
		q.RemainingAmount = total
	}

	return q, nil
}

// Commission applies the platform commission rate to an arbitrary amount.
// Withdrawal payouts use it for the symmetric deduction.
func (e *Engine) Commission(amount decimal.Decimal) decimal.Decimal {
	return roundMoney(amount.Mul(e.commissionRate))
}
