package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/pkg/apperror"
)

func testEngine() *Engine {
	return NewEngine(
		decimal.RequireFromString("0.10"),
		decimal.RequireFromString("0.08"),
		decimal.RequireFromString("0.30"),
	)
}

func TestEngine_Compute_AdvanceBreakdown(t *testing.T) {
	e := testEngine()

	q, err := e.Compute(decimal.NewFromInt(20000), models.PaymentTypeAdvance)
	assert.NoError(t, err)

	assert.True(t, q.PlatformCommission.Equal(decimal.NewFromInt(2000)), "commission %s", q.PlatformCommission)
	assert.True(t, q.Tax.Equal(decimal.NewFromInt(1760)), "tax %s", q.Tax)
	assert.True(t, q.TotalPrice.Equal(decimal.NewFromInt(23760)), "total %s", q.TotalPrice)
	assert.True(t, q.AdvanceAmount.Equal(decimal.NewFromInt(7128)), "advance %s", q.AdvanceAmount)
	assert.True(t, q.RemainingAmount.Equal(decimal.NewFromInt(16632)), "remaining %s", q.RemainingAmount)
}

func TestEngine_Compute_TotalIsSumOfParts(t *testing.T) {
	e := testEngine()

	for _, base := range []string{"1", "99.99", "12345.67", "333.33"} {
		q, err := e.Compute(decimal.RequireFromString(base), models.PaymentTypeAdvance)
		assert.NoError(t, err)

		sum := q.BasePrice.Add(q.PlatformCommission).Add(q.Tax)
		assert.True(t, q.TotalPrice.Equal(sum), "base %s: total %s != sum %s", base, q.TotalPrice, sum)

		split := q.AdvanceAmount.Add(q.RemainingAmount)
		assert.True(t, split.Equal(q.TotalPrice), "base %s: advance+remaining %s != total %s", base, split, q.TotalPrice)
		assert.True(t, q.AdvanceAmount.Sign() > 0)
	}
}

func TestEngine_Compute_FullPaymentHasNoSplit(t *testing.T) {
	e := testEngine()

	q, err := e.Compute(decimal.NewFromInt(500), models.PaymentTypeFull)
	assert.NoError(t, err)
	assert.True(t, q.AdvanceAmount.IsZero())
	assert.True(t, q.RemainingAmount.IsZero())
}

func TestEngine_Compute_CashOnDeliveryDueLater(t *testing.T) {
	e := testEngine()

	q, err := e.Compute(decimal.NewFromInt(500), models.PaymentTypeCashOnDelivery)
	assert.NoError(t, err)
	assert.True(t, q.AdvanceAmount.IsZero())
	assert.True(t, q.RemainingAmount.Equal(q.TotalPrice))
}

func TestEngine_Compute_RoundsHalfUpOnce(t *testing.T) {
	e := testEngine()

	// 100.05 * 0.10 = 10.005 -> 10.01 with half-up rounding.
	q, err := e.Compute(decimal.RequireFromString("100.05"), models.PaymentTypeFull)
	assert.NoError(t, err)
	assert.True(t, q.PlatformCommission.Equal(decimal.RequireFromString("10.01")), "commission %s", q.PlatformCommission)
}

func TestEngine_Compute_RejectsNonPositivePrice(t *testing.T) {
	e := testEngine()

	_, err := e.Compute(decimal.Zero, models.PaymentTypeFull)
	assert.ErrorIs(t, err, apperror.ErrInvalidPrice)

	_, err = e.Compute(decimal.NewFromInt(-10), models.PaymentTypeFull)
	assert.ErrorIs(t, err, apperror.ErrInvalidPrice)
}

func TestEngine_Commission_SymmetricOnPayouts(t *testing.T) {
	e := testEngine()

	c := e.Commission(decimal.NewFromInt(21760))
	assert.True(t, c.Equal(decimal.NewFromInt(2176)), "commission %s", c)
}
