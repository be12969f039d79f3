package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vitos/leverage_dashboard/internal/domain"
	"github.com/vitos/leverage_dashboard/internal/usecase"
)

func TestMapTarget_SideAware(t *testing.T) {
	m := usecase.NewTargetPriceMapper()

	// Positive percentage points in the profit direction of the side.
	assert.InDelta(t, 105.00, m.MapTarget(100, domain.SideLong, 5), 1e-9)
	assert.InDelta(t, 95.00, m.MapTarget(100, domain.SideShort, 5), 1e-9)

	// Negative percentage points in the loss direction.
	assert.InDelta(t, 95.00, m.MapTarget(100, domain.SideLong, -5), 1e-9)
	assert.InDelta(t, 105.00, m.MapTarget(100, domain.SideShort, -5), 1e-9)
}

func TestMapTarget_Precision(t *testing.T) {
	m := usecase.NewTargetPriceMapper()

	// Above $1: 2 decimal places
	got := m.MapTarget(65234.50, domain.SideLong, 3.333)
	assert.InDelta(t, 67408.77, got, 0.005)

	// Below $1: 8 decimal places survive
	got = m.MapTarget(0.00012345, domain.SideLong, 10)
	assert.InDelta(t, 0.00013580, got, 5e-9)
}

func TestMapTarget_RoundTrip(t *testing.T) {
	m := usecase.NewTargetPriceMapper()
	v := usecase.NewPositionValuator()

	cases := []struct {
		price float64
		side  domain.Side
		pct   float64
	}{
		{65234.50, domain.SideLong, 5},
		{65234.50, domain.SideShort, 5},
		{100, domain.SideLong, -7.5},
		{0.5, domain.SideShort, 12},
		{0.00034, domain.SideLong, 25},
	}

	for _, c := range cases {
		target := m.MapTarget(c.price, c.side, c.pct)
		val := v.Valuate(c.price, target, c.side, 1, 0)
		// Tolerance covers the display rounding of the target price.
		assert.InDelta(t, c.pct, val.PnlPct, 0.05,
			"price=%f side=%s pct=%f", c.price, c.side, c.pct)
	}
}
