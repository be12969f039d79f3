package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/vitos/leverage_dashboard/internal/domain"
)

type TargetPriceMapper struct{}

func NewTargetPriceMapper() *TargetPriceMapper {
	return &TargetPriceMapper{}
}

// MapTarget converts a signed percentage offset into an absolute target
// price. Positive percentages point in the profit direction of the side,
// so a SHORT take-profit sits below the current price.
//
// Low-denomination pairs (price under $1) are kept at 8 decimal places,
// everything else at 2.
func (m *TargetPriceMapper) MapTarget(currentPrice float64, side domain.Side, signedPct float64) float64 {
	var target float64
	if side == domain.SideShort {
		target = currentPrice * (1 - signedPct/100)
	} else {
		target = currentPrice * (1 + signedPct/100)
	}

	places := int32(2)
	if currentPrice < 1 {
		places = 8
	}
	return decimal.NewFromFloat(target).Round(places).InexactFloat64()
}
