package recommend

import (
	"github.com/shopspring/decimal"

	"smartcart-backend/internal/models"
)

var (
	closePrice = decimal.RequireFromString("0.2")
	nearPrice  = decimal.RequireFromString("0.5")
)

// Similarity scores how alike two products are, between 0 and 0.8. A shared
// category gives 0.5; a price gap under 20% of the larger price adds 0.3,
// under 50% adds 0.1. It is not used for ordering yet.
func Similarity(a, b models.Product) float64 {
	score := 0.0
	if a.Category == b.Category {
		score += 0.5
	}

	scale := decimal.Max(a.Price, b.Price, decimal.NewFromInt(1))
	gap := a.Price.Sub(b.Price).Abs().Div(scale)
	switch {
	case gap.LessThan(closePrice):
		score += 0.3
	case gap.LessThan(nearPrice):
		score += 0.1
	}
	return score
}
