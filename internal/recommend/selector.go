// Package recommend suggests products related to a given one. The rule-based
// Selector always works; the AI client is consulted first when configured and
// its answer is used only when it is confident enough.
package recommend

import (
	"context"

	"github.com/shopspring/decimal"

	"smartcart-backend/internal/catalog"
	"smartcart-backend/internal/models"
)

const DefaultLimit = 3

var priceHeadroom = decimal.RequireFromString("1.2")

type Selector struct {
	catalog catalog.Provider
}

func NewSelector(products catalog.Provider) *Selector {
	return &Selector{catalog: products}
}

// Qualifies reports whether candidate is worth suggesting next to target: it
// shares the category or costs less than 120% of the target price.
func Qualifies(target, candidate models.Product) bool {
	if candidate.Category == target.Category {
		return true
	}
	return candidate.Price.LessThan(target.Price.Mul(priceHeadroom))
}

// Recommend returns up to limit qualifying products in catalog order.
// Unknown productID is NotFound.
func (s *Selector) Recommend(ctx context.Context, productID string, limit int) ([]models.Product, error) {
	target, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.Select(ctx, target, limit)
}

// Select is Recommend for an already resolved target. Candidates are not
// scored; the first qualifying ones win.
func (s *Selector) Select(ctx context.Context, target models.Product, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	candidates, err := s.catalog.List(ctx, models.ProductFilter{})
	if err != nil {
		return nil, err
	}
	picked := []models.Product{}
	for _, c := range candidates {
		if len(picked) == limit {
			break
		}
		if c.ID != target.ID && Qualifies(target, c) {
			picked = append(picked, c)
		}
	}
	return picked, nil
}
