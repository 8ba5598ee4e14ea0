// Package analytics derives spending summaries from the current cart.
package analytics

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"smartcart-backend/internal/apperr"
	"smartcart-backend/internal/cart"
	"smartcart-backend/internal/catalog"
	"smartcart-backend/internal/models"
)

const topCategories = 3

// CartReader is the part of the cart store the aggregator needs.
type CartReader interface {
	Items(ctx context.Context, userID string) ([]models.CartItem, error)
}

type Aggregator struct {
	carts   CartReader
	catalog catalog.Provider
	log     logrus.FieldLogger
}

func NewAggregator(carts CartReader, products catalog.Provider, log logrus.FieldLogger) *Aggregator {
	return &Aggregator{carts: carts, catalog: products, log: log}
}

type categoryCount struct {
	name  string
	count int
}

// Summarize computes the user's summary. Items whose product is missing from
// the catalog count toward ItemsPurchased only.
func (a *Aggregator) Summarize(ctx context.Context, userID string) (models.AnalyticsSummary, error) {
	items, err := a.carts.Items(ctx, userID)
	if err != nil {
		return models.AnalyticsSummary{}, err
	}

	spent := decimal.Zero
	purchased := 0
	var tally []categoryCount
	position := map[string]int{}

	for _, item := range items {
		purchased += item.Quantity

		product, err := a.catalog.Get(ctx, item.ProductID)
		if errors.Is(err, apperr.ErrNotFound) {
			a.log.WithFields(logrus.Fields{"user_id": userID, "product_id": item.ProductID}).
				Warn("analytics skipped unknown product")
			continue
		}
		if err != nil {
			return models.AnalyticsSummary{}, err
		}

		spent = spent.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		if i, ok := position[product.Category]; ok {
			tally[i].count++
		} else {
			position[product.Category] = len(tally)
			tally = append(tally, categoryCount{name: product.Category, count: 1})
		}
	}

	return models.AnalyticsSummary{
		UserID:            userID,
		TotalSpent:        cart.Round2(spent),
		TotalSaved:        cart.Savings(spent),
		ItemsPurchased:    purchased,
		FrequentlyBought:  frequentCategories(tally, topCategories),
		SavingsPercentage: cart.SavingsPercentage,
	}, nil
}

// frequentCategories orders categories by descending count, keeping
// first-seen order among equal counts, and returns at most n names.
func frequentCategories(tally []categoryCount, n int) []string {
	sorted := make([]categoryCount, len(tally))
	copy(sorted, tally)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].count > sorted[j].count })

	names := []string{}
	for i := 0; i < len(sorted) && i < n; i++ {
		names = append(names, sorted[i].name)
	}
	return names
}
