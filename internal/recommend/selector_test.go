package recommend

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcart-backend/internal/apperr"
	"smartcart-backend/internal/catalog"
	"smartcart-backend/internal/models"
)

func product(id, category, price string) models.Product {
	return models.Product{ID: id, Name: "product " + id, Category: category, Price: decimal.RequireFromString(price)}
}

func ids(products []models.Product) []string {
	out := []string{}
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestSelectorExcludesPricierOtherCategory(t *testing.T) {
	sel := NewSelector(catalog.NewStatic([]models.Product{
		product("P1", "Fruits", "4.99"),
		product("P2", "Bakery", "7.99"),
	}))

	got, err := sel.Recommend(context.Background(), "P1", DefaultLimit)
	require.NoError(t, err)
	assert.NotContains(t, ids(got), "P2", "7.99 is not below 4.99*1.2 and the category differs")
	assert.Empty(t, got)
}

func TestSelectorIncludesSameCategoryRegardlessOfPrice(t *testing.T) {
	sel := NewSelector(catalog.NewStatic([]models.Product{
		product("P1", "Fruits", "4.99"),
		product("P2", "Fruits", "7.99"),
	}))

	got, err := sel.Recommend(context.Background(), "P1", DefaultLimit)
	require.NoError(t, err)
	assert.Equal(t, []string{"P2"}, ids(got))
}

func TestSelectorOnDemoCatalog(t *testing.T) {
	sel := NewSelector(catalog.NewStatic(catalog.DemoProducts()))
	ctx := context.Background()

	tests := []struct {
		name  string
		id    string
		limit int
		want  []string
	}{
		// Apples 4.99: threshold 5.988, so Almond Milk at 5.99 just misses
		{"apples default limit", "p1", 0, []string{"p2", "p6", "p8"}},
		{"apples limit 1", "p1", 1, []string{"p2"}},
		{"apples limit 10", "p1", 10, []string{"p2", "p6", "p8"}},
		// Salmon 15.99: everything is cheaper
		{"salmon", "p7", 3, []string{"p1", "p2", "p3"}},
		// Bread 3.49: threshold 4.188
		{"bread", "p2", 5, []string{"p8"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sel.Recommend(ctx, tt.id, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
			assert.NotContains(t, ids(got), tt.id)
		})
	}
}

func TestSelectorUnknownProduct(t *testing.T) {
	sel := NewSelector(catalog.NewStatic(catalog.DemoProducts()))
	_, err := sel.Recommend(context.Background(), "nope", 3)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Product
		want float64
	}{
		{"same category close price", product("a", "Dairy", "5.99"), product("b", "Dairy", "6.49"), 0.8},
		{"same category far price", product("a", "Fruits", "4.99"), product("b", "Fruits", "15.99"), 0.5},
		{"other category near price", product("a", "Fruits", "4.99"), product("b", "Grains", "8.99"), 0.1},
		{"other category far price", product("a", "Bakery", "3.49"), product("b", "Seafood", "15.99"), 0},
		{"exactly 20 percent is not close", product("a", "X", "8"), product("b", "Y", "10"), 0.1},
		{"sub-unit prices scale by one", product("a", "X", "0.10"), product("b", "Y", "0.20"), 0.3},
		{"both free", product("a", "X", "0"), product("b", "X", "0"), 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, Similarity(tt.b, tt.a), 1e-9)
		})
	}
}
