package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcart-backend/internal/apperr"
	"smartcart-backend/internal/models"
	"smartcart-backend/internal/storage"
)

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()
	p := NewStatic(DemoProducts())

	product, err := p.Get(ctx, "p7")
	require.NoError(t, err)
	assert.Equal(t, "Salmon Fillet", product.Name)

	_, err = p.Get(ctx, "p99")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	tests := []struct {
		name   string
		filter models.ProductFilter
		ids    []string
	}{
		{"all", models.ProductFilter{}, []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}},
		{"search name", models.ProductFilter{Search: "bread"}, []string{"p2"}},
		{"search description", models.ProductFilter{Search: "organic"}, []string{"p1", "p5", "p8"}},
		{"category", models.ProductFilter{Category: "dairy"}, []string{"p3", "p4"}},
		{"search and category", models.ProductFilter{Search: "organic", Category: "Fruits"}, []string{"p1"}},
		{"nothing", models.ProductFilter{Category: "Toys"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := p.List(ctx, tt.filter)
			require.NoError(t, err)
			ids := []string{}
			for _, product := range products {
				ids = append(ids, product.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestStoredProviderAfterSeed(t *testing.T) {
	ctx := context.Background()
	driver := storage.NewMemoryDriver()
	require.NoError(t, Seed(ctx, driver.Products(), DemoProducts()))

	p := NewStored(driver.Products(), time.Second)
	products, err := p.List(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 8)

	product, err := p.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Fruits", product.Category)
}

func TestCategories(t *testing.T) {
	categories, err := Categories(context.Background(), NewStatic(DemoProducts()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bakery", "Dairy", "Fruits", "Grains", "Seafood", "Vegetables"}, categories)
}

type stalledProducts struct {
	storage.ProductRepository
}

func (stalledProducts) Get(ctx context.Context, id string) (models.Product, error) {
	<-ctx.Done()
	return models.Product{}, ctx.Err()
}

func TestStoredProviderBoundsCalls(t *testing.T) {
	p := NewStored(stalledProducts{storage.NewMemoryDriver().Products()}, 20*time.Millisecond)

	_, err := p.Get(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUnavailable))
}
