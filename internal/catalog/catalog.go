// Package catalog is the read-only product reference data. Two providers
// exist: Static, backed by process memory, and Stored, backed by a storage
// driver. Callers depend only on Provider.
package catalog

import (
	"context"
	"sort"
	"time"

	"smartcart-backend/internal/apperr"
	"smartcart-backend/internal/models"
	"smartcart-backend/internal/storage"
)

type Provider interface {
	// Get returns an apperr.ErrNotFound error for an unknown id.
	Get(ctx context.Context, id string) (models.Product, error)
	// List returns matching products in catalog order.
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
}

// Static serves a fixed product list.
type Static struct {
	repo storage.ProductRepository
}

func NewStatic(products []models.Product) *Static {
	repo := storage.NewMemoryDriver().Products()
	for _, p := range products {
		// the memory repository never fails
		_ = repo.Put(context.Background(), p)
	}
	return &Static{repo: repo}
}

func (s *Static) Get(ctx context.Context, id string) (models.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Static) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	return s.repo.List(ctx, filter)
}

// Stored reads products from a storage driver. Each call is bounded by
// timeout when it is positive.
type Stored struct {
	repo    storage.ProductRepository
	timeout time.Duration
}

func NewStored(repo storage.ProductRepository, timeout time.Duration) *Stored {
	return &Stored{repo: repo, timeout: timeout}
}

func (s *Stored) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Stored) Get(ctx context.Context, id string) (models.Product, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	p, err := s.repo.Get(ctx, id)
	return p, apperr.TimedOut(err, "get product %s", id)
}

func (s *Stored) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	products, err := s.repo.List(ctx, filter)
	return products, apperr.TimedOut(err, "list products")
}

// Seed writes products into repo, replacing existing rows with the same id.
func Seed(ctx context.Context, repo storage.ProductRepository, products []models.Product) error {
	for _, p := range products {
		if err := repo.Put(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Categories returns the distinct category names in p, sorted.
func Categories(ctx context.Context, p Provider) ([]string, error) {
	products, err := p.List(ctx, models.ProductFilter{})
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	categories := []string{}
	for _, product := range products {
		if !seen[product.Category] {
			seen[product.Category] = true
			categories = append(categories, product.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}
