// Package storage is the persistence adapter behind the catalog and the cart
// store. Every backend implements Driver; the backend is picked by name at
// startup so the rest of the service never knows which one is active.
package storage

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"smartcart-backend/internal/models"
)

type Options struct {
	DSN      string
	Database string
}

type ProductRepository interface {
	// Get returns an apperr.ErrNotFound error when id is unknown.
	Get(ctx context.Context, id string) (models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	Put(ctx context.Context, p models.Product) error
}

type CartRepository interface {
	// HasCart reports whether the user ever had an item added. A cart that
	// was emptied still exists.
	HasCart(ctx context.Context, userID string) (bool, error)
	Items(ctx context.Context, userID string) ([]models.CartItem, error)
	// Upsert inserts item, or adds item.Quantity to the existing line for the
	// same user and product. It returns the stored line.
	Upsert(ctx context.Context, item models.CartItem) (models.CartItem, error)
	Delete(ctx context.Context, userID, productID string) (int64, error)
	Clear(ctx context.Context, userID string) error
}

type Driver interface {
	Connect(ctx context.Context, opts Options) error
	Close(ctx context.Context) error
	Products() ProductRepository
	Carts() CartRepository
}

var drivers = map[string]func() Driver{
	"memory":   func() Driver { return NewMemoryDriver() },
	"mongo":    func() Driver { return &MongoDriver{} },
	"postgres": func() Driver { return &PostgresDriver{} },
	"mysql":    func() Driver { return &MySQLDriver{} },
}

// New returns an unconnected driver registered under name.
func New(name string) (Driver, error) {
	factory, ok := drivers[name]
	if !ok {
		return nil, errors.Errorf("unsupported storage driver %q (available: %v)", name, Names())
	}
	return factory(), nil
}

func Names() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
