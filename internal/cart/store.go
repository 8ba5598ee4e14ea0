// Package cart implements the per-user cart: add with merge-on-duplicate,
// remove, clear, and priced snapshots.
//
// Mutations for one user are serialized; reads for one user share a read
// lock; different users never contend. Catalog lookups happen before a lock
// is taken.
package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"smartcart-backend/internal/apperr"
	"smartcart-backend/internal/catalog"
	"smartcart-backend/internal/models"
	"smartcart-backend/internal/storage"
)

// DefaultStorageTimeout bounds each repository call when no other limit is
// configured.
const DefaultStorageTimeout = 5 * time.Second

type Store struct {
	catalog catalog.Provider
	repo    storage.CartRepository
	locks   *userLocks
	log     logrus.FieldLogger
	timeout time.Duration

	now   func() time.Time
	newID func() string
}

type Option func(*Store)

// WithStorageTimeout bounds every repository call made by the store.
func WithStorageTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewStore(products catalog.Provider, repo storage.CartRepository, log logrus.FieldLogger, opts ...Option) *Store {
	s := &Store{
		catalog: products,
		repo:    repo,
		locks:   newUserLocks(),
		log:     log,
		timeout: DefaultStorageTimeout,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add puts quantity units of productID into the user's cart, merging with an
// existing line for the same product. It returns the number of lines in the
// cart afterwards.
//
// Stock is checked against quantity alone; a merged line may exceed stock.
// Only the upsert runs under the user's write lock.
func (s *Store) Add(ctx context.Context, userID, productID string, quantity int) (int, error) {
	if userID == "" {
		return 0, apperr.InvalidRequest("user_id is required")
	}
	if quantity < 1 {
		return 0, apperr.InvalidRequest("quantity must be at least 1, got %d", quantity)
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return 0, err
	}
	if product.Stock < quantity {
		return 0, apperr.InvalidRequest("insufficient stock for %s: requested %d, only %d available",
			product.Name, quantity, product.Stock)
	}

	item := models.CartItem{
		ID:        s.newID(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   s.now().UTC(),
	}
	stored, err := s.upsert(ctx, item)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   stored.Quantity,
		"merged":     stored.ID != item.ID,
	}).Debug("cart item added")

	items, err := s.Items(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *Store) upsert(ctx context.Context, item models.CartItem) (models.CartItem, error) {
	unlock := s.locks.Lock(item.UserID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	stored, err := s.repo.Upsert(ctx, item)
	return stored, apperr.TimedOut(err, "add to cart %s", item.UserID)
}

// Remove drops every line for productID. Removing a product that is not in
// the cart is a no-op; a user without a cart is NotFound.
func (s *Store) Remove(ctx context.Context, userID, productID string) error {
	if err := s.requireCart(ctx, userID); err != nil {
		return err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.repo.Delete(ctx, userID, productID)
	if err != nil {
		return apperr.TimedOut(err, "remove from cart %s", userID)
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "product_id": productID, "removed": n}).Debug("cart item removed")
	return nil
}

// Clear empties the cart but keeps it.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.requireCart(ctx, userID); err != nil {
		return err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return apperr.TimedOut(s.repo.Clear(ctx, userID), "clear cart %s", userID)
}

// requireCart runs outside the lock: a cart, once created, is never deleted.
func (s *Store) requireCart(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ok, err := s.repo.HasCart(ctx, userID)
	if err != nil {
		return apperr.TimedOut(err, "check cart %s", userID)
	}
	if !ok {
		return apperr.NotFound("cart for user %s", userID)
	}
	return nil
}

// Items returns the raw lines of the user's cart in insertion order.
func (s *Store) Items(ctx context.Context, userID string) ([]models.CartItem, error) {
	unlock := s.locks.RLock(userID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	items, err := s.repo.Items(ctx, userID)
	return items, apperr.TimedOut(err, "list cart %s", userID)
}

func (s *Store) product(ctx context.Context, id string) (models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	p, err := s.catalog.Get(ctx, id)
	return p, apperr.TimedOut(err, "get product %s", id)
}

// Read returns the priced cart. Each line total is rounded to cents before
// summing, and the savings and final total are rounded again. An absent cart
// reads as empty.
func (s *Store) Read(ctx context.Context, userID string) (models.CartSnapshot, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return models.CartSnapshot{}, err
	}

	snap := models.CartSnapshot{UserID: userID, Items: []models.CartLine{}}
	total := decimal.Zero
	for _, item := range items {
		product, ok, err := s.resolve(ctx, item)
		if err != nil {
			return models.CartSnapshot{}, err
		}
		if !ok {
			continue
		}
		line := models.CartLine{
			CartItem:  item,
			Product:   product,
			ItemTotal: LineTotal(product.Price, item.Quantity),
		}
		snap.Items = append(snap.Items, line)
		total = total.Add(line.ItemTotal)
	}

	snap.Total = Round2(total)
	snap.Savings = Savings(snap.Total)
	snap.FinalTotal = Round2(snap.Total.Sub(snap.Savings))
	return snap, nil
}

// resolve looks up the product for item. A product missing from the catalog
// is logged and reported as not ok; any other failure is returned.
func (s *Store) resolve(ctx context.Context, item models.CartItem) (models.Product, bool, error) {
	product, err := s.product(ctx, item.ProductID)
	if errors.Is(err, apperr.ErrNotFound) {
		s.log.WithFields(logrus.Fields{
			"user_id":    item.UserID,
			"product_id": item.ProductID,
		}).Warn("cart item references unknown product, skipped")
		return product, false, nil
	}
	if err != nil {
		return product, false, err
	}
	return product, true, nil
}
