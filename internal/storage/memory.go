package storage

import (
	"context"
	"sync"

	"smartcart-backend/internal/apperr"
	"smartcart-backend/internal/models"
)

// MemoryDriver keeps everything in process memory. Products keep their
// insertion order, which is the catalog iteration order.
type MemoryDriver struct {
	products *memoryProducts
	carts    *memoryCarts
}

func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{
		products: &memoryProducts{index: map[string]int{}},
		carts:    &memoryCarts{items: map[string][]models.CartItem{}},
	}
}

func (md *MemoryDriver) Connect(ctx context.Context, opts Options) error { return nil }

func (md *MemoryDriver) Close(ctx context.Context) error { return nil }

func (md *MemoryDriver) Products() ProductRepository { return md.products }

func (md *MemoryDriver) Carts() CartRepository { return md.carts }

type memoryProducts struct {
	mu    sync.RWMutex
	list  []models.Product
	index map[string]int
}

func (mp *memoryProducts) Get(ctx context.Context, id string) (models.Product, error) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	i, ok := mp.index[id]
	if !ok {
		return models.Product{}, apperr.NotFound("product %s", id)
	}
	return mp.list[i], nil
}

func (mp *memoryProducts) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	out := make([]models.Product, 0, len(mp.list))
	for _, p := range mp.list {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (mp *memoryProducts) Put(ctx context.Context, p models.Product) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if i, ok := mp.index[p.ID]; ok {
		mp.list[i] = p
		return nil
	}
	mp.index[p.ID] = len(mp.list)
	mp.list = append(mp.list, p)
	return nil
}

type memoryCarts struct {
	mu    sync.RWMutex
	items map[string][]models.CartItem
}

func (mc *memoryCarts) HasCart(ctx context.Context, userID string) (bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	_, ok := mc.items[userID]
	return ok, nil
}

func (mc *memoryCarts) Items(ctx context.Context, userID string) ([]models.CartItem, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	items := mc.items[userID]
	out := make([]models.CartItem, len(items))
	copy(out, items)
	return out, nil
}

func (mc *memoryCarts) Upsert(ctx context.Context, item models.CartItem) (models.CartItem, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	items := mc.items[item.UserID]
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			return items[i], nil
		}
	}
	mc.items[item.UserID] = append(items, item)
	return item, nil
}

func (mc *memoryCarts) Delete(ctx context.Context, userID, productID string) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	items, ok := mc.items[userID]
	if !ok {
		return 0, nil
	}
	kept := items[:0:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	mc.items[userID] = kept
	return int64(len(items) - len(kept)), nil
}

func (mc *memoryCarts) Clear(ctx context.Context, userID string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, ok := mc.items[userID]; ok {
		mc.items[userID] = []models.CartItem{}
	}
	return nil
}
