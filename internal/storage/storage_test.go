package storage

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"smartcart-backend/internal/apperr"
	"smartcart-backend/internal/models"
)

func TestNew(t *testing.T) {
	for _, name := range []string{"memory", "mongo", "postgres", "mysql"} {
		d, err := New(name)
		require.NoError(t, err, name)
		assert.NotNil(t, d)
	}

	_, err := New("supabase")
	assert.Error(t, err)
	assert.Equal(t, []string{"memory", "mongo", "mysql", "postgres"}, Names())
}

func TestMemoryProducts(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDriver()
	products := d.Products()

	require.NoError(t, products.Put(ctx, models.Product{ID: "b", Name: "Bread", Category: "Bakery", Price: decimal.RequireFromString("3.49")}))
	require.NoError(t, products.Put(ctx, models.Product{ID: "a", Name: "Apples", Category: "Fruits", Price: decimal.RequireFromString("4.99")}))
	require.NoError(t, products.Put(ctx, models.Product{ID: "b", Name: "Rye Bread", Category: "Bakery", Price: decimal.RequireFromString("3.99")}))

	all, err := products.List(ctx, models.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID, "insertion order is kept")
	assert.Equal(t, "Rye Bread", all[0].Name, "put replaces in place")

	fruits, err := products.List(ctx, models.ProductFilter{Category: "fruits"})
	require.NoError(t, err)
	require.Len(t, fruits, 1)
	assert.Equal(t, "a", fruits[0].ID)

	_, err = products.Get(ctx, "zzz")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestMemoryCartsUpsertMerges(t *testing.T) {
	ctx := context.Background()
	carts := NewMemoryDriver().Carts()

	ok, err := carts.HasCart(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Now()
	first, err := carts.Upsert(ctx, models.CartItem{ID: "i1", UserID: "u1", ProductID: "p1", Quantity: 2, AddedAt: now})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Quantity)

	merged, err := carts.Upsert(ctx, models.CartItem{ID: "i2", UserID: "u1", ProductID: "p1", Quantity: 3, AddedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "i1", merged.ID)
	assert.Equal(t, 5, merged.Quantity)

	_, err = carts.Upsert(ctx, models.CartItem{ID: "i3", UserID: "u1", ProductID: "p2", Quantity: 1, AddedAt: now})
	require.NoError(t, err)

	items, err := carts.Items(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, "p2", items[1].ProductID)
}

func TestMemoryCartsDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	carts := NewMemoryDriver().Carts()

	n, err := carts.Delete(ctx, "ghost", "p1")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = carts.Upsert(ctx, models.CartItem{ID: "i1", UserID: "u1", ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	_, err = carts.Upsert(ctx, models.CartItem{ID: "i2", UserID: "u1", ProductID: "p2", Quantity: 1})
	require.NoError(t, err)

	n, err = carts.Delete(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, carts.Clear(ctx, "u1"))
	items, err := carts.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)

	ok, err := carts.HasCart(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok, "an emptied cart still exists")
}

func TestMemoryItemsIsACopy(t *testing.T) {
	ctx := context.Background()
	carts := NewMemoryDriver().Carts()
	_, err := carts.Upsert(ctx, models.CartItem{ID: "i1", UserID: "u1", ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	items, err := carts.Items(ctx, "u1")
	require.NoError(t, err)
	items[0].Quantity = 99

	again, err := carts.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, again[0].Quantity)
}

func TestMongoProductFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, mongoProductFilter(models.ProductFilter{}))

	q := mongoProductFilter(models.ProductFilter{Search: "a.b", Category: "Dairy"})
	assert.Equal(t, primitive.Regex{Pattern: `^Dairy$`, Options: "i"}, q["category"])
	or, ok := q["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"name": primitive.Regex{Pattern: `a\.b`, Options: "i"}}, or[0])
}

func TestMongoDecimalRoundTrip(t *testing.T) {
	type doc struct {
		Price decimal.Decimal `bson:"price"`
	}
	reg := mongoRegistry()

	raw, err := bson.MarshalWithRegistry(reg, doc{Price: decimal.RequireFromString("15.99")})
	require.NoError(t, err)

	var out doc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
	assert.True(t, out.Price.Equal(decimal.RequireFromString("15.99")))

	legacy, err := bson.Marshal(bson.M{"price": 4.99})
	require.NoError(t, err)
	require.NoError(t, bson.UnmarshalWithRegistry(reg, legacy, &out))
	assert.True(t, out.Price.Equal(decimal.RequireFromString("4.99")))
}

func TestLikeContainsEscapesWildcards(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"milk", `%milk%`},
		{"_", `%\_%`},
		{"100%", `%100\%%`},
		{`a\b`, `%a\\b%`},
		{`50%_off\`, `%50\%\_off\\%`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, likeContains(tt.in))
		})
	}
}

func TestMySQLBadDSNIsUnavailable(t *testing.T) {
	err := (&MySQLDriver{}).Connect(context.Background(), Options{DSN: "not a dsn"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUnavailable))
}
