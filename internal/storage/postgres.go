package storage

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"smartcart-backend/internal/apperr"
	"smartcart-backend/internal/models"
)

type PostgresDriver struct {
	pool *pgxpool.Pool
}

func (pd *PostgresDriver) Connect(ctx context.Context, opts Options) error {
	pool, err := pgxpool.New(ctx, opts.DSN)
	if err != nil {
		return apperr.Unavailable(err, "connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return apperr.Unavailable(err, "ping postgres")
	}
	for _, stmt := range GetPostgresSchema() {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return apperr.Unavailable(err, "apply postgres schema")
		}
	}
	pd.pool = pool
	return nil
}

func (pd *PostgresDriver) Close(ctx context.Context) error {
	if pd.pool != nil {
		pd.pool.Close()
	}
	return nil
}

func (pd *PostgresDriver) Products() ProductRepository { return &postgresProducts{pool: pd.pool} }

func (pd *PostgresDriver) Carts() CartRepository { return &postgresCarts{pool: pd.pool} }

type postgresProducts struct {
	pool *pgxpool.Pool
}

const postgresProductColumns = "id, name, description, price::text, category, image_url, stock"

func scanPostgresProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	var price string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.ImageURL, &p.Stock); err != nil {
		return p, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return p, err
	}
	p.Price = d
	return p, nil
}

func (pp *postgresProducts) Get(ctx context.Context, id string) (models.Product, error) {
	row := pp.pool.QueryRow(ctx, "SELECT "+postgresProductColumns+" FROM products WHERE id = $1", id)
	p, err := scanPostgresProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, apperr.NotFound("product %s", id)
	}
	if err != nil {
		return p, apperr.Unavailable(err, "get product %s", id)
	}
	return p, nil
}

func (pp *postgresProducts) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	var conds []string
	var args []interface{}
	if filter.Search != "" {
		args = append(args, likeContains(filter.Search))
		conds = append(conds, `(name ILIKE $1 ESCAPE '\' OR description ILIKE $1 ESCAPE '\')`)
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, "lower(category) = lower($"+strconv.Itoa(len(args))+")")
	}
	query := "SELECT " + postgresProductColumns + " FROM products"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := pp.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Unavailable(err, "list products")
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanPostgresProduct(rows)
		if err != nil {
			return nil, apperr.Unavailable(err, "scan product")
		}
		products = append(products, p)
	}
	return products, apperr.Unavailable(rows.Err(), "list products")
}

func (pp *postgresProducts) Put(ctx context.Context, p models.Product) error {
	_, err := pp.pool.Exec(ctx, `INSERT INTO products (id, name, description, price, category, image_url, stock)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description,
			price = EXCLUDED.price, category = EXCLUDED.category, image_url = EXCLUDED.image_url, stock = EXCLUDED.stock`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.ImageURL, p.Stock)
	return apperr.Unavailable(err, "put product %s", p.ID)
}

type postgresCarts struct {
	pool *pgxpool.Pool
}

func (pc *postgresCarts) HasCart(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := pc.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM carts WHERE user_id = $1)", userID).Scan(&exists)
	return exists, apperr.Unavailable(err, "check cart %s", userID)
}

func (pc *postgresCarts) Items(ctx context.Context, userID string) ([]models.CartItem, error) {
	rows, err := pc.pool.Query(ctx,
		"SELECT id, user_id, product_id, quantity, added_at FROM cart_items WHERE user_id = $1 ORDER BY added_at, id", userID)
	if err != nil {
		return nil, apperr.Unavailable(err, "list cart %s", userID)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.AddedAt); err != nil {
			return nil, apperr.Unavailable(err, "scan cart item")
		}
		items = append(items, item)
	}
	return items, apperr.Unavailable(rows.Err(), "list cart %s", userID)
}

// Upsert relies on the (user_id, product_id) unique constraint so that the
// merge is a single statement.
func (pc *postgresCarts) Upsert(ctx context.Context, item models.CartItem) (models.CartItem, error) {
	var stored models.CartItem
	err := pgx.BeginFunc(ctx, pc.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			"INSERT INTO carts (user_id, created_at) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING",
			item.UserID, item.AddedAt); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `INSERT INTO cart_items (id, user_id, product_id, quantity, added_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
			RETURNING id, user_id, product_id, quantity, added_at`,
			item.ID, item.UserID, item.ProductID, item.Quantity, item.AddedAt,
		).Scan(&stored.ID, &stored.UserID, &stored.ProductID, &stored.Quantity, &stored.AddedAt)
	})
	return stored, apperr.Unavailable(err, "upsert cart item")
}

func (pc *postgresCarts) Delete(ctx context.Context, userID, productID string) (int64, error) {
	tag, err := pc.pool.Exec(ctx, "DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		return 0, apperr.Unavailable(err, "delete cart item")
	}
	return tag.RowsAffected(), nil
}

func (pc *postgresCarts) Clear(ctx context.Context, userID string) error {
	_, err := pc.pool.Exec(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	return apperr.Unavailable(err, "clear cart %s", userID)
}
