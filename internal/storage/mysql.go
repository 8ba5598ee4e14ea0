package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"smartcart-backend/internal/apperr"
	"smartcart-backend/internal/models"
)

type MySQLDriver struct {
	db *sql.DB
}

func (md *MySQLDriver) Connect(ctx context.Context, opts Options) error {
	cfg, err := mysql.ParseDSN(opts.DSN)
	if err != nil {
		return apperr.Unavailable(err, "parse mysql dsn")
	}
	// added_at and created_at are DATETIME columns scanned into time.Time.
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return apperr.Unavailable(err, "open mysql")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return apperr.Unavailable(err, "ping mysql")
	}
	for _, stmt := range GetMySQLSchema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return apperr.Unavailable(err, "apply mysql schema")
		}
	}
	md.db = db
	return nil
}

func (md *MySQLDriver) Close(ctx context.Context) error {
	if md.db == nil {
		return nil
	}
	return md.db.Close()
}

func (md *MySQLDriver) Products() ProductRepository { return &mysqlProducts{db: md.db} }

func (md *MySQLDriver) Carts() CartRepository { return &mysqlCarts{db: md.db} }

type mysqlProducts struct {
	db *sql.DB
}

const mysqlProductColumns = "id, name, description, price, category, image_url, stock"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMySQLProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageURL, &p.Stock)
	return p, err
}

func (mp *mysqlProducts) Get(ctx context.Context, id string) (models.Product, error) {
	row := mp.db.QueryRowContext(ctx, "SELECT "+mysqlProductColumns+" FROM products WHERE id = ?", id)
	p, err := scanMySQLProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, apperr.NotFound("product %s", id)
	}
	if err != nil {
		return p, apperr.Unavailable(err, "get product %s", id)
	}
	return p, nil
}

func (mp *mysqlProducts) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	var conds []string
	var args []interface{}
	if filter.Search != "" {
		pattern := likeContains(strings.ToLower(filter.Search))
		conds = append(conds, `(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')`)
		args = append(args, pattern, pattern)
	}
	if filter.Category != "" {
		conds = append(conds, "LOWER(category) = LOWER(?)")
		args = append(args, filter.Category)
	}
	query := "SELECT " + mysqlProductColumns + " FROM products"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := mp.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Unavailable(err, "list products")
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanMySQLProduct(rows)
		if err != nil {
			return nil, apperr.Unavailable(err, "scan product")
		}
		products = append(products, p)
	}
	return products, apperr.Unavailable(rows.Err(), "list products")
}

func (mp *mysqlProducts) Put(ctx context.Context, p models.Product) error {
	_, err := mp.db.ExecContext(ctx, `INSERT INTO products (id, name, description, price, category, image_url, stock)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), description = VALUES(description), price = VALUES(price),
			category = VALUES(category), image_url = VALUES(image_url), stock = VALUES(stock)`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL, p.Stock)
	return apperr.Unavailable(err, "put product %s", p.ID)
}

type mysqlCarts struct {
	db *sql.DB
}

func (mc *mysqlCarts) HasCart(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := mc.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM carts WHERE user_id = ?)", userID).Scan(&exists)
	return exists, apperr.Unavailable(err, "check cart %s", userID)
}

func (mc *mysqlCarts) Items(ctx context.Context, userID string) ([]models.CartItem, error) {
	rows, err := mc.db.QueryContext(ctx,
		"SELECT id, user_id, product_id, quantity, added_at FROM cart_items WHERE user_id = ? ORDER BY added_at, id", userID)
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

func (mc *mysqlCarts) Upsert(ctx context.Context, item models.CartItem) (stored models.CartItem, err error) {
	tx, err := mc.db.BeginTx(ctx, nil)
	if err != nil {
		return stored, apperr.Unavailable(err, "begin upsert")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = apperr.Unavailable(tx.Commit(), "commit upsert")
	}()

	if _, err = tx.ExecContext(ctx, "INSERT IGNORE INTO carts (user_id, created_at) VALUES (?, ?)", item.UserID, item.AddedAt); err != nil {
		return stored, apperr.Unavailable(err, "create cart %s", item.UserID)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO cart_items (id, user_id, product_id, quantity, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
		item.ID, item.UserID, item.ProductID, item.Quantity, item.AddedAt); err != nil {
		return stored, apperr.Unavailable(err, "upsert cart item")
	}
	err = tx.QueryRowContext(ctx,
		"SELECT id, user_id, product_id, quantity, added_at FROM cart_items WHERE user_id = ? AND product_id = ?",
		item.UserID, item.ProductID,
	).Scan(&stored.ID, &stored.UserID, &stored.ProductID, &stored.Quantity, &stored.AddedAt)
	if err != nil {
		return stored, apperr.Unavailable(err, "read back cart item")
	}
	return stored, nil
}

func (mc *mysqlCarts) Delete(ctx context.Context, userID, productID string) (int64, error) {
	res, err := mc.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return 0, apperr.Unavailable(err, "delete cart item")
	}
	return res.RowsAffected()
}

func (mc *mysqlCarts) Clear(ctx context.Context, userID string) error {
	_, err := mc.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", userID)
	return apperr.Unavailable(err, "clear cart %s", userID)
}
