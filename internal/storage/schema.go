package storage

import "strings"

func GetPostgresSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
			category TEXT NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			stock INT NOT NULL CHECK (stock >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			user_id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES carts(user_id) ON DELETE CASCADE,
			product_id TEXT NOT NULL,
			quantity INT NOT NULL CHECK (quantity >= 1),
			added_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, product_id)
		)`,
	}
}

func GetMySQLSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS products (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			category VARCHAR(128) NOT NULL,
			image_url VARCHAR(1024) NOT NULL,
			stock INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			user_id VARCHAR(128) PRIMARY KEY,
			created_at DATETIME(6) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(128) NOT NULL,
			product_id VARCHAR(64) NOT NULL,
			quantity INT NOT NULL,
			added_at DATETIME(6) NOT NULL,
			UNIQUE KEY cart_items_user_product (user_id, product_id),
			FOREIGN KEY (user_id) REFERENCES carts(user_id) ON DELETE CASCADE
		)`,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeContains returns a LIKE pattern matching s as a literal substring.
// Queries using it must declare backslash as the escape character.
func likeContains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
