// Package models holds the data types shared by the catalog, cart and
// analytics packages and the storage drivers.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `bson:"_id" json:"id"`
	Name        string          `bson:"name" json:"name"`
	Description string          `bson:"description" json:"description"`
	Price       decimal.Decimal `bson:"price" json:"price"`
	Category    string          `bson:"category" json:"category"`
	ImageURL    string          `bson:"image_url" json:"image_url"`
	Stock       int             `bson:"stock" json:"stock"`
}

type CartItem struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	ProductID string    `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// CartLine is a cart item joined with its product and priced.
type CartLine struct {
	CartItem
	Product   Product         `json:"product"`
	ItemTotal decimal.Decimal `json:"item_total"`
}

type CartSnapshot struct {
	UserID     string          `json:"user_id"`
	Items      []CartLine      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Savings    decimal.Decimal `json:"savings"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

type AnalyticsSummary struct {
	UserID            string          `json:"user_id"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
	TotalSaved        decimal.Decimal `json:"total_saved"`
	ItemsPurchased    int             `json:"items_purchased"`
	FrequentlyBought  []string        `json:"frequently_bought"`
	SavingsPercentage int             `json:"savings_percentage"`
}

// ProductFilter narrows a catalog listing. Empty fields match everything.
type ProductFilter struct {
	Search   string
	Category string
}

// Matches reports whether p passes the filter. Search is a case-insensitive
// substring match on name or description; Category is case-insensitive
// equality.
func (f ProductFilter) Matches(p Product) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	return true
}
