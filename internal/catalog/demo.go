package catalog

import (
	"github.com/shopspring/decimal"

	"smartcart-backend/internal/models"
)

// DemoProducts is the grocery catalog served when no store is configured.
func DemoProducts() []models.Product {
	return []models.Product{
		{ID: "p1", Name: "Organic Apples", Description: "Fresh organic apples from local farms", Price: decimal.RequireFromString("4.99"), Category: "Fruits", ImageURL: "https://images.unsplash.com/photo-1568702846914-96b305d2aaeb?w=400", Stock: 50},
		{ID: "p2", Name: "Whole Wheat Bread", Description: "Freshly baked whole wheat bread", Price: decimal.RequireFromString("3.49"), Category: "Bakery", ImageURL: "https://images.unsplash.com/photo-1509440159596-0249088772ff?w=400", Stock: 30},
		{ID: "p3", Name: "Almond Milk", Description: "Unsweetened almond milk, dairy-free", Price: decimal.RequireFromString("5.99"), Category: "Dairy", ImageURL: "https://images.unsplash.com/photo-1563636619-e9143da7973b?w=400", Stock: 40},
		{ID: "p4", Name: "Greek Yogurt", Description: "Low-fat Greek yogurt with probiotics", Price: decimal.RequireFromString("6.49"), Category: "Dairy", ImageURL: "https://images.unsplash.com/photo-1488477181946-6428a0291777?w=400", Stock: 25},
		{ID: "p5", Name: "Quinoa", Description: "Organic quinoa, high in protein", Price: decimal.RequireFromString("8.99"), Category: "Grains", ImageURL: "https://images.unsplash.com/photo-1586201375761-83865001e31c?w=400", Stock: 35},
		{ID: "p6", Name: "Avocados", Description: "Ripe avocados, perfect for guacamole", Price: decimal.RequireFromString("7.99"), Category: "Fruits", ImageURL: "https://images.unsplash.com/photo-1523049673857-eb18f1d7b578?w=400", Stock: 45},
		{ID: "p7", Name: "Salmon Fillet", Description: "Fresh Atlantic salmon, rich in Omega-3", Price: decimal.RequireFromString("15.99"), Category: "Seafood", ImageURL: "https://images.unsplash.com/photo-1519708227418-c8fd9a32b7a2?w=400", Stock: 20},
		{ID: "p8", Name: "Spinach", Description: "Fresh organic spinach leaves", Price: decimal.RequireFromString("3.99"), Category: "Vegetables", ImageURL: "https://images.unsplash.com/photo-1576045057995-568f588f82fb?w=400", Stock: 60},
	}
}
