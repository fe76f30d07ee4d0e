package catalog

import "time"

// Product is a storefront item. Price is in cents and never negative.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category groups products. Slugs are unique and URL-safe.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Attachment links a product to a category.
type Attachment struct {
	ProductID  int64 `json:"product_id"`
	CategoryID int64 `json:"category_id"`
}
