package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type ProductImage struct {
	ID      int64  `json:"id"`
	Image   string `json:"image"`
	AltText string `json:"alt_text,omitempty"`
}

// Product is the full catalog representation served on detail pages.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Category       *Category       `json:"category,omitempty"`
	Image          string          `json:"image,omitempty"`
	Images         []ProductImage  `json:"images"`
	Stock          int             `json:"stock"`
	AvailableSizes string          `json:"available_sizes,omitempty"`
	Colors         string          `json:"colors,omitempty"`
	Featured       bool            `json:"featured"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProductSummary is the compact shape used in listings and embedded in
// order items. Category carries just the name.
type ProductSummary struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Category string          `json:"category,omitempty"`
	Featured bool            `json:"featured"`
	Stock    int             `json:"stock"`
}
