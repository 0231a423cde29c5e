// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Category groups products for browsing. Categories are ordered manually
// by SortOrder and hidden from the storefront when IsActive is false.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	SortOrder int       `json:"sortOrder"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// ProductCount is the number of non-deleted products in the category.
	// Computed at read time, never stored.
	ProductCount int `json:"productCount"`
}

// Summary returns the compact form embedded in product payloads.
func (c *Category) Summary() *CategorySummary {
	return &CategorySummary{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

// CategorySummary is the category reference embedded in products.
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// MaxSortOrder is the largest position the sort_order column can hold.
const MaxSortOrder = math.MaxInt32

// SortPosition assigns a category its place in the manual ordering.
type SortPosition struct {
	ID        uuid.UUID `json:"id" validate:"required"`
	SortOrder int       `json:"sortOrder" validate:"gte=0,lte=2147483647"`
}
