// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package admin implements the back-office commands over categories and
// products. It checks business invariants, translates store errors into
// client-facing errors and drops the public catalog cache after every
// successful mutation. It holds no state of its own.
package admin

import (
	"context"

	"github.com/google/uuid"

	"lenscatalog/internal/models"
	"lenscatalog/internal/store"
)

// CategoryStore is the persistence the category commands need.
type CategoryStore interface {
	List(ctx context.Context, f store.CategoryFilter, page, limit int) ([]models.Category, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, positions []models.SortPosition) error
}

// ProductStore is the persistence the product commands need.
type ProductStore interface {
	List(ctx context.Context, f store.ProductFilter, sort store.ProductSort, page, limit int) ([]models.Product, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) (*models.Product, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ToggleStatus(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ImageInUse(ctx context.Context, key string, except uuid.UUID) (bool, error)
}

// ObjectRemover deletes stored image objects.
type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}

// Invalidator drops cached public responses.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service runs admin commands.
type Service struct {
	categories CategoryStore
	products   ProductStore
	objects    ObjectRemover // nil when object storage is not configured
	catalog    Invalidator   // nil when nothing is cached
}

// New creates an admin service. objects and catalog may be nil.
func New(categories CategoryStore, products ProductStore, objects ObjectRemover, catalog Invalidator) *Service {
	return &Service{
		categories: categories,
		products:   products,
		objects:    objects,
		catalog:    catalog,
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
}

// Page is one page of an admin listing.
type Page[T any] struct {
	Items      []T               `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

func pageParams(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
