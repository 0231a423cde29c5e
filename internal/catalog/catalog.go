// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog serves the public, read-only view of the catalog. Every
// query is pinned to live, active products in active categories no matter
// which filters the caller supplies. Results may be cached in Valkey under
// generation-scoped keys; concurrent misses for the same query share one
// database round-trip.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"lenscatalog/internal/apperr"
	"lenscatalog/internal/models"
	"lenscatalog/internal/store"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// sharedQueryTimeout bounds a query that outlives the caller who started it.
	sharedQueryTimeout = 10 * time.Second
)

// CategoryLister reads categories.
type CategoryLister interface {
	List(ctx context.Context, f store.CategoryFilter, page, limit int) ([]models.Category, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// ProductLister reads products.
type ProductLister interface {
	List(ctx context.Context, f store.ProductFilter, sort store.ProductSort, page, limit int) ([]models.Product, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Cache stores JSON-encodable query results. InvalidateAll must advance the
// value reported by Generation.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
	Generation(ctx context.Context) (int64, bool)
	InvalidateAll(ctx context.Context)
}

// Service answers public catalog queries.
type Service struct {
	categories CategoryLister
	products   ProductLister
	cache      Cache // nil disables caching
	group      singleflight.Group

	// epoch separates in-flight queries started before an Invalidate from
	// those started after it.
	epoch atomic.Uint64
}

// New creates a catalog service. cache may be nil.
func New(categories CategoryLister, products ProductLister, cache Cache) *Service {
	return &Service{categories: categories, products: products, cache: cache}
}

// PublicCategory is the storefront view of a category.
type PublicCategory struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	SortOrder int       `json:"sortOrder"`
}

// ProductQuery holds the caller-supplied listing parameters.
type ProductQuery struct {
	Page       int
	Limit      int
	CategoryID *uuid.UUID
	Search     string
	Color      string
	SortBy     string // createdAt, updatedAt, name, color or size
	SortOrder  string // asc or desc
}

// ProductPage is one page of the public product listing.
type ProductPage struct {
	Products   []models.Product  `json:"products"`
	Pagination models.Pagination `json:"pagination"`
}

// normalize applies defaults and rejects unknown sort parameters.
func (q ProductQuery) normalize() (ProductQuery, store.ProductSort, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Color = strings.TrimSpace(q.Color)

	if q.SortBy == "" {
		q.SortBy = store.DefaultSort.Field
	}
	if _, ok := store.SortFields[q.SortBy]; !ok {
		return q, store.ProductSort{}, apperr.Validation("Invalid sortBy %q", q.SortBy)
	}
	switch strings.ToLower(q.SortOrder) {
	case "", "desc":
		q.SortOrder = "desc"
	case "asc":
		q.SortOrder = "asc"
	default:
		return q, store.ProductSort{}, apperr.Validation("Invalid sortOrder %q", q.SortOrder)
	}
	return q, store.ProductSort{Field: q.SortBy, Desc: q.SortOrder == "desc"}, nil
}

// cacheKey renders the normalized query as a stable cache key.
func (q ProductQuery) cacheKey() string {
	category := ""
	if q.CategoryID != nil {
		category = q.CategoryID.String()
	}
	return fmt.Sprintf("products:p=%d:l=%d:c=%s:s=%q:col=%q:sb=%s:so=%s",
		q.Page, q.Limit, category, strings.ToLower(q.Search), strings.ToLower(q.Color), q.SortBy, q.SortOrder)
}

// cacheScope reports the cache generation for this request. ok is false
// when there is no cache or it cannot be read.
func (s *Service) cacheScope(ctx context.Context) (gen int64, ok bool) {
	if s.cache == nil {
		return 0, false
	}
	return s.cache.Generation(ctx)
}

// shared runs fn once per key across concurrent callers. The query runs
// detached from any single caller's cancellation; each caller still stops
// waiting when its own context ends.
func (s *Service) shared(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	flight := fmt.Sprintf("e%d:%s", s.epoch.Load(), key)
	ch := s.group.DoChan(flight, func() (any, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedQueryTimeout)
		defer cancel()
		return fn(qctx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			slog.Debug("catalog query shared", "key", key)
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ListCategories returns active categories in manual order.
func (s *Service) ListCategories(ctx context.Context) ([]PublicCategory, error) {
	gen, cacheOK := s.cacheScope(ctx)
	key := fmt.Sprintf("g%d:categories", gen)

	var cached []PublicCategory
	if cacheOK && s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	v, err := s.shared(ctx, key, func(ctx context.Context) (any, error) {
		cats, _, err := s.categories.List(ctx, store.CategoryFilter{ActiveOnly: true}, 1, 0)
		if err != nil {
			return nil, err
		}
		out := make([]PublicCategory, 0, len(cats))
		for _, c := range cats {
			out = append(out, PublicCategory{ID: c.ID, Name: c.Name, Slug: c.Slug, SortOrder: c.SortOrder})
		}
		if cacheOK {
			s.cache.Set(ctx, key, out)
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list public categories: %w", err)
	}
	return v.([]PublicCategory), nil
}

// ListProducts returns one page of storefront products.
func (s *Service) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	q, sort, err := q.normalize()
	if err != nil {
		return nil, err
	}
	gen, cacheOK := s.cacheScope(ctx)
	key := fmt.Sprintf("g%d:%s", gen, q.cacheKey())

	var cached ProductPage
	if cacheOK && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	v, err := s.shared(ctx, key, func(ctx context.Context) (any, error) {
		filter := store.ProductFilter{
			CategoryID:     q.CategoryID,
			Search:         q.Search,
			SearchColor:    true,
			Color:          q.Color,
			Status:         models.StatusActive,
			ActiveCategory: true,
		}
		items, total, err := s.products.List(ctx, filter, sort, q.Page, q.Limit)
		if err != nil {
			return nil, err
		}
		page := &ProductPage{
			Products:   items,
			Pagination: models.NewPagination(q.Page, q.Limit, total),
		}
		if cacheOK {
			s.cache.Set(ctx, key, page)
		}
		return page, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list public products: %w", err)
	}
	return v.(*ProductPage), nil
}

// GetProduct returns a storefront product. Hidden, archived or
// uncategorized products and products of inactive categories are
// reported as not found.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get public product: %w", err)
	}
	if p == nil || p.IsDeleted() || p.Status != models.StatusActive || p.Category == nil {
		return nil, apperr.NotFound("Product not found")
	}

	cat, err := s.categories.FindByID(ctx, p.Category.ID)
	if err != nil {
		return nil, fmt.Errorf("get public product: %w", err)
	}
	if cat == nil || !cat.IsActive {
		return nil, apperr.NotFound("Product not found")
	}
	return p, nil
}

// Invalidate drops every cached catalog response. Called after any admin
// mutation. Queries already in flight may finish, but their results are
// neither shared with later callers nor readable from the cache.
func (s *Service) Invalidate(ctx context.Context) {
	s.epoch.Add(1)
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}
}
