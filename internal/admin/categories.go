// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"lenscatalog/internal/apperr"
	"lenscatalog/internal/models"
	"lenscatalog/internal/slug"
	"lenscatalog/internal/store"
)

const (
	maxCategoryNameLen = 100

	defaultCategoryLimit = 50
	maxCategoryLimit     = 100
)

// CategoryInput is the payload for creating a category. IsActive defaults
// to true when omitted.
type CategoryInput struct {
	Name     string
	IsActive *bool
}

// CategoryPatch is a partial category update. Nil fields are left unchanged.
type CategoryPatch struct {
	Name     *string
	IsActive *bool
}

func cleanCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("Category name is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return "", apperr.Validation("Category name is too long (max %d characters)", maxCategoryNameLen)
	}
	if slug.Generate(name) == "" {
		return "", apperr.Validation("Category name must contain letters or digits")
	}
	return name, nil
}

// ListCategories returns categories in manual order with live product
// counts. A zero limit falls back to the default page size.
func (s *Service) ListCategories(ctx context.Context, search string, page, limit int) (*Page[models.Category], error) {
	page, limit = pageParams(page, limit, defaultCategoryLimit, maxCategoryLimit)
	items, total, err := s.categories.List(ctx, store.CategoryFilter{Search: strings.TrimSpace(search)}, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return &Page[models.Category]{Items: items, Pagination: models.NewPagination(page, limit, total)}, nil
}

// GetCategory returns a category by id.
func (s *Service) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFound("Category not found")
	}
	return c, nil
}

// CreateCategory adds a category at the end of the manual ordering.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name, err := cleanCategoryName(in.Name)
	if err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	c, err := s.categories.Create(ctx, &models.Category{
		Name:     name,
		Slug:     slug.Generate(name),
		IsActive: active,
	})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx)
	return c, nil
}

// UpdateCategory applies a partial update. A new name re-derives the slug.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*models.Category, error) {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name, err := cleanCategoryName(*patch.Name)
		if err != nil {
			return nil, err
		}
		c.Name = name
		c.Slug = slug.Generate(name)
	}
	if patch.IsActive != nil {
		c.IsActive = *patch.IsActive
	}

	if err := s.categories.Update(ctx, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Category not found")
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	s.invalidate(ctx)
	return s.GetCategory(ctx, id)
}

// DeleteCategory hard-deletes a category that has no live products.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if c.ProductCount > 0 {
		return inUse(c.ProductCount)
	}

	err = s.categories.Delete(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Category not found")
	case errors.Is(err, store.ErrCategoryInUse):
		// A product was added after the read above.
		count := 1
		if c, _ := s.categories.FindByID(ctx, id); c != nil && c.ProductCount > 0 {
			count = c.ProductCount
		}
		return inUse(count)
	default:
		return fmt.Errorf("delete category: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func inUse(count int) error {
	return apperr.Conflict("Cannot delete category with %d products", count)
}

// ReorderCategories assigns every given sort position in one batch and
// returns the full list in its new order.
func (s *Service) ReorderCategories(ctx context.Context, positions []models.SortPosition) ([]models.Category, error) {
	if len(positions) == 0 {
		return nil, apperr.Validation("Category orders are required")
	}
	seen := make(map[uuid.UUID]bool, len(positions))
	for _, pos := range positions {
		if pos.ID == uuid.Nil {
			return nil, apperr.Validation("Category id is required")
		}
		if pos.SortOrder < 0 {
			return nil, apperr.Validation("Sort order must not be negative")
		}
		if pos.SortOrder > models.MaxSortOrder {
			return nil, apperr.Validation("Sort order must be at most %d", models.MaxSortOrder)
		}
		if seen[pos.ID] {
			return nil, apperr.Validation("Category %s appears more than once", pos.ID)
		}
		seen[pos.ID] = true
	}

	if err := s.categories.Reorder(ctx, positions); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Category not found")
		}
		return nil, fmt.Errorf("reorder categories: %w", err)
	}
	s.invalidate(ctx)

	items, _, err := s.categories.List(ctx, store.CategoryFilter{}, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}
