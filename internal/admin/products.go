// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"lenscatalog/internal/apperr"
	"lenscatalog/internal/models"
	"lenscatalog/internal/store"
)

const (
	maxProductFieldLen = 200
	maxImages          = 10

	defaultProductLimit = 8
	maxProductLimit     = 100
)

// ProductInput is the payload for creating a product. Status defaults to
// active.
type ProductInput struct {
	Name       string
	Color      string
	Size       string
	Images     models.Images
	CategoryID uuid.UUID
	Status     models.ProductStatus
}

// ProductPatch is a partial product update. Nil fields are left unchanged.
type ProductPatch struct {
	Name       *string
	Color      *string
	Size       *string
	Images     *models.Images
	CategoryID *uuid.UUID
	Status     *models.ProductStatus
}

// ProductListQuery filters the admin product listing.
type ProductListQuery struct {
	CategoryID     *uuid.UUID
	Status         models.ProductStatus
	Search         string
	IncludeDeleted bool
	Page           int
	Limit          int
}

func requiredText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.Validation("%s is required", field)
	}
	if utf8.RuneCountInString(value) > maxProductFieldLen {
		return "", apperr.Validation("%s is too long (max %d characters)", field, maxProductFieldLen)
	}
	return value, nil
}

func checkImages(images models.Images) error {
	if len(images) == 0 {
		return apperr.Validation("At least one image is required")
	}
	if len(images) > maxImages {
		return apperr.Validation("At most %d images are allowed", maxImages)
	}
	return nil
}

// requireCategory confirms the category exists.
func (s *Service) requireCategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return apperr.Validation("Category is required")
	}
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find category: %w", err)
	}
	if c == nil {
		return apperr.NotFound("Category not found")
	}
	return nil
}

// ListProducts returns one page of products, newest first.
func (s *Service) ListProducts(ctx context.Context, q ProductListQuery) (*Page[models.Product], error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperr.Validation("Invalid status %q", q.Status)
	}
	page, limit := pageParams(q.Page, q.Limit, defaultProductLimit, maxProductLimit)

	filter := store.ProductFilter{
		CategoryID:     q.CategoryID,
		Status:         q.Status,
		Search:         strings.TrimSpace(q.Search),
		IncludeDeleted: q.IncludeDeleted,
	}
	items, total, err := s.products.List(ctx, filter, store.DefaultSort, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &Page[models.Product]{Items: items, Pagination: models.NewPagination(page, limit, total)}, nil
}

// GetProduct returns a product by id, including archived ones.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, apperr.NotFound("Product not found")
	}
	return p, nil
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	p := &models.Product{Images: in.Images, Status: in.Status}
	var err error
	if p.Name, err = requiredText("Name", in.Name); err != nil {
		return nil, err
	}
	if p.Color, err = requiredText("Color", in.Color); err != nil {
		return nil, err
	}
	if p.Size, err = requiredText("Size", in.Size); err != nil {
		return nil, err
	}
	if err := checkImages(p.Images); err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	if !p.Status.Valid() {
		return nil, apperr.Validation("Invalid status %q", p.Status)
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	p.CategoryID = &in.CategoryID

	out, err := s.products.Create(ctx, p)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return nil, apperr.NotFound("Category not found")
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx)
	return out, nil
}

// UpdateProduct merges a partial update into the stored product. Image
// keys dropped from the list are removed from object storage on a
// best-effort basis.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := p.Images

	if patch.Name != nil {
		if p.Name, err = requiredText("Name", *patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Color != nil {
		if p.Color, err = requiredText("Color", *patch.Color); err != nil {
			return nil, err
		}
	}
	if patch.Size != nil {
		if p.Size, err = requiredText("Size", *patch.Size); err != nil {
			return nil, err
		}
	}
	if patch.Images != nil {
		if err := checkImages(*patch.Images); err != nil {
			return nil, err
		}
		p.Images = *patch.Images
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apperr.Validation("Invalid status %q", *patch.Status)
		}
		p.Status = *patch.Status
	}
	if patch.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *patch.CategoryID) {
		if err := s.requireCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
		p.CategoryID = patch.CategoryID
	}

	out, err := s.products.Update(ctx, p)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, apperr.NotFound("Product not found")
	case errors.Is(err, store.ErrCategoryNotFound):
		return nil, apperr.NotFound("Category not found")
	case err != nil:
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx)

	if patch.Images != nil {
		s.removeObjects(ctx, out.ID, previous, out.Images)
	}
	return out, nil
}

// removeObjects deletes stored keys that appear in before but not in after.
// External URLs and keys still listed by another product are kept. Failures
// are logged and otherwise ignored.
func (s *Service) removeObjects(ctx context.Context, owner uuid.UUID, before, after models.Images) {
	if s.objects == nil {
		return
	}
	for _, key := range before {
		if after.Contains(key) || strings.Contains(key, "://") {
			continue
		}
		used, err := s.products.ImageInUse(ctx, key, owner)
		if err != nil {
			slog.Warn("skipping product image delete", "key", key, "error", err)
			continue
		}
		if used {
			continue
		}
		if err := s.objects.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete product image", "key", key, "error", err)
		}
	}
}

// DeleteProduct archives a product. Archiving twice is a conflict and
// leaves the first deletion time in place.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.products.SoftDelete(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Product not found")
	case errors.Is(err, store.ErrAlreadyDeleted):
		return apperr.Conflict("Product already deleted")
	case err != nil:
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// ToggleProductStatus flips a live product between active and hidden.
func (s *Service) ToggleProductStatus(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.products.ToggleStatus(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, apperr.NotFound("Product not found")
	case errors.Is(err, store.ErrAlreadyDeleted):
		return nil, apperr.Conflict("Cannot update status of deleted product")
	case err != nil:
		return nil, fmt.Errorf("toggle product status: %w", err)
	}
	s.invalidate(ctx)
	return p, nil
}
