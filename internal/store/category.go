// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lenscatalog/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// CategoryFilter narrows a category listing.
type CategoryFilter struct {
	Search     string // case-insensitive substring of name or slug
	ActiveOnly bool
}

// categorySelect reads a category with its live product count.
const categorySelect = `
	SELECT c.id, c.name, c.slug, c.sort_order, c.is_active, c.created_at, c.updated_at,
	       COUNT(p.id) AS product_count
	FROM categories c
	LEFT JOIN products p ON p.category_id = c.id AND p.deleted_at IS NULL`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.SortOrder, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt, &c.ProductCount,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (f CategoryFilter) conditions() *conditions {
	var cond conditions
	if f.Search != "" {
		pattern := likePattern(f.Search)
		cond.add("(c.name ILIKE ? OR c.slug ILIKE ?)", pattern, pattern)
	}
	if f.ActiveOnly {
		cond.add("c.is_active")
	}
	return &cond
}

// List returns one page of categories ordered by sort_order, with live
// product counts, and the total number of matching categories. A
// non-positive limit returns every match.
func (s *CategoryStore) List(ctx context.Context, f CategoryFilter, page, limit int) ([]models.Category, int, error) {
	cond := f.conditions()

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories c`+cond.where(), cond.args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	query := categorySelect + cond.where() + `
		GROUP BY c.id
		ORDER BY c.sort_order, c.name` + cond.limit(limit, models.Offset(page, limit))

	rows, err := s.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, total, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, categorySelect+` WHERE c.id = $1 GROUP BY c.id`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Create inserts a new category at the end of the manual ordering
// (max sort_order + 1, or 0 for the first category) and returns it.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	var out models.Category
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, is_active, sort_order)
		VALUES ($1, $2, $3, (SELECT COALESCE(MAX(sort_order) + 1, 0) FROM categories))
		RETURNING id, name, slug, sort_order, is_active, created_at, updated_at`,
		c.Name, c.Slug, c.IsActive,
	).Scan(&out.ID, &out.Name, &out.Slug, &out.SortOrder, &out.IsActive, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &out, nil
}

// Update writes name, slug and is_active. Returns ErrNotFound when the
// category does not exist.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = $1, slug = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4
	`, c.Name, c.Slug, c.IsActive, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a category that has no live products. Returns ErrNotFound
// for an unknown id and ErrCategoryInUse when live products reference it.
// Archived products of the category lose their reference (ON DELETE SET NULL).
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM categories
		WHERE id = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM products WHERE category_id = $1 AND deleted_at IS NULL
		  )
	`, id)
	if err != nil {
		if pgCode(err) == pgCheckViolation {
			return ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return ErrCategoryInUse
}

// Reorder assigns sort_order for every given category in one transaction.
// An unknown id rolls back the whole batch with ErrNotFound.
func (s *CategoryStore) Reorder(ctx context.Context, positions []models.SortPosition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE categories SET sort_order = $1, updated_at = $2
		WHERE id = $3`)
	if err != nil {
		return fmt.Errorf("prepare reorder: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, pos := range positions {
		res, err := stmt.ExecContext(ctx, pos.SortOrder, now, pos.ID)
		if err != nil {
			return fmt.Errorf("reorder category %s: %w", pos.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("reorder category %s: %w", pos.ID, ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// Counts returns the number of all and active categories.
func (s *CategoryStore) Counts(ctx context.Context) (models.CategoryCounts, error) {
	var c models.CategoryCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM categories
	`).Scan(&c.Total, &c.Active)
	if err != nil {
		return c, fmt.Errorf("count categories: %w", err)
	}
	return c, nil
}

// ProductCounts returns live product counts for every active category,
// in manual order.
func (s *CategoryStore) ProductCounts(ctx context.Context) ([]models.CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id AND p.deleted_at IS NULL
		WHERE c.is_active
		GROUP BY c.id
		ORDER BY c.sort_order, c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("count products by category: %w", err)
	}
	defer rows.Close()

	items := []models.CategoryCount{}
	for rows.Next() {
		var cc models.CategoryCount
		if err := rows.Scan(&cc.ID, &cc.Name, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		items = append(items, cc)
	}
	return items, rows.Err()
}
