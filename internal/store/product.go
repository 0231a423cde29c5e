// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lenscatalog/internal/models"
)

// ProductStore manages products in the database.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore returns a new ProductStore.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

// ProductFilter narrows a product listing. Zero values mean "no filter".
type ProductFilter struct {
	CategoryID     *uuid.UUID
	Status         models.ProductStatus
	Search         string // case-insensitive substring of name
	SearchColor    bool   // Search also matches color
	Color          string // case-insensitive substring of color
	IncludeDeleted bool
	ActiveCategory bool // only products whose category is active
}

// ProductSort orders a product listing. Field is one of the keys of
// SortFields; an unknown or empty field sorts by creation time.
type ProductSort struct {
	Field string
	Desc  bool
}

// SortFields maps the accepted sort keys onto columns.
var SortFields = map[string]string{
	"createdAt": "p.created_at",
	"updatedAt": "p.updated_at",
	"name":      "p.name",
	"color":     "p.color",
	"size":      "p.size",
}

// DefaultSort is newest first.
var DefaultSort = ProductSort{Field: "createdAt", Desc: true}

const productColumns = `
	p.id, p.name, p.color, p.size, p.images, p.category_id, p.status,
	p.deleted_at, p.created_at, p.updated_at,
	c.id, c.name, c.slug`

const productJoin = ` LEFT JOIN categories c ON c.id = p.category_id`

// scanProduct scans a row selected with productColumns.
func scanProduct(scanner interface{ Scan(...any) error }) (*models.Product, error) {
	var (
		p       models.Product
		catID   uuid.NullUUID
		catName sql.NullString
		catSlug sql.NullString
	)
	err := scanner.Scan(
		&p.ID, &p.Name, &p.Color, &p.Size, &p.Images, &p.CategoryID, &p.Status,
		&p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
		&catID, &catName, &catSlug,
	)
	if err != nil {
		return nil, err
	}
	if catID.Valid {
		p.Category = &models.CategorySummary{ID: catID.UUID, Name: catName.String, Slug: catSlug.String}
	}
	return &p, nil
}

func (f ProductFilter) conditions() *conditions {
	var cond conditions
	if !f.IncludeDeleted {
		cond.add("p.deleted_at IS NULL")
	}
	if f.CategoryID != nil {
		cond.add("p.category_id = ?", *f.CategoryID)
	}
	if f.Status != "" {
		cond.add("p.status = ?", string(f.Status))
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		if f.SearchColor {
			cond.add("(p.name ILIKE ? OR p.color ILIKE ?)", pattern, pattern)
		} else {
			cond.add("p.name ILIKE ?", pattern)
		}
	}
	if f.Color != "" {
		cond.add("p.color ILIKE ?", likePattern(f.Color))
	}
	if f.ActiveCategory {
		cond.add("c.is_active")
	}
	return &cond
}

func (s ProductSort) orderBy() string {
	col, ok := SortFields[s.Field]
	if !ok {
		col = SortFields[DefaultSort.Field]
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, p.id %s", col, dir, dir)
}

// List returns one page of products with their category summaries and the
// total number of matching products. Soft-deleted products are excluded
// unless the filter includes them.
func (s *ProductStore) List(ctx context.Context, f ProductFilter, sort ProductSort, page, limit int) ([]models.Product, int, error) {
	cond := f.conditions()

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products p`+productJoin+cond.where(), cond.args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products p` + productJoin +
		cond.where() + sort.orderBy() + cond.limit(limit, models.Offset(page, limit))

	rows, err := s.db.QueryContext(ctx, query, cond.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *p)
	}
	return items, total, rows.Err()
}

// FindByID retrieves a product by ID, including soft-deleted ones.
// Returns nil if not found.
func (s *ProductStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products p`+productJoin+` WHERE p.id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return p, nil
}

// Create inserts a new product and returns it with its category summary.
// Returns ErrCategoryNotFound when the category does not exist.
func (s *ProductStore) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		WITH p AS (
			INSERT INTO products (name, color, size, images, category_id, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT `+productColumns+` FROM p`+productJoin,
		p.Name, p.Color, p.Size, p.Images, p.CategoryID, string(p.Status),
	)
	out, err := scanProduct(row)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return out, nil
}

// Update writes every mutable field of an already-merged product and
// returns the stored row. Returns ErrNotFound for an unknown id and
// ErrCategoryNotFound when the category does not exist.
func (s *ProductStore) Update(ctx context.Context, p *models.Product) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		WITH p AS (
			UPDATE products SET
				name = $1, color = $2, size = $3, images = $4,
				category_id = $5, status = $6, updated_at = NOW()
			WHERE id = $7
			RETURNING *
		)
		SELECT `+productColumns+` FROM p`+productJoin,
		p.Name, p.Color, p.Size, p.Images, p.CategoryID, string(p.Status), p.ID,
	)
	out, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return out, nil
}

// SoftDelete archives a live product. Returns ErrNotFound for an unknown id
// and ErrAlreadyDeleted when the product is already archived; deleted_at
// is left untouched in that case.
func (s *ProductStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return s.missOrDeleted(ctx, id)
}

// ToggleStatus flips a live product between active and hidden in a single
// statement and returns the result. Archived products are rejected with
// ErrAlreadyDeleted.
func (s *ProductStore) ToggleStatus(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		WITH p AS (
			UPDATE products SET
				status = CASE WHEN status = 'active' THEN 'hidden' ELSE 'active' END,
				updated_at = NOW()
			WHERE id = $1 AND deleted_at IS NULL
			RETURNING *
		)
		SELECT `+productColumns+` FROM p`+productJoin, id)
	out, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.missOrDeleted(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("toggle product status: %w", err)
	}
	return out, nil
}

// ImageInUse reports whether any product other than except lists key among
// its images. Archived products count, since their images remain visible
// to admins.
func (s *ProductStore) ImageInUse(ctx context.Context, key string, except uuid.UUID) (bool, error) {
	var used bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM products
			WHERE id <> $1 AND $2 = ANY(string_to_array(images, ','))
		)
	`, except, key).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("check image references: %w", err)
	}
	return used, nil
}

// missOrDeleted explains why a guarded update matched no row.
func (s *ProductStore) missOrDeleted(ctx context.Context, id uuid.UUID) error {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return ErrAlreadyDeleted
}

// Counts returns live products by status and the number of archived ones.
func (s *ProductStore) Counts(ctx context.Context) (models.ProductCounts, error) {
	var c models.ProductCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE deleted_at IS NULL),
			COUNT(*) FILTER (WHERE deleted_at IS NULL AND status = 'active'),
			COUNT(*) FILTER (WHERE deleted_at IS NULL AND status = 'hidden'),
			COUNT(*) FILTER (WHERE deleted_at IS NOT NULL)
		FROM products
	`).Scan(&c.Total, &c.Active, &c.Hidden, &c.Deleted)
	if err != nil {
		return c, fmt.Errorf("count products: %w", err)
	}
	return c, nil
}
