// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"lenscatalog/internal/admin"
	"lenscatalog/internal/apperr"
	"lenscatalog/internal/media"
	"lenscatalog/internal/models"
)

// maxUploadBody caps the multipart request for image uploads. It leaves
// room for the multipart framing around a maximum-size file; the file
// itself is size-checked by the uploader.
const maxUploadBody = media.MaxImageSize + 1<<20

// CatalogAdmin is the back-office command surface.
type CatalogAdmin interface {
	ListCategories(ctx context.Context, search string, page, limit int) (*admin.Page[models.Category], error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, in admin.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, patch admin.CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ReorderCategories(ctx context.Context, positions []models.SortPosition) ([]models.Category, error)

	ListProducts(ctx context.Context, q admin.ProductListQuery) (*admin.Page[models.Product], error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, in admin.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, patch admin.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ToggleProductStatus(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ImageUploader stores validated product images.
type ImageUploader interface {
	Upload(ctx context.Context, filename string, data []byte) (*media.Uploaded, error)
}

// StatsSource computes dashboard statistics.
type StatsSource interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

// Admin groups the authenticated back-office handlers.
type Admin struct {
	svc      CatalogAdmin
	uploader ImageUploader // nil when object storage is not configured
	stats    StatsSource
}

// NewAdmin creates the admin handler group. uploader may be nil.
func NewAdmin(svc CatalogAdmin, uploader ImageUploader, stats StatsSource) *Admin {
	return &Admin{svc: svc, uploader: uploader, stats: stats}
}

// --- Categories ---

type categoryRequest struct {
	Name     string `json:"name" validate:"max=100"`
	IsActive *bool  `json:"isActive"`
}

type categoryPatchRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	IsActive *bool   `json:"isActive"`
}

type reorderRequest struct {
	Orders []models.SortPosition `json:"orders" validate:"required,dive"`
}

// ListCategories lists all categories with live product counts.
func (a *Admin) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		fail(w, r, err)
		return
	}
	out, err := a.svc.ListCategories(r.Context(), sanitize(r.URL.Query().Get("search")), page, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Categories retrieved successfully", out)
}

// GetCategory returns one category.
func (a *Admin) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Category not found")
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := a.svc.GetCategory(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Category retrieved successfully", c)
}

// CreateCategory adds a category at the end of the ordering.
func (a *Admin) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := check(req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := a.svc.CreateCategory(r.Context(), admin.CategoryInput{
		Name:     sanitize(req.Name),
		IsActive: req.IsActive,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Category created successfully", c)
}

// UpdateCategory renames or (de)activates a category.
func (a *Admin) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Category not found")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req categoryPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := check(req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := a.svc.UpdateCategory(r.Context(), id, admin.CategoryPatch{
		Name:     sanitizePtr(req.Name),
		IsActive: req.IsActive,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Category updated successfully", c)
}

// DeleteCategory removes a category that has no live products.
func (a *Admin) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Category not found")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := a.svc.DeleteCategory(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Category deleted successfully", nil)
}

// ReorderCategories applies a batch of sort positions atomically.
func (a *Admin) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := check(req); err != nil {
		fail(w, r, err)
		return
	}
	cats, err := a.svc.ReorderCategories(r.Context(), req.Orders)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Categories reordered successfully", cats)
}

// --- Products ---

type productRequest struct {
	Name       string               `json:"name" validate:"max=200"`
	Color      string               `json:"color" validate:"max=200"`
	Size       string               `json:"size" validate:"max=200"`
	Images     models.Images        `json:"images"`
	CategoryID uuid.UUID            `json:"categoryId"`
	Status     models.ProductStatus `json:"status" validate:"omitempty,oneof=active hidden"`
}

type productPatchRequest struct {
	Name       *string               `json:"name" validate:"omitempty,max=200"`
	Color      *string               `json:"color" validate:"omitempty,max=200"`
	Size       *string               `json:"size" validate:"omitempty,max=200"`
	Images     *models.Images        `json:"images"`
	CategoryID *uuid.UUID            `json:"categoryId"`
	Status     *models.ProductStatus `json:"status" validate:"omitempty,oneof=active hidden"`
}

// ListProducts lists products for the back office, hidden ones included.
func (a *Admin) ListProducts(w http.ResponseWriter, r *http.Request) {
	var q admin.ProductListQuery
	var err error
	if q.Page, err = queryInt(r, "page"); err != nil {
		fail(w, r, err)
		return
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		fail(w, r, err)
		return
	}
	if q.CategoryID, err = queryUUID(r, "categoryId"); err != nil {
		fail(w, r, err)
		return
	}
	v := r.URL.Query()
	q.Status = models.ProductStatus(v.Get("status"))
	q.Search = sanitize(v.Get("search"))
	q.IncludeDeleted = v.Get("includeDeleted") == "true"

	out, err := a.svc.ListProducts(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Products retrieved successfully", out)
}

// GetProduct returns one product, archived or not.
func (a *Admin) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Product not found")
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := a.svc.GetProduct(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Product retrieved successfully", p)
}

// CreateProduct adds a product to an existing category.
func (a *Admin) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := check(req); err != nil {
		fail(w, r, err)
		return
	}
	p, err := a.svc.CreateProduct(r.Context(), admin.ProductInput{
		Name:       sanitize(req.Name),
		Color:      sanitize(req.Color),
		Size:       sanitize(req.Size),
		Images:     req.Images,
		CategoryID: req.CategoryID,
		Status:     req.Status,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Product created successfully", p)
}

// UpdateProduct applies a partial update.
func (a *Admin) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Product not found")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req productPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := check(req); err != nil {
		fail(w, r, err)
		return
	}
	p, err := a.svc.UpdateProduct(r.Context(), id, admin.ProductPatch{
		Name:       sanitizePtr(req.Name),
		Color:      sanitizePtr(req.Color),
		Size:       sanitizePtr(req.Size),
		Images:     req.Images,
		CategoryID: req.CategoryID,
		Status:     req.Status,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Product updated successfully", p)
}

// DeleteProduct archives a product.
func (a *Admin) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Product not found")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := a.svc.DeleteProduct(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Product deleted successfully", nil)
}

// ToggleProductStatus flips a live product between active and hidden.
func (a *Admin) ToggleProductStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Product not found")
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := a.svc.ToggleProductStatus(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Product status updated to "+string(p.Status), p)
}

// --- Uploads and dashboard ---

// UploadImage stores the multipart "file" field as a product image.
func (a *Admin) UploadImage(w http.ResponseWriter, r *http.Request) {
	if a.uploader == nil {
		writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Message: "Image storage is not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			fail(w, r, apperr.TooLarge("File size too large. Maximum size is 5MB"))
		default:
			fail(w, r, apperr.Validation("No file uploaded"))
		}
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		fail(w, r, err)
		return
	}

	out, err := a.uploader.Upload(r.Context(), header.Filename, data)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "File uploaded successfully", out)
}

// DashboardStats returns the admin overview counts.
func (a *Admin) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.stats.Stats(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Dashboard statistics retrieved successfully", stats)
}
