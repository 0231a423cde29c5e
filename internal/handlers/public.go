// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lenscatalog/internal/apperr"
	"lenscatalog/internal/catalog"
	"lenscatalog/internal/models"
	"lenscatalog/internal/storage"
)

// imageCacheControl marks proxied images as immutable. Keys are never
// reused, so a key always maps to the same bytes.
const imageCacheControl = "public, max-age=31536000, immutable"

// CatalogReader answers public catalog queries.
type CatalogReader interface {
	ListCategories(ctx context.Context) ([]catalog.PublicCategory, error)
	ListProducts(ctx context.Context, q catalog.ProductQuery) (*catalog.ProductPage, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ObjectGetter fetches stored objects.
type ObjectGetter interface {
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// Public groups the unauthenticated storefront handlers.
type Public struct {
	catalog     CatalogReader
	objects     ObjectGetter // nil when object storage is not configured
	checkDB     func(ctx context.Context) error
	requiredEnv []string
}

// NewPublic creates the public handler group. objects may be nil.
func NewPublic(cat CatalogReader, objects ObjectGetter, checkDB func(ctx context.Context) error, requiredEnv []string) *Public {
	return &Public{
		catalog:     cat,
		objects:     objects,
		checkDB:     checkDB,
		requiredEnv: requiredEnv,
	}
}

// Categories lists active categories in display order.
func (p *Public) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := p.catalog.ListCategories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Categories retrieved successfully", cats)
}

// Products lists visible products with paging, filters and sorting.
func (p *Public) Products(w http.ResponseWriter, r *http.Request) {
	q, err := parseProductQuery(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := p.catalog.ListProducts(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Products retrieved successfully", page)
}

func parseProductQuery(r *http.Request) (catalog.ProductQuery, error) {
	var q catalog.ProductQuery
	var err error
	if q.Page, err = queryInt(r, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		return q, err
	}
	if q.CategoryID, err = queryUUID(r, "categoryId"); err != nil {
		return q, err
	}
	v := r.URL.Query()
	q.Search = sanitize(v.Get("search"))
	q.Color = sanitize(v.Get("color"))
	q.SortBy = v.Get("sortBy")
	q.SortOrder = v.Get("sortOrder")
	return q, nil
}

// Product returns a single visible product.
func (p *Public) Product(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Product not found")
	if err != nil {
		fail(w, r, err)
		return
	}
	product, err := p.catalog.GetProduct(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Product retrieved successfully", product)
}

// Image streams an object from storage. The key is everything after
// /images/.
func (p *Public) Image(w http.ResponseWriter, r *http.Request) {
	if p.objects == nil {
		http.Error(w, "Image storage is not configured", http.StatusServiceUnavailable)
		return
	}
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" || strings.Contains(key, "..") {
		http.NotFound(w, r)
		return
	}

	data, contentType, err := p.objects.Get(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("image fetch failed", "key", key, "error", err)
		http.Error(w, "Failed to fetch image", http.StatusInternalServerError)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", imageCacheControl)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

// Health reports liveness.
func (p *Public) Health(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, "ok", map[string]string{
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

type healthReport struct {
	Status   string          `json:"status"`
	Env      map[string]bool `json:"env"`
	Database string          `json:"database"`
}

// Healthcheck reports readiness: which required variables are set and
// whether the database answers. Any failure turns the report degraded.
func (p *Public) Healthcheck(w http.ResponseWriter, r *http.Request) {
	report := healthReport{Status: "ok", Env: make(map[string]bool, len(p.requiredEnv)), Database: "ok"}

	for _, name := range p.requiredEnv {
		set := os.Getenv(name) != ""
		report.Env[name] = set
		if !set {
			report.Status = "degraded"
		}
	}

	if p.checkDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := p.checkDB(ctx); err != nil {
			slog.Warn("health check: database unreachable", "error", err)
			report.Database = "unreachable"
			report.Status = "degraded"
		}
	}

	if report.Status != "ok" {
		writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Message: report.Status, Data: report})
		return
	}
	ok(w, http.StatusOK, report.Status, report)
}

// NotFound is the JSON 404 for unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	fail(w, r, apperr.NotFound("Route not found"))
}

// MethodNotAllowed is the JSON 405 for known routes hit with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: "Method not allowed"})
}
