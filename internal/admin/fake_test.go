package admin

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lenscatalog/internal/models"
	"lenscatalog/internal/store"
)

// memStore is an in-memory stand-in for the category and product stores.
type memStore struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*models.Category
	products   map[uuid.UUID]*models.Product
	seq        int
	refErr     error
}

func newMemStore() *memStore {
	return &memStore{
		categories: map[uuid.UUID]*models.Category{},
		products:   map[uuid.UUID]*models.Product{},
	}
}

type memCategories struct{ *memStore }
type memProducts struct{ *memStore }

func (m *memStore) liveCount(id uuid.UUID) int {
	n := 0
	for _, p := range m.products {
		if p.CategoryID != nil && *p.CategoryID == id && !p.IsDeleted() {
			n++
		}
	}
	return n
}

func (m memCategories) List(_ context.Context, f store.CategoryFilter, page, limit int) ([]models.Category, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Category
	for _, c := range m.categories {
		if f.ActiveOnly && !c.IsActive {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search)) {
			continue
		}
		cc := *c
		cc.ProductCount = m.liveCount(c.ID)
		out = append(out, cc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	total := len(out)
	if limit > 0 {
		start := min(models.Offset(page, limit), len(out))
		out = out[start:min(start+limit, len(out))]
	}
	return out, total, nil
}

func (m memCategories) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, nil
	}
	cc := *c
	cc.ProductCount = m.liveCount(id)
	return &cc, nil
}

func (m memCategories) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := 0
	for _, existing := range m.categories {
		if existing.SortOrder >= next {
			next = existing.SortOrder + 1
		}
	}
	cc := *c
	cc.ID = uuid.New()
	cc.SortOrder = next
	cc.CreatedAt = time.Now()
	cc.UpdatedAt = cc.CreatedAt
	m.categories[cc.ID] = &cc
	out := cc
	return &out, nil
}

func (m memCategories) Update(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.categories[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Name, existing.Slug, existing.IsActive = c.Name, c.Slug, c.IsActive
	existing.UpdatedAt = time.Now()
	return nil
}

func (m memCategories) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return store.ErrNotFound
	}
	if m.liveCount(id) > 0 {
		return store.ErrCategoryInUse
	}
	delete(m.categories, id)
	for _, p := range m.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
		}
	}
	return nil
}

func (m memCategories) Reorder(_ context.Context, positions []models.SortPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pos := range positions {
		if _, ok := m.categories[pos.ID]; !ok {
			return store.ErrNotFound
		}
	}
	for _, pos := range positions {
		m.categories[pos.ID].SortOrder = pos.SortOrder
	}
	return nil
}

func (m memProducts) withCategory(p *models.Product) *models.Product {
	out := *p
	out.Images = append(models.Images(nil), p.Images...)
	if p.CategoryID != nil {
		if c, ok := m.categories[*p.CategoryID]; ok {
			out.Category = c.Summary()
		}
	}
	return &out
}

func (m memProducts) List(_ context.Context, f store.ProductFilter, _ store.ProductSort, page, limit int) ([]models.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, p := range m.products {
		if !f.IncludeDeleted && p.IsDeleted() {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *m.withCategory(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if limit > 0 {
		start := min(models.Offset(page, limit), len(out))
		out = out[start:min(start+limit, len(out))]
	}
	return out, total, nil
}

func (m memProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return m.withCategory(p), nil
}

func (m memProducts) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CategoryID == nil || m.categories[*p.CategoryID] == nil {
		return nil, store.ErrCategoryNotFound
	}
	m.seq++
	cp := *p
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	cp.UpdatedAt = cp.CreatedAt
	m.products[cp.ID] = &cp
	return m.withCategory(&cp), nil
}

func (m memProducts) Update(_ context.Context, p *models.Product) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.products[p.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.CategoryID != nil && m.categories[*p.CategoryID] == nil {
		return nil, store.ErrCategoryNotFound
	}
	existing.Name, existing.Color, existing.Size = p.Name, p.Color, p.Size
	existing.Images = append(models.Images(nil), p.Images...)
	existing.CategoryID, existing.Status = p.CategoryID, p.Status
	existing.UpdatedAt = time.Now()
	return m.withCategory(existing), nil
}

func (m memProducts) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.IsDeleted() {
		return store.ErrAlreadyDeleted
	}
	now := time.Now()
	p.DeletedAt = &now
	return nil
}

func (m memProducts) ToggleStatus(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.IsDeleted() {
		return nil, store.ErrAlreadyDeleted
	}
	p.Status = p.Status.Toggled()
	return m.withCategory(p), nil
}

func (m memProducts) ImageInUse(_ context.Context, key string, except uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refErr != nil {
		return false, m.refErr
	}
	for id, p := range m.products {
		if id != except && p.Images.Contains(key) {
			return true, nil
		}
	}
	return false, nil
}

type fakeObjects struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return f.err
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) { c.n++ }
