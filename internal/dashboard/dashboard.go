// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package dashboard computes the admin summary counts. Nothing is cached;
// every call reads the current state of both stores.
package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"lenscatalog/internal/models"
)

// ProductCounter counts products by state.
type ProductCounter interface {
	Counts(ctx context.Context) (models.ProductCounts, error)
}

// CategoryCounter counts categories and their live products.
type CategoryCounter interface {
	Counts(ctx context.Context) (models.CategoryCounts, error)
	ProductCounts(ctx context.Context) ([]models.CategoryCount, error)
}

// Service aggregates dashboard statistics.
type Service struct {
	products   ProductCounter
	categories CategoryCounter
}

// New creates a dashboard service.
func New(products ProductCounter, categories CategoryCounter) *Service {
	return &Service{products: products, categories: categories}
}

// Stats runs the three count queries concurrently. Any failure fails the
// whole call.
func (s *Service) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := s.products.Counts(ctx)
		if err != nil {
			return err
		}
		stats.Products = c
		return nil
	})
	g.Go(func() error {
		c, err := s.categories.Counts(ctx)
		if err != nil {
			return err
		}
		stats.Categories = c
		return nil
	})
	g.Go(func() error {
		c, err := s.categories.ProductCounts(ctx)
		if err != nil {
			return err
		}
		stats.ProductsByCategory = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &stats, nil
}
