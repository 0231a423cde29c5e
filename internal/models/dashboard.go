package models

import "github.com/google/uuid"

// DashboardStats is the admin overview of catalog counts.
type DashboardStats struct {
	Products           ProductCounts   `json:"products"`
	Categories         CategoryCounts  `json:"categories"`
	ProductsByCategory []CategoryCount `json:"productsByCategory"`
}

// ProductCounts splits products by lifecycle state. Total, Active and
// Hidden count live products only.
type ProductCounts struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Hidden  int `json:"hidden"`
	Deleted int `json:"deleted"`
}

// CategoryCounts counts all and active categories.
type CategoryCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// CategoryCount is the number of live products in one active category.
type CategoryCount struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Count int       `json:"count"`
}
