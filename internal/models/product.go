// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProductStatus controls storefront visibility of a live product.
type ProductStatus string

const (
	StatusActive ProductStatus = "active"
	StatusHidden ProductStatus = "hidden"
)

// Valid reports whether s is a known status.
func (s ProductStatus) Valid() bool {
	return s == StatusActive || s == StatusHidden
}

// Toggled returns the opposite status.
func (s ProductStatus) Toggled() ProductStatus {
	if s == StatusActive {
		return StatusHidden
	}
	return StatusActive
}

// Product is a single eyewear item. Products are never hard-deleted;
// DeletedAt marks them as archived.
type Product struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	Color      string        `json:"color"`
	Size       string        `json:"size"`
	Images     Images        `json:"images"`
	CategoryID *uuid.UUID    `json:"categoryId"` // nil only for archived products of a removed category
	Status     ProductStatus `json:"status"`
	DeletedAt  *time.Time    `json:"deletedAt"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`

	// Category is populated by store list and find methods.
	Category *CategorySummary `json:"category"`
}

// IsDeleted reports whether the product has been soft-deleted.
func (p *Product) IsDeleted() bool {
	return p.DeletedAt != nil
}

// PrimaryImage returns the first image key, or "" when there are none.
func (p *Product) PrimaryImage() string {
	return p.Images.Primary()
}

// MarshalJSON adds the derived primaryImage field.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		PrimaryImage string `json:"primaryImage"`
	}{plain(p), p.Images.Primary()})
}

// Images is an ordered list of storage keys. At the storage and wire
// boundary it travels as a single comma-joined string.
type Images []string

// ParseImages splits a comma-joined list, trimming blanks.
func ParseImages(s string) Images {
	var out Images
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// String returns the comma-joined form.
func (im Images) String() string {
	return strings.Join(im, ",")
}

// Primary returns the first key, or "".
func (im Images) Primary() string {
	if len(im) == 0 {
		return ""
	}
	return im[0]
}

// Contains reports whether key is in the list.
func (im Images) Contains(key string) bool {
	for _, k := range im {
		if k == key {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the list as a comma-joined string.
func (im Images) MarshalJSON() ([]byte, error) {
	return json.Marshal(im.String())
}

// UnmarshalJSON accepts either a comma-joined string or a JSON array.
func (im *Images) UnmarshalJSON(data []byte) error {
	var joined string
	if err := json.Unmarshal(data, &joined); err == nil {
		*im = ParseImages(joined)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("images must be a string or an array of strings")
	}
	*im = ParseImages(strings.Join(list, ","))
	return nil
}

// Value implements driver.Valuer.
func (im Images) Value() (driver.Value, error) {
	return im.String(), nil
}

// Scan implements sql.Scanner.
func (im *Images) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*im = ParseImages(v)
	case []byte:
		*im = ParseImages(string(v))
	case nil:
		*im = nil
	default:
		return fmt.Errorf("scan images: unsupported type %T", src)
	}
	return nil
}
