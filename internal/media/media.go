// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package media accepts product image uploads. The content type is
// detected from the file bytes, never from the client-supplied name or
// header. Accepted files must decode as images and are stored under a
// generated key.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"time"

	"github.com/h2non/filetype"
	gonanoid "github.com/jaevor/go-nanoid"
	_ "golang.org/x/image/webp" // register WebP decoder

	"lenscatalog/internal/apperr"
)

const (
	// MaxImageSize is the largest accepted upload (5 MB).
	MaxImageSize = 5 << 20

	// KeyPrefix is the object key prefix for product images.
	KeyPrefix = "products/"

	// maxImagePixels caps decoded size to refuse decompression bombs.
	// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
	maxImagePixels = 100_000_000

	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 13
)

// allowedTypes maps accepted MIME types to the extension used in keys.
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ObjectPutter stores objects.
type ObjectPutter interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Uploaded describes a stored image.
type Uploaded struct {
	Filename    string `json:"filename"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Uploader validates and stores product images.
type Uploader struct {
	objects ObjectPutter
	newID   func() string
	now     func() time.Time
}

// NewUploader creates an uploader backed by objects.
func NewUploader(objects ObjectPutter) (*Uploader, error) {
	newID, err := gonanoid.CustomASCII(idAlphabet, idLength)
	if err != nil {
		return nil, fmt.Errorf("create id generator: %w", err)
	}
	return &Uploader{objects: objects, newID: newID, now: time.Now}, nil
}

// Detect returns the MIME type and key extension of an accepted image.
func Detect(data []byte) (mime, ext string, err error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", "", apperr.Validation("Invalid file type. Only JPEG, PNG, and WebP are allowed")
	}
	ext, ok := allowedTypes[kind.MIME.Value]
	if !ok {
		return "", "", apperr.Validation("Invalid file type. Only JPEG, PNG, and WebP are allowed")
	}
	return kind.MIME.Value, ext, nil
}

// dimensions reads the image header. Files whose magic bytes match but
// which do not decode are rejected.
func dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, apperr.Validation("Invalid image file")
	}
	if cfg.Width*cfg.Height > maxImagePixels {
		return 0, 0, apperr.Validation("Image dimensions too large (%dx%d)", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// Upload checks size and type, then stores data under
// products/{unixMillis}-{id}.{ext}.
func (u *Uploader) Upload(ctx context.Context, filename string, data []byte) (*Uploaded, error) {
	if len(data) == 0 {
		return nil, apperr.Validation("No file uploaded")
	}
	if len(data) > MaxImageSize {
		return nil, apperr.TooLarge("File size too large. Maximum size is 5MB")
	}
	mime, ext, err := Detect(data)
	if err != nil {
		return nil, err
	}
	width, height, err := dimensions(data)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%d-%s.%s", KeyPrefix, u.now().UnixMilli(), u.newID(), ext)
	if _, err := u.objects.Put(ctx, key, mime, data); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	if filename == "" {
		filename = key[len(KeyPrefix):]
	}
	return &Uploaded{
		Filename:    filename,
		Key:         key,
		URL:         "/images/" + key,
		ContentType: mime,
		Size:        len(data),
		Width:       width,
		Height:      height,
	}, nil
}
