package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"lenscatalog/internal/slug"
)

const (
	// Default development credentials. Change them on first login.
	seedUsername = "admin"
	seedPassword = "Admin@1234"
)

// seedCategories are created on an empty development database so the
// storefront has something to show.
var seedCategories = []string{"Eyeglasses", "Sunglasses", "Blue Light", "Kids"}

// Seed populates the database with initial development data: a default
// admin user and a few starter categories. Each part is skipped when its
// table already has rows.
func Seed(ctx context.Context, db *sql.DB) error {
	if err := seedAdmin(ctx, db); err != nil {
		return err
	}
	return seedCatalog(ctx, db)
}

func seedAdmin(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING
	`, seedUsername, string(hash), "Admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"username", seedUsername,
		"password", seedPassword,
	)
	return nil
}

func seedCatalog(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, name := range seedCategories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, slug, sort_order) VALUES ($1, $2, $3)
		`, name, slug.Generate(name), i)
		if err != nil {
			return fmt.Errorf("seed insert category %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with starter categories", "count", len(seedCategories))
	return nil
}
