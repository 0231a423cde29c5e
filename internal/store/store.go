// Package store provides database access methods for the catalog entities.
// Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a mutation targets a row that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyDeleted is returned when a guarded mutation hits a soft-deleted product.
	ErrAlreadyDeleted = errors.New("already deleted")

	// ErrCategoryInUse is returned when deleting a category that still has live products.
	ErrCategoryInUse = errors.New("category has products")

	// ErrCategoryNotFound is returned when a product references a missing category.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("duplicate")
)

// PostgreSQL error codes we translate into store errors.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// pgCode returns the SQLSTATE of err, or "" when err is not a server error.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// conditions accumulates WHERE clauses with numbered placeholders.
type conditions struct {
	clauses []string
	args    []any
}

// add appends a clause. Each "?" in clause is replaced by the next
// positional placeholder, consuming one value from args.
func (c *conditions) add(clause string, args ...any) {
	var b strings.Builder
	i := 0
	for _, r := range clause {
		if r == '?' && i < len(args) {
			c.args = append(c.args, args[i])
			fmt.Fprintf(&b, "$%d", len(c.args))
			i++
			continue
		}
		b.WriteRune(r)
	}
	c.clauses = append(c.clauses, b.String())
}

// where renders the WHERE clause, or "" when there are no conditions.
func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// limit appends LIMIT/OFFSET placeholders. A non-positive limit returns "".
func (c *conditions) limit(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	c.args = append(c.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(c.args)-1, len(c.args))
}

// likePattern escapes LIKE wildcards in s and wraps it for substring matching.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
