// Package sanitize holds maintenance operations on the handscan database:
// releasing hands stuck in PROCESSING, truncating tables and listing foreign
// keys.
package sanitize

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"handscan/models"
)

// DefaultTables are the application tables, children first.
var DefaultTables = []string{"hands", "events", "refresh_tokens", "users", "roles"}

var nameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidTables keeps the plain identifiers from names and returns the rest
// separately.
func ValidTables(names []string) (valid, invalid []string) {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if nameRE.MatchString(n) {
			valid = append(valid, n)
		} else {
			invalid = append(invalid, n)
		}
	}
	return valid, invalid
}

// TruncateStatement builds the TRUNCATE for already validated names.
func TruncateStatement(tables []string) string {
	quoted := make([]string, 0, len(tables))
	for _, t := range tables {
		quoted = append(quoted, `"`+t+`"`)
	}
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
}

type TruncateOptions struct {
	DryRun bool
	Yes    bool
	// Reseed runs after a successful truncate.
	Reseed func(*gorm.DB) error
}

// Truncate empties the tables that exist. Nothing is executed on a dry run
// or without Yes; the tables that would be truncated are returned either way.
func Truncate(ctx context.Context, db *gorm.DB, names []string, opts TruncateOptions, log *zap.Logger) ([]string, error) {
	valid, invalid := ValidTables(names)
	for _, n := range invalid {
		log.Warn("skipping invalid table name", zap.String("table", n))
	}
	var existing []string
	for _, t := range valid {
		var cnt int64
		if err := db.WithContext(ctx).Raw("SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?", t).Scan(&cnt).Error; err != nil {
			return nil, fmt.Errorf("query pg_tables for %s: %w", t, err)
		}
		if cnt > 0 {
			existing = append(existing, t)
		} else {
			log.Info("table not found, skipping", zap.String("table", t))
		}
	}
	if len(existing) == 0 || opts.DryRun || !opts.Yes {
		return existing, nil
	}

	stmt := TruncateStatement(existing)
	log.Info("executing", zap.String("sql", stmt))
	tctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := db.WithContext(tctx).Exec(stmt).Error; err != nil {
		return existing, fmt.Errorf("truncate: %w", err)
	}
	if opts.Reseed != nil {
		if err := opts.Reseed(db); err != nil {
			return existing, fmt.Errorf("reseed: %w", err)
		}
	}
	return existing, nil
}

// ReleaseStuck moves hands that have been PROCESSING since before cutoff
// back to UPLOADED. It returns how many were released.
func ReleaseStuck(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Model(&models.Hand{}).
		Where("status = ? AND updated_at < ?", models.HandProcessing, cutoff).
		Updates(map[string]any{"status": models.HandUploaded, "failed_reason": "analysis interrupted"})
	return res.RowsAffected, res.Error
}

// ForeignKeys prints the foreign key constraints of the public schema.
func ForeignKeys(ctx context.Context, db *gorm.DB, w io.Writer) error {
	rows, err := db.WithContext(ctx).Raw(`
		SELECT
		  con.conname AS constraint_name,
		  rel.relname AS table_name,
		  confrel.relname AS referenced_table,
		  pg_get_constraintdef(con.oid) AS definition
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_class confrel ON confrel.oid = con.confrelid
		JOIN pg_namespace ns ON ns.oid = rel.relnamespace
		WHERE con.contype = 'f' AND ns.nspname = 'public'
		ORDER BY rel.relname, con.conname`).Rows()
	if err != nil {
		return fmt.Errorf("query constraints: %w", err)
	}
	defer rows.Close()

	fmt.Fprintln(w, "Foreign keys:")
	for rows.Next() {
		var name, table, ref string
		var def sql.NullString
		if err := rows.Scan(&name, &table, &ref, &def); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		fmt.Fprintf(w, "- %s: %s -> %s\n    def: %s\n", name, table, ref, def.String)
	}
	return rows.Err()
}
