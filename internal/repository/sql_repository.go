package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fashionetl/internal/model"
)

// Dialect selects the bind-parameter style of the underlying driver.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// SQLRepository replaces a table's contents through database/sql. It backs
// the local SQLite archive and works on PostgreSQL through lib/pq.
type SQLRepository struct {
	DB      *sql.DB
	Table   string
	Dialect Dialect
	RunID   uuid.UUID
	Label   string
}

func (r *SQLRepository) Name() string {
	if r.Label != "" {
		return r.Label
	}
	if r.Dialect == DialectPostgres {
		return "sql-postgres"
	}
	return "sqlite"
}

func (r *SQLRepository) placeholder() func(int) string {
	if r.Dialect == DialectPostgres {
		return dollarPlaceholders
	}
	return questionPlaceholders
}

func (r *SQLRepository) Save(ctx context.Context, records []model.NormalizedRecord) error {
	table := pq.QuoteIdentifier(r.Table)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createTableSQL(table)); err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(table, r.placeholder()))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	runID := r.RunID.String()
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, append([]any{runID}, rec.Values()...)...); err != nil {
			return fmt.Errorf("failed to insert %q: %w", rec.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}

// List returns the stored rows in insertion order.
func (r *SQLRepository) List(ctx context.Context) ([]model.NormalizedRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT title, price, rating, colors, size, gender, scraped_at
		FROM `+pq.QuoteIdentifier(r.Table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.NormalizedRecord
	for rows.Next() {
		var p model.NormalizedRecord
		if err := rows.Scan(&p.Title, &p.Price, &p.Rating, &p.Colors, &p.Size, &p.Gender, &p.ScrapedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
