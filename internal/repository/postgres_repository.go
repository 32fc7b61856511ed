package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fashionetl/internal/model"
)

const defaultBatchSize = 200

// PostgresRepository replaces the contents of a PostgreSQL table with the batch.
type PostgresRepository struct {
	DB        *pgxpool.Pool
	Table     string
	RunID     uuid.UUID
	BatchSize int
}

func (r *PostgresRepository) Name() string { return "postgres" }

func (r *PostgresRepository) Save(ctx context.Context, records []model.NormalizedRecord) error {
	table := pgx.Identifier{r.Table}.Sanitize()

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, createTableSQL(table)); err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}
	if _, err := tx.Exec(ctx, `TRUNCATE `+table); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", table, err)
	}

	size := r.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}
	insert := insertSQL(table, dollarPlaceholders)

	for _, part := range chunk(records, size) {
		b := &pgx.Batch{}
		for _, rec := range part {
			b.Queue(insert, append([]any{r.RunID.String()}, rec.Values()...)...)
		}

		br := tx.SendBatch(ctx, b)
		for range part {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("failed to insert into %s: %w", table, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}
