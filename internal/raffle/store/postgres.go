package store

import (
	"context"
	"database/sql"
	"fmt"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	"tombola/pkg/platform/sentinel"
	"tombola/pkg/platform/tx"
)

// Postgres archives settled epochs in the raffle_epochs table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed epoch archive.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the raffle_epochs table if it does not exist yet.
// Called at startup; safe to run repeatedly.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS raffle_epochs (
			epoch          BIGINT PRIMARY KEY,
			winner         UUID NOT NULL,
			winner_slot    INTEGER NOT NULL,
			rarity         TEXT NOT NULL,
			prize          BIGINT NOT NULL,
			operator_share BIGINT NOT NULL,
			token          UUID NOT NULL,
			entrant_count  INTEGER NOT NULL,
			seed_digest    TEXT NOT NULL,
			settled_at     TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure raffle_epochs schema: %w", err)
	}
	return nil
}

// Append inserts the record of a settled epoch. The epoch number is the
// primary key; a duplicate insert reports a conflict without touching the
// existing row.
func (s *Postgres) Append(ctx context.Context, record models.EpochRecord) error {
	query := `
		INSERT INTO raffle_epochs (
			epoch, winner, winner_slot, rarity, prize,
			operator_share, token, entrant_count, seed_digest, settled_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (epoch) DO NOTHING
	`

	result, err := tx.ExecerFrom(ctx, s.db).ExecContext(ctx, query,
		int64(record.Epoch),
		record.Winner.String(),
		record.WinnerSlot,
		string(record.Rarity),
		int64(record.Prize),
		int64(record.OperatorShare),
		record.Token.String(),
		record.EntrantCount,
		record.SeedDigest,
		record.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("insert epoch %d: %w", record.Epoch, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert epoch %d: rows affected: %w", record.Epoch, err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// List returns up to limit settled epochs, newest first.
func (s *Postgres) List(ctx context.Context, limit int) ([]models.EpochRecord, error) {
	query := `
		SELECT epoch, winner, winner_slot, rarity, prize,
		       operator_share, token, entrant_count, seed_digest, settled_at
		FROM raffle_epochs
		ORDER BY epoch DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := tx.ExecerFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list epochs: %w", err)
	}
	defer rows.Close()

	var records []models.EpochRecord
	for rows.Next() {
		record, err := scanEpoch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list epochs: %w", err)
	}
	return records, nil
}

func scanEpoch(rows *sql.Rows) (models.EpochRecord, error) {
	var (
		record        models.EpochRecord
		epoch         int64
		winner, token string
		rarity        string
		prize, share  int64
	)
	err := rows.Scan(
		&epoch, &winner, &record.WinnerSlot, &rarity, &prize,
		&share, &token, &record.EntrantCount, &record.SeedDigest, &record.SettledAt,
	)
	if err != nil {
		return models.EpochRecord{}, fmt.Errorf("scan epoch: %w", err)
	}

	record.Epoch = uint64(epoch)
	record.Rarity = models.Rarity(rarity)
	record.Prize = domain.Amount(prize)
	record.OperatorShare = domain.Amount(share)

	if record.Winner, err = domain.ParseAccountID(winner); err != nil {
		return models.EpochRecord{}, fmt.Errorf("scan epoch %d: winner: %w", epoch, err)
	}
	if record.Token, err = domain.ParseTokenID(token); err != nil {
		return models.EpochRecord{}, fmt.Errorf("scan epoch %d: token: %w", epoch, err)
	}
	return record, nil
}
