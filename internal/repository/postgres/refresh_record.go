package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dunet/session-server/internal/model"
	"github.com/dunet/session-server/internal/token"
)

var _ model.RefreshStore = (*RefreshRecordRepository)(nil)

type RefreshRecordRepository struct {
	db  *Connection
	now func() time.Time
}

func NewRefreshRecordRepository(db *Connection) *RefreshRecordRepository {
	return &RefreshRecordRepository{db: db, now: time.Now}
}

const selectRefreshRecord = `
        SELECT id, identity_id, token_hash, expires_at, revoked_at, replaced_by, created_at
        FROM refresh_records
    `

func scanRefreshRecord(row pgx.Row) (model.RefreshRecord, error) {
	var rec model.RefreshRecord
	err := row.Scan(
		&rec.ID, &rec.IdentityID, &rec.TokenHash, &rec.ExpiresAt,
		&rec.RevokedAt, &rec.ReplacedBy, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshRecord{}, model.ErrNotFound
		}
		return model.RefreshRecord{}, err
	}
	return rec, nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertRefreshRecord(ctx context.Context, q querier, now time.Time, identityID int64, raw string, ttl time.Duration) (model.RefreshRecord, error) {
	const query = `
        INSERT INTO refresh_records (id, identity_id, token_hash, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, identity_id, token_hash, expires_at, revoked_at, replaced_by, created_at
    `
	return scanRefreshRecord(q.QueryRow(ctx, query,
		uuid.New(), identityID, token.Hash(raw), now.Add(ttl), now,
	))
}

func (r *RefreshRecordRepository) Put(ctx context.Context, identityID int64, raw string, ttl time.Duration) (model.RefreshRecord, error) {
	rec, err := insertRefreshRecord(ctx, r.db, r.now(), identityID, raw, ttl)
	if err != nil {
		return model.RefreshRecord{}, fmt.Errorf("failed to create refresh record: %w", err)
	}
	return rec, nil
}

func (r *RefreshRecordRepository) FindByRaw(ctx context.Context, raw string) (model.RefreshRecord, error) {
	rec, err := scanRefreshRecord(r.db.QueryRow(ctx, selectRefreshRecord+`WHERE token_hash = $1`, token.Hash(raw)))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.RefreshRecord{}, err
		}
		return model.RefreshRecord{}, fmt.Errorf("failed to get refresh record by hash: %w", err)
	}
	return rec, nil
}

// Rotate locks the parent row, inserts the successor and marks the parent
// rotated in a single transaction. A parent that is already revoked, either
// before the lock or by a concurrent rotation that committed first, yields
// model.ErrAlreadyRotated and the transaction is rolled back.
func (r *RefreshRecordRepository) Rotate(ctx context.Context, old model.RefreshRecord, identityID int64, newRaw string, ttl time.Duration) (model.RefreshRecord, error) {
	var child model.RefreshRecord

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var revokedAt *time.Time
		err := tx.QueryRow(ctx, `SELECT revoked_at FROM refresh_records WHERE id = $1 FOR UPDATE`, old.ID).Scan(&revokedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("failed to lock refresh record: %w", err)
		}
		if revokedAt != nil {
			return model.ErrAlreadyRotated
		}

		now := r.now()
		child, err = insertRefreshRecord(ctx, tx, now, identityID, newRaw, ttl)
		if err != nil {
			return fmt.Errorf("failed to create successor refresh record: %w", err)
		}

		const mark = `
            UPDATE refresh_records SET revoked_at = $2, replaced_by = $3
            WHERE id = $1 AND revoked_at IS NULL
        `
		tag, err := tx.Exec(ctx, mark, old.ID, now, child.ID)
		if err != nil {
			return fmt.Errorf("failed to mark refresh record rotated: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return model.ErrAlreadyRotated
		}
		return nil
	})
	if err != nil {
		return model.RefreshRecord{}, err
	}

	return child, nil
}

func (r *RefreshRecordRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE refresh_records SET revoked_at = $2
        WHERE id = $1 AND revoked_at IS NULL
    `
	if _, err := r.db.Exec(ctx, query, id, r.now()); err != nil {
		return fmt.Errorf("failed to revoke refresh record: %w", err)
	}
	return nil
}

func (r *RefreshRecordRepository) RevokeAll(ctx context.Context, identityID int64) error {
	const query = `
        UPDATE refresh_records SET revoked_at = $2
        WHERE identity_id = $1 AND revoked_at IS NULL
    `
	if _, err := r.db.Exec(ctx, query, identityID, r.now()); err != nil {
		return fmt.Errorf("failed to revoke refresh records by identity: %w", err)
	}
	return nil
}

func (r *RefreshRecordRepository) RevokeChain(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `
        WITH RECURSIVE chain AS (
            SELECT id, replaced_by FROM refresh_records WHERE id = $1
            UNION ALL
            SELECT rr.id, rr.replaced_by
            FROM refresh_records rr
            JOIN chain c ON rr.id = c.replaced_by
        )
        UPDATE refresh_records SET revoked_at = $2
        WHERE id IN (SELECT id FROM chain) AND revoked_at IS NULL
    `
	tag, err := r.db.Exec(ctx, query, id, r.now())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh chain: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RefreshRecordRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_records WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh records: %w", err)
	}
	return tag.RowsAffected(), nil
}
