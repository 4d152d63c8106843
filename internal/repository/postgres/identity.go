package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dunet/session-server/internal/model"
)

var _ model.IdentityStore = (*IdentityRepository)(nil)

// IdentityRepository reads and bumps users.token_version. The rest of the
// users row belongs to registration and is not touched here.
type IdentityRepository struct {
	db *Connection
}

func NewIdentityRepository(db *Connection) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) Version(ctx context.Context, identityID int64) (int64, error) {
	var version int64
	err := r.db.QueryRow(ctx, `SELECT token_version FROM users WHERE id = $1`, identityID).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrNotFound
		}
		return 0, fmt.Errorf("failed to get token version: %w", err)
	}
	return version, nil
}

func (r *IdentityRepository) IncrementVersion(ctx context.Context, identityID int64) (int64, error) {
	const query = `
        UPDATE users SET token_version = token_version + 1, updated_at = NOW()
        WHERE id = $1
        RETURNING token_version
    `
	var version int64
	if err := r.db.QueryRow(ctx, query, identityID).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment token version: %w", err)
	}
	return version, nil
}

// Create inserts a bare identity row. Registration owns the real insert; this
// exists for seeding and integration tests.
func (r *IdentityRepository) Create(ctx context.Context) (model.Identity, error) {
	const query = `
        INSERT INTO users DEFAULT VALUES
        RETURNING id, token_version, created_at, updated_at
    `
	var ident model.Identity
	if err := r.db.QueryRow(ctx, query).Scan(&ident.ID, &ident.Version, &ident.CreatedAt, &ident.UpdatedAt); err != nil {
		return model.Identity{}, fmt.Errorf("failed to create identity: %w", err)
	}
	return ident, nil
}
