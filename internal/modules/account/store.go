// README: Account directory backed by PostgreSQL (id -> role).
package account

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sahayog/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Upsert records the caller's current role. Rows whose role did not change are left untouched.
func (s *Store) Upsert(ctx context.Context, p Principal) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO accounts (id, role, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET role = EXCLUDED.role, updated_at = NOW()
		WHERE accounts.role IS DISTINCT FROM EXCLUDED.role`,
		string(p.ID), string(p.Role),
	)
	return err
}

func (s *Store) Role(ctx context.Context, id types.ID) (Role, error) {
	var role string
	err := s.db.QueryRow(ctx, `SELECT role FROM accounts WHERE id = $1`, string(id)).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Role(role), nil
}
