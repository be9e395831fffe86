// README: Account service answers role lookups for collaborators (rating aggregation).
package account

import (
	"context"
	"errors"

	"sahayog/internal/types"
)

var ErrNotFound = errors.New("account not found")

type Repository interface {
	Upsert(ctx context.Context, p Principal) error
	Role(ctx context.Context, id types.ID) (Role, error)
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

func (s *Service) Track(ctx context.Context, p Principal) error {
	if p.ID == "" {
		return nil
	}
	return s.store.Upsert(ctx, p)
}

// Role returns the last known role of id. Ids never seen are customers.
func (s *Service) Role(ctx context.Context, id types.ID) (Role, error) {
	role, err := s.store.Role(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return RoleCustomer, nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}
