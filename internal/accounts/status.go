package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusChecker adapts the repository for per-request account checks in the
// auth middleware.
type StatusChecker struct {
	repo Repository
}

// NewStatusChecker wires a status checker over the account repository.
func NewStatusChecker(repo Repository) (*StatusChecker, error) {
	if repo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	return &StatusChecker{repo: repo}, nil
}

// IsAccountActive reports whether the account exists and is active. A missing
// account reads as inactive, not as an error.
func (s *StatusChecker) IsAccountActive(ctx context.Context, id uuid.UUID) (bool, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return account.IsActive, nil
}
