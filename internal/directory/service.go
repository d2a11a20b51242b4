package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/birrflow/birrflow-backend/internal/authz"
	"github.com/birrflow/birrflow-backend/pkg/db"
	"github.com/birrflow/birrflow-backend/pkg/db/models"
	"github.com/birrflow/birrflow-backend/pkg/enums"
	apperrors "github.com/birrflow/birrflow-backend/pkg/errors"
)

// Service is the read side of the hierarchy: scoped listings and aggregates.
type Service interface {
	ListVisibleAccounts(ctx context.Context, actor authz.Actor) ([]models.Account, error)
	AggregateStats(ctx context.Context, actor authz.Actor) (*Stats, error)
	ListCandidateRecipients(ctx context.Context, actor authz.Actor) ([]Recipient, error)
}

type service struct {
	client *db.Client
	repo   Repository
}

// NewService wires the directory service.
func NewService(client *db.Client, repo Repository) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("directory repository required")
	}
	return &service{client: client, repo: repo}, nil
}

// ListVisibleAccounts returns the actor's scope: everything for root, direct
// reports for a manager, the actor alone for a member.
func (s *service) ListVisibleAccounts(ctx context.Context, actor authz.Actor) ([]models.Account, error) {
	if decision := authz.CanViewAny(actor); !decision.Allowed {
		return nil, apperrors.New(apperrors.CodeForbidden, "cannot list accounts").
			WithReason(decision.Reason)
	}
	accounts, err := s.scopedAccounts(ctx, s.repo, actor)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// AggregateStats computes counts and sums over the actor's scope inside one
// transaction so the result reflects a single snapshot. Members additionally
// get their sent/received split, root gets today's system-wide activity.
func (s *service) AggregateStats(ctx context.Context, actor authz.Actor) (*Stats, error) {
	if decision := authz.CanViewAny(actor); !decision.Allowed {
		return nil, apperrors.New(apperrors.CodeForbidden, "cannot view stats").
			WithReason(decision.Reason)
	}

	var stats Stats
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		accounts, err := s.scopedAccounts(ctx, repo, actor)
		if err != nil {
			return err
		}

		ids := make([]uuid.UUID, 0, len(accounts))
		for _, account := range accounts {
			ids = append(ids, account.ID)
			stats.TotalAccounts++
			if account.IsActive {
				stats.ActiveAccounts++
			} else {
				stats.InactiveAccounts++
			}
		}

		balance, err := repo.SumWalletBalances(ctx, ids)
		if err != nil {
			return err
		}
		stats.TotalWalletBalance = balance

		count, volume, err := repo.TransactionTotals(ctx, ids)
		if err != nil {
			return err
		}
		stats.TransactionCount = count
		stats.TransactionVolume = volume

		switch actor.Role {
		case enums.AccountRoleMember:
			member, err := repo.MemberDirectionalTotals(ctx, actor.ID)
			if err != nil {
				return err
			}
			stats.Member = &member
		case enums.AccountRoleRoot:
			todayCount, todayVolume, err := repo.TransactionTotalsSince(ctx, ids, startOfDay(time.Now().UTC()))
			if err != nil {
				return err
			}
			stats.Root = &RootStats{
				TodayTransactionCount:  todayCount,
				TodayTransactionAmount: todayVolume,
			}
		}
		return nil
	})
	if err != nil {
		if typed := apperrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "computing stats")
	}
	return &stats, nil
}

// ListCandidateRecipients returns every active member except the actor, the
// population a transfer may target.
func (s *service) ListCandidateRecipients(ctx context.Context, actor authz.Actor) ([]Recipient, error) {
	if decision := authz.CanViewAny(actor); !decision.Allowed {
		return nil, apperrors.New(apperrors.CodeForbidden, "cannot list recipients").
			WithReason(decision.Reason)
	}

	members, err := s.repo.ListActiveMembers(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing recipients")
	}

	recipients := make([]Recipient, 0, len(members))
	for _, member := range members {
		recipients = append(recipients, Recipient{ID: member.ID, Name: member.Name})
	}
	return recipients, nil
}

func startOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (s *service) scopedAccounts(ctx context.Context, repo Repository, actor authz.Actor) ([]models.Account, error) {
	switch actor.Role {
	case enums.AccountRoleRoot:
		accounts, err := repo.ListAllAccounts(ctx)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing accounts")
		}
		return accounts, nil
	case enums.AccountRoleManager:
		accounts, err := repo.ListAccountsByManagerID(ctx, actor.ID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing accounts")
		}
		return accounts, nil
	case enums.AccountRoleMember:
		account, err := repo.GetAccount(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.New(apperrors.CodeNotFound, "account not found")
			}
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "fetching account")
		}
		return []models.Account{*account}, nil
	default:
		return nil, apperrors.New(apperrors.CodeForbidden, "unknown role").
			WithReason(apperrors.ReasonNotAuthorized)
	}
}
