package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/birrflow/birrflow-backend/internal/authz"
	"github.com/birrflow/birrflow-backend/pkg/config"
	"github.com/birrflow/birrflow-backend/pkg/db"
	"github.com/birrflow/birrflow-backend/pkg/db/models"
	"github.com/birrflow/birrflow-backend/pkg/enums"
	apperrors "github.com/birrflow/birrflow-backend/pkg/errors"
	"github.com/birrflow/birrflow-backend/pkg/logger"
	"github.com/birrflow/birrflow-backend/pkg/security"
)

// Service exposes the account lifecycle: creation with wallet provisioning,
// scoped reads, the activation cascade, and guarded deletion.
type Service interface {
	Create(ctx context.Context, actor authz.Actor, input CreateAccountInput) (*models.Account, error)
	Get(ctx context.Context, actor authz.Actor, accountID uuid.UUID) (*models.Account, error)
	GetWallet(ctx context.Context, actor authz.Actor, accountID uuid.UUID) (*models.Wallet, error)
	SetActive(ctx context.Context, actor authz.Actor, accountID uuid.UUID, active bool) error
	Delete(ctx context.Context, actor authz.Actor, accountID uuid.UUID) error
}

type service struct {
	client    *db.Client
	repo      Repository
	wallets   WalletRepository
	passCfg   config.PasswordConfig
	ledgerCfg config.LedgerConfig
	logg      *logger.Logger
}

// NewService wires the account service with its repositories and config.
func NewService(
	client *db.Client,
	repo Repository,
	wallets WalletRepository,
	passCfg config.PasswordConfig,
	ledgerCfg config.LedgerConfig,
	logg *logger.Logger,
) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{
		client:    client,
		repo:      repo,
		wallets:   wallets,
		passCfg:   passCfg,
		ledgerCfg: ledgerCfg,
		logg:      logg,
	}, nil
}

// Create provisions a subordinate account. Member accounts receive their
// wallet inside the same transaction, credited with the configured starting
// balance.
func (s *service) Create(ctx context.Context, actor authz.Actor, input CreateAccountInput) (*models.Account, error) {
	if decision := authz.CanCreate(actor, input.Role); !decision.Allowed {
		return nil, apperrors.New(apperrors.CodeForbidden, "cannot create account with this role").
			WithReason(decision.Reason)
	}

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "name and email are required")
	}

	hash, err := security.HashPassword(input.Password, s.passCfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid password")
	}

	managerID := actor.ID
	account := &models.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		ManagerID:    &managerID,
		IsActive:     true,
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, account); err != nil {
			return err
		}
		if !account.Role.OwnsWallet() {
			return nil
		}
		balance, err := s.ledgerCfg.InitialBalanceDecimal()
		if err != nil {
			return err
		}
		wallet := &models.Wallet{
			OwnerID:  account.ID,
			Balance:  balance,
			Currency: s.ledgerCfg.DefaultCurrency,
			IsActive: true,
		}
		return s.wallets.WithTx(tx).Create(ctx, wallet)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, apperrors.Wrap(apperrors.CodeConflict, err, "email already registered")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating account")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"account_id": account.ID,
			"role":       account.Role,
		}), "account created")
	}
	return account, nil
}

func (s *service) Get(ctx context.Context, actor authz.Actor, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "account not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "fetching account")
	}

	if decision := authz.CanView(actor, targetOf(account)); !decision.Allowed {
		return nil, apperrors.New(apperrors.CodeForbidden, "cannot view this account").
			WithReason(decision.Reason)
	}
	return account, nil
}

// GetWallet returns the wallet of a member account visible to the actor.
func (s *service) GetWallet(ctx context.Context, actor authz.Actor, accountID uuid.UUID) (*models.Wallet, error) {
	account, err := s.Get(ctx, actor, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Role.OwnsWallet() {
		return nil, apperrors.New(apperrors.CodeNotFound, "account has no wallet")
	}
	wallet, err := s.wallets.GetByOwnerID(ctx, account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "wallet not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "fetching wallet")
	}
	return wallet, nil
}

// SetActive toggles the target account and, for managers, every account they
// manage plus all affected wallets, in one transaction. The hierarchy is two
// levels deep so a single pass over direct reports covers the full cascade.
func (s *service) SetActive(ctx context.Context, actor authz.Actor, accountID uuid.UUID, active bool) error {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "account not found")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "fetching account")
	}

	if decision := authz.CanUpdate(actor, targetOf(account)); !decision.Allowed {
		return apperrors.New(apperrors.CodeForbidden, "cannot update this account").
			WithReason(decision.Reason)
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ids := []uuid.UUID{account.ID}
		if account.Role == enums.AccountRoleManager {
			reports, err := repo.ListByManagerID(ctx, account.ID)
			if err != nil {
				return err
			}
			for _, report := range reports {
				ids = append(ids, report.ID)
			}
		}

		if err := repo.SetActiveByIDs(ctx, ids, active); err != nil {
			return err
		}
		return s.wallets.WithTx(tx).SetActiveByOwnerIDs(ctx, ids, active)
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "applying activation cascade")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"account_id": account.ID,
			"active":     active,
		}), "account activation updated")
	}
	return nil
}

// Delete removes an account. Managers with reports and members whose wallets
// appear in any transaction are rejected with a conflict.
func (s *service) Delete(ctx context.Context, actor authz.Actor, accountID uuid.UUID) error {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "account not found")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "fetching account")
	}

	if decision := authz.CanDelete(actor, targetOf(account)); !decision.Allowed {
		return apperrors.New(apperrors.CodeForbidden, "cannot delete this account").
			WithReason(decision.Reason)
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallets := s.wallets.WithTx(tx)

		if account.Role == enums.AccountRoleManager {
			count, err := repo.CountByManagerID(ctx, account.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return apperrors.New(apperrors.CodeConflict, "manager still has reports").
					WithReason(apperrors.ReasonManagerHasReports)
			}
		}

		if account.Role.OwnsWallet() {
			wallet, err := wallets.GetByOwnerID(ctx, account.ID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if wallet != nil {
				refs, err := wallets.CountTransactionReferences(ctx, wallet.ID)
				if err != nil {
					return err
				}
				if refs > 0 {
					return apperrors.New(apperrors.CodeConflict, "wallet is referenced by transactions").
						WithReason(apperrors.ReasonWalletReferenced)
				}
				if err := wallets.DeleteByOwnerID(ctx, account.ID); err != nil {
					return err
				}
			}
		}

		return repo.Delete(ctx, account.ID)
	})
	if err != nil {
		if typed := apperrors.As(err); typed != nil {
			return typed
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "deleting account")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"account_id": account.ID}), "account deleted")
	}
	return nil
}

func targetOf(account *models.Account) authz.Target {
	return authz.Target{
		ID:        account.ID,
		Role:      account.Role,
		ManagerID: account.ManagerID,
	}
}
