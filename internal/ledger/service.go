package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/birrflow/birrflow-backend/internal/authz"
	"github.com/birrflow/birrflow-backend/pkg/config"
	"github.com/birrflow/birrflow-backend/pkg/db"
	"github.com/birrflow/birrflow-backend/pkg/db/models"
	"github.com/birrflow/birrflow-backend/pkg/enums"
	apperrors "github.com/birrflow/birrflow-backend/pkg/errors"
	"github.com/birrflow/birrflow-backend/pkg/logger"
)

// errReferenceCollision aborts the surrounding transaction when the unique
// index rejects a generated reference. Postgres refuses further statements
// once an INSERT has failed, so regeneration cannot happen in the same
// transaction; the transfer restarts from scratch with a fresh reference.
var errReferenceCollision = errors.New("reference number already taken")

// Service executes wallet-to-wallet transfers and exposes transaction reads.
type Service interface {
	Transfer(ctx context.Context, actor authz.Actor, input TransferInput) (*TransferResult, error)
	GetTransaction(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Transaction, error)
	ListForAccount(ctx context.Context, actor authz.Actor, accountID uuid.UUID) ([]models.Transaction, error)
}

type service struct {
	client *db.Client
	repo   Repository
	cfg    config.LedgerConfig
	logg   *logger.Logger
}

// NewService wires the transfer engine.
func NewService(client *db.Client, repo Repository, cfg config.LedgerConfig, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{client: client, repo: repo, cfg: cfg, logg: logg}, nil
}

// Transfer moves value from the actor's wallet to the recipient's. The whole
// unit is one transaction: validation, the debit/credit pair, and the record
// insert commit together or not at all. Serialization and lock-wait failures
// are retried a bounded number of times with linear backoff.
func (s *service) Transfer(ctx context.Context, actor authz.Actor, input TransferInput) (*TransferResult, error) {
	if actor.Role != enums.AccountRoleMember || !actor.IsActive {
		return nil, apperrors.New(apperrors.CodeForbidden, "only active members can transfer").
			WithReason(apperrors.ReasonNotAuthorized)
	}

	transientAttempts := s.cfg.TransientAttempts
	if transientAttempts <= 0 {
		transientAttempts = 1
	}
	referenceAttempts := s.cfg.ReferenceAttempts
	if referenceAttempts <= 0 {
		referenceAttempts = 1
	}

	var result *TransferResult
	var err error
	transient, collisions := 0, 0
	for {
		result, err = s.execute(ctx, actor.ID, input)
		if err == nil {
			break
		}
		if errors.Is(err, errReferenceCollision) {
			collisions++
			if collisions >= referenceAttempts {
				err = apperrors.New(apperrors.CodeDependency, "could not allocate a unique reference number").
					WithReason(apperrors.ReasonReferenceExhausted)
				break
			}
			continue
		}
		if !db.IsTransient(err) {
			break
		}
		transient++
		if transient >= transientAttempts {
			break
		}
		backoff := s.cfg.TransientBackoff() * time.Duration(transient)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	if err != nil {
		if typed := apperrors.As(err); typed != nil {
			return nil, typed
		}
		if db.IsTransient(err) {
			return nil, apperrors.Wrap(apperrors.CodeDependency, err, "transfer aborted by storage contention")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "executing transfer")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"transaction_id": result.Transaction.ID,
			"reference":      result.Transaction.ReferenceNumber,
		}), "transfer completed")
	}
	return result, nil
}

func (s *service) execute(ctx context.Context, senderID uuid.UUID, input TransferInput) (*TransferResult, error) {
	var result *TransferResult

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		senderWallet, recipientWallet, currency, err := s.validate(ctx, repo, senderID, input)
		if err != nil {
			return err
		}

		if err := s.applyBalanceMutations(ctx, repo, senderWallet, recipientWallet, input.Amount); err != nil {
			return err
		}

		txn, err := s.insertTransaction(ctx, repo, &models.Transaction{
			SenderID:          senderID,
			RecipientID:       input.RecipientID,
			SenderWalletID:    senderWallet.ID,
			RecipientWalletID: recipientWallet.ID,
			Amount:            input.Amount,
			Currency:          currency,
			Description:       input.Description,
			Status:            enums.TransactionStatusCompleted,
		})
		if err != nil {
			return err
		}

		after, err := repo.GetWalletByID(ctx, senderWallet.ID)
		if err != nil {
			return err
		}

		result = &TransferResult{Transaction: txn, SenderBalance: after.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// validate runs the fail-fast precondition chain. The first violation wins
// and nothing is mutated.
func (s *service) validate(ctx context.Context, repo Repository, senderID uuid.UUID, input TransferInput) (*models.Wallet, *models.Wallet, string, error) {
	if senderID == input.RecipientID {
		return nil, nil, "", validationErr("cannot transfer to yourself", apperrors.ReasonSelfTransfer)
	}

	recipient, err := repo.GetAccount(ctx, input.RecipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, "", validationErr("recipient is not a valid transfer target", apperrors.ReasonRecipientInvalid)
		}
		return nil, nil, "", err
	}
	if recipient.Role != enums.AccountRoleMember {
		return nil, nil, "", validationErr("recipient is not a valid transfer target", apperrors.ReasonRecipientInvalid)
	}
	if !recipient.IsActive {
		return nil, nil, "", validationErr("recipient account is inactive", apperrors.ReasonRecipientInactive)
	}

	senderWallet, err := repo.GetWalletByOwnerID(ctx, senderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, "", validationErr("sender wallet is unavailable", apperrors.ReasonSenderWalletInactive)
		}
		return nil, nil, "", err
	}
	if !senderWallet.IsActive {
		return nil, nil, "", validationErr("sender wallet is inactive", apperrors.ReasonSenderWalletInactive)
	}

	if senderWallet.Balance.LessThan(input.Amount) {
		return nil, nil, "", validationErr("insufficient balance", apperrors.ReasonInsufficientBalance)
	}

	recipientWallet, err := repo.GetWalletByOwnerID(ctx, input.RecipientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, "", validationErr("recipient wallet is unavailable", apperrors.ReasonRecipientWalletInactive)
		}
		return nil, nil, "", err
	}
	if !recipientWallet.IsActive {
		return nil, nil, "", validationErr("recipient wallet is inactive", apperrors.ReasonRecipientWalletInactive)
	}

	if !input.Amount.IsPositive() || input.Amount.Exponent() < -2 {
		return nil, nil, "", validationErr("amount must be positive with at most two decimals", apperrors.ReasonInvalidAmount)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if len(currency) > 3 {
		return nil, nil, "", validationErr("currency must be at most 3 characters", apperrors.ReasonInvalidCurrency)
	}

	return senderWallet, recipientWallet, currency, nil
}

// applyBalanceMutations runs the conditional debit/credit pair in ascending
// wallet-id order so two transfers touching the same pair cannot deadlock.
func (s *service) applyBalanceMutations(ctx context.Context, repo Repository, senderWallet, recipientWallet *models.Wallet, amount decimal.Decimal) error {
	debit := func() error {
		ok, err := repo.DebitWallet(ctx, senderWallet.ID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return s.classifyDebitFailure(ctx, repo, senderWallet.ID, amount)
		}
		return nil
	}
	credit := func() error {
		ok, err := repo.CreditWallet(ctx, recipientWallet.ID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return validationErr("recipient wallet is inactive", apperrors.ReasonRecipientWalletInactive)
		}
		return nil
	}

	ops := []func() error{debit, credit}
	if bytes.Compare(recipientWallet.ID[:], senderWallet.ID[:]) < 0 {
		ops[0], ops[1] = credit, debit
	}
	for _, op := range ops {
		if err := op(); err != nil {
			return err
		}
	}
	return nil
}

// classifyDebitFailure re-reads the sender wallet to report why the guarded
// debit matched no row: a concurrent writer drained the balance or the
// cascade flipped the wallet off between validation and execution.
func (s *service) classifyDebitFailure(ctx context.Context, repo Repository, walletID uuid.UUID, amount decimal.Decimal) error {
	wallet, err := repo.GetWalletByID(ctx, walletID)
	if err != nil {
		return err
	}
	if !wallet.IsActive {
		return validationErr("sender wallet is inactive", apperrors.ReasonSenderWalletInactive)
	}
	if wallet.Balance.LessThan(amount) {
		return validationErr("insufficient balance", apperrors.ReasonInsufficientBalance)
	}
	return fmt.Errorf("debit matched no row for wallet %s", walletID)
}

// insertTransaction generates a reference, verifies uniqueness, and inserts
// the row, all inside the caller's transaction. Only the pre-check may
// regenerate in place: once the INSERT itself has hit the unique index the
// transaction is unusable on Postgres, so the collision is surfaced as
// errReferenceCollision and the caller restarts the whole transfer.
func (s *service) insertTransaction(ctx context.Context, repo Repository, txn *models.Transaction) (*models.Transaction, error) {
	attempts := s.cfg.ReferenceAttempts
	if attempts <= 0 {
		attempts = 1
	}

	now := time.Now()
	for i := 0; i < attempts; i++ {
		candidate, err := newReferenceNumber(now)
		if err != nil {
			return nil, err
		}
		exists, err := repo.ReferenceExists(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		txn.ID = uuid.Nil
		txn.ReferenceNumber = candidate
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			if db.IsUniqueViolation(err, "reference_number") {
				return nil, errReferenceCollision
			}
			return nil, err
		}
		return txn, nil
	}

	return nil, apperrors.New(apperrors.CodeDependency, "could not allocate a unique reference number").
		WithReason(apperrors.ReasonReferenceExhausted)
}

// GetTransaction returns a single record visible to the actor: root sees all,
// parties see their own, managers see records involving their reports.
func (s *service) GetTransaction(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Transaction, error) {
	txn, err := s.repo.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "transaction not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "fetching transaction")
	}

	visible, err := s.canSeeTransaction(ctx, actor, txn)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperrors.New(apperrors.CodeForbidden, "cannot view this transaction").
			WithReason(apperrors.ReasonOutOfScope)
	}
	return txn, nil
}

// ListForAccount returns the transaction history of an account the actor may
// view, newest first.
func (s *service) ListForAccount(ctx context.Context, actor authz.Actor, accountID uuid.UUID) ([]models.Transaction, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "account not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "fetching account")
	}

	target := authz.Target{ID: account.ID, Role: account.Role, ManagerID: account.ManagerID}
	if decision := authz.CanView(actor, target); !decision.Allowed {
		return nil, apperrors.New(apperrors.CodeForbidden, "cannot view this account").
			WithReason(decision.Reason)
	}

	txns, err := s.repo.ListTransactionsForAccount(ctx, accountID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing transactions")
	}
	return txns, nil
}

func (s *service) canSeeTransaction(ctx context.Context, actor authz.Actor, txn *models.Transaction) (bool, error) {
	switch actor.Role {
	case enums.AccountRoleRoot:
		return true, nil
	case enums.AccountRoleMember:
		return txn.SenderID == actor.ID || txn.RecipientID == actor.ID, nil
	case enums.AccountRoleManager:
		for _, partyID := range []uuid.UUID{txn.SenderID, txn.RecipientID} {
			party, err := s.repo.GetAccount(ctx, partyID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return false, apperrors.Wrap(apperrors.CodeInternal, err, "fetching transaction party")
			}
			if party.ManagerID != nil && *party.ManagerID == actor.ID {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

func validationErr(message, reason string) *apperrors.Error {
	return apperrors.New(apperrors.CodeValidation, message).WithReason(reason)
}
