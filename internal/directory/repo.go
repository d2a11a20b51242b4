package directory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/birrflow/birrflow-backend/pkg/db/models"
	"github.com/birrflow/birrflow-backend/pkg/enums"
)

// Repository serves the read-only directory queries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	ListAllAccounts(ctx context.Context) ([]models.Account, error)
	ListAccountsByManagerID(ctx context.Context, managerID uuid.UUID) ([]models.Account, error)
	SumWalletBalances(ctx context.Context, ownerIDs []uuid.UUID) (decimal.Decimal, error)
	TransactionTotals(ctx context.Context, accountIDs []uuid.UUID) (int64, decimal.Decimal, error)
	TransactionTotalsSince(ctx context.Context, accountIDs []uuid.UUID, since time.Time) (int64, decimal.Decimal, error)
	MemberDirectionalTotals(ctx context.Context, accountID uuid.UUID) (MemberStats, error)
	ListActiveMembers(ctx context.Context, excludeID uuid.UUID) ([]models.Account, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a directory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) ListAllAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) ListAccountsByManagerID(ctx context.Context, managerID uuid.UUID) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Where("manager_id = ?", managerID).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) SumWalletBalances(ctx context.Context, ownerIDs []uuid.UUID) (decimal.Decimal, error) {
	if len(ownerIDs) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Select("COALESCE(SUM(balance), 0) AS total").
		Where("owner_id IN ?", ownerIDs).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// TransactionTotals counts and sums transactions where any scoped account is
// a party. A transfer between two scoped accounts counts once.
func (r *repository) TransactionTotals(ctx context.Context, accountIDs []uuid.UUID) (int64, decimal.Decimal, error) {
	if len(accountIDs) == 0 {
		return 0, decimal.Zero, nil
	}
	var row struct {
		Count  int64
		Volume decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS volume").
		Where("sender_id IN ? OR recipient_id IN ?", accountIDs, accountIDs).
		Scan(&row).Error; err != nil {
		return 0, decimal.Zero, err
	}
	return row.Count, row.Volume, nil
}

// TransactionTotalsSince is TransactionTotals restricted to rows created at
// or after the cutoff.
func (r *repository) TransactionTotalsSince(ctx context.Context, accountIDs []uuid.UUID, since time.Time) (int64, decimal.Decimal, error) {
	if len(accountIDs) == 0 {
		return 0, decimal.Zero, nil
	}
	var row struct {
		Count  int64
		Volume decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS volume").
		Where("(sender_id IN ? OR recipient_id IN ?) AND created_at >= ?", accountIDs, accountIDs, since).
		Scan(&row).Error; err != nil {
		return 0, decimal.Zero, err
	}
	return row.Count, row.Volume, nil
}

// MemberDirectionalTotals splits an account's transactions into sent and
// received counts and sums in one scan.
func (r *repository) MemberDirectionalTotals(ctx context.Context, accountID uuid.UUID) (MemberStats, error) {
	var row MemberStats
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select(
			"COALESCE(SUM(CASE WHEN sender_id = ? THEN 1 ELSE 0 END), 0) AS sent_count, "+
				"COALESCE(SUM(CASE WHEN sender_id = ? THEN amount ELSE 0 END), 0) AS sent_amount, "+
				"COALESCE(SUM(CASE WHEN recipient_id = ? THEN 1 ELSE 0 END), 0) AS received_count, "+
				"COALESCE(SUM(CASE WHEN recipient_id = ? THEN amount ELSE 0 END), 0) AS received_amount",
			accountID, accountID, accountID, accountID,
		).
		Where("sender_id = ? OR recipient_id = ?", accountID, accountID).
		Scan(&row).Error; err != nil {
		return MemberStats{}, err
	}
	return row, nil
}

func (r *repository) ListActiveMembers(ctx context.Context, excludeID uuid.UUID) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ? AND id <> ?", enums.AccountRoleMember, true, excludeID).
		Order("name ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
