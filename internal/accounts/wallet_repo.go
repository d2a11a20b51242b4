package accounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/birrflow/birrflow-backend/pkg/db/models"
)

// WalletRepository covers the wallet writes the account lifecycle performs:
// provisioning, cascade toggles, and deletion. Balance mutation stays with
// the transfer engine.
type WalletRepository interface {
	WithTx(tx *gorm.DB) WalletRepository
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error)
	SetActiveByOwnerIDs(ctx context.Context, ownerIDs []uuid.UUID, active bool) error
	CountTransactionReferences(ctx context.Context, walletID uuid.UUID) (int64, error)
	DeleteByOwnerID(ctx context.Context, ownerID uuid.UUID) error
}

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository returns a wallet repository bound to the provided database.
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) WithTx(tx *gorm.DB) WalletRepository {
	if tx == nil {
		return r
	}
	return &walletRepository{db: tx}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	if wallet.ID == uuid.Nil {
		wallet.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *walletRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// SetActiveByOwnerIDs flips wallet active flags for the given owners. Owners
// without wallets (root, managers) simply match no rows.
func (r *walletRepository) SetActiveByOwnerIDs(ctx context.Context, ownerIDs []uuid.UUID, active bool) error {
	if len(ownerIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("owner_id IN ?", ownerIDs).
		Update("is_active", active).Error
}

func (r *walletRepository) CountTransactionReferences(ctx context.Context, walletID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("sender_wallet_id = ? OR recipient_wallet_id = ?", walletID, walletID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *walletRepository) DeleteByOwnerID(ctx context.Context, ownerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&models.Wallet{}).Error
}
