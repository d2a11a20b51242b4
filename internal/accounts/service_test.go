package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/birrflow/birrflow-backend/internal/authz"
	"github.com/birrflow/birrflow-backend/pkg/config"
	"github.com/birrflow/birrflow-backend/pkg/db"
	"github.com/birrflow/birrflow-backend/pkg/db/models"
	"github.com/birrflow/birrflow-backend/pkg/enums"
	apperrors "github.com/birrflow/birrflow-backend/pkg/errors"
)

func setupAccountsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	accounts := `
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  manager_id TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	wallets := `
CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL UNIQUE,
  balance NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'ETB',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  sender_id TEXT NOT NULL,
  recipient_id TEXT NOT NULL,
  sender_wallet_id TEXT NOT NULL,
  recipient_wallet_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'ETB',
  description TEXT,
  status TEXT NOT NULL DEFAULT 'completed',
  reference_number TEXT NOT NULL UNIQUE,
  created_at DATETIME
);`

	for _, stmt := range []string{accounts, wallets, transactions} {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	for _, table := range []string{"transactions", "wallets", "accounts"} {
		require.NoError(t, conn.Exec("DELETE FROM "+table).Error)
	}
	return conn
}

func testLedgerConfig() config.LedgerConfig {
	return config.LedgerConfig{
		InitialBalance:    "1000.00",
		DefaultCurrency:   "ETB",
		ReferenceAttempts: 5,
		TransientAttempts: 1,
	}
}

func newTestService(t *testing.T, conn *gorm.DB) (Service, Repository, WalletRepository) {
	t.Helper()

	repo := NewRepository(conn)
	wallets := NewWalletRepository(conn)
	svc, err := NewService(db.NewWithConn(conn), repo, wallets, config.PasswordConfig{}, testLedgerConfig(), nil)
	require.NoError(t, err)
	return svc, repo, wallets
}

func rootActor() authz.Actor {
	return authz.Actor{ID: uuid.New(), Role: enums.AccountRoleRoot, IsActive: true}
}

func TestService_CreateMemberProvisionsWallet(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc, _, wallets := newTestService(t, conn)
	ctx := context.Background()

	root := rootActor()
	manager, err := svc.Create(ctx, root, CreateAccountInput{
		Name:     "Manager One",
		Email:    "manager@birrflow.app",
		Password: "s3cret-pass",
		Role:     enums.AccountRoleManager,
	})
	require.NoError(t, err)
	require.NotNil(t, manager.ManagerID)
	assert.Equal(t, root.ID, *manager.ManagerID)

	// Managers never carry wallets.
	_, err = wallets.GetByOwnerID(ctx, manager.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	managerActor := authz.Actor{ID: manager.ID, Role: manager.Role, IsActive: true}
	member, err := svc.Create(ctx, managerActor, CreateAccountInput{
		Name:     "Member One",
		Email:    "member@birrflow.app",
		Password: "s3cret-pass",
		Role:     enums.AccountRoleMember,
	})
	require.NoError(t, err)

	wallet, err := wallets.GetByOwnerID(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, wallet.IsActive)
	assert.Equal(t, "ETB", wallet.Currency)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("1000.00")), "balance = %s", wallet.Balance)
}

func TestService_CreateRejectsRoleViolations(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc, _, _ := newTestService(t, conn)
	ctx := context.Background()

	memberActor := authz.Actor{ID: uuid.New(), Role: enums.AccountRoleMember, IsActive: true}
	_, err := svc.Create(ctx, memberActor, CreateAccountInput{
		Name:     "Nope",
		Email:    "nope@birrflow.app",
		Password: "s3cret-pass",
		Role:     enums.AccountRoleMember,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonNotAuthorized, apperrors.ReasonOf(err))

	_, err = svc.Create(ctx, rootActor(), CreateAccountInput{
		Name:     "Skip Tier",
		Email:    "skip@birrflow.app",
		Password: "s3cret-pass",
		Role:     enums.AccountRoleMember,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonInvalidRoleTransition, apperrors.ReasonOf(err))
}

func TestService_CreateDuplicateEmail(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc, _, _ := newTestService(t, conn)
	ctx := context.Background()

	input := CreateAccountInput{
		Name:     "Manager",
		Email:    "dup@birrflow.app",
		Password: "s3cret-pass",
		Role:     enums.AccountRoleManager,
	}
	_, err := svc.Create(ctx, rootActor(), input)
	require.NoError(t, err)

	_, err = svc.Create(ctx, rootActor(), input)
	require.Error(t, err)
	typed := apperrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, apperrors.CodeConflict, typed.Code())
}

func seedHierarchy(t *testing.T, svc Service) (authz.Actor, *models.Account, *models.Account, *models.Account) {
	t.Helper()
	ctx := context.Background()

	root := rootActor()
	manager, err := svc.Create(ctx, root, CreateAccountInput{
		Name:     "Manager",
		Email:    "cascade-manager@birrflow.app",
		Password: "s3cret-pass",
		Role:     enums.AccountRoleManager,
	})
	require.NoError(t, err)

	managerActor := authz.Actor{ID: manager.ID, Role: manager.Role, IsActive: true}
	memberOne, err := svc.Create(ctx, managerActor, CreateAccountInput{
		Name:     "Member One",
		Email:    "cascade-member-1@birrflow.app",
		Password: "s3cret-pass",
		Role:     enums.AccountRoleMember,
	})
	require.NoError(t, err)
	memberTwo, err := svc.Create(ctx, managerActor, CreateAccountInput{
		Name:     "Member Two",
		Email:    "cascade-member-2@birrflow.app",
		Password: "s3cret-pass",
		Role:     enums.AccountRoleMember,
	})
	require.NoError(t, err)

	return root, manager, memberOne, memberTwo
}

func TestService_SetActiveCascadesToReportsAndWallets(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc, repo, wallets := newTestService(t, conn)
	ctx := context.Background()

	root, manager, memberOne, memberTwo := seedHierarchy(t, svc)

	require.NoError(t, svc.SetActive(ctx, root, manager.ID, false))

	for _, id := range []uuid.UUID{manager.ID, memberOne.ID, memberTwo.ID} {
		account, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, account.IsActive, "account %s should be inactive", id)
	}
	for _, id := range []uuid.UUID{memberOne.ID, memberTwo.ID} {
		wallet, err := wallets.GetByOwnerID(ctx, id)
		require.NoError(t, err)
		assert.False(t, wallet.IsActive, "wallet of %s should be inactive", id)
	}

	// Reactivation walks the same cascade back up.
	require.NoError(t, svc.SetActive(ctx, root, manager.ID, true))
	for _, id := range []uuid.UUID{manager.ID, memberOne.ID, memberTwo.ID} {
		account, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, account.IsActive)
	}
}

func TestService_SetActiveMemberDoesNotCascade(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc, repo, _ := newTestService(t, conn)
	ctx := context.Background()

	root, manager, memberOne, memberTwo := seedHierarchy(t, svc)

	require.NoError(t, svc.SetActive(ctx, root, memberOne.ID, false))

	account, err := repo.GetByID(ctx, memberOne.ID)
	require.NoError(t, err)
	assert.False(t, account.IsActive)

	for _, id := range []uuid.UUID{manager.ID, memberTwo.ID} {
		account, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, account.IsActive, "siblings and manager must be untouched")
	}
}

func TestService_SetActiveOutOfScope(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc, _, _ := newTestService(t, conn)
	ctx := context.Background()

	_, _, memberOne, _ := seedHierarchy(t, svc)

	foreignManager := authz.Actor{ID: uuid.New(), Role: enums.AccountRoleManager, IsActive: true}
	err := svc.SetActive(ctx, foreignManager, memberOne.ID, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonOutOfScope, apperrors.ReasonOf(err))
}

func TestService_DeleteGuards(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc, _, wallets := newTestService(t, conn)
	ctx := context.Background()

	root, manager, memberOne, memberTwo := seedHierarchy(t, svc)

	err := svc.Delete(ctx, root, manager.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonManagerHasReports, apperrors.ReasonOf(err))

	// A wallet referenced by any transaction blocks deletion.
	walletOne, err := wallets.GetByOwnerID(ctx, memberOne.ID)
	require.NoError(t, err)
	walletTwo, err := wallets.GetByOwnerID(ctx, memberTwo.ID)
	require.NoError(t, err)
	require.NoError(t, conn.Create(&models.Transaction{
		ID:                uuid.New(),
		SenderID:          memberOne.ID,
		RecipientID:       memberTwo.ID,
		SenderWalletID:    walletOne.ID,
		RecipientWalletID: walletTwo.ID,
		Amount:            decimal.RequireFromString("10.00"),
		Currency:          "ETB",
		Status:            enums.TransactionStatusCompleted,
		ReferenceNumber:   "TXN-20260101-0000000001",
	}).Error)

	err = svc.Delete(ctx, root, memberOne.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonWalletReferenced, apperrors.ReasonOf(err))

	// A fresh member with no transaction history can be removed.
	managerActor := authz.Actor{ID: manager.ID, Role: manager.Role, IsActive: true}
	fresh, err := svc.Create(ctx, managerActor, CreateAccountInput{
		Name:     "Fresh",
		Email:    "fresh@birrflow.app",
		Password: "s3cret-pass",
		Role:     enums.AccountRoleMember,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, root, fresh.ID))

	_, err = wallets.GetByOwnerID(ctx, fresh.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestService_GetScoping(t *testing.T) {
	conn := setupAccountsTestDB(t)
	svc, _, _ := newTestService(t, conn)
	ctx := context.Background()

	_, manager, memberOne, _ := seedHierarchy(t, svc)

	managerActor := authz.Actor{ID: manager.ID, Role: manager.Role, IsActive: true}
	got, err := svc.Get(ctx, managerActor, memberOne.ID)
	require.NoError(t, err)
	assert.Equal(t, memberOne.ID, got.ID)

	memberActor := authz.Actor{ID: memberOne.ID, Role: enums.AccountRoleMember, IsActive: true}
	_, err = svc.Get(ctx, memberActor, manager.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonNotAuthorized, apperrors.ReasonOf(err))

	_, err = svc.Get(ctx, managerActor, uuid.New())
	require.Error(t, err)
	typed := apperrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, apperrors.CodeNotFound, typed.Code())
}
