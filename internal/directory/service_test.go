package directory

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
	"github.com/birrflow/birrflow-backend/pkg/db"
	"github.com/birrflow/birrflow-backend/pkg/db/models"
	"github.com/birrflow/birrflow-backend/pkg/enums"
)

func setupDirectoryTestDB(t *testing.T) *gorm.DB {
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

type directoryFixture struct {
	svc           Service
	root          *models.Account
	manager       *models.Account
	other         *models.Account
	members       []*models.Account
	orphan        *models.Account
	walletByOwner map[uuid.UUID]*models.Wallet
}

func seedDirectory(t *testing.T) *directoryFixture {
	t.Helper()

	conn := setupDirectoryTestDB(t)
	svc, err := NewService(db.NewWithConn(conn), NewRepository(conn))
	require.NoError(t, err)

	root := &models.Account{ID: uuid.New(), Name: "Root", Email: "root@birrflow.app", PasswordHash: "x", Role: enums.AccountRoleRoot, IsActive: true}
	manager := &models.Account{ID: uuid.New(), Name: "Manager A", Email: "mgr-a@birrflow.app", PasswordHash: "x", Role: enums.AccountRoleManager, ManagerID: &root.ID, IsActive: true}
	other := &models.Account{ID: uuid.New(), Name: "Manager B", Email: "mgr-b@birrflow.app", PasswordHash: "x", Role: enums.AccountRoleManager, ManagerID: &root.ID, IsActive: true}

	m1 := &models.Account{ID: uuid.New(), Name: "Member One", Email: "m1@birrflow.app", PasswordHash: "x", Role: enums.AccountRoleMember, ManagerID: &manager.ID, IsActive: true}
	m2 := &models.Account{ID: uuid.New(), Name: "Member Two", Email: "m2@birrflow.app", PasswordHash: "x", Role: enums.AccountRoleMember, ManagerID: &manager.ID, IsActive: false}
	orphan := &models.Account{ID: uuid.New(), Name: "Member Elsewhere", Email: "m3@birrflow.app", PasswordHash: "x", Role: enums.AccountRoleMember, ManagerID: &other.ID, IsActive: true}

	walletByOwner := map[uuid.UUID]*models.Wallet{}
	for _, account := range []*models.Account{root, manager, other, m1, m2, orphan} {
		// GORM omits zero-valued fields carrying a `default` tag on Create
		// (and writes the default back into the struct), so persist the
		// inactive flag explicitly after the insert.
		inactive := !account.IsActive
		require.NoError(t, conn.Create(account).Error)
		if inactive {
			account.IsActive = false
			require.NoError(t, conn.Model(account).Update("is_active", false).Error)
		}
	}
	for owner, amount := range map[*models.Account]string{m1: "700.00", m2: "1300.00", orphan: "500.00"} {
		wallet := &models.Wallet{
			ID:       uuid.New(),
			OwnerID:  owner.ID,
			Balance:  decimal.RequireFromString(amount),
			Currency: "ETB",
			IsActive: owner.IsActive,
		}
		inactive := !wallet.IsActive
		require.NoError(t, conn.Create(wallet).Error)
		if inactive {
			wallet.IsActive = false
			require.NoError(t, conn.Model(wallet).Update("is_active", false).Error)
		}
		walletByOwner[owner.ID] = wallet
	}

	// One transfer inside manager A's scope, one crossing into B's.
	require.NoError(t, conn.Create(&models.Transaction{
		ID: uuid.New(), SenderID: m1.ID, RecipientID: m2.ID,
		SenderWalletID: walletByOwner[m1.ID].ID, RecipientWalletID: walletByOwner[m2.ID].ID,
		Amount: decimal.RequireFromString("300.00"), Currency: "ETB",
		Status: enums.TransactionStatusCompleted, ReferenceNumber: "TXN-20260110-aaaaaaaaaa",
	}).Error)
	require.NoError(t, conn.Create(&models.Transaction{
		ID: uuid.New(), SenderID: m1.ID, RecipientID: orphan.ID,
		SenderWalletID: walletByOwner[m1.ID].ID, RecipientWalletID: walletByOwner[orphan.ID].ID,
		Amount: decimal.RequireFromString("100.00"), Currency: "ETB",
		Status: enums.TransactionStatusCompleted, ReferenceNumber: "TXN-20260110-bbbbbbbbbb",
	}).Error)

	return &directoryFixture{
		svc: svc, root: root, manager: manager, other: other,
		members: []*models.Account{m1, m2}, orphan: orphan, walletByOwner: walletByOwner,
	}
}

func actorFor(account *models.Account) authz.Actor {
	return authz.Actor{ID: account.ID, Role: account.Role, IsActive: account.IsActive}
}

func TestListVisibleAccounts(t *testing.T) {
	f := seedDirectory(t)
	ctx := context.Background()

	all, err := f.svc.ListVisibleAccounts(ctx, actorFor(f.root))
	require.NoError(t, err)
	assert.Len(t, all, 6)

	scoped, err := f.svc.ListVisibleAccounts(ctx, actorFor(f.manager))
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	got := map[uuid.UUID]bool{}
	for _, account := range scoped {
		got[account.ID] = true
	}
	for _, member := range f.members {
		assert.True(t, got[member.ID], "manager scope must contain %s", member.Name)
	}

	self, err := f.svc.ListVisibleAccounts(ctx, actorFor(f.members[0]))
	require.NoError(t, err)
	require.Len(t, self, 1)
	assert.Equal(t, f.members[0].ID, self[0].ID)
}

func TestAggregateStats_ManagerScope(t *testing.T) {
	f := seedDirectory(t)

	stats, err := f.svc.AggregateStats(context.Background(), actorFor(f.manager))
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.TotalAccounts)
	assert.EqualValues(t, 1, stats.ActiveAccounts)
	assert.EqualValues(t, 1, stats.InactiveAccounts)
	assert.True(t, stats.TotalWalletBalance.Equal(decimal.RequireFromString("2000.00")), "balance = %s", stats.TotalWalletBalance)
	// Both transactions involve manager A's members.
	assert.EqualValues(t, 2, stats.TransactionCount)
	assert.True(t, stats.TransactionVolume.Equal(decimal.RequireFromString("400.00")), "volume = %s", stats.TransactionVolume)

	// The role-specific sections stay empty for managers.
	assert.Nil(t, stats.Member)
	assert.Nil(t, stats.Root)
}

func TestAggregateStats_MemberScope(t *testing.T) {
	f := seedDirectory(t)

	stats, err := f.svc.AggregateStats(context.Background(), actorFor(f.members[0]))
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats.TotalAccounts)
	assert.True(t, stats.TotalWalletBalance.Equal(decimal.RequireFromString("700.00")))
	assert.EqualValues(t, 2, stats.TransactionCount)

	// Member One sent both transfers and received nothing.
	require.NotNil(t, stats.Member)
	assert.EqualValues(t, 2, stats.Member.SentCount)
	assert.True(t, stats.Member.SentAmount.Equal(decimal.RequireFromString("400.00")), "sent = %s", stats.Member.SentAmount)
	assert.EqualValues(t, 0, stats.Member.ReceivedCount)
	assert.True(t, stats.Member.ReceivedAmount.IsZero(), "received = %s", stats.Member.ReceivedAmount)
	assert.Nil(t, stats.Root)
}

func TestAggregateStats_MemberReceivedSplit(t *testing.T) {
	f := seedDirectory(t)

	stats, err := f.svc.AggregateStats(context.Background(), actorFor(f.orphan))
	require.NoError(t, err)

	require.NotNil(t, stats.Member)
	assert.EqualValues(t, 0, stats.Member.SentCount)
	assert.EqualValues(t, 1, stats.Member.ReceivedCount)
	assert.True(t, stats.Member.ReceivedAmount.Equal(decimal.RequireFromString("100.00")), "received = %s", stats.Member.ReceivedAmount)
}

func TestAggregateStats_RootScope(t *testing.T) {
	f := seedDirectory(t)

	stats, err := f.svc.AggregateStats(context.Background(), actorFor(f.root))
	require.NoError(t, err)

	assert.EqualValues(t, 6, stats.TotalAccounts)
	assert.EqualValues(t, 5, stats.ActiveAccounts)
	assert.EqualValues(t, 1, stats.InactiveAccounts)
	assert.True(t, stats.TotalWalletBalance.Equal(decimal.RequireFromString("2500.00")))
	assert.EqualValues(t, 2, stats.TransactionCount)

	// Both seeded transfers were created in this test run, so they count as
	// today's activity.
	require.NotNil(t, stats.Root)
	assert.EqualValues(t, 2, stats.Root.TodayTransactionCount)
	assert.True(t, stats.Root.TodayTransactionAmount.Equal(decimal.RequireFromString("400.00")), "today = %s", stats.Root.TodayTransactionAmount)
	assert.Nil(t, stats.Member)
}

func TestListCandidateRecipients(t *testing.T) {
	f := seedDirectory(t)
	ctx := context.Background()

	recipients, err := f.svc.ListCandidateRecipients(ctx, actorFor(f.members[0]))
	require.NoError(t, err)

	// Active members only, excluding the actor: orphan member qualifies,
	// the inactive sibling does not.
	require.Len(t, recipients, 1)
	assert.Equal(t, f.orphan.ID, recipients[0].ID)
	assert.Equal(t, f.orphan.Name, recipients[0].Name)
}

func TestDirectoryRejectsInactiveActor(t *testing.T) {
	f := seedDirectory(t)
	ctx := context.Background()

	inactive := authz.Actor{ID: f.members[1].ID, Role: enums.AccountRoleMember, IsActive: false}
	_, err := f.svc.ListVisibleAccounts(ctx, inactive)
	require.Error(t, err)
	_, err = f.svc.AggregateStats(ctx, inactive)
	require.Error(t, err)
	_, err = f.svc.ListCandidateRecipients(ctx, inactive)
	require.Error(t, err)
}
