package directory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stats aggregates the actor's scope: account counts, wallet holdings, and
// transaction activity, all computed from one consistent snapshot. The
// role-specific sections are populated for the matching actor only.
type Stats struct {
	TotalAccounts      int64           `json:"total_accounts"`
	ActiveAccounts     int64           `json:"active_accounts"`
	InactiveAccounts   int64           `json:"inactive_accounts"`
	TotalWalletBalance decimal.Decimal `json:"total_wallet_balance"`
	TransactionCount   int64           `json:"transaction_count"`
	TransactionVolume  decimal.Decimal `json:"transaction_volume"`

	Member *MemberStats `json:"member,omitempty"`
	Root   *RootStats   `json:"root,omitempty"`
}

// MemberStats splits a member's activity by direction.
type MemberStats struct {
	SentCount      int64           `json:"sent_count"`
	SentAmount     decimal.Decimal `json:"sent_amount"`
	ReceivedCount  int64           `json:"received_count"`
	ReceivedAmount decimal.Decimal `json:"received_amount"`
}

// RootStats carries the system-wide figures only root sees.
type RootStats struct {
	TodayTransactionCount  int64           `json:"today_transaction_count"`
	TodayTransactionAmount decimal.Decimal `json:"today_transaction_amount"`
}

// Recipient is the minimal shape the transfer form needs.
type Recipient struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
