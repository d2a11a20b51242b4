package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/birrflow/birrflow-backend/pkg/db/models"
	"github.com/birrflow/birrflow-backend/pkg/enums"
)

// TransferInput captures a transfer request from the authenticated sender.
type TransferInput struct {
	RecipientID uuid.UUID       `json:"recipient_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Currency    string          `json:"currency" validate:"omitempty,max=3"`
	Description *string         `json:"description" validate:"omitempty,max=500"`
}

// TransferResult is returned on a committed transfer.
type TransferResult struct {
	Transaction   *models.Transaction
	SenderBalance decimal.Decimal
}

// TransactionResponse is the wire shape of a committed transaction.
type TransactionResponse struct {
	ID                uuid.UUID               `json:"id"`
	SenderID          uuid.UUID               `json:"sender_id"`
	RecipientID       uuid.UUID               `json:"recipient_id"`
	SenderWalletID    uuid.UUID               `json:"sender_wallet_id"`
	RecipientWalletID uuid.UUID               `json:"recipient_wallet_id"`
	Amount            decimal.Decimal         `json:"amount"`
	Currency          string                  `json:"currency"`
	Description       *string                 `json:"description,omitempty"`
	Status            enums.TransactionStatus `json:"status"`
	ReferenceNumber   string                  `json:"reference_number"`
	CreatedAt         time.Time               `json:"created_at"`
}

// NewTransactionResponse maps a model to its wire shape.
func NewTransactionResponse(txn *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                txn.ID,
		SenderID:          txn.SenderID,
		RecipientID:       txn.RecipientID,
		SenderWalletID:    txn.SenderWalletID,
		RecipientWalletID: txn.RecipientWalletID,
		Amount:            txn.Amount,
		Currency:          txn.Currency,
		Description:       txn.Description,
		Status:            txn.Status,
		ReferenceNumber:   txn.ReferenceNumber,
		CreatedAt:         txn.CreatedAt,
	}
}

// NewTransactionResponses maps a slice of models to wire shapes.
func NewTransactionResponses(txns []models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, NewTransactionResponse(&txns[i]))
	}
	return out
}

// TransferResponse pairs the committed transaction with the sender's
// post-transfer balance.
type TransferResponse struct {
	Transaction   TransactionResponse `json:"transaction"`
	SenderBalance decimal.Decimal     `json:"sender_balance"`
}

// NewTransferResponse maps a transfer result to its wire shape.
func NewTransferResponse(result *TransferResult) TransferResponse {
	return TransferResponse{
		Transaction:   NewTransactionResponse(result.Transaction),
		SenderBalance: result.SenderBalance,
	}
}
