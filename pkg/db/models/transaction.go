package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/birrflow/birrflow-backend/pkg/enums"
)

// Transaction is the immutable record of a committed transfer. Rows are
// append-only: status, amount, and party fields are never updated after
// creation, and the engine writes rows only for completed transfers.
type Transaction struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	SenderID          uuid.UUID               `gorm:"column:sender_id;type:uuid;not null;index"`
	RecipientID       uuid.UUID               `gorm:"column:recipient_id;type:uuid;not null;index"`
	SenderWalletID    uuid.UUID               `gorm:"column:sender_wallet_id;type:uuid;not null;index"`
	RecipientWalletID uuid.UUID               `gorm:"column:recipient_wallet_id;type:uuid;not null;index"`
	Amount            decimal.Decimal         `gorm:"column:amount;type:numeric(15,2);not null"`
	Currency          string                  `gorm:"column:currency;type:varchar(4);not null;default:'ETB'"`
	Description       *string                 `gorm:"column:description;type:text"`
	Status            enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	ReferenceNumber   string                  `gorm:"column:reference_number;not null;uniqueIndex"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
}
