package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/birrflow/birrflow-backend/pkg/db/models"
	"github.com/birrflow/birrflow-backend/pkg/enums"
)

// CreateAccountInput captures the attributes a privileged actor supplies when
// creating a subordinate account. The manager link is always the actor.
type CreateAccountInput struct {
	Name     string            `json:"name" validate:"required,max=255"`
	Email    string            `json:"email" validate:"required,email,max=255"`
	Password string            `json:"password" validate:"required,min=8,max=72"`
	Role     enums.AccountRole `json:"role" validate:"required"`
}

// AccountResponse is the wire shape of an account. Credentials never leave
// the service layer.
type AccountResponse struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Role      enums.AccountRole `json:"role"`
	ManagerID *uuid.UUID        `json:"manager_id,omitempty"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewAccountResponse maps a model to its wire shape.
func NewAccountResponse(account *models.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Role:      account.Role,
		ManagerID: account.ManagerID,
		IsActive:  account.IsActive,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

// WalletResponse is the wire shape of a wallet.
type WalletResponse struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewWalletResponse maps a model to its wire shape.
func NewWalletResponse(wallet *models.Wallet) WalletResponse {
	return WalletResponse{
		ID:        wallet.ID,
		OwnerID:   wallet.OwnerID,
		Balance:   wallet.Balance,
		Currency:  wallet.Currency,
		IsActive:  wallet.IsActive,
		CreatedAt: wallet.CreatedAt,
		UpdatedAt: wallet.UpdatedAt,
	}
}

// NewAccountResponses maps a slice of models to wire shapes.
func NewAccountResponses(accounts []models.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, NewAccountResponse(&accounts[i]))
	}
	return out
}
