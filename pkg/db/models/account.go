package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/birrflow/birrflow-backend/pkg/enums"
)

// Account is a participant in the hierarchy. ManagerID points one tier up:
// nil for root, a root account for managers, a manager account for members.
type Account struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name         string            `gorm:"column:name;not null"`
	Email        string            `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string            `gorm:"column:password_hash;not null"`
	Role         enums.AccountRole `gorm:"column:role;type:text;not null"`
	ManagerID    *uuid.UUID        `gorm:"column:manager_id;type:uuid;index"`
	IsActive     bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
