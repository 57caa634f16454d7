package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is a single income or expense entry. Amount is always
// non-negative; Type carries the direction. An empty MemberID
// attributes the entry to the household itself.
type Transaction struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	OwnerID     string          `gorm:"column:owner_id;size:36;index;not null" json:"-"`
	Type        FlowType        `json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2)" json:"amount"`
	CategoryID  string          `gorm:"column:category_id;size:36;index" json:"categoryId"`
	MemberID    string          `gorm:"column:member_id;size:36;index" json:"memberId,omitempty"`
	Date        Date            `gorm:"type:date;index" json:"date"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" gorm:"column:updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// SetOwner assigns the owning identity.
func (t *Transaction) SetOwner(owner string) {
	t.OwnerID = owner
}

// TransactionRequest is used for creating transactions
type TransactionRequest struct {
	Type        FlowType        `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  string          `json:"categoryId"`
	MemberID    string          `json:"memberId"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
}

// TransactionUpdate carries a partial edit; nil fields are left
// untouched.
type TransactionUpdate struct {
	Type        *FlowType        `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	CategoryID  *string          `json:"categoryId"`
	MemberID    *string          `json:"memberId"`
	Date        *Date            `json:"date"`
	Description *string          `json:"description"`
}

// TransactionFilter narrows list queries. Zero values mean "any".
type TransactionFilter struct {
	Type       FlowType
	CategoryID string
	MemberID   string
	From       Date
	To         Date
}
