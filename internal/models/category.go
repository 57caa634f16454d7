package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlowType partitions money movement into the two directions the
// ledger tracks. Categories carry one, and transaction entry filters
// the category picker by it.
type FlowType string

const (
	FlowIncome  FlowType = "income"
	FlowExpense FlowType = "expense"
)

// Valid reports whether t is a known flow direction.
func (t FlowType) Valid() bool {
	return t == FlowIncome || t == FlowExpense
}

// Category labels transactions of one flow direction. Color is a
// display token and Icon a symbolic key into the client's icon set;
// the server stores both opaquely.
type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   string    `gorm:"column:owner_id;size:36;index;not null" json:"-"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	Type      FlowType  `json:"type"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// SetOwner assigns the owning identity.
func (c *Category) SetOwner(owner string) {
	c.OwnerID = owner
}

// CategoryRequest is used for creating categories
type CategoryRequest struct {
	Name  string   `json:"name"`
	Color string   `json:"color"`
	Icon  string   `json:"icon"`
	Type  FlowType `json:"type"`
}

// CategoryUpdate carries a partial edit; nil fields are left
// untouched.
type CategoryUpdate struct {
	Name  *string   `json:"name"`
	Color *string   `json:"color"`
	Icon  *string   `json:"icon"`
	Type  *FlowType `json:"type"`
}
