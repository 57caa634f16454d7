package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HomeBalanceName is the implicit pseudo-member a transaction falls
// back to when it carries no member reference. Real members may not
// take this name.
const HomeBalanceName = "Home Balance"

// FamilyMember represents a family member within an owner's household
type FamilyMember struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   string    `gorm:"column:owner_id;size:36;index;not null" json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

// TableName specifies the table name for FamilyMember model
func (FamilyMember) TableName() string {
	return "family_members"
}

func (m *FamilyMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// SetOwner assigns the owning identity.
func (m *FamilyMember) SetOwner(owner string) {
	m.OwnerID = owner
}

// FamilyMemberRequest is used for creating and updating family members
type FamilyMemberRequest struct {
	Name string `json:"name"`
}
