package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/events"
	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/store"
)

// FamilyMemberService defines the interface for family member operations
type FamilyMemberService interface {
	GetFamilyMembers(owner string) ([]models.FamilyMember, error)
	CreateFamilyMember(owner string, req models.FamilyMemberRequest) (models.FamilyMember, error)
	UpdateFamilyMember(owner, id string, req models.FamilyMemberRequest) (models.FamilyMember, error)
	DeleteFamilyMember(owner, id string) error
}

// familyMemberService implements the FamilyMemberService interface
type familyMemberService struct {
	db      *gorm.DB
	members *store.Collection[models.FamilyMember, *models.FamilyMember]
}

// NewFamilyMemberService creates a new family member service
func NewFamilyMemberService(db *gorm.DB, bus *events.Bus) FamilyMemberService {
	return &familyMemberService{
		db:      db,
		members: store.NewCollection[models.FamilyMember, *models.FamilyMember](db, bus, models.TopicMembers, ""),
	}
}

// GetFamilyMembers returns all family members for an owner
func (s *familyMemberService) GetFamilyMembers(owner string) ([]models.FamilyMember, error) {
	return s.members.Snapshot(owner)
}

// CreateFamilyMember creates a new family member
func (s *familyMemberService) CreateFamilyMember(owner string, req models.FamilyMemberRequest) (models.FamilyMember, error) {
	name, err := validateMemberName(req.Name)
	if err != nil {
		return models.FamilyMember{}, err
	}

	member := models.FamilyMember{Name: name}
	if err := s.members.Create(owner, &member); err != nil {
		return models.FamilyMember{}, err
	}
	return member, nil
}

// UpdateFamilyMember renames a family member
func (s *familyMemberService) UpdateFamilyMember(owner, id string, req models.FamilyMemberRequest) (models.FamilyMember, error) {
	name, err := validateMemberName(req.Name)
	if err != nil {
		return models.FamilyMember{}, err
	}

	if err := s.members.Update(owner, id, map[string]interface{}{"name": name}); err != nil {
		return models.FamilyMember{}, err
	}

	updated, err := s.members.Get(owner, id)
	if err != nil {
		return models.FamilyMember{}, err
	}
	return *updated, nil
}

// DeleteFamilyMember deletes a family member unless transactions
// still reference it
func (s *familyMemberService) DeleteFamilyMember(owner, id string) error {
	if owner == "" {
		return common.ErrNotAuthenticated
	}

	var referenced int64
	err := s.db.Model(&models.Transaction{}).
		Where("owner_id = ? AND member_id = ?", owner, id).
		Count(&referenced).Error
	if err != nil {
		return err
	}
	if referenced > 0 {
		return common.ErrInUse
	}

	return s.members.Delete(owner, id)
}

// validateMemberName trims and checks a member name. The implicit
// "Home Balance" pseudo-member may not be shadowed by a real one.
func validateMemberName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", common.NewValidationError("name", "name is required")
	}
	if strings.EqualFold(name, models.HomeBalanceName) {
		return "", common.NewValidationError("name", `"`+models.HomeBalanceName+`" is reserved`)
	}
	return name, nil
}
