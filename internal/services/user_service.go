package services

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/events"
	"github.com/famledger/famledger/internal/models"
)

// UserService defines the interface for profile operations. Reads
// serve both the admin panel and each user's own access checks;
// mutations are admin-only and are enforced at the routing layer.
type UserService interface {
	GetUsers() ([]models.User, error)
	GetUserByID(id string) (models.User, error)
	UpdateUserStatus(id string, update models.UserStatusUpdate) (models.User, error)
}

// userService implements the UserService interface
type userService struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, bus *events.Bus) UserService {
	return &userService{
		db:  db,
		bus: bus,
	}
}

// GetUsers returns all user profiles, oldest first
func (s *userService) GetUsers() ([]models.User, error) {
	var users []models.User
	result := s.db.Select("id, email, username, role, status, access_expires_at, created_at, updated_at").
		Order("created_at").Find(&users) // Exclude password field
	return users, result.Error
}

// GetUserByID returns a user profile by id
func (s *userService) GetUserByID(id string) (models.User, error) {
	var user models.User
	err := s.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, common.ErrNotFound
	}
	return user, err
}

// UpdateUserStatus applies an admin review decision. An absent
// accessExpiresAt key leaves the grant unchanged, an explicit null
// clears it, and a timestamp sets it. Moving away from approved
// always clears the grant, since expiry only means something for an
// approved account.
func (s *userService) UpdateUserStatus(id string, update models.UserStatusUpdate) (models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, common.ErrNotFound
		}
		return models.User{}, err
	}

	fields := map[string]interface{}{}

	if update.Status != nil {
		if !update.Status.Valid() {
			return models.User{}, common.NewValidationError("status", "must be pending, approved or rejected")
		}
		fields["status"] = *update.Status
	}

	if len(update.AccessExpiresAt) > 0 && string(update.AccessExpiresAt) != "null" {
		status := user.Status
		if update.Status != nil {
			status = *update.Status
		}
		if status != models.StatusApproved {
			return models.User{}, common.NewValidationError("accessExpiresAt", "only approved accounts can carry an expiry")
		}
		var expiresAt time.Time
		if err := json.Unmarshal(update.AccessExpiresAt, &expiresAt); err != nil {
			return models.User{}, common.NewValidationError("accessExpiresAt", "must be an RFC 3339 timestamp or null")
		}
		fields["access_expires_at"] = expiresAt
	} else if string(update.AccessExpiresAt) == "null" {
		fields["access_expires_at"] = nil
	}

	// Expiry only means something for an approved account.
	if update.Status != nil && *update.Status != models.StatusApproved {
		fields["access_expires_at"] = nil
	}

	if len(fields) == 0 {
		return user, nil
	}

	if err := s.db.Model(&user).Updates(fields).Error; err != nil {
		return models.User{}, err
	}

	if s.bus != nil {
		s.bus.Publish(events.Event{Topic: models.TopicUsers})
		s.bus.Publish(events.Event{Owner: user.ID, Topic: models.TopicProfile})
	}

	refreshed, err := s.GetUserByID(id)
	if err != nil {
		return models.User{}, err
	}
	return refreshed, nil
}
