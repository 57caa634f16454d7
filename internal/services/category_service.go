package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/events"
	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/store"
)

// CategoryService defines the interface for category operations
type CategoryService interface {
	GetCategories(owner string) ([]models.Category, error)
	CreateCategory(owner string, req models.CategoryRequest) (models.Category, error)
	UpdateCategory(owner, id string, update models.CategoryUpdate) (models.Category, error)
	DeleteCategory(owner, id string) error
	SeedDefaults(owner string) error
}

// categoryService implements the CategoryService interface
type categoryService struct {
	db         *gorm.DB
	categories *store.Collection[models.Category, *models.Category]
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, bus *events.Bus) CategoryService {
	return &categoryService{
		db:         db,
		categories: store.NewCollection[models.Category, *models.Category](db, bus, models.TopicCategories, ""),
	}
}

// GetCategories returns all categories for an owner
func (s *categoryService) GetCategories(owner string) ([]models.Category, error) {
	return s.categories.Snapshot(owner)
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(owner string, req models.CategoryRequest) (models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Category{}, common.NewValidationError("name", "name is required")
	}
	if !req.Type.Valid() {
		return models.Category{}, common.NewValidationError("type", "must be income or expense")
	}

	category := models.Category{
		Name:  name,
		Color: req.Color,
		Icon:  req.Icon,
		Type:  req.Type,
	}
	if err := s.categories.Create(owner, &category); err != nil {
		return models.Category{}, err
	}
	return category, nil
}

// UpdateCategory merges the provided fields into a category
func (s *categoryService) UpdateCategory(owner, id string, update models.CategoryUpdate) (models.Category, error) {
	fields := map[string]interface{}{}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return models.Category{}, common.NewValidationError("name", "name is required")
		}
		fields["name"] = name
	}
	if update.Color != nil {
		fields["color"] = *update.Color
	}
	if update.Icon != nil {
		fields["icon"] = *update.Icon
	}
	if update.Type != nil {
		if !update.Type.Valid() {
			return models.Category{}, common.NewValidationError("type", "must be income or expense")
		}
		fields["type"] = *update.Type
	}

	if err := s.categories.Update(owner, id, fields); err != nil {
		return models.Category{}, err
	}

	updated, err := s.categories.Get(owner, id)
	if err != nil {
		return models.Category{}, err
	}
	return *updated, nil
}

// DeleteCategory deletes a category unless transactions still
// reference it
func (s *categoryService) DeleteCategory(owner, id string) error {
	if owner == "" {
		return common.ErrNotAuthenticated
	}

	var referenced int64
	err := s.db.Model(&models.Transaction{}).
		Where("owner_id = ? AND category_id = ?", owner, id).
		Count(&referenced).Error
	if err != nil {
		return err
	}
	if referenced > 0 {
		return common.ErrInUse
	}

	return s.categories.Delete(owner, id)
}

// SeedDefaults installs the starter category set for a new account.
// Owners who already have categories keep what they have.
func (s *categoryService) SeedDefaults(owner string) error {
	existing, err := s.categories.Snapshot(owner)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	defaults := []*models.Category{
		{Name: "Salary", Color: "#2e7d32", Icon: "wallet", Type: models.FlowIncome},
		{Name: "Other Income", Color: "#558b2f", Icon: "coins", Type: models.FlowIncome},
		{Name: "Groceries", Color: "#ef6c00", Icon: "cart", Type: models.FlowExpense},
		{Name: "Rent", Color: "#5d4037", Icon: "home", Type: models.FlowExpense},
		{Name: "Utilities", Color: "#0277bd", Icon: "bolt", Type: models.FlowExpense},
		{Name: "Transport", Color: "#455a64", Icon: "car", Type: models.FlowExpense},
		{Name: "Health", Color: "#c62828", Icon: "heart", Type: models.FlowExpense},
		{Name: "Entertainment", Color: "#6a1b9a", Icon: "film", Type: models.FlowExpense},
	}
	return s.categories.CreateBatch(owner, defaults)
}
