package services

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/events"
	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/store"
)

// TransactionService defines the interface for transaction operations
type TransactionService interface {
	GetTransactions(owner string, filter models.TransactionFilter) ([]models.Transaction, error)
	CreateTransaction(owner string, req models.TransactionRequest) (models.Transaction, error)
	UpdateTransaction(owner, id string, update models.TransactionUpdate) (models.Transaction, error)
	DeleteTransaction(owner, id string) error
}

// transactionService implements the TransactionService interface
type transactionService struct {
	db           *gorm.DB
	transactions *store.Collection[models.Transaction, *models.Transaction]
}

// NewTransactionService creates a new transaction service
func NewTransactionService(db *gorm.DB, bus *events.Bus) TransactionService {
	return &transactionService{
		db: db,
		transactions: store.NewCollection[models.Transaction, *models.Transaction](
			db, bus, models.TopicTransactions, "date DESC, created_at DESC"),
	}
}

// GetTransactions returns the owner's transactions, newest first,
// narrowed by the filter. Filtering happens over the snapshot so the
// result matches what a live subscriber of the same collection sees.
func (s *transactionService) GetTransactions(owner string, filter models.TransactionFilter) ([]models.Transaction, error) {
	snapshot, err := s.transactions.Snapshot(owner)
	if err != nil {
		return nil, err
	}

	out := make([]models.Transaction, 0, len(snapshot))
	for _, txn := range snapshot {
		if filter.Type != "" && txn.Type != filter.Type {
			continue
		}
		if filter.CategoryID != "" && txn.CategoryID != filter.CategoryID {
			continue
		}
		if filter.MemberID != "" && txn.MemberID != filter.MemberID {
			continue
		}
		if !filter.From.IsZero() && txn.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && txn.Date.After(filter.To) {
			continue
		}
		out = append(out, txn)
	}
	return out, nil
}

// CreateTransaction validates and persists a new entry
func (s *transactionService) CreateTransaction(owner string, req models.TransactionRequest) (models.Transaction, error) {
	if owner == "" {
		return models.Transaction{}, common.ErrNotAuthenticated
	}
	if err := s.validateEntry(owner, req.Type, req.Amount, req.CategoryID, req.MemberID, req.Date); err != nil {
		return models.Transaction{}, err
	}

	txn := models.Transaction{
		Type:        req.Type,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		MemberID:    req.MemberID,
		Date:        req.Date,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.transactions.Create(owner, &txn); err != nil {
		return models.Transaction{}, err
	}
	return txn, nil
}

// UpdateTransaction merges the provided fields into an entry
func (s *transactionService) UpdateTransaction(owner, id string, update models.TransactionUpdate) (models.Transaction, error) {
	if owner == "" {
		return models.Transaction{}, common.ErrNotAuthenticated
	}

	fields := map[string]interface{}{}

	if update.Type != nil {
		if !update.Type.Valid() {
			return models.Transaction{}, common.NewValidationError("type", "must be income or expense")
		}
		fields["type"] = *update.Type
	}
	if update.Amount != nil {
		if update.Amount.IsNegative() {
			return models.Transaction{}, common.NewValidationError("amount", "must not be negative")
		}
		fields["amount"] = *update.Amount
	}
	if update.CategoryID != nil {
		if err := s.checkCategory(owner, *update.CategoryID); err != nil {
			return models.Transaction{}, err
		}
		fields["category_id"] = *update.CategoryID
	}
	if update.MemberID != nil {
		if err := s.checkMember(owner, *update.MemberID); err != nil {
			return models.Transaction{}, err
		}
		fields["member_id"] = *update.MemberID
	}
	if update.Date != nil {
		if update.Date.IsZero() {
			return models.Transaction{}, common.NewValidationError("date", "date is required")
		}
		fields["date"] = *update.Date
	}
	if update.Description != nil {
		fields["description"] = strings.TrimSpace(*update.Description)
	}

	if err := s.transactions.Update(owner, id, fields); err != nil {
		return models.Transaction{}, err
	}

	updated, err := s.transactions.Get(owner, id)
	if err != nil {
		return models.Transaction{}, err
	}
	return *updated, nil
}

// DeleteTransaction removes an entry
func (s *transactionService) DeleteTransaction(owner, id string) error {
	return s.transactions.Delete(owner, id)
}

func (s *transactionService) validateEntry(owner string, flow models.FlowType, amount decimal.Decimal, categoryID, memberID string, date models.Date) error {
	if !flow.Valid() {
		return common.NewValidationError("type", "must be income or expense")
	}
	if amount.IsNegative() {
		return common.NewValidationError("amount", "must not be negative")
	}
	if date.IsZero() {
		return common.NewValidationError("date", "date is required")
	}
	if err := s.checkCategory(owner, categoryID); err != nil {
		return err
	}
	return s.checkMember(owner, memberID)
}

// checkCategory requires the reference to resolve to an owned
// category.
func (s *transactionService) checkCategory(owner, categoryID string) error {
	if categoryID == "" {
		return common.NewValidationError("categoryId", "category is required")
	}
	var count int64
	err := s.db.Model(&models.Category{}).
		Where("owner_id = ? AND id = ?", owner, categoryID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return common.NewValidationError("categoryId", "unknown category")
	}
	return nil
}

// checkMember allows an empty reference, which attributes the entry
// to the household.
func (s *transactionService) checkMember(owner, memberID string) error {
	if memberID == "" {
		return nil
	}
	var count int64
	err := s.db.Model(&models.FamilyMember{}).
		Where("owner_id = ? AND id = ?", owner, memberID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return common.NewValidationError("memberId", "unknown family member")
	}
	return nil
}
