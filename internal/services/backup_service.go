package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/events"
	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/store"
)

// Names substituted when a transaction's references do not resolve.
const (
	unknownCategoryName = "Uncategorized"
)

// BackupDocument is the JSON export envelope.
type BackupDocument struct {
	ExportedAt   time.Time             `json:"exportedAt"`
	Transactions []models.Transaction  `json:"transactions"`
	Categories   []models.Category     `json:"categories"`
	Members      []models.FamilyMember `json:"members"`
}

// RestoreSummary reports what an import added.
type RestoreSummary struct {
	Transactions int `json:"transactions"`
	Categories   int `json:"categories"`
	Members      int `json:"members"`
}

// BackupService serializes an owner's data and restores uploaded
// backups.
type BackupService interface {
	ExportJSON(owner string) (BackupDocument, error)
	ExportCSV(owner string) ([]byte, error)
	ImportJSON(owner string, data []byte) (RestoreSummary, error)
}

// backupService implements the BackupService interface
type backupService struct {
	db           *gorm.DB
	transactions *store.Collection[models.Transaction, *models.Transaction]
	categories   *store.Collection[models.Category, *models.Category]
	members      *store.Collection[models.FamilyMember, *models.FamilyMember]
}

// NewBackupService creates a new backup service
func NewBackupService(db *gorm.DB, bus *events.Bus) BackupService {
	return &backupService{
		db: db,
		transactions: store.NewCollection[models.Transaction, *models.Transaction](
			db, bus, models.TopicTransactions, "date DESC, created_at DESC"),
		categories: store.NewCollection[models.Category, *models.Category](db, bus, models.TopicCategories, ""),
		members:    store.NewCollection[models.FamilyMember, *models.FamilyMember](db, bus, models.TopicMembers, ""),
	}
}

// ExportJSON snapshots all three collections under one export
// timestamp.
func (s *backupService) ExportJSON(owner string) (BackupDocument, error) {
	doc := BackupDocument{ExportedAt: time.Now().UTC()}

	var err error
	if doc.Transactions, err = s.transactions.Snapshot(owner); err != nil {
		return BackupDocument{}, err
	}
	if doc.Categories, err = s.categories.Snapshot(owner); err != nil {
		return BackupDocument{}, err
	}
	if doc.Members, err = s.members.Snapshot(owner); err != nil {
		return BackupDocument{}, err
	}
	return doc, nil
}

// ExportCSV renders the transaction list as a spreadsheet-friendly
// table. Category and member references are resolved to names, with
// fallbacks for deleted categories and the household pseudo-member.
func (s *backupService) ExportCSV(owner string) ([]byte, error) {
	doc, err := s.ExportJSON(owner)
	if err != nil {
		return nil, err
	}

	categoryNames := make(map[string]string, len(doc.Categories))
	for _, cat := range doc.Categories {
		categoryNames[cat.ID] = cat.Name
	}
	memberNames := make(map[string]string, len(doc.Members))
	for _, member := range doc.Members {
		memberNames[member.ID] = member.Name
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Date", "Type", "Description", "Category", "Member", "Amount"}); err != nil {
		return nil, err
	}
	for _, txn := range doc.Transactions {
		category, ok := categoryNames[txn.CategoryID]
		if !ok {
			category = unknownCategoryName
		}
		member, ok := memberNames[txn.MemberID]
		if !ok {
			member = models.HomeBalanceName
		}
		record := []string{
			txn.Date.String(),
			string(txn.Type),
			txn.Description,
			category,
			member,
			txn.Amount.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Imported record shapes. Validation happens at this boundary; a
// file that fails any check is rejected whole, with nothing written.
type importedTransaction struct {
	Type        models.FlowType  `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	CategoryID  string           `json:"categoryId"`
	MemberID    string           `json:"memberId"`
	Date        models.Date      `json:"date"`
	Description string           `json:"description"`
}

type importedCategory struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Color string          `json:"color"`
	Icon  string          `json:"icon"`
	Type  models.FlowType `json:"type"`
}

type importedMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type importedDocument struct {
	Transactions *[]importedTransaction `json:"transactions"`
	Categories   *[]importedCategory    `json:"categories"`
	Members      *[]importedMember      `json:"members"`
}

// ImportJSON additively restores a backup. Existing records are never
// touched; imported records get fresh identities, and transaction
// references are remapped to the identities their categories and
// members were assigned during this import.
func (s *backupService) ImportJSON(owner string, data []byte) (RestoreSummary, error) {
	if owner == "" {
		return RestoreSummary{}, common.ErrNotAuthenticated
	}

	var doc importedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return RestoreSummary{}, common.ErrImportFormat
	}
	if doc.Transactions == nil || doc.Categories == nil {
		return RestoreSummary{}, common.ErrImportFormat
	}

	var imported []importedMember
	if doc.Members != nil {
		imported = *doc.Members
	}

	categories, categoryIDs, err := buildImportedCategories(*doc.Categories)
	if err != nil {
		return RestoreSummary{}, err
	}
	members, memberIDs, err := buildImportedMembers(imported)
	if err != nil {
		return RestoreSummary{}, err
	}
	transactions, err := buildImportedTransactions(*doc.Transactions, categoryIDs, memberIDs)
	if err != nil {
		return RestoreSummary{}, err
	}

	if err := s.categories.CreateBatch(owner, categories); err != nil {
		return RestoreSummary{}, err
	}
	if err := s.members.CreateBatch(owner, members); err != nil {
		return RestoreSummary{}, err
	}
	if err := s.transactions.CreateBatch(owner, transactions); err != nil {
		return RestoreSummary{}, err
	}

	return RestoreSummary{
		Transactions: len(transactions),
		Categories:   len(categories),
		Members:      len(members),
	}, nil
}

func buildImportedCategories(in []importedCategory) ([]*models.Category, map[string]string, error) {
	out := make([]*models.Category, 0, len(in))
	ids := make(map[string]string, len(in))
	for _, cat := range in {
		name := strings.TrimSpace(cat.Name)
		if name == "" || !cat.Type.Valid() {
			return nil, nil, common.ErrImportFormat
		}
		fresh := &models.Category{
			ID:    uuid.NewString(),
			Name:  name,
			Color: cat.Color,
			Icon:  cat.Icon,
			Type:  cat.Type,
		}
		if cat.ID != "" {
			ids[cat.ID] = fresh.ID
		}
		out = append(out, fresh)
	}
	return out, ids, nil
}

func buildImportedMembers(in []importedMember) ([]*models.FamilyMember, map[string]string, error) {
	out := make([]*models.FamilyMember, 0, len(in))
	ids := make(map[string]string, len(in))
	for _, member := range in {
		name, err := validateMemberName(member.Name)
		if err != nil {
			return nil, nil, common.ErrImportFormat
		}
		fresh := &models.FamilyMember{
			ID:   uuid.NewString(),
			Name: name,
		}
		if member.ID != "" {
			ids[member.ID] = fresh.ID
		}
		out = append(out, fresh)
	}
	return out, ids, nil
}

func buildImportedTransactions(in []importedTransaction, categoryIDs, memberIDs map[string]string) ([]*models.Transaction, error) {
	out := make([]*models.Transaction, 0, len(in))
	for _, txn := range in {
		if !txn.Type.Valid() || txn.Amount == nil || txn.Amount.IsNegative() || txn.Date.IsZero() {
			return nil, common.ErrImportFormat
		}
		categoryID := txn.CategoryID
		if mapped, ok := categoryIDs[categoryID]; ok {
			categoryID = mapped
		}
		memberID := txn.MemberID
		if mapped, ok := memberIDs[memberID]; ok {
			memberID = mapped
		}
		out = append(out, &models.Transaction{
			Type:        txn.Type,
			Amount:      *txn.Amount,
			CategoryID:  categoryID,
			MemberID:    memberID,
			Date:        txn.Date,
			Description: txn.Description,
		})
	}
	return out, nil
}
