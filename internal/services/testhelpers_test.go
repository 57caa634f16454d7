package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.FamilyMember{},
		&models.Transaction{},
	))
	return db
}

func mustCreateCategory(t *testing.T, svc CategoryService, owner, name string, flow models.FlowType) models.Category {
	t.Helper()
	category, err := svc.CreateCategory(owner, models.CategoryRequest{
		Name:  name,
		Color: "#808080",
		Icon:  "tag",
		Type:  flow,
	})
	require.NoError(t, err)
	return category
}

func mustCreateMember(t *testing.T, svc FamilyMemberService, owner, name string) models.FamilyMember {
	t.Helper()
	member, err := svc.CreateFamilyMember(owner, models.FamilyMemberRequest{Name: name})
	require.NoError(t, err)
	return member
}
