package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/models"
)

type txnFixture struct {
	txns     TransactionService
	category models.Category
	income   models.Category
	member   models.FamilyMember
}

func newTxnFixture(t *testing.T) txnFixture {
	t.Helper()
	db := openTestDB(t)
	categorySvc := NewCategoryService(db, nil)
	memberSvc := NewFamilyMemberService(db, nil)
	return txnFixture{
		txns:     NewTransactionService(db, nil),
		category: mustCreateCategory(t, categorySvc, "owner-1", "Groceries", models.FlowExpense),
		income:   mustCreateCategory(t, categorySvc, "owner-1", "Salary", models.FlowIncome),
		member:   mustCreateMember(t, memberSvc, "owner-1", "Ana"),
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	f := newTxnFixture(t)

	tests := []struct {
		name string
		req  models.TransactionRequest
	}{
		{"bad type", models.TransactionRequest{Type: "transfer", Amount: decimal.NewFromInt(1), CategoryID: f.category.ID, Date: models.NewDate(2024, 1, 5)}},
		{"negative amount", models.TransactionRequest{Type: models.FlowExpense, Amount: decimal.NewFromInt(-1), CategoryID: f.category.ID, Date: models.NewDate(2024, 1, 5)}},
		{"missing date", models.TransactionRequest{Type: models.FlowExpense, Amount: decimal.NewFromInt(1), CategoryID: f.category.ID}},
		{"missing category", models.TransactionRequest{Type: models.FlowExpense, Amount: decimal.NewFromInt(1), Date: models.NewDate(2024, 1, 5)}},
		{"unknown category", models.TransactionRequest{Type: models.FlowExpense, Amount: decimal.NewFromInt(1), CategoryID: "nope", Date: models.NewDate(2024, 1, 5)}},
		{"unknown member", models.TransactionRequest{Type: models.FlowExpense, Amount: decimal.NewFromInt(1), CategoryID: f.category.ID, MemberID: "nope", Date: models.NewDate(2024, 1, 5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.txns.CreateTransaction("owner-1", tt.req)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestCreateTransactionZeroAmountAllowed(t *testing.T) {
	f := newTxnFixture(t)

	_, err := f.txns.CreateTransaction("owner-1", models.TransactionRequest{
		Type:       models.FlowExpense,
		Amount:     decimal.Zero,
		CategoryID: f.category.ID,
		Date:       models.NewDate(2024, 1, 5),
	})
	assert.NoError(t, err)
}

func TestGetTransactionsFiltersAndOrder(t *testing.T) {
	f := newTxnFixture(t)

	seed := []models.TransactionRequest{
		{Type: models.FlowExpense, Amount: decimal.NewFromInt(10), CategoryID: f.category.ID, MemberID: f.member.ID, Date: models.NewDate(2024, 1, 10), Description: "groceries ana"},
		{Type: models.FlowExpense, Amount: decimal.NewFromInt(20), CategoryID: f.category.ID, Date: models.NewDate(2024, 2, 1), Description: "groceries home"},
		{Type: models.FlowIncome, Amount: decimal.NewFromInt(900), CategoryID: f.income.ID, Date: models.NewDate(2024, 1, 31), Description: "salary"},
	}
	for _, req := range seed {
		_, err := f.txns.CreateTransaction("owner-1", req)
		require.NoError(t, err)
	}

	all, err := f.txns.GetTransactions("owner-1", models.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "groceries home", all[0].Description)
	assert.Equal(t, "salary", all[1].Description)
	assert.Equal(t, "groceries ana", all[2].Description)

	expenses, err := f.txns.GetTransactions("owner-1", models.TransactionFilter{Type: models.FlowExpense})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)

	byMember, err := f.txns.GetTransactions("owner-1", models.TransactionFilter{MemberID: f.member.ID})
	require.NoError(t, err)
	require.Len(t, byMember, 1)
	assert.Equal(t, "groceries ana", byMember[0].Description)

	january, err := f.txns.GetTransactions("owner-1", models.TransactionFilter{
		From: models.NewDate(2024, 1, 1),
		To:   models.NewDate(2024, 1, 31),
	})
	require.NoError(t, err)
	assert.Len(t, january, 2)

	other, err := f.txns.GetTransactions("owner-2", models.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestUpdateTransactionMergesFields(t *testing.T) {
	f := newTxnFixture(t)

	txn, err := f.txns.CreateTransaction("owner-1", models.TransactionRequest{
		Type:        models.FlowExpense,
		Amount:      decimal.NewFromInt(10),
		CategoryID:  f.category.ID,
		Date:        models.NewDate(2024, 1, 10),
		Description: "before",
	})
	require.NoError(t, err)

	amount := decimal.NewFromInt(25)
	description := "after"
	updated, err := f.txns.UpdateTransaction("owner-1", txn.ID, models.TransactionUpdate{
		Amount:      &amount,
		Description: &description,
	})
	require.NoError(t, err)

	assert.True(t, updated.Amount.Equal(amount))
	assert.Equal(t, "after", updated.Description)
	assert.Equal(t, f.category.ID, updated.CategoryID)
	assert.True(t, updated.Date.Equal(models.NewDate(2024, 1, 10)))

	bad := decimal.NewFromInt(-5)
	_, err = f.txns.UpdateTransaction("owner-1", txn.ID, models.TransactionUpdate{Amount: &bad})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.txns.UpdateTransaction("owner-1", "missing", models.TransactionUpdate{Description: &description})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteTransactionIdempotent(t *testing.T) {
	f := newTxnFixture(t)

	txn, err := f.txns.CreateTransaction("owner-1", models.TransactionRequest{
		Type:       models.FlowExpense,
		Amount:     decimal.NewFromInt(10),
		CategoryID: f.category.ID,
		Date:       models.NewDate(2024, 1, 10),
	})
	require.NoError(t, err)

	require.NoError(t, f.txns.DeleteTransaction("owner-1", txn.ID))
	require.NoError(t, f.txns.DeleteTransaction("owner-1", txn.ID))
}
