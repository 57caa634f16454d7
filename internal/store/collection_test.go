package store

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/events"
	"github.com/famledger/famledger/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Transaction{}, &models.Category{}, &models.FamilyMember{}))
	return db
}

func memberCollection(db *gorm.DB, bus *events.Bus) *Collection[models.FamilyMember, *models.FamilyMember] {
	return NewCollection[models.FamilyMember, *models.FamilyMember](db, bus, models.TopicMembers, "")
}

func transactionCollection(db *gorm.DB, bus *events.Bus) *Collection[models.Transaction, *models.Transaction] {
	return NewCollection[models.Transaction, *models.Transaction](db, bus, models.TopicTransactions, "date DESC, created_at DESC")
}

func TestCollectionRequiresOwner(t *testing.T) {
	c := memberCollection(openTestDB(t), nil)

	_, err := c.Snapshot("")
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)

	err = c.Create("", &models.FamilyMember{Name: "Ana"})
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)

	err = c.Update("", "id", map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)

	err = c.Delete("", "id")
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)

	err = c.CreateBatch("", []*models.FamilyMember{{Name: "Ana"}})
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestCollectionCreateAssignsIdentityAndScopesOwner(t *testing.T) {
	c := memberCollection(openTestDB(t), nil)

	member := &models.FamilyMember{Name: "Ana"}
	require.NoError(t, c.Create("owner-1", member))
	assert.NotEmpty(t, member.ID)
	assert.Equal(t, "owner-1", member.OwnerID)

	mine, err := c.Snapshot("owner-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Ana", mine[0].Name)

	theirs, err := c.Snapshot("owner-2")
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestCollectionSnapshotOrdersTransactionsByDateDesc(t *testing.T) {
	c := transactionCollection(openTestDB(t), nil)

	for _, day := range []int{5, 20, 12} {
		txn := &models.Transaction{
			Type:   models.FlowExpense,
			Amount: decimal.NewFromInt(10),
			Date:   models.NewDate(2024, 1, day),
		}
		require.NoError(t, c.Create("owner-1", txn))
	}

	snapshot, err := c.Snapshot("owner-1")
	require.NoError(t, err)
	require.Len(t, snapshot, 3)
	assert.Equal(t, 20, snapshot[0].Date.Day())
	assert.Equal(t, 12, snapshot[1].Date.Day())
	assert.Equal(t, 5, snapshot[2].Date.Day())
}

func TestCollectionUpdateMergesOnlyProvidedFields(t *testing.T) {
	c := memberCollection(openTestDB(t), nil)

	member := &models.FamilyMember{Name: "Ana"}
	require.NoError(t, c.Create("owner-1", member))

	require.NoError(t, c.Update("owner-1", member.ID, map[string]interface{}{"name": "Ana Maria"}))

	got, err := c.Get("owner-1", member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
	assert.Equal(t, "owner-1", got.OwnerID)
}

func TestCollectionUpdateMissingRecord(t *testing.T) {
	c := memberCollection(openTestDB(t), nil)

	err := c.Update("owner-1", "nope", map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCollectionUpdateCannotCrossOwners(t *testing.T) {
	c := memberCollection(openTestDB(t), nil)

	member := &models.FamilyMember{Name: "Ana"}
	require.NoError(t, c.Create("owner-1", member))

	err := c.Update("owner-2", member.ID, map[string]interface{}{"name": "hijack"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := c.Get("owner-1", member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
}

func TestCollectionDeleteIsIdempotent(t *testing.T) {
	c := memberCollection(openTestDB(t), nil)

	member := &models.FamilyMember{Name: "Ana"}
	require.NoError(t, c.Create("owner-1", member))

	require.NoError(t, c.Delete("owner-1", member.ID))
	require.NoError(t, c.Delete("owner-1", member.ID))

	snapshot, err := c.Snapshot("owner-1")
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestCollectionCreateBatch(t *testing.T) {
	c := memberCollection(openTestDB(t), nil)

	batch := []*models.FamilyMember{{Name: "Ana"}, {Name: "Ben"}, {Name: "Cleo"}}
	require.NoError(t, c.CreateBatch("owner-1", batch))

	snapshot, err := c.Snapshot("owner-1")
	require.NoError(t, err)
	assert.Len(t, snapshot, 3)
}

func TestCollectionCreateBatchEmptyIsNoOp(t *testing.T) {
	bus := events.NewBus()
	var published int
	bus.Subscribe(func(events.Event) { published++ })

	c := memberCollection(openTestDB(t), bus)
	require.NoError(t, c.CreateBatch("owner-1", nil))
	require.NoError(t, c.CreateBatch("owner-1", []*models.FamilyMember{}))

	assert.Zero(t, published)
}

func TestCollectionCreateBatchIsAtomic(t *testing.T) {
	c := memberCollection(openTestDB(t), nil)

	// The duplicated id makes the third insert fail; nothing from the
	// batch may remain visible afterwards.
	batch := []*models.FamilyMember{
		{Name: "Ana"},
		{ID: "dup", Name: "Ben"},
		{ID: "dup", Name: "Cleo"},
	}
	err := c.CreateBatch("owner-1", batch)
	require.Error(t, err)

	snapshot, err := c.Snapshot("owner-1")
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestCollectionPublishesChangeEvents(t *testing.T) {
	bus := events.NewBus()
	var got []events.Event
	bus.Subscribe(func(e events.Event) { got = append(got, e) })

	c := memberCollection(openTestDB(t), bus)

	member := &models.FamilyMember{Name: "Ana"}
	require.NoError(t, c.Create("owner-1", member))
	require.NoError(t, c.Update("owner-1", member.ID, map[string]interface{}{"name": "Ana Maria"}))
	require.NoError(t, c.Delete("owner-1", member.ID))
	// Deleting again affects no rows and stays silent.
	require.NoError(t, c.Delete("owner-1", member.ID))

	require.Len(t, got, 3)
	for _, e := range got {
		assert.Equal(t, "owner-1", e.Owner)
		assert.Equal(t, models.TopicMembers, e.Topic)
	}
}
