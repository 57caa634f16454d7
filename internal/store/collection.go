// Package store implements the owner-scoped collection primitive the
// rest of the application is built on. A Collection mirrors one
// database-backed collection per owner and reports every successful
// mutation on the event bus; live subscribers re-read the snapshot on
// each event, so they converge on the current state without being
// promised every intermediate one.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/events"
	"github.com/famledger/famledger/internal/models"
)

// Record constrains a collection's element to a pointer type that can
// receive its owning identity before persistence.
type Record[T any] interface {
	*T
	SetOwner(owner string)
}

// Collection provides snapshot reads and owner-checked mutations over
// one record type.
type Collection[T any, PT Record[T]] struct {
	db      *gorm.DB
	bus     *events.Bus
	topic   models.Topic
	orderBy string
}

// NewCollection builds a collection over db. orderBy is the snapshot
// ordering clause; empty means insertion order.
func NewCollection[T any, PT Record[T]](db *gorm.DB, bus *events.Bus, topic models.Topic, orderBy string) *Collection[T, PT] {
	if orderBy == "" {
		orderBy = "created_at"
	}
	return &Collection[T, PT]{db: db, bus: bus, topic: topic, orderBy: orderBy}
}

// Topic names the collection on the event bus.
func (c *Collection[T, PT]) Topic() models.Topic {
	return c.topic
}

// Snapshot returns the owner's complete collection in its canonical
// order.
func (c *Collection[T, PT]) Snapshot(owner string) ([]T, error) {
	if owner == "" {
		return nil, common.ErrNotAuthenticated
	}
	items := []T{}
	err := c.db.Where("owner_id = ?", owner).Order(c.orderBy).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns one record by id, scoped to the owner.
func (c *Collection[T, PT]) Get(owner, id string) (PT, error) {
	if owner == "" {
		return nil, common.ErrNotAuthenticated
	}
	var item T
	err := c.db.Where("id = ? AND owner_id = ?", id, owner).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create persists record under owner with a server-generated id and
// creation timestamp. The caller sees the effect on the next
// snapshot; nothing is echoed back beyond the populated record.
func (c *Collection[T, PT]) Create(owner string, record PT) error {
	if owner == "" {
		return common.ErrNotAuthenticated
	}
	record.SetOwner(owner)
	if err := c.db.Create(record).Error; err != nil {
		return err
	}
	c.publish(owner)
	return nil
}

// Update merges only the provided fields into the identified record.
// A missing id reports common.ErrNotFound.
func (c *Collection[T, PT]) Update(owner, id string, fields map[string]interface{}) error {
	if owner == "" {
		return common.ErrNotAuthenticated
	}
	if len(fields) == 0 {
		return nil
	}
	var existing T
	err := c.db.Where("id = ? AND owner_id = ?", id, owner).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := c.db.Model(&existing).Updates(fields).Error; err != nil {
		return err
	}
	c.publish(owner)
	return nil
}

// Delete removes the identified record. Deleting an absent id is a
// no-op.
func (c *Collection[T, PT]) Delete(owner, id string) error {
	if owner == "" {
		return common.ErrNotAuthenticated
	}
	var zero T
	result := c.db.Where("id = ? AND owner_id = ?", id, owner).Delete(&zero)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		c.publish(owner)
	}
	return nil
}

// CreateBatch inserts all records in one transaction: after it
// returns, either every record is visible or none is. An empty batch
// is a no-op.
func (c *Collection[T, PT]) CreateBatch(owner string, records []PT) error {
	if owner == "" {
		return common.ErrNotAuthenticated
	}
	if len(records) == 0 {
		return nil
	}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		for i, record := range records {
			record.SetOwner(owner)
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("batch item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.publish(owner)
	return nil
}

// CountWhere counts the owner's records matching the condition.
func (c *Collection[T, PT]) CountWhere(owner, query string, args ...interface{}) (int64, error) {
	if owner == "" {
		return 0, common.ErrNotAuthenticated
	}
	var zero T
	var count int64
	err := c.db.Model(&zero).Where("owner_id = ?", owner).Where(query, args...).Count(&count).Error
	return count, err
}

func (c *Collection[T, PT]) publish(owner string) {
	if c.bus != nil {
		c.bus.Publish(events.Event{Owner: owner, Topic: c.topic})
	}
}
