package kv

import (
	"context"
	"errors"
	"time"

	"github.com/smith3v/lms-reminder/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps values in the key_values table. Values must be valid JSON.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(gdb *gorm.DB) *GormStore {
	return &GormStore{db: gdb}
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row db.KeyValue
	err := s.db.WithContext(ctx).Where(&db.KeyValue{Key: key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Value), nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	row := db.KeyValue{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where(&db.KeyValue{Key: key}).Delete(&db.KeyValue{}).Error
}

// Update runs fn inside a transaction holding the row for key. A
// placeholder row is inserted first so there is always something to lock;
// it is removed again if fn leaves a missing key unchanged.
func (s *GormStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		placeholder := db.KeyValue{Key: key, Value: datatypes.JSON("null"), UpdatedAt: time.Now().UTC()}
		created := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder)
		if created.Error != nil {
			return created.Error
		}
		existed := created.RowsAffected == 0

		var current []byte
		if existed {
			var row db.KeyValue
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(&db.KeyValue{Key: key}).First(&row).Error; err != nil {
				return err
			}
			current = []byte(row.Value)
		}

		next, err := fn(current)
		if errors.Is(err, ErrUnchanged) {
			if existed {
				return nil
			}
			return tx.Where(&db.KeyValue{Key: key}).Delete(&db.KeyValue{}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&db.KeyValue{}).Where(&db.KeyValue{Key: key}).
			Updates(map[string]interface{}{"value": datatypes.JSON(next), "updated_at": time.Now().UTC()}).Error
	})
}
