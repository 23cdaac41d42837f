package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Slot struct {
	Key       string    `gorm:"primaryKey"  json:"key"`
	Value     []byte    `gorm:"not null"    json:"value"`
	UpdatedAt time.Time `gorm:"not null"    json:"updated_at"`
}

func (Slot) TableName() string {
	return "state_slots"
}

// GormRepo keeps one row per slot in an embedded database.
type GormRepo struct {
	DB *gorm.DB
}

var _ Repository = (*GormRepo)(nil)

func NewGorm(db *gorm.DB) (*GormRepo, error) {
	if err := db.AutoMigrate(&Slot{}); err != nil {
		return nil, fmt.Errorf("migrate state_slots: %w", err)
	}
	return &GormRepo{DB: db}, nil
}

func (r *GormRepo) Load(ctx context.Context) (State, error) {
	var rows []Slot
	if err := r.DB.WithContext(ctx).Find(&rows).Error; err != nil {
		return State{}, err
	}

	var st State
	for _, row := range rows {
		if err := decodeSlot(&st, Key(row.Key), row.Value); err != nil {
			return State{}, err
		}
	}
	return st, nil
}

func (r *GormRepo) Save(ctx context.Context, st State, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	encoded, err := encodeSlots(st, keys)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, k := range keys {
			row := Slot{Key: string(k), Value: encoded[k], UpdatedAt: now}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("save %s: %w", k, err)
			}
		}
		return nil
	})
}

func (r *GormRepo) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
