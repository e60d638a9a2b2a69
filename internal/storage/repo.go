package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Entry struct {
	ID        uint      `gorm:"primaryKey"                                        json:"-"`
	Scope     string    `gorm:"uniqueIndex:idx_scope_key;size:64;not null"        json:"scope"`
	Key       string    `gorm:"column:entry_key;uniqueIndex:idx_scope_key;size:128;not null" json:"key"`
	Value     string    `gorm:"type:text;not null"                                json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Entry) TableName() string {
	return "kv_entries"
}

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Get(ctx context.Context, scope, key string) (string, error) {
	var e Entry
	if err := r.DB.WithContext(ctx).Where("scope = ? AND entry_key = ?", scope, key).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get %s/%s: %w", scope, key, err)
	}
	return e.Value, nil
}

func (r *GormRepo) Set(ctx context.Context, scope, key, value string) error {
	e := Entry{Scope: scope, Key: key, Value: value}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", scope, key, err)
	}
	return nil
}

func (r *GormRepo) Delete(ctx context.Context, scope, key string) error {
	if err := r.DB.WithContext(ctx).Where("scope = ? AND entry_key = ?", scope, key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("delete %s/%s: %w", scope, key, err)
	}
	return nil
}
