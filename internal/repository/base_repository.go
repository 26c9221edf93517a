package repository

import (
	"errors"

	"gorm.io/gorm"

	"story_game/internal/storage"
)

// BaseRepository 定義所有實體共用的基本資料操作能力
// 各實體的 repository 以組合方式使用，不做繼承
type BaseRepository[T any] interface {
	Create(item *T) error
	FindOne(conds map[string]interface{}) (*T, error)
	FindAll(conds map[string]interface{}) ([]T, error)
	Update(item *T) error
	Delete(conds map[string]interface{}) (int64, error)
	Exists(conds map[string]interface{}) (bool, error)
}

type baseRepository[T any] struct {
	db *storage.PostgresDB
}

func NewBaseRepository[T any](db *storage.PostgresDB) BaseRepository[T] {
	return &baseRepository[T]{db: db}
}

func (r *baseRepository[T]) Create(item *T) error {
	return r.db.Create(item).Error
}

// FindOne 查無資料時回傳 (nil, nil)
func (r *baseRepository[T]) FindOne(conds map[string]interface{}) (*T, error) {
	var item T
	err := r.db.Where(conds).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *baseRepository[T]) FindAll(conds map[string]interface{}) ([]T, error) {
	var items []T
	err := r.db.Where(conds).Find(&items).Error
	return items, err
}

func (r *baseRepository[T]) Update(item *T) error {
	return r.db.Save(item).Error
}

func (r *baseRepository[T]) Delete(conds map[string]interface{}) (int64, error) {
	var item T
	result := r.db.Where(conds).Delete(&item)
	return result.RowsAffected, result.Error
}

func (r *baseRepository[T]) Exists(conds map[string]interface{}) (bool, error) {
	var count int64
	var item T
	err := r.db.Model(&item).Where(conds).Count(&count).Error
	return count > 0, err
}
