package repository

import (
	"context"
	"errors"

	"github.com/kinogutschein/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeyValueStore 整值读写的键值存储
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SettingRepository 设置数据访问接口
type SettingRepository interface {
	KeyValueStore
	GetByKey(key string) (*models.Setting, error)
	Upsert(key string, value string) (*models.Setting, error)
}

// GormSettingRepository GORM 实现
type GormSettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository 创建设置仓库
func NewSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// GetByKey 获取设置
func (r *GormSettingRepository) GetByKey(key string) (*models.Setting, error) {
	return r.getByKey(r.db, key)
}

// Upsert 更新或创建设置
func (r *GormSettingRepository) Upsert(key string, value string) (*models.Setting, error) {
	return r.upsert(r.db, key, value)
}

// Get 读取键值
func (r *GormSettingRepository) Get(ctx context.Context, key string) (string, bool, error) {
	setting, err := r.getByKey(r.db.WithContext(ctx), key)
	if err != nil {
		return "", false, err
	}
	if setting == nil {
		return "", false, nil
	}
	return setting.Value, true, nil
}

// Set 整值覆盖写入
func (r *GormSettingRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.upsert(r.db.WithContext(ctx), key, value)
	return err
}

// Delete 删除键
func (r *GormSettingRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Setting{}).Error
}

func (r *GormSettingRepository) getByKey(db *gorm.DB, key string) (*models.Setting, error) {
	var setting models.Setting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (r *GormSettingRepository) upsert(db *gorm.DB, key string, value string) (*models.Setting, error) {
	setting := &models.Setting{
		Key:   key,
		Value: value,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(setting).Error; err != nil {
		return nil, err
	}
	return setting, nil
}
