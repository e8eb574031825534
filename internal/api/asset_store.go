package api

import (
	"context"

	"gorm.io/gorm"

	"papercv/internal/database"
)

// assetStore 抽象资产元数据的持久化，便于测试替换。
type assetStore interface {
	Create(ctx context.Context, asset database.Asset) error
	CountByClient(ctx context.Context, clientID string) (int64, error)
	FindByKey(ctx context.Context, clientID string, objectKey string) (*database.Asset, error)
	ListByClient(ctx context.Context, clientID string, limit int) ([]database.Asset, error)
	Delete(ctx context.Context, clientID string, objectKey string) error
}

type gormAssetStore struct {
	db *gorm.DB
}

func newGormAssetStore(db *gorm.DB) *gormAssetStore {
	return &gormAssetStore{db: db}
}

func (s *gormAssetStore) Create(ctx context.Context, asset database.Asset) error {
	return s.db.WithContext(ctx).Create(&asset).Error
}

func (s *gormAssetStore) CountByClient(ctx context.Context, clientID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&database.Asset{}).
		Where("client_id = ?", clientID).
		Count(&count).Error
	return count, err
}

func (s *gormAssetStore) FindByKey(ctx context.Context, clientID string, objectKey string) (*database.Asset, error) {
	var asset database.Asset
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND object_key = ?", clientID, objectKey).
		First(&asset).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (s *gormAssetStore) ListByClient(ctx context.Context, clientID string, limit int) ([]database.Asset, error) {
	var assets []database.Asset
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&assets).Error
	return assets, err
}

func (s *gormAssetStore) Delete(ctx context.Context, clientID string, objectKey string) error {
	return s.db.WithContext(ctx).
		Where("client_id = ? AND object_key = ?", clientID, objectKey).
		Delete(&database.Asset{}).Error
}
