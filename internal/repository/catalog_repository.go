package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centralmei/backend/internal/model"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListActive(ctx context.Context) ([]model.Service, error) {
	var services []model.Service
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("display_order ASC, name ASC").
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *CatalogRepository) GetBySlug(ctx context.Context, slug string) (*model.Service, error) {
	var service model.Service
	err := r.db.WithContext(ctx).
		First(&service, "slug = ? AND active = ?", slug, true).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var service model.Service
	if err := r.db.WithContext(ctx).First(&service, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *CatalogRepository) Create(ctx context.Context, service *model.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

func (r *CatalogRepository) Update(ctx context.Context, service *model.Service) error {
	return r.db.WithContext(ctx).Save(service).Error
}
