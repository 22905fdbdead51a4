package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centralmei/backend/internal/model"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, req *model.ServiceRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error) {
	var req model.ServiceRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) GetByCPF(ctx context.Context, cpf string) (*model.ServiceRequest, error) {
	var req model.ServiceRequest
	if err := r.db.WithContext(ctx).First(&req, "cpf = ?", cpf).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

type RequestFilter struct {
	Status model.RequestStatus
	UserID *uuid.UUID
	Limit  int
	Offset int
}

func (r *RequestRepository) List(ctx context.Context, filter RequestFilter) ([]model.ServiceRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ServiceRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var requests []model.ServiceRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *RequestRepository) Update(ctx context.Context, req *model.ServiceRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// UpdateStatus persists a status change and reports the previously stored
// status, read and written inside one transaction so callers never need
// cross-call shared state to detect transitions.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) (model.RequestStatus, error) {
	var previous model.RequestStatus
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.ServiceRequest
		if err := tx.First(&current, "id = ?", id).Error; err != nil {
			return err
		}
		previous = current.Status
		return tx.Model(&model.ServiceRequest{}).
			Where("id = ?", id).
			Update("status", status).Error
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

// MarkSaleCreated flips the automation flag without touching other columns.
func (r *RequestRepository) MarkSaleCreated(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.ServiceRequest{}).
		Where("id = ?", id).
		Update("sale_created", true).Error
}
