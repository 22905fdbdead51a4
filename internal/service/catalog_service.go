package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/repository"
)

// CatalogService serves the public list of offered services and lets staff
// maintain it.
type CatalogService struct {
	catalog *repository.CatalogRepository
}

func NewCatalogService(catalog *repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (s *CatalogService) ListActive(ctx context.Context) ([]model.Service, error) {
	return s.catalog.ListActive(ctx)
}

func (s *CatalogService) GetBySlug(ctx context.Context, slug string) (*model.Service, error) {
	service, err := s.catalog.GetBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return service, err
}

type ServiceInput struct {
	Name          string
	Slug          string
	Type          model.ServiceType
	Description   string
	Price         string
	EstimatedTime string
	DisplayOrder  int
	Active        bool
}

func (s *CatalogService) Create(ctx context.Context, in ServiceInput) (*model.Service, error) {
	if in.Name == "" || in.Slug == "" {
		return nil, fmt.Errorf("%w: name and slug are required", ErrInvalidInput)
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	service := &model.Service{
		Name:          in.Name,
		Slug:          in.Slug,
		Type:          in.Type,
		Description:   in.Description,
		Price:         price,
		EstimatedTime: in.EstimatedTime,
		DisplayOrder:  in.DisplayOrder,
		Active:        true,
	}
	if err := s.catalog.Create(ctx, service); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, in ServiceInput) (*model.Service, error) {
	service, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.Name != "" {
		service.Name = in.Name
	}
	if in.Slug != "" {
		service.Slug = in.Slug
	}
	if in.Type != "" {
		service.Type = in.Type
	}
	if in.Price != "" {
		price, err := parsePrice(in.Price)
		if err != nil {
			return nil, err
		}
		service.Price = price
	}
	service.Description = in.Description
	service.EstimatedTime = in.EstimatedTime
	service.DisplayOrder = in.DisplayOrder
	service.Active = in.Active

	if err := s.catalog.Update(ctx, service); err != nil {
		return nil, err
	}
	return service, nil
}
