package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/repository"
)

// AccountsService exposes staff management of the chart of accounts.
type AccountsService struct {
	accounts *repository.AccountsRepository
}

func NewAccountsService(accounts *repository.AccountsRepository) *AccountsService {
	return &AccountsService{accounts: accounts}
}

func (s *AccountsService) ListCategories(ctx context.Context, flowType model.FlowType) ([]model.AccountCategory, error) {
	if flowType != "" && !flowType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, flowType)
	}
	return s.accounts.ListCategories(ctx, flowType)
}

func (s *AccountsService) CreateCategory(ctx context.Context, name string, flowType model.FlowType) (*model.AccountCategory, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !flowType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, flowType)
	}
	category := &model.AccountCategory{Name: name, Type: flowType, Active: true}
	if err := s.accounts.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *AccountsService) UpdateCategory(ctx context.Context, id uuid.UUID, name string, active bool) (*model.AccountCategory, error) {
	category, err := s.accounts.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if name != "" {
		category.Name = name
	}
	category.Active = active
	if err := s.accounts.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory refuses to drop a category that still classifies movements.
func (s *AccountsService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.accounts.GetCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	inUse, err := s.accounts.CategoryInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: category has movements", ErrConflict)
	}
	return s.accounts.DeleteCategory(ctx, id)
}

func (s *AccountsService) ListSubcategories(ctx context.Context, categoryID uuid.UUID) ([]model.AccountSubcategory, error) {
	return s.accounts.ListSubcategories(ctx, categoryID)
}

func (s *AccountsService) CreateSubcategory(ctx context.Context, categoryID uuid.UUID, name, description string) (*model.AccountSubcategory, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := s.accounts.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category", ErrNotFound)
		}
		return nil, err
	}
	subcategory := &model.AccountSubcategory{
		CategoryID:  categoryID,
		Name:        name,
		Description: description,
		Active:      true,
	}
	if err := s.accounts.CreateSubcategory(ctx, subcategory); err != nil {
		return nil, err
	}
	return subcategory, nil
}

func (s *AccountsService) UpdateSubcategory(ctx context.Context, id uuid.UUID, name, description string, active bool) (*model.AccountSubcategory, error) {
	subcategory, err := s.accounts.GetSubcategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if name != "" {
		subcategory.Name = name
	}
	subcategory.Description = description
	subcategory.Active = active
	subcategory.Category = nil
	if err := s.accounts.UpdateSubcategory(ctx, subcategory); err != nil {
		return nil, err
	}
	return subcategory, nil
}

func (s *AccountsService) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.accounts.GetSubcategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	inUse, err := s.accounts.SubcategoryInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: subcategory has movements", ErrConflict)
	}
	return s.accounts.DeleteSubcategory(ctx, id)
}

func (s *AccountsService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.accounts.ListProducts(ctx)
}

func (s *AccountsService) CreateProduct(ctx context.Context, subcategoryID uuid.UUID, name, description string, price decimal.Decimal) (*model.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if _, err := s.accounts.GetSubcategory(ctx, subcategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: subcategory", ErrNotFound)
		}
		return nil, err
	}
	product := &model.Product{
		Name:          name,
		Description:   description,
		Price:         price,
		Active:        true,
		SubcategoryID: subcategoryID,
	}
	if err := s.accounts.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *AccountsService) UpdateProduct(ctx context.Context, id uuid.UUID, name, description string, price decimal.Decimal, active bool) (*model.Product, error) {
	product, err := s.accounts.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if name != "" {
		product.Name = name
	}
	if !price.IsZero() {
		product.Price = price
	}
	product.Description = description
	product.Active = active
	product.Subcategory = nil
	if err := s.accounts.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}
