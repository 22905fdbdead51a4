package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centralmei/backend/internal/model"
)

// AccountsRepository owns the chart of accounts: categories, subcategories
// and the products classified under them.
type AccountsRepository struct {
	db *gorm.DB
}

func NewAccountsRepository(db *gorm.DB) *AccountsRepository {
	return &AccountsRepository{db: db}
}

func (r *AccountsRepository) ListCategories(ctx context.Context, flowType model.FlowType) ([]model.AccountCategory, error) {
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if flowType != "" {
		query = query.Where("type = ?", flowType)
	}
	var categories []model.AccountCategory
	if err := query.Order("type ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *AccountsRepository) GetCategory(ctx context.Context, id uuid.UUID) (*model.AccountCategory, error) {
	var category model.AccountCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *AccountsRepository) CreateCategory(ctx context.Context, category *model.AccountCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *AccountsRepository) UpdateCategory(ctx context.Context, category *model.AccountCategory) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// CategoryInUse reports whether any cash movement references the category.
func (r *AccountsRepository) CategoryInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CashMovement{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *AccountsRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.AccountCategory{}, "id = ?", id).Error
}

// GetOrCreateCategory resolves a category by name and type, creating it on
// first use.
func (r *AccountsRepository) GetOrCreateCategory(ctx context.Context, name string, flowType model.FlowType) (*model.AccountCategory, error) {
	var category model.AccountCategory
	err := r.db.WithContext(ctx).
		First(&category, "name = ? AND type = ?", name, flowType).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = model.AccountCategory{Name: name, Type: flowType, Active: true}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *AccountsRepository) ListSubcategories(ctx context.Context, categoryID uuid.UUID) ([]model.AccountSubcategory, error) {
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if categoryID != uuid.Nil {
		query = query.Where("category_id = ?", categoryID)
	}
	var subcategories []model.AccountSubcategory
	if err := query.Order("name ASC").Find(&subcategories).Error; err != nil {
		return nil, err
	}
	return subcategories, nil
}

func (r *AccountsRepository) GetSubcategory(ctx context.Context, id uuid.UUID) (*model.AccountSubcategory, error) {
	var subcategory model.AccountSubcategory
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&subcategory, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &subcategory, nil
}

func (r *AccountsRepository) CreateSubcategory(ctx context.Context, subcategory *model.AccountSubcategory) error {
	return r.db.WithContext(ctx).Create(subcategory).Error
}

func (r *AccountsRepository) UpdateSubcategory(ctx context.Context, subcategory *model.AccountSubcategory) error {
	return r.db.WithContext(ctx).Save(subcategory).Error
}

func (r *AccountsRepository) SubcategoryInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CashMovement{}).
		Where("subcategory_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *AccountsRepository) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.AccountSubcategory{}, "id = ?", id).Error
}

func (r *AccountsRepository) GetOrCreateSubcategory(ctx context.Context, categoryID uuid.UUID, name, description string) (*model.AccountSubcategory, error) {
	var subcategory model.AccountSubcategory
	err := r.db.WithContext(ctx).
		First(&subcategory, "category_id = ? AND name = ?", categoryID, name).Error
	if err == nil {
		return &subcategory, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	subcategory = model.AccountSubcategory{
		CategoryID:  categoryID,
		Name:        name,
		Description: description,
		Active:      true,
	}
	if err := r.db.WithContext(ctx).Create(&subcategory).Error; err != nil {
		return nil, err
	}
	return &subcategory, nil
}

func (r *AccountsRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Subcategory.Category").
		Where("active = ?", true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *AccountsRepository) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Subcategory.Category").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *AccountsRepository) CreateProduct(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *AccountsRepository) UpdateProduct(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *AccountsRepository) GetOrCreateProduct(ctx context.Context, subcategoryID uuid.UUID, product model.Product) (*model.Product, error) {
	var existing model.Product
	err := r.db.WithContext(ctx).
		First(&existing, "subcategory_id = ? AND name = ?", subcategoryID, product.Name).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	product.SubcategoryID = subcategoryID
	product.Active = true
	if err := r.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
