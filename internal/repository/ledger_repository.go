package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/centralmei/backend/internal/model"
)

// LedgerRepository owns sales, cash movements and daily balances.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) CreateSale(ctx context.Context, sale *model.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *LedgerRepository) UpdateSale(ctx context.Context, sale *model.Sale) error {
	return r.db.WithContext(ctx).Save(sale).Error
}

func (r *LedgerRepository) GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.WithContext(ctx).
		Preload("Product.Subcategory.Category").
		Preload("CreatedBy").
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// SaleForRequest finds the sale materialized from a service request, if any.
// This is the secondary idempotency check behind the sale_created flag.
func (r *LedgerRepository) SaleForRequest(ctx context.Context, requestID uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.WithContext(ctx).
		First(&sale, "service_request_id = ?", requestID).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

type SaleFilter struct {
	Status    model.SaleStatus
	ProductID *uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

func (r *LedgerRepository) ListSales(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Sale{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.DateFrom != nil {
		query = query.Where("sale_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("sale_date < ?", filter.DateTo.Add(24*time.Hour))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var sales []model.Sale
	err := query.
		Preload("Product").
		Preload("CreatedBy").
		Order("sale_date DESC").
		Find(&sales).Error
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (r *LedgerRepository) CreateMovement(ctx context.Context, movement *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *LedgerRepository) UpdateMovement(ctx context.Context, movement *model.CashMovement) error {
	return r.db.WithContext(ctx).Save(movement).Error
}

func (r *LedgerRepository) DeleteMovement(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CashMovement{}, "id = ?", id).Error
}

func (r *LedgerRepository) GetMovement(ctx context.Context, id uuid.UUID) (*model.CashMovement, error) {
	var movement model.CashMovement
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Subcategory").
		First(&movement, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

// MovementExistsForSale reports whether a movement already references the
// sale. Guards step B of the automation against duplicate runs.
func (r *LedgerRepository) MovementExistsForSale(ctx context.Context, saleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CashMovement{}).
		Where("sale_id = ?", saleID).
		Count(&count).Error
	return count > 0, err
}

type MovementFilter struct {
	Type          model.FlowType
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	DateFrom      *time.Time
	DateTo        *time.Time
	OrderBy       string
	Limit         int
	Offset        int
}

func (r *LedgerRepository) movementQuery(ctx context.Context, filter MovementFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.CashMovement{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SubcategoryID != nil {
		query = query.Where("subcategory_id = ?", *filter.SubcategoryID)
	}
	if filter.DateFrom != nil {
		query = query.Where("movement_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("movement_date < ?", filter.DateTo.Add(24*time.Hour))
	}
	return query
}

func (r *LedgerRepository) ListMovements(ctx context.Context, filter MovementFilter) ([]model.CashMovement, int64, error) {
	query := r.movementQuery(ctx, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "movement_date DESC"
	switch filter.OrderBy {
	case "date_asc":
		order = "movement_date ASC"
	case "amount_desc":
		order = "amount DESC"
	case "amount_asc":
		order = "amount ASC"
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var movements []model.CashMovement
	err := query.
		Preload("Category").
		Preload("Subcategory").
		Order(order).
		Find(&movements).Error
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// SumMovements returns the in/out totals for the filtered set.
func (r *LedgerRepository) SumMovements(ctx context.Context, filter MovementFilter) (decimal.Decimal, decimal.Decimal, error) {
	sum := func(flowType model.FlowType) (decimal.Decimal, error) {
		f := filter
		f.Type = flowType
		var raw decimal.NullDecimal
		err := r.movementQuery(ctx, f).
			Select("SUM(amount)").
			Scan(&raw).Error
		if err != nil {
			return decimal.Zero, err
		}
		if !raw.Valid {
			return decimal.Zero, nil
		}
		return raw.Decimal, nil
	}

	totalIn, err := sum(model.FlowTypeIn)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	totalOut, err := sum(model.FlowTypeOut)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return totalIn, totalOut, nil
}

// SumMovementsForDate totals one calendar day, split by type.
func (r *LedgerRepository) SumMovementsForDate(ctx context.Context, date time.Time) (decimal.Decimal, decimal.Decimal, error) {
	day := date
	return r.SumMovements(ctx, MovementFilter{DateFrom: &day, DateTo: &day})
}

func (r *LedgerRepository) GetBalance(ctx context.Context, date time.Time) (*model.CashBalance, error) {
	var balance model.CashBalance
	err := r.db.WithContext(ctx).
		First(&balance, "balance_date = ?", date).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// LatestBalanceBefore returns the most recent balance row strictly before the
// given date, or nil when none exists.
func (r *LedgerRepository) LatestBalanceBefore(ctx context.Context, date time.Time) (*model.CashBalance, error) {
	var balance model.CashBalance
	err := r.db.WithContext(ctx).
		Where("balance_date < ?", date).
		Order("balance_date DESC").
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *LedgerRepository) LatestBalance(ctx context.Context) (*model.CashBalance, error) {
	var balance model.CashBalance
	err := r.db.WithContext(ctx).
		Order("balance_date DESC").
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// UpsertBalance writes the balance row for its date, updating in place when
// one already exists.
func (r *LedgerRepository) UpsertBalance(ctx context.Context, balance *model.CashBalance) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.CashBalance
		err := tx.First(&existing, "balance_date = ?", balance.BalanceDate).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(balance).Error
		}
		if err != nil {
			return err
		}
		existing.OpeningBalance = balance.OpeningBalance
		existing.TotalIn = balance.TotalIn
		existing.TotalOut = balance.TotalOut
		existing.ClosingBalance = balance.ClosingBalance
		*balance = existing
		return tx.Save(&existing).Error
	})
}
