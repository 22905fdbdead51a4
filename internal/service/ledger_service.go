package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/centralmei/backend/internal/config"
	"github.com/centralmei/backend/internal/event"
	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/repository"
)

// LedgerService owns the financial ledger: staff CRUD over sales, cash
// movements and the chart of accounts, plus the automation that turns a
// completed service request into a sale and a paid sale into a cash movement.
type LedgerService struct {
	ledger   *repository.LedgerRepository
	accounts *repository.AccountsRepository
	users    *repository.UserRepository
	requests *repository.RequestRepository
	bus      *event.Bus
	cfg      config.LedgerConfig
	log      zerolog.Logger
}

func NewLedgerService(
	ledger *repository.LedgerRepository,
	accounts *repository.AccountsRepository,
	users *repository.UserRepository,
	requests *repository.RequestRepository,
	bus *event.Bus,
	cfg config.LedgerConfig,
	log zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		ledger:   ledger,
		accounts: accounts,
		users:    users,
		requests: requests,
		bus:      bus,
		cfg:      cfg,
		log:      log,
	}
}

// RegisterHandlers wires the automation steps onto the bus.
func (s *LedgerService) RegisterHandlers(bus *event.Bus) {
	bus.Subscribe(event.TypeServiceRequestCompleted, func(ctx context.Context, evt event.Event) error {
		completed, ok := evt.(event.ServiceRequestCompleted)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", evt)
		}
		return s.HandleRequestCompleted(ctx, completed)
	})
	bus.Subscribe(event.TypeSalePaid, func(ctx context.Context, evt event.Event) error {
		paid, ok := evt.(event.SalePaid)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", evt)
		}
		return s.HandleSalePaid(ctx, paid.SaleID)
	})
}

// HandleRequestCompleted materializes a sale for a completed request.
// Idempotent: the sale_created flag and the unique service_request_id lookup
// both stop duplicate runs.
func (s *LedgerService) HandleRequestCompleted(ctx context.Context, evt event.ServiceRequestCompleted) error {
	req, err := s.requests.GetByID(ctx, evt.RequestID)
	if err != nil {
		return err
	}
	if req.SaleCreated {
		s.log.Warn().
			Str("request_id", req.ID.String()).
			Msg("sale already created for request, skipping")
		return nil
	}

	// Flag may lag behind under concurrent saves; the unique back-reference
	// is the authoritative check.
	if _, err := s.ledger.SaleForRequest(ctx, req.ID); err == nil {
		s.log.Warn().
			Str("request_id", req.ID.String()).
			Msg("sale already exists for request, marking flag")
		return s.requests.MarkSaleCreated(ctx, req.ID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	product, err := s.resolveAutomationProduct(ctx, req.ServiceValue)
	if err != nil {
		return err
	}

	seller, err := s.resolveSeller(ctx, req.UserID)
	if err != nil {
		// Recoverable inconsistency: the request stays completed without a
		// sale and an operator reconciles it later.
		s.log.Error().
			Str("request_id", req.ID.String()).
			Msg("no eligible user to own the generated sale, skipping")
		return nil
	}

	now := time.Now().UTC()
	sale := &model.Sale{
		CustomerName:     req.FullName,
		CustomerEmail:    req.Email,
		CustomerPhone:    req.Phone,
		CustomerCPF:      req.CPF,
		ProductID:        product.ID,
		Quantity:         1,
		UnitPrice:        req.ServiceValue,
		Discount:         decimal.Zero,
		Status:           model.SaleStatusPaid,
		PaymentMethod:    model.PaymentMethodPix,
		ServiceRequestID: &req.ID,
		Notes:            fmt.Sprintf("Generated from completed service request %s - %s", req.ID, req.FullName),
		CreatedByID:      seller.ID,
		PaymentDate:      &now,
	}
	if err := s.ledger.CreateSale(ctx, sale); err != nil {
		return err
	}
	if err := s.requests.MarkSaleCreated(ctx, req.ID); err != nil {
		return err
	}

	s.log.Info().
		Str("request_id", req.ID.String()).
		Str("sale_id", sale.ID.String()).
		Str("amount", sale.FinalValue.String()).
		Msg("sale created from completed request")

	s.bus.Publish(ctx, event.NewSalePaid(sale.ID))
	return nil
}

// resolveAutomationProduct resolves or creates the category, subcategory and
// product the automation books registration sales under.
func (s *LedgerService) resolveAutomationProduct(ctx context.Context, price decimal.Decimal) (*model.Product, error) {
	category, err := s.accounts.GetOrCreateCategory(ctx, s.cfg.CategoryName, model.FlowTypeIn)
	if err != nil {
		return nil, err
	}
	subcategory, err := s.accounts.GetOrCreateSubcategory(ctx, category.ID, s.cfg.SubcategoryName, "MEI registration services")
	if err != nil {
		return nil, err
	}
	return s.accounts.GetOrCreateProduct(ctx, subcategory.ID, model.Product{
		Name:        s.cfg.ProductName,
		Description: "Complete MEI registration service",
		Price:       price,
	})
}

// resolveSeller picks the owner of a generated sale: the request's user, else
// the first superuser, else the first staff user.
func (s *LedgerService) resolveSeller(ctx context.Context, userID *uuid.UUID) (*model.User, error) {
	if userID != nil {
		if user, err := s.users.GetByID(ctx, *userID); err == nil {
			return user, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if user, err := s.users.FirstSuperuser(ctx); err == nil {
		return user, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if user, err := s.users.FirstStaff(ctx); err == nil {
		return user, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return nil, ErrNotFound
}

// HandleSalePaid materializes the cash movement for a paid sale and brings
// the day's balance up to date. Skips sales that already have a movement.
func (s *LedgerService) HandleSalePaid(ctx context.Context, saleID uuid.UUID) error {
	sale, err := s.ledger.GetSale(ctx, saleID)
	if err != nil {
		return err
	}
	if sale.Status != model.SaleStatusPaid || sale.PaymentDate == nil {
		return nil
	}

	exists, err := s.ledger.MovementExistsForSale(ctx, sale.ID)
	if err != nil {
		return err
	}
	if exists {
		s.log.Warn().
			Str("sale_id", sale.ID.String()).
			Msg("movement already exists for sale, skipping")
		return nil
	}

	description := fmt.Sprintf("Sale %s", sale.ID)
	if sale.Product != nil {
		description = fmt.Sprintf("Sale %s - %s", sale.ID, sale.Product.Name)
	}
	movement := &model.CashMovement{
		Type:         model.FlowTypeIn,
		Description:  description,
		Amount:       sale.FinalValue,
		SaleID:       &sale.ID,
		MovementDate: *sale.PaymentDate,
		CreatedByID:  sale.CreatedByID,
		Notes:        fmt.Sprintf("Automatic movement - sale to %s", sale.CustomerName),
	}
	if sale.Product != nil && sale.Product.Subcategory != nil {
		movement.SubcategoryID = &sale.Product.SubcategoryID
		movement.CategoryID = &sale.Product.Subcategory.CategoryID
	}

	if err := s.ledger.CreateMovement(ctx, movement); err != nil {
		return err
	}

	s.log.Info().
		Str("sale_id", sale.ID.String()).
		Str("movement_id", movement.ID.String()).
		Msg("cash movement created for paid sale")

	return s.RecomputeBalance(ctx, movement.MovementDate)
}

// RecomputeBalance rebuilds the balance row for one calendar date: the day's
// totals come from its movements, the opening balance from the most recent
// prior balance row.
func (s *LedgerService) RecomputeBalance(ctx context.Context, date time.Time) error {
	day := dateOnly(date)

	totalIn, totalOut, err := s.ledger.SumMovementsForDate(ctx, day)
	if err != nil {
		return err
	}

	opening := decimal.Zero
	previous, err := s.ledger.LatestBalanceBefore(ctx, day)
	if err != nil {
		return err
	}
	if previous != nil {
		opening = previous.ClosingBalance
	}

	balance := &model.CashBalance{
		BalanceDate:    day,
		OpeningBalance: opening,
		TotalIn:        totalIn,
		TotalOut:       totalOut,
	}
	balance.ComputeClosing()
	return s.ledger.UpsertBalance(ctx, balance)
}

type CreateSaleInput struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CustomerCPF   string
	ProductID     uuid.UUID
	Quantity      int
	UnitPrice     decimal.Decimal
	Discount      decimal.Decimal
	Status        model.SaleStatus
	PaymentMethod model.PaymentMethod
	Notes         string
	CreatedByID   uuid.UUID
	PaymentDate   *time.Time
}

// CreateSale records a staff-entered sale. A sale entered as paid immediately
// fires the movement automation.
func (s *LedgerService) CreateSale(ctx context.Context, in CreateSaleInput) (*model.Sale, error) {
	if in.CustomerName == "" {
		return nil, fmt.Errorf("%w: customer_name is required", ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = model.SaleStatusPending
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown sale status %q", ErrInvalidInput, in.Status)
	}
	if in.Discount.IsNegative() {
		return nil, fmt.Errorf("%w: discount cannot be negative", ErrInvalidInput)
	}

	product, err := s.accounts.GetProduct(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product", ErrNotFound)
		}
		return nil, err
	}

	unitPrice := in.UnitPrice
	if unitPrice.IsZero() {
		unitPrice = product.Price
	}

	sale := &model.Sale{
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		CustomerCPF:   in.CustomerCPF,
		ProductID:     product.ID,
		Quantity:      in.Quantity,
		UnitPrice:     unitPrice,
		Discount:      in.Discount,
		Status:        in.Status,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		CreatedByID:   in.CreatedByID,
		PaymentDate:   in.PaymentDate,
	}
	if sale.Status == model.SaleStatusPaid && sale.PaymentDate == nil {
		now := time.Now().UTC()
		sale.PaymentDate = &now
	}

	if err := s.ledger.CreateSale(ctx, sale); err != nil {
		return nil, err
	}
	if sale.Status == model.SaleStatusPaid {
		s.bus.Publish(ctx, event.NewSalePaid(sale.ID))
	}
	return s.ledger.GetSale(ctx, sale.ID)
}

// MarkSalePaid settles a pending sale and fires the movement automation.
func (s *LedgerService) MarkSalePaid(ctx context.Context, id uuid.UUID, method model.PaymentMethod) (*model.Sale, error) {
	sale, err := s.ledger.GetSale(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if sale.Status == model.SaleStatusCancelled {
		return nil, fmt.Errorf("%w: sale is cancelled", ErrConflict)
	}
	if sale.Status != model.SaleStatusPaid {
		now := time.Now().UTC()
		sale.Status = model.SaleStatusPaid
		sale.PaymentDate = &now
		if method != "" {
			sale.PaymentMethod = method
		}
		if err := s.ledger.UpdateSale(ctx, sale); err != nil {
			return nil, err
		}
	}
	s.bus.Publish(ctx, event.NewSalePaid(sale.ID))
	return s.ledger.GetSale(ctx, sale.ID)
}

func (s *LedgerService) GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.ledger.GetSale(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return sale, err
}

func (s *LedgerService) ListSales(ctx context.Context, filter repository.SaleFilter) ([]model.Sale, int64, error) {
	return s.ledger.ListSales(ctx, filter)
}

type MovementInput struct {
	Type          model.FlowType
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	Description   string
	Amount        decimal.Decimal
	MovementDate  time.Time
	CreatedByID   uuid.UUID
	Notes         string
}

func (s *LedgerService) validateMovement(ctx context.Context, in MovementInput) error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown movement type %q", ErrInvalidInput, in.Type)
	}
	if in.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if in.MovementDate.IsZero() {
		return fmt.Errorf("%w: movement_date is required", ErrInvalidInput)
	}
	if in.CategoryID != nil {
		category, err := s.accounts.GetCategory(ctx, *in.CategoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: category", ErrNotFound)
			}
			return err
		}
		if category.Type != in.Type {
			return fmt.Errorf("%w: category type %q does not match movement type %q", ErrInvalidInput, category.Type, in.Type)
		}
	}
	if in.SubcategoryID != nil {
		subcategory, err := s.accounts.GetSubcategory(ctx, *in.SubcategoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: subcategory", ErrNotFound)
			}
			return err
		}
		if in.CategoryID != nil && subcategory.CategoryID != *in.CategoryID {
			return fmt.Errorf("%w: subcategory does not belong to category", ErrInvalidInput)
		}
	}
	return nil
}

// CreateMovement records a manual ledger line and recomputes its day.
func (s *LedgerService) CreateMovement(ctx context.Context, in MovementInput) (*model.CashMovement, error) {
	if err := s.validateMovement(ctx, in); err != nil {
		return nil, err
	}

	movement := &model.CashMovement{
		Type:          in.Type,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Description:   in.Description,
		Amount:        in.Amount,
		MovementDate:  in.MovementDate,
		CreatedByID:   in.CreatedByID,
		Notes:         in.Notes,
	}
	if err := s.ledger.CreateMovement(ctx, movement); err != nil {
		return nil, err
	}
	if err := s.RecomputeBalance(ctx, movement.MovementDate); err != nil {
		return nil, err
	}
	return movement, nil
}

// UpdateMovement edits a ledger line. When the movement date changed both the
// origin and the destination day are recomputed, origin first.
func (s *LedgerService) UpdateMovement(ctx context.Context, id uuid.UUID, in MovementInput) (*model.CashMovement, error) {
	movement, err := s.ledger.GetMovement(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.validateMovement(ctx, in); err != nil {
		return nil, err
	}

	originalDate := movement.MovementDate

	movement.Type = in.Type
	movement.CategoryID = in.CategoryID
	movement.SubcategoryID = in.SubcategoryID
	movement.Description = in.Description
	movement.Amount = in.Amount
	movement.MovementDate = in.MovementDate
	movement.Notes = in.Notes
	movement.Category = nil
	movement.Subcategory = nil

	if err := s.ledger.UpdateMovement(ctx, movement); err != nil {
		return nil, err
	}

	if err := s.RecomputeBalance(ctx, originalDate); err != nil {
		return nil, err
	}
	if !sameDay(originalDate, movement.MovementDate) {
		if err := s.RecomputeBalance(ctx, movement.MovementDate); err != nil {
			return nil, err
		}
	}
	return movement, nil
}

func (s *LedgerService) DeleteMovement(ctx context.Context, id uuid.UUID) error {
	movement, err := s.ledger.GetMovement(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.ledger.DeleteMovement(ctx, id); err != nil {
		return err
	}
	return s.RecomputeBalance(ctx, movement.MovementDate)
}

func (s *LedgerService) GetMovement(ctx context.Context, id uuid.UUID) (*model.CashMovement, error) {
	movement, err := s.ledger.GetMovement(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return movement, err
}

func (s *LedgerService) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]model.CashMovement, int64, error) {
	return s.ledger.ListMovements(ctx, filter)
}

func (s *LedgerService) GetBalance(ctx context.Context, date time.Time) (*model.CashBalance, error) {
	balance, err := s.ledger.GetBalance(ctx, dateOnly(date))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return balance, err
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}
