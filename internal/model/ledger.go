package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type FlowType string

const (
	FlowTypeIn  FlowType = "in"
	FlowTypeOut FlowType = "out"
)

func (t FlowType) Valid() bool {
	return t == FlowTypeIn || t == FlowTypeOut
}

// AccountCategory is a top level entry of the chart of accounts.
type AccountCategory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;index:idx_account_categories_name_type,unique" json:"name"`
	Type      FlowType  `gorm:"size:10;not null;index:idx_account_categories_name_type,unique" json:"type"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *AccountCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// AccountSubcategory belongs to exactly one category.
type AccountSubcategory struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    *AccountCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name        string           `gorm:"size:100;not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Active      bool             `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (s *AccountSubcategory) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Product is a billable product or service classified under a subcategory.
type Product struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string              `gorm:"size:100;not null" json:"name"`
	Description   string              `gorm:"type:text" json:"description"`
	Price         decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"price"`
	Active        bool                `gorm:"not null;default:true" json:"active"`
	SubcategoryID uuid.UUID           `gorm:"type:uuid;not null;index" json:"subcategory_id"`
	Subcategory   *AccountSubcategory `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusPaid      SaleStatus = "paid"
	SaleStatusCancelled SaleStatus = "cancelled"
)

func (s SaleStatus) Valid() bool {
	switch s {
	case SaleStatusPending, SaleStatusPaid, SaleStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodBoleto     PaymentMethod = "boleto"
)

// Sale is an internal ledger record of a billable transaction.
type Sale struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	CustomerName  string `gorm:"size:200;not null" json:"customer_name"`
	CustomerEmail string `gorm:"size:254" json:"customer_email"`
	CustomerPhone string `gorm:"size:20" json:"customer_phone"`
	CustomerCPF   string `gorm:"size:18;index" json:"customer_cpf"`

	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	Quantity   int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalValue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_value"`
	Discount   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount"`
	FinalValue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"final_value"`

	Status        SaleStatus    `gorm:"size:20;not null;default:pending;index" json:"status"`
	PaymentMethod PaymentMethod `gorm:"size:20" json:"payment_method"`

	// Set when the sale was materialized from a completed service request.
	// The unique index is the hard guard against duplicate automation runs.
	ServiceRequestID *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"service_request_id,omitempty"`

	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	SaleDate    time.Time  `gorm:"not null" json:"sale_date"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.SaleDate.IsZero() {
		s.SaleDate = time.Now().UTC()
	}
	s.ComputeTotals()
	return nil
}

func (s *Sale) BeforeUpdate(tx *gorm.DB) error {
	s.ComputeTotals()
	return nil
}

// ComputeTotals derives total and final value from quantity, unit price and
// discount. Runs on every save.
func (s *Sale) ComputeTotals() {
	s.TotalValue = s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
	s.FinalValue = s.TotalValue.Sub(s.Discount)
}

// CashMovement is a single dated debit or credit ledger line.
type CashMovement struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Type          FlowType            `gorm:"size:10;not null;index" json:"type"`
	CategoryID    *uuid.UUID          `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category      *AccountCategory    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SubcategoryID *uuid.UUID          `gorm:"type:uuid;index" json:"subcategory_id,omitempty"`
	Subcategory   *AccountSubcategory `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`

	Description string          `gorm:"size:200;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`

	// Back-reference for movements generated from a paid sale.
	SaleID *uuid.UUID `gorm:"type:uuid;index" json:"sale_id,omitempty"`
	Sale   *Sale      `gorm:"foreignKey:SaleID" json:"sale,omitempty"`

	MovementDate time.Time `gorm:"not null;index" json:"movement_date"`
	CreatedByID  uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	Notes        string    `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *CashMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// CashBalance is the end-of-day running total for one calendar date.
type CashBalance struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BalanceDate    time.Time       `gorm:"type:date;uniqueIndex;not null" json:"balance_date"`
	OpeningBalance decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"opening_balance"`
	TotalIn        decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"total_in"`
	TotalOut       decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"total_out"`
	ClosingBalance decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"closing_balance"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (b *CashBalance) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ComputeClosing recomputes the closing balance from the other columns.
func (b *CashBalance) ComputeClosing() {
	b.ClosingBalance = b.OpeningBalance.Add(b.TotalIn).Sub(b.TotalOut)
}
