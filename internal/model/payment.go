package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusApproved    PaymentStatus = "approved"
	PaymentStatusRejected    PaymentStatus = "rejected"
	PaymentStatusCancelled   PaymentStatus = "cancelled"
	PaymentStatusInProcess   PaymentStatus = "in_process"
	PaymentStatusRefunded    PaymentStatus = "refunded"
	PaymentStatusChargedBack PaymentStatus = "charged_back"
)

// Payment tracks one checkout against the payment gateway, keyed by the
// external reference we hand to it.
type Payment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID           *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ServiceRequestID *uuid.UUID      `gorm:"type:uuid;index" json:"service_request_id,omitempty"`
	ServiceType      ServiceType     `gorm:"size:50;not null" json:"service_type"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status           PaymentStatus   `gorm:"size:20;not null;default:pending;index" json:"status"`

	CustomerName  string `gorm:"size:200;not null" json:"customer_name"`
	CustomerEmail string `gorm:"size:254;not null" json:"customer_email"`
	CustomerPhone string `gorm:"size:20" json:"customer_phone"`

	GatewayPaymentID    string        `gorm:"size:50;index" json:"gateway_payment_id"`
	GatewayPreferenceID string        `gorm:"size:100" json:"gateway_preference_id"`
	ExternalReference   string        `gorm:"size:100;uniqueIndex;not null" json:"external_reference"`
	PaymentMethod       PaymentMethod `gorm:"size:20" json:"payment_method"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// GatewayStatusMap translates payment gateway status strings into the
// canonical vocabulary stored on Payment.
var GatewayStatusMap = map[string]PaymentStatus{
	"approved":     PaymentStatusApproved,
	"pending":      PaymentStatusPending,
	"in_process":   PaymentStatusInProcess,
	"rejected":     PaymentStatusRejected,
	"cancelled":    PaymentStatusCancelled,
	"refunded":     PaymentStatusRefunded,
	"charged_back": PaymentStatusChargedBack,
}
