package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centralmei/backend/internal/model"
)

const (
	TypeServiceRequestCompleted = "service_request.completed"
	TypeSalePaid                = "sale.paid"
)

// Event is a domain occurrence dispatched synchronously after a persistence
// operation.
type Event interface {
	EventType() string
	OccurredAt() time.Time
}

type base struct {
	at time.Time
}

func newBase() base {
	return base{at: time.Now().UTC()}
}

func (b base) OccurredAt() time.Time { return b.at }

// ServiceRequestCompleted fires when a service request transitions into the
// completed status. The previous status travels with the event so handlers
// never need shared pre-save state.
type ServiceRequestCompleted struct {
	base
	RequestID      uuid.UUID
	PreviousStatus model.RequestStatus
	FullName       string
	Email          string
	Phone          string
	CPF            string
	UserID         *uuid.UUID
	ServiceValue   decimal.Decimal
}

func NewServiceRequestCompleted(req *model.ServiceRequest, previous model.RequestStatus) ServiceRequestCompleted {
	return ServiceRequestCompleted{
		base:           newBase(),
		RequestID:      req.ID,
		PreviousStatus: previous,
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		CPF:            req.CPF,
		UserID:         req.UserID,
		ServiceValue:   req.ServiceValue,
	}
}

func (ServiceRequestCompleted) EventType() string { return TypeServiceRequestCompleted }

// SalePaid fires whenever a sale is saved in paid status with a payment date.
type SalePaid struct {
	base
	SaleID uuid.UUID
}

func NewSalePaid(saleID uuid.UUID) SalePaid {
	return SalePaid{base: newBase(), SaleID: saleID}
}

func (SalePaid) EventType() string { return TypeSalePaid }
