package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/centralmei/backend/internal/event"
	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/repository"
)

// RequestService tracks an applicant's MEI request through its statuses and
// exposes the completed transition to the ledger automation via the bus.
type RequestService struct {
	requests *repository.RequestRepository
	bus      *event.Bus
	log      zerolog.Logger
}

func NewRequestService(requests *repository.RequestRepository, bus *event.Bus, log zerolog.Logger) *RequestService {
	return &RequestService{requests: requests, bus: bus, log: log}
}

type CreateRequestInput struct {
	FullName      string
	CPF           string
	RG            string
	IssuingAgency string
	IssuingState  string
	Email         string
	Phone         string

	PrimaryCNAE    string
	SecondaryCNAEs string
	BusinessModel  model.BusinessModel
	InitialCapital decimal.Decimal

	CEP        string
	City       string
	State      string
	Street     string
	Number     string
	District   string
	Complement string

	UserID       *uuid.UUID
	ServiceValue decimal.Decimal
}

func (in CreateRequestInput) validate() error {
	fields := map[string]string{}
	if in.FullName == "" {
		fields["full_name"] = "required"
	}
	if !validCPF(in.CPF) {
		fields["cpf"] = "invalid CPF"
	}
	if !validEmail(in.Email) {
		fields["email"] = "invalid email address"
	}
	if !validCNAE(in.PrimaryCNAE) {
		fields["primary_cnae"] = "invalid CNAE code"
	}
	if in.CEP != "" && !validCEP(in.CEP) {
		fields["cep"] = "invalid CEP"
	}
	if in.ServiceValue.LessThanOrEqual(decimal.Zero) {
		fields["service_value"] = "must be positive"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *RequestService) Create(ctx context.Context, in CreateRequestInput) (*model.ServiceRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if _, err := s.requests.GetByCPF(ctx, in.CPF); err == nil {
		return nil, fmt.Errorf("%w: a request for this CPF already exists", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	req := &model.ServiceRequest{
		FullName:       in.FullName,
		CPF:            in.CPF,
		RG:             in.RG,
		IssuingAgency:  in.IssuingAgency,
		IssuingState:   in.IssuingState,
		Email:          in.Email,
		Phone:          in.Phone,
		PrimaryCNAE:    in.PrimaryCNAE,
		SecondaryCNAEs: in.SecondaryCNAEs,
		BusinessModel:  in.BusinessModel,
		InitialCapital: in.InitialCapital,
		CEP:            in.CEP,
		City:           in.City,
		State:          in.State,
		Street:         in.Street,
		Number:         in.Number,
		District:       in.District,
		Complement:     in.Complement,
		UserID:         in.UserID,
		Status:         model.RequestStatusPending,
		ServiceValue:   in.ServiceValue,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", req.ID.String()).
		Str("cpf", req.CPF).
		Msg("service request created")
	return req, nil
}

func (s *RequestService) Get(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return req, err
}

func (s *RequestService) List(ctx context.Context, filter repository.RequestFilter) ([]model.ServiceRequest, int64, error) {
	return s.requests.List(ctx, filter)
}

// SetStatus persists a status change. A transition into completed (from any
// other status) publishes ServiceRequestCompleted exactly once; re-saving an
// already completed request publishes nothing.
func (s *RequestService) SetStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) (*model.ServiceRequest, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	previous, err := s.requests.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if status == model.RequestStatusCompleted && previous != model.RequestStatusCompleted {
		s.log.Info().
			Str("request_id", id.String()).
			Str("previous_status", string(previous)).
			Msg("service request completed")
		s.bus.Publish(ctx, event.NewServiceRequestCompleted(req, previous))

		// Automation side effects run inline on the bus; reload so the
		// caller sees the sale_created flag they may have flipped.
		req, err = s.requests.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return req, nil
}
