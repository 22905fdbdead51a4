package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/centralmei/backend/internal/config"
	"github.com/centralmei/backend/internal/mercadopago"
	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/repository"
)

// PaymentService runs the checkout flow against the payment gateway and
// applies webhook updates back onto payments and their service requests.
type PaymentService struct {
	payments *repository.PaymentRepository
	requests *repository.RequestRepository
	gateway  *mercadopago.Client
	cfg      config.MercadoPagoConfig
	log      zerolog.Logger
}

func NewPaymentService(
	payments *repository.PaymentRepository,
	requests *repository.RequestRepository,
	gateway *mercadopago.Client,
	cfg config.MercadoPagoConfig,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		requests: requests,
		gateway:  gateway,
		cfg:      cfg,
		log:      log,
	}
}

type CheckoutResult struct {
	Payment      *model.Payment `json:"payment"`
	PreferenceID string         `json:"preference_id"`
	InitPoint    string         `json:"init_point"`
	PublicKey    string         `json:"public_key"`
}

// StartCheckout opens (or reuses) a pending payment for the request and
// registers a gateway preference for it. A request that already has an open
// checkout keeps its external reference and only gets a fresh preference.
func (s *PaymentService) StartCheckout(ctx context.Context, requestID uuid.UUID, serviceType model.ServiceType) (*CheckoutResult, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if serviceType == "" {
		serviceType = model.ServiceTypeOpenMEI
	}

	payment, err := s.payments.PendingForRequest(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		payment = &model.Payment{
			UserID:            req.UserID,
			ServiceRequestID:  &req.ID,
			ServiceType:       serviceType,
			Amount:            req.ServiceValue,
			Status:            model.PaymentStatusPending,
			CustomerName:      req.FullName,
			CustomerEmail:     req.Email,
			CustomerPhone:     req.Phone,
			ExternalReference: newExternalReference(),
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	amount, _ := payment.Amount.Float64()
	prefReq := mercadopago.PreferenceRequest{
		Items: []mercadopago.PreferenceItem{{
			Title:     serviceTitle(serviceType),
			Quantity:  1,
			UnitPrice: amount,
		}},
		Payer: mercadopago.Payer{
			Name:  payment.CustomerName,
			Email: payment.CustomerEmail,
		},
		ExternalReference: payment.ExternalReference,
	}
	if s.cfg.SuccessURL != "" || s.cfg.FailureURL != "" || s.cfg.PendingURL != "" {
		prefReq.BackURLs = &mercadopago.BackURLs{
			Success: s.cfg.SuccessURL,
			Failure: s.cfg.FailureURL,
			Pending: s.cfg.PendingURL,
		}
		prefReq.AutoReturn = "approved"
	}

	preference, err := s.gateway.CreatePreference(ctx, prefReq)
	if err != nil {
		s.log.Error().Err(err).
			Str("request_id", requestID.String()).
			Msg("gateway preference creation failed")
		return nil, ErrGatewayUnavailable
	}

	payment.GatewayPreferenceID = preference.ID
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("external_reference", payment.ExternalReference).
		Msg("checkout started")

	return &CheckoutResult{
		Payment:      payment,
		PreferenceID: preference.ID,
		InitPoint:    preference.InitPoint,
		PublicKey:    s.cfg.PublicKey,
	}, nil
}

type CardPaymentInput struct {
	RequestID            uuid.UUID
	Token                string
	Installments         int
	PaymentMethodID      string
	IssuerID             string
	IdentificationType   string
	IdentificationNumber string
}

// ProcessCardPayment charges a tokenized card for the request's checkout.
func (s *PaymentService) ProcessCardPayment(ctx context.Context, in CardPaymentInput) (*model.Payment, error) {
	if in.Token == "" {
		return nil, fmt.Errorf("%w: card token is required", ErrInvalidInput)
	}
	if in.Installments <= 0 {
		in.Installments = 1
	}

	result, err := s.StartCheckout(ctx, in.RequestID, "")
	if err != nil {
		return nil, err
	}
	payment := result.Payment

	amount, _ := payment.Amount.Float64()
	gatewayPayment, err := s.gateway.CreatePayment(ctx, mercadopago.PaymentRequest{
		TransactionAmount: amount,
		Token:             in.Token,
		Description:       serviceTitle(payment.ServiceType),
		Installments:      in.Installments,
		PaymentMethodID:   in.PaymentMethodID,
		IssuerID:          in.IssuerID,
		Payer: mercadopago.PaymentPayer{
			Email: payment.CustomerEmail,
			Identification: mercadopago.Identification{
				Type:   in.IdentificationType,
				Number: in.IdentificationNumber,
			},
		},
		ExternalReference: payment.ExternalReference,
	})
	if err != nil {
		s.log.Error().Err(err).
			Str("payment_id", payment.ID.String()).
			Msg("gateway card charge failed")
		return nil, ErrGatewayUnavailable
	}

	if err := s.applyGatewayStatus(ctx, payment, gatewayPayment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return payment, err
}

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// HandleWebhook verifies and applies a gateway notification. Notifications
// for unknown references and non-payment topics are acknowledged silently so
// the gateway stops retrying them.
func (s *PaymentService) HandleWebhook(ctx context.Context, signatureHeader, requestID string, body []byte) error {
	// Signature validation only applies when a secret is configured.
	if s.cfg.WebhookSecret != "" {
		if err := mercadopago.ValidateSignature(s.cfg.WebhookSecret, signatureHeader, requestID, body); err != nil {
			s.log.Warn().
				Str("request_id", requestID).
				Msg("webhook signature rejected")
			return ErrPermissionDenied
		}
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%w: malformed webhook body", ErrInvalidInput)
	}
	if payload.Type != "payment" || payload.Data.ID == "" {
		return nil
	}

	gatewayPayment, err := s.gateway.GetPayment(ctx, payload.Data.ID.String())
	if err != nil {
		s.log.Error().Err(err).
			Str("gateway_payment_id", payload.Data.ID.String()).
			Msg("gateway payment lookup failed")
		return ErrGatewayUnavailable
	}

	payment, err := s.payments.GetByExternalReference(ctx, gatewayPayment.ExternalReference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn().
				Str("external_reference", gatewayPayment.ExternalReference).
				Msg("webhook for unknown payment")
			return nil
		}
		return err
	}

	return s.applyGatewayStatus(ctx, payment, gatewayPayment)
}

// applyGatewayStatus records the gateway's verdict and, on approval, moves a
// still pending request into processing.
func (s *PaymentService) applyGatewayStatus(ctx context.Context, payment *model.Payment, gatewayPayment *mercadopago.Payment) error {
	status, ok := model.GatewayStatusMap[gatewayPayment.Status]
	if !ok {
		s.log.Warn().
			Str("gateway_status", gatewayPayment.Status).
			Str("payment_id", payment.ID.String()).
			Msg("unmapped gateway status, keeping current")
		status = payment.Status
	}

	payment.Status = status
	payment.GatewayPaymentID = strconv.FormatInt(gatewayPayment.ID, 10)
	payment.PaymentMethod = mapPaymentMethod(gatewayPayment.PaymentMethodID)
	if err := s.payments.Update(ctx, payment); err != nil {
		return err
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("status", string(status)).
		Msg("payment updated from gateway")

	if status == model.PaymentStatusApproved && payment.ServiceRequestID != nil {
		req, err := s.requests.GetByID(ctx, *payment.ServiceRequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if req.Status == model.RequestStatusPending {
			if _, err := s.requests.UpdateStatus(ctx, req.ID, model.RequestStatusProcessing); err != nil {
				return err
			}
			s.log.Info().
				Str("request_id", req.ID.String()).
				Msg("request moved to processing after approved payment")
		}
	}
	return nil
}

func newExternalReference() string {
	return "CMEI-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:20])
}

func mapPaymentMethod(gatewayMethod string) model.PaymentMethod {
	switch {
	case gatewayMethod == "pix":
		return model.PaymentMethodPix
	case gatewayMethod == "debit_card" || strings.HasSuffix(gatewayMethod, "deb"):
		return model.PaymentMethodDebitCard
	case strings.Contains(gatewayMethod, "bol"):
		return model.PaymentMethodBoleto
	case gatewayMethod == "account_money" || gatewayMethod == "bank_transfer":
		return model.PaymentMethodTransfer
	case gatewayMethod == "":
		return ""
	default:
		return model.PaymentMethodCreditCard
	}
}

func serviceTitle(serviceType model.ServiceType) string {
	switch serviceType {
	case model.ServiceTypeOpenMEI:
		return "Abertura de MEI"
	case model.ServiceTypeRegularizeMEI:
		return "Regularização de MEI"
	case model.ServiceTypeAnnualStatement:
		return "Declaração Anual do MEI"
	case model.ServiceTypeCloseMEI:
		return "Baixa de MEI"
	case model.ServiceTypeAmendMEI:
		return "Alteração de MEI"
	default:
		return "Serviço MEI"
	}
}
