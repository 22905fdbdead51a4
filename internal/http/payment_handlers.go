package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/service"
)

type checkoutRequest struct {
	RequestID   string `json:"request_id" binding:"required"`
	ServiceType string `json:"service_type"`
}

func (h *Handler) startCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID, ok := parseBodyUUID(c, req.RequestID, "request_id")
	if !ok {
		return
	}

	result, err := h.payments.StartCheckout(c.Request.Context(), requestID, model.ServiceType(req.ServiceType))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type cardPaymentRequest struct {
	RequestID            string `json:"request_id" binding:"required"`
	Token                string `json:"token" binding:"required"`
	Installments         int    `json:"installments"`
	PaymentMethodID      string `json:"payment_method_id"`
	IssuerID             string `json:"issuer_id"`
	IdentificationType   string `json:"identification_type"`
	IdentificationNumber string `json:"identification_number"`
}

func (h *Handler) processCardPayment(c *gin.Context) {
	var req cardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID, ok := parseBodyUUID(c, req.RequestID, "request_id")
	if !ok {
		return
	}

	payment, err := h.payments.ProcessCardPayment(c.Request.Context(), service.CardPaymentInput{
		RequestID:            requestID,
		Token:                req.Token,
		Installments:         req.Installments,
		PaymentMethodID:      req.PaymentMethodID,
		IssuerID:             req.IssuerID,
		IdentificationType:   req.IdentificationType,
		IdentificationNumber: req.IdentificationNumber,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) getPayment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	payment, err := h.payments.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// mercadoPagoWebhook needs the raw body for signature verification, so it
// reads it before any JSON binding.
func (h *Handler) mercadoPagoWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	signature := c.GetHeader("x-signature")
	requestID := c.GetHeader("x-request-id")

	if err := h.payments.HandleWebhook(c.Request.Context(), signature, requestID, body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
