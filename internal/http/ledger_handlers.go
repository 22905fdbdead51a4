package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/centralmei/backend/internal/http/middleware"
	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/repository"
	"github.com/centralmei/backend/internal/service"
)

func (h *Handler) listSales(c *gin.Context) {
	limit, offset := pagination(c)
	productID, err := queryUUID(c, "product_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product_id"})
		return
	}
	dateFrom, err := queryDate(c, "date_from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_from"})
		return
	}
	dateTo, err := queryDate(c, "date_to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_to"})
		return
	}

	sales, total, err := h.ledger.ListSales(c.Request.Context(), repository.SaleFilter{
		Status:    model.SaleStatus(c.Query("status")),
		ProductID: productID,
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales, "total": total})
}

type createSaleRequest struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	CustomerCPF   string `json:"customer_cpf"`
	ProductID     string `json:"product_id" binding:"required"`
	Quantity      int    `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	Discount      string `json:"discount"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
	PaymentDate   string `json:"payment_date"`
}

func (h *Handler) createSale(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	productID, ok := parseBodyUUID(c, req.ProductID, "product_id")
	if !ok {
		return
	}
	unitPrice, err := parseDecimal(req.UnitPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit_price"})
		return
	}
	discount, err := parseDecimal(req.Discount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid discount"})
		return
	}

	var paymentDate *time.Time
	if req.PaymentDate != "" {
		parsed, err := parseDate(req.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_date"})
			return
		}
		paymentDate = &parsed
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	sale, err := h.ledger.CreateSale(c.Request.Context(), service.CreateSaleInput{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		CustomerCPF:   req.CustomerCPF,
		ProductID:     productID,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		Discount:      discount,
		Status:        model.SaleStatus(req.Status),
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
		CreatedByID:   principal.UserID,
		PaymentDate:   paymentDate,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (h *Handler) getSale(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	sale, err := h.ledger.GetSale(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

type markPaidRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (h *Handler) markSalePaid(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req markPaidRequest
	_ = c.ShouldBindJSON(&req)

	sale, err := h.ledger.MarkSalePaid(c.Request.Context(), id, model.PaymentMethod(req.PaymentMethod))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func movementFilterFromQuery(c *gin.Context) (repository.MovementFilter, bool) {
	limit, offset := pagination(c)

	categoryID, err := queryUUID(c, "category_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
		return repository.MovementFilter{}, false
	}
	subcategoryID, err := queryUUID(c, "subcategory_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subcategory_id"})
		return repository.MovementFilter{}, false
	}
	dateFrom, err := queryDate(c, "date_from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_from"})
		return repository.MovementFilter{}, false
	}
	dateTo, err := queryDate(c, "date_to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_to"})
		return repository.MovementFilter{}, false
	}

	return repository.MovementFilter{
		Type:          model.FlowType(c.Query("type")),
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		DateFrom:      dateFrom,
		DateTo:        dateTo,
		OrderBy:       c.Query("order_by"),
		Limit:         limit,
		Offset:        offset,
	}, true
}

func (h *Handler) listMovements(c *gin.Context) {
	filter, ok := movementFilterFromQuery(c)
	if !ok {
		return
	}

	movements, total, err := h.ledger.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "total": total})
}

type movementRequest struct {
	Type          string `json:"type" binding:"required"`
	CategoryID    string `json:"category_id"`
	SubcategoryID string `json:"subcategory_id"`
	Description   string `json:"description" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	MovementDate  string `json:"movement_date" binding:"required"`
	Notes         string `json:"notes"`
}

func (h *Handler) movementInput(c *gin.Context, req movementRequest) (service.MovementInput, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return service.MovementInput{}, false
	}

	amount, err := parseDecimal(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return service.MovementInput{}, false
	}
	movementDate, err := parseDate(req.MovementDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid movement_date"})
		return service.MovementInput{}, false
	}

	in := service.MovementInput{
		Type:         model.FlowType(req.Type),
		Description:  req.Description,
		Amount:       amount,
		MovementDate: movementDate,
		CreatedByID:  principal.UserID,
		Notes:        req.Notes,
	}
	if req.CategoryID != "" {
		id, ok := parseBodyUUID(c, req.CategoryID, "category_id")
		if !ok {
			return service.MovementInput{}, false
		}
		in.CategoryID = &id
	}
	if req.SubcategoryID != "" {
		id, ok := parseBodyUUID(c, req.SubcategoryID, "subcategory_id")
		if !ok {
			return service.MovementInput{}, false
		}
		in.SubcategoryID = &id
	}
	return in, true
}

func (h *Handler) createMovement(c *gin.Context) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in, ok := h.movementInput(c, req)
	if !ok {
		return
	}

	movement, err := h.ledger.CreateMovement(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func (h *Handler) getMovement(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	movement, err := h.ledger.GetMovement(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, movement)
}

func (h *Handler) updateMovement(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in, ok := h.movementInput(c, req)
	if !ok {
		return
	}

	movement, err := h.ledger.UpdateMovement(c.Request.Context(), id, in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, movement)
}

func (h *Handler) deleteMovement(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteMovement(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getBalance(c *gin.Context) {
	date, err := parseDate(c.DefaultQuery("date", time.Now().UTC().Format("2006-01-02")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), date)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}
