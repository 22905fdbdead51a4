package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/centralmei/backend/internal/http/middleware"
	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/repository"
	"github.com/centralmei/backend/internal/service"
)

func (h *Handler) listServices(c *gin.Context) {
	services, err := h.catalog.ListActive(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

func (h *Handler) getService(c *gin.Context) {
	svc, err := h.catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

type createRequestRequest struct {
	FullName      string `json:"full_name" binding:"required"`
	CPF           string `json:"cpf" binding:"required"`
	RG            string `json:"rg"`
	IssuingAgency string `json:"issuing_agency"`
	IssuingState  string `json:"issuing_state"`
	Email         string `json:"email" binding:"required"`
	Phone         string `json:"phone"`

	PrimaryCNAE    string `json:"primary_cnae" binding:"required"`
	SecondaryCNAEs string `json:"secondary_cnaes"`
	BusinessModel  string `json:"business_model"`
	InitialCapital string `json:"initial_capital"`

	CEP        string `json:"cep"`
	City       string `json:"city"`
	State      string `json:"state"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	District   string `json:"district"`
	Complement string `json:"complement"`

	ServiceSlug string `json:"service_slug"`
}

func (h *Handler) createRequest(c *gin.Context) {
	var req createRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	capital, err := parseDecimal(req.InitialCapital)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid initial_capital"})
		return
	}

	// The quoted price comes from the catalog, never from the client.
	slug := req.ServiceSlug
	if slug == "" {
		slug = "abertura-de-mei"
	}
	svc, err := h.catalog.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		h.handleError(c, err)
		return
	}

	var userID *uuid.UUID
	if principal, ok := middleware.MustPrincipal(c); ok {
		userID = &principal.UserID
	}

	request, err := h.requests.Create(c.Request.Context(), service.CreateRequestInput{
		FullName:       req.FullName,
		CPF:            req.CPF,
		RG:             req.RG,
		IssuingAgency:  req.IssuingAgency,
		IssuingState:   req.IssuingState,
		Email:          req.Email,
		Phone:          req.Phone,
		PrimaryCNAE:    req.PrimaryCNAE,
		SecondaryCNAEs: req.SecondaryCNAEs,
		BusinessModel:  model.BusinessModel(req.BusinessModel),
		InitialCapital: capital,
		CEP:            req.CEP,
		City:           req.City,
		State:          req.State,
		Street:         req.Street,
		Number:         req.Number,
		District:       req.District,
		Complement:     req.Complement,
		UserID:         userID,
		ServiceValue:   svc.Price,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *Handler) getRequest(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	request, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *Handler) listOwnRequests(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	limit, offset := pagination(c)
	requests, total, err := h.requests.List(c.Request.Context(), repository.RequestFilter{
		UserID: &principal.UserID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": total})
}

func (h *Handler) adminListRequests(c *gin.Context) {
	limit, offset := pagination(c)
	filter := repository.RequestFilter{
		Status: model.RequestStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}

	requests, total, err := h.requests.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": total})
}

func (h *Handler) adminGetRequest(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	request, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) adminSetRequestStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.requests.SetStatus(c.Request.Context(), id, model.RequestStatus(req.Status))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type serviceRequestBody struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	EstimatedTime string `json:"estimated_time"`
	DisplayOrder  int    `json:"display_order"`
	Active        bool   `json:"active"`
}

func (h *Handler) adminCreateService(c *gin.Context) {
	var req serviceRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc, err := h.catalog.Create(c.Request.Context(), service.ServiceInput{
		Name:          req.Name,
		Slug:          req.Slug,
		Type:          model.ServiceType(req.Type),
		Description:   req.Description,
		Price:         req.Price,
		EstimatedTime: req.EstimatedTime,
		DisplayOrder:  req.DisplayOrder,
		Active:        req.Active,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

func (h *Handler) adminUpdateService(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req serviceRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc, err := h.catalog.Update(c.Request.Context(), id, service.ServiceInput{
		Name:          req.Name,
		Slug:          req.Slug,
		Type:          model.ServiceType(req.Type),
		Description:   req.Description,
		Price:         req.Price,
		EstimatedTime: req.EstimatedTime,
		DisplayOrder:  req.DisplayOrder,
		Active:        req.Active,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}
