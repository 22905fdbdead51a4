package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/centralmei/backend/internal/model"
)

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.accounts.ListCategories(c.Request.Context(), model.FlowType(c.Query("type")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type categoryRequest struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active *bool  `json:"active"`
}

func (h *Handler) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.accounts.CreateCategory(c.Request.Context(), req.Name, model.FlowType(req.Type))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	category, err := h.accounts.UpdateCategory(c.Request.Context(), id, req.Name, active)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.DeleteCategory(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listSubcategories(c *gin.Context) {
	categoryID, err := queryUUID(c, "category_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
		return
	}
	if categoryID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category_id is required"})
		return
	}

	subcategories, err := h.accounts.ListSubcategories(c.Request.Context(), *categoryID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subcategories": subcategories})
}

type subcategoryRequest struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

func (h *Handler) createSubcategory(c *gin.Context) {
	var req subcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	categoryID, ok := parseBodyUUID(c, req.CategoryID, "category_id")
	if !ok {
		return
	}

	subcategory, err := h.accounts.CreateSubcategory(c.Request.Context(), categoryID, req.Name, req.Description)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subcategory)
}

func (h *Handler) updateSubcategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req subcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	subcategory, err := h.accounts.UpdateSubcategory(c.Request.Context(), id, req.Name, req.Description, active)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, subcategory)
}

func (h *Handler) deleteSubcategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.DeleteSubcategory(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.accounts.ListProducts(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

type productRequest struct {
	SubcategoryID string `json:"subcategory_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	Active        *bool  `json:"active"`
}

func (h *Handler) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subcategoryID, ok := parseBodyUUID(c, req.SubcategoryID, "subcategory_id")
	if !ok {
		return
	}
	price, err := parseDecimal(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}

	product, err := h.accounts.CreateProduct(c.Request.Context(), subcategoryID, req.Name, req.Description, price)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := parseDecimal(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	product, err := h.accounts.UpdateProduct(c.Request.Context(), id, req.Name, req.Description, price, active)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
