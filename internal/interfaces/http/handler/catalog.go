package handler

import (
	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/gin-gonic/gin"
)

// CatalogHandler manages the units, products and packagings stock is kept in
type CatalogHandler struct {
	BaseHandler
	svc *appcosting.CatalogService
}

// NewCatalogHandler creates a CatalogHandler
func NewCatalogHandler(svc *appcosting.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// RegisterUnit handles POST /units
func (h *CatalogHandler) RegisterUnit(c *gin.Context) {
	var req appcosting.RegisterUnitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.RegisterUnit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// RenameUnit handles PUT /units/:id
func (h *CatalogHandler) RenameUnit(c *gin.Context) {
	var p idParam
	if err := c.ShouldBindUri(&p); err != nil {
		h.bindFailed(c, err)
		return
	}
	var req appcosting.RenameUnitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.RenameUnit(c.Request.Context(), p.uuid(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListUnits handles GET /units
func (h *CatalogHandler) ListUnits(c *gin.Context) {
	resp, err := h.svc.ListUnits(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RegisterProduct handles POST /products
func (h *CatalogHandler) RegisterProduct(c *gin.Context) {
	var req appcosting.RegisterProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.RegisterProduct(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	var p idParam
	if err := c.ShouldBindUri(&p); err != nil {
		h.bindFailed(c, err)
		return
	}
	resp, err := h.svc.GetProduct(c.Request.Context(), p.uuid())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListPackagings handles GET /products/:id/packagings, default first
func (h *CatalogHandler) ListPackagings(c *gin.Context) {
	var p idParam
	if err := c.ShouldBindUri(&p); err != nil {
		h.bindFailed(c, err)
		return
	}
	resp, err := h.svc.ListPackagings(c.Request.Context(), p.uuid())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RegisterPackaging handles POST /packagings
func (h *CatalogHandler) RegisterPackaging(c *gin.Context) {
	var req appcosting.RegisterPackagingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.RegisterPackaging(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// SetDefaultPackaging handles PUT /packagings/:id/default
func (h *CatalogHandler) SetDefaultPackaging(c *gin.Context) {
	var p idParam
	if err := c.ShouldBindUri(&p); err != nil {
		h.bindFailed(c, err)
		return
	}
	resp, err := h.svc.SetDefaultPackaging(c.Request.Context(), p.uuid())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
