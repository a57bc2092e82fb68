package handler

import (
	"time"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// defaultExpiryWindow applies when GET /batches/expiring has no window
const defaultExpiryWindow = 30 * 24 * time.Hour

// CostingHandler exposes stock movements, costing and reports
type CostingHandler struct {
	BaseHandler
	svc *appcosting.Service
}

// NewCostingHandler creates a CostingHandler
func NewCostingHandler(svc *appcosting.Service) *CostingHandler {
	return &CostingHandler{svc: svc}
}

// Receive handles POST /receipts
//
// @ID           receiveStock
// @Summary      Receive stock
// @Description  Create a batch and a receipt movement. Quantities and costs carry at most 4 decimal places.
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body appcosting.ReceiveRequest true "Receipt"
// @Success      201 {object} dto.Response{data=appcosting.ReceiveResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/receipts [post]
func (h *CostingHandler) Receive(c *gin.Context) {
	var req appcosting.ReceiveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Receive(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Consume handles POST /consumptions
//
// @ID           consumeStock
// @Summary      Consume stock
// @Description  Allocate batches with the resolved or requested costing method and deduct them
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body appcosting.ConsumeRequest true "Consumption"
// @Success      200 {object} dto.Response{data=appcosting.ConsumeResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/consumptions [post]
func (h *CostingHandler) Consume(c *gin.Context) {
	var req appcosting.ConsumeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Consume(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ProcessMovement handles POST /movements with a signed quantity
//
// @ID           processStockMovement
// @Summary      Process a signed stock movement
// @Description  Positive quantities receive, negative quantities consume
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body appcosting.MovementRequest true "Movement"
// @Success      201 {object} dto.Response{data=appcosting.MovementResult}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/movements [post]
func (h *CostingHandler) ProcessMovement(c *gin.Context) {
	var req appcosting.MovementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.ProcessStockMovement(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Transfer handles POST /transfers
//
// @ID           transferStock
// @Summary      Transfer stock between warehouses
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body appcosting.TransferRequest true "Transfer"
// @Success      200 {object} dto.Response{data=appcosting.TransferResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/transfers [post]
func (h *CostingHandler) Transfer(c *gin.Context) {
	var req appcosting.TransferRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Transfer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reserve handles POST /reservations
//
// @ID           reserveStock
// @Summary      Reserve stock
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body appcosting.ReservationRequest true "Reservation"
// @Success      200 {object} dto.Response{data=appcosting.StockResponse}
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/reservations [post]
func (h *CostingHandler) Reserve(c *gin.Context) {
	var req appcosting.ReservationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Reserve(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Release handles DELETE /reservations
//
// @ID           releaseStock
// @Summary      Release reserved stock
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body appcosting.ReservationRequest true "Reservation"
// @Success      200 {object} dto.Response{data=appcosting.StockResponse}
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/reservations [delete]
func (h *CostingHandler) Release(c *gin.Context) {
	var req appcosting.ReservationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Release(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetStock handles GET /stock. A position that never held stock reads as zero.
//
// @ID           getStock
// @Summary      Get stock position
// @Tags         costing
// @Produce      json
// @Param        warehouse_id query string true "Warehouse ID" format(uuid)
// @Param        product_id query string true "Product ID" format(uuid)
// @Param        packaging_id query string true "Packaging ID" format(uuid)
// @Success      200 {object} dto.Response{data=appcosting.StockResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/stock [get]
func (h *CostingHandler) GetStock(c *gin.Context) {
	var q stockKeyQuery
	if !h.bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.GetStock(c.Request.Context(), q.key())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// VerifyConservation handles GET /stock/conservation
//
// @ID           verifyConservation
// @Summary      Check projection against batches
// @Tags         costing
// @Produce      json
// @Param        warehouse_id query string true "Warehouse ID" format(uuid)
// @Param        product_id query string true "Product ID" format(uuid)
// @Param        packaging_id query string true "Packaging ID" format(uuid)
// @Success      200 {object} dto.Response{data=appcosting.ConservationReport}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/stock/conservation [get]
func (h *CostingHandler) VerifyConservation(c *gin.Context) {
	var q stockKeyQuery
	if !h.bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.VerifyConservation(c.Request.Context(), q.key())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetCostPreview handles GET /cost-preview
//
// @ID           getCostPreview
// @Summary      Preview consumption cost
// @Description  Price a consumption without committing it
// @Tags         costing
// @Produce      json
// @Param        warehouse_id query string true "Warehouse ID" format(uuid)
// @Param        product_id query string true "Product ID" format(uuid)
// @Param        packaging_id query string true "Packaging ID" format(uuid)
// @Param        quantity query string true "Quantity to price"
// @Param        method query string false "Method override" Enums(fifo, lifo, average, specific)
// @Param        specific_batch_id query string false "Batch for the specific method" format(uuid)
// @Success      200 {object} dto.Response{data=appcosting.CostPreviewResponse}
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/cost-preview [get]
func (h *CostingHandler) GetCostPreview(c *gin.Context) {
	var q costPreviewQuery
	if !h.bindQuery(c, &q) {
		return
	}
	quantity, err := decimal.NewFromString(q.Quantity)
	if err != nil {
		h.ValidationError(c, []dto.ValidationDetail{{Field: "quantity", Message: "Must be numeric"}})
		return
	}
	key := q.key()
	req := appcosting.CostPreviewRequest{
		StockKeyRequest: appcosting.StockKeyRequest{
			WarehouseID: key.WarehouseID,
			ProductID:   key.ProductID,
			PackagingID: key.PackagingID,
		},
		Quantity:        quantity,
		Method:          q.Method,
		SpecificBatchID: optionalUUID(q.SpecificBatchID),
	}
	resp, err := h.svc.GetCostPreview(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GenerateReport handles POST /reports
//
// @ID           generateCostReport
// @Summary      Generate a cost report
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body appcosting.StockKeyRequest true "Stock position"
// @Success      201 {object} dto.Response{data=appcosting.CostCalculationResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/reports [post]
func (h *CostingHandler) GenerateReport(c *gin.Context) {
	var req appcosting.StockKeyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.GenerateCostReport(c.Request.Context(), req.Key())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetCurrentReport handles GET /reports/current
//
// @ID           getCurrentCostReport
// @Summary      Get the current cost report
// @Tags         costing
// @Produce      json
// @Param        warehouse_id query string true "Warehouse ID" format(uuid)
// @Param        product_id query string true "Product ID" format(uuid)
// @Param        packaging_id query string true "Packaging ID" format(uuid)
// @Success      200 {object} dto.Response{data=appcosting.CostCalculationResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/reports/current [get]
func (h *CostingHandler) GetCurrentReport(c *gin.Context) {
	var q stockKeyQuery
	if !h.bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.GetCurrentCostReport(c.Request.Context(), q.key())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListReports handles GET /reports, newest first
//
// @ID           listCostReports
// @Summary      List cost reports
// @Tags         costing
// @Produce      json
// @Param        warehouse_id query string true "Warehouse ID" format(uuid)
// @Param        product_id query string true "Product ID" format(uuid)
// @Param        packaging_id query string true "Packaging ID" format(uuid)
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]appcosting.CostCalculationResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/reports [get]
func (h *CostingHandler) ListReports(c *gin.Context) {
	var q reportListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.svc.ListCostReports(c.Request.Context(), q.key(), pageFilter(q.ListQuery.WithDefaults()))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(c, page)
}

// ListMovements handles GET /movements
//
// @ID           listMovements
// @Summary      List movements
// @Tags         costing
// @Produce      json
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        movement_type query string false "Movement type"
// @Param        from query string false "From (RFC 3339)"
// @Param        to query string false "To (RFC 3339)"
// @Param        page query int false "Page"
// @Success      200 {object} dto.Response{data=[]appcosting.MovementResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/movements [get]
func (h *CostingHandler) ListMovements(c *gin.Context) {
	var q movementListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.svc.ListMovements(c.Request.Context(), q.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(c, page)
}

// ListBatches handles GET /batches
//
// @ID           listBatches
// @Summary      List batches
// @Tags         costing
// @Produce      json
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Param        include_empty query bool false "Include exhausted batches"
// @Param        page query int false "Page"
// @Success      200 {object} dto.Response{data=[]appcosting.BatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/batches [get]
func (h *CostingHandler) ListBatches(c *gin.Context) {
	var q batchListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.svc.ListBatches(c.Request.Context(), q.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	successPage(c, page)
}

// ListExpiringBatches handles GET /batches/expiring?within=72h
//
// @ID           listExpiringBatches
// @Summary      List batches expiring soon
// @Tags         costing
// @Produce      json
// @Param        within query string false "Window such as 72h"
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]appcosting.BatchResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/batches/expiring [get]
func (h *CostingHandler) ListExpiringBatches(c *gin.Context) {
	var q expiringQuery
	if !h.bindQuery(c, &q) {
		return
	}
	within := defaultExpiryWindow
	if q.Within != "" {
		d, err := time.ParseDuration(q.Within)
		if err != nil {
			h.ValidationError(c, []dto.ValidationDetail{{Field: "within", Message: "Must be a duration such as 72h"}})
			return
		}
		within = d
	}
	resp, err := h.svc.ListExpiringBatches(c.Request.Context(), within, optionalUUID(q.WarehouseID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CleanupEmptyBatches handles POST /maintenance/cleanup
//
// @ID           cleanupEmptyBatches
// @Summary      Deactivate exhausted batches
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body CleanupRequest false "Scope"
// @Success      200 {object} dto.Response{data=CleanupResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/maintenance/cleanup [post]
func (h *CostingHandler) CleanupEmptyBatches(c *gin.Context) {
	var req CleanupRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	count, err := h.svc.CleanupEmptyBatches(c.Request.Context(), req.WarehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CleanupResponse{Deactivated: count})
}

// CreateRule handles POST /rules
//
// @ID           createCostingRule
// @Summary      Create a costing rule
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body appcosting.CreateRuleRequest true "Rule"
// @Success      201 {object} dto.Response{data=appcosting.RuleResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/rules [post]
func (h *CostingHandler) CreateRule(c *gin.Context) {
	var req appcosting.CreateRuleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.CreateCostingRule(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListRules handles GET /rules?warehouse_id=
//
// @ID           listCostingRules
// @Summary      List costing rules of a warehouse
// @Tags         costing
// @Produce      json
// @Param        warehouse_id query string true "Warehouse ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]appcosting.RuleResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/rules [get]
func (h *CostingHandler) ListRules(c *gin.Context) {
	var q warehouseQuery
	if !h.bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ListRules(c.Request.Context(), uuid.MustParse(q.WarehouseID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListMethods handles GET /methods
//
// @ID           listCostingMethods
// @Summary      List costing methods
// @Tags         costing
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appcosting.MethodResponse}
// @Failure      500 {object} dto.Response
// @Router       /costing/methods [get]
func (h *CostingHandler) ListMethods(c *gin.Context) {
	resp, err := h.svc.ListMethods(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetDefaultMethod handles PUT /methods/default
//
// @ID           setDefaultCostingMethod
// @Summary      Set the default costing method
// @Tags         costing
// @Accept       json
// @Produce      json
// @Param        request body SetDefaultMethodRequest true "Method"
// @Success      200 {object} dto.Response{data=appcosting.MethodResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/methods/default [put]
func (h *CostingHandler) SetDefaultMethod(c *gin.Context) {
	var req SetDefaultMethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.SetDefaultMethod(c.Request.Context(), req.Method)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ResolveMethod handles GET /methods/resolve
//
// @ID           resolveCostingMethod
// @Summary      Resolve the method for a product
// @Tags         costing
// @Produce      json
// @Param        warehouse_id query string true "Warehouse ID" format(uuid)
// @Param        product_id query string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=appcosting.ResolvedMethodResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /costing/methods/resolve [get]
func (h *CostingHandler) ResolveMethod(c *gin.Context) {
	var q resolveQuery
	if !h.bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.ResolveMethod(c.Request.Context(), uuid.MustParse(q.WarehouseID), uuid.MustParse(q.ProductID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
