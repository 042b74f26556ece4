package handler

import (
	"net/http"

	"wms-backend/internal/middleware"
	"wms-backend/internal/model"
	"wms-backend/internal/repository"
	"wms-backend/internal/service"
	"wms-backend/pkg/pagination"
	"wms-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct {
	ledgerService service.LedgerService
}

func NewStockHandler(ledgerService service.LedgerService) *StockHandler {
	return &StockHandler{ledgerService: ledgerService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api")
	{
		stock.GET("/stock", h.ListStock)
		stock.GET("/stock/transactions", h.ListTransactions)
		stock.PUT("/stock/status", middleware.RequireOperator(), h.SetStatus)
	}
}

type stockStatusRequest struct {
	WarehouseID string  `json:"warehouse_id" binding:"required,uuid"`
	LocationID  *string `json:"location_id" binding:"omitempty,uuid"`
	GoodsID     string  `json:"goods_id" binding:"required,uuid"`
	BatchNo     *string `json:"batch_no"`
	SerialNo    *string `json:"serial_no"`
	Status      string  `json:"status" binding:"required,oneof=NORMAL FROZEN PENDING_INSPECTION DAMAGED"`
}

// ListStock returns paginated ledger entries with derived availability
// @Summary      List stock
// @Description  Retrieves ledger entries filtered by warehouse, location or goods
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        warehouse_id  query     string  false  "Warehouse ID"
// @Param        location_id   query     string  false  "Location ID"
// @Param        goods_id      query     string  false  "Goods ID"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/stock [get]
func (h *StockHandler) ListStock(c *gin.Context) {
	params := pagination.Parse(c)

	var filter repository.LedgerFilter
	if v := c.Query("warehouse_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid warehouse_id"))
			return
		}
		filter.WarehouseID = &id
	}
	if v := c.Query("location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid location_id"))
			return
		}
		filter.LocationID = &id
	}
	if v := c.Query("goods_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid goods_id"))
			return
		}
		filter.GoodsID = &id
	}

	entries, total, err := h.ledgerService.ListStock(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	type stockRow struct {
		model.StockLedgerEntry
		Available string `json:"available"`
	}
	rows := make([]stockRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, stockRow{StockLedgerEntry: e, Available: e.Available().String()})
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"entries": rows,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// ListTransactions returns the stock movement journal for one goods
// @Summary      List stock transactions
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        goods_id  query     string  true   "Goods ID"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/stock/transactions [get]
func (h *StockHandler) ListTransactions(c *gin.Context) {
	params := pagination.Parse(c)

	goodsID, err := uuid.Parse(c.Query("goods_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid goods_id"))
		return
	}

	txs, total, err := h.ledgerService.ListTransactions(c.Request.Context(), goodsID, params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        total,
		"page":         params.Page,
		"limit":        params.Limit,
	}))
}

// SetStatus freezes or releases a ledger entry
// @Summary      Set stock status
// @Description  Moves a ledger entry between NORMAL, FROZEN, PENDING_INSPECTION and DAMAGED
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      stockStatusRequest  true  "Stock Status Payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/stock/status [put]
func (h *StockHandler) SetStatus(c *gin.Context) {
	var req stockStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	key := model.LedgerKey{
		WarehouseID: uuid.MustParse(req.WarehouseID),
		GoodsID:     uuid.MustParse(req.GoodsID),
		BatchNo:     req.BatchNo,
		SerialNo:    req.SerialNo,
	}
	if req.LocationID != nil {
		id := uuid.MustParse(*req.LocationID)
		key.LocationID = &id
	}

	if err := h.ledgerService.SetStatus(c.Request.Context(), key, req.Status); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": req.Status}))
}
