package handler

import (
	"net/http"
	"strconv"

	"wms-backend/internal/middleware"
	"wms-backend/internal/service"
	"wms-backend/pkg/pagination"
	"wms-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockTakingHandler struct {
	takingService service.StockTakingService
}

func NewStockTakingHandler(takingService service.StockTakingService) *StockTakingHandler {
	return &StockTakingHandler{takingService: takingService}
}

func (h *StockTakingHandler) RegisterRoutes(router *gin.RouterGroup) {
	taking := router.Group("/api/stock-takings")
	{
		taking.GET("", h.List)
		taking.GET("/:id", h.Get)
		taking.POST("", middleware.RequireOperator(), h.Create)
		taking.POST("/:id/count", middleware.RequireOperator(), h.SubmitCount)
		taking.POST("/:id/review", middleware.RequireOperator(), h.Review)
		taking.POST("/:id/adjust", middleware.RequireOperator(), h.Adjust)
	}
}

// List returns paginated stock taking records
// @Summary      List stock takings
// @Tags         stock-taking
// @Security     BearerAuth
// @Produce      json
// @Param        warehouse_id  query     string  false  "Warehouse ID"
// @Param        plan_id       query     string  false  "Plan ID"
// @Param        status        query     string  false  "Record status"
// @Param        only_diff     query     bool    false  "Only records with a non-zero difference"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/stock-takings [get]
func (h *StockTakingHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	onlyDiff, _ := strconv.ParseBool(c.DefaultQuery("only_diff", "false"))

	docs, total, err := h.takingService.List(c.Request.Context(), service.StockTakingFilterRequest{
		WarehouseID: c.Query("warehouse_id"),
		PlanID:      c.Query("plan_id"),
		Status:      c.Query("status"),
		OnlyDiff:    onlyDiff,
		Page:        params.Page,
		Limit:       params.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"stock_takings": docs,
		"total":         total,
		"page":          params.Page,
		"limit":         params.Limit,
	}))
}

// Get returns one stock taking record
// @Summary      Get stock taking
// @Tags         stock-taking
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Stock Taking ID"
// @Success      200  {object}  response.Response{data=model.StockTakingDocument}
// @Failure      404  {object}  response.Response
// @Router       /api/stock-takings/{id} [get]
func (h *StockTakingHandler) Get(c *gin.Context) {
	doc, err := h.takingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Create opens a counting record with a snapshot of book quantity
// @Summary      Create stock taking
// @Tags         stock-taking
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateStockTakingRequest  true  "Create Stock Taking Payload"
// @Success      201  {object}  response.Response{data=model.StockTakingDocument}
// @Failure      400  {object}  response.Response
// @Router       /api/stock-takings [post]
func (h *StockTakingHandler) Create(c *gin.Context) {
	var req service.CreateStockTakingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.takingService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// SubmitCount records the physically counted quantity
// @Summary      Submit count
// @Tags         stock-taking
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Stock Taking ID"
// @Param        payload  body      service.SubmitCountRequest  true  "Counted quantity"
// @Success      200  {object}  response.Response{data=model.StockTakingDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/stock-takings/{id}/count [post]
func (h *StockTakingHandler) SubmitCount(c *gin.Context) {
	var req service.SubmitCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.takingService.SubmitCount(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Review accepts a counted record for adjustment
// @Summary      Review stock taking
// @Tags         stock-taking
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Stock Taking ID"
// @Success      200  {object}  response.Response{data=model.StockTakingDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/stock-takings/{id}/review [post]
func (h *StockTakingHandler) Review(c *gin.Context) {
	doc, err := h.takingService.Review(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Adjust posts the counted difference to the ledger
// @Summary      Adjust stock taking
// @Description  Applies actual minus book to on-hand stock, exactly once per record
// @Tags         stock-taking
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Stock Taking ID"
// @Success      200  {object}  response.Response{data=model.StockTakingDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/stock-takings/{id}/adjust [post]
func (h *StockTakingHandler) Adjust(c *gin.Context) {
	doc, err := h.takingService.Adjust(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}
