package handler

import (
	"net/http"

	"wms-backend/internal/middleware"
	"wms-backend/internal/service"
	"wms-backend/pkg/pagination"
	"wms-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockMoveHandler struct {
	moveService service.StockMoveService
}

func NewStockMoveHandler(moveService service.StockMoveService) *StockMoveHandler {
	return &StockMoveHandler{moveService: moveService}
}

func (h *StockMoveHandler) RegisterRoutes(router *gin.RouterGroup) {
	moves := router.Group("/api/stock-moves")
	{
		moves.GET("", h.List)
		moves.GET("/:id", h.Get)
		moves.POST("", middleware.RequireOperator(), h.Create)
		moves.POST("/:id/start", middleware.RequireOperator(), h.Start)
		moves.POST("/:id/complete", middleware.RequireOperator(), h.Complete)
		moves.POST("/:id/cancel", middleware.RequireOperator(), h.Cancel)
	}
}

// List returns paginated stock move documents
// @Summary      List stock moves
// @Tags         stock-move
// @Security     BearerAuth
// @Produce      json
// @Param        warehouse_id  query     string  false  "Warehouse ID"
// @Param        status        query     string  false  "Document status"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/stock-moves [get]
func (h *StockMoveHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	docs, total, err := h.moveService.List(c.Request.Context(), c.Query("warehouse_id"), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"moves": docs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// Get returns one stock move document
// @Summary      Get stock move
// @Tags         stock-move
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Stock Move ID"
// @Success      200  {object}  response.Response{data=model.StockMoveDocument}
// @Failure      404  {object}  response.Response
// @Router       /api/stock-moves/{id} [get]
func (h *StockMoveHandler) Get(c *gin.Context) {
	doc, err := h.moveService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Create registers a location-to-location move in Pending
// @Summary      Create stock move
// @Tags         stock-move
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateStockMoveRequest  true  "Create Stock Move Payload"
// @Success      201  {object}  response.Response{data=model.StockMoveDocument}
// @Failure      400  {object}  response.Response
// @Router       /api/stock-moves [post]
func (h *StockMoveHandler) Create(c *gin.Context) {
	var req service.CreateStockMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.moveService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// Start marks a move as in progress
// @Summary      Start stock move
// @Tags         stock-move
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Stock Move ID"
// @Success      200  {object}  response.Response{data=model.StockMoveDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/stock-moves/{id}/start [post]
func (h *StockMoveHandler) Start(c *gin.Context) {
	doc, err := h.moveService.Start(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Complete transfers the stock between locations and closes the move
// @Summary      Complete stock move
// @Tags         stock-move
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Stock Move ID"
// @Success      200  {object}  response.Response{data=model.StockMoveDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/stock-moves/{id}/complete [post]
func (h *StockMoveHandler) Complete(c *gin.Context) {
	doc, err := h.moveService.Complete(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Cancel aborts a move before stock is transferred
// @Summary      Cancel stock move
// @Tags         stock-move
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Stock Move ID"
// @Success      200  {object}  response.Response{data=model.StockMoveDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/stock-moves/{id}/cancel [post]
func (h *StockMoveHandler) Cancel(c *gin.Context) {
	doc, err := h.moveService.Cancel(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}
