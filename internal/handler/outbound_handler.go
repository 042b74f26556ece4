package handler

import (
	"net/http"

	"wms-backend/internal/middleware"
	"wms-backend/internal/service"
	"wms-backend/pkg/pagination"
	"wms-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OutboundHandler struct {
	outboundService service.OutboundService
}

func NewOutboundHandler(outboundService service.OutboundService) *OutboundHandler {
	return &OutboundHandler{outboundService: outboundService}
}

func (h *OutboundHandler) RegisterRoutes(router *gin.RouterGroup) {
	outbound := router.Group("/api/outbounds")
	{
		outbound.GET("", h.List)
		outbound.GET("/:id", h.Get)
		outbound.POST("", middleware.RequireOperator(), h.Create)
		outbound.POST("/:id/approve", middleware.RequireOperator(), h.Approve)
		outbound.POST("/:id/ship", middleware.RequireOperator(), h.Ship)
		outbound.POST("/:id/cancel", middleware.RequireOperator(), h.Cancel)
	}
}

// List returns paginated outbound documents
// @Summary      List outbounds
// @Tags         outbound
// @Security     BearerAuth
// @Produce      json
// @Param        warehouse_id  query     string  false  "Warehouse ID"
// @Param        status        query     string  false  "Document status"
// @Param        type          query     string  false  "Outbound type"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/outbounds [get]
func (h *OutboundHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	docs, total, err := h.outboundService.List(c.Request.Context(), service.OutboundFilterRequest{
		WarehouseID: c.Query("warehouse_id"),
		Status:      c.Query("status"),
		Type:        c.Query("type"),
		Page:        params.Page,
		Limit:       params.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"outbounds": docs,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// Get returns one outbound document with items
// @Summary      Get outbound
// @Tags         outbound
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Outbound ID"
// @Success      200  {object}  response.Response{data=model.OutboundDocument}
// @Failure      404  {object}  response.Response
// @Router       /api/outbounds/{id} [get]
func (h *OutboundHandler) Get(c *gin.Context) {
	doc, err := h.outboundService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Create registers a new outbound order in Pending
// @Summary      Create outbound
// @Tags         outbound
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOutboundRequest  true  "Create Outbound Payload"
// @Success      201  {object}  response.Response{data=model.OutboundDocument}
// @Failure      400  {object}  response.Response
// @Router       /api/outbounds [post]
func (h *OutboundHandler) Create(c *gin.Context) {
	var req service.CreateOutboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.outboundService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// Approve reserves stock for every line and generates picking tasks
// @Summary      Approve outbound
// @Tags         outbound
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Outbound ID"
// @Success      200  {object}  response.Response{data=model.OutboundDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/outbounds/{id}/approve [post]
func (h *OutboundHandler) Approve(c *gin.Context) {
	doc, err := h.outboundService.Approve(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Ship closes a fully picked outbound
// @Summary      Ship outbound
// @Tags         outbound
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Outbound ID"
// @Success      200  {object}  response.Response{data=model.OutboundDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/outbounds/{id}/ship [post]
func (h *OutboundHandler) Ship(c *gin.Context) {
	doc, err := h.outboundService.Ship(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Cancel aborts an outbound and releases any remaining reservations
// @Summary      Cancel outbound
// @Tags         outbound
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Outbound ID"
// @Success      200  {object}  response.Response{data=model.OutboundDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/outbounds/{id}/cancel [post]
func (h *OutboundHandler) Cancel(c *gin.Context) {
	doc, err := h.outboundService.Cancel(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}
