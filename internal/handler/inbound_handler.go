package handler

import (
	"net/http"

	"wms-backend/internal/middleware"
	"wms-backend/internal/service"
	"wms-backend/pkg/pagination"
	"wms-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type InboundHandler struct {
	inboundService service.InboundService
}

func NewInboundHandler(inboundService service.InboundService) *InboundHandler {
	return &InboundHandler{inboundService: inboundService}
}

func (h *InboundHandler) RegisterRoutes(router *gin.RouterGroup) {
	inbound := router.Group("/api/inbounds")
	{
		inbound.GET("", h.List)
		inbound.GET("/:id", h.Get)
		inbound.POST("", middleware.RequireOperator(), h.Create)
		inbound.PUT("/:id", middleware.RequireOperator(), h.Update)
		inbound.DELETE("/:id", middleware.RequireOperator(), h.Delete)
		inbound.POST("/:id/approve", middleware.RequireOperator(), h.Approve)
		inbound.POST("/:id/start", middleware.RequireOperator(), h.StartReceiving)
		inbound.POST("/:id/complete", middleware.RequireOperator(), h.Complete)
		inbound.POST("/:id/cancel", middleware.RequireOperator(), h.Cancel)
	}
}

// List returns paginated inbound documents
// @Summary      List inbounds
// @Tags         inbound
// @Security     BearerAuth
// @Produce      json
// @Param        warehouse_id  query     string  false  "Warehouse ID"
// @Param        status        query     string  false  "Document status"
// @Param        type          query     string  false  "Inbound type"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/inbounds [get]
func (h *InboundHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	docs, total, err := h.inboundService.List(c.Request.Context(), service.InboundFilterRequest{
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
		"inbounds": docs,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// Get returns one inbound document with items
// @Summary      Get inbound
// @Tags         inbound
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Inbound ID"
// @Success      200  {object}  response.Response{data=model.InboundDocument}
// @Failure      404  {object}  response.Response
// @Router       /api/inbounds/{id} [get]
func (h *InboundHandler) Get(c *gin.Context) {
	doc, err := h.inboundService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Create registers a new inbound document in Draft
// @Summary      Create inbound
// @Tags         inbound
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInboundRequest  true  "Create Inbound Payload"
// @Success      201  {object}  response.Response{data=model.InboundDocument}
// @Failure      400  {object}  response.Response
// @Router       /api/inbounds [post]
func (h *InboundHandler) Create(c *gin.Context) {
	var req service.CreateInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.inboundService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// Update replaces header fields and items of a Draft inbound
// @Summary      Update inbound
// @Tags         inbound
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Inbound ID"
// @Param        payload  body      service.UpdateInboundRequest  true  "Update Inbound Payload"
// @Success      200  {object}  response.Response{data=model.InboundDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/inbounds/{id} [put]
func (h *InboundHandler) Update(c *gin.Context) {
	var req service.UpdateInboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.inboundService.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Delete removes a Draft inbound
// @Summary      Delete inbound
// @Tags         inbound
// @Security     BearerAuth
// @Param        id  path  string  true  "Inbound ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/inbounds/{id} [delete]
func (h *InboundHandler) Delete(c *gin.Context) {
	if err := h.inboundService.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

// Approve moves a Draft inbound to Approved
// @Summary      Approve inbound
// @Tags         inbound
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Inbound ID"
// @Success      200  {object}  response.Response{data=model.InboundDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/inbounds/{id}/approve [post]
func (h *InboundHandler) Approve(c *gin.Context) {
	doc, err := h.inboundService.Approve(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// StartReceiving moves an Approved inbound to Receiving
// @Summary      Start receiving
// @Tags         inbound
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Inbound ID"
// @Success      200  {object}  response.Response{data=model.InboundDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/inbounds/{id}/start [post]
func (h *InboundHandler) StartReceiving(c *gin.Context) {
	doc, err := h.inboundService.StartReceiving(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Complete posts all received quantities to stock and closes the inbound
// @Summary      Complete inbound
// @Tags         inbound
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true   "Inbound ID"
// @Param        payload  body      service.CompleteInboundRequest  false  "Received quantities per item"
// @Success      200  {object}  response.Response{data=model.InboundDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/inbounds/{id}/complete [post]
func (h *InboundHandler) Complete(c *gin.Context) {
	var req service.CompleteInboundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
			return
		}
	}

	doc, err := h.inboundService.Complete(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Cancel aborts an inbound before any stock is posted
// @Summary      Cancel inbound
// @Tags         inbound
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Inbound ID"
// @Success      200  {object}  response.Response{data=model.InboundDocument}
// @Failure      409  {object}  response.Response
// @Router       /api/inbounds/{id}/cancel [post]
func (h *InboundHandler) Cancel(c *gin.Context) {
	doc, err := h.inboundService.Cancel(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}
