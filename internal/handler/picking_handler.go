package handler

import (
	"net/http"

	"wms-backend/internal/middleware"
	"wms-backend/internal/service"
	"wms-backend/pkg/pagination"
	"wms-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PickingHandler struct {
	pickingService service.PickingService
}

func NewPickingHandler(pickingService service.PickingService) *PickingHandler {
	return &PickingHandler{pickingService: pickingService}
}

func (h *PickingHandler) RegisterRoutes(router *gin.RouterGroup) {
	picking := router.Group("/api")
	{
		picking.GET("/picking/tasks", h.ListTasks)
		picking.POST("/picking/tasks/:id/execute", middleware.RequireOperator(), h.ExecuteTask)
		picking.POST("/picking/tasks/:id/cancel", middleware.RequireOperator(), h.CancelTask)

		picking.GET("/picking/waves", h.ListWaves)
		picking.POST("/picking/waves", middleware.RequireOperator(), h.CreateWave)
		picking.GET("/picking/waves/:id/progress", h.GetWaveProgress)
		picking.POST("/picking/waves/:id/complete", middleware.RequireOperator(), h.CompleteWave)
	}
}

// ListTasks returns paginated picking tasks
// @Summary      List picking tasks
// @Tags         picking
// @Security     BearerAuth
// @Produce      json
// @Param        outbound_id  query     string  false  "Outbound ID"
// @Param        wave_id      query     string  false  "Wave ID"
// @Param        picker_id    query     string  false  "Picker ID"
// @Param        status       query     string  false  "Task status"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/picking/tasks [get]
func (h *PickingHandler) ListTasks(c *gin.Context) {
	params := pagination.Parse(c)

	tasks, total, err := h.pickingService.ListTasks(c.Request.Context(), service.PickingTaskFilterRequest{
		OutboundID: c.Query("outbound_id"),
		WaveID:     c.Query("wave_id"),
		PickerID:   c.Query("picker_id"),
		Status:     c.Query("status"),
		Page:       params.Page,
		Limit:      params.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// ExecuteTask completes one picking task or parks it with an exception code
// @Summary      Execute picking task
// @Description  Records the actual picked quantity (consuming reserved stock) or an exception
// @Tags         picking
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Task ID"
// @Param        payload  body      service.ExecutePickingRequest  true  "Picking result"
// @Success      200  {object}  response.Response{data=model.PickingTask}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/picking/tasks/{id}/execute [post]
func (h *PickingHandler) ExecuteTask(c *gin.Context) {
	var req service.ExecutePickingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	task, err := h.pickingService.ExecutePicking(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// CancelTask cancels a pending or exception task
// @Summary      Cancel picking task
// @Tags         picking
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Task ID"
// @Success      200  {object}  response.Response{data=model.PickingTask}
// @Failure      409  {object}  response.Response
// @Router       /api/picking/tasks/{id}/cancel [post]
func (h *PickingHandler) CancelTask(c *gin.Context) {
	task, err := h.pickingService.CancelTask(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// ListWaves returns paginated picking waves
// @Summary      List picking waves
// @Tags         picking
// @Security     BearerAuth
// @Produce      json
// @Param        warehouse_id  query     string  false  "Warehouse ID"
// @Param        status        query     string  false  "Wave status"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/picking/waves [get]
func (h *PickingHandler) ListWaves(c *gin.Context) {
	params := pagination.Parse(c)

	waves, total, err := h.pickingService.ListWaves(c.Request.Context(), c.Query("warehouse_id"), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"waves": waves,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// CreateWave groups approved outbounds into one picking wave
// @Summary      Create picking wave
// @Tags         picking
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateWaveRequest  true  "Create Wave Payload"
// @Success      201  {object}  response.Response{data=model.PickingWave}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/picking/waves [post]
func (h *PickingHandler) CreateWave(c *gin.Context) {
	var req service.CreateWaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	wave, err := h.pickingService.CreateWave(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, wave))
}

// GetWaveProgress returns task completion counters for one wave
// @Summary      Get wave progress
// @Tags         picking
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Wave ID"
// @Success      200  {object}  response.Response{data=service.WaveProgress}
// @Failure      404  {object}  response.Response
// @Router       /api/picking/waves/{id}/progress [get]
func (h *PickingHandler) GetWaveProgress(c *gin.Context) {
	progress, err := h.pickingService.GetWaveProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, progress))
}

// CompleteWave closes a wave once every task is done
// @Summary      Complete picking wave
// @Tags         picking
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Wave ID"
// @Success      200  {object}  response.Response{data=model.PickingWave}
// @Failure      409  {object}  response.Response
// @Router       /api/picking/waves/{id}/complete [post]
func (h *PickingHandler) CompleteWave(c *gin.Context) {
	wave, err := h.pickingService.CompleteWave(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, wave))
}
