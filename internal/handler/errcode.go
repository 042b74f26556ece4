package handler

import (
	"errors"
	"net/http"

	"wms-backend/internal/service"
	"wms-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// httpStatus maps service-layer errors onto HTTP status codes: missing
// references are 404, state machine and ledger conflicts (including exhausted
// optimistic retries) are 409, everything rejected up front is 400.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrStockNotFound),
		errors.Is(err, service.ErrGoodsNotFound),
		errors.Is(err, service.ErrLocationNotFound),
		errors.Is(err, service.ErrWarehouseUnknown):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrConcurrentModification),
		errors.Is(err, service.ErrInsufficientAvailable),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInsufficientLock),
		errors.Is(err, service.ErrNegativeResultingQuantity),
		errors.Is(err, service.ErrEntryFrozen),
		errors.Is(err, service.ErrOutboundAlreadyInWave):
		return http.StatusConflict
	case errors.Is(err, service.ErrSameLocation),
		errors.Is(err, service.ErrWarehouseMismatch),
		errors.Is(err, service.ErrPickingQuantityExceeded),
		errors.Is(err, service.ErrBatchRequired),
		errors.Is(err, service.ErrSerialRequired),
		errors.Is(err, service.ErrUnknownExceptionType),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrNoItems):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := httpStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}
