package service

import "errors"

// Ledger errors. The first four are terminal for the triggering operation;
// ErrConcurrentModification is retried inside the ledger up to a fixed bound
// before being surfaced.
var (
	ErrInsufficientAvailable     = errors.New("insufficient available quantity")
	ErrInsufficientStock         = errors.New("insufficient stock quantity")
	ErrInsufficientLock          = errors.New("insufficient locked quantity")
	ErrNegativeResultingQuantity = errors.New("adjustment would drive quantity below locked quantity")
	ErrConcurrentModification    = errors.New("concurrent modification, retries exhausted")
	ErrEntryFrozen               = errors.New("ledger entry is not in normal status")
	ErrStockNotFound             = errors.New("no stock ledger entry for key")
)

// Consistency errors, rejected synchronously before any ledger call.
var (
	ErrSameLocation            = errors.New("source and destination location are the same")
	ErrWarehouseMismatch       = errors.New("documents belong to different warehouses")
	ErrOutboundAlreadyInWave   = errors.New("outbound document already belongs to an open wave")
	ErrPickingQuantityExceeded = errors.New("picked quantity exceeds planned quantity")
	ErrBatchRequired           = errors.New("goods requires a batch number")
	ErrSerialRequired          = errors.New("goods requires a serial number")
	ErrUnknownExceptionType    = errors.New("unknown picking exception code")
)

// State and validation errors.
var (
	ErrInvalidStatus    = errors.New("operation not valid for current document status")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrDocumentNotFound = errors.New("document not found")
	ErrGoodsNotFound    = errors.New("goods not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrWarehouseUnknown = errors.New("warehouse not found")
	ErrNoItems          = errors.New("document requires at least one item")
)
