package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PickingTaskStatus constants
const (
	PickingTaskStatusPending   = "PENDING"
	PickingTaskStatusCompleted = "COMPLETED"
	PickingTaskStatusException = "EXCEPTION"
	PickingTaskStatusCancelled = "CANCELLED"
)

// PickingExceptionType codes reported by pickers. Unknown codes are rejected
// at the boundary.
const (
	PickingExceptionNone              = 0
	PickingExceptionGoodsNotFound     = 1
	PickingExceptionInsufficientStock = 2
	PickingExceptionDamagedGoods      = 3
	PickingExceptionLocationBlocked   = 4
)

// ValidPickingException reports whether code is a known exception code.
func ValidPickingException(code int) bool {
	return code >= PickingExceptionNone && code <= PickingExceptionLocationBlocked
}

// PickingTask is one (outbound item, location) pick unit. Completing it
// consumes stock and feeds the parent outbound's picked aggregate.
type PickingTask struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskNo         string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"task_no"`
	WaveID         *uuid.UUID      `gorm:"type:uuid;index" json:"wave_id"`
	OutboundID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"outbound_id"`
	OutboundItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"outbound_item_id"`
	GoodsID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"goods_id"`
	LocationID     *uuid.UUID      `gorm:"type:uuid" json:"location_id"`
	BatchNo        *string         `gorm:"type:varchar(100)" json:"batch_no"`
	SerialNo       *string         `gorm:"type:varchar(100)" json:"serial_no"`
	PlanQuantity   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"plan_quantity"`
	ActualQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"actual_quantity"`
	SortOrder      int             `gorm:"type:int;not null;default:0" json:"sort_order"`
	PickerID       *uuid.UUID      `gorm:"type:uuid;index" json:"picker_id"`
	Status         string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ExceptionType  int             `gorm:"type:int;not null;default:0" json:"exception_type"`
	CompletedAt    *time.Time      `json:"completed_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PickingWaveStatus constants
const (
	PickingWaveStatusPending   = "PENDING"
	PickingWaveStatusPicking   = "PICKING"
	PickingWaveStatusCompleted = "COMPLETED"
	PickingWaveStatusCancelled = "CANCELLED"
)

// PickingWaveType constants
const (
	PickingWaveTypeSingle = "SINGLE"
	PickingWaveTypeBatch  = "BATCH"
)

// PickingWave batches several outbound documents of one warehouse so their
// tasks are picked in a single walk.
type PickingWave struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WaveNo        string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"wave_no"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	WaveType      string          `gorm:"type:varchar(20);not null;default:'BATCH'" json:"wave_type"`
	PickerID      *uuid.UUID      `gorm:"type:uuid" json:"picker_id"`
	Priority      int             `gorm:"type:int;not null;default:0" json:"priority"`
	Status        string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	OrderCount    int             `gorm:"type:int;not null;default:0" json:"order_count"`
	ItemCount     int             `gorm:"type:int;not null;default:0" json:"item_count"`
	TotalQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_quantity"`
	StartTime     *time.Time      `json:"start_time"`
	EndTime       *time.Time      `json:"end_time"`
	ActualSeconds int64           `gorm:"type:bigint;not null;default:0" json:"actual_seconds"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// PickingWaveOutbound joins a wave to the outbound documents it batches. An
// outbound belongs to at most one open wave.
type PickingWaveOutbound struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WaveID     uuid.UUID `gorm:"type:uuid;not null;index" json:"wave_id"`
	OutboundID uuid.UUID `gorm:"type:uuid;not null;index" json:"outbound_id"`
	CreatedAt  time.Time `json:"created_at"`
}
