package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateInbound   = "CREATE_INBOUND"
	ActionApproveInbound  = "APPROVE_INBOUND"
	ActionReceiveInbound  = "RECEIVE_INBOUND"
	ActionCompleteInbound = "COMPLETE_INBOUND"
	ActionCancelInbound   = "CANCEL_INBOUND"
	ActionUpdateInbound   = "UPDATE_INBOUND"
	ActionDeleteInbound   = "DELETE_INBOUND"

	ActionCreateOutbound  = "CREATE_OUTBOUND"
	ActionApproveOutbound = "APPROVE_OUTBOUND"
	ActionShipOutbound    = "SHIP_OUTBOUND"
	ActionCancelOutbound  = "CANCEL_OUTBOUND"

	ActionExecutePicking = "EXECUTE_PICKING"
	ActionCancelPicking  = "CANCEL_PICKING"
	ActionCreateWave     = "CREATE_WAVE"
	ActionCompleteWave   = "COMPLETE_WAVE"

	ActionCreateMove   = "CREATE_MOVE"
	ActionCompleteMove = "COMPLETE_MOVE"
	ActionCancelMove   = "CANCEL_MOVE"

	ActionCreateStockTake = "CREATE_STOCK_TAKE"
	ActionCountStockTake  = "COUNT_STOCK_TAKE"
	ActionReviewStockTake = "REVIEW_STOCK_TAKE"
	ActionAdjustStockTake = "ADJUST_STOCK_TAKE"
)

// AuditLog tracks Who, What, and When for every document transition
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/document no)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
