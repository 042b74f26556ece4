package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMoveStatus constants
const (
	StockMoveStatusPending    = "PENDING"
	StockMoveStatusProcessing = "PROCESSING"
	StockMoveStatusCompleted  = "COMPLETED"
	StockMoveStatusCancelled  = "CANCELLED"
)

// StockMoveDocument relocates a quantity of one goods between two locations
// of the same warehouse. Completing it runs a ledger transfer: both sides
// commit or neither does.
type StockMoveDocument struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MoveNo         string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"move_no"`
	WarehouseID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	GoodsID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"goods_id"`
	FromLocationID uuid.UUID       `gorm:"type:uuid;not null" json:"from_location_id"`
	ToLocationID   uuid.UUID       `gorm:"type:uuid;not null" json:"to_location_id"`
	BatchNo        *string         `gorm:"type:varchar(100)" json:"batch_no"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Status         string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Note           string          `gorm:"type:text" json:"note"`
	CompletedBy    *uuid.UUID      `gorm:"type:uuid" json:"completed_by"`
	CompletedAt    *time.Time      `json:"completed_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// FromKey is the ledger key stock is consumed from.
func (m *StockMoveDocument) FromKey() LedgerKey {
	from := m.FromLocationID
	return LedgerKey{WarehouseID: m.WarehouseID, LocationID: &from, GoodsID: m.GoodsID, BatchNo: m.BatchNo}
}

// ToKey is the ledger key stock is received into.
func (m *StockMoveDocument) ToKey() LedgerKey {
	to := m.ToLocationID
	return LedgerKey{WarehouseID: m.WarehouseID, LocationID: &to, GoodsID: m.GoodsID, BatchNo: m.BatchNo}
}
