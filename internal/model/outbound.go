package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OutboundStatus constants
const (
	OutboundStatusPending   = "PENDING"
	OutboundStatusApproved  = "APPROVED"
	OutboundStatusPicking   = "PICKING"
	OutboundStatusToShip    = "TO_SHIP"
	OutboundStatusShipped   = "SHIPPED"
	OutboundStatusCancelled = "CANCELLED"
)

// OutboundType constants
const (
	OutboundTypeSales    = "SALES"
	OutboundTypeReturn   = "RETURN"
	OutboundTypeTransfer = "TRANSFER"
	OutboundTypeOther    = "OTHER"
)

// OutboundDocument is a shipment of goods out of a warehouse. Its
// picked/shipped aggregates are recomputed from picking task completions and
// are never written by a client directly.
type OutboundDocument struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocumentNo     string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"document_no"`
	Type           string          `gorm:"type:varchar(20);not null" json:"type"`
	WarehouseID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	CustomerID     *uuid.UUID      `gorm:"type:uuid" json:"customer_id"`
	CarrierID      *uuid.UUID      `gorm:"type:uuid" json:"carrier_id"`
	Status         string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	TotalQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_quantity"`
	PickedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"picked_quantity"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	Note           string          `gorm:"type:text" json:"note"`
	ApprovedBy     *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt     *time.Time      `json:"approved_at"`
	ShippedBy      *uuid.UUID      `gorm:"type:uuid" json:"shipped_by"`
	ShippedAt      *time.Time      `json:"shipped_at"`
	Items          []OutboundItem  `gorm:"foreignKey:OutboundID" json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// OutboundItem is one goods line of an outbound document.
type OutboundItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OutboundID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"outbound_id"`
	GoodsID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"goods_id"`
	LocationID      *uuid.UUID      `gorm:"type:uuid" json:"location_id"`
	BatchNo         *string         `gorm:"type:varchar(100)" json:"batch_no"`
	SerialNo        *string         `gorm:"type:varchar(100)" json:"serial_no"`
	PlanQuantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"plan_quantity"`
	PickedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"picked_quantity"`
	ShippedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"shipped_quantity"`
	Price           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LedgerKey builds the ledger key this item reserves and consumes from.
func (i *OutboundItem) LedgerKey(warehouseID uuid.UUID) LedgerKey {
	return LedgerKey{
		WarehouseID: warehouseID,
		LocationID:  i.LocationID,
		GoodsID:     i.GoodsID,
		BatchNo:     i.BatchNo,
		SerialNo:    i.SerialNo,
	}
}
