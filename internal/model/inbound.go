package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InboundStatus constants
const (
	InboundStatusPending   = "PENDING"
	InboundStatusApproved  = "APPROVED"
	InboundStatusReceiving = "RECEIVING"
	InboundStatusCompleted = "COMPLETED"
	InboundStatusCancelled = "CANCELLED"
)

// InboundType constants
const (
	InboundTypePurchase = "PURCHASE"
	InboundTypeReturn   = "RETURN"
	InboundTypeTransfer = "TRANSFER"
	InboundTypeOther    = "OTHER"
)

// InboundDocument is a receipt of goods into a warehouse. Completing it is the
// only transition with a ledger effect.
type InboundDocument struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocumentNo    string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"document_no"`
	Type          string          `gorm:"type:varchar(20);not null" json:"type"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	SupplierID    *uuid.UUID      `gorm:"type:uuid" json:"supplier_id"`
	Status        string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	TotalQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_quantity"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	Note          string          `gorm:"type:text" json:"note"`
	ApprovedBy    *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt    *time.Time      `json:"approved_at"`
	ArrivedAt     *time.Time      `json:"arrived_at"`
	CompletedBy   *uuid.UUID      `gorm:"type:uuid" json:"completed_by"`
	CompletedAt   *time.Time      `json:"completed_at"`
	Items         []InboundItem   `gorm:"foreignKey:InboundID" json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// InboundItem is one goods line of an inbound document.
type InboundItem struct {
	ID                  uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InboundID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"inbound_id"`
	GoodsID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"goods_id"`
	LocationID          *uuid.UUID      `gorm:"type:uuid" json:"location_id"`
	BatchNo             *string         `gorm:"type:varchar(100)" json:"batch_no"`
	SerialNo            *string         `gorm:"type:varchar(100)" json:"serial_no"`
	PlanQuantity        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"plan_quantity"`
	ReceivedQuantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"received_quantity"`
	QualifiedQuantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"qualified_quantity"`
	UnqualifiedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unqualified_quantity"`
	Price               decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`
	ProductionDate      *time.Time      `json:"production_date"`
	ExpireDate          *time.Time      `json:"expire_date"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// LedgerKey builds the ledger key this item receives into.
func (i *InboundItem) LedgerKey(warehouseID uuid.UUID) LedgerKey {
	return LedgerKey{
		WarehouseID: warehouseID,
		LocationID:  i.LocationID,
		GoodsID:     i.GoodsID,
		BatchNo:     i.BatchNo,
		SerialNo:    i.SerialNo,
	}
}
