package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerStatus constants
const (
	LedgerStatusNormal            = "NORMAL"
	LedgerStatusFrozen            = "FROZEN"
	LedgerStatusPendingInspection = "PENDING_INSPECTION"
	LedgerStatusDamaged           = "DAMAGED"
)

// StockLedgerEntry holds on-hand and reserved quantity for one
// (warehouse, location, goods, batch, serial) key. All stock mutations in the
// system go through the ledger primitives; no document writes these columns
// directly.
type StockLedgerEntry struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WarehouseID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_key,priority:1" json:"warehouse_id"`
	LocationID     *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_ledger_key,priority:2" json:"location_id"`
	GoodsID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_key,priority:3" json:"goods_id"`
	BatchNo        *string         `gorm:"type:varchar(100);uniqueIndex:idx_ledger_key,priority:4" json:"batch_no"`
	SerialNo       *string         `gorm:"type:varchar(100);uniqueIndex:idx_ledger_key,priority:5" json:"serial_no"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"quantity"`
	LockQuantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"lock_quantity"`
	Version        int64           `gorm:"type:bigint;not null;default:0" json:"version"`
	Status         string          `gorm:"type:varchar(30);not null;default:'NORMAL'" json:"status"`
	ProductionDate *time.Time      `json:"production_date"`
	ExpireDate     *time.Time      `json:"expire_date"`
	SupplierID     *uuid.UUID      `gorm:"type:uuid" json:"supplier_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Available is the sellable quantity. It is always derived, never stored.
func (e *StockLedgerEntry) Available() decimal.Decimal {
	return e.Quantity.Sub(e.LockQuantity)
}

// Key returns the logical ledger key of the entry.
func (e *StockLedgerEntry) Key() LedgerKey {
	return LedgerKey{
		WarehouseID: e.WarehouseID,
		LocationID:  e.LocationID,
		GoodsID:     e.GoodsID,
		BatchNo:     e.BatchNo,
		SerialNo:    e.SerialNo,
	}
}

// LedgerKey identifies one stock ledger entry.
type LedgerKey struct {
	WarehouseID uuid.UUID
	LocationID  *uuid.UUID
	GoodsID     uuid.UUID
	BatchNo     *string
	SerialNo    *string
}

// String renders the key in a stable form. Transfer uses it to order the two
// sides of a move so that concurrent opposite-direction transfers cannot
// deadlock.
func (k LedgerKey) String() string {
	s := k.WarehouseID.String()
	if k.LocationID != nil {
		s += "/" + k.LocationID.String()
	} else {
		s += "/-"
	}
	s += "/" + k.GoodsID.String()
	if k.BatchNo != nil {
		s += "/" + *k.BatchNo
	} else {
		s += "/-"
	}
	if k.SerialNo != nil {
		s += "/" + *k.SerialNo
	} else {
		s += "/-"
	}
	return s
}

// StockDirection constants
const (
	StockDirectionIn  = "IN"
	StockDirectionOut = "OUT"
)

// Source document types recorded on stock transactions
const (
	StockSourceInbound   = "INBOUND"
	StockSourcePicking   = "PICKING"
	StockSourceMove      = "MOVE"
	StockSourceStockTake = "STOCK_TAKE"
)

// StockTransaction is the stock card: one journal row per successful ledger
// mutation, written in the same transaction as the mutation itself.
type StockTransaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LedgerEntryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"ledger_entry_id"`
	GoodsID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"goods_id"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Direction     string          `gorm:"type:varchar(10);not null" json:"direction"` // IN, OUT
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	QuantityAfter decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity_after"`
	SourceType    string          `gorm:"type:varchar(20);not null;index" json:"source_type"`
	SourceID      *uuid.UUID      `gorm:"type:uuid;index" json:"source_id"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}
