package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockTakingStatus constants
const (
	StockTakingStatusPending  = "PENDING"
	StockTakingStatusCounted  = "COUNTED"
	StockTakingStatusReviewed = "REVIEWED"
	StockTakingStatusAdjusted = "ADJUSTED"
)

// StockTakingDocument compares the book quantity of one ledger key against a
// physically counted quantity. Counting and review never touch the ledger;
// only the final Adjust transition does, exactly once.
type StockTakingDocument struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TakingNo       string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"taking_no"`
	PlanID         *uuid.UUID      `gorm:"type:uuid;index" json:"plan_id"`
	WarehouseID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	GoodsID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"goods_id"`
	LocationID     *uuid.UUID      `gorm:"type:uuid" json:"location_id"`
	BatchNo        *string         `gorm:"type:varchar(100)" json:"batch_no"`
	BookQuantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"book_quantity"`
	ActualQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"actual_quantity"`
	DiffQuantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"diff_quantity"`
	Status         string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Note           string          `gorm:"type:text" json:"note"`
	CountedBy      *uuid.UUID      `gorm:"type:uuid" json:"counted_by"`
	CountedAt      *time.Time      `json:"counted_at"`
	ReviewedBy     *uuid.UUID      `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt     *time.Time      `json:"reviewed_at"`
	AdjustedBy     *uuid.UUID      `gorm:"type:uuid" json:"adjusted_by"`
	AdjustedAt     *time.Time      `json:"adjusted_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// LedgerKey is the ledger key this stock take counts.
func (d *StockTakingDocument) LedgerKey() LedgerKey {
	return LedgerKey{
		WarehouseID: d.WarehouseID,
		LocationID:  d.LocationID,
		GoodsID:     d.GoodsID,
		BatchNo:     d.BatchNo,
	}
}
