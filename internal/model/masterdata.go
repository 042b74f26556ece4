package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Master data rows are provisioned by an external system; the core only reads
// them to validate document references and batch/serial requirements.

// Goods is one stock-keeping unit master record.
type Goods struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit        string          `gorm:"type:varchar(20)" json:"unit"`
	SafetyStock decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"safety_stock"`
	NeedBatch   bool            `gorm:"not null;default:false" json:"need_batch"`
	NeedSerial  bool            `gorm:"not null;default:false" json:"need_serial"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Warehouse master record.
type Warehouse struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Location is one storage slot inside a warehouse.
type Location struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WarehouseID uuid.UUID      `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Code        string         `gorm:"type:varchar(100);not null;index" json:"code"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
