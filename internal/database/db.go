package database

import (
	"log"

	"wms-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	// TranslateError maps driver unique-violations onto gorm.ErrDuplicatedKey,
	// which the ledger relies on to detect lost first-receive races.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Goods{},
		&model.Warehouse{},
		&model.Location{},
		&model.StockLedgerEntry{},
		&model.StockTransaction{},
		&model.InboundDocument{},
		&model.InboundItem{},
		&model.OutboundDocument{},
		&model.OutboundItem{},
		&model.PickingTask{},
		&model.PickingWave{},
		&model.PickingWaveOutbound{},
		&model.StockMoveDocument{},
		&model.StockTakingDocument{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
