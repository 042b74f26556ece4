package repository

import (
	"context"
	"time"

	"wms-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerFilter narrows stock queries.
type LedgerFilter struct {
	WarehouseID *uuid.UUID
	LocationID  *uuid.UUID
	GoodsID     *uuid.UUID
}

type LedgerRepository interface {
	// FindByKey returns the live entry for the key, or gorm.ErrRecordNotFound.
	FindByKey(ctx context.Context, key model.LedgerKey) (*model.StockLedgerEntry, error)
	// FindByKeyAny also returns soft-deleted entries so a Receive can revive
	// an emptied key.
	FindByKeyAny(ctx context.Context, key model.LedgerKey) (*model.StockLedgerEntry, error)
	Create(ctx context.Context, entry *model.StockLedgerEntry) error
	// UpdateVersioned writes the entry's mutable columns guarded by the
	// expected version token. Returns false when another writer got there
	// first.
	UpdateVersioned(ctx context.Context, entry *model.StockLedgerEntry, expectedVersion int64) (bool, error)
	List(ctx context.Context, filter LedgerFilter, page, limit int) ([]model.StockLedgerEntry, int64, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func keyScope(db *gorm.DB, key model.LedgerKey) *gorm.DB {
	db = db.Where("warehouse_id = ? AND goods_id = ?", key.WarehouseID, key.GoodsID)
	if key.LocationID != nil {
		db = db.Where("location_id = ?", *key.LocationID)
	} else {
		db = db.Where("location_id IS NULL")
	}
	if key.BatchNo != nil {
		db = db.Where("batch_no = ?", *key.BatchNo)
	} else {
		db = db.Where("batch_no IS NULL")
	}
	if key.SerialNo != nil {
		db = db.Where("serial_no = ?", *key.SerialNo)
	} else {
		db = db.Where("serial_no IS NULL")
	}
	return db
}

func (r *ledgerRepository) FindByKey(ctx context.Context, key model.LedgerKey) (*model.StockLedgerEntry, error) {
	var entry model.StockLedgerEntry
	if err := keyScope(GetDB(ctx, r.db), key).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) FindByKeyAny(ctx context.Context, key model.LedgerKey) (*model.StockLedgerEntry, error) {
	var entry model.StockLedgerEntry
	if err := keyScope(GetDB(ctx, r.db).Unscoped(), key).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) Create(ctx context.Context, entry *model.StockLedgerEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *ledgerRepository) UpdateVersioned(ctx context.Context, entry *model.StockLedgerEntry, expectedVersion int64) (bool, error) {
	// Empty entries are parked behind the soft-delete flag; a later receive
	// on the same key clears it again.
	var deletedAt interface{}
	if entry.Quantity.IsZero() && entry.LockQuantity.IsZero() {
		deletedAt = time.Now()
	}

	res := GetDB(ctx, r.db).Unscoped().Model(&model.StockLedgerEntry{}).
		Where("id = ? AND version = ?", entry.ID, expectedVersion).
		Updates(map[string]interface{}{
			"quantity":      entry.Quantity,
			"lock_quantity": entry.LockQuantity,
			"status":        entry.Status,
			"version":       expectedVersion + 1,
			"deleted_at":    deletedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	entry.Version = expectedVersion + 1
	return true, nil
}

func (r *ledgerRepository) List(ctx context.Context, filter LedgerFilter, page, limit int) ([]model.StockLedgerEntry, int64, error) {
	var entries []model.StockLedgerEntry
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockLedgerEntry{})
	if filter.WarehouseID != nil {
		db = db.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.LocationID != nil {
		db = db.Where("location_id = ?", *filter.LocationID)
	}
	if filter.GoodsID != nil {
		db = db.Where("goods_id = ?", *filter.GoodsID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("updated_at desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

type StockTransactionRepository interface {
	Create(ctx context.Context, tx *model.StockTransaction) error
	ListByGoods(ctx context.Context, goodsID uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error)
}

type stockTransactionRepository struct {
	db *gorm.DB
}

func NewStockTransactionRepository(db *gorm.DB) StockTransactionRepository {
	return &stockTransactionRepository{db: db}
}

func (r *stockTransactionRepository) Create(ctx context.Context, tx *model.StockTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *stockTransactionRepository) ListByGoods(ctx context.Context, goodsID uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error) {
	var txs []model.StockTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockTransaction{}).Where("goods_id = ?", goodsID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}
