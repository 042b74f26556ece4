package repository

import (
	"context"

	"wms-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Master data is provisioned externally; these repositories are read-only
// lookups used to validate document references.

type GoodsLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Goods, error)
}

type WarehouseLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type LocationLookup interface {
	// FindByID returns the location, or gorm.ErrRecordNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
}

type goodsLookup struct {
	db *gorm.DB
}

func NewGoodsLookup(db *gorm.DB) GoodsLookup {
	return &goodsLookup{db: db}
}

func (r *goodsLookup) FindByID(ctx context.Context, id uuid.UUID) (*model.Goods, error) {
	var goods model.Goods
	if err := GetDB(ctx, r.db).First(&goods, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &goods, nil
}

type warehouseLookup struct {
	db *gorm.DB
}

func NewWarehouseLookup(db *gorm.DB) WarehouseLookup {
	return &warehouseLookup{db: db}
}

func (r *warehouseLookup) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Warehouse{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type locationLookup struct {
	db *gorm.DB
}

func NewLocationLookup(db *gorm.DB) LocationLookup {
	return &locationLookup{db: db}
}

func (r *locationLookup) FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var loc model.Location
	if err := GetDB(ctx, r.db).First(&loc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}
