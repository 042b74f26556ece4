package repository

import (
	"context"

	"wms-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockTakingFilter narrows stock-taking listings.
type StockTakingFilter struct {
	WarehouseID *uuid.UUID
	PlanID      *uuid.UUID
	Status      string
	// OnlyDiff keeps documents whose counted quantity differs from book.
	OnlyDiff bool
}

type StockTakingRepository interface {
	Create(ctx context.Context, doc *model.StockTakingDocument) error
	Save(ctx context.Context, doc *model.StockTakingDocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockTakingDocument, error)
	List(ctx context.Context, filter StockTakingFilter, page, limit int) ([]model.StockTakingDocument, int64, error)
}

type stockTakingRepository struct {
	db *gorm.DB
}

func NewStockTakingRepository(db *gorm.DB) StockTakingRepository {
	return &stockTakingRepository{db: db}
}

func (r *stockTakingRepository) Create(ctx context.Context, doc *model.StockTakingDocument) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *stockTakingRepository) Save(ctx context.Context, doc *model.StockTakingDocument) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *stockTakingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StockTakingDocument, error) {
	var doc model.StockTakingDocument
	if err := GetDB(ctx, r.db).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *stockTakingRepository) List(ctx context.Context, filter StockTakingFilter, page, limit int) ([]model.StockTakingDocument, int64, error) {
	var docs []model.StockTakingDocument
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockTakingDocument{})
	if filter.WarehouseID != nil {
		db = db.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.PlanID != nil {
		db = db.Where("plan_id = ?", *filter.PlanID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.OnlyDiff {
		db = db.Where("diff_quantity <> 0")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}
