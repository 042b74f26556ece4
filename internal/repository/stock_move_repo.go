package repository

import (
	"context"

	"wms-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockMoveRepository interface {
	Create(ctx context.Context, doc *model.StockMoveDocument) error
	Save(ctx context.Context, doc *model.StockMoveDocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockMoveDocument, error)
	List(ctx context.Context, warehouseID *uuid.UUID, status string, page, limit int) ([]model.StockMoveDocument, int64, error)
}

type stockMoveRepository struct {
	db *gorm.DB
}

func NewStockMoveRepository(db *gorm.DB) StockMoveRepository {
	return &stockMoveRepository{db: db}
}

func (r *stockMoveRepository) Create(ctx context.Context, doc *model.StockMoveDocument) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *stockMoveRepository) Save(ctx context.Context, doc *model.StockMoveDocument) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *stockMoveRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StockMoveDocument, error) {
	var doc model.StockMoveDocument
	if err := GetDB(ctx, r.db).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *stockMoveRepository) List(ctx context.Context, warehouseID *uuid.UUID, status string, page, limit int) ([]model.StockMoveDocument, int64, error) {
	var docs []model.StockMoveDocument
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMoveDocument{})
	if warehouseID != nil {
		db = db.Where("warehouse_id = ?", *warehouseID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
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
