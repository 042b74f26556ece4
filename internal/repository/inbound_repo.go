package repository

import (
	"context"

	"wms-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InboundFilter narrows inbound document listings.
type InboundFilter struct {
	WarehouseID *uuid.UUID
	Status      string
	Type        string
}

type InboundRepository interface {
	Create(ctx context.Context, doc *model.InboundDocument) error
	Save(ctx context.Context, doc *model.InboundDocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InboundDocument, error)
	ReplaceItems(ctx context.Context, inboundID uuid.UUID, items []model.InboundItem) error
	SaveItem(ctx context.Context, item *model.InboundItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter InboundFilter, page, limit int) ([]model.InboundDocument, int64, error)
}

type inboundRepository struct {
	db *gorm.DB
}

func NewInboundRepository(db *gorm.DB) InboundRepository {
	return &inboundRepository{db: db}
}

func (r *inboundRepository) Create(ctx context.Context, doc *model.InboundDocument) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *inboundRepository) Save(ctx context.Context, doc *model.InboundDocument) error {
	return GetDB(ctx, r.db).Omit("Items").Save(doc).Error
}

func (r *inboundRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InboundDocument, error) {
	var doc model.InboundDocument
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *inboundRepository) ReplaceItems(ctx context.Context, inboundID uuid.UUID, items []model.InboundItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("inbound_id = ?", inboundID).Delete(&model.InboundItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].InboundID = inboundID
	}
	return db.Create(&items).Error
}

func (r *inboundRepository) SaveItem(ctx context.Context, item *model.InboundItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *inboundRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("inbound_id = ?", id).Delete(&model.InboundItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.InboundDocument{}).Error
}

func (r *inboundRepository) List(ctx context.Context, filter InboundFilter, page, limit int) ([]model.InboundDocument, int64, error) {
	var docs []model.InboundDocument
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InboundDocument{})
	if filter.WarehouseID != nil {
		db = db.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Order("created_at desc").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}
