package repository

import (
	"context"

	"wms-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboundFilter narrows outbound document listings.
type OutboundFilter struct {
	WarehouseID *uuid.UUID
	Status      string
	Type        string
}

type OutboundRepository interface {
	Create(ctx context.Context, doc *model.OutboundDocument) error
	Save(ctx context.Context, doc *model.OutboundDocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.OutboundDocument, error)
	// FindByIDForUpdate row-locks the header so concurrent task completions
	// serialize their aggregate recomputation.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.OutboundDocument, error)
	SaveItem(ctx context.Context, item *model.OutboundItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter OutboundFilter, page, limit int) ([]model.OutboundDocument, int64, error)
}

type outboundRepository struct {
	db *gorm.DB
}

func NewOutboundRepository(db *gorm.DB) OutboundRepository {
	return &outboundRepository{db: db}
}

func (r *outboundRepository) Create(ctx context.Context, doc *model.OutboundDocument) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *outboundRepository) Save(ctx context.Context, doc *model.OutboundDocument) error {
	return GetDB(ctx, r.db).Omit("Items").Save(doc).Error
}

func (r *outboundRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.OutboundDocument, error) {
	var doc model.OutboundDocument
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *outboundRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.OutboundDocument, error) {
	var doc model.OutboundDocument
	if err := GetDB(ctx, r.db).Clauses(forUpdateClause()).
		Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	var items []model.OutboundItem
	if err := GetDB(ctx, r.db).Where("outbound_id = ?", id).Find(&items).Error; err != nil {
		return nil, err
	}
	doc.Items = items
	return &doc, nil
}

func (r *outboundRepository) SaveItem(ctx context.Context, item *model.OutboundItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *outboundRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("outbound_id = ?", id).Delete(&model.OutboundItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.OutboundDocument{}).Error
}

func (r *outboundRepository) List(ctx context.Context, filter OutboundFilter, page, limit int) ([]model.OutboundDocument, int64, error) {
	var docs []model.OutboundDocument
	var total int64

	db := GetDB(ctx, r.db).Model(&model.OutboundDocument{})
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
