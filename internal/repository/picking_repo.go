package repository

import (
	"context"

	"wms-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PickingTaskFilter narrows task listings.
type PickingTaskFilter struct {
	OutboundID *uuid.UUID
	WaveID     *uuid.UUID
	PickerID   *uuid.UUID
	Status     string
}

type PickingTaskRepository interface {
	CreateBatch(ctx context.Context, tasks []model.PickingTask) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PickingTask, error)
	Save(ctx context.Context, task *model.PickingTask) error
	ListByOutbound(ctx context.Context, outboundID uuid.UUID) ([]model.PickingTask, error)
	ListByWave(ctx context.Context, waveID uuid.UUID) ([]model.PickingTask, error)
	List(ctx context.Context, filter PickingTaskFilter, page, limit int) ([]model.PickingTask, int64, error)
	// SumCompletedByItem returns the total picked quantity of completed tasks
	// per outbound item. The outbound aggregates are recomputed from this sum
	// so replays cannot drift them.
	SumCompletedByItem(ctx context.Context, outboundID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	AssignWave(ctx context.Context, outboundID, waveID uuid.UUID) error
}

type pickingTaskRepository struct {
	db *gorm.DB
}

func NewPickingTaskRepository(db *gorm.DB) PickingTaskRepository {
	return &pickingTaskRepository{db: db}
}

func (r *pickingTaskRepository) CreateBatch(ctx context.Context, tasks []model.PickingTask) error {
	if len(tasks) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&tasks).Error
}

func (r *pickingTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PickingTask, error) {
	var task model.PickingTask
	if err := GetDB(ctx, r.db).First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *pickingTaskRepository) Save(ctx context.Context, task *model.PickingTask) error {
	return GetDB(ctx, r.db).Save(task).Error
}

func (r *pickingTaskRepository) ListByOutbound(ctx context.Context, outboundID uuid.UUID) ([]model.PickingTask, error) {
	var tasks []model.PickingTask
	if err := GetDB(ctx, r.db).Where("outbound_id = ?", outboundID).Order("sort_order asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *pickingTaskRepository) ListByWave(ctx context.Context, waveID uuid.UUID) ([]model.PickingTask, error) {
	var tasks []model.PickingTask
	if err := GetDB(ctx, r.db).Where("wave_id = ?", waveID).Order("sort_order asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *pickingTaskRepository) List(ctx context.Context, filter PickingTaskFilter, page, limit int) ([]model.PickingTask, int64, error) {
	var tasks []model.PickingTask
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PickingTask{})
	if filter.OutboundID != nil {
		db = db.Where("outbound_id = ?", *filter.OutboundID)
	}
	if filter.WaveID != nil {
		db = db.Where("wave_id = ?", *filter.WaveID)
	}
	if filter.PickerID != nil {
		db = db.Where("picker_id = ?", *filter.PickerID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (r *pickingTaskRepository) SumCompletedByItem(ctx context.Context, outboundID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	type row struct {
		OutboundItemID uuid.UUID
		Total          decimal.Decimal
	}
	var rows []row
	err := GetDB(ctx, r.db).Model(&model.PickingTask{}).
		Select("outbound_item_id, COALESCE(SUM(actual_quantity), 0) AS total").
		Where("outbound_id = ? AND status = ?", outboundID, model.PickingTaskStatusCompleted).
		Group("outbound_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, rw := range rows {
		sums[rw.OutboundItemID] = rw.Total
	}
	return sums, nil
}

func (r *pickingTaskRepository) AssignWave(ctx context.Context, outboundID, waveID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.PickingTask{}).
		Where("outbound_id = ? AND status = ?", outboundID, model.PickingTaskStatusPending).
		Update("wave_id", waveID).Error
}

type PickingWaveRepository interface {
	Create(ctx context.Context, wave *model.PickingWave) error
	Save(ctx context.Context, wave *model.PickingWave) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PickingWave, error)
	LinkOutbound(ctx context.Context, link *model.PickingWaveOutbound) error
	ListOutboundIDs(ctx context.Context, waveID uuid.UUID) ([]uuid.UUID, error)
	// OpenWaveExists reports whether the outbound already belongs to a wave
	// that has not completed or been cancelled.
	OpenWaveExists(ctx context.Context, outboundID uuid.UUID) (bool, error)
	List(ctx context.Context, warehouseID *uuid.UUID, status string, page, limit int) ([]model.PickingWave, int64, error)
}

type pickingWaveRepository struct {
	db *gorm.DB
}

func NewPickingWaveRepository(db *gorm.DB) PickingWaveRepository {
	return &pickingWaveRepository{db: db}
}

func (r *pickingWaveRepository) Create(ctx context.Context, wave *model.PickingWave) error {
	return GetDB(ctx, r.db).Create(wave).Error
}

func (r *pickingWaveRepository) Save(ctx context.Context, wave *model.PickingWave) error {
	return GetDB(ctx, r.db).Save(wave).Error
}

func (r *pickingWaveRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PickingWave, error) {
	var wave model.PickingWave
	if err := GetDB(ctx, r.db).First(&wave, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wave, nil
}

func (r *pickingWaveRepository) LinkOutbound(ctx context.Context, link *model.PickingWaveOutbound) error {
	return GetDB(ctx, r.db).Create(link).Error
}

func (r *pickingWaveRepository) ListOutboundIDs(ctx context.Context, waveID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.PickingWaveOutbound{}).
		Where("wave_id = ?", waveID).
		Pluck("outbound_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *pickingWaveRepository) OpenWaveExists(ctx context.Context, outboundID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.PickingWaveOutbound{}).
		Joins("JOIN picking_waves ON picking_waves.id = picking_wave_outbounds.wave_id").
		Where("picking_wave_outbounds.outbound_id = ?", outboundID).
		Where("picking_waves.status IN ?", []string{model.PickingWaveStatusPending, model.PickingWaveStatusPicking}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *pickingWaveRepository) List(ctx context.Context, warehouseID *uuid.UUID, status string, page, limit int) ([]model.PickingWave, int64, error) {
	var waves []model.PickingWave
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PickingWave{})
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
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&waves).Error; err != nil {
		return nil, 0, err
	}

	return waves, total, nil
}
