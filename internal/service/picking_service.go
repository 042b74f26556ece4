package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wms-backend/internal/model"
	"wms-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type ExecutePickingRequest struct {
	ActualQuantity decimal.Decimal `json:"actual_quantity"`
	ExceptionType  int             `json:"exception_type"`
}

type CreateWaveRequest struct {
	WarehouseID string   `json:"warehouse_id" binding:"required"`
	WaveType    string   `json:"wave_type" binding:"omitempty,oneof=SINGLE BATCH"`
	PickerID    *string  `json:"picker_id"`
	Priority    int      `json:"priority"`
	OutboundIDs []string `json:"outbound_ids" binding:"required,min=1"`
}

type WaveProgress struct {
	Wave           *model.PickingWave `json:"wave"`
	TotalTasks     int                `json:"total_tasks"`
	CompletedTasks int                `json:"completed_tasks"`
	ExceptionTasks int                `json:"exception_tasks"`
}

type PickingTaskFilterRequest struct {
	OutboundID string
	WaveID     string
	PickerID   string
	Status     string
	Page       int
	Limit      int
}

// --- Interface ---

type PickingService interface {
	// ExecutePicking completes one task (consuming stock and feeding the
	// outbound aggregate) or, when an exception code is supplied, parks the
	// task in Exception without any ledger effect.
	ExecutePicking(ctx context.Context, userID string, taskID string, req ExecutePickingRequest) (*model.PickingTask, error)
	CancelTask(ctx context.Context, userID string, taskID string) (*model.PickingTask, error)
	ListTasks(ctx context.Context, req PickingTaskFilterRequest) ([]model.PickingTask, int64, error)

	CreateWave(ctx context.Context, userID string, req CreateWaveRequest) (*model.PickingWave, error)
	CompleteWave(ctx context.Context, userID string, waveID string) (*model.PickingWave, error)
	GetWaveProgress(ctx context.Context, waveID string) (*WaveProgress, error)
	ListWaves(ctx context.Context, warehouseID, status string, page, limit int) ([]model.PickingWave, int64, error)
}

type pickingService struct {
	taskRepo     repository.PickingTaskRepository
	waveRepo     repository.PickingWaveRepository
	outboundRepo repository.OutboundRepository
	ledger       LedgerService
	seqRepo      repository.SequenceRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	events       *StockEventPublisher
}

func NewPickingService(
	taskRepo repository.PickingTaskRepository,
	waveRepo repository.PickingWaveRepository,
	outboundRepo repository.OutboundRepository,
	ledger LedgerService,
	seqRepo repository.SequenceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events *StockEventPublisher,
) PickingService {
	return &pickingService{
		taskRepo:     taskRepo,
		waveRepo:     waveRepo,
		outboundRepo: outboundRepo,
		ledger:       ledger,
		seqRepo:      seqRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       events,
	}
}

// --- Implementation ---

func (s *pickingService) ExecutePicking(ctx context.Context, userID string, taskID string, req ExecutePickingRequest) (*model.PickingTask, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	// Exception tasks may be re-picked; everything else is terminal.
	if task.Status != model.PickingTaskStatusPending && task.Status != model.PickingTaskStatusException {
		return nil, fmt.Errorf("%w: execute picking task in %s", ErrInvalidStatus, task.Status)
	}
	if !model.ValidPickingException(req.ExceptionType) {
		return nil, fmt.Errorf("%w: code %d", ErrUnknownExceptionType, req.ExceptionType)
	}

	pickerID := parseOptionalUUID(&userID)

	if req.ExceptionType != model.PickingExceptionNone {
		task.Status = model.PickingTaskStatusException
		task.ExceptionType = req.ExceptionType
		task.PickerID = pickerID

		err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.taskRepo.Save(txCtx, task); err != nil {
				return fmt.Errorf("save picking task: %w", err)
			}
			return s.auditTask(txCtx, userID, model.ActionExecutePicking, task, req)
		})
		if err != nil {
			return nil, err
		}
		return task, nil
	}

	if !req.ActualQuantity.IsPositive() {
		return nil, fmt.Errorf("%w: picked %s for task %s", ErrInvalidQuantity, req.ActualQuantity, task.TaskNo)
	}
	if req.ActualQuantity.GreaterThan(task.PlanQuantity) {
		return nil, fmt.Errorf("%w: picked %s, planned %s, task %s",
			ErrPickingQuantityExceeded, req.ActualQuantity, task.PlanQuantity, task.TaskNo)
	}

	outbound, err := s.outboundRepo.FindByID(ctx, task.OutboundID)
	if err != nil {
		return nil, fmt.Errorf("load outbound: %w", err)
	}

	now := time.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// The task carries the full item key; consuming on anything less would
		// miss the entry the approval reserved against.
		key := model.LedgerKey{
			WarehouseID: outbound.WarehouseID,
			LocationID:  task.LocationID,
			GoodsID:     task.GoodsID,
			BatchNo:     task.BatchNo,
			SerialNo:    task.SerialNo,
		}
		ref := StockRef{SourceType: model.StockSourcePicking, SourceID: &task.ID}
		if err := s.ledger.Consume(txCtx, key, req.ActualQuantity, ref); err != nil {
			return err
		}

		task.Status = model.PickingTaskStatusCompleted
		task.ActualQuantity = req.ActualQuantity
		task.ExceptionType = model.PickingExceptionNone
		task.PickerID = pickerID
		task.CompletedAt = &now
		if err := s.taskRepo.Save(txCtx, task); err != nil {
			return fmt.Errorf("save picking task: %w", err)
		}

		if _, err := recomputePickedAggregates(txCtx, s.outboundRepo, s.taskRepo, task.OutboundID); err != nil {
			return err
		}

		if task.WaveID != nil {
			if err := s.markWavePicking(txCtx, *task.WaveID, now); err != nil {
				return err
			}
		}

		return s.auditTask(txCtx, userID, model.ActionExecutePicking, task, req)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish("picking.completed", map[string]interface{}{
		"task_no":  task.TaskNo,
		"goods_id": task.GoodsID.String(),
		"quantity": req.ActualQuantity.String(),
	})
	return task, nil
}

func (s *pickingService) CancelTask(ctx context.Context, userID string, taskID string) (*model.PickingTask, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != model.PickingTaskStatusPending && task.Status != model.PickingTaskStatusException {
		return nil, fmt.Errorf("%w: cancel picking task in %s", ErrInvalidStatus, task.Status)
	}

	task.Status = model.PickingTaskStatusCancelled
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.taskRepo.Save(txCtx, task); err != nil {
			return fmt.Errorf("save picking task: %w", err)
		}
		return s.auditTask(txCtx, userID, model.ActionCancelPicking, task, nil)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *pickingService) ListTasks(ctx context.Context, req PickingTaskFilterRequest) ([]model.PickingTask, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}

	filter := repository.PickingTaskFilter{Status: req.Status}
	for _, pair := range []struct {
		raw  string
		dest **uuid.UUID
	}{
		{req.OutboundID, &filter.OutboundID},
		{req.WaveID, &filter.WaveID},
		{req.PickerID, &filter.PickerID},
	} {
		if pair.raw == "" {
			continue
		}
		id, err := uuid.Parse(pair.raw)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid id filter: %w", err)
		}
		*pair.dest = &id
	}

	return s.taskRepo.List(ctx, filter, req.Page, req.Limit)
}

// CreateWave batches approved outbound documents of one warehouse and adopts
// their pending picking tasks.
func (s *pickingService) CreateWave(ctx context.Context, userID string, req CreateWaveRequest) (*model.PickingWave, error) {
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("invalid warehouse_id: %w", err)
	}

	outbounds := make([]*model.OutboundDocument, 0, len(req.OutboundIDs))
	orderCount := 0
	itemCount := 0
	totalQty := decimal.Zero
	for _, rawID := range req.OutboundIDs {
		outboundID, parseErr := uuid.Parse(rawID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid outbound id: %w", parseErr)
		}
		doc, loadErr := s.outboundRepo.FindByID(ctx, outboundID)
		if errors.Is(loadErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: outbound %s", ErrDocumentNotFound, rawID)
		}
		if loadErr != nil {
			return nil, fmt.Errorf("load outbound: %w", loadErr)
		}
		if doc.Status != model.OutboundStatusApproved {
			return nil, fmt.Errorf("%w: outbound %s is %s", ErrInvalidStatus, doc.DocumentNo, doc.Status)
		}
		if doc.WarehouseID != warehouseID {
			return nil, fmt.Errorf("%w: outbound %s in warehouse %s", ErrWarehouseMismatch, doc.DocumentNo, doc.WarehouseID)
		}
		inWave, waveErr := s.waveRepo.OpenWaveExists(ctx, doc.ID)
		if waveErr != nil {
			return nil, fmt.Errorf("open wave lookup: %w", waveErr)
		}
		if inWave {
			return nil, fmt.Errorf("%w: outbound %s", ErrOutboundAlreadyInWave, doc.DocumentNo)
		}

		outbounds = append(outbounds, doc)
		orderCount++
		itemCount += len(doc.Items)
		totalQty = totalQty.Add(doc.TotalQuantity)
	}

	waveNo, err := s.seqRepo.Next(ctx, repository.SeqPickingWave)
	if err != nil {
		return nil, fmt.Errorf("wave number: %w", err)
	}

	waveType := req.WaveType
	if waveType == "" {
		waveType = model.PickingWaveTypeBatch
	}
	wave := &model.PickingWave{
		WaveNo:        waveNo,
		WarehouseID:   warehouseID,
		WaveType:      waveType,
		PickerID:      parseOptionalUUID(req.PickerID),
		Priority:      req.Priority,
		Status:        model.PickingWaveStatusPending,
		OrderCount:    orderCount,
		ItemCount:     itemCount,
		TotalQuantity: totalQty,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.waveRepo.Create(txCtx, wave); err != nil {
			return fmt.Errorf("create wave: %w", err)
		}
		for _, doc := range outbounds {
			link := &model.PickingWaveOutbound{WaveID: wave.ID, OutboundID: doc.ID}
			if err := s.waveRepo.LinkOutbound(txCtx, link); err != nil {
				return fmt.Errorf("link outbound to wave: %w", err)
			}
			if err := s.taskRepo.AssignWave(txCtx, doc.ID, wave.ID); err != nil {
				return fmt.Errorf("assign tasks to wave: %w", err)
			}
		}
		return s.auditWave(txCtx, userID, model.ActionCreateWave, wave, req)
	})
	if err != nil {
		return nil, err
	}
	return wave, nil
}

// CompleteWave closes a wave once every task under it completed. Exception
// and still-pending tasks block completion.
func (s *pickingService) CompleteWave(ctx context.Context, userID string, waveID string) (*model.PickingWave, error) {
	wave, err := s.loadWave(ctx, waveID)
	if err != nil {
		return nil, err
	}
	if wave.Status != model.PickingWaveStatusPicking {
		return nil, fmt.Errorf("%w: complete wave in %s", ErrInvalidStatus, wave.Status)
	}

	tasks, err := s.taskRepo.ListByWave(ctx, wave.ID)
	if err != nil {
		return nil, fmt.Errorf("list wave tasks: %w", err)
	}
	for _, task := range tasks {
		if task.Status != model.PickingTaskStatusCompleted {
			return nil, fmt.Errorf("%w: task %s is %s", ErrInvalidStatus, task.TaskNo, task.Status)
		}
	}

	now := time.Now()
	wave.Status = model.PickingWaveStatusCompleted
	wave.EndTime = &now
	if wave.StartTime != nil {
		wave.ActualSeconds = int64(now.Sub(*wave.StartTime).Seconds())
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.waveRepo.Save(txCtx, wave); err != nil {
			return fmt.Errorf("save wave: %w", err)
		}
		return s.auditWave(txCtx, userID, model.ActionCompleteWave, wave, nil)
	})
	if err != nil {
		return nil, err
	}
	return wave, nil
}

func (s *pickingService) GetWaveProgress(ctx context.Context, waveID string) (*WaveProgress, error) {
	wave, err := s.loadWave(ctx, waveID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByWave(ctx, wave.ID)
	if err != nil {
		return nil, fmt.Errorf("list wave tasks: %w", err)
	}

	progress := &WaveProgress{Wave: wave, TotalTasks: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case model.PickingTaskStatusCompleted:
			progress.CompletedTasks++
		case model.PickingTaskStatusException:
			progress.ExceptionTasks++
		}
	}
	return progress, nil
}

func (s *pickingService) ListWaves(ctx context.Context, warehouseID, status string, page, limit int) ([]model.PickingWave, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	var whID *uuid.UUID
	if warehouseID != "" {
		id, err := uuid.Parse(warehouseID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid warehouse_id: %w", err)
		}
		whID = &id
	}
	return s.waveRepo.List(ctx, whID, status, page, limit)
}

// --- helpers ---

func (s *pickingService) loadTask(ctx context.Context, id string) (*model.PickingTask, error) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid task id: %w", err)
	}
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: picking task %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load picking task: %w", err)
	}
	return task, nil
}

func (s *pickingService) loadWave(ctx context.Context, id string) (*model.PickingWave, error) {
	waveID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid wave id: %w", err)
	}
	wave, err := s.waveRepo.FindByID(ctx, waveID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: wave %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load wave: %w", err)
	}
	return wave, nil
}

func (s *pickingService) markWavePicking(ctx context.Context, waveID uuid.UUID, now time.Time) error {
	wave, err := s.waveRepo.FindByID(ctx, waveID)
	if err != nil {
		return fmt.Errorf("load wave: %w", err)
	}
	if wave.Status != model.PickingWaveStatusPending {
		return nil
	}
	wave.Status = model.PickingWaveStatusPicking
	wave.StartTime = &now
	if err := s.waveRepo.Save(ctx, wave); err != nil {
		return fmt.Errorf("save wave: %w", err)
	}
	return nil
}

func (s *pickingService) auditTask(ctx context.Context, userID, action string, task *model.PickingTask, payload interface{}) error {
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:     parseOptionalUUID(&userID),
		Action:     action,
		EntityID:   task.ID.String(),
		EntityName: task.TaskNo,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (s *pickingService) auditWave(ctx context.Context, userID, action string, wave *model.PickingWave, payload interface{}) error {
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:     parseOptionalUUID(&userID),
		Action:     action,
		EntityID:   wave.ID.String(),
		EntityName: wave.WaveNo,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
