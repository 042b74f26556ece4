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

// Reservation policy: Approve reserves the full plan quantity of every item.
// Picking consumes reserved stock, Ship only copies picked into shipped, and
// Cancel releases whatever was reserved but never picked. Mixing reservation
// and direct-deduct on the same document would corrupt the available figure,
// so this is the one policy used everywhere.

// --- DTOs ---

type OutboundItemRequest struct {
	GoodsID      string          `json:"goods_id" binding:"required"`
	LocationID   *string         `json:"location_id"`
	BatchNo      *string         `json:"batch_no"`
	SerialNo     *string         `json:"serial_no"`
	PlanQuantity decimal.Decimal `json:"plan_quantity" binding:"required"`
	Price        decimal.Decimal `json:"price"`
}

type CreateOutboundRequest struct {
	Type        string                `json:"type" binding:"required,oneof=SALES RETURN TRANSFER OTHER"`
	WarehouseID string                `json:"warehouse_id" binding:"required"`
	CustomerID  *string               `json:"customer_id"`
	CarrierID   *string               `json:"carrier_id"`
	Note        string                `json:"note"`
	Items       []OutboundItemRequest `json:"items" binding:"required,min=1,dive"`
}

type OutboundFilterRequest struct {
	WarehouseID string
	Status      string
	Type        string
	Page        int
	Limit       int
}

// --- Interface ---

type OutboundService interface {
	Create(ctx context.Context, userID string, req CreateOutboundRequest) (*model.OutboundDocument, error)
	Approve(ctx context.Context, userID string, id string) (*model.OutboundDocument, error)
	Ship(ctx context.Context, userID string, id string) (*model.OutboundDocument, error)
	Cancel(ctx context.Context, userID string, id string) (*model.OutboundDocument, error)
	Get(ctx context.Context, id string) (*model.OutboundDocument, error)
	List(ctx context.Context, req OutboundFilterRequest) ([]model.OutboundDocument, int64, error)
}

type outboundService struct {
	outboundRepo repository.OutboundRepository
	taskRepo     repository.PickingTaskRepository
	ledger       LedgerService
	goods        repository.GoodsLookup
	warehouses   repository.WarehouseLookup
	locations    repository.LocationLookup
	seqRepo      repository.SequenceRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	events       *StockEventPublisher
}

func NewOutboundService(
	outboundRepo repository.OutboundRepository,
	taskRepo repository.PickingTaskRepository,
	ledger LedgerService,
	goods repository.GoodsLookup,
	warehouses repository.WarehouseLookup,
	locations repository.LocationLookup,
	seqRepo repository.SequenceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events *StockEventPublisher,
) OutboundService {
	return &outboundService{
		outboundRepo: outboundRepo,
		taskRepo:     taskRepo,
		ledger:       ledger,
		goods:        goods,
		warehouses:   warehouses,
		locations:    locations,
		seqRepo:      seqRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		events:       events,
	}
}

// --- Implementation ---

func (s *outboundService) Create(ctx context.Context, userID string, req CreateOutboundRequest) (*model.OutboundDocument, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: create outbound", ErrNoItems)
	}
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("invalid warehouse_id: %w", err)
	}
	exists, err := s.warehouses.Exists(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("warehouse lookup: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrWarehouseUnknown, req.WarehouseID)
	}

	items := make([]model.OutboundItem, 0, len(req.Items))
	totalQty := decimal.Zero
	totalAmount := decimal.Zero
	for _, itemReq := range req.Items {
		goodsID, locationID, err := s.validateItemRefs(ctx, warehouseID, itemReq.GoodsID, itemReq.LocationID, itemReq.BatchNo, itemReq.SerialNo)
		if err != nil {
			return nil, err
		}
		if !itemReq.PlanQuantity.IsPositive() {
			return nil, fmt.Errorf("%w: plan %s for goods %s", ErrInvalidQuantity, itemReq.PlanQuantity, itemReq.GoodsID)
		}
		items = append(items, model.OutboundItem{
			GoodsID:      goodsID,
			LocationID:   locationID,
			BatchNo:      itemReq.BatchNo,
			SerialNo:     itemReq.SerialNo,
			PlanQuantity: itemReq.PlanQuantity,
			Price:        itemReq.Price,
		})
		totalQty = totalQty.Add(itemReq.PlanQuantity)
		totalAmount = totalAmount.Add(itemReq.PlanQuantity.Mul(itemReq.Price))
	}

	documentNo, err := s.seqRepo.Next(ctx, repository.SeqOutbound)
	if err != nil {
		return nil, fmt.Errorf("document number: %w", err)
	}

	doc := &model.OutboundDocument{
		DocumentNo:    documentNo,
		Type:          req.Type,
		WarehouseID:   warehouseID,
		CustomerID:    parseOptionalUUID(req.CustomerID),
		CarrierID:     parseOptionalUUID(req.CarrierID),
		Status:        model.OutboundStatusPending,
		TotalQuantity: totalQty,
		TotalAmount:   totalAmount,
		Note:          req.Note,
		Items:         items,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.outboundRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("create outbound: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCreateOutbound, doc, req)
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Approve reserves stock for every item and generates one picking task per
// item. A reservation failure on any item aborts the whole approval.
func (s *outboundService) Approve(ctx context.Context, userID string, id string) (*model.OutboundDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.OutboundStatusPending {
		return nil, fmt.Errorf("%w: approve outbound in %s", ErrInvalidStatus, doc.Status)
	}

	tasks := make([]model.PickingTask, 0, len(doc.Items))
	for i, item := range doc.Items {
		taskNo, seqErr := s.seqRepo.Next(ctx, repository.SeqPickingTask)
		if seqErr != nil {
			return nil, fmt.Errorf("task number: %w", seqErr)
		}
		tasks = append(tasks, model.PickingTask{
			TaskNo:         taskNo,
			OutboundID:     doc.ID,
			OutboundItemID: item.ID,
			GoodsID:        item.GoodsID,
			LocationID:     item.LocationID,
			BatchNo:        item.BatchNo,
			SerialNo:       item.SerialNo,
			PlanQuantity:   item.PlanQuantity,
			SortOrder:      i,
			Status:         model.PickingTaskStatusPending,
		})
	}

	now := time.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, item := range doc.Items {
			if err := s.ledger.Reserve(txCtx, item.LedgerKey(doc.WarehouseID), item.PlanQuantity); err != nil {
				return err
			}
		}
		if err := s.taskRepo.CreateBatch(txCtx, tasks); err != nil {
			return fmt.Errorf("create picking tasks: %w", err)
		}

		doc.Status = model.OutboundStatusApproved
		doc.ApprovedBy = parseOptionalUUID(&userID)
		doc.ApprovedAt = &now
		if err := s.outboundRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save outbound: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionApproveOutbound, doc, nil)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Ship moves a fully picked document to its terminal state. The stock was
// already consumed when the picking tasks completed, so shipping only copies
// picked quantities into shipped ones.
func (s *outboundService) Ship(ctx context.Context, userID string, id string) (*model.OutboundDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.OutboundStatusToShip {
		return nil, fmt.Errorf("%w: ship outbound in %s", ErrInvalidStatus, doc.Status)
	}

	now := time.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range doc.Items {
			item := &doc.Items[i]
			item.ShippedQuantity = item.PickedQuantity
			if err := s.outboundRepo.SaveItem(txCtx, item); err != nil {
				return fmt.Errorf("save outbound item: %w", err)
			}
		}

		doc.Status = model.OutboundStatusShipped
		doc.ShippedBy = parseOptionalUUID(&userID)
		doc.ShippedAt = &now
		if err := s.outboundRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save outbound: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionShipOutbound, doc, nil)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish("outbound.shipped", map[string]interface{}{
		"document_no":  doc.DocumentNo,
		"warehouse_id": doc.WarehouseID.String(),
	})
	return doc, nil
}

// Cancel compensates, it does not roll back: stock consumed by completed
// picking tasks stays consumed, only the outstanding reservations are
// released.
func (s *outboundService) Cancel(ctx context.Context, userID string, id string) (*model.OutboundDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == model.OutboundStatusShipped || doc.Status == model.OutboundStatusCancelled {
		return nil, fmt.Errorf("%w: cancel outbound in %s", ErrInvalidStatus, doc.Status)
	}
	reserved := doc.Status != model.OutboundStatusPending

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if reserved {
			sums, sumErr := s.taskRepo.SumCompletedByItem(txCtx, doc.ID)
			if sumErr != nil {
				return fmt.Errorf("sum picked quantities: %w", sumErr)
			}
			for _, item := range doc.Items {
				picked := sums[item.ID]
				outstanding := item.PlanQuantity.Sub(picked)
				if outstanding.IsPositive() {
					if err := s.ledger.Release(txCtx, item.LedgerKey(doc.WarehouseID), outstanding); err != nil {
						return err
					}
				}
			}
		}

		tasks, taskErr := s.taskRepo.ListByOutbound(txCtx, doc.ID)
		if taskErr != nil {
			return fmt.Errorf("list picking tasks: %w", taskErr)
		}
		for i := range tasks {
			task := &tasks[i]
			if task.Status == model.PickingTaskStatusPending || task.Status == model.PickingTaskStatusException {
				task.Status = model.PickingTaskStatusCancelled
				if err := s.taskRepo.Save(txCtx, task); err != nil {
					return fmt.Errorf("save picking task: %w", err)
				}
			}
		}

		doc.Status = model.OutboundStatusCancelled
		if err := s.outboundRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save outbound: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCancelOutbound, doc, nil)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *outboundService) Get(ctx context.Context, id string) (*model.OutboundDocument, error) {
	return s.load(ctx, id)
}

func (s *outboundService) List(ctx context.Context, req OutboundFilterRequest) ([]model.OutboundDocument, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	filter := repository.OutboundFilter{Status: req.Status, Type: req.Type}
	if req.WarehouseID != "" {
		id, err := uuid.Parse(req.WarehouseID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid warehouse_id: %w", err)
		}
		filter.WarehouseID = &id
	}
	return s.outboundRepo.List(ctx, filter, req.Page, req.Limit)
}

// --- helpers ---

func (s *outboundService) load(ctx context.Context, id string) (*model.OutboundDocument, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid outbound id: %w", err)
	}
	doc, err := s.outboundRepo.FindByID(ctx, docID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: outbound %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load outbound: %w", err)
	}
	return doc, nil
}

func (s *outboundService) validateItemRefs(ctx context.Context, warehouseID uuid.UUID, goodsIDStr string, locationIDStr, batchNo, serialNo *string) (uuid.UUID, *uuid.UUID, error) {
	goodsID, err := uuid.Parse(goodsIDStr)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid goods_id: %w", err)
	}
	goods, err := s.goods.FindByID(ctx, goodsID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, nil, fmt.Errorf("%w: %s", ErrGoodsNotFound, goodsIDStr)
	}
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("goods lookup: %w", err)
	}
	if goods.NeedBatch && (batchNo == nil || *batchNo == "") {
		return uuid.Nil, nil, fmt.Errorf("%w: goods %s", ErrBatchRequired, goodsIDStr)
	}
	if goods.NeedSerial && (serialNo == nil || *serialNo == "") {
		return uuid.Nil, nil, fmt.Errorf("%w: goods %s", ErrSerialRequired, goodsIDStr)
	}

	var locationID *uuid.UUID
	if locationIDStr != nil && *locationIDStr != "" {
		locID, err := uuid.Parse(*locationIDStr)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("invalid location_id: %w", err)
		}
		loc, err := s.locations.FindByID(ctx, locID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, nil, fmt.Errorf("%w: %s", ErrLocationNotFound, *locationIDStr)
		}
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("location lookup: %w", err)
		}
		if loc.WarehouseID != warehouseID {
			return uuid.Nil, nil, fmt.Errorf("%w: location %s not in warehouse %s", ErrWarehouseMismatch, *locationIDStr, warehouseID)
		}
		locationID = &locID
	}

	return goodsID, locationID, nil
}

func (s *outboundService) audit(ctx context.Context, userID, action string, doc *model.OutboundDocument, payload interface{}) error {
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:     parseOptionalUUID(&userID),
		Action:     action,
		EntityID:   doc.ID.String(),
		EntityName: doc.DocumentNo,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// recomputePickedAggregates folds completed task quantities back into the
// outbound document. It is a pure recomputation over the current task set, so
// replaying it for the same completion event converges instead of drifting,
// and task completions may land in any order. The header row lock serializes
// concurrent recomputes.
func recomputePickedAggregates(ctx context.Context, outboundRepo repository.OutboundRepository, taskRepo repository.PickingTaskRepository, outboundID uuid.UUID) (*model.OutboundDocument, error) {
	doc, err := outboundRepo.FindByIDForUpdate(ctx, outboundID)
	if err != nil {
		return nil, fmt.Errorf("load outbound: %w", err)
	}

	sums, err := taskRepo.SumCompletedByItem(ctx, outboundID)
	if err != nil {
		return nil, fmt.Errorf("sum picked quantities: %w", err)
	}

	totalPicked := decimal.Zero
	for i := range doc.Items {
		item := &doc.Items[i]
		picked, ok := sums[item.ID]
		if !ok {
			picked = decimal.Zero
		}
		if !item.PickedQuantity.Equal(picked) {
			item.PickedQuantity = picked
			if err := outboundRepo.SaveItem(ctx, item); err != nil {
				return nil, fmt.Errorf("save outbound item: %w", err)
			}
		}
		totalPicked = totalPicked.Add(picked)
	}
	doc.PickedQuantity = totalPicked

	switch doc.Status {
	case model.OutboundStatusApproved, model.OutboundStatusPicking:
		if totalPicked.GreaterThanOrEqual(doc.TotalQuantity) && totalPicked.IsPositive() {
			doc.Status = model.OutboundStatusToShip
		} else if totalPicked.IsPositive() {
			doc.Status = model.OutboundStatusPicking
		}
	}

	if err := outboundRepo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save outbound: %w", err)
	}
	return doc, nil
}
