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

type InboundItemRequest struct {
	GoodsID        string          `json:"goods_id" binding:"required"`
	LocationID     *string         `json:"location_id"`
	BatchNo        *string         `json:"batch_no"`
	SerialNo       *string         `json:"serial_no"`
	PlanQuantity   decimal.Decimal `json:"plan_quantity" binding:"required"`
	Price          decimal.Decimal `json:"price"`
	ProductionDate *time.Time      `json:"production_date"`
	ExpireDate     *time.Time      `json:"expire_date"`
}

type CreateInboundRequest struct {
	Type        string               `json:"type" binding:"required,oneof=PURCHASE RETURN TRANSFER OTHER"`
	WarehouseID string               `json:"warehouse_id" binding:"required"`
	SupplierID  *string              `json:"supplier_id"`
	Note        string               `json:"note"`
	Items       []InboundItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateInboundRequest struct {
	Note  string               `json:"note"`
	Items []InboundItemRequest `json:"items" binding:"required,min=1,dive"`
}

type CompleteInboundItem struct {
	ItemID              string           `json:"item_id" binding:"required"`
	ReceivedQuantity    decimal.Decimal  `json:"received_quantity" binding:"required"`
	QualifiedQuantity   *decimal.Decimal `json:"qualified_quantity"`
	UnqualifiedQuantity *decimal.Decimal `json:"unqualified_quantity"`
}

type CompleteInboundRequest struct {
	Items []CompleteInboundItem `json:"items"`
}

type InboundFilterRequest struct {
	WarehouseID string
	Status      string
	Type        string
	Page        int
	Limit       int
}

// --- Interface ---

type InboundService interface {
	Create(ctx context.Context, userID string, req CreateInboundRequest) (*model.InboundDocument, error)
	Update(ctx context.Context, userID string, id string, req UpdateInboundRequest) (*model.InboundDocument, error)
	Delete(ctx context.Context, userID string, id string) error
	Approve(ctx context.Context, userID string, id string) (*model.InboundDocument, error)
	StartReceiving(ctx context.Context, userID string, id string) (*model.InboundDocument, error)
	Complete(ctx context.Context, userID string, id string, req CompleteInboundRequest) (*model.InboundDocument, error)
	Cancel(ctx context.Context, userID string, id string) (*model.InboundDocument, error)
	Get(ctx context.Context, id string) (*model.InboundDocument, error)
	List(ctx context.Context, req InboundFilterRequest) ([]model.InboundDocument, int64, error)
}

type inboundService struct {
	inboundRepo repository.InboundRepository
	ledger      LedgerService
	goods       repository.GoodsLookup
	warehouses  repository.WarehouseLookup
	locations   repository.LocationLookup
	seqRepo     repository.SequenceRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	events      *StockEventPublisher
}

func NewInboundService(
	inboundRepo repository.InboundRepository,
	ledger LedgerService,
	goods repository.GoodsLookup,
	warehouses repository.WarehouseLookup,
	locations repository.LocationLookup,
	seqRepo repository.SequenceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events *StockEventPublisher,
) InboundService {
	return &inboundService{
		inboundRepo: inboundRepo,
		ledger:      ledger,
		goods:       goods,
		warehouses:  warehouses,
		locations:   locations,
		seqRepo:     seqRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		events:      events,
	}
}

// --- Implementation ---

func (s *inboundService) Create(ctx context.Context, userID string, req CreateInboundRequest) (*model.InboundDocument, error) {
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

	items, totalQty, totalAmount, err := s.buildItems(ctx, warehouseID, req.Items)
	if err != nil {
		return nil, err
	}

	documentNo, err := s.seqRepo.Next(ctx, repository.SeqInbound)
	if err != nil {
		return nil, fmt.Errorf("document number: %w", err)
	}

	doc := &model.InboundDocument{
		DocumentNo:    documentNo,
		Type:          req.Type,
		WarehouseID:   warehouseID,
		SupplierID:    parseOptionalUUID(req.SupplierID),
		Status:        model.InboundStatusPending,
		TotalQuantity: totalQty,
		TotalAmount:   totalAmount,
		Note:          req.Note,
		Items:         items,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inboundRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("create inbound: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCreateInbound, doc, req)
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *inboundService) Update(ctx context.Context, userID string, id string, req UpdateInboundRequest) (*model.InboundDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.InboundStatusPending {
		return nil, fmt.Errorf("%w: update inbound in %s", ErrInvalidStatus, doc.Status)
	}

	items, totalQty, totalAmount, err := s.buildItems(ctx, doc.WarehouseID, req.Items)
	if err != nil {
		return nil, err
	}

	doc.Note = req.Note
	doc.TotalQuantity = totalQty
	doc.TotalAmount = totalAmount

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inboundRepo.ReplaceItems(txCtx, doc.ID, items); err != nil {
			return fmt.Errorf("replace inbound items: %w", err)
		}
		if err := s.inboundRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save inbound: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionUpdateInbound, doc, req)
	})
	if err != nil {
		return nil, err
	}

	doc.Items = items
	return doc, nil
}

func (s *inboundService) Delete(ctx context.Context, userID string, id string) error {
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status != model.InboundStatusPending {
		return fmt.Errorf("%w: delete inbound in %s", ErrInvalidStatus, doc.Status)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inboundRepo.Delete(txCtx, doc.ID); err != nil {
			return fmt.Errorf("delete inbound: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionDeleteInbound, doc, nil)
	})
}

func (s *inboundService) Approve(ctx context.Context, userID string, id string) (*model.InboundDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.InboundStatusPending {
		return nil, fmt.Errorf("%w: approve inbound in %s", ErrInvalidStatus, doc.Status)
	}

	now := time.Now()
	doc.Status = model.InboundStatusApproved
	doc.ApprovedBy = parseOptionalUUID(&userID)
	doc.ApprovedAt = &now

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inboundRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save inbound: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionApproveInbound, doc, nil)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *inboundService) StartReceiving(ctx context.Context, userID string, id string) (*model.InboundDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.InboundStatusApproved {
		return nil, fmt.Errorf("%w: start receiving inbound in %s", ErrInvalidStatus, doc.Status)
	}

	now := time.Now()
	doc.Status = model.InboundStatusReceiving
	doc.ArrivedAt = &now

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inboundRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save inbound: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionReceiveInbound, doc, nil)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Complete receives every item into the ledger. All items succeed or the whole
// completion rolls back and the document stays in Receiving.
func (s *inboundService) Complete(ctx context.Context, userID string, id string, req CompleteInboundRequest) (*model.InboundDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.InboundStatusReceiving {
		return nil, fmt.Errorf("%w: complete inbound in %s", ErrInvalidStatus, doc.Status)
	}

	received := make(map[uuid.UUID]CompleteInboundItem, len(req.Items))
	for _, item := range req.Items {
		itemID, parseErr := uuid.Parse(item.ItemID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid item_id: %w", parseErr)
		}
		received[itemID] = item
	}

	now := time.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range doc.Items {
			item := &doc.Items[i]

			item.ReceivedQuantity = item.PlanQuantity
			item.QualifiedQuantity = item.PlanQuantity
			if actual, ok := received[item.ID]; ok {
				item.ReceivedQuantity = actual.ReceivedQuantity
				item.QualifiedQuantity = actual.ReceivedQuantity
				if actual.QualifiedQuantity != nil {
					item.QualifiedQuantity = *actual.QualifiedQuantity
				}
				if actual.UnqualifiedQuantity != nil {
					item.UnqualifiedQuantity = *actual.UnqualifiedQuantity
				}
			}
			if !item.ReceivedQuantity.IsPositive() {
				return fmt.Errorf("%w: received %s for item %s", ErrInvalidQuantity, item.ReceivedQuantity, item.ID)
			}

			trace := &StockTrace{
				ProductionDate: item.ProductionDate,
				ExpireDate:     item.ExpireDate,
				SupplierID:     doc.SupplierID,
			}
			ref := StockRef{SourceType: model.StockSourceInbound, SourceID: &doc.ID}
			if err := s.ledger.Receive(txCtx, item.LedgerKey(doc.WarehouseID), item.ReceivedQuantity, ref, trace); err != nil {
				return err
			}
			if err := s.inboundRepo.SaveItem(txCtx, item); err != nil {
				return fmt.Errorf("save inbound item: %w", err)
			}
		}

		doc.Status = model.InboundStatusCompleted
		doc.CompletedBy = parseOptionalUUID(&userID)
		doc.CompletedAt = &now
		if err := s.inboundRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save inbound: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCompleteInbound, doc, req)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish("inbound.completed", map[string]interface{}{
		"document_no":  doc.DocumentNo,
		"warehouse_id": doc.WarehouseID.String(),
	})
	return doc, nil
}

// Cancel never needs a ledger rollback: the only ledger effect runs at
// Complete, and Completed documents cannot be cancelled.
func (s *inboundService) Cancel(ctx context.Context, userID string, id string) (*model.InboundDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == model.InboundStatusCompleted || doc.Status == model.InboundStatusCancelled {
		return nil, fmt.Errorf("%w: cancel inbound in %s", ErrInvalidStatus, doc.Status)
	}

	doc.Status = model.InboundStatusCancelled
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inboundRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save inbound: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCancelInbound, doc, nil)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *inboundService) Get(ctx context.Context, id string) (*model.InboundDocument, error) {
	return s.load(ctx, id)
}

func (s *inboundService) List(ctx context.Context, req InboundFilterRequest) ([]model.InboundDocument, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	filter := repository.InboundFilter{Status: req.Status, Type: req.Type}
	if req.WarehouseID != "" {
		id, err := uuid.Parse(req.WarehouseID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid warehouse_id: %w", err)
		}
		filter.WarehouseID = &id
	}
	return s.inboundRepo.List(ctx, filter, req.Page, req.Limit)
}

// --- helpers ---

func (s *inboundService) load(ctx context.Context, id string) (*model.InboundDocument, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid inbound id: %w", err)
	}
	doc, err := s.inboundRepo.FindByID(ctx, docID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: inbound %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load inbound: %w", err)
	}
	return doc, nil
}

func (s *inboundService) buildItems(ctx context.Context, warehouseID uuid.UUID, reqs []InboundItemRequest) ([]model.InboundItem, decimal.Decimal, decimal.Decimal, error) {
	if len(reqs) == 0 {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("%w: inbound items", ErrNoItems)
	}
	items := make([]model.InboundItem, 0, len(reqs))
	totalQty := decimal.Zero
	totalAmount := decimal.Zero

	for _, itemReq := range reqs {
		goodsID, locationID, err := s.validateItemRefs(ctx, warehouseID, itemReq.GoodsID, itemReq.LocationID, itemReq.BatchNo, itemReq.SerialNo)
		if err != nil {
			return nil, decimal.Zero, decimal.Zero, err
		}
		if !itemReq.PlanQuantity.IsPositive() {
			return nil, decimal.Zero, decimal.Zero, fmt.Errorf("%w: plan %s for goods %s", ErrInvalidQuantity, itemReq.PlanQuantity, itemReq.GoodsID)
		}

		items = append(items, model.InboundItem{
			GoodsID:        goodsID,
			LocationID:     locationID,
			BatchNo:        itemReq.BatchNo,
			SerialNo:       itemReq.SerialNo,
			PlanQuantity:   itemReq.PlanQuantity,
			Price:          itemReq.Price,
			ProductionDate: itemReq.ProductionDate,
			ExpireDate:     itemReq.ExpireDate,
		})
		totalQty = totalQty.Add(itemReq.PlanQuantity)
		totalAmount = totalAmount.Add(itemReq.PlanQuantity.Mul(itemReq.Price))
	}

	return items, totalQty, totalAmount, nil
}

func (s *inboundService) validateItemRefs(ctx context.Context, warehouseID uuid.UUID, goodsIDStr string, locationIDStr, batchNo, serialNo *string) (uuid.UUID, *uuid.UUID, error) {
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

func (s *inboundService) audit(ctx context.Context, userID, action string, doc *model.InboundDocument, payload interface{}) error {
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

func parseOptionalUUID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	if parsed, err := uuid.Parse(*s); err == nil {
		return &parsed
	}
	return nil
}
