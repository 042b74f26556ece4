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

type CreateStockMoveRequest struct {
	WarehouseID    string          `json:"warehouse_id" binding:"required"`
	GoodsID        string          `json:"goods_id" binding:"required"`
	FromLocationID string          `json:"from_location_id" binding:"required"`
	ToLocationID   string          `json:"to_location_id" binding:"required"`
	BatchNo        *string         `json:"batch_no"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Note           string          `json:"note"`
}

// --- Interface ---

type StockMoveService interface {
	Create(ctx context.Context, userID string, req CreateStockMoveRequest) (*model.StockMoveDocument, error)
	Start(ctx context.Context, userID string, id string) (*model.StockMoveDocument, error)
	Complete(ctx context.Context, userID string, id string) (*model.StockMoveDocument, error)
	Cancel(ctx context.Context, userID string, id string) (*model.StockMoveDocument, error)
	Get(ctx context.Context, id string) (*model.StockMoveDocument, error)
	List(ctx context.Context, warehouseID, status string, page, limit int) ([]model.StockMoveDocument, int64, error)
}

type stockMoveService struct {
	moveRepo   repository.StockMoveRepository
	ledger     LedgerService
	goods      repository.GoodsLookup
	warehouses repository.WarehouseLookup
	locations  repository.LocationLookup
	seqRepo    repository.SequenceRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	events     *StockEventPublisher
}

func NewStockMoveService(
	moveRepo repository.StockMoveRepository,
	ledger LedgerService,
	goods repository.GoodsLookup,
	warehouses repository.WarehouseLookup,
	locations repository.LocationLookup,
	seqRepo repository.SequenceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events *StockEventPublisher,
) StockMoveService {
	return &stockMoveService{
		moveRepo:   moveRepo,
		ledger:     ledger,
		goods:      goods,
		warehouses: warehouses,
		locations:  locations,
		seqRepo:    seqRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		events:     events,
	}
}

// --- Implementation ---

func (s *stockMoveService) Create(ctx context.Context, userID string, req CreateStockMoveRequest) (*model.StockMoveDocument, error) {
	// Same-location moves are rejected before anything touches the ledger.
	if req.FromLocationID == req.ToLocationID {
		return nil, fmt.Errorf("%w: location %s", ErrSameLocation, req.FromLocationID)
	}
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: move %s", ErrInvalidQuantity, req.Quantity)
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

	goodsID, err := uuid.Parse(req.GoodsID)
	if err != nil {
		return nil, fmt.Errorf("invalid goods_id: %w", err)
	}
	if _, err := s.goods.FindByID(ctx, goodsID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrGoodsNotFound, req.GoodsID)
		}
		return nil, fmt.Errorf("goods lookup: %w", err)
	}

	fromID, err := s.validateLocation(ctx, warehouseID, req.FromLocationID)
	if err != nil {
		return nil, err
	}
	toID, err := s.validateLocation(ctx, warehouseID, req.ToLocationID)
	if err != nil {
		return nil, err
	}

	moveNo, err := s.seqRepo.Next(ctx, repository.SeqStockMove)
	if err != nil {
		return nil, fmt.Errorf("document number: %w", err)
	}

	doc := &model.StockMoveDocument{
		MoveNo:         moveNo,
		WarehouseID:    warehouseID,
		GoodsID:        goodsID,
		FromLocationID: fromID,
		ToLocationID:   toID,
		BatchNo:        req.BatchNo,
		Quantity:       req.Quantity,
		Status:         model.StockMoveStatusPending,
		Note:           req.Note,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.moveRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("create stock move: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCreateMove, doc, req)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *stockMoveService) Start(ctx context.Context, userID string, id string) (*model.StockMoveDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StockMoveStatusPending {
		return nil, fmt.Errorf("%w: start stock move in %s", ErrInvalidStatus, doc.Status)
	}

	doc.Status = model.StockMoveStatusProcessing
	if err := s.moveRepo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save stock move: %w", err)
	}
	return doc, nil
}

// Complete runs the ledger transfer. On insufficient source stock the
// document stays in Processing and the error is surfaced; no auto-retry, no
// auto-cancel.
func (s *stockMoveService) Complete(ctx context.Context, userID string, id string) (*model.StockMoveDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StockMoveStatusProcessing {
		return nil, fmt.Errorf("%w: complete stock move in %s", ErrInvalidStatus, doc.Status)
	}

	now := time.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ref := StockRef{SourceType: model.StockSourceMove, SourceID: &doc.ID}
		if err := s.ledger.Transfer(txCtx, doc.FromKey(), doc.ToKey(), doc.Quantity, ref); err != nil {
			return err
		}

		doc.Status = model.StockMoveStatusCompleted
		doc.CompletedBy = parseOptionalUUID(&userID)
		doc.CompletedAt = &now
		if err := s.moveRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save stock move: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCompleteMove, doc, nil)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish("move.completed", map[string]interface{}{
		"move_no":  doc.MoveNo,
		"goods_id": doc.GoodsID.String(),
		"quantity": doc.Quantity.String(),
	})
	return doc, nil
}

func (s *stockMoveService) Cancel(ctx context.Context, userID string, id string) (*model.StockMoveDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StockMoveStatusPending && doc.Status != model.StockMoveStatusProcessing {
		return nil, fmt.Errorf("%w: cancel stock move in %s", ErrInvalidStatus, doc.Status)
	}

	doc.Status = model.StockMoveStatusCancelled
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.moveRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save stock move: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCancelMove, doc, nil)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *stockMoveService) Get(ctx context.Context, id string) (*model.StockMoveDocument, error) {
	return s.load(ctx, id)
}

func (s *stockMoveService) List(ctx context.Context, warehouseID, status string, page, limit int) ([]model.StockMoveDocument, int64, error) {
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
	return s.moveRepo.List(ctx, whID, status, page, limit)
}

// --- helpers ---

func (s *stockMoveService) load(ctx context.Context, id string) (*model.StockMoveDocument, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid stock move id: %w", err)
	}
	doc, err := s.moveRepo.FindByID(ctx, docID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: stock move %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load stock move: %w", err)
	}
	return doc, nil
}

func (s *stockMoveService) validateLocation(ctx context.Context, warehouseID uuid.UUID, raw string) (uuid.UUID, error) {
	locID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid location_id: %w", err)
	}
	loc, err := s.locations.FindByID(ctx, locID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrLocationNotFound, raw)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("location lookup: %w", err)
	}
	if loc.WarehouseID != warehouseID {
		return uuid.Nil, fmt.Errorf("%w: location %s not in warehouse %s", ErrWarehouseMismatch, raw, warehouseID)
	}
	return locID, nil
}

func (s *stockMoveService) audit(ctx context.Context, userID, action string, doc *model.StockMoveDocument, payload interface{}) error {
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:     parseOptionalUUID(&userID),
		Action:     action,
		EntityID:   doc.ID.String(),
		EntityName: doc.MoveNo,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
