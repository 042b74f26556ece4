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

type CreateStockTakingRequest struct {
	PlanID      *string `json:"plan_id"`
	WarehouseID string  `json:"warehouse_id" binding:"required"`
	GoodsID     string  `json:"goods_id" binding:"required"`
	LocationID  *string `json:"location_id"`
	BatchNo     *string `json:"batch_no"`
	Note        string  `json:"note"`
}

type SubmitCountRequest struct {
	ActualQuantity decimal.Decimal `json:"actual_quantity"`
}

type StockTakingFilterRequest struct {
	WarehouseID string
	PlanID      string
	Status      string
	OnlyDiff    bool
	Page        int
	Limit       int
}

// --- Interface ---

type StockTakingService interface {
	Create(ctx context.Context, userID string, req CreateStockTakingRequest) (*model.StockTakingDocument, error)
	// SubmitCount records the physical count. Counting is observation, not
	// mutation: the ledger is untouched until Adjust.
	SubmitCount(ctx context.Context, userID string, id string, req SubmitCountRequest) (*model.StockTakingDocument, error)
	Review(ctx context.Context, userID string, id string) (*model.StockTakingDocument, error)
	// Adjust applies the counted difference to the ledger, exactly once.
	Adjust(ctx context.Context, userID string, id string) (*model.StockTakingDocument, error)
	Get(ctx context.Context, id string) (*model.StockTakingDocument, error)
	List(ctx context.Context, req StockTakingFilterRequest) ([]model.StockTakingDocument, int64, error)
}

type stockTakingService struct {
	takingRepo repository.StockTakingRepository
	ledger     LedgerService
	goods      repository.GoodsLookup
	warehouses repository.WarehouseLookup
	locations  repository.LocationLookup
	seqRepo    repository.SequenceRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	events     *StockEventPublisher
}

func NewStockTakingService(
	takingRepo repository.StockTakingRepository,
	ledger LedgerService,
	goods repository.GoodsLookup,
	warehouses repository.WarehouseLookup,
	locations repository.LocationLookup,
	seqRepo repository.SequenceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events *StockEventPublisher,
) StockTakingService {
	return &stockTakingService{
		takingRepo: takingRepo,
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

func (s *stockTakingService) Create(ctx context.Context, userID string, req CreateStockTakingRequest) (*model.StockTakingDocument, error) {
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

	var locationID *uuid.UUID
	if req.LocationID != nil && *req.LocationID != "" {
		locID, parseErr := uuid.Parse(*req.LocationID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid location_id: %w", parseErr)
		}
		loc, locErr := s.locations.FindByID(ctx, locID)
		if errors.Is(locErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, *req.LocationID)
		}
		if locErr != nil {
			return nil, fmt.Errorf("location lookup: %w", locErr)
		}
		if loc.WarehouseID != warehouseID {
			return nil, fmt.Errorf("%w: location %s not in warehouse %s", ErrWarehouseMismatch, *req.LocationID, warehouseID)
		}
		locationID = &locID
	}

	takingNo, err := s.seqRepo.Next(ctx, repository.SeqStockTaking)
	if err != nil {
		return nil, fmt.Errorf("document number: %w", err)
	}

	doc := &model.StockTakingDocument{
		TakingNo:    takingNo,
		PlanID:      parseOptionalUUID(req.PlanID),
		WarehouseID: warehouseID,
		GoodsID:     goodsID,
		LocationID:  locationID,
		BatchNo:     req.BatchNo,
		Status:      model.StockTakingStatusPending,
		Note:        req.Note,
	}

	// Snapshot the book quantity at creation. A key with no live entry counts
	// as zero on the books.
	entry, err := s.ledger.GetStock(ctx, doc.LedgerKey())
	if err != nil && !errors.Is(err, ErrStockNotFound) {
		return nil, err
	}
	if entry != nil {
		doc.BookQuantity = entry.Quantity
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.takingRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("create stock taking: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCreateStockTake, doc, req)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *stockTakingService) SubmitCount(ctx context.Context, userID string, id string, req SubmitCountRequest) (*model.StockTakingDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StockTakingStatusPending {
		return nil, fmt.Errorf("%w: submit count in %s", ErrInvalidStatus, doc.Status)
	}
	if req.ActualQuantity.IsNegative() {
		return nil, fmt.Errorf("%w: counted %s", ErrInvalidQuantity, req.ActualQuantity)
	}

	now := time.Now()
	doc.ActualQuantity = req.ActualQuantity
	doc.DiffQuantity = req.ActualQuantity.Sub(doc.BookQuantity)
	doc.Status = model.StockTakingStatusCounted
	doc.CountedBy = parseOptionalUUID(&userID)
	doc.CountedAt = &now

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.takingRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save stock taking: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCountStockTake, doc, req)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *stockTakingService) Review(ctx context.Context, userID string, id string) (*model.StockTakingDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StockTakingStatusCounted {
		return nil, fmt.Errorf("%w: review stock taking in %s", ErrInvalidStatus, doc.Status)
	}

	now := time.Now()
	doc.Status = model.StockTakingStatusReviewed
	doc.ReviewedBy = parseOptionalUUID(&userID)
	doc.ReviewedAt = &now

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.takingRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save stock taking: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionReviewStockTake, doc, nil)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Adjust is the only point where a stock take changes physical counts. The
// status gate makes it idempotent: an already-Adjusted document is rejected,
// not re-applied.
func (s *stockTakingService) Adjust(ctx context.Context, userID string, id string) (*model.StockTakingDocument, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StockTakingStatusReviewed {
		return nil, fmt.Errorf("%w: adjust stock taking in %s", ErrInvalidStatus, doc.Status)
	}

	now := time.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if !doc.DiffQuantity.IsZero() {
			ref := StockRef{SourceType: model.StockSourceStockTake, SourceID: &doc.ID}
			if doc.DiffQuantity.IsPositive() && doc.BookQuantity.IsZero() {
				// Surplus on an empty key: the entry may not exist yet.
				if err := s.ledger.Receive(txCtx, doc.LedgerKey(), doc.DiffQuantity, ref, nil); err != nil {
					return err
				}
			} else if err := s.ledger.Adjust(txCtx, doc.LedgerKey(), doc.DiffQuantity, ref); err != nil {
				return err
			}
		}

		doc.Status = model.StockTakingStatusAdjusted
		doc.AdjustedBy = parseOptionalUUID(&userID)
		doc.AdjustedAt = &now
		if err := s.takingRepo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("save stock taking: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionAdjustStockTake, doc, nil)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish("stocktake.adjusted", map[string]interface{}{
		"taking_no": doc.TakingNo,
		"goods_id":  doc.GoodsID.String(),
		"diff":      doc.DiffQuantity.String(),
	})
	return doc, nil
}

func (s *stockTakingService) Get(ctx context.Context, id string) (*model.StockTakingDocument, error) {
	return s.load(ctx, id)
}

func (s *stockTakingService) List(ctx context.Context, req StockTakingFilterRequest) ([]model.StockTakingDocument, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	filter := repository.StockTakingFilter{Status: req.Status, OnlyDiff: req.OnlyDiff}
	if req.WarehouseID != "" {
		id, err := uuid.Parse(req.WarehouseID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid warehouse_id: %w", err)
		}
		filter.WarehouseID = &id
	}
	if req.PlanID != "" {
		id, err := uuid.Parse(req.PlanID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid plan_id: %w", err)
		}
		filter.PlanID = &id
	}
	return s.takingRepo.List(ctx, filter, req.Page, req.Limit)
}

// --- helpers ---

func (s *stockTakingService) load(ctx context.Context, id string) (*model.StockTakingDocument, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid stock taking id: %w", err)
	}
	doc, err := s.takingRepo.FindByID(ctx, docID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: stock taking %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load stock taking: %w", err)
	}
	return doc, nil
}

func (s *stockTakingService) audit(ctx context.Context, userID, action string, doc *model.StockTakingDocument, payload interface{}) error {
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:     parseOptionalUUID(&userID),
		Action:     action,
		EntityID:   doc.ID.String(),
		EntityName: doc.TakingNo,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
