package service

import (
	"context"
	"errors"
	"testing"

	"wms-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stockMoveEnv struct {
	ledgerRepo *mockLedgerRepo
	moveRepo   *mockStockMoveRepo
	svc        StockMoveService

	warehouseID uuid.UUID
	goodsID     uuid.UUID
	fromID      uuid.UUID
	toID        uuid.UUID
}

func newStockMoveEnv(t *testing.T) *stockMoveEnv {
	t.Helper()

	env := &stockMoveEnv{
		ledgerRepo:  newMockLedgerRepo(),
		moveRepo:    newMockStockMoveRepo(),
		warehouseID: uuid.New(),
	}
	goods := newMockGoodsLookup()
	env.goodsID = goods.add(&model.Goods{Code: "G-001", Name: "Widget"})
	locations := newMockLocationLookup()
	env.fromID = locations.add(env.warehouseID)
	env.toID = locations.add(env.warehouseID)

	env.svc = NewStockMoveService(
		env.moveRepo,
		NewLedgerService(env.ledgerRepo, &mockStockTxRepo{}),
		goods,
		newMockWarehouseLookup(env.warehouseID),
		locations,
		newMockSequenceRepo(),
		&mockAuditRepo{},
		&mockTxManager{},
		nil,
	)
	return env
}

func (env *stockMoveEnv) fromKey() model.LedgerKey {
	from := env.fromID
	return model.LedgerKey{WarehouseID: env.warehouseID, LocationID: &from, GoodsID: env.goodsID}
}

func (env *stockMoveEnv) toKey() model.LedgerKey {
	to := env.toID
	return model.LedgerKey{WarehouseID: env.warehouseID, LocationID: &to, GoodsID: env.goodsID}
}

func (env *stockMoveEnv) createMove(t *testing.T, qty int64) *model.StockMoveDocument {
	t.Helper()
	doc, err := env.svc.Create(context.Background(), "tester", CreateStockMoveRequest{
		WarehouseID:    env.warehouseID.String(),
		GoodsID:        env.goodsID.String(),
		FromLocationID: env.fromID.String(),
		ToLocationID:   env.toID.String(),
		Quantity:       decimal.NewFromInt(qty),
	})
	if err != nil {
		t.Fatalf("create stock move: %v", err)
	}
	return doc
}

func TestStockMoveFullFlow(t *testing.T) {
	env := newStockMoveEnv(t)
	seedEntry(env.ledgerRepo, env.fromKey(), 10, 0)

	doc := env.createMove(t, 4)
	if doc.Status != model.StockMoveStatusPending {
		t.Errorf("status = %s, want PENDING", doc.Status)
	}
	if doc.MoveNo != "MV-0001" {
		t.Errorf("move no = %s, want MV-0001", doc.MoveNo)
	}

	if _, err := env.svc.Start(context.Background(), "tester", doc.ID.String()); err != nil {
		t.Fatalf("start: %v", err)
	}
	completed, err := env.svc.Complete(context.Background(), "tester", doc.ID.String())
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != model.StockMoveStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	if got := env.ledgerRepo.get(env.fromKey()).Quantity; !got.Equal(decimal.NewFromInt(6)) {
		t.Errorf("source quantity = %s, want 6", got)
	}
	if got := env.ledgerRepo.get(env.toKey()).Quantity; !got.Equal(decimal.NewFromInt(4)) {
		t.Errorf("destination quantity = %s, want 4", got)
	}
}

func TestStockMoveCreateRejectsSameLocation(t *testing.T) {
	env := newStockMoveEnv(t)

	_, err := env.svc.Create(context.Background(), "tester", CreateStockMoveRequest{
		WarehouseID:    env.warehouseID.String(),
		GoodsID:        env.goodsID.String(),
		FromLocationID: env.fromID.String(),
		ToLocationID:   env.fromID.String(),
		Quantity:       decimal.NewFromInt(1),
	})
	if !errors.Is(err, ErrSameLocation) {
		t.Errorf("err = %v, want ErrSameLocation", err)
	}
	if env.moveRepo.count() != 0 {
		t.Error("rejected move was persisted")
	}
}

func TestStockMoveCompleteRequiresProcessing(t *testing.T) {
	env := newStockMoveEnv(t)
	seedEntry(env.ledgerRepo, env.fromKey(), 10, 0)
	doc := env.createMove(t, 4)

	_, err := env.svc.Complete(context.Background(), "tester", doc.ID.String())
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
	if got := env.ledgerRepo.get(env.fromKey()).Quantity; !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("source quantity = %s, want untouched 10", got)
	}
}

func TestStockMoveCompleteInsufficientStockStaysProcessing(t *testing.T) {
	env := newStockMoveEnv(t)
	seedEntry(env.ledgerRepo, env.fromKey(), 3, 0)
	doc := env.createMove(t, 5)
	if _, err := env.svc.Start(context.Background(), "tester", doc.ID.String()); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := env.svc.Complete(context.Background(), "tester", doc.ID.String())
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("err = %v, want ErrInsufficientStock", err)
	}

	reloaded, err := env.svc.Get(context.Background(), doc.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != model.StockMoveStatusProcessing {
		t.Errorf("status = %s, want PROCESSING", reloaded.Status)
	}
	if env.ledgerRepo.get(env.toKey()) != nil {
		t.Error("failed transfer created a destination entry")
	}
}

func TestStockMoveCompleteBlockedByReservation(t *testing.T) {
	env := newStockMoveEnv(t)
	seedEntry(env.ledgerRepo, env.fromKey(), 10, 8)
	doc := env.createMove(t, 5)
	if _, err := env.svc.Start(context.Background(), "tester", doc.ID.String()); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := env.svc.Complete(context.Background(), "tester", doc.ID.String())
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("err = %v, want ErrInsufficientStock", err)
	}
	entry := env.ledgerRepo.get(env.fromKey())
	if !entry.Quantity.Equal(decimal.NewFromInt(10)) || !entry.LockQuantity.Equal(decimal.NewFromInt(8)) {
		t.Errorf("source = %s/%s, want untouched 10/8", entry.Quantity, entry.LockQuantity)
	}
}

func TestStockMoveCancel(t *testing.T) {
	env := newStockMoveEnv(t)
	seedEntry(env.ledgerRepo, env.fromKey(), 10, 0)

	// Cancel from pending.
	doc := env.createMove(t, 4)
	cancelled, err := env.svc.Cancel(context.Background(), "tester", doc.ID.String())
	if err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if cancelled.Status != model.StockMoveStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}

	// Cancel from processing.
	doc = env.createMove(t, 4)
	if _, err := env.svc.Start(context.Background(), "tester", doc.ID.String()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.svc.Cancel(context.Background(), "tester", doc.ID.String()); err != nil {
		t.Fatalf("cancel processing: %v", err)
	}

	// Not from completed.
	doc = env.createMove(t, 4)
	if _, err := env.svc.Start(context.Background(), "tester", doc.ID.String()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.svc.Complete(context.Background(), "tester", doc.ID.String()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := env.svc.Cancel(context.Background(), "tester", doc.ID.String()); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("cancel completed: err = %v, want ErrInvalidStatus", err)
	}
}
