package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"wms-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestKey() model.LedgerKey {
	loc := uuid.New()
	return model.LedgerKey{
		WarehouseID: uuid.New(),
		LocationID:  &loc,
		GoodsID:     uuid.New(),
	}
}

func seedEntry(repo *mockLedgerRepo, key model.LedgerKey, qty, lock int64) {
	repo.seed(&model.StockLedgerEntry{
		WarehouseID:  key.WarehouseID,
		LocationID:   key.LocationID,
		GoodsID:      key.GoodsID,
		BatchNo:      key.BatchNo,
		SerialNo:     key.SerialNo,
		Quantity:     decimal.NewFromInt(qty),
		LockQuantity: decimal.NewFromInt(lock),
	})
}

func TestReceiveCreatesEntryAndJournals(t *testing.T) {
	repo := newMockLedgerRepo()
	txRepo := &mockStockTxRepo{}
	svc := NewLedgerService(repo, txRepo)
	key := newTestKey()

	ref := StockRef{SourceType: model.StockSourceInbound}
	if err := svc.Receive(context.Background(), key, decimal.NewFromInt(10), ref, nil); err != nil {
		t.Fatalf("receive: %v", err)
	}

	entry := repo.get(key)
	if entry == nil {
		t.Fatal("entry not created")
	}
	if !entry.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("quantity = %s, want 10", entry.Quantity)
	}
	if !entry.LockQuantity.IsZero() {
		t.Errorf("lock = %s, want 0", entry.LockQuantity)
	}
	if txRepo.count() != 1 {
		t.Errorf("journal rows = %d, want 1", txRepo.count())
	}
}

func TestReceiveRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewLedgerService(newMockLedgerRepo(), &mockStockTxRepo{})

	err := svc.Receive(context.Background(), newTestKey(), decimal.Zero, StockRef{}, nil)
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("err = %v, want ErrInvalidQuantity", err)
	}
}

func TestReserveHoldsAvailableStock(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})
	key := newTestKey()
	seedEntry(repo, key, 10, 4)

	if err := svc.Reserve(context.Background(), key, decimal.NewFromInt(6)); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	entry := repo.get(key)
	if !entry.LockQuantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("lock = %s, want 10", entry.LockQuantity)
	}
	if !entry.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("quantity = %s, want 10", entry.Quantity)
	}
}

func TestReserveFailureLeavesLockUnchanged(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})
	key := newTestKey()
	seedEntry(repo, key, 10, 4)

	// Available is 6; reserving 7 must fail without moving the hold.
	err := svc.Reserve(context.Background(), key, decimal.NewFromInt(7))
	if !errors.Is(err, ErrInsufficientAvailable) {
		t.Fatalf("err = %v, want ErrInsufficientAvailable", err)
	}

	entry := repo.get(key)
	if !entry.LockQuantity.Equal(decimal.NewFromInt(4)) {
		t.Errorf("lock = %s, want 4", entry.LockQuantity)
	}
}

func TestReserveMissingEntryReportsZeroAvailable(t *testing.T) {
	svc := NewLedgerService(newMockLedgerRepo(), &mockStockTxRepo{})

	// A key with no ledger entry is zero available, not an unknown key.
	err := svc.Reserve(context.Background(), newTestKey(), decimal.NewFromInt(1))
	if !errors.Is(err, ErrInsufficientAvailable) {
		t.Errorf("err = %v, want ErrInsufficientAvailable", err)
	}
	if errors.Is(err, ErrStockNotFound) {
		t.Errorf("err = %v, must not report a missing entry", err)
	}
}

func TestReceiveSurfacesCreateFailure(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})

	// Only a lost unique-index race is retried; every other create error
	// surfaces as-is.
	writeErr := errors.New("connection reset")
	repo.createErr = writeErr

	err := svc.Receive(context.Background(), newTestKey(), decimal.NewFromInt(1), StockRef{SourceType: model.StockSourceInbound}, nil)
	if !errors.Is(err, writeErr) {
		t.Errorf("err = %v, want the injected write error", err)
	}
	if errors.Is(err, ErrConcurrentModification) {
		t.Errorf("err = %v, must not be masked as a version conflict", err)
	}
}

func TestConsumeRequiresReservation(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})
	key := newTestKey()
	seedEntry(repo, key, 10, 0)

	err := svc.Consume(context.Background(), key, decimal.NewFromInt(3), StockRef{SourceType: model.StockSourcePicking})
	if !errors.Is(err, ErrInsufficientLock) {
		t.Errorf("err = %v, want ErrInsufficientLock", err)
	}
}

func TestConsumeDecrementsQuantityAndLock(t *testing.T) {
	repo := newMockLedgerRepo()
	txRepo := &mockStockTxRepo{}
	svc := NewLedgerService(repo, txRepo)
	key := newTestKey()
	seedEntry(repo, key, 10, 5)

	if err := svc.Consume(context.Background(), key, decimal.NewFromInt(5), StockRef{SourceType: model.StockSourcePicking}); err != nil {
		t.Fatalf("consume: %v", err)
	}

	entry := repo.get(key)
	if !entry.Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("quantity = %s, want 5", entry.Quantity)
	}
	if !entry.LockQuantity.IsZero() {
		t.Errorf("lock = %s, want 0", entry.LockQuantity)
	}
	if txRepo.count() != 1 {
		t.Errorf("journal rows = %d, want 1", txRepo.count())
	}
}

func TestConcurrentConsumeOnlyOneSucceeds(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})
	key := newTestKey()
	seedEntry(repo, key, 8, 8)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Consume(context.Background(), key, decimal.NewFromInt(5), StockRef{SourceType: model.StockSourcePicking})
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("failures = %d, want exactly 1 (errs: %v)", failures, errs)
	}

	entry := repo.get(key)
	if !entry.Quantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("quantity = %s, want 3", entry.Quantity)
	}
	if !entry.LockQuantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("lock = %s, want 3", entry.LockQuantity)
	}
}

func TestReleaseDropsHold(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})
	key := newTestKey()
	seedEntry(repo, key, 10, 6)

	if err := svc.Release(context.Background(), key, decimal.NewFromInt(6)); err != nil {
		t.Fatalf("release: %v", err)
	}

	entry := repo.get(key)
	if !entry.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("quantity = %s, want 10", entry.Quantity)
	}
	if !entry.LockQuantity.IsZero() {
		t.Errorf("lock = %s, want 0", entry.LockQuantity)
	}
}

func TestReleaseMoreThanLockedFails(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})
	key := newTestKey()
	seedEntry(repo, key, 10, 2)

	err := svc.Release(context.Background(), key, decimal.NewFromInt(3))
	if !errors.Is(err, ErrInsufficientLock) {
		t.Errorf("err = %v, want ErrInsufficientLock", err)
	}
}

func TestTransferMovesStockBetweenKeys(t *testing.T) {
	repo := newMockLedgerRepo()
	txRepo := &mockStockTxRepo{}
	svc := NewLedgerService(repo, txRepo)

	warehouseID := uuid.New()
	goodsID := uuid.New()
	fromLoc := uuid.New()
	toLoc := uuid.New()
	from := model.LedgerKey{WarehouseID: warehouseID, LocationID: &fromLoc, GoodsID: goodsID}
	to := model.LedgerKey{WarehouseID: warehouseID, LocationID: &toLoc, GoodsID: goodsID}
	seedEntry(repo, from, 10, 0)

	ref := StockRef{SourceType: model.StockSourceMove}
	if err := svc.Transfer(context.Background(), from, to, decimal.NewFromInt(4), ref); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if got := repo.get(from).Quantity; !got.Equal(decimal.NewFromInt(6)) {
		t.Errorf("from quantity = %s, want 6", got)
	}
	if got := repo.get(to).Quantity; !got.Equal(decimal.NewFromInt(4)) {
		t.Errorf("to quantity = %s, want 4", got)
	}
	// One OUT row for the source, one IN row for the destination.
	if txRepo.count() != 2 {
		t.Errorf("journal rows = %d, want 2", txRepo.count())
	}
}

func TestTransferCannotTakeReservedStock(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})

	warehouseID := uuid.New()
	goodsID := uuid.New()
	fromLoc := uuid.New()
	toLoc := uuid.New()
	from := model.LedgerKey{WarehouseID: warehouseID, LocationID: &fromLoc, GoodsID: goodsID}
	to := model.LedgerKey{WarehouseID: warehouseID, LocationID: &toLoc, GoodsID: goodsID}
	seedEntry(repo, from, 10, 8)

	err := svc.Transfer(context.Background(), from, to, decimal.NewFromInt(5), StockRef{SourceType: model.StockSourceMove})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("err = %v, want ErrInsufficientStock", err)
	}
}

func TestTransferSameKeyRejected(t *testing.T) {
	svc := NewLedgerService(newMockLedgerRepo(), &mockStockTxRepo{})
	key := newTestKey()

	err := svc.Transfer(context.Background(), key, key, decimal.NewFromInt(1), StockRef{})
	if !errors.Is(err, ErrSameLocation) {
		t.Errorf("err = %v, want ErrSameLocation", err)
	}
}

func TestAdjustCannotDropBelowLock(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})
	key := newTestKey()
	seedEntry(repo, key, 10, 6)

	err := svc.Adjust(context.Background(), key, decimal.NewFromInt(-5), StockRef{SourceType: model.StockSourceStockTake})
	if !errors.Is(err, ErrNegativeResultingQuantity) {
		t.Fatalf("err = %v, want ErrNegativeResultingQuantity", err)
	}

	if err := svc.Adjust(context.Background(), key, decimal.NewFromInt(-4), StockRef{SourceType: model.StockSourceStockTake}); err != nil {
		t.Fatalf("adjust to lock boundary: %v", err)
	}
	if got := repo.get(key).Quantity; !got.Equal(decimal.NewFromInt(6)) {
		t.Errorf("quantity = %s, want 6", got)
	}
}

func TestEmptiedEntryIsParkedAndRevived(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})
	key := newTestKey()
	seedEntry(repo, key, 5, 5)

	if err := svc.Consume(context.Background(), key, decimal.NewFromInt(5), StockRef{SourceType: model.StockSourcePicking}); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !repo.isDeleted(key) {
		t.Fatal("emptied entry should be soft-deleted")
	}
	if _, err := svc.GetStock(context.Background(), key); !errors.Is(err, ErrStockNotFound) {
		t.Errorf("get after empty: err = %v, want ErrStockNotFound", err)
	}

	// A later receive on the same key revives the row instead of violating
	// the unique index.
	if err := svc.Receive(context.Background(), key, decimal.NewFromInt(7), StockRef{SourceType: model.StockSourceInbound}, nil); err != nil {
		t.Fatalf("receive after empty: %v", err)
	}
	if repo.isDeleted(key) {
		t.Error("revived entry still soft-deleted")
	}
	if got := repo.get(key).Quantity; !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("quantity = %s, want 7", got)
	}
}

func TestFrozenEntryBlocksReserveAndConsume(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})
	key := newTestKey()
	seedEntry(repo, key, 10, 5)

	if err := svc.SetStatus(context.Background(), key, model.LedgerStatusFrozen); err != nil {
		t.Fatalf("set status: %v", err)
	}

	if err := svc.Reserve(context.Background(), key, decimal.NewFromInt(1)); !errors.Is(err, ErrEntryFrozen) {
		t.Errorf("reserve on frozen: err = %v, want ErrEntryFrozen", err)
	}
	if err := svc.Consume(context.Background(), key, decimal.NewFromInt(1), StockRef{}); !errors.Is(err, ErrEntryFrozen) {
		t.Errorf("consume on frozen: err = %v, want ErrEntryFrozen", err)
	}

	// Releasing an existing hold stays possible on frozen stock.
	if err := svc.Release(context.Background(), key, decimal.NewFromInt(5)); err != nil {
		t.Errorf("release on frozen: %v", err)
	}
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	repo := newMockLedgerRepo()
	svc := NewLedgerService(repo, &mockStockTxRepo{})
	key := newTestKey()
	seedEntry(repo, key, 1, 0)

	if err := svc.SetStatus(context.Background(), key, "MISPLACED"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}
