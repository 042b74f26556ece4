package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wms-backend/internal/model"
	"wms-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxVersionRetries bounds the optimistic-concurrency retry loop. A conflict
// that survives this many reloads is surfaced as ErrConcurrentModification.
const maxVersionRetries = 3

// StockRef names the document responsible for a ledger mutation. It ends up
// on the stock transaction journal row.
type StockRef struct {
	SourceType string
	SourceID   *uuid.UUID
}

// StockTrace carries traceability fields recorded when a receive creates a
// new ledger entry.
type StockTrace struct {
	ProductionDate *time.Time
	ExpireDate     *time.Time
	SupplierID     *uuid.UUID
}

// LedgerService owns every mutation of stock quantities. Document services
// never touch quantity/lock_quantity except through these primitives, and
// every primitive is a single compare-and-swap on the entry's version token.
type LedgerService interface {
	// Receive adds qty on-hand, creating (or reviving) the entry on first
	// receipt.
	Receive(ctx context.Context, key model.LedgerKey, qty decimal.Decimal, ref StockRef, trace *StockTrace) error
	// Reserve places a hold of qty against available stock.
	Reserve(ctx context.Context, key model.LedgerKey, qty decimal.Decimal) error
	// Consume removes qty from both on-hand and reserved stock.
	Consume(ctx context.Context, key model.LedgerKey, qty decimal.Decimal, ref StockRef) error
	// Release drops a hold of qty without touching on-hand stock.
	Release(ctx context.Context, key model.LedgerKey, qty decimal.Decimal) error
	// Transfer moves qty from one key to another. The caller must already be
	// inside a transaction scope; both sides commit or neither does.
	Transfer(ctx context.Context, from, to model.LedgerKey, qty decimal.Decimal, ref StockRef) error
	// Adjust applies a signed correction to on-hand stock.
	Adjust(ctx context.Context, key model.LedgerKey, delta decimal.Decimal, ref StockRef) error
	// SetStatus moves an entry between Normal/Frozen/PendingInspection/Damaged.
	SetStatus(ctx context.Context, key model.LedgerKey, status string) error

	GetStock(ctx context.Context, key model.LedgerKey) (*model.StockLedgerEntry, error)
	ListStock(ctx context.Context, filter repository.LedgerFilter, page, limit int) ([]model.StockLedgerEntry, int64, error)
	ListTransactions(ctx context.Context, goodsID uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error)
}

type ledgerService struct {
	ledgerRepo  repository.LedgerRepository
	stockTxRepo repository.StockTransactionRepository
}

func NewLedgerService(ledgerRepo repository.LedgerRepository, stockTxRepo repository.StockTransactionRepository) LedgerService {
	return &ledgerService{ledgerRepo: ledgerRepo, stockTxRepo: stockTxRepo}
}

func (s *ledgerService) Receive(ctx context.Context, key model.LedgerKey, qty decimal.Decimal, ref StockRef, trace *StockTrace) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: receive %s for key %s", ErrInvalidQuantity, qty, key)
	}

	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		entry, err := s.ledgerRepo.FindByKeyAny(ctx, key)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			entry = &model.StockLedgerEntry{
				WarehouseID:  key.WarehouseID,
				LocationID:   key.LocationID,
				GoodsID:      key.GoodsID,
				BatchNo:      key.BatchNo,
				SerialNo:     key.SerialNo,
				Quantity:     qty,
				LockQuantity: decimal.Zero,
				Status:       model.LedgerStatusNormal,
			}
			if trace != nil {
				entry.ProductionDate = trace.ProductionDate
				entry.ExpireDate = trace.ExpireDate
				entry.SupplierID = trace.SupplierID
			}
			if createErr := s.ledgerRepo.Create(ctx, entry); createErr != nil {
				// A concurrent first receive can win the unique index; reload
				// and go through the versioned path. Anything else is a real
				// write failure.
				if errors.Is(createErr, gorm.ErrDuplicatedKey) {
					continue
				}
				return fmt.Errorf("create ledger entry: %w", createErr)
			}
			return s.journal(ctx, entry, model.StockDirectionIn, qty, ref)
		}
		if err != nil {
			return fmt.Errorf("load ledger entry: %w", err)
		}

		entry.Quantity = entry.Quantity.Add(qty)
		ok, err := s.ledgerRepo.UpdateVersioned(ctx, entry, entry.Version)
		if err != nil {
			return fmt.Errorf("write ledger entry: %w", err)
		}
		if ok {
			return s.journal(ctx, entry, model.StockDirectionIn, qty, ref)
		}
	}

	return fmt.Errorf("%w: receive %s for key %s", ErrConcurrentModification, qty, key)
}

func (s *ledgerService) Reserve(ctx context.Context, key model.LedgerKey, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: reserve %s for key %s", ErrInvalidQuantity, qty, key)
	}

	err := s.mutate(ctx, key, "reserve", qty, func(entry *model.StockLedgerEntry) error {
		if entry.Status != model.LedgerStatusNormal {
			return fmt.Errorf("%w: key %s is %s", ErrEntryFrozen, key, entry.Status)
		}
		if entry.Available().LessThan(qty) {
			return fmt.Errorf("%w: reserve %s, available %s, key %s", ErrInsufficientAvailable, qty, entry.Available(), key)
		}
		entry.LockQuantity = entry.LockQuantity.Add(qty)
		return nil
	}, nil)
	// A key with no entry has zero available; report the shortfall, not the
	// missing row.
	if errors.Is(err, ErrStockNotFound) {
		return fmt.Errorf("%w: reserve %s, available 0, key %s", ErrInsufficientAvailable, qty, key)
	}
	return err
}

func (s *ledgerService) Consume(ctx context.Context, key model.LedgerKey, qty decimal.Decimal, ref StockRef) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: consume %s for key %s", ErrInvalidQuantity, qty, key)
	}

	return s.mutate(ctx, key, "consume", qty, func(entry *model.StockLedgerEntry) error {
		if entry.Status != model.LedgerStatusNormal {
			return fmt.Errorf("%w: key %s is %s", ErrEntryFrozen, key, entry.Status)
		}
		if entry.LockQuantity.LessThan(qty) {
			return fmt.Errorf("%w: consume %s, locked %s, key %s", ErrInsufficientLock, qty, entry.LockQuantity, key)
		}
		if entry.Quantity.LessThan(qty) {
			return fmt.Errorf("%w: consume %s, on hand %s, key %s", ErrInsufficientStock, qty, entry.Quantity, key)
		}
		entry.Quantity = entry.Quantity.Sub(qty)
		entry.LockQuantity = entry.LockQuantity.Sub(qty)
		return nil
	}, &journalSpec{direction: model.StockDirectionOut, ref: ref})
}

func (s *ledgerService) Release(ctx context.Context, key model.LedgerKey, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: release %s for key %s", ErrInvalidQuantity, qty, key)
	}

	return s.mutate(ctx, key, "release", qty, func(entry *model.StockLedgerEntry) error {
		if entry.LockQuantity.LessThan(qty) {
			return fmt.Errorf("%w: release %s, locked %s, key %s", ErrInsufficientLock, qty, entry.LockQuantity, key)
		}
		entry.LockQuantity = entry.LockQuantity.Sub(qty)
		return nil
	}, nil)
}

func (s *ledgerService) Transfer(ctx context.Context, from, to model.LedgerKey, qty decimal.Decimal, ref StockRef) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: transfer %s", ErrInvalidQuantity, qty)
	}
	if from.String() == to.String() {
		return fmt.Errorf("%w: key %s", ErrSameLocation, from)
	}

	deduct := func() error {
		return s.mutate(ctx, from, "transfer-out", qty, func(entry *model.StockLedgerEntry) error {
			if entry.Status != model.LedgerStatusNormal {
				return fmt.Errorf("%w: key %s is %s", ErrEntryFrozen, from, entry.Status)
			}
			if entry.Available().LessThan(qty) {
				return fmt.Errorf("%w: transfer %s, available %s, key %s", ErrInsufficientStock, qty, entry.Available(), from)
			}
			entry.Quantity = entry.Quantity.Sub(qty)
			return nil
		}, &journalSpec{direction: model.StockDirectionOut, ref: ref})
	}
	receive := func() error {
		return s.Receive(ctx, to, qty, ref, nil)
	}

	// Apply the two sides in a fixed key order so concurrent opposite-direction
	// transfers never deadlock on each other's rows.
	if from.String() < to.String() {
		if err := deduct(); err != nil {
			return err
		}
		return receive()
	}
	if err := receive(); err != nil {
		return err
	}
	return deduct()
}

func (s *ledgerService) Adjust(ctx context.Context, key model.LedgerKey, delta decimal.Decimal, ref StockRef) error {
	if delta.IsZero() {
		return nil
	}

	direction := model.StockDirectionIn
	if delta.IsNegative() {
		direction = model.StockDirectionOut
	}

	return s.mutate(ctx, key, "adjust", delta.Abs(), func(entry *model.StockLedgerEntry) error {
		result := entry.Quantity.Add(delta)
		if result.LessThan(entry.LockQuantity) {
			return fmt.Errorf("%w: adjust %s, on hand %s, locked %s, key %s",
				ErrNegativeResultingQuantity, delta, entry.Quantity, entry.LockQuantity, key)
		}
		entry.Quantity = result
		return nil
	}, &journalSpec{direction: direction, ref: ref})
}

func (s *ledgerService) SetStatus(ctx context.Context, key model.LedgerKey, status string) error {
	switch status {
	case model.LedgerStatusNormal, model.LedgerStatusFrozen,
		model.LedgerStatusPendingInspection, model.LedgerStatusDamaged:
	default:
		return fmt.Errorf("%w: ledger status %q", ErrInvalidStatus, status)
	}

	return s.mutate(ctx, key, "set-status", decimal.Zero, func(entry *model.StockLedgerEntry) error {
		entry.Status = status
		return nil
	}, nil)
}

func (s *ledgerService) GetStock(ctx context.Context, key model.LedgerKey) (*model.StockLedgerEntry, error) {
	entry, err := s.ledgerRepo.FindByKey(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrStockNotFound, key)
	}
	return entry, err
}

func (s *ledgerService) ListStock(ctx context.Context, filter repository.LedgerFilter, page, limit int) ([]model.StockLedgerEntry, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.ledgerRepo.List(ctx, filter, page, limit)
}

func (s *ledgerService) ListTransactions(ctx context.Context, goodsID uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.stockTxRepo.ListByGoods(ctx, goodsID, page, limit)
}

type journalSpec struct {
	direction string
	ref       StockRef
}

// mutate is the shared optimistic-concurrency loop: load the entry, apply the
// mutation, write guarded by the version token, retry on conflict. The
// invariant 0 <= lock <= quantity is re-checked before every write.
func (s *ledgerService) mutate(ctx context.Context, key model.LedgerKey, op string, qty decimal.Decimal, apply func(*model.StockLedgerEntry) error, spec *journalSpec) error {
	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		entry, err := s.ledgerRepo.FindByKey(ctx, key)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s %s for key %s", ErrStockNotFound, op, qty, key)
		}
		if err != nil {
			return fmt.Errorf("load ledger entry: %w", err)
		}

		if err := apply(entry); err != nil {
			return err
		}
		if err := checkInvariant(entry); err != nil {
			return err
		}

		ok, err := s.ledgerRepo.UpdateVersioned(ctx, entry, entry.Version)
		if err != nil {
			return fmt.Errorf("write ledger entry: %w", err)
		}
		if ok {
			if spec != nil {
				return s.journal(ctx, entry, spec.direction, qty, spec.ref)
			}
			return nil
		}
	}

	return fmt.Errorf("%w: %s %s for key %s", ErrConcurrentModification, op, qty, key)
}

func checkInvariant(entry *model.StockLedgerEntry) error {
	if entry.LockQuantity.IsNegative() {
		return fmt.Errorf("%w: lock %s below zero for key %s", ErrInsufficientLock, entry.LockQuantity, entry.Key())
	}
	if entry.Quantity.IsNegative() {
		return fmt.Errorf("%w: quantity %s below zero for key %s", ErrInsufficientStock, entry.Quantity, entry.Key())
	}
	if entry.LockQuantity.GreaterThan(entry.Quantity) {
		return fmt.Errorf("%w: lock %s exceeds quantity %s for key %s", ErrInsufficientStock, entry.LockQuantity, entry.Quantity, entry.Key())
	}
	return nil
}

func (s *ledgerService) journal(ctx context.Context, entry *model.StockLedgerEntry, direction string, qty decimal.Decimal, ref StockRef) error {
	tx := &model.StockTransaction{
		LedgerEntryID: entry.ID,
		GoodsID:       entry.GoodsID,
		WarehouseID:   entry.WarehouseID,
		Direction:     direction,
		Quantity:      qty,
		QuantityAfter: entry.Quantity,
		SourceType:    ref.SourceType,
		SourceID:      ref.SourceID,
	}
	if err := s.stockTxRepo.Create(ctx, tx); err != nil {
		return fmt.Errorf("write stock transaction: %w", err)
	}
	return nil
}
