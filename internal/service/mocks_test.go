package service

import (
	"context"
	"fmt"
	"sync"

	"wms-backend/internal/model"
	"wms-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository fakes. The ledger fake keeps real compare-and-swap
// semantics on the version column so the optimistic-concurrency paths behave
// like they do against Postgres.

type mockLedgerRepo struct {
	mu        sync.Mutex
	entries   map[string]*model.StockLedgerEntry
	deleted   map[string]bool
	createErr error
}

func newMockLedgerRepo() *mockLedgerRepo {
	return &mockLedgerRepo{
		entries: make(map[string]*model.StockLedgerEntry),
		deleted: make(map[string]bool),
	}
}

func (m *mockLedgerRepo) seed(entry *model.StockLedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Status == "" {
		entry.Status = model.LedgerStatusNormal
	}
	m.entries[entry.Key().String()] = entry
}

func copyEntry(e *model.StockLedgerEntry) *model.StockLedgerEntry {
	c := *e
	return &c
}

func (m *mockLedgerRepo) FindByKey(ctx context.Context, key model.LedgerKey) (*model.StockLedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key.String()]
	if !ok || m.deleted[key.String()] {
		return nil, gorm.ErrRecordNotFound
	}
	return copyEntry(entry), nil
}

func (m *mockLedgerRepo) FindByKeyAny(ctx context.Context, key model.LedgerKey) (*model.StockLedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key.String()]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyEntry(entry), nil
}

func (m *mockLedgerRepo) Create(ctx context.Context, entry *model.StockLedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	k := entry.Key().String()
	if _, exists := m.entries[k]; exists {
		return fmt.Errorf("%w: ledger key %s", gorm.ErrDuplicatedKey, k)
	}
	entry.ID = uuid.New()
	m.entries[k] = copyEntry(entry)
	return nil
}

func (m *mockLedgerRepo) UpdateVersioned(ctx context.Context, entry *model.StockLedgerEntry, expectedVersion int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := entry.Key().String()
	stored, ok := m.entries[k]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	stored.Quantity = entry.Quantity
	stored.LockQuantity = entry.LockQuantity
	stored.Status = entry.Status
	stored.Version = expectedVersion + 1
	m.deleted[k] = entry.Quantity.IsZero() && entry.LockQuantity.IsZero()
	entry.Version = stored.Version
	return true, nil
}

func (m *mockLedgerRepo) List(ctx context.Context, filter repository.LedgerFilter, page, limit int) ([]model.StockLedgerEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StockLedgerEntry
	for k, e := range m.entries {
		if m.deleted[k] {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (m *mockLedgerRepo) get(key model.LedgerKey) *model.StockLedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key.String()]
	if !ok {
		return nil
	}
	return copyEntry(entry)
}

func (m *mockLedgerRepo) isDeleted(key model.LedgerKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleted[key.String()]
}

type mockStockTxRepo struct {
	mu  sync.Mutex
	txs []model.StockTransaction
}

func (m *mockStockTxRepo) Create(ctx context.Context, tx *model.StockTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.ID = uuid.New()
	m.txs = append(m.txs, *tx)
	return nil
}

func (m *mockStockTxRepo) ListByGoods(ctx context.Context, goodsID uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StockTransaction
	for _, tx := range m.txs {
		if tx.GoodsID == goodsID {
			out = append(out, tx)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockStockTxRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

// mockTxManager runs the function on the caller's context. The fakes have no
// transactions to join, so there is nothing to inject.
type mockTxManager struct{}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type mockSequenceRepo struct {
	mu       sync.Mutex
	counters map[string]int
}

func newMockSequenceRepo() *mockSequenceRepo {
	return &mockSequenceRepo{counters: make(map[string]int)}
}

func (m *mockSequenceRepo) Next(ctx context.Context, prefix string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[prefix]++
	return fmt.Sprintf("%s-%04d", prefix, m.counters[prefix]), nil
}

type mockAuditRepo struct {
	mu   sync.Mutex
	logs []model.AuditLog
}

func (m *mockAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uuid.New()
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuditLog(nil), m.logs...), int64(len(m.logs)), nil
}

type mockGoodsLookup struct {
	goods map[uuid.UUID]*model.Goods
}

func newMockGoodsLookup() *mockGoodsLookup {
	return &mockGoodsLookup{goods: make(map[uuid.UUID]*model.Goods)}
}

func (m *mockGoodsLookup) add(g *model.Goods) uuid.UUID {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	m.goods[g.ID] = g
	return g.ID
}

func (m *mockGoodsLookup) FindByID(ctx context.Context, id uuid.UUID) (*model.Goods, error) {
	g, ok := m.goods[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return g, nil
}

type mockWarehouseLookup struct {
	ids map[uuid.UUID]bool
}

func newMockWarehouseLookup(ids ...uuid.UUID) *mockWarehouseLookup {
	m := &mockWarehouseLookup{ids: make(map[uuid.UUID]bool)}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

func (m *mockWarehouseLookup) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.ids[id], nil
}

type mockLocationLookup struct {
	locations map[uuid.UUID]*model.Location
}

func newMockLocationLookup() *mockLocationLookup {
	return &mockLocationLookup{locations: make(map[uuid.UUID]*model.Location)}
}

func (m *mockLocationLookup) add(warehouseID uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.locations[id] = &model.Location{ID: id, WarehouseID: warehouseID}
	return id
}

func (m *mockLocationLookup) FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	loc, ok := m.locations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return loc, nil
}

type mockInboundRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*model.InboundDocument
}

func newMockInboundRepo() *mockInboundRepo {
	return &mockInboundRepo{docs: make(map[uuid.UUID]*model.InboundDocument)}
}

func (m *mockInboundRepo) Create(ctx context.Context, doc *model.InboundDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = uuid.New()
	for i := range doc.Items {
		doc.Items[i].ID = uuid.New()
		doc.Items[i].InboundID = doc.ID
	}
	stored := *doc
	stored.Items = append([]model.InboundItem(nil), doc.Items...)
	m.docs[doc.ID] = &stored
	return nil
}

func (m *mockInboundRepo) Save(ctx context.Context, doc *model.InboundDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[doc.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	items := stored.Items
	*stored = *doc
	stored.Items = items
	return nil
}

func (m *mockInboundRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InboundDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	doc := *stored
	doc.Items = append([]model.InboundItem(nil), stored.Items...)
	return &doc, nil
}

func (m *mockInboundRepo) ReplaceItems(ctx context.Context, inboundID uuid.UUID, items []model.InboundItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[inboundID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].InboundID = inboundID
	}
	stored.Items = append([]model.InboundItem(nil), items...)
	return nil
}

func (m *mockInboundRepo) SaveItem(ctx context.Context, item *model.InboundItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[item.InboundID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range stored.Items {
		if stored.Items[i].ID == item.ID {
			stored.Items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockInboundRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *mockInboundRepo) List(ctx context.Context, filter repository.InboundFilter, page, limit int) ([]model.InboundDocument, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.InboundDocument
	for _, doc := range m.docs {
		out = append(out, *doc)
	}
	return out, int64(len(out)), nil
}

type mockOutboundRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*model.OutboundDocument
}

func newMockOutboundRepo() *mockOutboundRepo {
	return &mockOutboundRepo{docs: make(map[uuid.UUID]*model.OutboundDocument)}
}

func (m *mockOutboundRepo) Create(ctx context.Context, doc *model.OutboundDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = uuid.New()
	for i := range doc.Items {
		doc.Items[i].ID = uuid.New()
		doc.Items[i].OutboundID = doc.ID
	}
	stored := *doc
	stored.Items = append([]model.OutboundItem(nil), doc.Items...)
	m.docs[doc.ID] = &stored
	return nil
}

func (m *mockOutboundRepo) Save(ctx context.Context, doc *model.OutboundDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[doc.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	items := stored.Items
	*stored = *doc
	stored.Items = items
	return nil
}

func (m *mockOutboundRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.OutboundDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	doc := *stored
	doc.Items = append([]model.OutboundItem(nil), stored.Items...)
	return &doc, nil
}

func (m *mockOutboundRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.OutboundDocument, error) {
	return m.FindByID(ctx, id)
}

func (m *mockOutboundRepo) SaveItem(ctx context.Context, item *model.OutboundItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[item.OutboundID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range stored.Items {
		if stored.Items[i].ID == item.ID {
			stored.Items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockOutboundRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *mockOutboundRepo) List(ctx context.Context, filter repository.OutboundFilter, page, limit int) ([]model.OutboundDocument, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OutboundDocument
	for _, doc := range m.docs {
		out = append(out, *doc)
	}
	return out, int64(len(out)), nil
}

type mockPickingTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*model.PickingTask
}

func newMockPickingTaskRepo() *mockPickingTaskRepo {
	return &mockPickingTaskRepo{tasks: make(map[uuid.UUID]*model.PickingTask)}
}

func (m *mockPickingTaskRepo) CreateBatch(ctx context.Context, tasks []model.PickingTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range tasks {
		tasks[i].ID = uuid.New()
		t := tasks[i]
		m.tasks[t.ID] = &t
	}
	return nil
}

func (m *mockPickingTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PickingTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *t
	return &c, nil
}

func (m *mockPickingTaskRepo) Save(ctx context.Context, task *model.PickingTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *task
	m.tasks[task.ID] = &c
	return nil
}

func (m *mockPickingTaskRepo) ListByOutbound(ctx context.Context, outboundID uuid.UUID) ([]model.PickingTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PickingTask
	for _, t := range m.tasks {
		if t.OutboundID == outboundID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockPickingTaskRepo) ListByWave(ctx context.Context, waveID uuid.UUID) ([]model.PickingTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PickingTask
	for _, t := range m.tasks {
		if t.WaveID != nil && *t.WaveID == waveID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockPickingTaskRepo) List(ctx context.Context, filter repository.PickingTaskFilter, page, limit int) ([]model.PickingTask, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PickingTask
	for _, t := range m.tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.OutboundID != nil && t.OutboundID != *filter.OutboundID {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (m *mockPickingTaskRepo) SumCompletedByItem(ctx context.Context, outboundID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := make(map[uuid.UUID]decimal.Decimal)
	for _, t := range m.tasks {
		if t.OutboundID != outboundID || t.Status != model.PickingTaskStatusCompleted {
			continue
		}
		sums[t.OutboundItemID] = sums[t.OutboundItemID].Add(t.ActualQuantity)
	}
	return sums, nil
}

func (m *mockPickingTaskRepo) AssignWave(ctx context.Context, outboundID, waveID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.OutboundID == outboundID && t.Status == model.PickingTaskStatusPending {
			id := waveID
			t.WaveID = &id
		}
	}
	return nil
}

type mockPickingWaveRepo struct {
	mu    sync.Mutex
	waves map[uuid.UUID]*model.PickingWave
	links []model.PickingWaveOutbound
}

func newMockPickingWaveRepo() *mockPickingWaveRepo {
	return &mockPickingWaveRepo{waves: make(map[uuid.UUID]*model.PickingWave)}
}

func (m *mockPickingWaveRepo) Create(ctx context.Context, wave *model.PickingWave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	wave.ID = uuid.New()
	c := *wave
	m.waves[wave.ID] = &c
	return nil
}

func (m *mockPickingWaveRepo) Save(ctx context.Context, wave *model.PickingWave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.waves[wave.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *wave
	m.waves[wave.ID] = &c
	return nil
}

func (m *mockPickingWaveRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PickingWave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.waves[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *w
	return &c, nil
}

func (m *mockPickingWaveRepo) LinkOutbound(ctx context.Context, link *model.PickingWaveOutbound) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	link.ID = uuid.New()
	m.links = append(m.links, *link)
	return nil
}

func (m *mockPickingWaveRepo) ListOutboundIDs(ctx context.Context, waveID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for _, link := range m.links {
		if link.WaveID == waveID {
			ids = append(ids, link.OutboundID)
		}
	}
	return ids, nil
}

func (m *mockPickingWaveRepo) OpenWaveExists(ctx context.Context, outboundID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, link := range m.links {
		wave, ok := m.waves[link.WaveID]
		if !ok || link.OutboundID != outboundID {
			continue
		}
		if wave.Status == model.PickingWaveStatusPending || wave.Status == model.PickingWaveStatusPicking {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPickingWaveRepo) List(ctx context.Context, warehouseID *uuid.UUID, status string, page, limit int) ([]model.PickingWave, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PickingWave
	for _, w := range m.waves {
		out = append(out, *w)
	}
	return out, int64(len(out)), nil
}

type mockStockMoveRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*model.StockMoveDocument
}

func newMockStockMoveRepo() *mockStockMoveRepo {
	return &mockStockMoveRepo{docs: make(map[uuid.UUID]*model.StockMoveDocument)}
}

func (m *mockStockMoveRepo) Create(ctx context.Context, doc *model.StockMoveDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = uuid.New()
	c := *doc
	m.docs[doc.ID] = &c
	return nil
}

func (m *mockStockMoveRepo) Save(ctx context.Context, doc *model.StockMoveDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *doc
	m.docs[doc.ID] = &c
	return nil
}

func (m *mockStockMoveRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockMoveDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *d
	return &c, nil
}

func (m *mockStockMoveRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

func (m *mockStockMoveRepo) List(ctx context.Context, warehouseID *uuid.UUID, status string, page, limit int) ([]model.StockMoveDocument, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StockMoveDocument
	for _, d := range m.docs {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

type mockStockTakingRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*model.StockTakingDocument
}

func newMockStockTakingRepo() *mockStockTakingRepo {
	return &mockStockTakingRepo{docs: make(map[uuid.UUID]*model.StockTakingDocument)}
}

func (m *mockStockTakingRepo) Create(ctx context.Context, doc *model.StockTakingDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = uuid.New()
	c := *doc
	m.docs[doc.ID] = &c
	return nil
}

func (m *mockStockTakingRepo) Save(ctx context.Context, doc *model.StockTakingDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *doc
	m.docs[doc.ID] = &c
	return nil
}

func (m *mockStockTakingRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockTakingDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *d
	return &c, nil
}

func (m *mockStockTakingRepo) List(ctx context.Context, filter repository.StockTakingFilter, page, limit int) ([]model.StockTakingDocument, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StockTakingDocument
	for _, d := range m.docs {
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}
