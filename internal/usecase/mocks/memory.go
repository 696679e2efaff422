package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/usecase"
)

// state is everything the in-memory store holds. It is copied on Begin and
// restored on Rollback.
type state struct {
	services map[string]domain.Service
	assets   map[string]domain.Asset
	users    map[string]domain.User
	balances map[domain.BalanceKey]domain.Balance
	history  []domain.BalanceHistory
	shifts   map[string]domain.Shift
	orders   map[string]domain.Order
	outbox   []domain.OutboxEvent
}

func newState() state {
	return state{
		services: make(map[string]domain.Service),
		assets:   make(map[string]domain.Asset),
		users:    make(map[string]domain.User),
		balances: make(map[domain.BalanceKey]domain.Balance),
		shifts:   make(map[string]domain.Shift),
		orders:   make(map[string]domain.Order),
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.services {
		c.services[k] = v
	}
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.shifts {
		c.shifts[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	c.history = append([]domain.BalanceHistory(nil), s.history...)
	c.outbox = append([]domain.OutboxEvent(nil), s.outbox...)
	return c
}

// Store is an in-memory ledger store with transactional rollback. It is
// meant for sequential tests; a transaction snapshots the whole store.
type Store struct {
	mu    sync.Mutex
	state state

	Services *MemoryServiceRepository
	Assets   *MemoryAssetRepository
	Users    *MemoryUserRepository
	Balances *MemoryBalanceRepository
	History  *MemoryHistoryRepository
	Shifts   *MemoryShiftRepository
	Orders   *MemoryOrderRepository
	Outbox   *MemoryOutboxRepository
	TxMgr    *MemoryTxManager
}

// NewStore creates an empty Store.
func NewStore() *Store {
	s := &Store{state: newState()}
	s.Services = &MemoryServiceRepository{s: s}
	s.Assets = &MemoryAssetRepository{s: s}
	s.Users = &MemoryUserRepository{s: s}
	s.Balances = &MemoryBalanceRepository{s: s}
	s.History = &MemoryHistoryRepository{s: s}
	s.Shifts = &MemoryShiftRepository{s: s}
	s.Orders = &MemoryOrderRepository{s: s}
	s.Outbox = &MemoryOutboxRepository{s: s}
	s.TxMgr = &MemoryTxManager{s: s}
	return s
}

// Repositories returns the store as usecase repositories.
func (s *Store) Repositories() usecase.Repositories {
	return usecase.Repositories{
		Services: s.Services,
		Assets:   s.Assets,
		Users:    s.Users,
		Balances: s.Balances,
		History:  s.History,
		Shifts:   s.Shifts,
		Orders:   s.Orders,
		Outbox:   s.Outbox,
	}
}

// AddService seeds a service.
func (s *Store) AddService(service domain.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.services[service.ID] = service
}

// AddAsset seeds an asset.
func (s *Store) AddAsset(asset domain.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.assets[asset.ID] = asset
}

// AddUser seeds a user.
func (s *Store) AddUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[user.ID] = user
}

// AddShift seeds a shift.
func (s *Store) AddShift(shift domain.Shift) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.shifts[shift.ID] = shift
}

// Amount returns the current amount of a balance, zero when absent.
func (s *Store) Amount(serviceID, assetID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.balances[domain.BalanceKey{ServiceID: serviceID, AssetID: assetID}].Amount
}

// HistoryRows returns a copy of the whole history log.
func (s *Store) HistoryRows() []domain.BalanceHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.BalanceHistory(nil), s.state.history...)
}

// HistorySum sums the history changes of one balance.
func (s *Store) HistorySum(serviceID, assetID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, h := range s.state.history {
		if h.ServiceID == serviceID && h.AssetID == assetID {
			sum = sum.Add(h.Change)
		}
	}
	return sum
}

// OrderCount returns the number of stored orders, deleted ones included.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.orders)
}

// Events returns a copy of the outbox.
func (s *Store) Events() []domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutboxEvent(nil), s.state.outbox...)
}

// OpenShifts returns the open shifts of a service.
func (s *Store) OpenShifts(serviceID string) []domain.Shift {
	s.mu.Lock()
	defer s.mu.Unlock()
	var open []domain.Shift
	for _, sh := range s.state.shifts {
		if sh.ServiceID == serviceID && sh.IsOpen() {
			open = append(open, sh)
		}
	}
	return open
}

// CorruptBalance overwrites a balance without a history row.
func (s *Store) CorruptBalance(serviceID, assetID string, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.BalanceKey{ServiceID: serviceID, AssetID: assetID}
	b := s.state.balances[key]
	b.ServiceID, b.AssetID, b.Amount = serviceID, assetID, amount
	s.state.balances[key] = b
}

// MemoryTxManager implements usecase.TransactionManager over a Store.
type MemoryTxManager struct {
	s *Store

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	Commits   int
	Rollbacks int
}

// Begin snapshots the store.
func (m *MemoryTxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return &MemoryTx{mgr: m, snapshot: m.s.state.clone()}, nil
}

// MemoryTx is a snapshot transaction.
type MemoryTx struct {
	mgr      *MemoryTxManager
	snapshot state
	done     bool

	CommitFunc func(ctx context.Context) error
}

// Commit keeps the changes made since Begin.
func (t *MemoryTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("transaction already finished")
	}
	if t.CommitFunc != nil {
		if err := t.CommitFunc(ctx); err != nil {
			return err
		}
	}
	t.done = true
	t.mgr.Commits++
	return nil
}

// Rollback restores the snapshot unless the transaction was committed.
func (t *MemoryTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.mgr.Rollbacks++
	t.mgr.s.mu.Lock()
	defer t.mgr.s.mu.Unlock()
	t.mgr.s.state = t.snapshot
	return nil
}

// MemoryServiceRepository implements usecase.ServiceRepository.
type MemoryServiceRepository struct{ s *Store }

func (r *MemoryServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svc, ok := r.s.state.services[id]
	if !ok {
		return nil, domain.ErrServiceNotFound
	}
	return &svc, nil
}

func (r *MemoryServiceRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Service, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryServiceRepository) List(ctx context.Context) ([]*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Service, 0, len(r.s.state.services))
	for _, svc := range r.s.state.services {
		svc := svc
		out = append(out, &svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MemoryAssetRepository implements usecase.AssetRepository.
type MemoryAssetRepository struct{ s *Store }

func (r *MemoryAssetRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.state.assets[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return &a, nil
}

func (r *MemoryAssetRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Asset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]*domain.Asset, len(ids))
	for _, id := range ids {
		if a, ok := r.s.state.assets[id]; ok {
			a := a
			out[id] = &a
		}
	}
	return out, nil
}

func (r *MemoryAssetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Asset, 0, len(r.s.state.assets))
	for _, a := range r.s.state.assets {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// MemoryUserRepository implements usecase.UserRepository.
type MemoryUserRepository struct{ s *Store }

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.state.users[id]
	if !ok {
		return nil, fmt.Errorf("user %w", domain.ErrNotFound)
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.state.users[id]; ok {
			u := u
			out[id] = &u
		}
	}
	return out, nil
}

// MemoryBalanceRepository implements usecase.BalanceRepository.
type MemoryBalanceRepository struct {
	s *Store

	// Locked records the keys in the order GetForUpdate saw them.
	Locked []domain.BalanceKey

	UpdateFunc func(ctx context.Context, tx usecase.Transaction, balance *domain.Balance) error
}

func (r *MemoryBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, key domain.BalanceKey) (*domain.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.Locked = append(r.Locked, key)
	b, ok := r.s.state.balances[key]
	if !ok {
		b = domain.Balance{ServiceID: key.ServiceID, AssetID: key.AssetID, Amount: decimal.Zero}
		r.s.state.balances[key] = b
	}
	return &b, nil
}

func (r *MemoryBalanceRepository) Update(ctx context.Context, tx usecase.Transaction, balance *domain.Balance) error {
	if r.UpdateFunc != nil {
		if err := r.UpdateFunc(ctx, tx, balance); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.balances[balance.Key()] = *balance
	return nil
}

func (r *MemoryBalanceRepository) Get(ctx context.Context, key domain.BalanceKey) (*domain.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.state.balances[key]
	if !ok {
		b = domain.Balance{ServiceID: key.ServiceID, AssetID: key.AssetID, Amount: decimal.Zero}
	}
	return &b, nil
}

func (r *MemoryBalanceRepository) ListByService(ctx context.Context, serviceID string) ([]*domain.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Balance
	for _, b := range r.s.state.balances {
		if b.ServiceID == serviceID {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out, nil
}

// MemoryHistoryRepository implements usecase.BalanceHistoryRepository.
type MemoryHistoryRepository struct {
	s *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, history *domain.BalanceHistory) error
}

func (r *MemoryHistoryRepository) Create(ctx context.Context, tx usecase.Transaction, history *domain.BalanceHistory) error {
	if r.CreateFunc != nil {
		if err := r.CreateFunc(ctx, tx, history); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.history = append(r.s.state.history, *history)
	return nil
}

func (r *MemoryHistoryRepository) ListByBalance(ctx context.Context, key domain.BalanceKey, limit, offset int) ([]*domain.BalanceHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []*domain.BalanceHistory
	for i := len(r.s.state.history) - 1; i >= 0; i-- {
		h := r.s.state.history[i]
		if h.ServiceID == key.ServiceID && h.AssetID == key.AssetID {
			matched = append(matched, &h)
		}
	}
	return page(matched, limit, offset), nil
}

func (r *MemoryHistoryRepository) ListByOrder(ctx context.Context, orderID string) ([]*domain.BalanceHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.BalanceHistory
	for _, h := range r.s.state.history {
		if h.OrderID != nil && *h.OrderID == orderID {
			h := h
			out = append(out, &h)
		}
	}
	return out, nil
}

func (r *MemoryHistoryRepository) GetBalanceAtTime(ctx context.Context, key domain.BalanceKey, at time.Time) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, h := range r.s.state.history {
		if h.ServiceID == key.ServiceID && h.AssetID == key.AssetID && !h.CreatedAt.After(at) {
			sum = sum.Add(h.Change)
		}
	}
	return sum, nil
}

func (r *MemoryHistoryRepository) Totals(ctx context.Context) ([]usecase.BalanceTotal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sums := make(map[domain.BalanceKey]decimal.Decimal)
	for _, h := range r.s.state.history {
		key := domain.BalanceKey{ServiceID: h.ServiceID, AssetID: h.AssetID}
		sums[key] = sums[key].Add(h.Change)
	}
	out := make([]usecase.BalanceTotal, 0, len(r.s.state.balances))
	for key, b := range r.s.state.balances {
		out = append(out, usecase.BalanceTotal{Key: key, Amount: b.Amount, HistorySum: sums[key]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out, nil
}

// MemoryShiftRepository implements usecase.ShiftRepository.
type MemoryShiftRepository struct{ s *Store }

func (r *MemoryShiftRepository) Create(ctx context.Context, tx usecase.Transaction, shift *domain.Shift) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if shift.IsOpen() {
		for _, sh := range r.s.state.shifts {
			if sh.ServiceID == shift.ServiceID && sh.IsOpen() {
				return fmt.Errorf("service %s already has open shift %s", shift.ServiceID, sh.ID)
			}
		}
	}
	r.s.state.shifts[shift.ID] = *shift
	return nil
}

func (r *MemoryShiftRepository) GetByID(ctx context.Context, id string) (*domain.Shift, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh, ok := r.s.state.shifts[id]
	if !ok {
		return nil, domain.ErrShiftNotFound
	}
	return &sh, nil
}

func (r *MemoryShiftRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Shift, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryShiftRepository) FindOpen(ctx context.Context, serviceID string) (*domain.Shift, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sh := range r.s.state.shifts {
		if sh.ServiceID == serviceID && sh.IsOpen() {
			return &sh, nil
		}
	}
	return nil, nil
}

func (r *MemoryShiftRepository) FindOpenTx(ctx context.Context, tx usecase.Transaction, serviceID string) (*domain.Shift, error) {
	return r.FindOpen(ctx, serviceID)
}

func (r *MemoryShiftRepository) NextSequence(ctx context.Context, tx usecase.Transaction, serviceID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var maxSeq int64
	for _, sh := range r.s.state.shifts {
		if sh.ServiceID == serviceID && sh.Sequence > maxSeq {
			maxSeq = sh.Sequence
		}
	}
	return maxSeq + 1, nil
}

func (r *MemoryShiftRepository) Close(ctx context.Context, tx usecase.Transaction, id string, endTime time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh, ok := r.s.state.shifts[id]
	if !ok {
		return domain.ErrShiftNotFound
	}
	sh.Close(endTime)
	r.s.state.shifts[id] = sh
	return nil
}

func (r *MemoryShiftRepository) SoftDelete(ctx context.Context, tx usecase.Transaction, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh, ok := r.s.state.shifts[id]
	if !ok {
		return domain.ErrShiftNotFound
	}
	sh.IsDeleted = true
	r.s.state.shifts[id] = sh
	return nil
}

func (r *MemoryShiftRepository) ListByService(ctx context.Context, serviceID string, limit, offset int) ([]*domain.Shift, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Shift
	for _, sh := range r.s.state.shifts {
		if sh.ServiceID == serviceID {
			sh := sh
			out = append(out, &sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence > out[j].Sequence })
	return page(out, limit, offset), nil
}

func (r *MemoryShiftRepository) ListOverlapping(ctx context.Context, serviceID string, from, to time.Time) ([]*domain.Shift, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Shift
	for _, sh := range r.s.state.shifts {
		if sh.ServiceID == serviceID && !sh.IsDeleted && sh.Overlaps(from, to) {
			sh := sh
			out = append(out, &sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// MemoryOrderRepository implements usecase.OrderRepository.
type MemoryOrderRepository struct {
	s *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, order *domain.Order) error
	UpdateFunc func(ctx context.Context, tx usecase.Transaction, order *domain.Order) error
}

func (r *MemoryOrderRepository) Create(ctx context.Context, tx usecase.Transaction, order *domain.Order) error {
	if r.CreateFunc != nil {
		if err := r.CreateFunc(ctx, tx, order); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.orders[order.ID] = *order
	return nil
}

func (r *MemoryOrderRepository) Update(ctx context.Context, tx usecase.Transaction, order *domain.Order) error {
	if r.UpdateFunc != nil {
		if err := r.UpdateFunc(ctx, tx, order); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.state.orders[order.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	r.s.state.orders[order.ID] = *order
	return nil
}

// Put stores an order as is, bypassing the ledger. Tests use it to build
// broken fixtures.
func (r *MemoryOrderRepository) Put(order domain.Order) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.orders[order.ID] = order
}

func (r *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.state.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (r *MemoryOrderRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryOrderRepository) GetByTransferGroupForUpdate(ctx context.Context, tx usecase.Transaction, group string) ([]*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.s.state.orders {
		if o.TransferGroup != nil && *o.TransferGroup == group {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryOrderRepository) ListByShifts(ctx context.Context, shiftIDs []string) ([]*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[string]bool, len(shiftIDs))
	for _, id := range shiftIDs {
		wanted[id] = true
	}
	var out []*domain.Order
	for _, o := range r.s.state.orders {
		if o.ShiftID != nil && wanted[*o.ShiftID] && !o.IsDeleted {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// MemoryOutboxRepository implements usecase.OutboxRepository.
type MemoryOutboxRepository struct {
	s *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func (r *MemoryOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if r.CreateFunc != nil {
		if err := r.CreateFunc(ctx, tx, event); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.state.outbox = append(r.s.state.outbox, *event)
	return nil
}

func (r *MemoryOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range r.s.state.outbox {
		if !e.Published {
			e := e
			out = append(out, &e)
		}
	}
	return page(out, limit, 0), nil
}

func (r *MemoryOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.state.outbox {
		if r.s.state.outbox[i].ID == id {
			r.s.state.outbox[i].Published = true
			r.s.state.outbox[i].PublishedAt = &publishedAt
			return nil
		}
	}
	return fmt.Errorf("outbox event %w", domain.ErrNotFound)
}

func (r *MemoryOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range r.s.state.outbox {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			e := e
			out = append(out, &e)
		}
	}
	return page(out, limit, offset), nil
}

func (r *MemoryOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.state.outbox[:0]
	for _, e := range r.s.state.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.s.state.outbox = kept
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// SequentialIDGenerator returns prefix-1, prefix-2, ...
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a SequentialIDGenerator.
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// FixedClock is a settable clock.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock stopped at now.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// Now returns the current fake time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
