package sink

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fmcgsim/pkg/domain"
)

var _ Sink = (*Memory)(nil)

// Memory is an in-process sink used by tests and dry runs. It mirrors the SQL
// sinks' semantics, including ErrTableNotFound before EnsureSchema and
// fail-injection hooks for exercising the guard's degrade path.
type Memory struct {
	mu       sync.Mutex
	ensured  bool
	tables   map[string]map[int64]any
	failKeys map[string]error
}

func NewMemory() *Memory {
	return &Memory{tables: map[string]map[int64]any{}, failKeys: map[string]error{}}
}

// FailExistingKeys makes subsequent ExistingKeys calls on table return err.
// Pass nil to clear.
func (m *Memory) FailExistingKeys(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failKeys, table)
		return
	}
	m.failKeys[table] = err
}

func (m *Memory) EnsureSchema(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLocked()
	return nil
}

func (m *Memory) ensureLocked() {
	if m.ensured {
		return
	}
	for table := range keyColumns {
		if m.tables[table] == nil {
			m.tables[table] = map[int64]any{}
		}
	}
	m.ensured = true
}

func (m *Memory) TableExists(_ context.Context, table string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tables[table]
	return ok, nil
}

func (m *Memory) CountRows(_ context.Context, table string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		return 0, fmt.Errorf("memory: %s: %w", table, ErrTableNotFound)
	}
	return int64(len(t)), nil
}

func (m *Memory) ExistingKeys(_ context.Context, table string) (map[int64]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failKeys[table]; err != nil {
		return nil, err
	}
	t, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("memory: %s: %w", table, ErrTableNotFound)
	}
	keys := make(map[int64]struct{}, len(t))
	for k := range t {
		keys[k] = struct{}{}
	}
	return keys, nil
}

func (m *Memory) MaxKey(_ context.Context, table string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		return 0, fmt.Errorf("memory: %s: %w", table, ErrTableNotFound)
	}
	var max int64
	for k := range t {
		if k > max {
			max = k
		}
	}
	return max, nil
}

func (m *Memory) PersistEmployees(_ context.Context, rows []domain.Employee, mode WriteMode) (int, error) {
	return persistMem(m, TableEmployees, mode, rows)
}

func (m *Memory) PersistProducts(_ context.Context, rows []domain.Product, mode WriteMode) (int, error) {
	return persistMem(m, TableProducts, mode, rows)
}

func (m *Memory) PersistRetailers(_ context.Context, rows []domain.Retailer, mode WriteMode) (int, error) {
	return persistMem(m, TableRetailers, mode, rows)
}

func (m *Memory) PersistCampaigns(_ context.Context, rows []domain.Campaign, mode WriteMode) (int, error) {
	return persistMem(m, TableCampaigns, mode, rows)
}

func (m *Memory) PersistTransactions(_ context.Context, rows []domain.SalesTransaction) (int, error) {
	return persistMem(m, TableSales, WriteAppend, rows)
}

func (m *Memory) PersistDeliveryUpdates(_ context.Context, rows []domain.DeliveryUpdate) (int, error) {
	return persistMem(m, TableDeliveryUpdates, WriteAppend, rows)
}

func persistMem[T domain.Keyed](m *Memory, table string, mode WriteMode, rows []T) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLocked()
	if mode == WriteTruncate {
		m.tables[table] = map[int64]any{}
	}
	for _, row := range rows {
		m.tables[table][row.SurrogateKey()] = row
	}
	return len(rows), nil
}

func (m *Memory) LoadPools(_ context.Context) (domain.Pools, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLocked()
	var pools domain.Pools
	for _, v := range m.tables[TableEmployees] {
		pools.Employees = append(pools.Employees, v.(domain.Employee))
	}
	for _, v := range m.tables[TableProducts] {
		pools.Products = append(pools.Products, v.(domain.Product))
	}
	for _, v := range m.tables[TableRetailers] {
		pools.Retailers = append(pools.Retailers, v.(domain.Retailer))
	}
	for _, v := range m.tables[TableCampaigns] {
		pools.Campaigns = append(pools.Campaigns, v.(domain.Campaign))
	}
	sort.Slice(pools.Employees, func(i, j int) bool { return pools.Employees[i].Key < pools.Employees[j].Key })
	sort.Slice(pools.Products, func(i, j int) bool { return pools.Products[i].Key < pools.Products[j].Key })
	sort.Slice(pools.Retailers, func(i, j int) bool { return pools.Retailers[i].Key < pools.Retailers[j].Key })
	sort.Slice(pools.Campaigns, func(i, j int) bool { return pools.Campaigns[i].Key < pools.Campaigns[j].Key })
	return pools, nil
}

func (m *Memory) OpenTransactions(_ context.Context, since time.Time) ([]domain.SalesTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLocked()
	since = domain.DayOf(since)
	var out []domain.SalesTransaction
	for _, v := range m.tables[TableSales] {
		tx := v.(domain.SalesTransaction)
		switch tx.DeliveryStatus {
		case domain.DeliveryPending, domain.DeliveryProcessing, domain.DeliveryInTransit:
		default:
			continue
		}
		if tx.Date.Before(since) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (m *Memory) Close() error { return nil }
