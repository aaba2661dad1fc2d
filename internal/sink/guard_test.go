package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"fmcgsim/pkg/domain"
)

func saleRow(key int64, date time.Time) domain.SalesTransaction {
	return domain.SalesTransaction{Key: key, Date: date, DeliveryStatus: domain.DeliveryPending}
}

func TestGuardFiltersDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	g := NewGuard(mem, nil, nil)
	day := domain.Date(2024, time.June, 1)

	n, err := g.PersistTransactions(ctx, []domain.SalesTransaction{saleRow(1, day), saleRow(2, day)})
	if err != nil {
		t.Fatalf("first append: %v", err)
	}
	if n != 2 {
		t.Fatalf("first append persisted %d, want 2", n)
	}

	// Replay an overlapping batch. Only the new row may land.
	n, err = g.PersistTransactions(ctx, []domain.SalesTransaction{saleRow(2, day), saleRow(3, day)})
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if n != 1 {
		t.Fatalf("second append persisted %d, want 1", n)
	}
	count, err := mem.CountRows(ctx, TableSales)
	if err != nil {
		t.Fatalf("CountRows: %v", err)
	}
	if count != 3 {
		t.Fatalf("table holds %d rows, want 3", count)
	}
}

func TestGuardFullyDuplicateBatchIsNoop(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	g := NewGuard(mem, nil, nil)
	day := domain.Date(2024, time.June, 1)
	rows := []domain.SalesTransaction{saleRow(1, day), saleRow(2, day)}

	if _, err := g.PersistTransactions(ctx, rows); err != nil {
		t.Fatalf("first append: %v", err)
	}
	n, err := g.PersistTransactions(ctx, rows)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if n != 0 {
		t.Fatalf("replay persisted %d rows, want 0", n)
	}
}

func TestGuardCreatesMissingTable(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	g := NewGuard(mem, nil, nil)

	// No EnsureSchema call before the append: the key read hits
	// ErrTableNotFound and the guard must create the schema itself.
	n, err := g.PersistTransactions(ctx, []domain.SalesTransaction{saleRow(1, domain.Date(2024, time.June, 1))})
	if err != nil {
		t.Fatalf("append onto missing table: %v", err)
	}
	if n != 1 {
		t.Fatalf("persisted %d, want 1", n)
	}
	exists, err := mem.TableExists(ctx, TableSales)
	if err != nil || !exists {
		t.Fatalf("table not created: exists=%v err=%v", exists, err)
	}
}

func TestGuardDegradesOnKeyReadFailure(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	g := NewGuard(mem, nil, nil)
	day := domain.Date(2024, time.June, 1)

	if _, err := g.PersistTransactions(ctx, []domain.SalesTransaction{saleRow(1, day)}); err != nil {
		t.Fatalf("seed append: %v", err)
	}

	mem.FailExistingKeys(TableSales, errors.New("connection reset"))
	// The duplicate cannot be detected, so the degraded append writes both
	// rows through rather than failing the batch.
	n, err := g.PersistTransactions(ctx, []domain.SalesTransaction{saleRow(1, day), saleRow(2, day)})
	if err != nil {
		t.Fatalf("degraded append: %v", err)
	}
	if n != 2 {
		t.Fatalf("degraded append persisted %d, want 2", n)
	}
}

func TestGuardDeliveryUpdatesDedup(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	g := NewGuard(mem, nil, nil)
	day := domain.Date(2024, time.June, 1)
	upd := func(key int64) domain.DeliveryUpdate {
		return domain.DeliveryUpdate{Key: key, SaleKey: 10, PreviousStatus: domain.DeliveryPending, NewStatus: domain.DeliveryProcessing, UpdateDate: day}
	}

	if _, err := g.PersistDeliveryUpdates(ctx, []domain.DeliveryUpdate{upd(1)}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	n, err := g.PersistDeliveryUpdates(ctx, []domain.DeliveryUpdate{upd(1), upd(2)})
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if n != 1 {
		t.Fatalf("second append persisted %d, want 1", n)
	}
}

func TestGuardEmptyBatchEnsuresTable(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	g := NewGuard(mem, nil, nil)
	n, err := g.PersistTransactions(ctx, nil)
	if err != nil || n != 0 {
		t.Fatalf("empty batch: n=%d err=%v", n, err)
	}
	// An empty append still leaves the destination table in place.
	count, err := mem.CountRows(ctx, TableSales)
	if err != nil {
		t.Fatalf("count after empty append: %v", err)
	}
	if count != 0 {
		t.Fatalf("empty append wrote %d rows", count)
	}
	if _, err := g.PersistDeliveryUpdates(ctx, nil); err != nil {
		t.Fatalf("empty update batch: %v", err)
	}
	if _, err := mem.CountRows(ctx, TableDeliveryUpdates); err != nil {
		t.Fatalf("count after empty update append: %v", err)
	}
}
