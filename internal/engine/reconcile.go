package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fmcgsim/pkg/domain"
)

// reconcileWindowDays bounds how far back a reconcile pass looks for open
// orders. Anything older is considered settled.
const reconcileWindowDays = 7

// DeliverySource yields the still-open transactions a reconcile pass may
// advance.
type DeliverySource interface {
	OpenTransactions(ctx context.Context, since time.Time) ([]domain.SalesTransaction, error)
}

// UpdateWriter appends delivery status update records. Implementations must
// not mutate previously persisted rows.
type UpdateWriter interface {
	PersistDeliveryUpdates(ctx context.Context, updates []domain.DeliveryUpdate) (int, error)
}

// Reconciler advances open delivery lifecycles by appending status update
// records. Each pass moves an order at most one state forward, so repeated
// runs walk Pending orders through Processing and In Transit to Delivered.
type Reconciler struct {
	source DeliverySource
	writer UpdateWriter
	alloc  *Allocator
	logger *zap.Logger
	now    func() time.Time
}

func NewReconciler(source DeliverySource, writer UpdateWriter, alloc *Allocator, logger *zap.Logger, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{source: source, writer: writer, alloc: alloc, logger: logger, now: now}
}

// Reconcile fetches orders from the last 7 days that are still Pending,
// Processing or In Transit and appends one update record per order whose age
// has crossed the next stage's threshold. Returns the number of updates
// appended.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	today := domain.DayOf(r.now())
	since := today.AddDate(0, 0, -reconcileWindowDays)

	open, err := r.source.OpenTransactions(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("reconcile: load open transactions: %w", err)
	}

	var updates []domain.DeliveryUpdate
	for _, tx := range open {
		age := domain.DaysBetween(tx.Date, today)
		next, actual, reason := advanceDelivery(tx.DeliveryStatus, age, today)
		if next == tx.DeliveryStatus {
			continue
		}
		updates = append(updates, domain.DeliveryUpdate{
			Key:               r.alloc.Next(domain.EntityDeliveryUpdate),
			SaleKey:           tx.Key,
			PreviousStatus:    tx.DeliveryStatus,
			NewStatus:         next,
			NewActualDelivery: actual,
			UpdateDate:        today,
			DaysSinceSale:     age,
			Reason:            reason,
		})
	}
	if len(updates) == 0 {
		r.logger.Debug("reconcile pass found no orders to advance", zap.Int("open", len(open)))
		return 0, nil
	}

	n, err := r.writer.PersistDeliveryUpdates(ctx, updates)
	if err != nil {
		return 0, fmt.Errorf("reconcile: append updates: %w", err)
	}
	r.logger.Info("delivery statuses reconciled",
		zap.Int("open", len(open)),
		zap.Int("updates", n))
	return n, nil
}

// advanceDelivery maps an order's current status and age in days to its next
// lifecycle state. Delivered and Delayed orders are left alone; Delayed
// shipments resolve at synthesis time, not through reconciliation.
func advanceDelivery(cur domain.DeliveryStatus, age int, today time.Time) (domain.DeliveryStatus, *time.Time, string) {
	switch {
	case cur == domain.DeliveryPending && age >= 1:
		return domain.DeliveryProcessing, nil, "Order processed after 1 day(s)"
	case cur == domain.DeliveryProcessing && age >= 2:
		return domain.DeliveryInTransit, nil, "Shipped after 2 day(s) in processing"
	case cur == domain.DeliveryInTransit && age >= 4:
		return domain.DeliveryDelivered, &today, "Delivered after 4 day(s) in transit"
	}
	return cur, nil, ""
}
