package sink

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"fmcgsim/internal/telemetry"
	"fmcgsim/pkg/domain"
)

// Guard makes fact appends idempotent. Before writing it reads the surrogate
// keys already in the target table and drops rows whose key is present, so a
// rerun over an already-loaded window never duplicates data. When the key read
// fails transiently the guard degrades to a plain append rather than losing
// the batch, and says so loudly.
type Guard struct {
	sink    Sink
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

func NewGuard(s Sink, logger *zap.Logger, metrics *telemetry.Metrics) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	return &Guard{sink: s, logger: logger, metrics: metrics}
}

// Sink returns the wrapped sink for operations the guard does not mediate.
func (g *Guard) Sink() Sink { return g.sink }

// PersistTransactions appends sales facts with dedup on sale_key.
func (g *Guard) PersistTransactions(ctx context.Context, rows []domain.SalesTransaction) (int, error) {
	return AppendSafe(ctx, g, TableSales, rows, g.sink.PersistTransactions)
}

// PersistDeliveryUpdates appends reconciliation records with dedup on update_key.
func (g *Guard) PersistDeliveryUpdates(ctx context.Context, rows []domain.DeliveryUpdate) (int, error) {
	return AppendSafe(ctx, g, TableDeliveryUpdates, rows, g.sink.PersistDeliveryUpdates)
}

// AppendSafe filters rows already present in table by surrogate key, then
// persists the remainder. A missing table is created empty and the batch goes
// through whole. Any other key-read failure degrades to an unfiltered append.
func AppendSafe[T domain.Keyed](ctx context.Context, g *Guard, table string, rows []T, persist func(context.Context, []T) (int, error)) (int, error) {
	if len(rows) == 0 {
		// Even a no-op append guarantees the destination table exists.
		ok, err := g.sink.TableExists(ctx, table)
		if err != nil {
			return 0, err
		}
		if !ok {
			if err := g.sink.EnsureSchema(ctx); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}
	existing, err := g.sink.ExistingKeys(ctx, table)
	switch {
	case errors.Is(err, ErrTableNotFound):
		if err := g.sink.EnsureSchema(ctx); err != nil {
			return 0, err
		}
	case err != nil:
		g.metrics.SinkDegraded.Inc()
		g.logger.Warn("dedup read failed, appending without filtering",
			zap.String("table", table),
			zap.Int("rows", len(rows)),
			zap.Error(err))
	}

	fresh := rows
	if len(existing) > 0 {
		fresh = make([]T, 0, len(rows))
		for _, row := range rows {
			if _, dup := existing[row.SurrogateKey()]; dup {
				continue
			}
			fresh = append(fresh, row)
		}
		if dropped := len(rows) - len(fresh); dropped > 0 {
			g.metrics.DuplicatesFiltered.Add(float64(dropped))
			g.logger.Info("duplicate rows filtered before append",
				zap.String("table", table),
				zap.Int("dropped", dropped),
				zap.Int("kept", len(fresh)))
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	return persist(ctx, fresh)
}
