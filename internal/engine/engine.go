// Package engine implements the transaction synthesis core: surrogate key
// allocation, growth-curve scheduling, referential sampling, per-transaction
// synthesis and delivery reconciliation.
package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"fmcgsim/internal/telemetry"
	"fmcgsim/pkg/domain"
)

// defaultBatchDays is how many simulated days accumulate before a persist.
const defaultBatchDays = 30

// TransactionWriter persists synthesized transactions and reports how many
// rows actually landed after any dedup filtering.
type TransactionWriter interface {
	PersistTransactions(ctx context.Context, txs []domain.SalesTransaction) (int, error)
}

// Engine drives a full synthesis run: it walks the growth schedule day by day,
// samples valid entities, synthesizes transactions against each day's target
// and flushes them to the writer in multi-day batches.
type Engine struct {
	cfg       ScheduleConfig
	rng       *rand.Rand
	sampler   *Sampler
	synth     *Synthesizer
	writer    TransactionWriter
	logger    *zap.Logger
	metrics   *telemetry.Metrics
	batchDays int
}

// Options tune an Engine beyond its required collaborators.
type Options struct {
	// BatchDays overrides how many simulated days are buffered per persist.
	// Zero keeps the default of 30.
	BatchDays int
	Logger    *zap.Logger
	Metrics   *telemetry.Metrics
}

func New(cfg ScheduleConfig, rng *rand.Rand, sampler *Sampler, synth *Synthesizer, writer TransactionWriter, opts Options) *Engine {
	if opts.BatchDays <= 0 {
		opts.BatchDays = defaultBatchDays
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.Nop()
	}
	return &Engine{
		cfg:       cfg,
		rng:       rng,
		sampler:   sampler,
		synth:     synth,
		writer:    writer,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		batchDays: opts.BatchDays,
	}
}

// Run synthesizes transactions for the [start, end] horizon against the total
// monetary target. It stops early once realized revenue crosses the overshoot
// ceiling, and skips days for which no valid entity pool can be assembled.
func (e *Engine) Run(ctx context.Context, pools domain.Pools, total float64, start, end time.Time) (domain.RunSummary, error) {
	sched, err := NewSchedule(total, start, end, e.cfg, e.rng)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("engine: %w", err)
	}
	ceiling := sched.Ceiling()
	e.logger.Info("synthesis run starting",
		zap.Time("start", domain.DayOf(start)),
		zap.Time("end", domain.DayOf(end)),
		zap.Int("days", sched.TotalDays()),
		zap.Float64("target", total))

	var (
		summary     domain.RunSummary
		batch       []domain.SalesTransaction
		batchedDays int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		began := time.Now()
		n, err := e.writer.PersistTransactions(ctx, batch)
		if err != nil {
			return fmt.Errorf("engine: persist batch of %d: %w", len(batch), err)
		}
		e.metrics.PersistSeconds.Observe(time.Since(began).Seconds())
		e.logger.Info("batch persisted", zap.Int("generated", len(batch)), zap.Int("persisted", n))
		summary.RecordsPersisted += n
		batch = batch[:0]
		batchedDays = 0
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("engine: run interrupted: %w", err)
		}
		day, ok := sched.Next()
		if !ok {
			break
		}

		dp, ok := e.sampler.PoolsFor(pools, day.Date)
		if !ok {
			summary.DaysSkipped++
			e.metrics.DaysSkipped.Inc()
			e.logger.Warn("no valid entities for day, skipping",
				zap.Time("date", day.Date))
			continue
		}

		txs, realized, err := e.synth.Synthesize(day.Date, day.Target, dp)
		if err != nil {
			return summary, fmt.Errorf("engine: %w", err)
		}
		batch = append(batch, txs...)
		batchedDays++
		summary.RecordsGenerated += len(txs)
		summary.TotalAmountRealized += realized
		e.metrics.RecordsGenerated.Add(float64(len(txs)))
		e.metrics.AmountRealized.Add(realized)

		if summary.TotalAmountRealized >= ceiling {
			e.logger.Warn("overshoot ceiling reached, halting run",
				zap.Float64("realized", summary.TotalAmountRealized),
				zap.Float64("ceiling", ceiling))
			break
		}
		if batchedDays >= e.batchDays {
			if err := flush(); err != nil {
				return summary, err
			}
		}
	}
	if err := flush(); err != nil {
		return summary, err
	}

	if total > 0 {
		summary.AchievementRatio = summary.TotalAmountRealized / total
	}
	e.metrics.AchievementRatio.Set(summary.AchievementRatio)
	e.logger.Info("synthesis run finished",
		zap.Int("generated", summary.RecordsGenerated),
		zap.Int("persisted", summary.RecordsPersisted),
		zap.Float64("realized", summary.TotalAmountRealized),
		zap.Float64("achievement", summary.AchievementRatio),
		zap.Int("days_skipped", summary.DaysSkipped))
	return summary, nil
}
