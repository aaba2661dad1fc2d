// Package sink defines the warehouse interface the engine loads into, the
// incremental load guard that keeps appends idempotent, and the shared
// database/sql implementation backing the sqlite and postgres sinks.
package sink

import (
	"context"
	"errors"
	"time"

	"fmcgsim/pkg/domain"
)

// Warehouse table names.
const (
	TableEmployees       = "dim_employees"
	TableProducts        = "dim_products"
	TableRetailers       = "dim_retailers"
	TableCampaigns       = "dim_campaigns"
	TableSales           = "fact_sales"
	TableDeliveryUpdates = "delivery_status_updates"
)

// ErrTableNotFound reports a read against a table the sink has not created.
var ErrTableNotFound = errors.New("sink: table not found")

// WriteMode selects whether a dimension persist replaces or extends the table.
type WriteMode string

const (
	// WriteAppend adds rows, leaving existing content in place.
	WriteAppend WriteMode = "append"
	// WriteTruncate clears the table before writing.
	WriteTruncate WriteMode = "truncate"
)

// Sink is the analytical warehouse the simulator loads into. Persist methods
// return the number of rows written. Fact persists are plain appends; dedup
// belongs to the Guard layered on top.
type Sink interface {
	// EnsureSchema creates any missing tables. Safe to call repeatedly.
	EnsureSchema(ctx context.Context) error
	TableExists(ctx context.Context, table string) (bool, error)
	CountRows(ctx context.Context, table string) (int64, error)
	// ExistingKeys returns every surrogate key currently in the table, or
	// ErrTableNotFound if the table does not exist.
	ExistingKeys(ctx context.Context, table string) (map[int64]struct{}, error)
	// MaxKey returns the highest surrogate key in the table, 0 when empty.
	MaxKey(ctx context.Context, table string) (int64, error)

	PersistEmployees(ctx context.Context, rows []domain.Employee, mode WriteMode) (int, error)
	PersistProducts(ctx context.Context, rows []domain.Product, mode WriteMode) (int, error)
	PersistRetailers(ctx context.Context, rows []domain.Retailer, mode WriteMode) (int, error)
	PersistCampaigns(ctx context.Context, rows []domain.Campaign, mode WriteMode) (int, error)
	PersistTransactions(ctx context.Context, rows []domain.SalesTransaction) (int, error)
	PersistDeliveryUpdates(ctx context.Context, rows []domain.DeliveryUpdate) (int, error)

	// LoadPools rehydrates the dimension pools from the warehouse.
	LoadPools(ctx context.Context) (domain.Pools, error)
	// OpenTransactions returns sales on or after since that are still
	// Pending, Processing or In Transit.
	OpenTransactions(ctx context.Context, since time.Time) ([]domain.SalesTransaction, error)

	Close() error
}
