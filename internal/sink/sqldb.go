package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fmcgsim/pkg/domain"
)

// Dialect carries the few queries that differ between supported databases.
// Everything else sticks to the SQL subset sqlite and postgres share,
// including $N placeholders.
type Dialect struct {
	// Name tags log lines and errors.
	Name string
	// TableExists takes the table name as $1 and returns a count.
	TableExists string
	// Rebind rewrites $N placeholders into the driver's native form.
	// Nil leaves queries untouched.
	Rebind func(query string) string
}

// Compile-time contract assertion ensuring the shared store satisfies Sink.
var _ Sink = (*DB)(nil)

// DB is a warehouse sink over database/sql. Both the sqlite and postgres
// packages construct one of these around their own driver. Dates are stored
// as ISO-8601 text so both dialects scan identically.
type DB struct {
	db      *sql.DB
	dialect Dialect
}

// NewDB wraps an open database handle. Callers own the handle's lifecycle
// until Close is called.
func NewDB(db *sql.DB, dialect Dialect) *DB {
	return &DB{db: db, dialect: dialect}
}

// Handle exposes the underlying sql.DB for integration testing hooks.
func (s *DB) Handle() *sql.DB { return s.db }

// q rewrites placeholders for the active dialect.
func (s *DB) q(query string) string {
	if s.dialect.Rebind == nil {
		return query
	}
	return s.dialect.Rebind(query)
}

func (s *DB) Close() error { return s.db.Close() }

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS dim_employees (
		employee_key BIGINT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		full_name TEXT NOT NULL,
		department TEXT NOT NULL,
		position TEXT NOT NULL,
		employment_status TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		termination_date TEXT,
		region TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dim_products (
		product_key BIGINT PRIMARY KEY,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL,
		brand TEXT NOT NULL,
		wholesale_price DOUBLE PRECISION NOT NULL,
		retail_price DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		created_date TEXT NOT NULL,
		delisted_date TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS dim_retailers (
		retailer_key BIGINT PRIMARY KEY,
		retailer_id TEXT NOT NULL,
		retailer_name TEXT NOT NULL,
		retailer_type TEXT NOT NULL,
		city TEXT NOT NULL,
		province TEXT NOT NULL,
		region TEXT NOT NULL,
		country TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dim_campaigns (
		campaign_key BIGINT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		campaign_name TEXT NOT NULL,
		campaign_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		budget DOUBLE PRECISION NOT NULL,
		currency TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fact_sales (
		sale_key BIGINT PRIMARY KEY,
		sale_date TEXT NOT NULL,
		product_key BIGINT NOT NULL,
		employee_key BIGINT NOT NULL,
		retailer_key BIGINT NOT NULL,
		campaign_key BIGINT,
		case_quantity INTEGER NOT NULL,
		unit_price DOUBLE PRECISION NOT NULL,
		discount_percent DOUBLE PRECISION NOT NULL,
		discount_amount DOUBLE PRECISION NOT NULL,
		tax_rate DOUBLE PRECISION NOT NULL,
		tax_amount DOUBLE PRECISION NOT NULL,
		total_amount DOUBLE PRECISION NOT NULL,
		commission_amount DOUBLE PRECISION NOT NULL,
		currency TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		delivery_status TEXT NOT NULL,
		expected_delivery_date TEXT NOT NULL,
		actual_delivery_date TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS delivery_status_updates (
		update_key BIGINT PRIMARY KEY,
		sale_key BIGINT NOT NULL,
		previous_status TEXT NOT NULL,
		new_status TEXT NOT NULL,
		new_actual_delivery_date TEXT,
		update_date TEXT NOT NULL,
		days_since_sale INTEGER NOT NULL,
		update_reason TEXT NOT NULL
	)`,
}

// EnsureSchema creates the star schema tables if they are missing.
func (s *DB) EnsureSchema(ctx context.Context) error {
	for _, ddl := range schemaDDL {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("%s: ensure schema: %w", s.dialect.Name, err)
		}
	}
	return nil
}

func (s *DB) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.q(s.dialect.TableExists), table).Scan(&n); err != nil {
		return false, fmt.Errorf("%s: check table %s: %w", s.dialect.Name, table, err)
	}
	return n > 0, nil
}

func (s *DB) CountRows(ctx context.Context, table string) (int64, error) {
	if err := s.requireTable(ctx, table); err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count %s: %w", s.dialect.Name, table, err)
	}
	return n, nil
}

// keyColumns maps each table to its surrogate key column.
var keyColumns = map[string]string{
	TableEmployees:       "employee_key",
	TableProducts:        "product_key",
	TableRetailers:       "retailer_key",
	TableCampaigns:       "campaign_key",
	TableSales:           "sale_key",
	TableDeliveryUpdates: "update_key",
}

func (s *DB) ExistingKeys(ctx context.Context, table string) (map[int64]struct{}, error) {
	col, ok := keyColumns[table]
	if !ok {
		return nil, fmt.Errorf("%s: no key column for table %s", s.dialect.Name, table)
	}
	if err := s.requireTable(ctx, table); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+col+` FROM `+table)
	if err != nil {
		return nil, fmt.Errorf("%s: select keys from %s: %w", s.dialect.Name, table, err)
	}
	defer func() { _ = rows.Close() }()
	keys := make(map[int64]struct{})
	for rows.Next() {
		var k int64
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("%s: scan key: %w", s.dialect.Name, err)
		}
		keys[k] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate keys: %w", s.dialect.Name, err)
	}
	return keys, nil
}

func (s *DB) MaxKey(ctx context.Context, table string) (int64, error) {
	col, ok := keyColumns[table]
	if !ok {
		return 0, fmt.Errorf("%s: no key column for table %s", s.dialect.Name, table)
	}
	if err := s.requireTable(ctx, table); err != nil {
		return 0, err
	}
	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(`+col+`) FROM `+table).Scan(&max); err != nil {
		return 0, fmt.Errorf("%s: max key of %s: %w", s.dialect.Name, table, err)
	}
	return max.Int64, nil
}

func (s *DB) requireTable(ctx context.Context, table string) error {
	ok, err := s.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %s: %w", s.dialect.Name, table, ErrTableNotFound)
	}
	return nil
}

func (s *DB) PersistEmployees(ctx context.Context, rows []domain.Employee, mode WriteMode) (int, error) {
	return s.persist(ctx, TableEmployees, mode, len(rows), func(tx *sql.Tx, i int) error {
		e := rows[i]
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO dim_employees
			(employee_key, employee_id, full_name, department, position, employment_status, hire_date, termination_date, region)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`),
			e.Key, e.ID, e.FullName, e.Department, e.Position, string(e.Status),
			fmtDate(e.HireDate), fmtDatePtr(e.TerminationDate), e.Region)
		return err
	})
}

func (s *DB) PersistProducts(ctx context.Context, rows []domain.Product, mode WriteMode) (int, error) {
	return s.persist(ctx, TableProducts, mode, len(rows), func(tx *sql.Tx, i int) error {
		p := rows[i]
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO dim_products
			(product_key, product_id, product_name, category, subcategory, brand, wholesale_price, retail_price, status, created_date, delisted_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`),
			p.Key, p.ID, p.Name, p.Category, p.Subcategory, p.Brand,
			p.WholesalePrice, p.RetailPrice, string(p.Status),
			fmtDate(p.CreatedDate), fmtDatePtr(p.DelistedDate))
		return err
	})
}

func (s *DB) PersistRetailers(ctx context.Context, rows []domain.Retailer, mode WriteMode) (int, error) {
	return s.persist(ctx, TableRetailers, mode, len(rows), func(tx *sql.Tx, i int) error {
		r := rows[i]
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO dim_retailers
			(retailer_key, retailer_id, retailer_name, retailer_type, city, province, region, country)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`),
			r.Key, r.ID, r.Name, string(r.Type), r.City, r.Province, r.Region, r.Country)
		return err
	})
}

func (s *DB) PersistCampaigns(ctx context.Context, rows []domain.Campaign, mode WriteMode) (int, error) {
	return s.persist(ctx, TableCampaigns, mode, len(rows), func(tx *sql.Tx, i int) error {
		c := rows[i]
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO dim_campaigns
			(campaign_key, campaign_id, campaign_name, campaign_type, start_date, end_date, budget, currency)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`),
			c.Key, c.ID, c.Name, c.Type, fmtDate(c.StartDate), fmtDate(c.EndDate), c.Budget, c.Currency)
		return err
	})
}

func (s *DB) PersistTransactions(ctx context.Context, rows []domain.SalesTransaction) (int, error) {
	return s.persist(ctx, TableSales, WriteAppend, len(rows), func(tx *sql.Tx, i int) error {
		t := rows[i]
		var campaign any
		if t.CampaignKey != nil {
			campaign = *t.CampaignKey
		}
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO fact_sales
			(sale_key, sale_date, product_key, employee_key, retailer_key, campaign_key,
			 case_quantity, unit_price, discount_percent, discount_amount, tax_rate, tax_amount,
			 total_amount, commission_amount, currency, payment_method, payment_status,
			 delivery_status, expected_delivery_date, actual_delivery_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`),
			t.Key, fmtDate(t.Date), t.ProductKey, t.EmployeeKey, t.RetailerKey, campaign,
			t.Quantity, t.UnitPrice, t.DiscountPercent, t.DiscountAmount, t.TaxRate, t.TaxAmount,
			t.TotalAmount, t.CommissionAmount, t.Currency, string(t.PaymentMethod), string(t.PaymentStatus),
			string(t.DeliveryStatus), fmtDate(t.ExpectedDeliveryDate), fmtDatePtr(t.ActualDeliveryDate))
		return err
	})
}

func (s *DB) PersistDeliveryUpdates(ctx context.Context, rows []domain.DeliveryUpdate) (int, error) {
	return s.persist(ctx, TableDeliveryUpdates, WriteAppend, len(rows), func(tx *sql.Tx, i int) error {
		u := rows[i]
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO delivery_status_updates
			(update_key, sale_key, previous_status, new_status, new_actual_delivery_date, update_date, days_since_sale, update_reason)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`),
			u.Key, u.SaleKey, string(u.PreviousStatus), string(u.NewStatus),
			fmtDatePtr(u.NewActualDelivery), fmtDate(u.UpdateDate), u.DaysSinceSale, u.Reason)
		return err
	})
}

// persist runs n row inserts inside one transaction, truncating first when
// asked. Returns the number of rows written.
func (s *DB) persist(ctx context.Context, table string, mode WriteMode, n int, insert func(tx *sql.Tx, i int) error) (int, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", s.dialect.Name, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if mode == WriteTruncate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return 0, fmt.Errorf("%s: truncate %s: %w", s.dialect.Name, table, err)
		}
	}
	for i := 0; i < n; i++ {
		if err := insert(tx, i); err != nil {
			return 0, fmt.Errorf("%s: insert into %s: %w", s.dialect.Name, table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit %s: %w", s.dialect.Name, table, err)
	}
	committed = true
	return n, nil
}

// LoadPools rehydrates every dimension table into memory.
func (s *DB) LoadPools(ctx context.Context) (domain.Pools, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return domain.Pools{}, err
	}
	var pools domain.Pools

	err := s.each(ctx, `SELECT employee_key, employee_id, full_name, department, position, employment_status, hire_date, termination_date, region FROM dim_employees`,
		func(rows *sql.Rows) error {
			var e domain.Employee
			var status, hire string
			var term sql.NullString
			if err := rows.Scan(&e.Key, &e.ID, &e.FullName, &e.Department, &e.Position, &status, &hire, &term, &e.Region); err != nil {
				return err
			}
			e.Status = domain.EmployeeStatus(status)
			var err error
			if e.HireDate, err = parseDate(hire); err != nil {
				return err
			}
			if e.TerminationDate, err = parseDatePtr(term); err != nil {
				return err
			}
			pools.Employees = append(pools.Employees, e)
			return nil
		})
	if err != nil {
		return domain.Pools{}, fmt.Errorf("%s: load employees: %w", s.dialect.Name, err)
	}

	err = s.each(ctx, `SELECT product_key, product_id, product_name, category, subcategory, brand, wholesale_price, retail_price, status, created_date, delisted_date FROM dim_products`,
		func(rows *sql.Rows) error {
			var p domain.Product
			var status, created string
			var delisted sql.NullString
			if err := rows.Scan(&p.Key, &p.ID, &p.Name, &p.Category, &p.Subcategory, &p.Brand, &p.WholesalePrice, &p.RetailPrice, &status, &created, &delisted); err != nil {
				return err
			}
			p.Status = domain.ProductStatus(status)
			var err error
			if p.CreatedDate, err = parseDate(created); err != nil {
				return err
			}
			if p.DelistedDate, err = parseDatePtr(delisted); err != nil {
				return err
			}
			pools.Products = append(pools.Products, p)
			return nil
		})
	if err != nil {
		return domain.Pools{}, fmt.Errorf("%s: load products: %w", s.dialect.Name, err)
	}

	err = s.each(ctx, `SELECT retailer_key, retailer_id, retailer_name, retailer_type, city, province, region, country FROM dim_retailers`,
		func(rows *sql.Rows) error {
			var r domain.Retailer
			var typ string
			if err := rows.Scan(&r.Key, &r.ID, &r.Name, &typ, &r.City, &r.Province, &r.Region, &r.Country); err != nil {
				return err
			}
			r.Type = domain.RetailerType(typ)
			pools.Retailers = append(pools.Retailers, r)
			return nil
		})
	if err != nil {
		return domain.Pools{}, fmt.Errorf("%s: load retailers: %w", s.dialect.Name, err)
	}

	err = s.each(ctx, `SELECT campaign_key, campaign_id, campaign_name, campaign_type, start_date, end_date, budget, currency FROM dim_campaigns`,
		func(rows *sql.Rows) error {
			var c domain.Campaign
			var start, end string
			if err := rows.Scan(&c.Key, &c.ID, &c.Name, &c.Type, &start, &end, &c.Budget, &c.Currency); err != nil {
				return err
			}
			var err error
			if c.StartDate, err = parseDate(start); err != nil {
				return err
			}
			if c.EndDate, err = parseDate(end); err != nil {
				return err
			}
			pools.Campaigns = append(pools.Campaigns, c)
			return nil
		})
	if err != nil {
		return domain.Pools{}, fmt.Errorf("%s: load campaigns: %w", s.dialect.Name, err)
	}

	return pools, nil
}

// OpenTransactions returns still-open sales on or after since, oldest first.
func (s *DB) OpenTransactions(ctx context.Context, since time.Time) ([]domain.SalesTransaction, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	var out []domain.SalesTransaction
	err := s.each(ctx, `SELECT sale_key, sale_date, product_key, employee_key, retailer_key, campaign_key,
			case_quantity, unit_price, discount_percent, discount_amount, tax_rate, tax_amount,
			total_amount, commission_amount, currency, payment_method, payment_status,
			delivery_status, expected_delivery_date, actual_delivery_date
		FROM fact_sales
		WHERE delivery_status IN ('Pending','Processing','In Transit') AND sale_date >= $1
		ORDER BY sale_date, sale_key`,
		func(rows *sql.Rows) error {
			var t domain.SalesTransaction
			var saleDate, expected, method, status, delivery string
			var campaign sql.NullInt64
			var actual sql.NullString
			if err := rows.Scan(&t.Key, &saleDate, &t.ProductKey, &t.EmployeeKey, &t.RetailerKey, &campaign,
				&t.Quantity, &t.UnitPrice, &t.DiscountPercent, &t.DiscountAmount, &t.TaxRate, &t.TaxAmount,
				&t.TotalAmount, &t.CommissionAmount, &t.Currency, &method, &status,
				&delivery, &expected, &actual); err != nil {
				return err
			}
			if campaign.Valid {
				k := campaign.Int64
				t.CampaignKey = &k
			}
			t.PaymentMethod = domain.PaymentMethod(method)
			t.PaymentStatus = domain.PaymentStatus(status)
			t.DeliveryStatus = domain.DeliveryStatus(delivery)
			var err error
			if t.Date, err = parseDate(saleDate); err != nil {
				return err
			}
			if t.ExpectedDeliveryDate, err = parseDate(expected); err != nil {
				return err
			}
			if t.ActualDeliveryDate, err = parseDatePtr(actual); err != nil {
				return err
			}
			out = append(out, t)
			return nil
		}, fmtDate(since))
	if err != nil {
		return nil, fmt.Errorf("%s: load open transactions: %w", s.dialect.Name, err)
	}
	return out, nil
}

func (s *DB) each(ctx context.Context, query string, scan func(*sql.Rows) error, args ...any) error {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func fmtDate(t time.Time) string { return domain.DayOf(t).Format(time.DateOnly) }

func fmtDatePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtDate(*t)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func parseDatePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
