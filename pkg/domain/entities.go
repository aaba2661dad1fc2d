// Package domain defines the dimension entities, the sales fact record, and
// the value types shared by the synthesis engine and the warehouse sinks.
package domain

import (
	"fmt"
	"math"
	"time"
)

// EntityType identifies the type of record allocated and persisted by the
// simulator. Allocator counters and persistence tables are keyed by it.
type EntityType string

// Supported entity type identifiers.
const (
	// EntityEmployee identifies a sales employee dimension record.
	EntityEmployee EntityType = "employee"
	// EntityProduct identifies a product dimension record.
	EntityProduct EntityType = "product"
	// EntityRetailer identifies a retailer dimension record.
	EntityRetailer EntityType = "retailer"
	// EntityCampaign identifies a marketing campaign dimension record.
	EntityCampaign EntityType = "campaign"
	// EntitySale identifies a sales fact record.
	EntitySale EntityType = "sale"
	// EntityDeliveryUpdate identifies an appended delivery reconciliation record.
	EntityDeliveryUpdate EntityType = "delivery_update"
)

// EmployeeStatus enumerates employment states carried on the employee dimension.
type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "Active"
	EmployeeTerminated EmployeeStatus = "Terminated"
)

// ProductStatus enumerates product lifecycle states.
type ProductStatus string

const (
	ProductActive   ProductStatus = "Active"
	ProductNew      ProductStatus = "New"
	ProductDelisted ProductStatus = "Delisted"
)

// RetailerType classifies retail formats. The format drives order-size ranges,
// discount-tier eligibility, and campaign attach probability.
type RetailerType string

const (
	RetailerSariSari    RetailerType = "Sari-Sari Store"
	RetailerConvenience RetailerType = "Convenience Store"
	RetailerSupermarket RetailerType = "Supermarket"
	RetailerDrugstore   RetailerType = "Drugstore"
	RetailerWholesale   RetailerType = "Wholesale Club"
	RetailerSpecialty   RetailerType = "Specialty Store"
	RetailerHypermarket RetailerType = "Hypermarket"
	RetailerDepartment  RetailerType = "Department Store"
)

// DeliveryStatus enumerates the delivery lifecycle of a sales transaction.
// Happy path: Pending -> Processing -> InTransit -> Delivered. Delayed marks a
// shipment that has blown past its expected date but not yet arrived; when it
// finally arrives the status becomes Delivered with a late actual date.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "Pending"
	DeliveryProcessing DeliveryStatus = "Processing"
	DeliveryInTransit  DeliveryStatus = "In Transit"
	DeliveryDelivered  DeliveryStatus = "Delivered"
	DeliveryDelayed    DeliveryStatus = "Delayed"
)

// PaymentMethod enumerates settlement instruments offered to retailers.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "Cash"
	PaymentCOD          PaymentMethod = "COD"
	PaymentBankTransfer PaymentMethod = "Bank Transfer"
	PaymentCreditCard   PaymentMethod = "Credit Card"
	PaymentNetTerms     PaymentMethod = "Net Terms"
)

// PaymentStatus enumerates collection states.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
	PaymentOverdue PaymentStatus = "Overdue"
)

// Window is the inclusive date range during which a dimension entity may be
// referenced by a transaction. A nil To means the entity is open-ended.
type Window struct {
	From time.Time
	To   *time.Time
}

// Contains reports whether d falls inside the validity window.
func (w Window) Contains(d time.Time) bool {
	if d.Before(w.From) {
		return false
	}
	if w.To != nil && d.After(*w.To) {
		return false
	}
	return true
}

// Windowed is implemented by dimension entities carrying a validity window.
type Windowed interface {
	Window() Window
}

// Keyed is implemented by every record carrying a surrogate key, which is the
// identity the load guard deduplicates on.
type Keyed interface {
	SurrogateKey() int64
}

// Employee is a sales-force dimension record. Valid from hire to termination.
type Employee struct {
	Key             int64          `json:"employee_key"`
	ID              string         `json:"employee_id"`
	FullName        string         `json:"full_name"`
	Department      string         `json:"department"`
	Position        string         `json:"position"`
	Status          EmployeeStatus `json:"employment_status"`
	HireDate        time.Time      `json:"hire_date"`
	TerminationDate *time.Time     `json:"termination_date"`
	Region          string         `json:"region"`
}

func (e Employee) SurrogateKey() int64 { return e.Key }

// Window returns the employment validity window.
func (e Employee) Window() Window { return Window{From: e.HireDate, To: e.TerminationDate} }

// Product is a catalog dimension record. Valid from its created date; a
// delisted product closes its window on the delist date.
type Product struct {
	Key            int64         `json:"product_key"`
	ID             string        `json:"product_id"`
	Name           string        `json:"product_name"`
	Category       string        `json:"category"`
	Subcategory    string        `json:"subcategory"`
	Brand          string        `json:"brand"`
	WholesalePrice float64       `json:"wholesale_price"`
	RetailPrice    float64       `json:"retail_price"`
	Status         ProductStatus `json:"status"`
	CreatedDate    time.Time     `json:"created_date"`
	DelistedDate   *time.Time    `json:"delisted_date"`
}

func (p Product) SurrogateKey() int64 { return p.Key }

// Window returns the catalog validity window.
func (p Product) Window() Window { return Window{From: p.CreatedDate, To: p.DelistedDate} }

// Retailer is a customer dimension record. Retailers carry no validity window
// and are always available; type and region drive order behavior and lead times.
type Retailer struct {
	Key      int64        `json:"retailer_key"`
	ID       string       `json:"retailer_id"`
	Name     string       `json:"retailer_name"`
	Type     RetailerType `json:"retailer_type"`
	City     string       `json:"city"`
	Province string       `json:"province"`
	Region   string       `json:"region"`
	Country  string       `json:"country"`
}

func (r Retailer) SurrogateKey() int64 { return r.Key }

// Campaign is a marketing dimension record, usable only within its run dates.
type Campaign struct {
	Key       int64     `json:"campaign_key"`
	ID        string    `json:"campaign_id"`
	Name      string    `json:"campaign_name"`
	Type      string    `json:"campaign_type"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Budget    float64   `json:"budget"`
	Currency  string    `json:"currency"`
}

func (c Campaign) SurrogateKey() int64 { return c.Key }

// Window returns the campaign run window.
func (c Campaign) Window() Window { end := c.EndDate; return Window{From: c.StartDate, To: &end} }

// SalesTransaction is the fact record emitted by the synthesizer. It is
// immutable after creation within a run; delivery progression of persisted
// rows happens through appended DeliveryUpdate records, never in place.
type SalesTransaction struct {
	Key                  int64          `json:"sale_key"`
	Date                 time.Time      `json:"sale_date"`
	ProductKey           int64          `json:"product_key"`
	EmployeeKey          int64          `json:"employee_key"`
	RetailerKey          int64          `json:"retailer_key"`
	CampaignKey          *int64         `json:"campaign_key"`
	Quantity             int            `json:"case_quantity"`
	UnitPrice            float64        `json:"unit_price"`
	DiscountPercent      float64        `json:"discount_percent"`
	DiscountAmount       float64        `json:"discount_amount"`
	TaxRate              float64        `json:"tax_rate"`
	TaxAmount            float64        `json:"tax_amount"`
	TotalAmount          float64        `json:"total_amount"`
	CommissionAmount     float64        `json:"commission_amount"`
	Currency             string         `json:"currency"`
	PaymentMethod        PaymentMethod  `json:"payment_method"`
	PaymentStatus        PaymentStatus  `json:"payment_status"`
	DeliveryStatus       DeliveryStatus `json:"delivery_status"`
	ExpectedDeliveryDate time.Time      `json:"expected_delivery_date"`
	ActualDeliveryDate   *time.Time     `json:"actual_delivery_date"`
}

func (t SalesTransaction) SurrogateKey() int64 { return t.Key }

// moneyTolerance absorbs float rounding when cross-checking stored amounts.
const moneyTolerance = 0.011

// Validate checks the arithmetic and lifecycle invariants of the record.
func (t SalesTransaction) Validate() error {
	if t.Key == 0 {
		return fmt.Errorf("sale %d: missing surrogate key", t.Key)
	}
	if t.Quantity < 1 {
		return fmt.Errorf("sale %d: quantity %d < 1", t.Key, t.Quantity)
	}
	if t.TotalAmount < 0 {
		return fmt.Errorf("sale %d: negative total %.2f", t.Key, t.TotalAmount)
	}
	subtotal := float64(t.Quantity) * t.UnitPrice
	expected := (subtotal - t.DiscountAmount) * (1 + t.TaxRate/100)
	if math.Abs(expected-t.TotalAmount) > moneyTolerance {
		return fmt.Errorf("sale %d: total %.2f does not reconcile to %.2f", t.Key, t.TotalAmount, expected)
	}
	if t.DeliveryStatus == DeliveryDelivered && t.ActualDeliveryDate == nil {
		return fmt.Errorf("sale %d: delivered without actual delivery date", t.Key)
	}
	if t.DeliveryStatus != DeliveryDelivered && t.ActualDeliveryDate != nil {
		return fmt.Errorf("sale %d: actual delivery date set while %s", t.Key, t.DeliveryStatus)
	}
	return nil
}

// DeliveryUpdate is an append-only reconciliation record advancing the
// delivery status of a persisted sale. Appending instead of mutating keeps
// sale keys unique and leaves a full audit trail.
type DeliveryUpdate struct {
	Key               int64          `json:"update_key"`
	SaleKey           int64          `json:"sale_key"`
	PreviousStatus    DeliveryStatus `json:"previous_status"`
	NewStatus         DeliveryStatus `json:"new_status"`
	NewActualDelivery *time.Time     `json:"new_actual_delivery_date"`
	UpdateDate        time.Time      `json:"update_date"`
	DaysSinceSale     int            `json:"days_since_sale"`
	Reason            string         `json:"update_reason"`
}

func (u DeliveryUpdate) SurrogateKey() int64 { return u.Key }

// Pools holds the fully materialized dimension collections the synthesis core
// draws from. Pools are read-only once loaded.
type Pools struct {
	Employees []Employee
	Products  []Product
	Retailers []Retailer
	Campaigns []Campaign
}

// RunSummary is the per-run report returned by the engine.
type RunSummary struct {
	RecordsGenerated    int     `json:"records_generated"`
	RecordsPersisted    int     `json:"records_persisted"`
	TotalAmountRealized float64 `json:"total_amount_realized"`
	AchievementRatio    float64 `json:"achievement_ratio"`
	DaysSkipped         int     `json:"days_skipped"`
}

// Date truncates t to midnight UTC. All simulator dates are day-granular.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayOf normalizes an arbitrary timestamp to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days elapsed from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DayOf(b).Sub(DayOf(a)) / (24 * time.Hour))
}
