// Package export writes run artifacts, the run summary and CSV extracts of
// synthesized batches, to a blob destination: local filesystem, an
// S3-compatible bucket, or memory for tests.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"fmcgsim/pkg/domain"
)

// Store is the minimal blob surface the exporters need.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
}

// WriteRunSummary serializes the summary as JSON under
// <prefix>/run_summary_<day>.json.
func WriteRunSummary(ctx context.Context, store Store, prefix string, asOf time.Time, summary domain.RunSummary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: encode summary: %w", err)
	}
	key := fmt.Sprintf("%s/run_summary_%s.json", prefix, domain.DayOf(asOf).Format("20060102"))
	if err := store.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("export: put %s: %w", key, err)
	}
	return key, nil
}

var salesCSVHeader = []string{
	"sale_key", "sale_date", "product_key", "employee_key", "retailer_key", "campaign_key",
	"case_quantity", "unit_price", "discount_percent", "discount_amount", "tax_rate", "tax_amount",
	"total_amount", "commission_amount", "currency", "payment_method", "payment_status",
	"delivery_status", "expected_delivery_date", "actual_delivery_date",
}

// WriteTransactionsCSV writes a batch extract in warehouse column order.
func WriteTransactionsCSV(ctx context.Context, store Store, key string, txs []domain.SalesTransaction) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(salesCSVHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, t := range txs {
		campaign := ""
		if t.CampaignKey != nil {
			campaign = strconv.FormatInt(*t.CampaignKey, 10)
		}
		actual := ""
		if t.ActualDeliveryDate != nil {
			actual = t.ActualDeliveryDate.Format(time.DateOnly)
		}
		row := []string{
			strconv.FormatInt(t.Key, 10),
			t.Date.Format(time.DateOnly),
			strconv.FormatInt(t.ProductKey, 10),
			strconv.FormatInt(t.EmployeeKey, 10),
			strconv.FormatInt(t.RetailerKey, 10),
			campaign,
			strconv.Itoa(t.Quantity),
			money(t.UnitPrice),
			money(t.DiscountPercent),
			money(t.DiscountAmount),
			money(t.TaxRate),
			money(t.TaxAmount),
			money(t.TotalAmount),
			money(t.CommissionAmount),
			t.Currency,
			string(t.PaymentMethod),
			string(t.PaymentStatus),
			string(t.DeliveryStatus),
			t.ExpectedDeliveryDate.Format(time.DateOnly),
			actual,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: flush csv: %w", err)
	}
	if err := store.Put(ctx, key, &buf, "text/csv"); err != nil {
		return fmt.Errorf("export: put %s: %w", key, err)
	}
	return nil
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
