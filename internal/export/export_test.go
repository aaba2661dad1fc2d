package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fmcgsim/pkg/domain"
)

func TestWriteRunSummary(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	summary := domain.RunSummary{
		RecordsGenerated:    120,
		RecordsPersisted:    118,
		TotalAmountRealized: 2_050_000.55,
		AchievementRatio:    1.02,
		DaysSkipped:         1,
	}

	key, err := WriteRunSummary(ctx, store, "daily", domain.Date(2024, time.June, 3), summary)
	if err != nil {
		t.Fatalf("WriteRunSummary: %v", err)
	}
	if key != "daily/run_summary_20240603.json" {
		t.Fatalf("key %q", key)
	}

	data, ok := store.Object(key)
	if !ok {
		t.Fatalf("object not stored")
	}
	var got domain.RunSummary
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if got != summary {
		t.Fatalf("round trip changed summary: %+v", got)
	}
}

func TestWriteTransactionsCSV(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	campaign := int64(3)
	day := domain.Date(2024, time.June, 3)
	actual := domain.Date(2024, time.June, 1)
	txs := []domain.SalesTransaction{
		{
			Key: 10, Date: day, ProductKey: 1, EmployeeKey: 2, RetailerKey: 4, CampaignKey: &campaign,
			Quantity: 6, UnitPrice: 85.5, DiscountPercent: 2, DiscountAmount: 10.26,
			TaxRate: 12, TaxAmount: 60.33, TotalAmount: 563.07, CommissionAmount: 28.15,
			Currency: "PHP", PaymentMethod: domain.PaymentCash, PaymentStatus: domain.PaymentPaid,
			DeliveryStatus: domain.DeliveryPending, ExpectedDeliveryDate: day.AddDate(0, 0, 2),
		},
		{
			Key: 11, Date: day.AddDate(0, 0, -5), ProductKey: 1, EmployeeKey: 2, RetailerKey: 4,
			Quantity: 2, UnitPrice: 40, DiscountPercent: 0, DiscountAmount: 0,
			TaxRate: 12, TaxAmount: 9.6, TotalAmount: 89.6, CommissionAmount: 2.24,
			Currency: "PHP", PaymentMethod: domain.PaymentCOD, PaymentStatus: domain.PaymentPaid,
			DeliveryStatus: domain.DeliveryDelivered, ExpectedDeliveryDate: day.AddDate(0, 0, -3),
			ActualDeliveryDate: &actual,
		},
	}

	if err := WriteTransactionsCSV(ctx, store, "daily/fact_sales_20240603.csv", txs); err != nil {
		t.Fatalf("WriteTransactionsCSV: %v", err)
	}
	data, ok := store.Object("daily/fact_sales_20240603.csv")
	if !ok {
		t.Fatalf("object not stored")
	}

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2", len(rows))
	}
	if rows[0][0] != "sale_key" || rows[0][len(rows[0])-1] != "actual_delivery_date" {
		t.Fatalf("header: %v", rows[0])
	}
	first := rows[1]
	if first[0] != "10" || first[1] != "2024-06-03" || first[5] != "3" {
		t.Fatalf("row fields: %v", first)
	}
	if first[7] != "85.50" || first[12] != "563.07" {
		t.Fatalf("money formatting: %v", first)
	}
	if first[19] != "" {
		t.Fatalf("pending row must have empty actual date, got %q", first[19])
	}
	second := rows[2]
	if second[5] != "" {
		t.Fatalf("campaign column must be empty without attachment, got %q", second[5])
	}
	if second[19] != "2024-06-01" {
		t.Fatalf("actual date: %q", second[19])
	}
}

func TestFSStorePut(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	if err := store.Put(ctx, "daily/summary.json", strings.NewReader(`{"ok":true}`), "application/json"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "daily", "summary.json"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Fatalf("content %q", data)
	}

	// No temp files may survive the rename.
	entries, err := os.ReadDir(filepath.Join(root, "daily"))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".export-") {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	for _, key := range []string{"../outside.json", "/etc/passwd", ""} {
		if err := store.Put(context.Background(), key, strings.NewReader("x"), "text/plain"); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestFSStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if err := store.Put(ctx, "a.txt", strings.NewReader("one"), "text/plain"); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := store.Put(ctx, "a.txt", strings.NewReader("two"), "text/plain"); err != nil {
		t.Fatalf("second put: %v", err)
	}
}
