package domain

import (
	"testing"
	"time"
)

func TestWindowContains(t *testing.T) {
	from := Date(2020, time.March, 1)
	to := Date(2020, time.March, 31)
	w := Window{From: from, To: &to}

	if !w.Contains(from) || !w.Contains(to) {
		t.Fatalf("window must be inclusive of both bounds")
	}
	if w.Contains(from.AddDate(0, 0, -1)) {
		t.Fatalf("date before window must not be contained")
	}
	if w.Contains(to.AddDate(0, 0, 1)) {
		t.Fatalf("date after window must not be contained")
	}

	open := Window{From: from}
	if !open.Contains(Date(2030, time.January, 1)) {
		t.Fatalf("open-ended window must contain any later date")
	}
}

func validTransaction() SalesTransaction {
	actual := Date(2024, time.June, 10)
	return SalesTransaction{
		Key:                  42,
		Date:                 Date(2024, time.June, 3),
		ProductKey:           1,
		EmployeeKey:          1,
		RetailerKey:          1,
		Quantity:             10,
		UnitPrice:            50,
		DiscountPercent:      5,
		DiscountAmount:       25,
		TaxRate:              12,
		TaxAmount:            57,
		TotalAmount:          532,
		CommissionAmount:     15.96,
		Currency:             "PHP",
		PaymentMethod:        PaymentCash,
		PaymentStatus:        PaymentPaid,
		DeliveryStatus:       DeliveryDelivered,
		ExpectedDeliveryDate: Date(2024, time.June, 8),
		ActualDeliveryDate:   &actual,
	}
}

func TestSalesTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	broken := validTransaction()
	broken.TotalAmount = 999
	if err := broken.Validate(); err == nil {
		t.Fatalf("expected arithmetic mismatch to fail validation")
	}

	noActual := validTransaction()
	noActual.ActualDeliveryDate = nil
	if err := noActual.Validate(); err == nil {
		t.Fatalf("delivered without actual date must fail")
	}

	early := validTransaction()
	early.DeliveryStatus = DeliveryPending
	if err := early.Validate(); err == nil {
		t.Fatalf("actual date on a pending delivery must fail")
	}

	zeroQty := validTransaction()
	zeroQty.Quantity = 0
	if err := zeroQty.Validate(); err == nil {
		t.Fatalf("zero quantity must fail")
	}
}

func TestDaysBetween(t *testing.T) {
	a := Date(2024, time.January, 1)
	if got := DaysBetween(a, a); got != 0 {
		t.Fatalf("same day: got %d", got)
	}
	if got := DaysBetween(a, a.AddDate(0, 0, 7)); got != 7 {
		t.Fatalf("one week: got %d", got)
	}
	if got := DaysBetween(a.AddDate(0, 0, 3), a); got != -3 {
		t.Fatalf("reverse order: got %d", got)
	}
	// Timestamps inside the same day collapse to day granularity.
	noon := time.Date(2024, time.January, 1, 12, 30, 0, 0, time.UTC)
	if got := DaysBetween(a, noon); got != 0 {
		t.Fatalf("intra-day timestamps: got %d", got)
	}
}
