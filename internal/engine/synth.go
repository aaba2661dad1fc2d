package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"fmcgsim/pkg/domain"
)

// vatRatePercent is the standard VAT rate applied to the post-discount
// subtotal of every sale.
const vatRatePercent = 12.0

// Synthesizer emits individual sales transactions against a day's monetary
// sub-target, drawing referentially valid entities from the sampler's pools.
type Synthesizer struct {
	rng      *rand.Rand
	sampler  *Sampler
	alloc    *Allocator
	currency string
	now      func() time.Time
}

// NewSynthesizer wires a synthesizer to its sampler and allocator. now is
// injectable so tests can pin "today" for the delivery lifecycle.
func NewSynthesizer(rng *rand.Rand, sampler *Sampler, alloc *Allocator, now func() time.Time) *Synthesizer {
	if now == nil {
		now = time.Now
	}
	return &Synthesizer{rng: rng, sampler: sampler, alloc: alloc, currency: "PHP", now: now}
}

// Synthesize emits transactions for the date until their summed total reaches
// the daily target. At least one transaction is always emitted, so tiny
// targets overshoot by design. Returns the records and the realized amount.
func (s *Synthesizer) Synthesize(date time.Time, dailyTarget float64, dp DayPools) ([]domain.SalesTransaction, float64, error) {
	date = domain.DayOf(date)
	var out []domain.SalesTransaction
	realized := 0.0
	for realized < dailyTarget || len(out) == 0 {
		tx, err := s.one(date, dp)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, tx)
		realized += tx.TotalAmount
	}
	return out, realized, nil
}

func (s *Synthesizer) one(date time.Time, dp DayPools) (domain.SalesTransaction, error) {
	employee := s.sampler.PickEmployee(dp)
	product := s.sampler.PickProduct(dp)
	retailer := s.sampler.PickRetailer(dp)

	var campaignKey *int64
	if c := s.sampler.PickCampaign(dp, retailer.Type); c != nil {
		campaignKey = &c.Key
	}

	quantity := s.sampler.Quantity(retailer.Type)
	unitPrice := product.WholesalePrice
	discountPct := s.sampler.DiscountPercent(retailer.Type, quantity)

	subtotal := unitPrice * float64(quantity)
	discountAmount := round2(subtotal * discountPct / 100)
	taxAmount := round2((subtotal - discountAmount) * vatRatePercent / 100)
	totalAmount := round2(subtotal - discountAmount + taxAmount)
	commissionAmount := round2(totalAmount * s.sampler.CommissionRate(product.Category))

	lead := s.sampler.LeadTimeDays(retailer.Region, retailer.Type)
	expected := date.AddDate(0, 0, lead)
	status, actual := s.deliveryAt(date, expected, retailer.Region)

	tx := domain.SalesTransaction{
		Key:                  s.alloc.Next(domain.EntitySale),
		Date:                 date,
		ProductKey:           product.Key,
		EmployeeKey:          employee.Key,
		RetailerKey:          retailer.Key,
		CampaignKey:          campaignKey,
		Quantity:             quantity,
		UnitPrice:            unitPrice,
		DiscountPercent:      discountPct,
		DiscountAmount:       discountAmount,
		TaxRate:              vatRatePercent,
		TaxAmount:            taxAmount,
		TotalAmount:          totalAmount,
		CommissionAmount:     commissionAmount,
		Currency:             s.currency,
		PaymentMethod:        s.sampler.PaymentMethod(retailer.Type),
		DeliveryStatus:       status,
		ExpectedDeliveryDate: expected,
		ActualDeliveryDate:   actual,
	}
	tx.PaymentStatus = s.sampler.PaymentStatus(tx.PaymentMethod)
	if err := tx.Validate(); err != nil {
		return domain.SalesTransaction{}, fmt.Errorf("synthesize %s: %w", date.Format(time.DateOnly), err)
	}
	return tx, nil
}

// deliveryAt advances a freshly synthesized transaction to the lifecycle state
// plausible for its age. Today's orders start at Pending; historical orders
// progress through the time-gated states, with a region-dependent chance of
// running late. The actual delivery date is set only on Delivered: a delayed
// shipment that finally arrives is recorded as Delivered with a late date.
func (s *Synthesizer) deliveryAt(saleDate, expected time.Time, region string) (domain.DeliveryStatus, *time.Time) {
	today := domain.DayOf(s.now())
	elapsed := domain.DaysBetween(saleDate, today)
	if elapsed <= 0 {
		return domain.DeliveryPending, nil
	}

	arrival := expected
	delayed := s.rng.Float64() < DelayProbability(region)
	if delayed {
		arrival = expected.AddDate(0, 0, 1+s.rng.IntN(5))
	}
	if !arrival.After(today) {
		return domain.DeliveryDelivered, &arrival
	}
	switch {
	case elapsed < 2:
		return domain.DeliveryProcessing, nil
	case elapsed < 4:
		return domain.DeliveryInTransit, nil
	default:
		if delayed {
			return domain.DeliveryDelayed, nil
		}
		return domain.DeliveryInTransit, nil
	}
}

// round2 rounds a monetary value to 2 decimal places at the point of
// computation so stored sums stay stable under re-aggregation.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
