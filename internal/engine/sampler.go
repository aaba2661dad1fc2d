package engine

import (
	"math/rand/v2"
	"strings"
	"time"

	"fmcgsim/pkg/domain"
)

// FallbackPolicy decides what happens when window filtering leaves a required
// pool empty on a given date. The policy is fixed for a whole run; mixing
// policies per call would silently produce referentially-inconsistent rows.
type FallbackPolicy string

const (
	// FallbackWiden degrades to the unfiltered pool. Appropriate for the
	// first days of a historical backfill, before anyone was hired.
	FallbackWiden FallbackPolicy = "widen"
	// FallbackSkipDay drops the date entirely.
	FallbackSkipDay FallbackPolicy = "skip"
)

// Alive returns the subset of pool whose validity window contains asOf.
func Alive[T domain.Windowed](pool []T, asOf time.Time) []T {
	out := make([]T, 0, len(pool))
	for _, e := range pool {
		if e.Window().Contains(asOf) {
			out = append(out, e)
		}
	}
	return out
}

// DayPools are the alive subsets the synthesizer draws from for one date.
// Retailers carry no window and pass through unfiltered.
type DayPools struct {
	Date      time.Time
	Employees []domain.Employee
	Products  []domain.Product
	Retailers []domain.Retailer
	Campaigns []domain.Campaign
}

// Sampler filters dimension pools by validity window and draws weighted picks.
type Sampler struct {
	rng      *rand.Rand
	fallback FallbackPolicy
}

// NewSampler constructs a sampler with the given fallback policy.
func NewSampler(rng *rand.Rand, fallback FallbackPolicy) *Sampler {
	if fallback == "" {
		fallback = FallbackWiden
	}
	return &Sampler{rng: rng, fallback: fallback}
}

// PoolsFor returns the alive pools for the date. ok=false means the date must
// be skipped: a required pool came up empty and the policy is FallbackSkipDay,
// or a required pool is empty even unfiltered. An empty campaign pool is never
// fatal; campaign attachment is optional.
func (s *Sampler) PoolsFor(pools domain.Pools, date time.Time) (DayPools, bool) {
	if len(pools.Employees) == 0 || len(pools.Products) == 0 || len(pools.Retailers) == 0 {
		return DayPools{}, false
	}
	dp := DayPools{
		Date:      domain.DayOf(date),
		Employees: Alive(pools.Employees, date),
		Products:  Alive(pools.Products, date),
		Retailers: pools.Retailers,
		Campaigns: Alive(pools.Campaigns, date),
	}
	if len(dp.Employees) == 0 {
		if s.fallback == FallbackSkipDay {
			return DayPools{}, false
		}
		dp.Employees = pools.Employees
	}
	if len(dp.Products) == 0 {
		if s.fallback == FallbackSkipDay {
			return DayPools{}, false
		}
		dp.Products = pools.Products
	}
	return dp, true
}

// PickEmployee draws a uniform pick from the alive employees.
func (s *Sampler) PickEmployee(dp DayPools) domain.Employee {
	return dp.Employees[s.rng.IntN(len(dp.Employees))]
}

// PickProduct draws a uniform pick from the alive products.
func (s *Sampler) PickProduct(dp DayPools) domain.Product {
	return dp.Products[s.rng.IntN(len(dp.Products))]
}

// PickRetailer draws a uniform pick from the retailers.
func (s *Sampler) PickRetailer(dp DayPools) domain.Retailer {
	return dp.Retailers[s.rng.IntN(len(dp.Retailers))]
}

// PickCampaign probabilistically attaches one of the campaigns running on the
// date. Larger formats advertise more, so their attach probability is higher.
func (s *Sampler) PickCampaign(dp DayPools, rt domain.RetailerType) *domain.Campaign {
	if len(dp.Campaigns) == 0 {
		return nil
	}
	if s.rng.Float64() >= campaignAttachProbability(rt) {
		return nil
	}
	c := dp.Campaigns[s.rng.IntN(len(dp.Campaigns))]
	return &c
}

func campaignAttachProbability(rt domain.RetailerType) float64 {
	switch rt {
	case domain.RetailerSupermarket, domain.RetailerHypermarket, domain.RetailerDepartment:
		return 0.4
	case domain.RetailerConvenience, domain.RetailerDrugstore:
		return 0.2
	default:
		return 0.1
	}
}

// Quantity draws a case quantity from the retailer-type-dependent range:
// small formats reorder little and often, large formats buy in bulk.
func (s *Sampler) Quantity(rt domain.RetailerType) int {
	lo, hi := quantityRange(rt)
	return lo + s.rng.IntN(hi-lo+1)
}

func quantityRange(rt domain.RetailerType) (int, int) {
	switch rt {
	case domain.RetailerSariSari:
		return 1, 10
	case domain.RetailerConvenience, domain.RetailerDrugstore:
		return 5, 25
	case domain.RetailerSupermarket, domain.RetailerSpecialty:
		return 10, 50
	default:
		return 20, 100
	}
}

// DiscountPercent returns the volume discount for the order, from the tiered
// table keyed by retailer format and case quantity. Larger formats with larger
// orders unlock the deeper bands.
func (s *Sampler) DiscountPercent(rt domain.RetailerType, quantity int) float64 {
	choose := func(bands ...float64) float64 { return bands[s.rng.IntN(len(bands))] }
	switch rt {
	case domain.RetailerHypermarket, domain.RetailerWholesale:
		switch {
		case quantity > 50:
			return choose(10, 15, 20, 25)
		case quantity > 25:
			return choose(5, 10, 15)
		}
	case domain.RetailerSupermarket, domain.RetailerDepartment:
		switch {
		case quantity > 30:
			return choose(5, 10, 15)
		case quantity > 15:
			return choose(2, 5, 10)
		}
	default:
		switch {
		case quantity > 20:
			return choose(2, 5)
		case quantity > 10:
			return choose(1, 2)
		}
	}
	return 0
}

// CommissionRate draws the sales commission rate from the product-category
// band: personal care and wellness carry the richest margins.
func (s *Sampler) CommissionRate(category string) float64 {
	uniform := func(lo, hi float64) float64 { return lo + s.rng.Float64()*(hi-lo) }
	switch category {
	case "Personal Care", "Health & Wellness":
		return uniform(0.03, 0.10)
	case "Beverages", "Food & Snacks":
		return uniform(0.02, 0.06)
	default:
		return uniform(0.025, 0.08)
	}
}

// LeadTimeDays draws the expected delivery lead time, keyed by the retailer's
// region and format. Metro Manila is fastest; small formats get frequent,
// short-haul drops while large formats run on scheduled long-haul windows.
func (s *Sampler) LeadTimeDays(region string, rt domain.RetailerType) int {
	draw := func(lo, hi int) int { return lo + s.rng.IntN(hi-lo+1) }
	zone := deliveryZone(region)
	switch rt {
	case domain.RetailerSariSari:
		switch zone {
		case zoneMetro:
			return draw(1, 2)
		case zoneNearLuzon:
			return draw(2, 4)
		default:
			return draw(3, 7)
		}
	case domain.RetailerConvenience, domain.RetailerDrugstore:
		switch zone {
		case zoneMetro:
			return draw(1, 3)
		case zoneNearLuzon:
			return draw(3, 5)
		default:
			return draw(5, 10)
		}
	default:
		switch zone {
		case zoneMetro:
			return draw(2, 4)
		case zoneNearLuzon:
			return draw(4, 7)
		default:
			return draw(7, 14)
		}
	}
}

// DelayProbability returns the chance a shipment misses its expected date.
// Deliveries outside Metro Manila are delayed about twice as often.
func DelayProbability(region string) float64 {
	if deliveryZone(region) == zoneMetro {
		return 0.2
	}
	return 0.4
}

type zone int

const (
	zoneMetro zone = iota
	zoneNearLuzon
	zoneFar
)

func deliveryZone(region string) zone {
	switch {
	case strings.Contains(region, "NCR"):
		return zoneMetro
	case strings.Contains(region, "Region III"), strings.Contains(region, "Region IV-A"):
		return zoneNearLuzon
	default:
		return zoneFar
	}
}

// PaymentMethod draws the settlement instrument typical for the format.
func (s *Sampler) PaymentMethod(rt domain.RetailerType) domain.PaymentMethod {
	choose := func(ms ...domain.PaymentMethod) domain.PaymentMethod { return ms[s.rng.IntN(len(ms))] }
	switch rt {
	case domain.RetailerSariSari:
		return choose(domain.PaymentCash, domain.PaymentCOD, domain.PaymentBankTransfer)
	case domain.RetailerConvenience, domain.RetailerDrugstore:
		return choose(domain.PaymentBankTransfer, domain.PaymentCreditCard, domain.PaymentCOD)
	default:
		return choose(domain.PaymentCreditCard, domain.PaymentBankTransfer, domain.PaymentNetTerms)
	}
}

// PaymentStatus draws the collection state conditioned on the instrument:
// cash settles immediately, net terms carry aging risk.
func (s *Sampler) PaymentStatus(m domain.PaymentMethod) domain.PaymentStatus {
	switch m {
	case domain.PaymentCash, domain.PaymentCOD:
		return domain.PaymentPaid
	case domain.PaymentNetTerms:
		r := s.rng.Float64()
		switch {
		case r < 0.7:
			return domain.PaymentPaid
		case r < 0.9:
			return domain.PaymentPending
		default:
			return domain.PaymentOverdue
		}
	default:
		if s.rng.Float64() < 0.9 {
			return domain.PaymentPaid
		}
		return domain.PaymentPending
	}
}
