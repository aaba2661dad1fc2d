package dimgen

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"fmcgsim/internal/engine"
	"fmcgsim/pkg/domain"
)

func newTestGenerator() *Generator {
	rng := rand.New(rand.NewPCG(7, 11))
	now := func() time.Time { return domain.Date(2024, time.June, 1) }
	return New(rng, engine.NewAllocator(), now)
}

func TestProducts(t *testing.T) {
	g := newTestGenerator()
	products := g.Products(300)
	if len(products) != 300 {
		t.Fatalf("got %d products, want 300", len(products))
	}

	today := domain.Date(2024, time.June, 1)
	counts := map[domain.ProductStatus]int{}
	seen := map[int64]bool{}
	for _, p := range products {
		if seen[p.Key] {
			t.Fatalf("duplicate product key %d", p.Key)
		}
		seen[p.Key] = true
		if want := fmt.Sprintf("P%05d", p.Key); p.ID != want {
			t.Fatalf("product id %q, want %q", p.ID, want)
		}
		if p.WholesalePrice <= 0 || p.RetailPrice < p.WholesalePrice*1.3-0.01 {
			t.Fatalf("margin out of band: wholesale %.2f retail %.2f", p.WholesalePrice, p.RetailPrice)
		}
		if p.CreatedDate.Before(domain.Date(2015, time.January, 1)) || p.CreatedDate.After(today) {
			t.Fatalf("created date %s out of range", p.CreatedDate)
		}
		counts[p.Status]++
		switch p.Status {
		case domain.ProductDelisted:
			if p.DelistedDate == nil {
				t.Fatalf("delisted product %d has open window", p.Key)
			}
			if !p.DelistedDate.After(p.CreatedDate) {
				t.Fatalf("delist date %s not after creation %s", p.DelistedDate, p.CreatedDate)
			}
		default:
			if p.DelistedDate != nil {
				t.Fatalf("%s product %d carries a delist date", p.Status, p.Key)
			}
		}
	}
	// 85/10/5 split with sampling noise.
	if counts[domain.ProductActive] < 220 || counts[domain.ProductDelisted] == 0 || counts[domain.ProductNew] == 0 {
		t.Fatalf("status mix off: %v", counts)
	}
}

func TestEmployees(t *testing.T) {
	g := newTestGenerator()
	emps := g.Employees(200)
	if len(emps) != 200 {
		t.Fatalf("got %d employees, want 200", len(emps))
	}

	today := domain.Date(2024, time.June, 1)
	depts := map[string]int{}
	for _, e := range emps {
		depts[e.Department]++
		if e.HireDate.Before(domain.Date(2015, time.January, 1)) || e.HireDate.After(today) {
			t.Fatalf("hire date %s out of range", e.HireDate)
		}
		if e.Status == domain.EmployeeTerminated {
			if e.TerminationDate == nil {
				t.Fatalf("terminated employee %d has open window", e.Key)
			}
			if e.TerminationDate.Before(e.HireDate) {
				t.Fatalf("terminated before hired: %s < %s", e.TerminationDate, e.HireDate)
			}
		} else if e.TerminationDate != nil {
			t.Fatalf("active employee %d carries a termination date", e.Key)
		}
		if e.FullName == "" || e.Position == "" || e.Region == "" {
			t.Fatalf("incomplete employee: %+v", e)
		}
	}
	// Sales and Operations dominate the headcount.
	if depts["Sales"] < 30 || depts["Operations"] < 30 {
		t.Fatalf("department shares off: %v", depts)
	}
}

func TestHistoricalEmployees(t *testing.T) {
	g := newTestGenerator()
	emps := g.HistoricalEmployees(120, 60)
	if len(emps) != 120 {
		t.Fatalf("got %d employees, want 120", len(emps))
	}
	// The historical tail beyond the active headcount is all terminated with
	// closed windows.
	for _, e := range emps[60:] {
		if e.Status != domain.EmployeeTerminated {
			t.Fatalf("historical employee %d not terminated", e.Key)
		}
		if e.TerminationDate == nil {
			t.Fatalf("historical employee %d missing termination date", e.Key)
		}
	}
}

func TestRetailers(t *testing.T) {
	g := newTestGenerator()
	rts := g.Retailers(400)
	if len(rts) != 400 {
		t.Fatalf("got %d retailers, want 400", len(rts))
	}

	types := map[domain.RetailerType]int{}
	for _, r := range rts {
		types[r.Type]++
		if r.Name == "" || r.City == "" || r.Province == "" || r.Region == "" {
			t.Fatalf("incomplete retailer: %+v", r)
		}
		if r.Country != "PH" {
			t.Fatalf("country %q", r.Country)
		}
		if r.Type == domain.RetailerSariSari && !strings.Contains(r.Name, "Sari-Sari") {
			t.Fatalf("sari-sari store named %q", r.Name)
		}
	}
	if types[domain.RetailerSariSari] < 150 {
		t.Fatalf("sari-sari share too low: %d of 400", types[domain.RetailerSariSari])
	}
	if types[domain.RetailerHypermarket] > types[domain.RetailerConvenience] {
		t.Fatalf("format tail inverted: %v", types)
	}
}

func TestCampaigns(t *testing.T) {
	g := newTestGenerator()
	camps := g.Campaigns(80)
	if len(camps) != 80 {
		t.Fatalf("got %d campaigns, want 80", len(camps))
	}
	for _, c := range camps {
		days := domain.DaysBetween(c.StartDate, c.EndDate)
		if days < 7 || days > 90 {
			t.Fatalf("campaign %d runs %d days", c.Key, days)
		}
		if c.Budget < 500_000 || c.Budget > 30_000_000 {
			t.Fatalf("campaign %d budget %.0f out of band", c.Key, c.Budget)
		}
		if c.Currency != "PHP" {
			t.Fatalf("campaign currency %q", c.Currency)
		}
		if !strings.HasPrefix(c.ID, "MKT") {
			t.Fatalf("campaign id %q", c.ID)
		}
	}
}

func TestPickLocationWeighting(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	corridor := 0
	const draws = 4000
	for i := 0; i < draws; i++ {
		loc := pickLocation(rng)
		switch loc.Region {
		case "NCR", "Region III", "Region IV-A":
			corridor++
		}
	}
	// The metro corridor is weighted at 55 percent of draws.
	ratio := float64(corridor) / draws
	if ratio < 0.45 || ratio > 0.65 {
		t.Fatalf("corridor ratio %.2f out of band", ratio)
	}
}
