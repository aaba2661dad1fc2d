package dimgen

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"fmcgsim/internal/engine"
	"fmcgsim/pkg/domain"
)

// catalogEpoch is the earliest date any dimension entity can come alive.
var catalogEpoch = domain.Date(2015, time.January, 1)

// Generator synthesizes the dimension pools. Keys come from the shared
// allocator so dimension and fact keys never collide across entity types.
type Generator struct {
	rng   *rand.Rand
	fake  *faker
	alloc *engine.Allocator
	now   func() time.Time
}

func New(rng *rand.Rand, alloc *engine.Allocator, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{rng: rng, fake: newFaker(rng), alloc: alloc, now: now}
}

func (g *Generator) today() time.Time { return domain.DayOf(g.now()) }

func (g *Generator) dateBetween(a, b time.Time) time.Time {
	days := domain.DaysBetween(a, b)
	if days <= 0 {
		return domain.DayOf(a)
	}
	return domain.DayOf(a).AddDate(0, 0, g.rng.IntN(days+1))
}

type category struct {
	name          string
	subcategories []string
	priceLow      float64
	priceHigh     float64
}

var categories = []category{
	{"Beverages", []string{"Carbonated Soft Drinks", "Bottled Water", "Fruit Juices", "Energy Drinks", "Ready-to-Drink Tea", "Coffee Mixes", "Milk Products"}, 15, 120},
	{"Food & Snacks", []string{"Chips & Crisps", "Biscuits & Cookies", "Instant Noodles", "Canned Goods", "Confectionery", "Cooking Oil", "Condiments & Spices"}, 20, 250},
	{"Personal Care", []string{"Soap & Bath", "Shampoo & Conditioner", "Toothpaste & Oral Care", "Deodorant", "Skin Care", "Feminine Hygiene"}, 25, 300},
	{"Household Care", []string{"Laundry Detergent", "Dishwashing Soap", "All-Purpose Cleaners", "Disinfectants", "Paper Products", "Insecticides"}, 30, 400},
	{"Baby Care", []string{"Baby Diapers", "Baby Wipes", "Baby Formula", "Baby Food"}, 40, 500},
	{"Health & Wellness", []string{"Vitamins & Supplements", "Medicated Ointments", "First Aid", "Health Drinks"}, 35, 600},
	{"Pet Care", []string{"Pet Food", "Pet Accessories", "Pet Grooming"}, 50, 800},
}

var brands = []string{
	"Nescafé", "Lucky Me", "Bear Brand", "Kopiko", "Great Taste", "Royal",
	"Sarsi", "Pop Cola", "Safeguard", "Dove", "Colgate", "Close Up",
	"Tide", "Downy", "Ariel", "Breeze", "Surf", "Joy", "Baygon",
	"Green Cross", "Biogesic", "Decolgen", "Nestlé", "Coca-Cola", "Pepsi",
}

var productSizes = []string{
	"100ml", "250ml", "500ml", "1L", "1.5L", "100g", "200g", "500g", "1kg",
	"10pcs", "20pcs", "Sachet", "Pouch", "Bottle", "Can", "Pack",
}

var productVariants = []string{"Premium", "Classic", "Extra", "Plus", "Max", "Fresh"}

// Products generates the product catalog. Most products are active; a tail is
// already delisted with a closed validity window, plus a handful of recent
// launches.
func (g *Generator) Products(n int) []domain.Product {
	out := make([]domain.Product, 0, n)
	today := g.today()
	for i := 0; i < n; i++ {
		cat := categories[g.rng.IntN(len(categories))]
		sub := cat.subcategories[g.rng.IntN(len(cat.subcategories))]
		brand := brands[g.rng.IntN(len(brands))]
		size := productSizes[g.rng.IntN(len(productSizes))]

		wholesale := round2(cat.priceLow + g.rng.Float64()*(cat.priceHigh-cat.priceLow))
		retail := round2(wholesale * (1.3 + g.rng.Float64()*0.7))

		name := brand
		if g.rng.Float64() < 0.3 {
			name += " " + productVariants[g.rng.IntN(len(productVariants))]
		}
		name += " " + firstWord(sub) + " " + size

		key := g.alloc.Next(domain.EntityProduct)
		p := domain.Product{
			Key:            key,
			ID:             fmt.Sprintf("P%05d", key),
			Name:           name,
			Category:       cat.name,
			Subcategory:    sub,
			Brand:          brand,
			WholesalePrice: wholesale,
			RetailPrice:    retail,
		}
		switch roll := g.rng.Float64(); {
		case roll < 0.85:
			p.Status = domain.ProductActive
			p.CreatedDate = g.dateBetween(catalogEpoch, today)
		case roll < 0.95:
			p.Status = domain.ProductDelisted
			p.CreatedDate = g.dateBetween(catalogEpoch, today.AddDate(-1, 0, 0))
			delisted := g.dateBetween(p.CreatedDate.AddDate(0, 6, 0), today)
			p.DelistedDate = &delisted
		default:
			p.Status = domain.ProductNew
			p.CreatedDate = g.dateBetween(today.AddDate(0, -3, 0), today)
		}
		out = append(out, p)
	}
	return out
}

var departments = []struct {
	name      string
	share     float64
	positions []string
}{
	{"Sales", 0.24, []string{"Sales Representative", "Senior Sales Rep", "Sales Supervisor", "Area Sales Manager", "Regional Sales Manager", "Sales Director"}},
	{"Operations", 0.28, []string{"Operations Staff", "Warehouse Supervisor", "Operations Supervisor", "Operations Manager", "Operations Director"}},
	{"Marketing", 0.10, []string{"Marketing Assistant", "Brand Specialist", "Brand Manager", "Marketing Manager", "Marketing Director"}},
	{"Supply Chain", 0.12, []string{"Logistics Coordinator", "Supply Chain Analyst", "Warehouse Manager", "Supply Chain Manager"}},
	{"Customer Service", 0.08, []string{"Customer Service Rep", "Senior CSR", "Customer Service Manager"}},
	{"Finance", 0.06, []string{"Accounting Staff", "Financial Analyst", "Senior Accountant", "Finance Manager"}},
	{"Quality Assurance", 0.05, []string{"QA Inspector", "QA Specialist", "QA Manager"}},
	{"Human Resources", 0.04, []string{"HR Assistant", "HR Specialist", "HR Manager"}},
	{"IT", 0.02, []string{"IT Support", "System Administrator", "IT Manager"}},
	{"Administration", 0.01, []string{"Administrative Assistant", "Office Manager"}},
}

// Employees generates n currently active employees spread across departments
// in realistic proportions.
func (g *Generator) Employees(n int) []domain.Employee {
	out := make([]domain.Employee, 0, n)
	today := g.today()
	for _, dept := range departments {
		count := int(math.Round(float64(n) * dept.share))
		for i := 0; i < count && len(out) < n; i++ {
			out = append(out, g.employee(dept.name, dept.positions, today, false))
		}
	}
	for len(out) < n {
		dept := departments[g.rng.IntN(len(departments))]
		out = append(out, g.employee(dept.name, dept.positions, today, false))
	}
	return out
}

// HistoricalEmployees generates the full workforce history: active employees
// plus the terminated ones whose closed windows let backdated transactions
// reference staff who were employed at the time.
func (g *Generator) HistoricalEmployees(total, active int) []domain.Employee {
	out := g.Employees(active)
	today := g.today()
	for len(out) < total {
		dept := departments[g.rng.IntN(len(departments))]
		out = append(out, g.employee(dept.name, dept.positions, today, true))
	}
	return out
}

func (g *Generator) employee(dept string, positions []string, today time.Time, terminated bool) domain.Employee {
	key := g.alloc.Next(domain.EntityEmployee)
	e := domain.Employee{
		Key:        key,
		ID:         fmt.Sprintf("E%05d", key),
		FullName:   g.fake.fullName(),
		Department: dept,
		Position:   positions[g.rng.IntN(len(positions))],
		Status:     domain.EmployeeActive,
		Region:     pickLocation(g.rng).Region,
	}
	if terminated {
		e.Status = domain.EmployeeTerminated
		e.HireDate = g.dateBetween(catalogEpoch, today.AddDate(-1, 0, 0))
		term := g.dateBetween(e.HireDate.AddDate(0, 1, 0), today)
		e.TerminationDate = &term
		return e
	}
	e.HireDate = g.dateBetween(catalogEpoch, today)
	// Annualized turnover of roughly 15 percent still claims a few of the
	// nominally active hires.
	years := float64(domain.DaysBetween(e.HireDate, today)) / 365.25
	if g.rng.Float64() < 1-math.Pow(0.85, years) {
		e.Status = domain.EmployeeTerminated
		term := g.dateBetween(e.HireDate, today)
		e.TerminationDate = &term
	}
	return e
}

var retailerDistribution = []struct {
	typ   domain.RetailerType
	share float64
}{
	{domain.RetailerSariSari, 0.45},
	{domain.RetailerConvenience, 0.20},
	{domain.RetailerSupermarket, 0.15},
	{domain.RetailerDrugstore, 0.08},
	{domain.RetailerWholesale, 0.05},
	{domain.RetailerSpecialty, 0.04},
	{domain.RetailerHypermarket, 0.02},
	{domain.RetailerDepartment, 0.01},
}

var majorChains = []string{
	"SM Supermarket", "Robinsons Supermarket", "Puregold", "Waltermart",
	"7-Eleven", "FamilyMart", "Ministop", "Alfamart",
	"Watsons", "Mercury Drug", "South Star Drug", "Landmark",
}

var sariSariOwners = []string{"Aling Nene", "Kuya Jun", "Nanay Tess", "Tito Boy", "Mang Jose"}

// Retailers generates the customer base with the Philippine retail mix: nearly
// half sari-sari stores, a growing convenience segment, and a thin tail of
// large formats.
func (g *Generator) Retailers(n int) []domain.Retailer {
	out := make([]domain.Retailer, 0, n)
	for _, d := range retailerDistribution {
		count := int(math.Round(float64(n) * d.share))
		for i := 0; i < count && len(out) < n; i++ {
			out = append(out, g.retailer(d.typ))
		}
	}
	for len(out) < n {
		out = append(out, g.retailer(retailerDistribution[g.rng.IntN(len(retailerDistribution))].typ))
	}
	return out
}

func (g *Generator) retailer(typ domain.RetailerType) domain.Retailer {
	loc := pickLocation(g.rng)
	var name string
	switch typ {
	case domain.RetailerSariSari:
		name = sariSariOwners[g.rng.IntN(len(sariSariOwners))] + "'s Sari-Sari Store"
	case domain.RetailerSupermarket, domain.RetailerHypermarket, domain.RetailerConvenience, domain.RetailerDrugstore:
		if g.rng.Float64() < 0.3 {
			name = majorChains[g.rng.IntN(len(majorChains))] + " " + loc.City
		} else {
			name = g.fake.companyWord() + " " + string(typ)
		}
	default:
		name = g.fake.companyWord() + " " + string(typ)
	}
	key := g.alloc.Next(domain.EntityRetailer)
	return domain.Retailer{
		Key:      key,
		ID:       fmt.Sprintf("R%04d", key),
		Name:     name,
		Type:     typ,
		City:     loc.City,
		Province: loc.Province,
		Region:   loc.Region,
		Country:  "PH",
	}
}

var campaignTypes = []struct {
	name      string
	budgetLow float64
	budgetHi  float64
}{
	{"TV Commercial", 5_000_000, 30_000_000},
	{"Billboard", 5_000_000, 30_000_000},
	{"Social Media", 1_000_000, 8_000_000},
	{"Influencer", 1_000_000, 8_000_000},
	{"Print Ads", 2_000_000, 15_000_000},
	{"Radio", 2_000_000, 15_000_000},
	{"Email", 500_000, 5_000_000},
	{"Events", 500_000, 5_000_000},
}

// Campaigns generates marketing campaigns with 7 to 90 day run windows.
func (g *Generator) Campaigns(n int) []domain.Campaign {
	out := make([]domain.Campaign, 0, n)
	today := g.today()
	for i := 0; i < n; i++ {
		ct := campaignTypes[g.rng.IntN(len(campaignTypes))]
		start := g.dateBetween(catalogEpoch, today)
		end := start.AddDate(0, 0, 7+g.rng.IntN(84))
		key := g.alloc.Next(domain.EntityCampaign)
		out = append(out, domain.Campaign{
			Key:       key,
			ID:        fmt.Sprintf("MKT%04d", key),
			Name:      g.fake.catchPhrase(),
			Type:      ct.name,
			StartDate: start,
			EndDate:   end,
			Budget:    math.Round(ct.budgetLow + g.rng.Float64()*(ct.budgetHi-ct.budgetLow)),
			Currency:  "PHP",
		})
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' {
			return s[:i]
		}
	}
	return s
}
