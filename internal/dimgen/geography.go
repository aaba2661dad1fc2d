package dimgen

import "math/rand/v2"

// location is a region, province and city triple from the Philippine
// administrative hierarchy. The list leans on the regions sales actually
// concentrates in, with NCR and the adjacent Luzon regions first.
type location struct {
	Region   string
	Province string
	City     string
}

var phLocations = []location{
	{"NCR", "Metro Manila", "Quezon City"},
	{"NCR", "Metro Manila", "Manila"},
	{"NCR", "Metro Manila", "Makati"},
	{"NCR", "Metro Manila", "Pasig"},
	{"NCR", "Metro Manila", "Taguig"},
	{"NCR", "Metro Manila", "Caloocan"},
	{"Region III", "Pampanga", "San Fernando"},
	{"Region III", "Bulacan", "Malolos"},
	{"Region III", "Nueva Ecija", "Cabanatuan"},
	{"Region IV-A", "Cavite", "Dasmarinas"},
	{"Region IV-A", "Laguna", "Calamba"},
	{"Region IV-A", "Batangas", "Batangas City"},
	{"Region IV-A", "Rizal", "Antipolo"},
	{"Region VI", "Iloilo", "Iloilo City"},
	{"Region VII", "Cebu", "Cebu City"},
	{"Region VII", "Cebu", "Mandaue"},
	{"Region X", "Misamis Oriental", "Cagayan de Oro"},
	{"Region XI", "Davao del Sur", "Davao City"},
	{"CAR", "Benguet", "Baguio"},
	{"Region V", "Albay", "Legazpi"},
}

// pickLocation returns a weighted location: roughly half of all draws land in
// NCR or the neighboring Region III / IV-A corridor, mirroring where FMCG
// volume concentrates.
func pickLocation(rng *rand.Rand) location {
	if rng.Float64() < 0.55 {
		return phLocations[rng.IntN(13)]
	}
	return phLocations[13+rng.IntN(len(phLocations)-13)]
}
