// Package dimgen bootstraps the dimension tables: employees, products,
// retailers and campaigns with realistic Philippine FMCG characteristics.
package dimgen

import (
	"math/rand/v2"
	"strings"
)

// faker produces plausible names and phrases from fixed word lists. All draws
// come from the injected source so generation is reproducible per seed.
type faker struct {
	rng *rand.Rand
}

var firstNames = []string{
	"Jose", "Maria", "Juan", "Ana", "Carlo", "Grace", "Miguel", "Liza",
	"Ramon", "Teresa", "Paolo", "Carmen", "Andres", "Rosa", "Marco", "Elena",
	"Diego", "Sofia", "Rafael", "Clara", "Antonio", "Bianca", "Emilio", "Luisa",
	"Gabriel", "Isabel", "Vicente", "Patricia", "Danilo", "Angelica",
}

var lastNames = []string{
	"Santos", "Reyes", "Cruz", "Bautista", "Ocampo", "Garcia", "Mendoza",
	"Torres", "Tomas", "Andrada", "Castillo", "Flores", "Villanueva", "Ramos",
	"Aquino", "Navarro", "Salazar", "Domingo", "Mercado", "Aguilar",
	"Valdez", "Soriano", "Padilla", "Roque", "Manalo",
}

var companyWords = []string{
	"Golden", "Pacific", "Island", "Metro", "Luzon", "Mabuhay", "Sunrise",
	"Harbor", "Summit", "Crown", "Unity", "Horizon", "Emerald", "Coral",
}

var phraseAdjectives = []string{
	"Fresh", "Bright", "Smart", "Everyday", "Bold", "Handa", "Sulit", "Extra",
}

var phraseNouns = []string{
	"Savings", "Moments", "Choice", "Living", "Value", "Season", "Fiesta", "Deals",
}

func newFaker(rng *rand.Rand) *faker { return &faker{rng: rng} }

func (f *faker) pick(list []string) string { return list[f.rng.IntN(len(list))] }

func (f *faker) fullName() string {
	return f.pick(firstNames) + " " + f.pick(lastNames)
}

func (f *faker) companyWord() string { return f.pick(companyWords) }

// catchPhrase builds short campaign names like "Sulit Savings Fiesta".
func (f *faker) catchPhrase() string {
	parts := []string{f.pick(phraseAdjectives), f.pick(phraseNouns)}
	if f.rng.Float64() < 0.4 {
		parts = append(parts, f.pick(phraseNouns))
	}
	return strings.Join(parts, " ")
}
