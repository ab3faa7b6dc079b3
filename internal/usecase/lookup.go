package usecase

// DefaultPhrase is returned for countries without a known greeting.
const DefaultPhrase = "Hello"

var phrases = map[string]string{
	"Australia": "G'day mate",
	"France":    "Bonjour",
	"Germany":   "Hallo",
	"Italy":     "Ciao",
	"UK":        "Wotcha",
	"USA":       "Howdy",
}

// Lookup returns the built-in greeting for country. Matching is exact and
// case-sensitive; unknown countries get DefaultPhrase.
func Lookup(country string) string {
	if g, ok := phrases[country]; ok {
		return g
	}
	return DefaultPhrase
}

// KnownCountries returns the countries in the built-in table.
func KnownCountries() []string {
	out := make([]string, 0, len(phrases))
	for c := range phrases {
		out = append(out, c)
	}
	return out
}
