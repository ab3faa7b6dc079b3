package domain

// CountryGreeting is the greeting phrase stored for a single country.
// A country has at most one greeting; later writes replace earlier ones.
type CountryGreeting struct {
	Country  string `json:"country" yaml:"country"`
	Greeting string `json:"greeting" yaml:"greeting"`
}
