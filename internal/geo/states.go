// Package geo serves the static country to state/province table used by the
// signup form.
package geo

import "strings"

type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var statesByCountry = map[string][]State{
	"US": {
		{Code: "AL", Name: "Alabama"},
		{Code: "AK", Name: "Alaska"},
		{Code: "AZ", Name: "Arizona"},
		{Code: "AR", Name: "Arkansas"},
		{Code: "CA", Name: "California"},
		{Code: "CO", Name: "Colorado"},
		{Code: "CT", Name: "Connecticut"},
		{Code: "DE", Name: "Delaware"},
		{Code: "FL", Name: "Florida"},
		{Code: "GA", Name: "Georgia"},
	},
	"CA": {
		{Code: "AB", Name: "Alberta"},
		{Code: "BC", Name: "British Columbia"},
		{Code: "MB", Name: "Manitoba"},
		{Code: "NB", Name: "New Brunswick"},
		{Code: "NL", Name: "Newfoundland and Labrador"},
		{Code: "NS", Name: "Nova Scotia"},
		{Code: "ON", Name: "Ontario"},
		{Code: "PE", Name: "Prince Edward Island"},
		{Code: "QC", Name: "Quebec"},
		{Code: "SK", Name: "Saskatchewan"},
	},
	"GB": {
		{Code: "ENG", Name: "England"},
		{Code: "SCT", Name: "Scotland"},
		{Code: "WLS", Name: "Wales"},
		{Code: "NIR", Name: "Northern Ireland"},
	},
}

// StatesFor returns the states of the given ISO country code, matched case
// insensitively. Unknown countries yield an empty, non-nil slice. The result
// is a copy.
func StatesFor(country string) []State {
	src := statesByCountry[strings.ToUpper(strings.TrimSpace(country))]
	out := make([]State, len(src))
	copy(out, src)
	return out
}
