package query

import (
	"strings"

	"communityscout/pkg/config"
)

// Regional state groups. Every state belongs to exactly one group; the group
// selects which phrasing variants get merged into a category's query plan.
const (
	groupPacificNorthwest = "pacific_northwest"
	groupCalifornia       = "california"
	groupDesertSouthwest  = "desert_southwest"
	groupMountain         = "mountain"
	groupGreatPlains      = "great_plains"
	groupGreatLakes       = "great_lakes"
	groupGulfCoast        = "gulf_coast"
	groupSoutheast        = "southeast"
	groupMidAtlantic      = "mid_atlantic"
	groupNewEngland       = "new_england"
	groupPacificRemote    = "pacific_remote"
)

var stateGroups = map[string]string{
	"WA": groupPacificNorthwest, "OR": groupPacificNorthwest,
	"CA": groupCalifornia,
	"AZ": groupDesertSouthwest, "NM": groupDesertSouthwest, "NV": groupDesertSouthwest,
	"CO": groupMountain, "UT": groupMountain, "WY": groupMountain, "MT": groupMountain, "ID": groupMountain,
	"ND": groupGreatPlains, "SD": groupGreatPlains, "NE": groupGreatPlains, "KS": groupGreatPlains, "OK": groupGreatPlains,
	"MN": groupGreatLakes, "WI": groupGreatLakes, "IL": groupGreatLakes, "IN": groupGreatLakes,
	"OH": groupGreatLakes, "MI": groupGreatLakes, "IA": groupGreatLakes, "MO": groupGreatLakes,
	"TX": groupGulfCoast, "LA": groupGulfCoast, "MS": groupGulfCoast, "AL": groupGulfCoast,
	"FL": groupSoutheast, "GA": groupSoutheast, "SC": groupSoutheast, "NC": groupSoutheast,
	"TN": groupSoutheast, "KY": groupSoutheast, "AR": groupSoutheast,
	"VA": groupMidAtlantic, "WV": groupMidAtlantic, "MD": groupMidAtlantic, "DE": groupMidAtlantic,
	"PA": groupMidAtlantic, "NJ": groupMidAtlantic, "DC": groupMidAtlantic,
	"NY": groupNewEngland, "CT": groupNewEngland, "RI": groupNewEngland, "MA": groupNewEngland,
	"VT": groupNewEngland, "NH": groupNewEngland, "ME": groupNewEngland,
	"AK": groupPacificRemote, "HI": groupPacificRemote,
}

// StateGroup returns the regional group for a state code, or "" if unknown.
func StateGroup(stateCode string) string {
	return stateGroups[strings.ToUpper(stateCode)]
}

// geoPacks holds per-group query phrasing variants per category.
var geoPacks = map[string]map[string][]string{
	groupPacificNorthwest: {
		config.CatDining: {"seafood restaurants", "brewery restaurants"},
		config.CatParks:  {"waterfront parks", "forest hiking trails"},
		config.CatCoffee: {"specialty coffee roasters"},
	},
	groupCalifornia: {
		config.CatDining:   {"farm to table restaurants", "taquerias"},
		config.CatParks:    {"beach parks", "canyon trails"},
		config.CatShopping: {"outdoor shopping promenades"},
	},
	groupDesertSouthwest: {
		config.CatDining:  {"southwestern restaurants", "patio dining"},
		config.CatParks:   {"desert botanical gardens", "canyon hiking trails"},
		config.CatFitness: {"resort pools and spas"},
	},
	groupMountain: {
		config.CatDining:        {"mountain lodge restaurants", "craft breweries"},
		config.CatParks:         {"mountain trailheads", "alpine lakes"},
		config.CatEntertainment: {"ski resorts"},
	},
	groupGreatPlains: {
		config.CatDining:    {"steakhouses", "supper clubs"},
		config.CatParks:     {"prairie nature preserves", "lake parks"},
		config.CatFamilyFun: {"county fairgrounds"},
	},
	groupGreatLakes: {
		config.CatDining: {"supper clubs", "lakeside restaurants"},
		config.CatParks:  {"lakefront parks", "riverwalk trails"},
	},
	groupGulfCoast: {
		config.CatDining:    {"gulf seafood restaurants", "bbq restaurants", "cajun restaurants"},
		config.CatParks:     {"bayou nature trails", "gulf beaches"},
		config.CatFamilyFun: {"splash pads"},
	},
	groupSoutheast: {
		config.CatDining:   {"southern cooking restaurants", "bbq restaurants"},
		config.CatParks:    {"riverfront parks", "live oak gardens"},
		config.CatShopping: {"historic district shops"},
	},
	groupMidAtlantic: {
		config.CatDining:        {"crab houses", "historic taverns"},
		config.CatParks:         {"battlefield parks", "rail trail parks"},
		config.CatEntertainment: {"historic theaters"},
	},
	groupNewEngland: {
		config.CatDining: {"clam shacks", "farm to table restaurants"},
		config.CatParks:  {"village greens", "coastal walking trails"},
		config.CatCoffee: {"historic main street cafes"},
	},
	groupPacificRemote: {
		config.CatDining:        {"local seafood restaurants"},
		config.CatParks:         {"scenic overlooks", "coastal trails"},
		config.CatEntertainment: {"cultural centers"},
	},
}

// Climate modifier latitude thresholds. Hot-climate phrasing applies at or
// below 32°N, cold-climate phrasing at or above 44°N.
const (
	hotClimateMaxLat  = 32.0
	coldClimateMinLat = 44.0
)

var hotClimatePack = map[string][]string{
	config.CatParks:     {"shaded walking trails"},
	config.CatFamilyFun: {"indoor play centers", "community pools"},
	config.CatDining:    {"covered patio restaurants"},
}

var coldClimatePack = map[string][]string{
	config.CatParks:         {"indoor recreation centers"},
	config.CatFamilyFun:     {"indoor play centers"},
	config.CatEntertainment: {"ice skating rinks"},
}

// GeoVariants returns the phrasing variants for a category given the state
// group and latitude climate band, in stable order: group pack first, then
// the climate modifier.
func GeoVariants(stateCode string, lat float64, category string) []string {
	var out []string

	if group := StateGroup(stateCode); group != "" {
		out = append(out, geoPacks[group][category]...)
	}

	switch {
	case lat <= hotClimateMaxLat:
		out = append(out, hotClimatePack[category]...)
	case lat >= coldClimateMinLat:
		out = append(out, coldClimatePack[category]...)
	}

	return out
}
