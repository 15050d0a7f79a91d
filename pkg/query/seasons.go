package query

import (
	"time"

	"communityscout/pkg/config"
)

// Season is a coarse query-phrasing season.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
)

// Latitude bands for season derivation. The dataset is US-only, so there is
// no hemisphere inversion, but high-latitude winters run long and
// low-latitude "winter" barely exists; each band gets its own month mapping.
const (
	northernBandMinLat = 40.0
	southernBandMaxLat = 30.0
)

var northernSeasons = map[time.Month]Season{
	time.January: SeasonWinter, time.February: SeasonWinter, time.March: SeasonWinter,
	time.April: SeasonSpring, time.May: SeasonSpring,
	time.June: SeasonSummer, time.July: SeasonSummer, time.August: SeasonSummer,
	time.September: SeasonFall, time.October: SeasonFall,
	time.November: SeasonWinter, time.December: SeasonWinter,
}

var southernSeasons = map[time.Month]Season{
	time.January: SeasonWinter,
	time.February: SeasonSpring, time.March: SeasonSpring, time.April: SeasonSpring,
	time.May: SeasonSummer, time.June: SeasonSummer, time.July: SeasonSummer,
	time.August: SeasonSummer, time.September: SeasonSummer,
	time.October: SeasonFall, time.November: SeasonFall,
	time.December: SeasonWinter,
}

var temperateSeasons = map[time.Month]Season{
	time.January: SeasonWinter, time.February: SeasonWinter,
	time.March: SeasonSpring, time.April: SeasonSpring, time.May: SeasonSpring,
	time.June: SeasonSummer, time.July: SeasonSummer, time.August: SeasonSummer,
	time.September: SeasonFall, time.October: SeasonFall, time.November: SeasonFall,
	time.December: SeasonWinter,
}

// SeasonFor derives the query season from latitude band and month.
func SeasonFor(lat float64, month time.Month) Season {
	switch {
	case lat >= northernBandMinLat:
		return northernSeasons[month]
	case lat <= southernBandMaxLat:
		return southernSeasons[month]
	default:
		return temperateSeasons[month]
	}
}

// seasonPacks holds season-flavored phrasing variants per category.
var seasonPacks = map[Season]map[string][]string{
	SeasonWinter: {
		config.CatDining:        {"cozy restaurants"},
		config.CatEntertainment: {"holiday light displays", "indoor attractions"},
		config.CatCoffee:        {"cozy coffee shops"},
		config.CatFamilyFun:     {"indoor family activities"},
		config.CatShopping:      {"holiday markets"},
	},
	SeasonSpring: {
		config.CatParks:         {"flower gardens", "spring hiking trails"},
		config.CatDining:        {"patio brunch spots"},
		config.CatShopping:      {"spring farmers markets"},
		config.CatFamilyFun:     {"petting zoos"},
		config.CatEntertainment: {"outdoor festivals"},
	},
	SeasonSummer: {
		config.CatParks:         {"swimming spots", "shaded picnic areas"},
		config.CatDining:        {"rooftop restaurants", "ice cream shops"},
		config.CatEntertainment: {"outdoor concert venues"},
		config.CatFamilyFun:     {"water parks", "mini golf"},
		config.CatCoffee:        {"iced coffee and smoothie shops"},
	},
	SeasonFall: {
		config.CatParks:         {"fall foliage trails"},
		config.CatDining:        {"harvest menu restaurants"},
		config.CatFamilyFun:     {"pumpkin patches", "corn mazes"},
		config.CatShopping:      {"fall craft fairs"},
		config.CatEntertainment: {"haunted attractions"},
	},
}

// SeasonVariants returns the season-flavored variants for a category.
func SeasonVariants(season Season, category string) []string {
	return seasonPacks[season][category]
}
