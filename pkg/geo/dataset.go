package geo

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"communityscout/pkg/model"
)

// Dataset loads and indexes the static city/zip reference file
// (quoted CSV, one row per city with a space-separated zip list).
// Construct one at startup and inject it; loading is lazy and happens once.
type Dataset struct {
	path string

	loadOnce sync.Once
	loadErr  error
	records  []model.CityRecord

	indexOnce sync.Once
	zipIndex  map[string]*model.CityRecord
}

// NewDataset creates a Dataset backed by the given CSV file. The file is not
// read until the first lookup.
func NewDataset(path string) *Dataset {
	return &Dataset{path: path}
}

// Column layout of the reference CSV.
const (
	colCity = iota
	colCityASCII
	colStateID
	colStateName
	colCountyFIPS
	colCountyName
	colLat
	colLng
	colPopulation
	colZips
	colCount
)

func (d *Dataset) load() ([]model.CityRecord, error) {
	d.loadOnce.Do(func() {
		f, err := os.Open(d.path)
		if err != nil {
			d.loadErr = fmt.Errorf("failed to open dataset: %w", err)
			slog.Warn("City dataset unavailable, lookups will resolve nothing", "path", d.path, "error", err)
			return
		}
		defer f.Close()

		r := csv.NewReader(f)
		r.FieldsPerRecord = -1 // tolerate trailing columns across dataset versions

		rows, err := r.ReadAll()
		if err != nil {
			d.loadErr = fmt.Errorf("failed to parse dataset: %w", err)
			slog.Warn("City dataset unreadable, lookups will resolve nothing", "path", d.path, "error", err)
			return
		}

		records := make([]model.CityRecord, 0, len(rows))
		for i, row := range rows {
			if i == 0 || len(row) < colCount {
				continue // header or short row
			}

			lat, errLat := strconv.ParseFloat(row[colLat], 64)
			lng, errLng := strconv.ParseFloat(row[colLng], 64)
			if errLat != nil || errLng != nil {
				continue // unparsable coordinates, skip the row
			}

			pop, _ := strconv.Atoi(row[colPopulation])

			records = append(records, model.CityRecord{
				City:       row[colCity],
				StateCode:  strings.ToUpper(row[colStateID]),
				CountyName: row[colCountyName],
				Lat:        lat,
				Lng:        lng,
				Population: pop,
				ZipCodes:   strings.Fields(row[colZips]),
			})
		}
		d.records = records
	})

	return d.records, d.loadErr
}

// Records returns all loaded city records.
func (d *Dataset) Records() ([]model.CityRecord, error) {
	return d.load()
}

// buildZipIndex maps each zip to the highest-population city claiming it.
func (d *Dataset) buildZipIndex() map[string]*model.CityRecord {
	d.indexOnce.Do(func() {
		records, err := d.load()
		if err != nil {
			return
		}

		idx := make(map[string]*model.CityRecord)
		for i := range records {
			rec := &records[i]
			for _, zip := range rec.ZipCodes {
				existing, ok := idx[zip]
				if !ok || rec.Population > existing.Population {
					idx[zip] = rec
				}
			}
		}
		d.zipIndex = idx
	})
	return d.zipIndex
}

// ResolveLocation resolves a zip code to a Location. When a preferred city
// (and optional state) is supplied, records matching city/state that also
// claim the zip take precedence, highest population first. Without a match
// it falls back to the zip index. Returns nil when nothing matches; that is
// an expected outcome, not an error. A missing or unreadable dataset file
// degrades the same way: the load failure is warned once, every lookup then
// resolves to nil instead of failing the request. Records exposes the load
// error for callers that need it.
func (d *Dataset) ResolveLocation(zip, preferredCity, preferredState string) (*model.Location, error) {
	records, err := d.load()
	if err != nil {
		return nil, nil
	}

	if preferredCity != "" {
		var best *model.CityRecord
		for i := range records {
			rec := &records[i]
			if !strings.EqualFold(rec.City, preferredCity) {
				continue
			}
			if preferredState != "" && !strings.EqualFold(rec.StateCode, preferredState) {
				continue
			}
			if !rec.HasZip(zip) {
				continue
			}
			if best == nil || rec.Population > best.Population {
				best = rec
			}
		}
		if best != nil {
			return locationFor(zip, best), nil
		}
		// Fall through to the zip index: a wrong city hint should not make
		// the whole zip unresolvable.
	}

	idx := d.buildZipIndex()
	if rec, ok := idx[zip]; ok {
		return locationFor(zip, rec), nil
	}
	return nil, nil
}

func locationFor(zip string, rec *model.CityRecord) *model.Location {
	return &model.Location{
		Zip:        zip,
		City:       rec.City,
		StateCode:  rec.StateCode,
		CountyName: rec.CountyName,
		Lat:        rec.Lat,
		Lng:        rec.Lng,
		Population: rec.Population,
	}
}

// ResolveServiceAreaCenters resolves caller-supplied "City, ST" strings to
// coordinates. Same-state matches (relative to the origin location) are
// preferred, then highest population. Returns nil when nothing resolves so
// the caller falls back to plain origin distance; an unloadable dataset
// degrades the same way.
func (d *Dataset) ResolveServiceAreaCenters(serviceAreas []string, origin *model.Location) ([]Center, error) {
	records, err := d.load()
	if err != nil {
		return nil, nil
	}

	var centers []Center
	for _, area := range serviceAreas {
		city, state := splitCityState(area)
		if city == "" {
			continue
		}

		var best *model.CityRecord
		bestSameState := false
		for i := range records {
			rec := &records[i]
			if !strings.EqualFold(rec.City, city) {
				continue
			}
			if state != "" && !strings.EqualFold(rec.StateCode, state) {
				continue
			}

			sameState := origin != nil && strings.EqualFold(rec.StateCode, origin.StateCode)
			switch {
			case best == nil:
				best = rec
				bestSameState = sameState
			case sameState && !bestSameState:
				best = rec
				bestSameState = true
			case sameState == bestSameState && rec.Population > best.Population:
				best = rec
			}
		}

		if best != nil {
			centers = append(centers, Center{Name: area, Lat: best.Lat, Lng: best.Lng})
		}
	}

	if len(centers) == 0 {
		return nil, nil
	}
	return centers, nil
}

// splitCityState parses "Portland, OR" into its parts. A missing state is
// allowed.
func splitCityState(s string) (city, state string) {
	parts := strings.SplitN(s, ",", 2)
	city = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		state = strings.TrimSpace(parts[1])
	}
	return city, state
}
