// Package data loads and fetches the minute-resolution input series. All
// schema validation happens here, once; downstream code only ever sees the
// typed, sorted model.Reading series.
package data

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"battery-savings/internal/model"
)

// Entry mirrors one value of the input JSON mapping. Pointer fields
// distinguish missing keys from zero values.
type Entry struct {
	Wh          *float64 `json:"Wh"`
	ImportPrice *float64 `json:"importPrice"`
	ExportPrice *float64 `json:"exportPrice"`
}

// LoadReadings reads an input file: a JSON object mapping ISO-8601 UTC
// timestamps to energy/price entries, optionally gzip-compressed. Keys need
// not be pre-sorted; the result is sorted by timestamp. Missing fields,
// unparseable timestamps and duplicate timestamps are errors.
func LoadReadings(path string) ([]model.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	return DecodeReadings(r)
}

// DecodeReadings parses the (already decompressed) input JSON.
func DecodeReadings(r io.Reader) ([]model.Reading, error) {
	var raw map[string]Entry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode input JSON: %w", err)
	}
	return ReadingsFromEntries(raw)
}

// ReadingsFromEntries validates and sorts a timestamp-keyed entry mapping,
// e.g. one decoded from an API request body.
func ReadingsFromEntries(raw map[string]Entry) ([]model.Reading, error) {
	readings := make([]model.Reading, 0, len(raw))
	for ts, entry := range raw {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", ts, err)
		}
		if entry.Wh == nil {
			return nil, fmt.Errorf("entry %s: missing field \"Wh\"", ts)
		}
		if entry.ImportPrice == nil {
			return nil, fmt.Errorf("entry %s: missing field \"importPrice\"", ts)
		}
		if entry.ExportPrice == nil {
			return nil, fmt.Errorf("entry %s: missing field \"exportPrice\"", ts)
		}
		readings = append(readings, model.Reading{
			Timestamp:   t.UTC(),
			NetEnergyWh: *entry.Wh,
			ImportPrice: *entry.ImportPrice,
			ExportPrice: *entry.ExportPrice,
		})
	}

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
	for i := 1; i < len(readings); i++ {
		if readings[i].Timestamp.Equal(readings[i-1].Timestamp) {
			return nil, fmt.Errorf("duplicate timestamp %s", readings[i].Timestamp.Format(time.RFC3339))
		}
	}

	return readings, nil
}

// WriteReadingsJSON writes readings in the input-file format, gzipped when
// the path ends in .gz. Used by the fetch command.
func WriteReadingsJSON(path string, readings []model.Reading) error {
	out := make(map[string]map[string]float64, len(readings))
	for _, r := range readings {
		out[r.Timestamp.UTC().Format("2006-01-02T15:04:05Z")] = map[string]float64{
			"Wh":          r.NetEnergyWh,
			"importPrice": r.ImportPrice,
			"exportPrice": r.ExportPrice,
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	if gz != nil {
		return gz.Close()
	}
	return nil
}
