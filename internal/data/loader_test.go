package data

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"battery-savings/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReadingsSortsUnorderedKeys(t *testing.T) {
	input := `{
		"2024-05-01T00:02:00Z": {"Wh": -300, "importPrice": 1.5, "exportPrice": 0.2},
		"2024-05-01T00:00:00Z": {"Wh": 500, "importPrice": 1.0, "exportPrice": 0.5},
		"2024-05-01T00:01:00Z": {"Wh": 0, "importPrice": 1.2, "exportPrice": 0.4}
	}`
	readings, err := DecodeReadings(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, readings, 3)

	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), readings[0].Timestamp)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 2, 0, 0, time.UTC), readings[2].Timestamp)
	assert.InDelta(t, 500, readings[0].NetEnergyWh, 1e-9)
	assert.InDelta(t, 1.0, readings[0].ImportPrice, 1e-9)
	assert.InDelta(t, 0.5, readings[0].ExportPrice, 1e-9)
	assert.InDelta(t, -300, readings[2].NetEnergyWh, 1e-9)
}

func TestDecodeReadingsMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "missing Wh",
			input: `{"2024-05-01T00:00:00Z": {"importPrice": 1.0, "exportPrice": 0.5}}`,
			want:  `missing field "Wh"`,
		},
		{
			name:  "missing importPrice",
			input: `{"2024-05-01T00:00:00Z": {"Wh": 500, "exportPrice": 0.5}}`,
			want:  `missing field "importPrice"`,
		},
		{
			name:  "missing exportPrice",
			input: `{"2024-05-01T00:00:00Z": {"Wh": 500, "importPrice": 1.0}}`,
			want:  `missing field "exportPrice"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeReadings(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeReadingsInvalidTimestamp(t *testing.T) {
	input := `{"yesterday": {"Wh": 500, "importPrice": 1.0, "exportPrice": 0.5}}`
	_, err := DecodeReadings(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timestamp")
}

func TestDecodeReadingsInvalidJSON(t *testing.T) {
	_, err := DecodeReadings(strings.NewReader("not json"))
	assert.Error(t, err)
}

func TestReadingsFromEntriesDuplicateInstant(t *testing.T) {
	wh, imp, exp := 500.0, 1.0, 0.5
	// Different key strings, same instant once normalized to UTC.
	raw := map[string]Entry{
		"2024-05-01T00:00:00Z":      {Wh: &wh, ImportPrice: &imp, ExportPrice: &exp},
		"2024-05-01T02:00:00+02:00": {Wh: &wh, ImportPrice: &imp, ExportPrice: &exp},
	}
	_, err := ReadingsFromEntries(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate timestamp")
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	readings := []model.Reading{
		{
			Timestamp:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			NetEnergyWh: 500,
			ImportPrice: 1.25,
			ExportPrice: 0.5,
		},
		{
			Timestamp:   time.Date(2024, 5, 1, 0, 1, 0, 0, time.UTC),
			NetEnergyWh: -300,
			ImportPrice: 2.0,
			ExportPrice: 0.1,
		},
	}

	for _, name := range []string{"data.json", "data.json.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteReadingsJSON(path, readings))

			got, err := LoadReadings(path)
			require.NoError(t, err)
			assert.Equal(t, readings, got)
		})
	}
}

func TestLoadReadingsMissingFile(t *testing.T) {
	_, err := LoadReadings(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
