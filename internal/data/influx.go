package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"battery-savings/internal/model"
)

// InfluxConfig describes the InfluxDB v2 instance and the sensors that make
// up the input series: three inverter power phases (W, negative while
// exporting) plus spot and consumer price sensors.
type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`

	PowerSensors      []string `yaml:"power_sensors"`
	SpotPriceSensor   string   `yaml:"spot_price_sensor"`
	ImportPriceSensor string   `yaml:"import_price_sensor"`

	// Price adjustments in currency per kWh.
	TaxReduction    float64 `yaml:"tax_reduction"`
	NetworkBenefits float64 `yaml:"network_benefits"`
	TransferCost    float64 `yaml:"transfer_cost"`
}

func (c InfluxConfig) validate() error {
	if c.URL == "" {
		return fmt.Errorf("influx url is required")
	}
	if c.Token == "" {
		return fmt.Errorf("influx token is required")
	}
	if c.Org == "" {
		return fmt.Errorf("influx org is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("influx bucket is required")
	}
	if len(c.PowerSensors) == 0 {
		return fmt.Errorf("at least one power sensor is required")
	}
	if c.SpotPriceSensor == "" || c.ImportPriceSensor == "" {
		return fmt.Errorf("spot and import price sensors are required")
	}
	return nil
}

// InfluxError represents an error response from InfluxDB.
type InfluxError struct {
	StatusCode int
	Message    string
}

func (e *InfluxError) Error() string {
	return fmt.Sprintf("influxdb: status %d: %s", e.StatusCode, e.Message)
}

// InfluxClient fetches minute-resolution sensor data over the InfluxDB v2
// HTTP API (Flux queries, annotated-CSV responses).
type InfluxClient struct {
	cfg    InfluxConfig
	client *http.Client
	log    *slog.Logger
}

func NewInfluxClient(cfg InfluxConfig, log *slog.Logger) (*InfluxClient, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &InfluxClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		log:    log,
	}, nil
}

// FetchReadings queries every configured sensor over [start, end), aligned
// to one-minute means, and assembles the net-energy/price series. Minutes
// missing any sensor value are dropped; the result is sorted.
func (c *InfluxClient) FetchReadings(ctx context.Context, start, end time.Time) ([]model.Reading, error) {
	byMinute := map[time.Time]map[string]float64{}

	sensors := append([]string{}, c.cfg.PowerSensors...)
	sensors = append(sensors, c.cfg.SpotPriceSensor, c.cfg.ImportPriceSensor)
	for _, sensor := range sensors {
		c.log.Info("querying sensor", "sensor", sensor)
		values, err := c.querySensor(ctx, sensor, start, end)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", sensor, err)
		}
		for ts, v := range values {
			m, ok := byMinute[ts]
			if !ok {
				m = map[string]float64{}
				byMinute[ts] = m
			}
			m[sensor] = v
		}
	}

	readings := make([]model.Reading, 0, len(byMinute))
	for ts, values := range byMinute {
		complete := true
		powerW := 0.0
		for _, sensor := range c.cfg.PowerSensors {
			v, ok := values[sensor]
			if !ok {
				complete = false
				break
			}
			powerW += v
		}
		spot, okSpot := values[c.cfg.SpotPriceSensor]
		imp, okImp := values[c.cfg.ImportPriceSensor]
		if !complete || !okSpot || !okImp {
			continue
		}

		readings = append(readings, model.Reading{
			Timestamp: ts,
			// The inverter meter reads negative while exporting; flip the
			// sign so positive Wh means surplus.
			NetEnergyWh: -powerW / 60,
			// Spot sensor reports öre/kWh; 80% of spot is paid out, plus
			// tax reduction and network benefits.
			ExportPrice: spot*0.8/100 + c.cfg.TaxReduction + c.cfg.NetworkBenefits,
			ImportPrice: imp + c.cfg.TransferCost,
		})
	}

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
	return readings, nil
}

func (c *InfluxClient) querySensor(ctx context.Context, sensor string, start, end time.Time) (map[time.Time]float64, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r["entity_id"] == %q)
  |> filter(fn: (r) => r["_field"] == "value")
  |> aggregateWindow(every: 1m, fn: mean, createEmpty: true)
  |> fill(usePrevious: true)
  |> yield(name: "mean")
`, c.cfg.Bucket, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), sensor)

	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid influx URL: %w", err)
	}
	u.Path = "/api/v2/query"
	q := u.Query()
	q.Set("org", c.cfg.Org)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(flux))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/vnd.flux")
	req.Header.Set("Accept", "text/csv")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &InfluxError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	return parseAnnotatedCSV(resp.Body)
}

// parseAnnotatedCSV extracts (_time, _value) pairs from an InfluxDB
// annotated-CSV response. Annotation rows start with '#'; empty _value cells
// (gaps the fill() could not close) are skipped.
func parseAnnotatedCSV(r io.Reader) (map[time.Time]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	values := map[time.Time]float64{}
	timeIdx, valueIdx := -1, -1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(record) == 0 || strings.HasPrefix(record[0], "#") {
			continue
		}
		if timeIdx == -1 || contains(record, "_time") {
			timeIdx, valueIdx = -1, -1
			for i, col := range record {
				switch col {
				case "_time":
					timeIdx = i
				case "_value":
					valueIdx = i
				}
			}
			if timeIdx == -1 || valueIdx == -1 {
				return nil, fmt.Errorf("csv header missing _time/_value columns")
			}
			continue
		}
		if timeIdx >= len(record) || valueIdx >= len(record) {
			continue
		}
		if record[valueIdx] == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, record[timeIdx])
		if err != nil {
			return nil, fmt.Errorf("invalid _time %q: %w", record[timeIdx], err)
		}
		v, err := strconv.ParseFloat(record[valueIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid _value %q: %w", record[valueIdx], err)
		}
		values[ts.UTC()] = v
	}
	return values, nil
}

func contains(record []string, s string) bool {
	for _, v := range record {
		if v == s {
			return true
		}
	}
	return false
}
