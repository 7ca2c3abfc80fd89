// Package viz writes a self-contained HTML visualization of a simulation
// run: battery level plus hourly energy flows on a plotly chart.
package viz

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"battery-savings/internal/model"
	"battery-savings/internal/sim"
)

const viewerFileName = "battery_viewer.html"

type vizConfig struct {
	BatteryCapacity float64 `json:"batteryCapacity"`
	MinLevel        float64 `json:"minLevel"`
	MaxLevel        float64 `json:"maxLevel"`
}

type vizPoint struct {
	Timestamp    string  `json:"timestamp"`
	BatteryLevel float64 `json:"batteryLevel"`
	SolarStored  float64 `json:"solarStored"`
	GridCharged  float64 `json:"gridCharged"`
	BatteryUsed  float64 `json:"batteryUsed"`
}

type vizData struct {
	Config     vizConfig  `json:"config"`
	TimeSeries []vizPoint `json:"timeSeries"`
}

// WriteViewer renders the viewer page into dir and returns its path.
func WriteViewer(dir string, res *sim.Result, params model.BatteryParams) (string, error) {
	stats := res.Stats

	hours := make([]string, 0, len(stats.HourlyLevelsWh))
	for h := range stats.HourlyLevelsWh {
		hours = append(hours, h)
	}
	sort.Strings(hours)

	series := make([]vizPoint, 0, len(hours))
	for _, h := range hours {
		series = append(series, vizPoint{
			Timestamp:    h,
			BatteryLevel: stats.HourlyLevelsWh[h],
			SolarStored:  stats.SurplusStored.HourlyEnergyWh[h],
			GridCharged:  stats.GridCharged.HourlyEnergyWh[h],
			BatteryUsed:  stats.BatteryUsed.HourlyEnergyWh[h],
		})
	}

	payload, err := json.Marshal(vizData{
		Config: vizConfig{
			BatteryCapacity: params.CapacityWh,
			MinLevel:        params.FloorWh(),
			MaxLevel:        params.CapacityWh,
		},
		TimeSeries: series,
	})
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, viewerFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// text/template emits the JSON blob verbatim; html/template would
	// escape it.
	if err := viewerTemplate.Execute(f, string(payload)); err != nil {
		return "", err
	}
	return path, nil
}

var viewerTemplate = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Battery Savings Visualization</title>
    <script src="https://cdnjs.cloudflare.com/ajax/libs/plotly.js/2.24.2/plotly.min.js"></script>
    <style>
        body { margin: 0; padding: 20px; font-family: Arial, sans-serif; }
        .chart-container { height: 800px; }
        .controls { margin-bottom: 20px; }
    </style>
</head>
<body>
    <div class="controls">
        <button onclick="resetZoom()">Reset Zoom</button>
    </div>
    <div id="chart" class="chart-container"></div>

    <script>
        const jsonData = {{.}};
        const data = jsonData.timeSeries;
        const batteryConfig = jsonData.config;

        function createCharts() {
            const timestamps = data.map(d => d.timestamp);
            const traces = [{
                name: 'Battery Level',
                x: timestamps,
                y: data.map(d => d.batteryLevel / 1000),
                type: 'scatter',
                mode: 'lines',
                line: { shape: 'hv', color: 'purple', width: 2 }
            }, {
                name: 'Min Level',
                x: timestamps,
                y: Array(timestamps.length).fill(batteryConfig.minLevel / 1000),
                type: 'scatter',
                mode: 'lines',
                line: { shape: 'hv', color: 'red', dash: 'dash', width: 1 }
            }, {
                name: 'Max Level',
                x: timestamps,
                y: Array(timestamps.length).fill(batteryConfig.maxLevel / 1000),
                type: 'scatter',
                mode: 'lines',
                line: { shape: 'hv', color: 'green', dash: 'dash', width: 1 }
            }, {
                name: 'Solar Stored',
                x: timestamps,
                y: data.map(d => d.solarStored / 1000),
                type: 'scatter',
                mode: 'lines',
                line: { shape: 'hv', color: 'green' },
                yaxis: 'y2'
            }, {
                name: 'Grid Charged',
                x: timestamps,
                y: data.map(d => d.gridCharged / 1000),
                type: 'scatter',
                mode: 'lines',
                line: { shape: 'hv', color: 'red' },
                yaxis: 'y2'
            }, {
                name: 'Battery Used',
                x: timestamps,
                y: data.map(d => d.batteryUsed / 1000),
                type: 'scatter',
                mode: 'lines',
                line: { shape: 'hv', color: 'blue' },
                yaxis: 'y2'
            }];

            const layout = {
                title: 'Battery State and Energy Flows',
                xaxis: { title: 'Time', tickformat: '%Y-%m-%d %H:%M' },
                yaxis: {
                    title: 'Battery Level (kWh)',
                    range: [0, batteryConfig.batteryCapacity / 1000],
                    side: 'left'
                },
                yaxis2: {
                    title: 'Energy Flow (kWh)',
                    overlaying: 'y',
                    side: 'right'
                },
                hovermode: 'x unified'
            };

            Plotly.newPlot('chart', traces, layout, { responsive: true });
        }

        function resetZoom() {
            Plotly.relayout('chart', {
                'xaxis.autorange': true,
                'yaxis.autorange': true
            });
        }

        createCharts();
    </script>
</body>
</html>
`))
