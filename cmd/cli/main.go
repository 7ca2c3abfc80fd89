package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"battery-savings/internal/config"
	"battery-savings/internal/data"
	"battery-savings/internal/report"
	"battery-savings/internal/sim"
	"battery-savings/internal/viz"
	"battery-savings/internal/window"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "analyze":
		cmdAnalyze(os.Args[2:])
	case "fetch":
		cmdFetch(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli analyze [flags] <input.json[.gz]>")
	fmt.Println("  cli fetch --config config.yaml --start 2024-05-01T00:00:00Z --end 2024-06-01T00:00:00Z --out data.json.gz")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - analyze simulates optimal battery dispatch over historical data and prints the savings summary")
	fmt.Println("  - fetch pulls the minute series from InfluxDB and writes it in the analyze input format")
}

func cmdAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Optional YAML config file")
	windowMinutes := fs.Int("window", config.DefaultWindowMinutes, "Optimization window size in minutes")
	capacity := fs.Float64("battery-capacity", 0, "Battery capacity in Wh")
	dod := fs.Float64("depth-of-discharge", 0, "Depth of discharge floor in percent")
	chargingLoss := fs.Float64("charging-loss", 0, "Charging loss in percent")
	dischargingLoss := fs.Float64("discharging-loss", 0, "Discharging loss in percent")
	maxGridPower := fs.Float64("max-grid-power", 0, "Max grid charging power in W")
	noGridCharge := fs.Bool("no-grid-charge", false, "Disable grid charging")
	startTime := fs.String("start-time", "", "Start time bound (ISO-8601, e.g. 2024-05-01T00:00:00Z)")
	endTime := fs.String("end-time", "", "End time bound (ISO-8601)")
	outputDir := fs.String("output-dir", "", "If set, write the HTML visualization and per-step trace CSV here")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Println("analyze requires exactly one input file")
		fs.Usage()
		os.Exit(2)
	}
	inputPath := fs.Arg(0)

	battery := config.DefaultBattery()
	winMinutes := *windowMinutes
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			fatal("load config: %v", err)
		}
		battery = cfg.Battery
		if !flagSet(fs, "window") {
			winMinutes = cfg.WindowMinutes
		}
	}
	battery = config.MergeBattery(battery, config.BatteryConfig{
		CapacityWh:          *capacity,
		DepthOfDischargePct: *dod,
		ChargingLossPct:     *chargingLoss,
		DischargingLossPct:  *dischargingLoss,
		MaxGridPowerW:       *maxGridPower,
		NoGridCharge:        *noGridCharge,
	})

	params := battery.ToModelParams()
	if err := params.Validate(); err != nil {
		fatal("invalid battery configuration: %v", err)
	}

	opts := sim.RunOptions{
		WindowMinutes: winMinutes,
		CollectTrace:  *outputDir != "",
	}
	var err error
	if opts.StartTime, err = parseTimeFlag(*startTime); err != nil {
		fatal("invalid --start-time: %v", err)
	}
	if opts.EndTime, err = parseTimeFlag(*endTime); err != nil {
		fatal("invalid --end-time: %v", err)
	}

	fmt.Printf("Reading input file %s...\n", inputPath)
	readings, err := data.LoadReadings(inputPath)
	if err != nil {
		fatal("load readings: %v", err)
	}
	fmt.Printf("Loaded %d data points\n", len(readings))

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	engine := sim.NewEngine(params, logger)
	res, err := engine.Run(readings, opts)
	if err != nil {
		if errors.Is(err, window.ErrEmptyRange) {
			fatal("no data in the requested time range")
		}
		fatal("simulation failed: %v", err)
	}

	report.Write(os.Stdout, res, params)

	if *outputDir != "" {
		htmlPath, err := viz.WriteViewer(*outputDir, res, params)
		if err != nil {
			fatal("write visualization: %v", err)
		}
		csvPath := filepath.Join(*outputDir, "trace.csv")
		if err := sim.WriteTraceCSV(csvPath, res.Trace); err != nil {
			fatal("write trace: %v", err)
		}
		fmt.Printf("\nVisualization written to %s\n", htmlPath)
		fmt.Printf("Per-step trace written to %s\n", csvPath)
	}
}

func cmdFetch(args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	cfgPath := fs.String("config", "", "YAML config file with the influx section")
	start := fs.String("start", "", "Start time (ISO-8601)")
	end := fs.String("end", "", "End time (ISO-8601)")
	out := fs.String("out", "influx_data.json", "Output file (.gz for gzip)")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}
	startT, err := parseTimeFlag(*start)
	if err != nil || startT.IsZero() {
		fatal("--start is required in ISO-8601 format")
	}
	endT, err := parseTimeFlag(*end)
	if err != nil || endT.IsZero() {
		fatal("--end is required in ISO-8601 format")
	}

	cfg, err := config.LoadUnchecked(*cfgPath)
	if err != nil {
		fatal("load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client, err := data.NewInfluxClient(cfg.Influx, logger)
	if err != nil {
		fatal("influx config: %v", err)
	}

	readings, err := client.FetchReadings(context.Background(), startT, endT)
	if err != nil {
		fatal("fetch readings: %v", err)
	}
	if err := data.WriteReadingsJSON(*out, readings); err != nil {
		fatal("write output: %v", err)
	}
	fmt.Printf("Wrote %d data points to %s\n", len(readings), *out)
}

func parseTimeFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
