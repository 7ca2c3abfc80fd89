// Package sim runs the windowed what-if simulation: it feeds each window
// through the dispatch optimizer, applies the plan to the battery, and
// aggregates the resulting energy and financial flows.
package sim

import (
	"log/slog"
	"time"

	"battery-savings/internal/dispatch"
	"battery-savings/internal/model"
	"battery-savings/internal/window"
)

// RunOptions scopes a simulation run.
type RunOptions struct {
	WindowMinutes int
	StartTime     time.Time // zero = unbounded
	EndTime       time.Time // zero = unbounded

	// CollectTrace keeps the full per-step trace in memory for exporters.
	// Without it, flows are discarded after aggregation.
	CollectTrace bool
}

// Result is the outcome of a full simulation run.
type Result struct {
	Stats        *Aggregator
	Trace        []model.StepResult
	Windows      int
	FinalLevelWh float64
}

// Engine orchestrates segmenter, optimizer, simulator and aggregator, one
// window at a time. Windows are processed strictly in order because the
// battery level carries sequentially across window boundaries.
type Engine struct {
	params model.BatteryParams
	log    *slog.Logger
}

func NewEngine(params model.BatteryParams, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{params: params, log: log}
}

// Run simulates the series under opts. The readings must be sorted by
// timestamp; load-time validation guarantees this.
func (e *Engine) Run(readings []model.Reading, opts RunOptions) (*Result, error) {
	seg, err := window.New(readings, opts.StartTime, opts.EndTime, opts.WindowMinutes)
	if err != nil {
		return nil, err
	}

	clipped := seg.Readings()
	durations := model.StepDurations(clipped)

	batt, err := model.NewBattery(e.params)
	if err != nil {
		return nil, err
	}

	opt := dispatch.New(e.params)
	simulator := NewSimulator(batt)
	stats := NewAggregator(e.params)

	res := &Result{Stats: stats}
	offset := 0
	for {
		w, ok := seg.Next()
		if !ok {
			break
		}
		plans := opt.Plan(w.Readings, durations[offset:offset+len(w.Readings)], simulator.LevelWh())
		for _, plan := range plans {
			stepRes, err := simulator.ApplyStep(w.Index, plan)
			if err != nil {
				return nil, err
			}
			stats.Add(stepRes)
			if opts.CollectTrace {
				res.Trace = append(res.Trace, stepRes)
			}
		}
		offset += len(w.Readings)
		res.Windows++
	}

	res.FinalLevelWh = simulator.LevelWh()
	e.log.Info("simulation complete",
		"windows", res.Windows,
		"steps", len(clipped),
		"final_level_wh", res.FinalLevelWh,
		"net_savings", stats.NetSavings())
	return res, nil
}
