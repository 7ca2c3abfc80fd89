package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"battery-savings/internal/api/models"
	"battery-savings/internal/config"
	"battery-savings/internal/data"
	"battery-savings/internal/model"
	"battery-savings/internal/sim"
	"battery-savings/internal/window"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnalyzeHandler runs simulations for inline reading series.
type AnalyzeHandler struct {
	log *slog.Logger
}

func NewAnalyzeHandler(log *slog.Logger) *AnalyzeHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AnalyzeHandler{log: log}
}

// Analyze handles POST /api/v1/analyze.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err.Error())
		return
	}

	readings, err := data.ReadingsFromEntries(req.Readings)
	if err != nil {
		badRequest(c, "INVALID_READINGS", err.Error())
		return
	}
	if len(readings) == 0 {
		badRequest(c, "INVALID_READINGS", "readings must not be empty")
		return
	}

	params, opts, err := buildRun(req.Config, req.Options)
	if err != nil {
		badRequest(c, "INVALID_CONFIG", err.Error())
		return
	}

	engine := sim.NewEngine(params, h.log)
	res, err := engine.Run(readings, opts)
	if err != nil {
		if errors.Is(err, window.ErrEmptyRange) {
			badRequest(c, "EMPTY_RANGE", err.Error())
			return
		}
		var inv *sim.InvariantError
		if errors.As(err, &inv) {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "INVARIANT_VIOLATION",
					Message: inv.Error(),
					Details: map[string]interface{}{
						"window_index": inv.WindowIndex,
						"timestamp":    inv.Timestamp,
					},
				},
			})
			return
		}
		badRequest(c, "SIMULATION_ERROR", err.Error())
		return
	}

	resp := models.AnalyzeResponse{
		ID:      uuid.NewString(),
		Status:  "completed",
		Summary: buildSummary(res),
	}
	if req.Options.IncludeTrace {
		resp.Trace = buildTrace(res.Trace)
	}
	c.JSON(http.StatusOK, resp)
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: message},
	})
}

func buildRun(sc models.SimulationConfig, opts models.AnalyzeOptions) (model.BatteryParams, sim.RunOptions, error) {
	battery := config.MergeBattery(config.DefaultBattery(), config.BatteryConfig{
		CapacityWh:          sc.CapacityWh,
		DepthOfDischargePct: sc.DepthOfDischargePct,
		ChargingLossPct:     sc.ChargingLossPct,
		DischargingLossPct:  sc.DischargingLossPct,
		MaxGridPowerW:       sc.MaxGridPowerW,
		NoGridCharge:        sc.NoGridCharge,
	})
	params := battery.ToModelParams()
	if err := params.Validate(); err != nil {
		return params, sim.RunOptions{}, err
	}

	run := sim.RunOptions{
		WindowMinutes: sc.WindowMinutes,
		CollectTrace:  opts.IncludeTrace,
	}
	if run.WindowMinutes == 0 {
		run.WindowMinutes = config.DefaultWindowMinutes
	}
	if run.WindowMinutes <= 0 {
		return params, run, fmt.Errorf("window_minutes must be > 0")
	}
	if sc.StartTime != "" {
		t, err := time.Parse(time.RFC3339, sc.StartTime)
		if err != nil {
			return params, run, fmt.Errorf("invalid start_time: %w", err)
		}
		run.StartTime = t
	}
	if sc.EndTime != "" {
		t, err := time.Parse(time.RFC3339, sc.EndTime)
		if err != nil {
			return params, run, fmt.Errorf("invalid end_time: %w", err)
		}
		run.EndTime = t
	}
	return params, run, nil
}

func buildSummary(res *sim.Result) models.Summary {
	stats := res.Stats
	first, last := stats.Period()
	total := stats.StepsFull + stats.StepsEmpty + stats.StepsPartial

	s := models.Summary{
		PeriodStart:  first,
		PeriodEnd:    last,
		ObservedDays: stats.ObservedDays(),
		Windows:      res.Windows,
		FinalLevelWh: res.FinalLevelWh,

		SurplusStored: flowSummary(stats.SurplusStored),
		GridCharged:   flowSummary(stats.GridCharged),
		BatteryUsed:   flowSummary(stats.BatteryUsed),

		ForcedExportKWh: stats.ForcedExportWh / 1000,
		ForcedImportKWh: stats.ForcedImportWh / 1000,

		NegativePriceStoredKWh: stats.NegativePriceStoredWh / 1000,
		NegativePriceImpact:    stats.NegativePriceImpact,

		TimesFull:  stats.TimesFull,
		TimesEmpty: stats.TimesEmpty,

		TotalCycles: stats.Cycles(),

		NetSavings:        stats.NetSavings(),
		AnnualizedSavings: stats.AnnualizedSavings(),
	}
	if total > 0 {
		s.PercentFull = float64(stats.StepsFull) / float64(total) * 100
		s.PercentEmpty = float64(stats.StepsEmpty) / float64(total) * 100
		s.PercentPartial = float64(stats.StepsPartial) / float64(total) * 100
	}
	if days := stats.ObservedDays(); days > 0 {
		s.CyclesPerDay = stats.Cycles() / days
	}
	return s
}

func flowSummary(f *sim.Flow) models.FlowSummary {
	out := models.FlowSummary{
		EnergyKWh:        f.EnergyWh / 1000,
		Value:            f.Cost,
		MonthlyEnergyKWh: map[string]float64{},
		MonthlyValue:     map[string]float64{},
	}
	for month, wh := range f.MonthlyEnergyWh {
		out.MonthlyEnergyKWh[month] = wh / 1000
	}
	for month, cost := range f.MonthlyCost {
		out.MonthlyValue[month] = cost
	}
	return out
}

func buildTrace(trace []model.StepResult) []models.TracePoint {
	points := make([]models.TracePoint, len(trace))
	for i, r := range trace {
		points[i] = models.TracePoint{
			Timestamp:     r.Plan.Reading.Timestamp,
			NetEnergyWh:   r.Plan.Reading.NetEnergyWh,
			StoredWh:      r.StoredWh,
			GridChargedWh: r.GridChargedWh,
			DischargedWh:  r.DischargedWh,
			ExportWh:      r.ExportWh,
			ImportWh:      r.ImportWh,
			LevelWh:       r.LevelEndWh,
			Occupancy:     string(r.Occupancy),
		}
	}
	return points
}
