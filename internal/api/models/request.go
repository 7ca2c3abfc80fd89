package models

import "battery-savings/internal/data"

// AnalyzeRequest is the request body for running a simulation.
type AnalyzeRequest struct {
	// Readings uses the same shape as the input file: ISO-8601 UTC
	// timestamps mapped to energy/price entries.
	Readings map[string]data.Entry `json:"readings" binding:"required"`
	Config   SimulationConfig      `json:"config"`
	Options  AnalyzeOptions        `json:"options"`
}

// SimulationConfig mirrors the CLI parameters. Zero values fall back to the
// documented defaults.
type SimulationConfig struct {
	WindowMinutes       int     `json:"window_minutes,omitempty"`
	CapacityWh          float64 `json:"capacity_wh,omitempty"`
	DepthOfDischargePct float64 `json:"depth_of_discharge_pct,omitempty"`
	ChargingLossPct     float64 `json:"charging_loss_pct,omitempty"`
	DischargingLossPct  float64 `json:"discharging_loss_pct,omitempty"`
	MaxGridPowerW       float64 `json:"max_grid_power_w,omitempty"`
	NoGridCharge        bool    `json:"no_grid_charge,omitempty"`
	StartTime           string  `json:"start_time,omitempty"` // ISO-8601
	EndTime             string  `json:"end_time,omitempty"`   // ISO-8601
}

// AnalyzeOptions contains optional request parameters.
type AnalyzeOptions struct {
	IncludeTrace bool `json:"include_trace,omitempty"` // default: false
}
