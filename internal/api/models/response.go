package models

import "time"

// AnalyzeResponse is the response from a simulation run.
type AnalyzeResponse struct {
	ID      string       `json:"id"`
	Status  string       `json:"status"`
	Summary Summary      `json:"summary"`
	Trace   []TracePoint `json:"trace,omitempty"`
}

// Summary contains the aggregated simulation results.
type Summary struct {
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	ObservedDays float64   `json:"observed_days"`
	Windows      int       `json:"windows"`
	FinalLevelWh float64   `json:"final_level_wh"`

	SurplusStored FlowSummary `json:"surplus_stored"`
	GridCharged   FlowSummary `json:"grid_charged"`
	BatteryUsed   FlowSummary `json:"battery_used"`

	ForcedExportKWh float64 `json:"forced_export_kwh"`
	ForcedImportKWh float64 `json:"forced_import_kwh"`

	NegativePriceStoredKWh float64 `json:"negative_price_stored_kwh"`
	NegativePriceImpact    float64 `json:"negative_price_impact"`

	PercentFull    float64 `json:"percent_full"`
	PercentEmpty   float64 `json:"percent_empty"`
	PercentPartial float64 `json:"percent_partial"`
	TimesFull      int     `json:"times_full"`
	TimesEmpty     int     `json:"times_empty"`

	TotalCycles  float64 `json:"total_cycles"`
	CyclesPerDay float64 `json:"cycles_per_day"`

	NetSavings float64 `json:"net_savings"`
	// AnnualizedSavings is a rough projection, not an authoritative figure.
	AnnualizedSavings float64 `json:"annualized_savings"`
}

// FlowSummary is one energy flow's totals and monthly breakdown.
type FlowSummary struct {
	EnergyKWh        float64            `json:"energy_kwh"`
	Value            float64            `json:"value"`
	MonthlyEnergyKWh map[string]float64 `json:"monthly_energy_kwh,omitempty"`
	MonthlyValue     map[string]float64 `json:"monthly_value,omitempty"`
}

// TracePoint is one per-step record, included only on request.
type TracePoint struct {
	Timestamp     time.Time `json:"timestamp"`
	NetEnergyWh   float64   `json:"net_energy_wh"`
	StoredWh      float64   `json:"stored_wh"`
	GridChargedWh float64   `json:"grid_charged_wh"`
	DischargedWh  float64   `json:"discharged_wh"`
	ExportWh      float64   `json:"export_wh"`
	ImportWh      float64   `json:"import_wh"`
	LevelWh       float64   `json:"level_wh"`
	Occupancy     string    `json:"occupancy"`
}

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
