package sim

import (
	"fmt"
	"time"

	"battery-savings/internal/model"
)

// Flow accumulates one kind of energy movement and its monetary value, with
// monthly sub-totals and hourly buckets for the visualization trace.
// Prices are per kWh, energies in Wh.
type Flow struct {
	EnergyWh float64
	Cost     float64

	MonthlyEnergyWh map[string]float64
	MonthlyCost     map[string]float64
	HourlyEnergyWh  map[string]float64
}

func NewFlow() *Flow {
	return &Flow{
		MonthlyEnergyWh: map[string]float64{},
		MonthlyCost:     map[string]float64{},
		HourlyEnergyWh:  map[string]float64{},
	}
}

func (f *Flow) Add(energyWh, pricePerKWh float64, r model.Reading) {
	cost := energyWh / 1000 * pricePerKWh
	f.EnergyWh += energyWh
	f.Cost += cost
	f.MonthlyEnergyWh[r.MonthKey()] += energyWh
	f.MonthlyCost[r.MonthKey()] += cost
	f.HourlyEnergyWh[r.HourKey()] += energyWh
}

// Aggregator converts step results into running totals, monthly buckets,
// occupancy and cycle statistics. It never needs the full trace in memory.
type Aggregator struct {
	params model.BatteryParams

	SurplusStored *Flow // surplus energy stored instead of exported
	GridCharged   *Flow // energy charged from the grid
	BatteryUsed   *Flow // battery energy delivered to load

	// Storing during a negative export price is economically different from
	// ordinary storing and is reported separately.
	NegativePriceStoredWh float64
	NegativePriceImpact   float64

	ForcedExportWh float64
	ForcedImportWh float64
	GridImportWh   float64
	GridExportWh   float64

	StepsFull    int
	StepsEmpty   int
	StepsPartial int
	TimesFull    int
	TimesEmpty   int

	DischargedWh float64

	// HourlyLevelsWh records the battery level per hour for the exporter.
	HourlyLevelsWh map[string]float64

	GridChargeActions []string

	firstTS time.Time
	lastTS  time.Time

	lastOccupancy model.Occupancy
}

func NewAggregator(params model.BatteryParams) *Aggregator {
	return &Aggregator{
		params:         params,
		SurplusStored:  NewFlow(),
		GridCharged:    NewFlow(),
		BatteryUsed:    NewFlow(),
		HourlyLevelsWh: map[string]float64{},
		lastOccupancy:  model.OccupancyPartial,
	}
}

func (a *Aggregator) Add(res model.StepResult) {
	r := res.Plan.Reading

	if a.firstTS.IsZero() || r.Timestamp.Before(a.firstTS) {
		a.firstTS = r.Timestamp
	}
	if r.Timestamp.After(a.lastTS) {
		a.lastTS = r.Timestamp
	}

	if res.StoredWh > 0 {
		a.SurplusStored.Add(res.StoredWh, r.ExportPrice, r)
		if r.ExportPrice < 0 {
			a.NegativePriceStoredWh += res.StoredWh
			a.NegativePriceImpact += res.StoredWh / 1000 * r.ExportPrice
		}
	}
	if res.GridChargedWh > 0 {
		a.GridCharged.Add(res.GridChargedWh, r.ImportPrice, r)
		if len(a.GridChargeActions) < 100 {
			a.GridChargeActions = append(a.GridChargeActions, fmt.Sprintf(
				"grid charged %.2f Wh at %s (price %.3f/kWh)",
				res.GridChargedWh, r.Timestamp.UTC().Format(time.RFC3339), r.ImportPrice))
		}
	}
	if res.DischargedWh > 0 {
		a.BatteryUsed.Add(res.DischargedWh, r.ImportPrice, r)
		a.DischargedWh += res.DischargedWh
	}

	a.ForcedExportWh += res.ForcedExportWh
	a.ForcedImportWh += res.ForcedImportWh
	a.GridImportWh += res.ImportWh
	a.GridExportWh += res.ExportWh

	switch res.Occupancy {
	case model.OccupancyFull:
		a.StepsFull++
		if a.lastOccupancy != model.OccupancyFull {
			a.TimesFull++
		}
	case model.OccupancyEmpty:
		a.StepsEmpty++
		if a.lastOccupancy != model.OccupancyEmpty {
			a.TimesEmpty++
		}
	default:
		a.StepsPartial++
	}
	a.lastOccupancy = res.Occupancy

	a.HourlyLevelsWh[r.HourKey()] = res.LevelEndWh
}

// NetSavings is import cost saved minus export value lost minus grid
// charging cost.
func (a *Aggregator) NetSavings() float64 {
	return a.BatteryUsed.Cost - a.SurplusStored.Cost - a.GridCharged.Cost
}

// Cycles is cumulative discharged energy over capacity, fractional and never
// reset across windows.
func (a *Aggregator) Cycles() float64 {
	return a.DischargedWh / a.params.CapacityWh
}

// ObservedDays is the span of the processed series in days.
func (a *Aggregator) ObservedDays() float64 {
	if a.firstTS.IsZero() {
		return 0
	}
	return a.lastTS.Sub(a.firstTS).Hours() / 24
}

// AnnualizedSavings scales net savings to a year. It is a rough projection,
// not an authoritative figure.
func (a *Aggregator) AnnualizedSavings() float64 {
	days := a.ObservedDays()
	if days <= 0 {
		return 0
	}
	return a.NetSavings() * 365.0 / days
}

func (a *Aggregator) Period() (time.Time, time.Time) { return a.firstTS, a.lastTS }
