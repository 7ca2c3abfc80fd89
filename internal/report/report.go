// Package report renders the textual summary of a simulation run.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"battery-savings/internal/model"
	"battery-savings/internal/sim"
)

// Write prints totals, monthly breakdowns, occupancy statistics, cycle
// counts, the negative-price warning, net savings and the rough annual
// projection.
func Write(w io.Writer, res *sim.Result, params model.BatteryParams) {
	stats := res.Stats
	first, last := stats.Period()

	fmt.Fprintln(w, "Battery Savings Simulation Summary")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintln(w, "\nSimulation Period:")
	fmt.Fprintf(w, "  From: %s\n", first.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  To:   %s\n", last.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  Days: %.1f\n", stats.ObservedDays())

	fmt.Fprintln(w, "\nBattery Configuration:")
	fmt.Fprintf(w, "  Capacity: %.1f kWh\n", params.CapacityWh/1000)
	fmt.Fprintf(w, "  Reserved floor: %.1f kWh (%.1f%% DoD)\n", params.FloorWh()/1000, params.MinLevelFraction*100)
	fmt.Fprintf(w, "  Final level: %.2f kWh\n", res.FinalLevelWh/1000)

	fmt.Fprintln(w, "\nEnergy Flows:")
	writeFlowEnergy(w, "Excess energy stored", stats.SurplusStored)
	writeFlowEnergy(w, "Grid energy charged", stats.GridCharged)
	writeFlowEnergy(w, "Battery energy used", stats.BatteryUsed)
	fmt.Fprintf(w, "\nForced export (battery full): %.2f kWh\n", stats.ForcedExportWh/1000)
	fmt.Fprintf(w, "Forced import (battery empty): %.2f kWh\n", stats.ForcedImportWh/1000)

	fmt.Fprintln(w, "\nFinancial Summary:")
	writeFlowCost(w, "Export value lost", stats.SurplusStored)
	writeFlowCost(w, "Grid charging cost", stats.GridCharged)
	writeFlowCost(w, "Import cost saved", stats.BatteryUsed)
	fmt.Fprintf(w, "\nNet savings: %.2f\n", stats.NetSavings())
	fmt.Fprintf(w, "Projected annual savings (rough estimate): %.2f\n", stats.AnnualizedSavings())

	if stats.NegativePriceStoredWh > 0 {
		fmt.Fprintln(w, "\nWarning: stored energy during negative export prices:")
		fmt.Fprintf(w, "  Energy: %.2f kWh, value impact: %.2f\n",
			stats.NegativePriceStoredWh/1000, stats.NegativePriceImpact)
	}

	fmt.Fprintln(w, "\nBattery State Statistics:")
	fmt.Fprintf(w, "  Times battery became full: %d\n", stats.TimesFull)
	fmt.Fprintf(w, "  Times battery became empty: %d\n", stats.TimesEmpty)
	total := stats.StepsFull + stats.StepsEmpty + stats.StepsPartial
	if total > 0 {
		fmt.Fprintf(w, "  Full %.1f%% of the time\n", pct(stats.StepsFull, total))
		fmt.Fprintf(w, "  Empty %.1f%% of the time\n", pct(stats.StepsEmpty, total))
		fmt.Fprintf(w, "  Partially charged %.1f%% of the time\n", pct(stats.StepsPartial, total))
	}

	fmt.Fprintln(w, "\nBattery Cycles:")
	fmt.Fprintf(w, "  Total cycles: %.1f\n", stats.Cycles())
	if days := stats.ObservedDays(); days > 0 {
		fmt.Fprintf(w, "  Cycles per day: %.2f\n", stats.Cycles()/days)
	}

	if len(stats.GridChargeActions) > 0 {
		fmt.Fprintln(w, "\nGrid Charging Actions (first 5):")
		for i, action := range stats.GridChargeActions {
			if i == 5 {
				break
			}
			fmt.Fprintf(w, "  %s\n", action)
		}
	}
}

func writeFlowEnergy(w io.Writer, label string, f *sim.Flow) {
	fmt.Fprintf(w, "%s: %.2f kWh\n", label, f.EnergyWh/1000)
	for _, month := range sortedKeys(f.MonthlyEnergyWh) {
		fmt.Fprintf(w, "  %s: %.2f kWh\n", month, f.MonthlyEnergyWh[month]/1000)
	}
}

func writeFlowCost(w io.Writer, label string, f *sim.Flow) {
	fmt.Fprintf(w, "%s: %.2f\n", label, f.Cost)
	for _, month := range sortedKeys(f.MonthlyCost) {
		fmt.Fprintf(w, "  %s: %.2f\n", month, f.MonthlyCost[month])
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pct(n, total int) float64 {
	return float64(n) / float64(total) * 100
}
