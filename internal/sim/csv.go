package sim

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"battery-savings/internal/model"
)

// WriteTraceCSV writes the per-step trace. This is the primary artifact for
// "what happened" in a run.
func WriteTraceCSV(path string, trace []model.StepResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"timestamp",
		"net_energy_wh",
		"import_price",
		"export_price",
		"stored_wh",
		"grid_charged_wh",
		"discharged_wh",
		"export_wh",
		"import_wh",
		"forced_export_wh",
		"forced_import_wh",
		"level_start_wh",
		"level_end_wh",
		"occupancy",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range trace {
		row := []string{
			r.Plan.Reading.Timestamp.UTC().Format(time.RFC3339),
			fmtFloat(r.Plan.Reading.NetEnergyWh),
			fmtFloat(r.Plan.Reading.ImportPrice),
			fmtFloat(r.Plan.Reading.ExportPrice),
			fmtFloat(r.StoredWh),
			fmtFloat(r.GridChargedWh),
			fmtFloat(r.DischargedWh),
			fmtFloat(r.ExportWh),
			fmtFloat(r.ImportWh),
			fmtFloat(r.ForcedExportWh),
			fmtFloat(r.ForcedImportWh),
			fmtFloat(r.LevelStartWh),
			fmtFloat(r.LevelEndWh),
			string(r.Occupancy),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
