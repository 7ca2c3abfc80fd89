package sim

import (
	"fmt"
	"math"
	"time"

	"battery-savings/internal/model"
)

// conservationToleranceWh is the floating tolerance for the per-step energy
// conservation check. Anything beyond it is an internal defect, not a
// recoverable runtime condition.
const conservationToleranceWh = 1e-6

// InvariantError reports an internal defect detected while applying a plan
// step: the simulation must abort rather than silently correct it.
type InvariantError struct {
	WindowIndex int
	Timestamp   time.Time
	Quantity    string
	Observed    float64
	Expected    float64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in window %d at %s: %s observed %.9f, expected %.9f",
		e.WindowIndex, e.Timestamp.UTC().Format(time.RFC3339), e.Quantity, e.Observed, e.Expected)
}

// Simulator applies optimizer plans to the physically constrained battery,
// step by step, carrying the battery level continuously across window
// boundaries. It is the exclusive owner of the mutable battery state.
type Simulator struct {
	batt *model.Battery
}

func NewSimulator(batt *model.Battery) *Simulator {
	return &Simulator{batt: batt}
}

// LevelWh is the current battery level, used as window-start context by the
// optimizer.
func (s *Simulator) LevelWh() float64 { return s.batt.LevelWh }

// ApplyStep executes one plan step. Charges are applied before discharges;
// surplus that no longer fits is redirected to export as a forced export,
// discharge shortfall is redirected to grid import as a forced import.
func (s *Simulator) ApplyStep(windowIndex int, plan model.StepPlan) (model.StepResult, error) {
	params := s.batt.Params
	res := model.StepResult{Plan: plan, LevelStartWh: s.batt.LevelWh}

	stored, storedToLevel := s.batt.Charge(plan.StoreWh)
	res.StoredWh = stored
	res.ForcedExportWh = plan.StoreWh - stored
	res.ExportWh = plan.ExportWh + res.ForcedExportWh

	gridCharged, gridToLevel := s.batt.Charge(plan.GridChargeWh)
	res.GridChargedWh = gridCharged

	delivered, withdrawn := s.batt.Discharge(plan.DischargeWh)
	res.DischargedWh = delivered
	res.ForcedImportWh = plan.DischargeWh - delivered
	res.ImportWh = plan.ImportWh + res.ForcedImportWh

	res.LevelEndWh = s.batt.LevelWh
	res.Occupancy = model.OccupancyFromLevel(res.LevelEndWh, params)

	ts := plan.Reading.Timestamp
	if res.LevelEndWh < params.FloorWh()-conservationToleranceWh || res.LevelEndWh > params.CapacityWh+conservationToleranceWh {
		return res, &InvariantError{
			WindowIndex: windowIndex,
			Timestamp:   ts,
			Quantity:    "battery level Wh",
			Observed:    res.LevelEndWh,
			Expected:    params.FloorWh(),
		}
	}

	// Conservation: the level delta must equal stored inputs (after charge
	// loss) minus the withdrawal needed to deliver the discharged energy.
	expectedDelta := storedToLevel + gridToLevel - withdrawn
	if delta := res.LevelEndWh - res.LevelStartWh; math.Abs(delta-expectedDelta) > conservationToleranceWh {
		return res, &InvariantError{
			WindowIndex: windowIndex,
			Timestamp:   ts,
			Quantity:    "level delta Wh",
			Observed:    delta,
			Expected:    expectedDelta,
		}
	}

	return res, nil
}
