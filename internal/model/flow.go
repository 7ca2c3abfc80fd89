package model

import "time"

// StepPlan is the optimizer's decision for one time step. All quantities are
// non-negative Wh for the step's duration, measured at the point of transfer:
// StoreWh and GridChargeWh on the charge input side, DischargeWh on the load
// side, ExportWh and ImportWh at the grid boundary.
//
// The plan is not yet reconciled against the physical battery level; that is
// the simulator's job.
type StepPlan struct {
	Index    int
	Reading  Reading
	Duration time.Duration

	StoreWh      float64 // surplus routed into the battery
	ExportWh     float64 // surplus routed to the grid
	DischargeWh  float64 // deficit covered from the battery
	ImportWh     float64 // deficit covered from the grid
	GridChargeWh float64 // grid energy routed into the battery
}

// StepResult is what actually happened after the simulator applied a plan
// step against the physically constrained battery.
type StepResult struct {
	Plan StepPlan

	StoredWh       float64 // charge-side surplus energy actually accepted
	GridChargedWh  float64 // charge-side grid energy actually accepted
	DischargedWh   float64 // load-side energy actually delivered
	ExportWh       float64 // planned + forced export
	ImportWh       float64 // planned + forced import
	ForcedExportWh float64 // surplus turned away because the battery was full
	ForcedImportWh float64 // discharge shortfall covered from the grid

	LevelStartWh float64
	LevelEndWh   float64
	Occupancy    Occupancy
}

// Occupancy classifies the battery level at the end of a step.
// Keep these values stable; they are intended for CSV output.
type Occupancy string

const (
	OccupancyFull    Occupancy = "FULL"
	OccupancyEmpty   Occupancy = "EMPTY"
	OccupancyPartial Occupancy = "PARTIAL"
)

const occupancyToleranceWh = 1e-6

func OccupancyFromLevel(levelWh float64, params BatteryParams) Occupancy {
	switch {
	case levelWh >= params.CapacityWh-occupancyToleranceWh:
		return OccupancyFull
	case levelWh <= params.FloorWh()+occupancyToleranceWh:
		return OccupancyEmpty
	default:
		return OccupancyPartial
	}
}
