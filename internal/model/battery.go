package model

import (
	"errors"
	"math"
)

// BatteryParams defines the physical and economic parameters of the battery.
// Units:
// - CapacityWh: Wh
// - MinLevelFraction: depth-of-discharge floor as a fraction of capacity, [0,1)
// - Loss fractions: [0,1), applied on charge and discharge respectively
// - MaxGridChargePowerW: W, cap on grid-initiated charging
type BatteryParams struct {
	CapacityWh            float64
	MinLevelFraction      float64
	ChargeLossFraction    float64
	DischargeLossFraction float64
	MaxGridChargePowerW   float64
	GridChargeEnabled     bool
}

func (p BatteryParams) Validate() error {
	if p.CapacityWh <= 0 {
		return errors.New("CapacityWh must be > 0")
	}
	if p.MinLevelFraction < 0 || p.MinLevelFraction >= 1 {
		return errors.New("MinLevelFraction must be in [0, 1)")
	}
	if p.ChargeLossFraction < 0 || p.ChargeLossFraction >= 1 {
		return errors.New("ChargeLossFraction must be in [0, 1)")
	}
	if p.DischargeLossFraction < 0 || p.DischargeLossFraction >= 1 {
		return errors.New("DischargeLossFraction must be in [0, 1)")
	}
	if p.GridChargeEnabled && p.MaxGridChargePowerW <= 0 {
		return errors.New("MaxGridChargePowerW must be > 0 when grid charging is enabled")
	}
	return nil
}

// FloorWh is the non-usable reserve below which the battery never discharges.
func (p BatteryParams) FloorWh() float64 { return p.CapacityWh * p.MinLevelFraction }

// UsableWh is the capacity available above the floor.
func (p BatteryParams) UsableWh() float64 { return p.CapacityWh - p.FloorWh() }

func (p BatteryParams) ChargeEfficiency() float64    { return 1 - p.ChargeLossFraction }
func (p BatteryParams) DischargeEfficiency() float64 { return 1 - p.DischargeLossFraction }

// LossMultiplier is the minimum ratio by which a future import price must
// exceed a charge price for grid-charging to break even after round-trip
// losses.
func (p BatteryParams) LossMultiplier() float64 {
	return 1 / (p.ChargeEfficiency() * p.DischargeEfficiency())
}

// Battery bundles params with the one mutable, cross-window quantity: the
// current level. The simulator owns it; everything else reads copies.
type Battery struct {
	Params  BatteryParams
	LevelWh float64
}

// NewBattery validates params and starts the battery at its floor level, so
// energy delivered to load is explainable purely by energy stored during the
// run.
func NewBattery(params BatteryParams) (*Battery, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Battery{Params: params, LevelWh: params.FloorWh()}, nil
}

// Charge accepts up to inputWh of charge-side energy, clamped so the level
// never exceeds capacity. It returns the accepted input energy and the
// stored energy (input minus charge loss) actually added to the level.
func (b *Battery) Charge(inputWh float64) (acceptedWh, storedWh float64) {
	if inputWh <= 0 {
		return 0, 0
	}
	headroom := b.Params.CapacityWh - b.LevelWh
	if headroom <= 0 {
		return 0, 0
	}
	accepted := math.Min(inputWh, headroom/b.Params.ChargeEfficiency())
	stored := accepted * b.Params.ChargeEfficiency()
	b.LevelWh += stored
	if b.LevelWh > b.Params.CapacityWh {
		b.LevelWh = b.Params.CapacityWh
	}
	return accepted, stored
}

// Discharge delivers up to outputWh of load-side energy, clamped so the level
// never drops below the floor. It returns the delivered energy and the
// withdrawn energy (delivered plus discharge loss) actually removed from the
// level.
func (b *Battery) Discharge(outputWh float64) (deliveredWh, withdrawnWh float64) {
	if outputWh <= 0 {
		return 0, 0
	}
	available := b.LevelWh - b.Params.FloorWh()
	if available <= 0 {
		return 0, 0
	}
	delivered := math.Min(outputWh, available*b.Params.DischargeEfficiency())
	withdrawn := delivered / b.Params.DischargeEfficiency()
	b.LevelWh -= withdrawn
	if b.LevelWh < b.Params.FloorWh() {
		b.LevelWh = b.Params.FloorWh()
	}
	return delivered, withdrawn
}
