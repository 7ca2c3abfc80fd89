package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() BatteryParams {
	return BatteryParams{
		CapacityWh:            24000,
		MinLevelFraction:      0.05,
		ChargeLossFraction:    0.075,
		DischargeLossFraction: 0.075,
		MaxGridChargePowerW:   17250,
		GridChargeEnabled:     true,
	}
}

func TestBatteryParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BatteryParams)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(p *BatteryParams) {}},
		{name: "zero capacity", mutate: func(p *BatteryParams) { p.CapacityWh = 0 }, wantErr: true},
		{name: "negative capacity", mutate: func(p *BatteryParams) { p.CapacityWh = -1 }, wantErr: true},
		{name: "DoD at 100 percent", mutate: func(p *BatteryParams) { p.MinLevelFraction = 1 }, wantErr: true},
		{name: "negative DoD", mutate: func(p *BatteryParams) { p.MinLevelFraction = -0.1 }, wantErr: true},
		{name: "charge loss at 100 percent", mutate: func(p *BatteryParams) { p.ChargeLossFraction = 1 }, wantErr: true},
		{name: "discharge loss at 100 percent", mutate: func(p *BatteryParams) { p.DischargeLossFraction = 1 }, wantErr: true},
		{name: "grid charging without power cap", mutate: func(p *BatteryParams) { p.MaxGridChargePowerW = 0 }, wantErr: true},
		{name: "no power cap needed when grid charging disabled", mutate: func(p *BatteryParams) {
			p.GridChargeEnabled = false
			p.MaxGridChargePowerW = 0
		}},
		{name: "zero DoD and losses are valid", mutate: func(p *BatteryParams) {
			p.MinLevelFraction = 0
			p.ChargeLossFraction = 0
			p.DischargeLossFraction = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBatteryParamsDerived(t *testing.T) {
	p := validParams()
	assert.InDelta(t, 1200, p.FloorWh(), 1e-9)
	assert.InDelta(t, 22800, p.UsableWh(), 1e-9)
	assert.InDelta(t, 0.925, p.ChargeEfficiency(), 1e-9)
	// 1 / (0.925 * 0.925)
	assert.InDelta(t, 1.1687362, p.LossMultiplier(), 1e-6)
}

func TestNewBatteryStartsAtFloor(t *testing.T) {
	b, err := NewBattery(validParams())
	require.NoError(t, err)
	assert.InDelta(t, b.Params.FloorWh(), b.LevelWh, 1e-9)
}

func TestBatteryChargeAppliesLossAndClamp(t *testing.T) {
	p := validParams()
	p.MinLevelFraction = 0
	b, err := NewBattery(p)
	require.NoError(t, err)

	accepted, stored := b.Charge(1000)
	assert.InDelta(t, 1000, accepted, 1e-9)
	assert.InDelta(t, 925, stored, 1e-9)
	assert.InDelta(t, 925, b.LevelWh, 1e-9)

	// Fill close to capacity, then overcharge: only the headroom's worth of
	// input is accepted.
	b.LevelWh = p.CapacityWh - 92.5
	accepted, stored = b.Charge(1000)
	assert.InDelta(t, 100, accepted, 1e-9)
	assert.InDelta(t, 92.5, stored, 1e-9)
	assert.InDelta(t, p.CapacityWh, b.LevelWh, 1e-9)

	accepted, stored = b.Charge(500)
	assert.Zero(t, accepted)
	assert.Zero(t, stored)
}

func TestBatteryDischargeAppliesLossAndFloor(t *testing.T) {
	p := validParams()
	b, err := NewBattery(p)
	require.NoError(t, err)
	b.LevelWh = p.FloorWh() + 1000

	delivered, withdrawn := b.Discharge(500)
	assert.InDelta(t, 500, delivered, 1e-9)
	assert.InDelta(t, 500/0.925, withdrawn, 1e-9)

	// Ask for more than is available above the floor.
	delivered, withdrawn = b.Discharge(10000)
	available := 1000 - 500/0.925
	assert.InDelta(t, available*0.925, delivered, 1e-9)
	assert.InDelta(t, available, withdrawn, 1e-9)
	assert.InDelta(t, p.FloorWh(), b.LevelWh, 1e-9)

	delivered, withdrawn = b.Discharge(100)
	assert.Zero(t, delivered)
	assert.Zero(t, withdrawn)
}
