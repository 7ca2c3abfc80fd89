// Package dispatch computes a perfect-foresight dispatch plan for one
// optimization window: how every step's surplus or deficit is resolved among
// battery, grid import, grid export, and grid-initiated charging.
package dispatch

import (
	"container/heap"
	"time"

	"battery-savings/internal/model"
)

// epsilonWh is the smallest transfer worth planning; below this, floating
// point residue would just churn the heaps.
const epsilonWh = 1e-9

// Optimizer plans one window at a time with full knowledge of that window's
// prices and net flows, and no knowledge beyond it. It reads the battery's
// starting level but never mutates simulation state.
type Optimizer struct {
	params model.BatteryParams
}

func New(params model.BatteryParams) *Optimizer {
	return &Optimizer{params: params}
}

// Plan allocates every step's energy for the window. durations must be
// step-aligned with readings. startLevelWh is the battery level at the start
// of the window.
//
// The plan is built in three passes over explicit priority structures:
//
//  1. Surplus intake: surplus steps offer lots with cost-basis equal to
//     their export price (the opportunity cost of not exporting). Lots are
//     stored cheapest-first while planned headroom exists; storing surplus
//     is always preferred over exporting it. The leftover is exported.
//  2. Demand matching: deficit steps demand energy valued at their import
//     price. Demands are served dearest-first from the planned inventory,
//     which only releases energy stored at or before the demand's step.
//  3. Proactive grid charging: if enabled, low-import-price steps may create
//     new lots for still-unmet future demands, but only when the demand's
//     import price strictly exceeds the charge price times the round-trip
//     loss multiplier, and never beyond the grid-charge power cap.
func (o *Optimizer) Plan(readings []model.Reading, durations []time.Duration, startLevelWh float64) []model.StepPlan {
	plans := make([]model.StepPlan, len(readings))
	for i, r := range readings {
		plans[i] = model.StepPlan{Index: i, Reading: r, Duration: durations[i]}
	}

	tl := newTimeline(len(readings), o.params.UsableWh(), startLevelWh-o.params.FloorWh())
	effC := o.params.ChargeEfficiency()
	effD := o.params.DischargeEfficiency()

	// Pass 1: store surplus, cheapest export price first.
	lots := lotHeap{}
	for i, r := range readings {
		if r.IsSurplus() {
			lots = append(lots, lot{index: i, costBasis: r.ExportPrice, energyWh: r.NetEnergyWh})
		}
	}
	heap.Init(&lots)
	for lots.Len() > 0 {
		l := heap.Pop(&lots).(lot)
		store := tl.headroomFrom(l.index) / effC
		if store > l.energyWh {
			store = l.energyWh
		}
		if store > epsilonWh {
			tl.charge(l.index, store*effC)
			plans[l.index].StoreWh = store
		} else {
			store = 0
		}
		plans[l.index].ExportWh = l.energyWh - store
	}

	// Pass 2: serve deficits, dearest import price first.
	demands := make([]*demand, 0, len(readings))
	dh := demandHeap{}
	for i, r := range readings {
		if r.IsDeficit() {
			d := &demand{index: i, value: r.ImportPrice, remainingWh: -r.NetEnergyWh}
			demands = append(demands, d)
			dh = append(dh, d)
		}
	}
	heap.Init(&dh)
	for dh.Len() > 0 {
		d := heap.Pop(&dh).(*demand)
		deliver := tl.availableFrom(d.index) * effD
		if deliver > d.remainingWh {
			deliver = d.remainingWh
		}
		if deliver > epsilonWh {
			tl.discharge(d.index, deliver/effD)
			plans[d.index].DischargeWh = deliver
			d.remainingWh -= deliver
		}
	}

	if o.params.GridChargeEnabled {
		o.planGridCharging(plans, demands, tl)
	}

	// Whatever is still unmet comes from the grid.
	for _, d := range demands {
		plans[d.index].ImportWh = d.remainingWh
	}

	return plans
}

// planGridCharging creates grid-originated lots at cheap deficit steps and
// matches them to unmet future demands. The charge cap at a step is the grid
// connection's remaining power after feeding that step's own load, so
// grid-charge energy never exceeds MaxGridChargePowerW over the step.
func (o *Optimizer) planGridCharging(plans []model.StepPlan, demands []*demand, tl *timeline) {
	effC := o.params.ChargeEfficiency()
	effD := o.params.DischargeEfficiency()
	m := o.params.LossMultiplier()

	cands := candidateHeap{}
	for _, d := range demands {
		r := plans[d.index].Reading
		capWh := o.params.MaxGridChargePowerW*plans[d.index].Duration.Hours() + r.NetEnergyWh
		if capWh > epsilonWh {
			cands = append(cands, candidate{index: d.index, price: r.ImportPrice, capWh: capWh})
		}
	}
	heap.Init(&cands)

	for cands.Len() > 0 {
		c := heap.Pop(&cands).(candidate)
		for c.capWh > epsilonWh {
			// Earliest future demand that beats the round-trip threshold;
			// conservative, so no lot is created without a matching use.
			var target *demand
			for _, d := range demands {
				if d.index > c.index && d.remainingWh > epsilonWh && d.value > c.price*m {
					target = d
					break
				}
			}
			if target == nil {
				break
			}

			charge := tl.headroomFrom(c.index) / effC
			if charge > c.capWh {
				charge = c.capWh
			}
			if need := target.remainingWh / (effC * effD); charge > need {
				charge = need
			}
			if charge <= epsilonWh {
				break
			}

			stored := charge * effC
			tl.charge(c.index, stored)
			tl.discharge(target.index, stored)

			plans[c.index].GridChargeWh += charge
			plans[target.index].DischargeWh += stored * effD
			target.remainingWh -= stored * effD
			c.capWh -= charge
		}
	}
}
