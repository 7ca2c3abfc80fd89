package dispatch

// Priority structures for the greedy matcher. Ties in price always resolve
// to the earlier step so plans are deterministic.

// lot is a unit of storable energy tagged with its cost-basis: the export
// price forgone for surplus energy, or the import price paid for grid energy.
type lot struct {
	index     int
	costBasis float64
	energyWh  float64 // charge input side
}

// lotHeap pops the cheapest cost-basis first.
type lotHeap []lot

func (h lotHeap) Len() int { return len(h) }
func (h lotHeap) Less(i, j int) bool {
	if h[i].costBasis != h[j].costBasis {
		return h[i].costBasis < h[j].costBasis
	}
	return h[i].index < h[j].index
}
func (h lotHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *lotHeap) Push(x any) { *h = append(*h, x.(lot)) }
func (h *lotHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// demand is a deficit step whose grid import could be displaced by stored
// energy worth its import price.
type demand struct {
	index       int
	value       float64
	remainingWh float64 // load side
}

// demandHeap pops the highest value first.
type demandHeap []*demand

func (h demandHeap) Len() int { return len(h) }
func (h demandHeap) Less(i, j int) bool {
	if h[i].value != h[j].value {
		return h[i].value > h[j].value
	}
	return h[i].index < h[j].index
}
func (h demandHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *demandHeap) Push(x any) { *h = append(*h, x.(*demand)) }
func (h *demandHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// candidate is a step eligible for proactive grid charging.
type candidate struct {
	index int
	price float64
	capWh float64 // charge input side, net of the step's own load
}

// candidateHeap pops the cheapest import price first.
type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	if h[i].price != h[j].price {
		return h[i].price < h[j].price
	}
	return h[i].index < h[j].index
}
func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any) { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
