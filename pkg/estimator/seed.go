package estimator

import "gonum.org/v1/gonum/floats"

// SeedResult is Algorithm S's output (§4.5): the seed parameter vector and
// the per-effect step-scale estimate that seeds Algorithm EE's D₀.
type SeedResult struct {
	Theta []float64
	Dmean []float64
}

// ThetaRow is one emitted row of the θ output stream (§6): the iteration
// index, the current θ, the acceptance rate of the sweep that produced it,
// and — for an IFD sweeper — the reported Arc-equivalent column.
type ThetaRow struct {
	T              int
	Theta          []float64
	AcceptanceRate float64
	ArcColumn      float64
	HasArcColumn   bool
}

// RunSeed implements Algorithm S (§4.5): θ starts at 0, every sweep is run
// with perform_move=false (the sweeper itself must have been constructed
// with Flags.PerformMove=false; RunSeed does not enforce this), and each
// effect's θ and D₀ accumulate from the sweep's signed and summed change
// statistics.
//
// emit is called once per iteration t = 0..m1-1 with row.T set to t - m1,
// so the emitted theta-stream rows run t = -m1..-1.
func RunSeed(sw Sweeper, p, m1, m int, acaS float64, emit func(ThetaRow)) (SeedResult, error) {
	theta := make([]float64, p)
	d0 := make([]float64, p)
	dzAt := make([]float64, p)
	sumD := make([]float64, p)

	for t := 0; t < m1; t++ {
		addDelta, delDelta, acceptanceRate, err := sw.Sweep(theta)
		if err != nil {
			return SeedResult{}, err
		}

		// dzA_t = delDelta - addDelta, sumD = delDelta + addDelta (§4.5):
		// both are per-effect vector combinations of this sweep's two
		// outputs, so gonum/floats' SubTo/AddTo do the elementwise work the
		// source's explicit loop would otherwise hand-roll.
		floats.SubTo(dzAt, delDelta, addDelta)
		floats.AddTo(sumD, delDelta, addDelta)

		for k := 0; k < p; k++ {
			d0[k] += dzAt[k] * dzAt[k]

			var aca float64
			if sumD[k] != 0 {
				aca = acaS / (sumD[k] * sumD[k])
			}
			theta[k] += sign(dzAt[k]) * aca * dzAt[k] * dzAt[k]
		}

		row := ThetaRow{T: t - m1, Theta: append([]float64(nil), theta...), AcceptanceRate: acceptanceRate}
		if v, ok := sw.ArcColumn(); ok {
			row.ArcColumn, row.HasArcColumn = v, true
		}
		if emit != nil {
			emit(row)
		}
	}

	dmean := make([]float64, p)
	for k := 0; k < p; k++ {
		if d0[k] != 0 {
			dmean[k] = float64(m) / d0[k]
		}
	}
	return SeedResult{Theta: theta, Dmean: dmean}, nil
}
