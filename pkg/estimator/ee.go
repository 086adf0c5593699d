package estimator

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Constants is the tunable-but-defaulted pair of magic numbers in the EE
// rescaling step (§9 design note): the floor applied to |μ| before
// dividing by it, and the minimum σ below which D₀ is left unchanged.
// Config keys `muFloor`/`sigmaThreshold` default to the source's 0.1/1e-10.
type Constants struct {
	MuFloor        float64
	SigmaThreshold float64
}

// DefaultConstants returns the present values named in §9.
func DefaultConstants() Constants {
	return Constants{MuFloor: 0.1, SigmaThreshold: 1e-10}
}

// EEResult is Algorithm EE's output (§4.6): the final θ. D₀ is discarded
// per spec; it is not returned.
type EEResult struct {
	Theta []float64
}

// RunEE implements Algorithm EE (§4.6). theta and d0 are mutated in place
// starting from Algorithm S's outputs; d0 is the caller's to discard
// afterward. The sweeper must have been constructed with
// Flags.PerformMove=true.
//
// emit is called for every inner iteration if outputAllSteps, else only
// when inner == 0, matching §4.6's "emit ... every iteration if
// outputAllSteps, else only when inner == 0". flushOuter is called once per
// outer iteration after the D₀ rescale, standing in for "flush output
// streams".
func RunEE(
	sw Sweeper,
	theta, d0 []float64,
	mOut, mIn, m int,
	acaEE, compC float64,
	c Constants,
	outputAllSteps bool,
	emit func(ThetaRow, []float64),
	flushOuter func(),
) (EEResult, error) {
	p := len(theta)
	dzA := make([]float64, p)
	diff := make([]float64, p)
	t := 0

	for outer := 0; outer < mOut; outer++ {
		thetaMatrix := make([][]float64, p)
		for k := range thetaMatrix {
			thetaMatrix[k] = make([]float64, mIn)
		}

		for inner := 0; inner < mIn; inner++ {
			addDelta, delDelta, acceptanceRate, err := sw.Sweep(theta)
			if err != nil {
				return EEResult{}, err
			}

			// dzA += addDelta - delDelta (§4.6): gonum/floats' SubTo/Add do
			// the elementwise combination the source hand-rolls.
			floats.SubTo(diff, addDelta, delDelta)
			floats.Add(dzA, diff)
			for k := 0; k < p; k++ {
				step := d0[k] * acaEE
				theta[k] += -sign(dzA[k]) * step * dzA[k] * dzA[k]
				thetaMatrix[k][inner] = theta[k]
			}

			if outputAllSteps || inner == 0 {
				row := ThetaRow{T: t, Theta: append([]float64(nil), theta...), AcceptanceRate: acceptanceRate}
				if v, ok := sw.ArcColumn(); ok {
					row.ArcColumn, row.HasArcColumn = v, true
				}
				if emit != nil {
					emit(row, append([]float64(nil), dzA...))
				}
			}
			t++
		}

		for k := 0; k < p; k++ {
			mu := stat.Mean(thetaMatrix[k], nil)
			sigma := stat.StdDev(thetaMatrix[k], nil)
			if math.Abs(mu) < c.MuFloor {
				mu = c.MuFloor
			}
			if sigma > c.SigmaThreshold {
				d0[k] *= math.Sqrt(compC / (sigma / math.Abs(mu)))
			}
		}

		if flushOuter != nil {
			flushOuter()
		}
	}

	return EEResult{Theta: theta}, nil
}
