package sampler

import (
	"math"

	"github.com/gilchrisn/ergm-ee/internal/ergmerr"
	"github.com/gilchrisn/ergm-ee/internal/rng"
	"github.com/gilchrisn/ergm-ee/pkg/effects"
	"github.com/gilchrisn/ergm-ee/pkg/ergmgraph"
)

// IFDResult extends Result with the IFD-specific outputs of §4.4: the
// signed arc-count delta over the sweep, and the ifd_aux value to carry
// into the next sweep.
type IFDResult struct {
	Result
	// DzArc is N_del - N_add, the signed delta in accepted arc count.
	DzArc float64
	// NextIfdAux is ifd_aux after this sweep's update, to be used as the
	// *current* auxiliary for the following sweep. The Arc column for
	// *this* sweep is reported using the ifd_aux value passed in, not this
	// one (§9 open question, resolved in SPEC_FULL.md §12: the prior
	// sweep's value).
	NextIfdAux float64
}

// IFD runs one sweep of m paired add/del Metropolis proposals (C4, §4.4).
// effs must not include the Arc effect; ifdAux stands in for it in the
// acceptance rule. ifdK is the fixed step scale (config key ifd_K) used to
// adapt ifdAux from this sweep's DzArc, by the same shrink-towards-balance
// rule Algorithm EE applies to every other effect (§4.6): more accepted
// deletes than adds raises ifdAux by ifdK*DzArc^2, more adds than deletes
// lowers it by the same amount.
func IFD(g *ergmgraph.Graph, effs []effects.Effect, theta []float64, ifdAux, ifdK float64, m int, flags Flags, r *rng.Source) (IFDResult, error) {
	p := len(effs)
	res := IFDResult{Result: Result{AddDelta: make([]float64, p), DelDelta: make([]float64, p)}}
	accepted := 0
	var acceptedAdd, acceptedDel float64

	delta := make([]float64, p)
	for step := 0; step < m; step++ {
		// Add half: a random dyad currently absent.
		ai, aj, err := selectNonArc(g, r)
		if err != nil {
			return res, err
		}
		for k, e := range effs {
			delta[k] = e.Delta(g, ai, aj)
		}
		total := ifdAux
		for k := range effs {
			total += theta[k] * delta[k]
		}
		ratio := math.Exp(total)
		if !math.IsNaN(ratio) && !math.IsInf(ratio, 0) && r.Float64() < ratio {
			accepted++
			acceptedAdd++
			for k := range effs {
				res.AddDelta[k] += delta[k]
			}
			if flags.PerformMove {
				if err := g.InsertArc(ai, aj); err != nil {
					return res, err
				}
			}
		}

		// Del half: a random existing arc.
		di, dj, err := selectArc(g, r)
		if err != nil {
			return res, err
		}
		if err := g.RemoveArc(di, dj); err != nil {
			return res, err
		}
		for k, e := range effs {
			delta[k] = e.Delta(g, di, dj)
		}
		total = -ifdAux
		for k := range effs {
			total += theta[k] * -delta[k]
		}
		ratio = math.Exp(total)
		acceptDel := !math.IsNaN(ratio) && !math.IsInf(ratio, 0) && r.Float64() < ratio
		if acceptDel {
			accepted++
			acceptedDel++
			for k := range effs {
				res.DelDelta[k] += delta[k]
			}
			if !flags.PerformMove {
				if err := g.InsertArc(di, dj); err != nil {
					return res, err
				}
			}
		} else {
			if err := g.InsertArc(di, dj); err != nil {
				return res, err
			}
		}
	}

	res.AcceptanceRate = float64(accepted) / float64(2*m)
	res.DzArc = acceptedDel - acceptedAdd
	step := ifdK * res.DzArc * res.DzArc
	switch {
	case res.DzArc > 0:
		res.NextIfdAux = ifdAux + step
	case res.DzArc < 0:
		res.NextIfdAux = ifdAux - step
	default:
		res.NextIfdAux = ifdAux
	}
	return res, nil
}

func selectNonArc(g *ergmgraph.Graph, r *rng.Source) (int, int, error) {
	n := g.N()
	for attempt := 0; attempt < maxRedraws; attempt++ {
		a := r.IntN(n)
		b := r.IntN(n)
		if a == b || g.IsArc(a, b) {
			continue
		}
		return a, b, nil
	}
	return 0, 0, ergmerr.New(ergmerr.GraphIntegrity, "IFD sampler: exceeded redraw budget selecting a non-arc dyad")
}

func selectArc(g *ergmgraph.Graph, r *rng.Source) (int, int, error) {
	n := g.N()
	if g.ArcCount() == 0 {
		return 0, 0, ergmerr.New(ergmerr.GraphIntegrity, "IFD sampler: no arcs to delete")
	}
	for attempt := 0; attempt < maxRedraws; attempt++ {
		a := r.IntN(n)
		neigh := g.OutNeighbors(a)
		if len(neigh) == 0 {
			continue
		}
		b := neigh[r.IntN(len(neigh))]
		return a, b, nil
	}
	return 0, 0, ergmerr.New(ergmerr.GraphIntegrity, "IFD sampler: exceeded redraw budget selecting an arc")
}
