// Package sampler implements the two Metropolis toggle samplers (C3 basic,
// C4 IFD) that Algorithm S and Algorithm EE drive. Both mutate g
// transiently while evaluating a proposal and either commit or undo it
// before returning, so the net effect of a rejected proposal is always
// identity.
package sampler

import (
	"math"

	"github.com/gilchrisn/ergm-ee/internal/ergmerr"
	"github.com/gilchrisn/ergm-ee/internal/rng"
	"github.com/gilchrisn/ergm-ee/pkg/effects"
	"github.com/gilchrisn/ergm-ee/pkg/ergmgraph"
)

// maxRedraws bounds the dyad-selection redraw loops (§4.3 step 1) so a
// pathologically constrained graph (e.g. every inner node already at its
// last preceding-wave connection) fails loudly instead of hanging.
const maxRedraws = 1_000_000

// Flags controls proposal-generation mode, shared by both samplers.
type Flags struct {
	// PerformMove commits accepted proposals to g. False during Algorithm
	// S, which samples without mutating the graph.
	PerformMove bool
	// UseConditional restricts proposals to the snowball-conditional
	// dyad-selection rule (§4.3 step 1, conditional mode). g must have
	// zones attached.
	UseConditional bool
	// ForbidReciprocity rejects add-proposals that would create a mutual
	// dyad. Must be false when UseConditional is set (validated upstream).
	ForbidReciprocity bool
}

// Result is one sweep's output: the acceptance rate and, for every effect
// index in the caller's fixed order, the summed change statistics of
// accepted add moves and accepted delete moves respectively.
type Result struct {
	AddDelta       []float64
	DelDelta       []float64
	AcceptanceRate float64
}

// Basic runs one sweep of m Metropolis toggle proposals (C3, §4.3).
func Basic(g *ergmgraph.Graph, effs []effects.Effect, theta []float64, m int, flags Flags, r *rng.Source) (Result, error) {
	p := len(effs)
	res := Result{AddDelta: make([]float64, p), DelDelta: make([]float64, p)}
	accepted := 0

	delta := make([]float64, p)
	for step := 0; step < m; step++ {
		i, j, isDelete, err := selectDyad(g, flags, r)
		if err != nil {
			return res, err
		}

		if isDelete {
			if err := g.RemoveArc(i, j); err != nil {
				return res, err
			}
		}

		for k, e := range effs {
			delta[k] = e.Delta(g, i, j)
		}

		s := 1.0
		if isDelete {
			s = -1.0
		}
		total := 0.0
		for k := range effs {
			total += theta[k] * s * delta[k]
		}

		// §4.3 edge cases: a non-finite exp(total) is always a rejection,
		// never an accept, even though an unbounded ratio would otherwise
		// mean "always accept" — this is an explicit numerical-correctness
		// requirement, not an oversight.
		ratio := math.Exp(total)
		accept := !math.IsNaN(ratio) && !math.IsInf(ratio, 0) && r.Float64() < ratio

		switch {
		case accept && isDelete:
			accepted++
			for k := range effs {
				res.DelDelta[k] += delta[k]
			}
			if !flags.PerformMove {
				if err := g.InsertArc(i, j); err != nil {
					return res, err
				}
			}
		case accept && !isDelete:
			accepted++
			for k := range effs {
				res.AddDelta[k] += delta[k]
			}
			if flags.PerformMove {
				if err := g.InsertArc(i, j); err != nil {
					return res, err
				}
			}
		case !accept && isDelete:
			if err := g.InsertArc(i, j); err != nil {
				return res, err
			}
		default: // !accept && !isDelete: no mutation happened, nothing to undo
		}
	}

	res.AcceptanceRate = float64(accepted) / float64(m)
	return res, nil
}

// selectDyad implements §4.3 step 1: unconditional or snowball-conditional
// dyad selection, redrawing until all constraints are satisfied.
func selectDyad(g *ergmgraph.Graph, flags Flags, r *rng.Source) (i, j int, isDelete bool, err error) {
	n := g.N()
	if flags.UseConditional {
		zones := g.Zones()
		inner := zones.InnerNodes
		if len(inner) < 2 {
			return 0, 0, false, ergmerr.New(ergmerr.GraphIntegrity, "conditional sampler requires at least 2 inner nodes")
		}
		for attempt := 0; attempt < maxRedraws; attempt++ {
			a := inner[r.IntN(len(inner))]
			b := inner[r.IntN(len(inner))]
			if a == b {
				continue
			}
			if absInt(zones.Zone[a]-zones.Zone[b]) > 1 {
				continue
			}
			del := g.IsArc(a, b)
			if del && violatesLastConnection(zones, a, b, g) {
				continue
			}
			return a, b, del, nil
		}
		return 0, 0, false, ergmerr.New(ergmerr.GraphIntegrity, "conditional sampler: exceeded redraw budget selecting a dyad")
	}

	for attempt := 0; attempt < maxRedraws; attempt++ {
		a := r.IntN(n)
		b := r.IntN(n)
		if a == b {
			continue
		}
		del := g.IsArc(a, b)
		if flags.ForbidReciprocity && !del && g.IsArc(b, a) {
			continue
		}
		return a, b, del, nil
	}
	return 0, 0, false, ergmerr.New(ergmerr.GraphIntegrity, "sampler: exceeded redraw budget selecting a dyad")
}

// violatesLastConnection reports whether deleting the arc i->j (known to
// exist) would drop i's or j's last remaining (ignore-direction) neighbor
// connection to its preceding wave. If the reverse arc j->i also exists,
// the ignore-direction neighbor relationship survives the deletion and
// there is nothing to check.
func violatesLastConnection(zones *ergmgraph.SnowballZones, i, j int, g *ergmgraph.Graph) bool {
	if g.IsArc(j, i) {
		return false
	}
	if zones.Zone[j] == zones.Zone[i]-1 && zones.PrevWaveDegree[i] <= 1 {
		return true
	}
	if zones.Zone[i] == zones.Zone[j]-1 && zones.PrevWaveDegree[j] <= 1 {
		return true
	}
	return false
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
