package sampler

import (
	"math"
	"testing"

	"github.com/gilchrisn/ergm-ee/internal/rng"
	"github.com/gilchrisn/ergm-ee/pkg/effects"
	"github.com/gilchrisn/ergm-ee/pkg/ergmgraph"
)

func arcEffects(t *testing.T, g *ergmgraph.Graph, names ...string) []effects.Effect {
	specs := make([]effects.ParamSpec, len(names))
	for i, n := range names {
		specs[i] = effects.ParamSpec{Name: n, Kind: effects.Struct}
	}
	effs, err := effects.Build(specs, g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return effs
}

// TestBasicPerformMoveFalseLeavesGraphUnchanged exercises §4.3's edge case
// that perform_move=false only transiently mutates the graph: the net effect
// of a whole sweep must be identity on the arc set.
func TestBasicPerformMoveFalseLeavesGraphUnchanged(t *testing.T) {
	g := ergmgraph.NewGraph(6)
	for _, a := range [][2]int{{0, 1}, {1, 2}, {2, 3}} {
		if err := g.InsertArc(a[0], a[1]); err != nil {
			t.Fatalf("InsertArc: %v", err)
		}
	}
	before := snapshotArcs(g)

	effs := arcEffects(t, g, effects.ArcEffectName, "Reciprocity")
	theta := []float64{0, 0}
	r := rng.New(42)
	if _, err := Basic(g, effs, theta, 500, Flags{PerformMove: false}, r); err != nil {
		t.Fatalf("Basic: %v", err)
	}

	after := snapshotArcs(g)
	if !sameArcs(before, after) {
		t.Fatalf("perform_move=false mutated the graph: before=%v after=%v", before, after)
	}
}

// TestBasicForbidReciprocityNeverCreatesMutualDyad checks that an add
// proposal onto an existing reverse arc is always redrawn when
// ForbidReciprocity is set (§4.3 step 1).
func TestBasicForbidReciprocityNeverCreatesMutualDyad(t *testing.T) {
	g := ergmgraph.NewGraph(4)
	for _, a := range [][2]int{{0, 1}, {1, 2}} {
		if err := g.InsertArc(a[0], a[1]); err != nil {
			t.Fatalf("InsertArc: %v", err)
		}
	}
	effs := arcEffects(t, g, effects.ArcEffectName)
	theta := []float64{5} // high theta so essentially every add proposal is accepted
	r := rng.New(7)
	if _, err := Basic(g, effs, theta, 2000, Flags{PerformMove: true, ForbidReciprocity: true}, r); err != nil {
		t.Fatalf("Basic: %v", err)
	}
	for i := 0; i < g.N(); i++ {
		for _, j := range g.OutNeighbors(i) {
			if g.IsArc(j, i) {
				t.Fatalf("mutual dyad %d<->%d created despite ForbidReciprocity", i, j)
			}
		}
	}
}

// TestIFDPreservesArcCount checks property 5 (§8): with theta=0 and
// ifd_aux=0 every add and every delete is accepted, so each pair leaves the
// arc count unchanged; the DzArc the sampler reports must match the actual
// change observed in g.
func TestIFDPreservesArcCount(t *testing.T) {
	g := ergmgraph.NewGraph(20)
	r := rng.New(3)
	for k := 0; k < 40; k++ {
		i, j := r.IntN(20), r.IntN(20)
		if i == j || g.IsArc(i, j) {
			continue
		}
		g.InsertArc(i, j)
	}
	before := g.ArcCount()

	effs := arcEffects(t, g, "Reciprocity")
	theta := []float64{0}
	res, err := IFD(g, effs, theta, 0, 0.1, 50, Flags{PerformMove: true}, r)
	if err != nil {
		t.Fatalf("IFD: %v", err)
	}

	after := g.ArcCount()
	if got, want := float64(before-after), res.DzArc; got != want {
		t.Fatalf("observed arc-count delta %v, reported DzArc %v", got, want)
	}
}

// TestBasicRejectsNonFiniteRatio checks the §4.3 edge case: a non-finite
// exp(total) must be treated as a rejection, never an accept.
func TestBasicRejectsNonFiniteRatio(t *testing.T) {
	g := ergmgraph.NewGraph(3)
	effs := arcEffects(t, g, effects.ArcEffectName)
	// theta large enough that exp(total) overflows to +Inf for an add proposal.
	theta := []float64{1e308}
	r := rng.New(1)
	res, err := Basic(g, effs, theta, 1, Flags{PerformMove: true}, r)
	if err != nil {
		t.Fatalf("Basic: %v", err)
	}
	if math.IsInf(math.Exp(theta[0]), 1) && res.AcceptanceRate != 0 {
		t.Fatalf("expected non-finite ratio to be rejected, got acceptance rate %v", res.AcceptanceRate)
	}
}

// TestConditionalNeverTogglesOutermostBoundary checks invariant 6 (§8):
// under snowball-conditional proposals, no accepted toggle ever touches an
// arc entirely within the outermost wave or between the outermost and
// second-outermost waves — only inner_nodes (zone < maxZone) are ever
// endpoints of a proposal.
func TestConditionalNeverTogglesOutermostBoundary(t *testing.T) {
	n := 30
	zone := make([]int, n)
	for v := range zone {
		switch {
		case v < 10:
			zone[v] = 0
		case v < 20:
			zone[v] = 1
		default:
			zone[v] = 2 // outermost wave, Z=2
		}
	}
	g := ergmgraph.NewGraph(n)
	r := rng.New(11)
	for k := 0; k < 80; k++ {
		i, j := r.IntN(n), r.IntN(n)
		if i == j || g.IsArc(i, j) || absInt(zone[i]-zone[j]) > 1 {
			continue
		}
		g.InsertArc(i, j)
	}
	prev := ergmgraph.ComputePrevWaveDegree(g, zone)
	g.AttachZones(ergmgraph.NewSnowballZones(zone, 2, prev))

	outermostBefore := outermostArcSet(g, zone)

	effs := arcEffects(t, g, "Reciprocity")
	theta := []float64{0.5}
	if _, err := Basic(g, effs, theta, 2000, Flags{PerformMove: true, UseConditional: true}, r); err != nil {
		t.Fatalf("Basic: %v", err)
	}

	outermostAfter := outermostArcSet(g, zone)
	if !sameArcs(outermostBefore, outermostAfter) {
		t.Fatalf("conditional sampler touched an outermost-wave arc: before=%v after=%v", outermostBefore, outermostAfter)
	}
}

// outermostArcSet returns the arcs whose endpoints are both in the
// outermost wave, or straddle the outermost/second-outermost boundary —
// exactly the set conditional estimation must hold fixed.
func outermostArcSet(g *ergmgraph.Graph, zone []int) map[[2]int]bool {
	maxZone := 0
	for _, z := range zone {
		if z > maxZone {
			maxZone = z
		}
	}
	out := make(map[[2]int]bool)
	for i := 0; i < g.N(); i++ {
		for _, j := range g.OutNeighbors(i) {
			ziOuter := zone[i] == maxZone
			zjOuter := zone[j] == maxZone
			straddles := (zone[i] == maxZone && zone[j] == maxZone-1) || (zone[j] == maxZone && zone[i] == maxZone-1)
			if (ziOuter && zjOuter) || straddles {
				out[[2]int{i, j}] = true
			}
		}
	}
	return out
}

func snapshotArcs(g *ergmgraph.Graph) map[[2]int]bool {
	out := make(map[[2]int]bool)
	for i := 0; i < g.N(); i++ {
		for _, j := range g.OutNeighbors(i) {
			out[[2]int{i, j}] = true
		}
	}
	return out
}

func sameArcs(a, b map[[2]int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
