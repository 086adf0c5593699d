package effects

import (
	"testing"

	"github.com/gilchrisn/ergm-ee/pkg/ergmgraph"
)

// statArc, statReciprocity and statTransitivity recompute each structural
// statistic from scratch, so
// TestChangeStatLocality can check f(g') - f(g) == Delta_f(g,i,j) (§8
// invariant 2) without relying on the incremental Delta functions.
func statArc(g *ergmgraph.Graph) float64 { return float64(g.ArcCount()) }

func statReciprocity(g *ergmgraph.Graph) float64 {
	count := 0.0
	for i := 0; i < g.N(); i++ {
		for _, j := range g.OutNeighbors(i) {
			if g.IsArc(j, i) {
				count++
			}
		}
	}
	return count / 2 // each mutual pair counted from both directions
}

func statTransitivity(g *ergmgraph.Graph) float64 {
	count := 0.0
	for i := 0; i < g.N(); i++ {
		for _, k := range g.OutNeighbors(i) {
			for _, j := range g.OutNeighbors(k) {
				if g.IsArc(i, j) {
					count++
				}
			}
		}
	}
	return count
}

func buildTestGraph() *ergmgraph.Graph {
	g := ergmgraph.NewGraph(5)
	for _, a := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {1, 0}} {
		g.InsertArc(a[0], a[1])
	}
	return g
}

// TestChangeStatLocality checks invariant 2 (§8): for every structural
// effect and every candidate toggle, the from-scratch statistic delta
// equals the registered Delta function's output.
func TestChangeStatLocality(t *testing.T) {
	cases := []struct {
		name string
		stat func(*ergmgraph.Graph) float64
	}{
		{ArcEffectName, statArc},
		{"Reciprocity", statReciprocity},
		{"Transitivity", statTransitivity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fn, ok := Lookup(Struct, tc.name)
			if !ok {
				t.Fatalf("effect %q not registered", tc.name)
			}
			for i := 0; i < 5; i++ {
				for j := 0; j < 5; j++ {
					if i == j {
						continue
					}
					g := buildTestGraph()
					if g.IsArc(i, j) {
						continue // add-toggle locality only; see TestSignSymmetry for deletes
					}
					before := tc.stat(g)
					want := fn(g, i, j, nil, nil)
					g.InsertArc(i, j)
					after := tc.stat(g)
					got := after - before
					if got != want {
						t.Fatalf("%s: Delta(%d,%d)=%v but f(g')-f(g)=%v", tc.name, i, j, want, got)
					}
				}
			}
		})
	}
}

// TestSignSymmetry checks invariant 3 (§8) for an existing arc: the
// sampler's deletion contribution (§4.3 step 2: remove, evaluate, negate)
// must equal the from-scratch statistic change f(g \ {i->j}) - f(g).
func TestSignSymmetry(t *testing.T) {
	cases := []struct {
		name string
		stat func(*ergmgraph.Graph) float64
	}{
		{ArcEffectName, statArc},
		{"Reciprocity", statReciprocity},
		{"Transitivity", statTransitivity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fn, ok := Lookup(Struct, tc.name)
			if !ok {
				t.Fatalf("effect %q not registered", tc.name)
			}
			for i := 0; i < 5; i++ {
				for j := 0; j < 5; j++ {
					if i == j {
						continue
					}
					g := buildTestGraph()
					if !g.IsArc(i, j) {
						continue
					}
					before := tc.stat(g)
					g.RemoveArc(i, j)
					addBack := fn(g, i, j, nil, nil)
					after := tc.stat(g)
					delDelta := -addBack
					if got := after - before; got != delDelta {
						t.Fatalf("%s: f(g\\{%d->%d})-f(g)=%v, want %v (=-Delta)", tc.name, i, j, got, delDelta)
					}
				}
			}
		})
	}
}

func TestBuildResolvesAttributeBindings(t *testing.T) {
	g := ergmgraph.NewGraph(3)
	g.AttachAttribute(ergmgraph.NewBinaryAttribute("sex", []int8{0, 1, 1}))

	specs := []ParamSpec{{Name: "Sender", Kind: Attr, Attr1: "sex"}}
	effs, err := Build(specs, g)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(effs) != 1 || effs[0].Attr1 == nil {
		t.Fatalf("expected resolved attribute binding, got %+v", effs)
	}
	if got := effs[0].Delta(g, 1, 0); got != 1 {
		t.Fatalf("Sender effect at sender node 1 = %v, want 1", got)
	}
}

func TestBuildRejectsUnknownEffect(t *testing.T) {
	g := ergmgraph.NewGraph(2)
	_, err := Build([]ParamSpec{{Name: "NoSuchEffect", Kind: Struct}}, g)
	if err == nil {
		t.Fatalf("expected error for unknown effect name")
	}
}

func TestBuildRejectsUnknownAttribute(t *testing.T) {
	g := ergmgraph.NewGraph(2)
	_, err := Build([]ParamSpec{{Name: "Sender", Kind: Attr, Attr1: "missing"}}, g)
	if err == nil {
		t.Fatalf("expected error for unresolved attribute reference")
	}
}
