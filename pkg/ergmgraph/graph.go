// Package ergmgraph implements the directed graph store (component C1): a
// sparse adjacency representation with per-node typed attributes, the three
// auxiliary two-path count matrices the change-statistic registry needs for
// constant-time evaluation, and the optional snowball-zone bookkeeping that
// conditional estimation mutates in lockstep with arc toggles.
package ergmgraph

import (
	"math"

	"github.com/gilchrisn/ergm-ee/internal/ergmerr"
)

// Graph is a directed graph on nodes 0..N-1: no self-loops, no duplicate
// arcs. Adjacency is stored as per-node sets so IsArc, InsertArc, RemoveArc
// and neighbor enumeration are all O(degree), never O(n). The Δ-functions
// in pkg/effects take a *Graph but must never mutate it.
type Graph struct {
	n   int
	out []map[int]struct{}
	in  []map[int]struct{}

	arcCount int

	// twoPathOut[i][j] is the count of k with i->k and k->j: directed
	// two-paths used by transitivity-style structural effects.
	twoPathOut [][]int32
	// twoPathMixed[i][j] is the count of k with i->k and j->k: shared
	// out-neighbors, used by higher-order "mixed" statistics (e.g.
	// shared-activity effects).
	twoPathMixed [][]int32
	// twoPathSharedIn[i][j] is the count of k with k->i and k->j: shared
	// in-neighbors (common senders to both i and j). Together with
	// twoPathOut and twoPathMixed this covers all three roles a toggled
	// arc i->j can play in closing a transitive triple (i,k,j): closing
	// edge (twoPathOut), the "i->k" edge (twoPathMixed), or the "k->j"
	// edge (twoPathSharedIn) — see pkg/effects' Transitivity effect.
	//
	// All three matrices are maintained for i != j only; their diagonal
	// entries are never updated and stay zero.
	twoPathSharedIn [][]int32

	attrs     map[string]*Attribute
	attrOrder []string

	zones *SnowballZones
}

// NewGraph builds an empty directed graph on n nodes.
func NewGraph(n int) *Graph {
	g := &Graph{
		n:               n,
		out:             make([]map[int]struct{}, n),
		in:              make([]map[int]struct{}, n),
		twoPathOut:      make([][]int32, n),
		twoPathMixed:    make([][]int32, n),
		twoPathSharedIn: make([][]int32, n),
		attrs:           make(map[string]*Attribute),
	}
	for i := 0; i < n; i++ {
		g.out[i] = make(map[int]struct{})
		g.in[i] = make(map[int]struct{})
		g.twoPathOut[i] = make([]int32, n)
		g.twoPathMixed[i] = make([]int32, n)
		g.twoPathSharedIn[i] = make([]int32, n)
	}
	return g
}

// N returns the node count.
func (g *Graph) N() int { return g.n }

// ArcCount returns the current number of arcs.
func (g *Graph) ArcCount() int { return g.arcCount }

// IsArc reports whether the directed arc i->j is present.
func (g *Graph) IsArc(i, j int) bool {
	_, ok := g.out[i][j]
	return ok
}

// IsArcIgnoreDir reports whether i->j or j->i is present.
func (g *Graph) IsArcIgnoreDir(i, j int) bool {
	return g.IsArc(i, j) || g.IsArc(j, i)
}

// InsertArc adds the directed arc i->j. Precondition: the arc does not
// already exist and i != j; violations, along with either endpoint falling
// outside [0,N), are reported as graph-integrity errors rather than
// panics, since malformed Pajek input (§6) is the usual trigger.
func (g *Graph) InsertArc(i, j int) error {
	if i < 0 || i >= g.n || j < 0 || j >= g.n {
		return ergmerr.New(ergmerr.GraphIntegrity, "arc endpoint out of range: %d -> %d (N=%d)", i, j, g.n)
	}
	if i == j {
		return ergmerr.New(ergmerr.GraphIntegrity, "self-loop rejected: %d -> %d", i, j)
	}
	if g.IsArc(i, j) {
		return ergmerr.New(ergmerr.GraphIntegrity, "duplicate arc: %d -> %d", i, j)
	}

	hadReverse := g.IsArc(j, i)

	g.out[i][j] = struct{}{}
	g.in[j][i] = struct{}{}
	g.arcCount++

	// Two-path maintenance: adding i->j creates new directed two-paths
	// i->j->w for every existing out-neighbor w of j, and w->i->j for
	// every existing in-neighbor w of i. O(degree).
	for w := range g.out[j] {
		if w != i {
			g.twoPathOut[i][w]++
		}
	}
	for w := range g.in[i] {
		if w != j {
			g.twoPathOut[w][j]++
		}
	}
	// Mixed two-path maintenance: j now shares an out-neighbor-of-i-less
	// relation — every existing in-neighbor w of j (w->j) now also shares
	// j as a common out-neighbor-target with i (i->j, w->j).
	for w := range g.in[j] {
		if w != i {
			g.twoPathMixed[i][w]++
			g.twoPathMixed[w][i]++
		}
	}
	// Shared-in-neighbor maintenance: j gains a new in-neighbor, i — every
	// existing out-neighbor b of i (b != j) now also shares i as a common
	// sender with j (i->b, i->j).
	for b := range g.out[i] {
		if b != j {
			g.twoPathSharedIn[j][b]++
			g.twoPathSharedIn[b][j]++
		}
	}

	if g.zones != nil && !hadReverse {
		g.repairPrevWaveDegree(i, j, +1)
	}
	return nil
}

// RemoveArc deletes the directed arc i->j. Precondition: the arc exists.
func (g *Graph) RemoveArc(i, j int) error {
	if !g.IsArc(i, j) {
		return ergmerr.New(ergmerr.GraphIntegrity, "remove of absent arc: %d -> %d", i, j)
	}

	delete(g.out[i], j)
	delete(g.in[j], i)
	g.arcCount--

	for w := range g.out[j] {
		if w != i {
			g.twoPathOut[i][w]--
		}
	}
	for w := range g.in[i] {
		if w != j {
			g.twoPathOut[w][j]--
		}
	}
	for w := range g.in[j] {
		if w != i {
			g.twoPathMixed[i][w]--
			g.twoPathMixed[w][i]--
		}
	}
	for b := range g.out[i] {
		if b != j {
			g.twoPathSharedIn[j][b]--
			g.twoPathSharedIn[b][j]--
		}
	}

	if g.zones != nil && !g.IsArc(j, i) {
		g.repairPrevWaveDegree(i, j, -1)
	}
	return nil
}

// repairPrevWaveDegree applies the prev_wave_degree delta caused by the
// ignore-direction neighbor relationship between i and j appearing
// (delta=+1) or disappearing (delta=-1). Only called when the reverse arc
// does not also hold (i.e. the neighbor relationship genuinely changed).
func (g *Graph) repairPrevWaveDegree(i, j, delta int) {
	z := g.zones
	if z.Zone[j] == z.Zone[i]-1 {
		z.PrevWaveDegree[i] += delta
	}
	if z.Zone[i] == z.Zone[j]-1 {
		z.PrevWaveDegree[j] += delta
	}
}

// OutNeighbors returns a fresh slice of i's out-neighbors. Callers must not
// assume a particular container; this is a convenience copy, not the
// internal representation.
func (g *Graph) OutNeighbors(i int) []int {
	out := make([]int, 0, len(g.out[i]))
	for w := range g.out[i] {
		out = append(out, w)
	}
	return out
}

// InNeighbors returns a fresh slice of i's in-neighbors.
func (g *Graph) InNeighbors(i int) []int {
	out := make([]int, 0, len(g.in[i]))
	for w := range g.in[i] {
		out = append(out, w)
	}
	return out
}

// OutDegree returns i's out-degree.
func (g *Graph) OutDegree(i int) int { return len(g.out[i]) }

// InDegree returns i's in-degree.
func (g *Graph) InDegree(i int) int { return len(g.in[i]) }

// TwoPathOut returns the count of k with i->k and k->j.
func (g *Graph) TwoPathOut(i, j int) int32 { return g.twoPathOut[i][j] }

// TwoPathMixed returns the count of k with i->k and j->k.
func (g *Graph) TwoPathMixed(i, j int) int32 { return g.twoPathMixed[i][j] }

// TwoPathSharedIn returns the count of k with k->i and k->j.
func (g *Graph) TwoPathSharedIn(i, j int) int32 { return g.twoPathSharedIn[i][j] }

// ArcCorrection returns ln(L/(N-L)) for the IFD sampler (§4.1), where L is
// the current arc count and N = n*(n-1) is the number of ordered dyads
// excluding loops.
func (g *Graph) ArcCorrection() float64 {
	l := float64(g.arcCount)
	nDyads := float64(g.n) * float64(g.n-1)
	return math.Log(l / (nDyads - l))
}

// AttachAttribute registers a node attribute under its Name, overwriting
// any attribute previously registered under that name.
func (g *Graph) AttachAttribute(a *Attribute) {
	if _, exists := g.attrs[a.Name]; !exists {
		g.attrOrder = append(g.attrOrder, a.Name)
	}
	g.attrs[a.Name] = a
}

// Attribute looks up a registered attribute by name.
func (g *Graph) Attribute(name string) (*Attribute, bool) {
	a, ok := g.attrs[name]
	return a, ok
}

// AttachZones installs the snowball-zone bookkeeping. Must be called before
// any toggles are performed under conditional estimation.
func (g *Graph) AttachZones(z *SnowballZones) { g.zones = z }

// Zones returns the installed snowball zones, or nil if none.
func (g *Graph) Zones() *SnowballZones { return g.zones }

// VerifyTwoPathCounts recomputes the off-diagonal (i != j) entries of all
// three two-path matrices from scratch and reports whether they match the
// incrementally-maintained state. Used by tests asserting invariant 1
// (graph consistency); not used on the hot path.
func (g *Graph) VerifyTwoPathCounts() bool {
	for i := 0; i < g.n; i++ {
		for j := 0; j < g.n; j++ {
			if i == j {
				continue
			}
			var wantOut, wantMixed, wantSharedIn int32
			for k := 0; k < g.n; k++ {
				if g.IsArc(i, k) && g.IsArc(k, j) {
					wantOut++
				}
				if g.IsArc(i, k) && g.IsArc(j, k) {
					wantMixed++
				}
				if g.IsArc(k, i) && g.IsArc(k, j) {
					wantSharedIn++
				}
			}
			if g.twoPathOut[i][j] != wantOut || g.twoPathMixed[i][j] != wantMixed || g.twoPathSharedIn[i][j] != wantSharedIn {
				return false
			}
		}
	}
	return true
}
