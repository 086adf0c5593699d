package ergmgraph

// SnowballZones holds the optional snowball-sample wave structure used by
// conditional (snowball-respecting) estimation. Zone 0 is the seed set;
// MaxZone is the outermost observed wave Z.
type SnowballZones struct {
	// Zone[v] is node v's wave index.
	Zone []int
	// MaxZone is Z, the outermost wave index.
	MaxZone int
	// InnerNodes lists nodes with Zone < MaxZone — the only nodes eligible
	// for proposal under conditional estimation.
	InnerNodes []int
	// PrevWaveDegree[v] is |{u : (u,v) or (v,u) is an arc and Zone[u] ==
	// Zone[v]-1}|. Maintained by Graph.InsertArc/RemoveArc in lockstep with
	// arc toggles.
	PrevWaveDegree []int
}

// NewSnowballZones builds zone bookkeeping from a per-node zone assignment.
// prevWaveDegree must already reflect the graph's initial arc set; the
// caller is expected to have computed it once at load time (e.g. via
// ergmgraph.ComputePrevWaveDegree).
func NewSnowballZones(zone []int, maxZone int, prevWaveDegree []int) *SnowballZones {
	inner := make([]int, 0, len(zone))
	for v, z := range zone {
		if z < maxZone {
			inner = append(inner, v)
		}
	}
	return &SnowballZones{
		Zone:           append([]int(nil), zone...),
		MaxZone:        maxZone,
		InnerNodes:     inner,
		PrevWaveDegree: append([]int(nil), prevWaveDegree...),
	}
}

// ComputePrevWaveDegree derives prev_wave_degree for every node from
// scratch by scanning the graph's current arcs, per the invariant in §4.1:
// prevWaveDegree[v] = |{u : (u,v) or (v,u) is an arc and zone[u] ==
// zone[v]-1}|. Used at load time and by tests to set up zones.
func ComputePrevWaveDegree(g *Graph, zone []int) []int {
	out := make([]int, g.n)
	for v := 0; v < g.n; v++ {
		target := zone[v] - 1
		seen := make(map[int]struct{})
		for u := range g.out[v] {
			seen[u] = struct{}{}
		}
		for u := range g.in[v] {
			seen[u] = struct{}{}
		}
		count := 0
		for u := range seen {
			if zone[u] == target {
				count++
			}
		}
		out[v] = count
	}
	return out
}
