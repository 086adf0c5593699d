package ergmgraph

import "testing"

// TestInsertRemoveConsistency exercises invariant 1 (§8): after any toggle,
// IsArc matches the adjacency list and the two-path counts equal their
// from-scratch definition.
func TestInsertRemoveConsistency(t *testing.T) {
	g := NewGraph(6)
	arcs := [][2]int{{0, 1}, {1, 2}, {2, 0}, {0, 2}, {3, 1}, {1, 4}}
	for _, a := range arcs {
		if err := g.InsertArc(a[0], a[1]); err != nil {
			t.Fatalf("InsertArc(%d,%d): %v", a[0], a[1], err)
		}
		if !g.IsArc(a[0], a[1]) {
			t.Fatalf("IsArc(%d,%d) false right after insert", a[0], a[1])
		}
		if !g.VerifyTwoPathCounts() {
			t.Fatalf("two-path counts inconsistent after inserting %d->%d", a[0], a[1])
		}
	}

	if err := g.RemoveArc(1, 2); err != nil {
		t.Fatalf("RemoveArc(1,2): %v", err)
	}
	if g.IsArc(1, 2) {
		t.Fatalf("IsArc(1,2) still true after removal")
	}
	if !g.VerifyTwoPathCounts() {
		t.Fatalf("two-path counts inconsistent after removing 1->2")
	}
}

func TestSelfLoopRejected(t *testing.T) {
	g := NewGraph(3)
	if err := g.InsertArc(1, 1); err == nil {
		t.Fatalf("expected self-loop to be rejected")
	}
}

func TestDuplicateArcRejected(t *testing.T) {
	g := NewGraph(3)
	if err := g.InsertArc(0, 1); err != nil {
		t.Fatalf("InsertArc(0,1): %v", err)
	}
	if err := g.InsertArc(0, 1); err == nil {
		t.Fatalf("expected duplicate arc to be rejected")
	}
}

func TestRemoveAbsentArcRejected(t *testing.T) {
	g := NewGraph(3)
	if err := g.RemoveArc(0, 1); err == nil {
		t.Fatalf("expected removal of absent arc to be rejected")
	}
}

func TestArcCorrection(t *testing.T) {
	g := NewGraph(4)
	for _, a := range [][2]int{{0, 1}, {1, 2}, {2, 3}} {
		if err := g.InsertArc(a[0], a[1]); err != nil {
			t.Fatalf("InsertArc: %v", err)
		}
	}
	// N = n*(n-1) = 12, L = 3: ln(3/9).
	got := g.ArcCorrection()
	want := -1.0986122886681098 // ln(1/3)
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("ArcCorrection() = %v, want %v", got, want)
	}
}

// TestPrevWaveDegreeRepair exercises the snowball bookkeeping invariant of
// §3/§4.1: prevWaveDegree[v] tracks ignore-direction neighbors in the
// preceding wave as arcs toggle.
func TestPrevWaveDegreeRepair(t *testing.T) {
	g := NewGraph(4)
	zone := []int{0, 1, 1, 2}
	prev := ComputePrevWaveDegree(g, zone)
	g.AttachZones(NewSnowballZones(zone, 2, prev))

	if err := g.InsertArc(0, 1); err != nil {
		t.Fatalf("InsertArc(0,1): %v", err)
	}
	if g.Zones().PrevWaveDegree[1] != 1 {
		t.Fatalf("PrevWaveDegree[1] = %d, want 1 after 0->1 insert", g.Zones().PrevWaveDegree[1])
	}

	if err := g.InsertArc(3, 2); err != nil {
		t.Fatalf("InsertArc(3,2): %v", err)
	}
	if g.Zones().PrevWaveDegree[3] != 1 {
		t.Fatalf("PrevWaveDegree[3] = %d, want 1 after 3->2 insert", g.Zones().PrevWaveDegree[3])
	}

	if err := g.RemoveArc(0, 1); err != nil {
		t.Fatalf("RemoveArc(0,1): %v", err)
	}
	if g.Zones().PrevWaveDegree[1] != 0 {
		t.Fatalf("PrevWaveDegree[1] = %d, want 0 after removing last wave-0 connection", g.Zones().PrevWaveDegree[1])
	}
}
