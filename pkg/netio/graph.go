// Package netio implements the §6 external I/O formats: Pajek arc-list
// graphs (input and simulated-network output) and the whitespace-delimited
// node-attribute and zone files. Formats are fixed by the spec rather than
// any general-purpose serialization library, so files are read and written
// the way the teacher's own pkg/materialization/graph_io.go dispatches
// Save/Load by extension and writes with fmt.Fprintf — hand-rolled, not a
// generic graph-format library, since Pajek's arc-list dialect here isn't
// what any pack dependency parses.
package netio

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gilchrisn/ergm-ee/internal/ergmerr"
	"github.com/gilchrisn/ergm-ee/pkg/ergmgraph"
)

// LoadPajekGraph reads a Pajek arc-list file (§6): a `*Vertices N` header,
// a `*Arcs` marker, then 1-based `i j` arc lines. Self-loops and malformed
// lines are graph-integrity errors.
func LoadPajekGraph(path string) (*ergmgraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ergmerr.Wrap(ergmerr.IO, err, "open pajek graph %s", path)
	}
	defer f.Close()

	var g *ergmgraph.Graph
	inArcs := false
	lineNo := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "*vertices"):
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, ergmerr.New(ergmerr.GraphIntegrity, "%s:%d: malformed *Vertices line %q", path, lineNo, line)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, ergmerr.Wrap(ergmerr.GraphIntegrity, err, "%s:%d: bad vertex count", path, lineNo)
			}
			g = ergmgraph.NewGraph(n)
			inArcs = false
		case strings.HasPrefix(lower, "*arcs"):
			if g == nil {
				return nil, ergmerr.New(ergmerr.GraphIntegrity, "%s:%d: *Arcs before *Vertices", path, lineNo)
			}
			inArcs = true
		case strings.HasPrefix(line, "*"):
			// Any other Pajek section (*Edges, *Vertices attributes, ...) is
			// not part of this format; ignore its body until the next marker.
			inArcs = false
		default:
			if !inArcs {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, ergmerr.New(ergmerr.GraphIntegrity, "%s:%d: malformed arc line %q", path, lineNo, line)
			}
			i, err1 := strconv.Atoi(fields[0])
			j, err2 := strconv.Atoi(fields[1])
			if err1 != nil || err2 != nil {
				return nil, ergmerr.New(ergmerr.GraphIntegrity, "%s:%d: non-integer arc endpoints %q", path, lineNo, line)
			}
			if err := g.InsertArc(i-1, j-1); err != nil {
				return nil, ergmerr.Wrap(ergmerr.GraphIntegrity, err, "%s:%d", path, lineNo)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, ergmerr.Wrap(ergmerr.IO, err, "read %s", path)
	}
	if g == nil {
		return nil, ergmerr.New(ergmerr.GraphIntegrity, "%s: missing *Vertices header", path)
	}
	return g, nil
}

// SavePajekGraph writes g as a Pajek arc-list file (§6, used for the
// optional final simulated-network output). Arcs are emitted in sorted
// (i,j) order so repeated runs over the same graph produce byte-identical
// files.
func SavePajekGraph(g *ergmgraph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return ergmerr.Wrap(ergmerr.IO, err, "create %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "*Vertices %d\n", g.N())
	fmt.Fprintln(w, "*Arcs")
	for i := 0; i < g.N(); i++ {
		neighbors := g.OutNeighbors(i)
		sort.Ints(neighbors)
		for _, j := range neighbors {
			fmt.Fprintf(w, "%d %d\n", i+1, j+1)
		}
	}
	if err := w.Flush(); err != nil {
		return ergmerr.Wrap(ergmerr.IO, err, "flush %s", path)
	}
	return nil
}
