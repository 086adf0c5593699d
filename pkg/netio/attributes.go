package netio

import (
	"bufio"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gilchrisn/ergm-ee/internal/ergmerr"
	"github.com/gilchrisn/ergm-ee/pkg/ergmgraph"
)

// readColumnTable reads a whitespace-delimited attribute file (§6): a
// header line naming columns, then one row per node in order 1..N. Returns
// the header and the raw string cells, leaving type-specific parsing to
// the caller.
func readColumnTable(path string) (header []string, rows [][]string, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return nil, nil, ergmerr.Wrap(ergmerr.IO, openErr, "open attribute file %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if header == nil {
			header = fields
			continue
		}
		if len(fields) != len(header) {
			return nil, nil, ergmerr.New(ergmerr.IO, "%s:%d: expected %d columns, got %d", path, lineNo, len(header), len(fields))
		}
		rows = append(rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, ergmerr.Wrap(ergmerr.IO, err, "read %s", path)
	}
	if header == nil {
		return nil, nil, ergmerr.New(ergmerr.IO, "%s: missing header line", path)
	}
	return header, rows, nil
}

// LoadBinaryAttributes loads a binattrFile (§6) into one *ergmgraph.Attribute
// per column, keyed by column name.
func LoadBinaryAttributes(path string) (map[string]*ergmgraph.Attribute, error) {
	header, rows, err := readColumnTable(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*ergmgraph.Attribute, len(header))
	for col, name := range header {
		vals := make([]int8, len(rows))
		for r, row := range rows {
			v, err := strconv.ParseInt(row[col], 10, 8)
			if err != nil {
				return nil, ergmerr.Wrap(ergmerr.IO, err, "%s: row %d column %q: bad binary value %q", path, r+1, name, row[col])
			}
			vals[r] = int8(v)
		}
		out[name] = ergmgraph.NewBinaryAttribute(name, vals)
	}
	return out, nil
}

// LoadCategoricalAttributes loads a catattrFile (§6). Any negative value is
// treated as the ergmgraph.CategoricalMissing sentinel, per §6's "sentinel
// negative" missing-value convention.
func LoadCategoricalAttributes(path string) (map[string]*ergmgraph.Attribute, error) {
	header, rows, err := readColumnTable(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*ergmgraph.Attribute, len(header))
	for col, name := range header {
		vals := make([]int32, len(rows))
		for r, row := range rows {
			v, err := strconv.ParseInt(row[col], 10, 32)
			if err != nil {
				return nil, ergmerr.Wrap(ergmerr.IO, err, "%s: row %d column %q: bad categorical value %q", path, r+1, name, row[col])
			}
			if v < 0 {
				vals[r] = ergmgraph.CategoricalMissing
			} else {
				vals[r] = int32(v)
			}
		}
		out[name] = ergmgraph.NewCategoricalAttribute(name, vals)
	}
	return out, nil
}

// LoadContinuousAttributes loads a contattrFile (§6). The literal string
// "NA" marks a missing value and is stored as NaN.
func LoadContinuousAttributes(path string) (map[string]*ergmgraph.Attribute, error) {
	header, rows, err := readColumnTable(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*ergmgraph.Attribute, len(header))
	for col, name := range header {
		vals := make([]float64, len(rows))
		for r, row := range rows {
			cell := row[col]
			if strings.EqualFold(cell, "NA") {
				vals[r] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, ergmerr.Wrap(ergmerr.IO, err, "%s: row %d column %q: bad continuous value %q", path, r+1, name, cell)
			}
			vals[r] = v
		}
		out[name] = ergmgraph.NewContinuousAttribute(name, vals)
	}
	return out, nil
}

// LoadSetAttributes loads a setattrFile (§6): each cell is a non-negative
// integer bitmask (up to 64 members) representing the node's set.
func LoadSetAttributes(path string) (map[string]*ergmgraph.Attribute, error) {
	header, rows, err := readColumnTable(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*ergmgraph.Attribute, len(header))
	for col, name := range header {
		vals := make([]uint64, len(rows))
		for r, row := range rows {
			v, err := strconv.ParseUint(row[col], 10, 64)
			if err != nil {
				return nil, ergmerr.Wrap(ergmerr.IO, err, "%s: row %d column %q: bad set value %q", path, r+1, name, row[col])
			}
			vals[r] = v
		}
		out[name] = ergmgraph.NewSetAttribute(name, vals)
	}
	return out, nil
}

// LoadZones loads a zoneFile (§6, data model §3): a single "zone" column
// giving each node's wave index in node order. The max observed value is Z.
func LoadZones(path string) (zone []int, maxZone int, err error) {
	header, rows, err := readColumnTable(path)
	if err != nil {
		return nil, 0, err
	}
	if len(header) != 1 {
		return nil, 0, ergmerr.New(ergmerr.IO, "%s: zone file must have exactly one column, got %d", path, len(header))
	}
	zone = make([]int, len(rows))
	for r, row := range rows {
		v, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, 0, ergmerr.Wrap(ergmerr.IO, err, "%s: row %d: bad zone value %q", path, r+1, row[0])
		}
		zone[r] = v
		if v > maxZone {
			maxZone = v
		}
	}
	return zone, maxZone, nil
}
