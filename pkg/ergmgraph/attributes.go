package ergmgraph

import "math"

// AttrKind distinguishes how an attribute's values are stored and how
// "missing" is represented for it.
type AttrKind int

const (
	// AttrBinary holds 0/1 values.
	AttrBinary AttrKind = iota
	// AttrCategorical holds non-negative integer ids; CategoricalMissing
	// marks a missing value.
	AttrCategorical
	// AttrContinuous holds doubles; NaN marks a missing value.
	AttrContinuous
	// AttrSet holds a small bitset per node (up to 64 members).
	AttrSet
)

// CategoricalMissing is the sentinel returned by Attribute.Categorical for
// a node with no recorded category.
const CategoricalMissing int32 = -1

// Attribute is one immutable, typed, per-node value table. Only the field
// matching Kind is populated.
type Attribute struct {
	Name        string
	Kind        AttrKind
	binary      []int8
	categorical []int32
	continuous  []float64
	set         []uint64
}

// NewBinaryAttribute builds an immutable binary attribute from one 0/1
// value per node, in node order.
func NewBinaryAttribute(name string, values []int8) *Attribute {
	cp := append([]int8(nil), values...)
	return &Attribute{Name: name, Kind: AttrBinary, binary: cp}
}

// NewCategoricalAttribute builds an immutable categorical attribute.
// CategoricalMissing marks a node with no category.
func NewCategoricalAttribute(name string, values []int32) *Attribute {
	cp := append([]int32(nil), values...)
	return &Attribute{Name: name, Kind: AttrCategorical, categorical: cp}
}

// NewContinuousAttribute builds an immutable continuous attribute. NaN
// marks a missing value.
func NewContinuousAttribute(name string, values []float64) *Attribute {
	cp := append([]float64(nil), values...)
	return &Attribute{Name: name, Kind: AttrContinuous, continuous: cp}
}

// NewSetAttribute builds an immutable small-bitset attribute.
func NewSetAttribute(name string, values []uint64) *Attribute {
	cp := append([]uint64(nil), values...)
	return &Attribute{Name: name, Kind: AttrSet, set: cp}
}

// Binary returns node i's 0/1 value. Panics if Kind != AttrBinary.
func (a *Attribute) Binary(i int) int8 { return a.binary[i] }

// Categorical returns node i's category id, or CategoricalMissing.
// Panics if Kind != AttrCategorical.
func (a *Attribute) Categorical(i int) int32 { return a.categorical[i] }

// Continuous returns node i's value, or NaN if missing.
// Panics if Kind != AttrContinuous.
func (a *Attribute) Continuous(i int) float64 { return a.continuous[i] }

// IsMissingContinuous reports whether node i's continuous value is NaN.
func (a *Attribute) IsMissingContinuous(i int) bool {
	return math.IsNaN(a.continuous[i])
}

// Set returns node i's bitset. Panics if Kind != AttrSet.
func (a *Attribute) Set(i int) uint64 { return a.set[i] }

// Len returns the number of node rows backing this attribute, so callers
// can check it against a graph's N before attaching.
func (a *Attribute) Len() int {
	switch a.Kind {
	case AttrBinary:
		return len(a.binary)
	case AttrCategorical:
		return len(a.categorical)
	case AttrContinuous:
		return len(a.continuous)
	default:
		return len(a.set)
	}
}
