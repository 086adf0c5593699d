// Package effects is the change-statistic registry (component C2): a flat,
// indexed catalog of pure Δ(g,i,j) functions. Each function returns the
// change in its sufficient statistic caused by adding arc i->j to g's
// current state; the sampler (pkg/sampler) negates the result for
// deletions per §4.3.
package effects

import (
	"math"

	"github.com/gilchrisn/ergm-ee/internal/ergmerr"
	"github.com/gilchrisn/ergm-ee/pkg/ergmgraph"
)

// Kind distinguishes the four families of effect named in §4.2.
type Kind int

const (
	Struct Kind = iota
	Attr
	Dyadic
	AttrInteraction
)

// ArcEffectName is the reserved name for the Arc (edge-count) effect. It is
// a configuration error (§4.4, scenario S4) to list it as a structural
// effect when the IFD sampler is enabled, since IFD replaces it with the
// auxiliary parameter ifd_aux.
const ArcEffectName = "Arc"

// DeltaFunc computes the change in one sufficient statistic from adding
// arc i->j to g. attr1/attr2 name the attribute(s) the effect is bound to
// (empty for effects that need none). Implementations must not mutate g.
type DeltaFunc func(g *ergmgraph.Graph, i, j int, attr1, attr2 *ergmgraph.Attribute) float64

// Effect is one resolved, indexed registry entry: a name, its kind, its
// Δ-function, and (for Attr/Dyadic/AttrInteraction kinds) the attribute(s)
// it is bound to.
type Effect struct {
	Name  string
	Kind  Kind
	Fn    DeltaFunc
	Attr1 *ergmgraph.Attribute
	Attr2 *ergmgraph.Attribute
}

// structuralCatalog holds the parameter-less structural effects.
var structuralCatalog = map[string]DeltaFunc{
	// Arc: every added arc contributes exactly 1 to the edge count.
	ArcEffectName: func(g *ergmgraph.Graph, i, j int, _, _ *ergmgraph.Attribute) float64 {
		return 1
	},
	// Reciprocity: adding i->j creates a mutual dyad iff j->i already holds.
	"Reciprocity": func(g *ergmgraph.Graph, i, j int, _, _ *ergmgraph.Attribute) float64 {
		if g.IsArc(j, i) {
			return 1
		}
		return 0
	},
	// Transitivity: adding i->j completes one transitive triple for every
	// existing two-path i->k->j (i->j as the closing arc), every k with
	// j->k and i->k (i->j as the first arc), and every k with k->i and
	// k->j (i->j as the second arc). All three counts are maintained
	// incrementally in O(degree) by the graph store, so this is O(1).
	"Transitivity": func(g *ergmgraph.Graph, i, j int, _, _ *ergmgraph.Attribute) float64 {
		return float64(g.TwoPathOut(i, j) + g.TwoPathMixed(i, j) + g.TwoPathSharedIn(i, j))
	},
	// SharedPartner: the number of existing nodes that i and j both
	// already point to (the "mixed" two-path count), relevant for
	// shared-activity style statistics.
	"SharedPartner": func(g *ergmgraph.Graph, i, j int, _, _ *ergmgraph.Attribute) float64 {
		return float64(g.TwoPathMixed(i, j))
	},
	// OutStar2: the 2-out-star count increases by i's current out-degree
	// when a new out-arc is added from i (choose(d+1,2)-choose(d,2) = d).
	"OutStar2": func(g *ergmgraph.Graph, i, j int, _, _ *ergmgraph.Attribute) float64 {
		return float64(g.OutDegree(i))
	},
	// InStar2: symmetric 2-in-star count, keyed on j's in-degree.
	"InStar2": func(g *ergmgraph.Graph, i, j int, _, _ *ergmgraph.Attribute) float64 {
		return float64(g.InDegree(j))
	},
}

// attrCatalog holds effects bound to exactly one node attribute.
var attrCatalog = map[string]DeltaFunc{
	// Sender: the sender's covariate value contributes to every arc it sends.
	"Sender": func(g *ergmgraph.Graph, i, j int, a1, _ *ergmgraph.Attribute) float64 {
		return attrValue(a1, i)
	},
	// Receiver: symmetric, keyed on the receiver.
	"Receiver": func(g *ergmgraph.Graph, i, j int, a1, _ *ergmgraph.Attribute) float64 {
		return attrValue(a1, j)
	},
	// Homophily: 1 iff i and j share the same non-missing categorical value.
	"Homophily": func(g *ergmgraph.Graph, i, j int, a1, _ *ergmgraph.Attribute) float64 {
		ci, cj := a1.Categorical(i), a1.Categorical(j)
		if ci == ergmgraph.CategoricalMissing || cj == ergmgraph.CategoricalMissing {
			return 0
		}
		if ci == cj {
			return 1
		}
		return 0
	},
	// AbsDiff: negative absolute difference of a continuous covariate —
	// arcs become less likely the further apart i and j are on it.
	"AbsDiff": func(g *ergmgraph.Graph, i, j int, a1, _ *ergmgraph.Attribute) float64 {
		xi, xj := a1.Continuous(i), a1.Continuous(j)
		if math.IsNaN(xi) || math.IsNaN(xj) {
			return 0
		}
		return -math.Abs(xi - xj)
	},
}

// dyadicCatalog holds effects bound to a pair of node attributes that
// together define a per-dyad covariate.
var dyadicCatalog = map[string]DeltaFunc{
	// GeoDistance: negative Euclidean distance between (lat,long)-like
	// coordinate pairs bound via attr1 (e.g. "lat") and attr2 ("long").
	"GeoDistance": func(g *ergmgraph.Graph, i, j int, a1, a2 *ergmgraph.Attribute) float64 {
		li, lj := a1.Continuous(i), a1.Continuous(j)
		oi, oj := a2.Continuous(i), a2.Continuous(j)
		if math.IsNaN(li) || math.IsNaN(lj) || math.IsNaN(oi) || math.IsNaN(oj) {
			return 0
		}
		dLat := li - lj
		dLong := oi - oj
		return -math.Sqrt(dLat*dLat + dLong*dLong)
	},
}

// attrInteractionCatalog holds effects bound to a pair of attributes whose
// joint match (rather than separate binding) defines the statistic.
var attrInteractionCatalog = map[string]DeltaFunc{
	// DoubleHomophily: 1 iff i and j match on both bound categorical
	// attributes simultaneously.
	"DoubleHomophily": func(g *ergmgraph.Graph, i, j int, a1, a2 *ergmgraph.Attribute) float64 {
		c1i, c1j := a1.Categorical(i), a1.Categorical(j)
		c2i, c2j := a2.Categorical(i), a2.Categorical(j)
		if c1i == ergmgraph.CategoricalMissing || c1j == ergmgraph.CategoricalMissing ||
			c2i == ergmgraph.CategoricalMissing || c2j == ergmgraph.CategoricalMissing {
			return 0
		}
		if c1i == c1j && c2i == c2j {
			return 1
		}
		return 0
	},
}

func attrValue(a *ergmgraph.Attribute, node int) float64 {
	switch a.Kind {
	case ergmgraph.AttrBinary:
		return float64(a.Binary(node))
	case ergmgraph.AttrContinuous:
		v := a.Continuous(node)
		if math.IsNaN(v) {
			return 0
		}
		return v
	case ergmgraph.AttrCategorical:
		c := a.Categorical(node)
		if c == ergmgraph.CategoricalMissing {
			return 0
		}
		return float64(c)
	default:
		return 0
	}
}

func catalogFor(kind Kind) map[string]DeltaFunc {
	switch kind {
	case Struct:
		return structuralCatalog
	case Attr:
		return attrCatalog
	case Dyadic:
		return dyadicCatalog
	case AttrInteraction:
		return attrInteractionCatalog
	default:
		return nil
	}
}

// Lookup resolves a registered effect name within the given kind.
func Lookup(kind Kind, name string) (DeltaFunc, bool) {
	fn, ok := catalogFor(kind)[name]
	return fn, ok
}

// ParamSpec names one effect a config file requested, plus the attribute
// name(s) it binds to (empty for structural effects).
type ParamSpec struct {
	Name  string
	Kind  Kind
	Attr1 string
	Attr2 string
}

// Build resolves a list of ParamSpecs, in the fixed order the caller
// supplies them (struct, then attr, then dyadic, then attrInteraction per
// §4.3), into indexed Effects. It is a config-semantics error (§7) for a
// name to be unregistered or for a bound attribute name to not exist on g.
func Build(specs []ParamSpec, g *ergmgraph.Graph) ([]Effect, error) {
	out := make([]Effect, 0, len(specs))
	for _, spec := range specs {
		fn, ok := Lookup(spec.Kind, spec.Name)
		if !ok {
			return nil, ergmerr.New(ergmerr.ConfigSemantics, "unknown %s effect %q", kindName(spec.Kind), spec.Name)
		}
		var a1, a2 *ergmgraph.Attribute
		if spec.Attr1 != "" {
			a1, ok = g.Attribute(spec.Attr1)
			if !ok {
				return nil, ergmerr.New(ergmerr.ConfigSemantics, "effect %q references unknown attribute %q", spec.Name, spec.Attr1)
			}
		}
		if spec.Attr2 != "" {
			a2, ok = g.Attribute(spec.Attr2)
			if !ok {
				return nil, ergmerr.New(ergmerr.ConfigSemantics, "effect %q references unknown attribute %q", spec.Name, spec.Attr2)
			}
		}
		out = append(out, Effect{Name: spec.Name, Kind: spec.Kind, Fn: fn, Attr1: a1, Attr2: a2})
	}
	return out, nil
}

func kindName(k Kind) string {
	switch k {
	case Struct:
		return "structural"
	case Attr:
		return "attribute"
	case Dyadic:
		return "dyadic"
	case AttrInteraction:
		return "attribute-interaction"
	default:
		return "unknown"
	}
}

// Delta evaluates e's change statistic for an add of arc i->j.
func (e Effect) Delta(g *ergmgraph.Graph, i, j int) float64 {
	return e.Fn(g, i, j, e.Attr1, e.Attr2)
}
