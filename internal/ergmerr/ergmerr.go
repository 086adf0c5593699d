// Package ergmerr defines the fatal error kinds of the estimation pipeline
// (config-syntax, config-semantics, I/O, graph-integrity) plus the one
// non-fatal kind (numerical) that the sampler treats as a rejection rather
// than raising.
package ergmerr

import (
	"github.com/cockroachdb/errors"
)

// Kind classifies a fatal error so callers can branch on errors.Is without
// parsing message text.
type Kind int

const (
	// ConfigSyntax marks an unknown config key or a value that doesn't parse.
	ConfigSyntax Kind = iota
	// ConfigSemantics marks a config file that parses but makes no sense:
	// an unknown effect name, Arc listed alongside useIFDsampler, an
	// attribute/covariate reference that resolves to nothing.
	ConfigSemantics
	// IO marks a failure to open, read, or write a file.
	IO
	// GraphIntegrity marks a self-loop, duplicate arc, or malformed Pajek file.
	GraphIntegrity
	// Numerical marks a non-finite acceptance ratio. The sampler never
	// surfaces this as an error; it exists so callers that want to log the
	// event can still tag it consistently.
	Numerical
)

func (k Kind) String() string {
	switch k {
	case ConfigSyntax:
		return "config-syntax"
	case ConfigSemantics:
		return "config-semantics"
	case IO:
		return "io"
	case GraphIntegrity:
		return "graph-integrity"
	case Numerical:
		return "numerical"
	default:
		return "unknown"
	}
}

// sentinels are marker errors used with errors.Mark/errors.Is so Kind
// survives wrapping.
var sentinels = map[Kind]error{
	ConfigSyntax:    errors.New("config-syntax"),
	ConfigSemantics: errors.New("config-semantics"),
	IO:              errors.New("io"),
	GraphIntegrity:  errors.New("graph-integrity"),
	Numerical:       errors.New("numerical"),
}

// New builds a fresh error of the given kind with a stack trace attached.
func New(kind Kind, format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), sentinels[kind])
}

// Wrap attaches kind and a stack trace to an existing error.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), sentinels[kind])
}

// Is reports whether err (or anything it wraps) was tagged with kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, sentinels[kind])
}
