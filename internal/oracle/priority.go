// Package oracle decides whether, and how well, a value of one type
// can be supplied where another type is expected.
//
// Compatibility is expressed as a conversion priority: a non-negative
// integer where lower is better, or NoMatch when the pair is
// incompatible. The tier order is load-bearing for code generation:
// exact and subtype matches must beat any conversion, numeric widening
// must beat user-declared converters, and converters must beat the
// accept-anything-as-Object fallback. Changing it changes which
// adapter wins at a binding site across incremental builds.
package oracle

import (
	"binding-resolver/internal/typemodel"
)

// Conversion priorities, lower is better.
const (
	// NoMatch marks an incompatible pair.
	NoMatch = -1
	// Exact is nominal identity after erasure.
	Exact = 0
	// Assignable is a supertype or interface relationship. Two
	// candidates at this tier are compared by specificity rather than
	// priority, so the value is exported for the resolver's tie-break.
	Assignable = 1
	// Boxing is a primitive/boxed pair in either direction.
	Boxing = 2
	// wideningBase is added to the target's widening level for
	// implicit numeric conversions, giving the 3..9 range.
	wideningBase = 3
	// UserConversion is a registered conversion function.
	UserConversion = 10
	// ObjectFallback accepts a value of the root type for any
	// non-primitive parameter.
	ObjectFallback = 11
)

// ConversionSource answers whether a user-declared conversion function
// exists between two types. Implemented by the registry; nil disables
// the UserConversion tier.
type ConversionSource interface {
	HasConversion(from, to *typemodel.Class, imports map[string]string) bool
}

// Oracle computes conversion priorities over one type universe.
type Oracle struct {
	universe    *typemodel.Universe
	conversions ConversionSource
}

// New creates an oracle. conversions may be nil.
func New(universe *typemodel.Universe, conversions ConversionSource) *Oracle {
	return &Oracle{universe: universe, conversions: conversions}
}

// Priority returns the conversion priority for supplying a value of
// type from where to is expected, or NoMatch.
func (o *Oracle) Priority(from, to *typemodel.Class, imports map[string]string) int {
	if from == nil || to == nil {
		return NoMatch
	}

	if to.Equals(from) {
		return Exact
	}

	if o.universe.AssignableFrom(to, from) {
		return Assignable
	}

	if o.universe.IsBoxingPair(from, to) {
		return Boxing
	}

	if o.universe.IsImplicitConversion(from, to) {
		return wideningBase + to.Kind.ImplicitConversionLevel()
	}

	if o.conversions != nil && o.conversions.HasConversion(from, to, imports) {
		return UserConversion
	}

	if from.IsObject() && !to.IsPrimitive() {
		return ObjectFallback
	}

	return NoMatch
}

// Matches returns true when from can be supplied where to is expected
// at any tier.
func (o *Oracle) Matches(from, to *typemodel.Class, imports map[string]string) bool {
	return o.Priority(from, to, imports) != NoMatch
}
