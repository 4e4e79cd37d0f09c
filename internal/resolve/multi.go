package resolve

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"binding-resolver/internal/registry"
	"binding-resolver/internal/typemodel"
)

// ResolveMultiSetters plans multi-attribute adapter calls covering the
// given attributes on a view type. Candidates are ranked so that the
// call consuming the most attributes on the most specific view wins,
// then claimed greedily until no candidate overlaps the uncovered
// attributes. Each attribute is consumed by at most one call;
// attributes no returned call consumes stay with single-attribute
// resolution.
func (r *Resolver) ResolveMultiSetters(attributes []string, viewType *typemodel.Class,
	valueTypes []*typemodel.Class) []*MultiSetterCall {
	if viewType == nil || len(attributes) != len(valueTypes) {
		return nil
	}

	stripped := make([]string, len(attributes))
	for i, attr := range attributes {
		stripped[i] = registry.StripNamespace(attr)
	}

	values := valueTypes
	if viewType.IsGeneric() {
		values = make([]*typemodel.Class, len(valueTypes))
		for i, v := range valueTypes {
			values[i] = r.universe.EraseIfDependent(v, viewType.TypeParams)
		}

		viewType = viewType.Erasure()
	}

	matching := r.matchingMultiSetters(stripped, viewType, values)
	sort.SliceStable(matching, func(i, j int) bool {
		return r.compareMultiSetters(matching[i], matching[j]) < 0
	})

	var calls []*MultiSetterCall

	for len(matching) > 0 {
		best := matching[0]
		calls = append(calls, best)
		matching = removeConsumed(matching, best.Attributes)
	}

	return calls
}

// matchingMultiSetters collects every registered multi-attribute
// setter applicable to the view type and the supplied attributes.
func (r *Resolver) matchingMultiSetters(attributes []string, viewType *typemodel.Class,
	valueTypes []*typemodel.Class) []*MultiSetterCall {
	var setters []*MultiSetterCall

	r.store.MultiSetters(func(key *registry.MultiValueKey, desc registry.MethodDescriptor) {
		if key.RequireAll && len(key.Attributes) > len(attributes) {
			return
		}

		adapterViewType, err := r.universe.FindClass(key.ViewType, nil)
		if err != nil {
			r.log.Debug("unknown multi-setter view type", zap.String("type", key.ViewType), zap.Error(err))
			return
		}

		if !r.universe.AssignableFrom(adapterViewType.Erasure(), viewType) {
			return
		}

		if call := r.createMultiSetter(desc, key, attributes, valueTypes); call != nil {
			setters = append(setters, call)
		}
	})

	return setters
}

// createMultiSetter builds the call plan for one candidate, or nil
// when the supplied values cannot feed it. A supplied value may reach
// its parameter by assignment, boxing, widening, a registered
// conversion, or a downcast from the root type; anything else rejects
// the candidate.
func (r *Resolver) createMultiSetter(desc registry.MethodDescriptor, key *registry.MultiValueKey,
	allAttributes []string, values []*typemodel.Class) *MultiSetterCall {
	declared := len(key.Attributes)
	supplied := make([]bool, declared)
	casts := make([]string, declared)
	converters := make([]*registry.MethodDescriptor, declared)
	matched := 0

	for i, attr := range allAttributes {
		index := key.AttributeIndex(attr)
		if index < 0 {
			continue
		}

		supplied[index] = true
		matched++

		parameter, err := r.universe.FindClass(key.ParameterTypes[index], nil)
		if err != nil {
			r.log.Debug("unknown multi-setter parameter type",
				zap.String("type", key.ParameterTypes[index]), zap.Error(err))

			return nil
		}

		parameter = r.universe.MaybeErase(parameter)

		value := values[i]
		if r.universe.AssignableFrom(parameter, value) ||
			r.universe.IsBoxingPair(parameter, value) ||
			r.universe.IsImplicitConversion(value, parameter) {
			continue
		}

		converters[index] = r.store.ConversionFor(value, parameter, nil)
		if converters[index] == nil {
			if !value.IsObject() {
				return nil
			}

			casts[index] = key.ParameterTypes[index]
		}
	}

	if matched == 0 || (key.RequireAll && matched != declared) {
		return nil
	}

	consumed := make([]string, 0, matched)

	for i, attr := range key.Attributes {
		if supplied[i] {
			consumed = append(consumed, attr)
		}
	}

	return &MultiSetterCall{
		Adapter:    desc,
		Key:        key,
		Attributes: consumed,
		Supplied:   supplied,
		Converters: converters,
		Casts:      casts,
		universe:   r.universe,
	}
}

// compareMultiSetters orders candidates best-first. The stages:
// consumed-attribute count, declared-attribute count, view
// specificity, attribute names, per-attribute parameter quality
// (casts worst, then conversions, then widest primitive, then the
// more specific reference type), and finally the canonical key text
// so the order is total.
func (r *Resolver) compareMultiSetters(a, b *MultiSetterCall) int {
	if len(a.Attributes) != len(b.Attributes) {
		return len(b.Attributes) - len(a.Attributes)
	}

	if len(a.Key.Attributes) != len(b.Key.Attributes) {
		return len(b.Key.Attributes) - len(a.Key.Attributes)
	}

	viewA := r.knownClass(a.Key.ViewType).Erasure()
	viewB := r.knownClass(b.Key.ViewType).Erasure()

	if !viewA.Equals(viewB) {
		if r.universe.AssignableFrom(viewA, viewB) {
			return 1
		}

		return -1
	}

	attrsA := a.Key.SortedAttributes()
	attrsB := b.Key.SortedAttributes()

	for i := range attrsA {
		if c := strings.Compare(attrsA[i], attrsB[i]); c != 0 {
			return c
		}
	}

	for _, attr := range attrsA {
		indexA := a.Key.AttributeIndex(attr)
		indexB := b.Key.AttributeIndex(attr)

		typeA := r.knownClass(a.Key.ParameterTypes[indexA])
		typeB := r.knownClass(b.Key.ParameterTypes[indexB])

		if typeA == nil || typeB == nil || typeA.Equals(typeB) {
			continue
		}

		if a.Casts[indexA] != "" {
			if b.Casts[indexB] == "" {
				return 1
			}

			continue
		} else if b.Casts[indexB] != "" {
			return -1
		}

		if a.Converters[indexA] != nil {
			if b.Converters[indexB] == nil {
				return 1
			}

			continue
		} else if b.Converters[indexB] != nil {
			return -1
		}

		if typeA.IsPrimitive() {
			if !typeB.IsPrimitive() {
				return -1
			}

			if c := typeB.Kind.ImplicitConversionLevel() - typeA.Kind.ImplicitConversionLevel(); c != 0 {
				return c
			}

			continue
		} else if typeB.IsPrimitive() {
			return 1
		}

		if r.universe.AssignableFrom(typeA, typeB) {
			return 1
		} else if r.universe.AssignableFrom(typeB, typeA) {
			return -1
		}
	}

	return strings.Compare(a.Key.Canonical(), b.Key.Canonical())
}

// knownClass resolves a type name already validated during candidate
// collection. Nil only for declared parameter positions the binding
// site never supplied.
func (r *Resolver) knownClass(name string) *typemodel.Class {
	c, err := r.universe.FindClass(name, nil)
	if err != nil {
		return nil
	}

	return c
}

// removeConsumed drops every candidate that claims any of the
// consumed attributes, including the candidate they were taken from.
func removeConsumed(matching []*MultiSetterCall, consumed []string) []*MultiSetterCall {
	kept := matching[:0]

	for _, setter := range matching {
		overlap := false

		for _, attr := range consumed {
			if setter.ConsumesAttribute(attr) {
				overlap = true
				break
			}
		}

		if !overlap {
			kept = append(kept, setter)
		}
	}

	return kept
}
