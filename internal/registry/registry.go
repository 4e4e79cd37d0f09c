// Package registry stores binding adapter, converter, and inverse
// declarations for one compilation unit, and answers the resolver's
// candidate queries. Registration and merge run single-threaded during
// the build-time scan; a finalized registry is safe for concurrent
// read-only resolution.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"binding-resolver/internal/typemodel"
)

// multiValueEntry pairs a multi-value key with its adapter method.
type multiValueEntry struct {
	Key  *MultiValueKey
	Desc MethodDescriptor
}

// Registry is the mutable store of binding declarations.
type Registry struct {
	universe *typemodel.Universe
	log      *zap.Logger

	// setters: attribute -> accessor key -> adapter method.
	setters map[string]map[AccessorKey]MethodDescriptor
	// renamed: attribute -> view type -> redirected setter method.
	renamed map[string]map[string]MethodDescriptor
	// conversions: from type -> to type -> conversion function.
	conversions map[string]map[string]MethodDescriptor
	// multiSetters: canonical key -> entry.
	multiSetters map[string]multiValueEntry
	// inverseAdapters: attribute -> accessor key -> inverse adapter.
	inverseAdapters map[string]map[AccessorKey]InverseDescriptor
	// inverseMethods: attribute -> view type -> renamed getter.
	inverseMethods map[string]map[string]InverseDescriptor
	// twoWayMethods: forward signature -> inverse method name, in both
	// directions.
	twoWayMethods map[MethodSignature]string
	// untaggable: view type -> declaring type of the exemption.
	untaggable map[string]string
	// eventAttributes is the set of attributes registered as two-way
	// change events.
	eventAttributes map[string]struct{}
}

// New creates an empty registry over a type universe. logger may be
// nil.
func New(universe *typemodel.Universe, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		universe:        universe,
		log:             logger,
		setters:         make(map[string]map[AccessorKey]MethodDescriptor),
		renamed:         make(map[string]map[string]MethodDescriptor),
		conversions:     make(map[string]map[string]MethodDescriptor),
		multiSetters:    make(map[string]multiValueEntry),
		inverseAdapters: make(map[string]map[AccessorKey]InverseDescriptor),
		inverseMethods:  make(map[string]map[string]InverseDescriptor),
		twoWayMethods:   make(map[MethodSignature]string),
		untaggable:      make(map[string]string),
		eventAttributes: make(map[string]struct{}),
	}
}

// Universe returns the type universe the registry resolves names in.
func (r *Registry) Universe() *typemodel.Universe {
	return r.universe
}

// AddSetter registers a single-attribute binding adapter. Registering
// the same (attribute, view, value) key twice is a build error.
func (r *Registry) AddSetter(attribute, viewType, valueType string, desc MethodDescriptor) error {
	attribute = StripNamespace(attribute)
	r.log.Debug("register setter",
		zap.String("attribute", attribute),
		zap.String("view", viewType),
		zap.String("value", valueType),
		zap.Stringer("method", desc))

	adapters := r.setters[attribute]
	if adapters == nil {
		adapters = make(map[AccessorKey]MethodDescriptor)
		r.setters[attribute] = adapters
	}

	key := AccessorKey{ViewType: viewType, ValueType: valueType}
	if existing, ok := adapters[key]; ok {
		return fmt.Errorf("duplicate binding adapter for attribute %q %s: %s already registered, rejecting %s",
			attribute, key, existing, desc)
	}

	adapters[key] = desc

	return nil
}

// AddMultiSetter registers a setter that consumes several attributes
// jointly. Attribute names duplicated within the declaration are all
// collected into one error. Key collisions overwrite silently; the
// first-seen-wins rule only applies across merged registries.
func (r *Registry) AddMultiSetter(viewType string, attributes, parameterTypes []string,
	requireAll bool, desc MethodDescriptor) error {
	if len(attributes) != len(parameterTypes) {
		return fmt.Errorf("multi-attribute adapter %s: %d attributes but %d parameter types",
			desc, len(attributes), len(parameterTypes))
	}

	key := NewMultiValueKey(viewType, attributes, parameterTypes, requireAll)
	if dups := repeatedAttributes(key); len(dups) > 0 {
		return fmt.Errorf("multi-attribute adapter %s repeats attribute(s) %s",
			desc, strings.Join(dups, ", "))
	}

	r.log.Debug("register multi-attribute setter",
		zap.Strings("attributes", key.Attributes),
		zap.String("view", viewType),
		zap.Stringer("method", desc))

	r.multiSetters[key.Canonical()] = multiValueEntry{Key: key, Desc: desc}

	return nil
}

// repeatedAttributes returns every attribute name appearing more than
// once in a key's declaration, in declaration order.
func repeatedAttributes(key *MultiValueKey) []string {
	if len(key.Attributes) == len(key.AttributeIndices()) {
		return nil
	}

	seen := make(map[string]int)

	var dups []string

	for _, attr := range key.Attributes {
		seen[attr]++
		if seen[attr] == 2 {
			dups = append(dups, attr)
		}
	}

	return dups
}

// AddConversion registers a pure conversion function from one type to
// another. A later registration for the same pair replaces the
// earlier one within a single scan.
func (r *Registry) AddConversion(fromType, toType string, desc MethodDescriptor) {
	r.log.Debug("register conversion",
		zap.String("from", fromType),
		zap.String("to", toType),
		zap.Stringer("method", desc))

	convertTo := r.conversions[fromType]
	if convertTo == nil {
		convertTo = make(map[string]MethodDescriptor)
		r.conversions[fromType] = convertTo
	}

	convertTo[toType] = desc
}

// AddInverse registers an inverse binding adapter: a getter that reads
// the view-side value back, with the event attribute notified on
// change. Duplicate keys are a build error.
func (r *Registry) AddInverse(attribute, event, viewType, valueType string, desc MethodDescriptor) error {
	attribute = StripNamespace(attribute)
	event = StripNamespace(event)

	adapters := r.inverseAdapters[attribute]
	if adapters == nil {
		adapters = make(map[AccessorKey]InverseDescriptor)
		r.inverseAdapters[attribute] = adapters
	}

	key := AccessorKey{ViewType: viewType, ValueType: valueType}
	if existing, ok := adapters[key]; ok {
		return fmt.Errorf("duplicate inverse adapter for attribute %q %s: %s already registered, rejecting %s",
			attribute, key, existing.MethodDescriptor, desc)
	}

	adapters[key] = InverseDescriptor{MethodDescriptor: desc, Event: event}
	r.eventAttributes[event] = struct{}{}

	return nil
}

// AddInverseMethod registers a renamed view getter for two-way
// binding on a view type.
func (r *Registry) AddInverseMethod(attribute, event, viewType, methodName, declaredBy string) {
	attribute = StripNamespace(attribute)
	event = StripNamespace(event)

	methods := r.inverseMethods[attribute]
	if methods == nil {
		methods = make(map[string]InverseDescriptor)
		r.inverseMethods[attribute] = methods
	}

	methods[viewType] = InverseDescriptor{
		MethodDescriptor: MethodDescriptor{DeclaringType: declaredBy, Method: methodName, Static: true},
		Event:            event,
	}
	r.eventAttributes[event] = struct{}{}
}

// AddRenamed redirects an attribute on a view type to a
// non-conventional setter method name.
func (r *Registry) AddRenamed(attribute, viewType, methodName, declaredBy string) {
	attribute = StripNamespace(attribute)

	renamed := r.renamed[attribute]
	if renamed == nil {
		renamed = make(map[string]MethodDescriptor)
		r.renamed[attribute] = renamed
	}

	renamed[viewType] = MethodDescriptor{DeclaringType: declaredBy, Method: methodName, Static: true}
}

// AddTwoWayPair records a forward method and its declared inverse.
// Re-registering either side against a different partner is a build
// error.
func (r *Registry) AddTwoWayPair(from, to MethodSignature) error {
	if stored, ok := r.twoWayMethods[from]; ok && stored != to.Method {
		return fmt.Errorf("inverse method for %s does not match expected method %q, got %q",
			from, stored, to.Method)
	}

	if stored, ok := r.twoWayMethods[to]; ok && stored != from.Method {
		return fmt.Errorf("inverse method for %s does not match expected method %q, got %q",
			to, stored, from.Method)
	}

	r.twoWayMethods[from] = to.Method
	r.twoWayMethods[to] = from.Method

	return nil
}

// InverseOf returns the declared inverse method name for a signature,
// or "" when none is registered.
func (r *Registry) InverseOf(sig MethodSignature) string {
	return r.twoWayMethods[sig]
}

// AddUntaggable exempts view types from the binding-tag requirement.
func (r *Registry) AddUntaggable(typeNames []string, declaredBy string) {
	for _, name := range typeNames {
		r.untaggable[name] = declaredBy
	}
}

// IsUntaggable reports whether a view type is exempt from the
// binding-tag requirement.
func (r *Registry) IsUntaggable(viewType string) bool {
	_, ok := r.untaggable[viewType]

	return ok
}

// IsTwoWayEventAttribute reports whether the attribute is registered
// as a two-way change event; ordinary one-way binding is suppressed
// for such attributes.
func (r *Registry) IsTwoWayEventAttribute(attribute string) bool {
	_, ok := r.eventAttributes[StripNamespace(attribute)]

	return ok
}

// SettersFor returns the adapter bucket for an attribute. The result
// must not be mutated.
func (r *Registry) SettersFor(attribute string) map[AccessorKey]MethodDescriptor {
	return r.setters[StripNamespace(attribute)]
}

// RenamedFor returns the renamed-setter bucket for an attribute. The
// result must not be mutated.
func (r *Registry) RenamedFor(attribute string) map[string]MethodDescriptor {
	return r.renamed[StripNamespace(attribute)]
}

// InverseAdaptersFor returns the inverse-adapter bucket for an
// attribute. The result must not be mutated.
func (r *Registry) InverseAdaptersFor(attribute string) map[AccessorKey]InverseDescriptor {
	return r.inverseAdapters[StripNamespace(attribute)]
}

// InverseMethodsFor returns the renamed-getter bucket for an
// attribute. The result must not be mutated.
func (r *Registry) InverseMethodsFor(attribute string) map[string]InverseDescriptor {
	return r.inverseMethods[StripNamespace(attribute)]
}

// MultiSetters visits every registered multi-attribute setter in
// canonical key order.
func (r *Registry) MultiSetters(visit func(key *MultiValueKey, desc MethodDescriptor)) {
	canonicals := make([]string, 0, len(r.multiSetters))
	for c := range r.multiSetters {
		canonicals = append(canonicals, c)
	}

	sort.Strings(canonicals)

	for _, c := range canonicals {
		entry := r.multiSetters[c]
		visit(entry.Key, entry.Desc)
	}
}

// ConversionFor returns the registered conversion function usable
// from one type to another, or nil. The target may be reached through
// assignability or boxing on either end of the conversion function's
// declared signature. Conversions never target the root type; the
// object fallback tier covers it.
func (r *Registry) ConversionFor(from, to *typemodel.Class, imports map[string]string) *MethodDescriptor {
	if from == nil || to == nil || to.IsObject() {
		return nil
	}

	for _, fromName := range sortedKeys(r.conversions) {
		convertFrom, err := r.universe.FindClass(fromName, imports)
		if err != nil {
			r.log.Debug("skipping conversion source", zap.String("type", fromName), zap.Error(err))
			continue
		}

		if !r.canUseForConversion(from, convertFrom) {
			continue
		}

		convertTo := r.conversions[fromName]
		for _, toName := range sortedKeys(convertTo) {
			target, err := r.universe.FindClass(toName, imports)
			if err != nil {
				r.log.Debug("skipping conversion target", zap.String("type", toName), zap.Error(err))
				continue
			}

			if r.canUseForConversion(target, to) {
				desc := convertTo[toName]

				return &desc
			}
		}
	}

	return nil
}

// HasConversion implements oracle.ConversionSource.
func (r *Registry) HasConversion(from, to *typemodel.Class, imports map[string]string) bool {
	return r.ConversionFor(from, to, imports) != nil
}

// canUseForConversion checks that a value of type from feeds the
// conversion endpoint to: identical after erasure, a boxing pair, or
// assignable.
func (r *Registry) canUseForConversion(from, to *typemodel.Class) bool {
	from = from.Erasure()
	to = to.Erasure()

	return from.Equals(to) || r.universe.IsBoxingPair(from, to) || r.universe.AssignableFrom(to, from)
}

// Clear drops every entry declared by the given types, before a
// module's declarations are re-scanned.
func (r *Registry) Clear(declaringTypes map[string]struct{}) {
	declaredBy := func(t string) bool {
		_, ok := declaringTypes[t]

		return ok
	}

	for _, adapters := range r.setters {
		for key, desc := range adapters {
			if declaredBy(desc.DeclaringType) {
				delete(adapters, key)
			}
		}
	}

	for _, renamed := range r.renamed {
		for view, desc := range renamed {
			if declaredBy(desc.DeclaringType) {
				delete(renamed, view)
			}
		}
	}

	for _, convertTo := range r.conversions {
		for toType, desc := range convertTo {
			if declaredBy(desc.DeclaringType) {
				delete(convertTo, toType)
			}
		}
	}

	for canonical, entry := range r.multiSetters {
		if declaredBy(entry.Desc.DeclaringType) {
			delete(r.multiSetters, canonical)
		}
	}

	for _, adapters := range r.inverseAdapters {
		for key, desc := range adapters {
			if declaredBy(desc.DeclaringType) {
				delete(adapters, key)
			}
		}
	}

	for _, methods := range r.inverseMethods {
		for view, desc := range methods {
			if declaredBy(desc.DeclaringType) {
				delete(methods, view)
			}
		}
	}

	for typeName, by := range r.untaggable {
		if declaredBy(by) {
			delete(r.untaggable, typeName)
		}
	}
}

// Merge unions another registry into this one. On any key collision
// the receiver's entry wins, so dependency registries merge additively
// in load order without re-validation.
func (r *Registry) Merge(other *Registry) {
	mergeNested(r.setters, other.setters)
	mergeNested(r.renamed, other.renamed)
	mergeNested(r.conversions, other.conversions)
	mergeNested(r.inverseAdapters, other.inverseAdapters)
	mergeNested(r.inverseMethods, other.inverseMethods)

	for canonical, entry := range other.multiSetters {
		if _, ok := r.multiSetters[canonical]; !ok {
			r.multiSetters[canonical] = entry
		}
	}

	for sig, inverse := range other.twoWayMethods {
		if _, ok := r.twoWayMethods[sig]; !ok {
			r.twoWayMethods[sig] = inverse
		}
	}

	for typeName, by := range other.untaggable {
		if _, ok := r.untaggable[typeName]; !ok {
			r.untaggable[typeName] = by
		}
	}

	for event := range other.eventAttributes {
		r.eventAttributes[event] = struct{}{}
	}
}

// mergeNested unions two-level maps, first-seen wins per inner key.
func mergeNested[K comparable, V any](first, second map[string]map[K]V) {
	for outer, secondInner := range second {
		firstInner := first[outer]
		if firstInner == nil {
			inner := make(map[K]V, len(secondInner))
			for k, v := range secondInner {
				inner[k] = v
			}

			first[outer] = inner

			continue
		}

		for k, v := range secondInner {
			if _, ok := firstInner[k]; !ok {
				firstInner[k] = v
			}
		}
	}
}

// sortedKeys returns map keys in sorted order for deterministic
// iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
