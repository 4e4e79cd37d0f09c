package registry

import (
	"fmt"
	"sort"

	"binding-resolver/internal/diagnostic"
)

// Diagnostic codes produced by Validate.
const (
	// CodeUnknownType flags a declared type name the universe cannot
	// resolve. The resolver skips such candidates, so this is a
	// warning rather than an error.
	CodeUnknownType = "BR001"
	// CodeMissingMethod flags a renamed setter whose method does not
	// exist on the target view type.
	CodeMissingMethod = "BR002"
	// CodeMissingEvent flags an inverse declaration whose event
	// attribute has no way to attach a change listener.
	CodeMissingEvent = "BR003"
)

// Validate checks every declaration against the type universe. Type
// names the universe does not know produce warnings; an inverse
// declaration whose event cannot be wired produces an error, since
// two-way binding on it can never resolve.
func (r *Registry) Validate() diagnostic.Diagnostics {
	var d diagnostic.Diagnostics

	checkType := func(name, attribute, site string) {
		if _, err := r.universe.FindClass(name, nil); err != nil {
			d.AddWarning(CodeUnknownType, err.Error(), attribute, site)
		}
	}

	for _, attribute := range sortedKeys(r.setters) {
		adapters := r.setters[attribute]
		for _, key := range sortedAccessorKeys(adapters) {
			site := adapters[key].String()
			checkType(key.ViewType, attribute, site)
			checkType(key.ValueType, attribute, site)
		}
	}

	for _, attribute := range sortedKeys(r.renamed) {
		renamed := r.renamed[attribute]
		for _, view := range sortedKeys(renamed) {
			desc := renamed[view]

			viewClass, err := r.universe.FindClass(view, nil)
			if err != nil {
				d.AddWarning(CodeUnknownType, err.Error(), attribute, desc.String())
				continue
			}

			if len(r.universe.MethodsOf(viewClass, desc.Method, 1)) == 0 {
				d.AddError(CodeMissingMethod,
					fmt.Sprintf("method %q not found on %s", desc.Method, view),
					attribute, desc.String())
			}
		}
	}

	for _, from := range sortedKeys(r.conversions) {
		convertTo := r.conversions[from]
		for _, to := range sortedKeys(convertTo) {
			site := convertTo[to].String()
			checkType(from, "", site)
			checkType(to, "", site)
		}
	}

	r.MultiSetters(func(key *MultiValueKey, desc MethodDescriptor) {
		checkType(key.ViewType, "", desc.String())

		for _, param := range key.ParameterTypes {
			checkType(param, "", desc.String())
		}
	})

	for _, attribute := range sortedKeys(r.inverseAdapters) {
		adapters := r.inverseAdapters[attribute]
		for _, key := range sortedAccessorKeys(adapters) {
			inv := adapters[key]
			site := inv.MethodDescriptor.String()
			checkType(key.ViewType, attribute, site)
			checkType(key.ValueType, attribute, site)
			r.checkEvent(&d, inv.Event, key.ViewType, attribute, site)
		}
	}

	for _, attribute := range sortedKeys(r.inverseMethods) {
		methods := r.inverseMethods[attribute]
		for _, view := range sortedKeys(methods) {
			inv := methods[view]
			site := inv.MethodDescriptor.String()
			checkType(view, attribute, site)
			r.checkEvent(&d, inv.Event, view, attribute, site)
		}
	}

	return d
}

// checkEvent verifies that an event attribute can attach a listener on
// the view type: either an adapter bucket exists for it, a
// multi-attribute setter consumes it, or the view declares a
// conventional setter method.
func (r *Registry) checkEvent(d *diagnostic.Diagnostics, event, viewType, attribute, site string) {
	if len(r.setters[event]) > 0 {
		return
	}

	consumed := false

	r.MultiSetters(func(key *MultiValueKey, _ MethodDescriptor) {
		if key.AttributeIndex(event) >= 0 {
			consumed = true
		}
	})

	if consumed {
		return
	}

	if viewClass, err := r.universe.FindClass(viewType, nil); err == nil {
		if len(r.universe.MethodsOf(viewClass, SetterName(event), 1)) > 0 {
			return
		}
	}

	d.AddError(CodeMissingEvent,
		fmt.Sprintf("no setter found for event %q on %s", event, viewType),
		attribute, site)
}

// sortedAccessorKeys returns an adapter bucket's keys in stable order.
func sortedAccessorKeys[V any](m map[AccessorKey]V) []AccessorKey {
	keys := make([]AccessorKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ViewType != keys[j].ViewType {
			return keys[i].ViewType < keys[j].ViewType
		}

		return keys[i].ValueType < keys[j].ValueType
	})

	return keys
}
