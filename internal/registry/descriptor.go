package registry

import (
	"fmt"
	"sort"
	"strings"
)

// MethodDescriptor identifies a declared adapter, setter, or
// conversion method. Descriptors are plain records produced by an
// external declaration scanner; the registry never inspects host
// reflection data.
type MethodDescriptor struct {
	// DeclaringType is the full name of the type declaring the method.
	DeclaringType string `yaml:"type"`
	// Method is the method name.
	Method string `yaml:"method"`
	// Static marks class-level methods. Instance adapters are invoked
	// through a component lookup at the call site.
	Static bool `yaml:"static,omitempty"`
	// RequiresOldValue marks diffing setters that receive the
	// attribute's previous value before the new one.
	RequiresOldValue bool `yaml:"requires_old_value,omitempty"`
	// ComponentType is the optional context-object parameter type
	// passed as the first argument.
	ComponentType string `yaml:"component,omitempty"`
}

// String returns a call-like rendering for diagnostics.
func (d MethodDescriptor) String() string {
	return d.DeclaringType + "." + d.Method + "()"
}

// InverseDescriptor extends MethodDescriptor with the event attribute
// wired so the framework observes view-side changes.
type InverseDescriptor struct {
	MethodDescriptor `yaml:",inline"`
	// Event is the listener attribute notified on change.
	Event string `yaml:"event"`
}

// AccessorKey identifies one single-attribute adapter registration
// within an attribute's bucket.
type AccessorKey struct {
	// ViewType is the full name of the view parameter type.
	ViewType string `yaml:"view"`
	// ValueType is the full name of the value parameter (or return)
	// type.
	ValueType string `yaml:"value"`
}

// String returns a short rendering for diagnostics.
func (k AccessorKey) String() string {
	return "(" + k.ViewType + ", " + k.ValueType + ")"
}

// MethodSignature identifies one side of a two-way method pair.
type MethodSignature struct {
	// DeclaringType is the full name of the declaring type.
	DeclaringType string `yaml:"type"`
	// Method is the method name.
	Method string `yaml:"method"`
	// ReturnType is the erased return type name.
	ReturnType string `yaml:"return"`
	// ParameterTypes is the comma-joined list of erased parameter
	// type names, kept as one string so the signature stays a valid
	// map key.
	ParameterTypes string `yaml:"params,omitempty"`
	// Static marks class-level methods.
	Static bool `yaml:"static,omitempty"`
}

// String renders the signature the way it would be declared.
func (s MethodSignature) String() string {
	var sb strings.Builder
	if s.Static {
		sb.WriteString("static ")
	}

	sb.WriteString(s.ReturnType)
	sb.WriteByte(' ')
	sb.WriteString(s.DeclaringType)
	sb.WriteByte('.')
	sb.WriteString(s.Method)
	sb.WriteByte('(')
	sb.WriteString(s.ParameterTypes)
	sb.WriteByte(')')

	return sb.String()
}

// MultiValueKey identifies a setter consuming several attributes
// jointly.
type MultiValueKey struct {
	// ViewType is the full name of the view parameter type.
	ViewType string `yaml:"view"`
	// Attributes lists the namespace-stripped attribute names in
	// declared order.
	Attributes []string `yaml:"attributes"`
	// ParameterTypes lists the value parameter type names in declared
	// order, parallel to Attributes.
	ParameterTypes []string `yaml:"params"`
	// RequireAll fires the setter only when every attribute is
	// present at the binding site.
	RequireAll bool `yaml:"require_all,omitempty"`

	indices map[string]int
}

// NewMultiValueKey builds a key, stripping attribute namespaces and
// indexing attributes by name. Duplicated attribute names shrink the
// index; callers detect that through AttributeIndices.
func NewMultiValueKey(viewType string, attributes, parameterTypes []string, requireAll bool) *MultiValueKey {
	stripped := make([]string, len(attributes))
	for i, attr := range attributes {
		stripped[i] = StripNamespace(attr)
	}

	k := &MultiValueKey{
		ViewType:       viewType,
		Attributes:     stripped,
		ParameterTypes: parameterTypes,
		RequireAll:     requireAll,
	}
	k.buildIndices()

	return k
}

func (k *MultiValueKey) buildIndices() {
	k.indices = make(map[string]int, len(k.Attributes))
	for i, attr := range k.Attributes {
		k.indices[attr] = i
	}
}

// AttributeIndices maps attribute names to their parameter positions.
// Its size is smaller than len(Attributes) when a declaration repeats
// an attribute.
func (k *MultiValueKey) AttributeIndices() map[string]int {
	if k.indices == nil {
		k.buildIndices()
	}

	return k.indices
}

// AttributeIndex returns the parameter position of an attribute, or
// -1 when the key does not consume it.
func (k *MultiValueKey) AttributeIndex(attribute string) int {
	if idx, ok := k.AttributeIndices()[attribute]; ok {
		return idx
	}

	return -1
}

// SortedAttributes returns the consumed attribute names in sorted
// order, for deterministic comparison.
func (k *MultiValueKey) SortedAttributes() []string {
	names := make([]string, 0, len(k.AttributeIndices()))
	for name := range k.AttributeIndices() {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Canonical returns a stable identity string: view type plus the
// sorted attribute/parameter pairs plus the require-all flag. Two
// declarations with the same canonical form describe the same setter.
func (k *MultiValueKey) Canonical() string {
	pairs := make([]string, 0, len(k.AttributeIndices()))
	for name, idx := range k.AttributeIndices() {
		pairs = append(pairs, name+"="+k.ParameterTypes[idx])
	}

	sort.Strings(pairs)

	return fmt.Sprintf("%s|%s|requireAll=%t", k.ViewType, strings.Join(pairs, ","), k.RequireAll)
}

// StripNamespace removes the namespace prefix from an attribute name,
// so differently-namespaced attributes naming the same property
// collide on one registry bucket.
func StripNamespace(attribute string) string {
	if colon := strings.IndexByte(attribute, ':'); colon >= 0 {
		return attribute[colon+1:]
	}

	return attribute
}

// SetterName returns the conventional setter method name derived from
// an attribute.
func SetterName(attribute string) string {
	attr := StripNamespace(attribute)
	if attr == "" {
		return "set"
	}

	return "set" + strings.ToUpper(attr[:1]) + attr[1:]
}
