package resolve

import (
	"strings"

	"binding-resolver/internal/common"
	"binding-resolver/internal/registry"
	"binding-resolver/internal/typemodel"
)

// CallKind distinguishes resolved call targets.
type CallKind int

const (
	// CallDirectMethod invokes a method declared on the view type
	// itself.
	CallDirectMethod CallKind = iota
	// CallAdapter invokes a registered binding adapter.
	CallAdapter
)

// String returns a human-readable kind name.
func (k CallKind) String() string {
	switch k {
	case CallDirectMethod:
		return "direct_method"
	case CallAdapter:
		return "adapter"
	default:
		return common.UnknownStr
	}
}

// BindingSetterCall is the common surface of resolved setter calls,
// single- or multi-attribute. An external emitter turns it into source
// text; the resolver never does.
type BindingSetterCall interface {
	// Description renders the target for error messages.
	Description() string
	// MinAPI is the minimum platform version the call needs.
	MinAPI() int
	// RequiresOldValue is true for diffing setters receiving the
	// previous value before the new one.
	RequiresOldValue() bool
	// ParameterTypes lists the value parameter types the call
	// consumes, in order.
	ParameterTypes() []*typemodel.Class
	// InstanceAdapterType names the adapter class a component must
	// instantiate, or "" for static adapters and direct methods.
	InstanceAdapterType() string
}

// SetterCall is a resolved single-attribute setter: either a direct
// view method or a registered adapter, with an optional cast and user
// conversion applied to the value.
type SetterCall struct {
	// Kind of the target.
	Kind CallKind
	// Target identifies the method to call. For direct methods the
	// declaring type is the view class.
	Target registry.MethodDescriptor
	// ParameterType is the declared value parameter type.
	ParameterType *typemodel.Class
	// Cast, when set, is the type the value expression must be cast
	// to before the call.
	Cast *typemodel.Class
	// Converter, when set, is the conversion function wrapped around
	// the value expression.
	Converter *registry.MethodDescriptor

	minAPI int
}

var _ BindingSetterCall = (*SetterCall)(nil)

// Description renders the target for error messages.
func (c *SetterCall) Description() string {
	if c.Kind == CallDirectMethod {
		return c.Target.DeclaringType + "." + c.Target.Method + "(" + c.ParameterType.Name + ")"
	}

	return c.Target.DeclaringType + "." + c.Target.Method
}

// MinAPI is the minimum platform version the call needs.
func (c *SetterCall) MinAPI() int {
	return c.minAPI
}

// RequiresOldValue is true for diffing adapter setters.
func (c *SetterCall) RequiresOldValue() bool {
	return c.Kind == CallAdapter && c.Target.RequiresOldValue
}

// ParameterTypes lists the single value parameter type.
func (c *SetterCall) ParameterTypes() []*typemodel.Class {
	return []*typemodel.Class{c.ParameterType}
}

// InstanceAdapterType names the adapter class a component must
// instantiate, or "".
func (c *SetterCall) InstanceAdapterType() string {
	if c.Kind == CallAdapter && !c.Target.Static {
		return c.Target.DeclaringType
	}

	return ""
}

// ArgSpec describes how one multi-setter argument is produced at the
// call site.
type ArgSpec struct {
	// Attribute consuming this parameter position.
	Attribute string
	// ParameterType is the declared parameter type name.
	ParameterType string
	// Supplied is false when the binding site does not provide the
	// attribute; Default then carries the literal to pass.
	Supplied bool
	// Default is the type-appropriate default literal for unsupplied
	// arguments.
	Default string
	// Converter, when set, wraps the value expression.
	Converter *registry.MethodDescriptor
	// Cast, when set, is the type name the value expression is cast
	// to.
	Cast string
}

// MultiSetterCall is a resolved multi-attribute setter: one adapter
// call consuming several attributes, with per-argument conversion and
// defaulting plans.
type MultiSetterCall struct {
	// Adapter is the registered method.
	Adapter registry.MethodDescriptor
	// Key is the registration the call was built from.
	Key *registry.MultiValueKey
	// Attributes actually consumed by this call: the full declared
	// list when the key requires all, otherwise the supplied subset.
	Attributes []string
	// Supplied marks, per declared parameter position, whether the
	// binding site provides the attribute.
	Supplied []bool
	// Converters holds per-position conversion functions, nil when
	// none is needed.
	Converters []*registry.MethodDescriptor
	// Casts holds per-position cast target type names, "" when none.
	Casts []string

	universe *typemodel.Universe
}

var _ BindingSetterCall = (*MultiSetterCall)(nil)

// Description renders the adapter for error messages.
func (m *MultiSetterCall) Description() string {
	return m.Adapter.DeclaringType + "." + m.Adapter.Method
}

// MinAPI is the minimum platform version the call needs.
func (m *MultiSetterCall) MinAPI() int {
	return 1
}

// RequiresOldValue is true for diffing adapters.
func (m *MultiSetterCall) RequiresOldValue() bool {
	return m.Adapter.RequiresOldValue
}

// InstanceAdapterType names the adapter class a component must
// instantiate, or "".
func (m *MultiSetterCall) InstanceAdapterType() string {
	if !m.Adapter.Static {
		return m.Adapter.DeclaringType
	}

	return ""
}

// ParameterTypes lists the declared parameter types of the supplied
// attributes, in declaration order.
func (m *MultiSetterCall) ParameterTypes() []*typemodel.Class {
	var out []*typemodel.Class

	for i := range m.Key.Attributes {
		if !m.Supplied[i] {
			continue
		}

		if c, err := m.universe.FindClass(m.Key.ParameterTypes[i], nil); err == nil {
			out = append(out, c)
		}
	}

	return out
}

// ArgSpecs returns the per-position argument plan: supplied arguments
// carry their converter/cast, unsupplied ones their default literal.
func (m *MultiSetterCall) ArgSpecs() []ArgSpec {
	specs := make([]ArgSpec, len(m.Key.Attributes))

	for i, attr := range m.Key.Attributes {
		spec := ArgSpec{
			Attribute:     attr,
			ParameterType: m.Key.ParameterTypes[i],
			Supplied:      m.Supplied[i],
			Converter:     m.Converters[i],
			Cast:          m.Casts[i],
		}

		if !spec.Supplied {
			if c, err := m.universe.FindClass(spec.ParameterType, nil); err == nil {
				spec.Default = c.DefaultValue()
			} else {
				spec.Default = "null"
			}
		}

		specs[i] = spec
	}

	return specs
}

// ConsumesAttribute reports whether the call claims the attribute.
func (m *MultiSetterCall) ConsumesAttribute(attribute string) bool {
	for _, attr := range m.Attributes {
		if attr == attribute {
			return true
		}
	}

	return false
}

// String renders the call for debugging.
func (m *MultiSetterCall) String() string {
	return "MultiSetterCall{" + m.Description() + " [" + strings.Join(m.Attributes, ", ") + "]}"
}

// GetterCall is a resolved view-side getter for two-way binding,
// paired with the event setter that signals change.
type GetterCall struct {
	// Kind of the target.
	Kind CallKind
	// Target identifies the getter; its Event field names the change
	// attribute. For direct getters the declaring type is the view
	// class.
	Target registry.InverseDescriptor
	// GetterType is the value type name the getter produces.
	GetterType string
	// Event is the resolved setter wiring the change listener.
	Event BindingSetterCall
	// EventAttribute is the listener attribute the event setter
	// binds.
	EventAttribute string

	minAPI int
}

// Description renders the target for error messages.
func (g *GetterCall) Description() string {
	return g.Target.DeclaringType + "." + g.Target.Method
}

// MinAPI is the minimum platform version the call needs.
func (g *GetterCall) MinAPI() int {
	return g.minAPI
}

// InstanceAdapterType names the adapter class a component must
// instantiate, or "".
func (g *GetterCall) InstanceAdapterType() string {
	if g.Kind == CallAdapter && !g.Target.Static {
		return g.Target.DeclaringType
	}

	return ""
}
