package typemodel

import "strings"

// Class describes one type known to the universe: a primitive, a
// declared class or interface, an array, or a generic instantiation.
// Instances are created by the Universe and compared by full name.
type Class struct {
	// Name is the full textual name, including type arguments for
	// generic instantiations ("Adapter<Item>") and a trailing "[]"
	// for arrays.
	Name string
	// Kind of the type.
	Kind Kind
	// Super is the direct superclass name. Empty for the root type,
	// primitives, and interfaces without a declared parent.
	Super string
	// Interfaces lists directly implemented interface names.
	Interfaces []string
	// TypeParams lists declared type parameter names for generic
	// declarations ("T", "Item").
	TypeParams []string
	// TypeArgs lists the type arguments of a generic instantiation.
	// Empty for raw declarations.
	TypeArgs []string
	// Component is the element type name for arrays.
	Component string
	// Methods declared directly on this class.
	Methods []Method

	universe *Universe
	erasure  *Class // cached raw declaration for instantiations
}

// Method describes a callable member of a class.
type Method struct {
	// Name of the method.
	Name string `yaml:"name"`
	// Params lists parameter type names in declared order.
	Params []string `yaml:"params,omitempty"`
	// Return is the return type name; empty or "void" for none.
	Return string `yaml:"return,omitempty"`
	// Static marks class-level methods.
	Static bool `yaml:"static,omitempty"`
	// MinAPI is the minimum platform version the method exists on.
	MinAPI int `yaml:"min_api,omitempty"`

	// Receiver is the class declaring the method. It is filled in
	// during lookup, not parsed from definitions, and may differ from
	// the queried class when the method is inherited.
	Receiver *Class `yaml:"-"`
}

// IsVoid returns true if the method has no return value.
func (m *Method) IsVoid() bool {
	return m.Return == "" || m.Return == "void"
}

// Equals compares two classes by full name.
func (c *Class) Equals(other *Class) bool {
	if c == nil || other == nil {
		return c == other
	}

	return c.Name == other.Name
}

// IsPrimitive returns true for primitive value types.
func (c *Class) IsPrimitive() bool {
	return c.Kind.IsPrimitive()
}

// IsNullable returns true for types whose values may be null.
func (c *Class) IsNullable() bool {
	return !c.IsPrimitive()
}

// IsArray returns true for array types.
func (c *Class) IsArray() bool {
	return c.Kind == KindArray
}

// IsGeneric returns true for generic instantiations.
func (c *Class) IsGeneric() bool {
	return len(c.TypeArgs) > 0
}

// IsObject returns true if this is the universal root type.
func (c *Class) IsObject() bool {
	return c.universe != nil && c == c.universe.object
}

// Erasure returns the raw declaration behind a generic instantiation,
// or the class itself when it carries no type arguments.
func (c *Class) Erasure() *Class {
	if c.erasure != nil {
		return c.erasure
	}

	return c
}

// HasTypeVar reports whether any type argument refers to one of the
// given type parameter names. Such arguments cannot be matched
// nominally and force erasure before comparison.
func (c *Class) HasTypeVar(typeParams []string) bool {
	if len(typeParams) == 0 {
		return false
	}

	for _, arg := range c.TypeArgs {
		for _, p := range typeParams {
			if arg == p || strings.Contains(arg, "<"+p+">") {
				return true
			}
		}
	}

	return false
}

// DefaultValue returns the literal used to fill an unsupplied argument
// of this type.
func (c *Class) DefaultValue() string {
	return c.Kind.DefaultValue()
}

// String returns the full type name.
func (c *Class) String() string {
	return c.Name
}
