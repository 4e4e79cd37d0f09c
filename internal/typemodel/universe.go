package typemodel

import (
	"fmt"
	"strings"
)

// ObjectTypeName is the name of the universal root type every
// reference type derives from.
const ObjectTypeName = "Object"

// boxedNames maps primitive kinds to the names of their boxed
// counterparts, registered automatically by NewUniverse.
var boxedNames = map[Kind]string{
	KindBool:   "Boolean",
	KindByte:   "Byte",
	KindChar:   "Character",
	KindShort:  "Short",
	KindInt:    "Integer",
	KindLong:   "Long",
	KindFloat:  "Float",
	KindDouble: "Double",
}

// ClassDecl describes one class for registration in a Universe.
// Declarations are plain records produced by an external scanner or
// loaded from a universe definition file.
type ClassDecl struct {
	Name       string   `yaml:"name"`
	Interface  bool     `yaml:"interface,omitempty"`
	Super      string   `yaml:"super,omitempty"`
	Interfaces []string `yaml:"interfaces,omitempty"`
	TypeParams []string `yaml:"type_params,omitempty"`
	Methods    []Method `yaml:"methods,omitempty"`
}

// Universe is a nominal type system built from declaration records.
// It answers the lookup, assignability, and conversion-shape questions
// the resolver needs, without touching any host reflection API.
type Universe struct {
	classes map[string]*Class
	object  *Class
	boxed   map[Kind]*Class
}

// NewUniverse creates a universe pre-populated with the root type, the
// primitives, and their boxed counterparts.
func NewUniverse() *Universe {
	u := &Universe{
		classes: make(map[string]*Class),
		boxed:   make(map[Kind]*Class),
	}

	u.object = u.add(&Class{Name: ObjectTypeName, Kind: KindClass})

	for name, kind := range kindByName {
		u.add(&Class{Name: name, Kind: kind})
		u.boxed[kind] = u.add(&Class{Name: boxedNames[kind], Kind: KindClass, Super: ObjectTypeName})
	}

	return u
}

func (u *Universe) add(c *Class) *Class {
	c.universe = u
	u.classes[c.Name] = c

	return c
}

// Define registers a class from a declaration record. Re-defining an
// existing name is an error.
func (u *Universe) Define(decl ClassDecl) (*Class, error) {
	if decl.Name == "" {
		return nil, fmt.Errorf("class declaration has no name")
	}

	if _, exists := u.classes[decl.Name]; exists {
		return nil, fmt.Errorf("class %q is already defined", decl.Name)
	}

	kind := KindClass
	if decl.Interface {
		kind = KindInterface
	}

	super := decl.Super
	if super == "" && !decl.Interface && decl.Name != ObjectTypeName {
		super = ObjectTypeName
	}

	return u.add(&Class{
		Name:       decl.Name,
		Kind:       kind,
		Super:      super,
		Interfaces: decl.Interfaces,
		TypeParams: decl.TypeParams,
		Methods:    decl.Methods,
	}), nil
}

// MustDefine is Define for static test/setup data; it panics on error.
func (u *Universe) MustDefine(decl ClassDecl) *Class {
	c, err := u.Define(decl)
	if err != nil {
		panic(err)
	}

	return c
}

// Object returns the universal root type.
func (u *Universe) Object() *Class {
	return u.object
}

// Boxed returns the boxed counterpart of a primitive class, or nil.
func (u *Universe) Boxed(c *Class) *Class {
	if c == nil || !c.IsPrimitive() {
		return nil
	}

	return u.boxed[c.Kind]
}

// IsBoxingPair returns true when from and to are a primitive and its
// boxed counterpart, in either direction.
func (u *Universe) IsBoxingPair(from, to *Class) bool {
	if from == nil || to == nil {
		return false
	}

	if from.IsPrimitive() {
		return u.boxed[from.Kind] != nil && u.boxed[from.Kind].Name == to.Name
	}

	if to.IsPrimitive() {
		return u.boxed[to.Kind] != nil && u.boxed[to.Kind].Name == from.Name
	}

	return false
}

// IsImplicitConversion returns true when a value of type from widens
// implicitly to type to. Nothing widens into char.
func (u *Universe) IsImplicitConversion(from, to *Class) bool {
	if from == nil || to == nil || !from.Kind.IsNumeric() || !to.Kind.IsNumeric() {
		return false
	}

	if to.Kind == KindChar {
		return false
	}

	return from.Kind.ImplicitConversionLevel() < to.Kind.ImplicitConversionLevel()
}

// FindClass resolves a textual type name into a class. Imports map
// short aliases used at a binding site to full names. Array suffixes
// and generic type arguments are parsed off the name; unknown names
// are an error so the caller can skip the candidate.
func (u *Universe) FindClass(name string, imports map[string]string) (*Class, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty type name")
	}

	if strings.HasSuffix(name, "[]") {
		component, err := u.FindClass(strings.TrimSuffix(name, "[]"), imports)
		if err != nil {
			return nil, err
		}

		return u.arrayOf(component), nil
	}

	base, args := splitTypeArgs(name)

	if alias, ok := imports[base]; ok {
		base = alias
	}

	raw, ok := u.classes[base]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", base)
	}

	if len(args) == 0 {
		return raw, nil
	}

	return u.instantiate(raw, args, imports), nil
}

// arrayOf returns (and caches) the array type of a component class.
func (u *Universe) arrayOf(component *Class) *Class {
	name := component.Name + "[]"
	if existing, ok := u.classes[name]; ok {
		return existing
	}

	return u.add(&Class{
		Name:      name,
		Kind:      KindArray,
		Super:     ObjectTypeName,
		Component: component.Name,
	})
}

// instantiate builds the generic instantiation of a raw declaration.
// Instantiations are cached under their full name so identity
// comparisons stay cheap.
func (u *Universe) instantiate(raw *Class, args []string, imports map[string]string) *Class {
	resolved := make([]string, len(args))
	for i, arg := range args {
		if c, err := u.FindClass(arg, imports); err == nil {
			resolved[i] = c.Name
		} else {
			// Unresolvable argument: keep the raw text, treated as a
			// type variable by HasTypeVar.
			resolved[i] = arg
		}
	}

	name := raw.Name + "<" + strings.Join(resolved, ", ") + ">"
	if existing, ok := u.classes[name]; ok {
		return existing
	}

	inst := &Class{
		Name:       name,
		Kind:       raw.Kind,
		Super:      raw.Super,
		Interfaces: raw.Interfaces,
		TypeParams: raw.TypeParams,
		TypeArgs:   resolved,
		Methods:    raw.Methods,
		erasure:    raw,
	}

	return u.add(inst)
}

// splitTypeArgs splits "Base<A, B<C>>" into "Base" and its top-level
// type argument strings.
func splitTypeArgs(name string) (string, []string) {
	open := strings.IndexByte(name, '<')
	if open < 0 || !strings.HasSuffix(name, ">") {
		return name, nil
	}

	base := name[:open]
	inner := name[open+1 : len(name)-1]

	var args []string

	depth, start := 0, 0

	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}

	args = append(args, strings.TrimSpace(inner[start:]))

	return base, args
}

// AssignableFrom reports whether a value of type source can be used
// where target is expected, without any conversion. Primitives are
// assignable only to themselves; reference types walk the superclass
// chain and implemented interfaces. Every reference type is assignable
// to the root type.
func (u *Universe) AssignableFrom(target, source *Class) bool {
	if target == nil || source == nil {
		return false
	}

	if target.Equals(source) {
		return true
	}

	if target.IsPrimitive() || source.IsPrimitive() {
		return false
	}

	if target.IsObject() {
		return true
	}

	// Compare erasures: List<String> is assignable where List is
	// expected and vice versa once both sides erase to the same raw
	// declaration or one of its supertypes.
	return u.assignableWalk(target.Erasure().Name, source.Erasure())
}

func (u *Universe) assignableWalk(targetName string, source *Class) bool {
	if source == nil {
		return false
	}

	if source.Name == targetName {
		return true
	}

	for _, iface := range source.Interfaces {
		ifaceBase, _ := splitTypeArgs(iface)
		if ifaceBase == targetName {
			return true
		}

		if c, ok := u.classes[ifaceBase]; ok && u.assignableWalk(targetName, c) {
			return true
		}
	}

	if source.Super == "" {
		return false
	}

	superBase, _ := splitTypeArgs(source.Super)

	super, ok := u.classes[superBase]
	if !ok {
		return false
	}

	return u.assignableWalk(targetName, super)
}

// MaybeErase erases a generic instantiation whose type arguments are
// not all known classes; an unresolved argument stands for a type
// variable and cannot be matched nominally.
func (u *Universe) MaybeErase(c *Class) *Class {
	if c == nil || !c.IsGeneric() {
		return c
	}

	for _, arg := range c.TypeArgs {
		base, _ := splitTypeArgs(strings.TrimSuffix(arg, "[]"))
		if _, ok := u.classes[base]; !ok {
			return c.Erasure()
		}
	}

	return c
}

// EraseIfDependent erases a type when any of its type arguments refer
// to the given type parameter names. Used when the view type at a
// binding site is generic: value types written in terms of the view's
// parameters cannot be matched nominally.
func (u *Universe) EraseIfDependent(c *Class, typeParams []string) *Class {
	if c == nil || !c.HasTypeVar(typeParams) {
		return c
	}

	return c.Erasure()
}

// MethodsOf collects instance methods with the given name and
// parameter count, declared on the class or inherited from its
// superclass chain. Overrides shadow inherited declarations.
func (u *Universe) MethodsOf(c *Class, name string, paramCount int) []Method {
	var out []Method

	seen := make(map[string]struct{})

	for cur := c; cur != nil; {
		for _, m := range cur.Methods {
			if m.Name != name || m.Static || len(m.Params) != paramCount {
				continue
			}

			sig := strings.Join(m.Params, ",")
			if _, ok := seen[sig]; ok {
				continue
			}

			seen[sig] = struct{}{}
			m.Receiver = cur
			out = append(out, m)
		}

		superBase, _ := splitTypeArgs(cur.Super)
		cur = u.classes[superBase]
	}

	return out
}

// FindInstanceGetter finds a no-argument non-void instance method for
// a property name, trying the name itself, then the get- and is-
// prefixed conventions.
func (u *Universe) FindInstanceGetter(c *Class, name string) (Method, bool) {
	for _, candidate := range []string{name, "get" + Capitalize(name), "is" + Capitalize(name)} {
		for _, m := range u.MethodsOf(c, candidate, 0) {
			if !m.IsVoid() {
				return m, true
			}
		}
	}

	return Method{}, false
}

// Capitalize upper-cases the first rune of an identifier.
func Capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
