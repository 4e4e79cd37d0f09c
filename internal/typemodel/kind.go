package typemodel

// Kind identifies the fundamental shape of a type in the universe.
type Kind int

const (
	_ Kind = iota // skip zero value, use it as a default (invalid) value for Kind

	KindBool
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindClass
	KindInterface
	KindArray
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindByte:
		return "byte"
	case KindChar:
		return "char"
	case KindShort:
		return "short"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// IsPrimitive returns true for value kinds that box rather than subtype.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindBool, KindByte, KindChar, KindShort, KindInt, KindLong, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// IsNumeric returns true for primitive kinds that participate in widening.
func (k Kind) IsNumeric() bool {
	return k.IsPrimitive() && k != KindBool
}

// ImplicitConversionLevel returns the widening rank of a numeric kind.
// A value widens implicitly to any kind with a strictly greater level.
// Non-numeric kinds return -1.
func (k Kind) ImplicitConversionLevel() int {
	switch k {
	case KindByte:
		return 0
	case KindChar:
		return 1
	case KindShort:
		return 2
	case KindInt:
		return 3
	case KindLong:
		return 4
	case KindFloat:
		return 5
	case KindDouble:
		return 6
	default:
		return -1
	}
}

// DefaultValue returns the literal used when an absent attribute must
// still supply an argument of this kind.
func (k Kind) DefaultValue() string {
	switch k {
	case KindBool:
		return "false"
	case KindByte, KindChar, KindShort, KindInt:
		return "0"
	case KindLong:
		return "0L"
	case KindFloat:
		return "0f"
	case KindDouble:
		return "0.0"
	default:
		return "null"
	}
}

// kindByName maps primitive type names to their kinds.
var kindByName = map[string]Kind{
	"boolean": KindBool,
	"byte":    KindByte,
	"char":    KindChar,
	"short":   KindShort,
	"int":     KindInt,
	"long":    KindLong,
	"float":   KindFloat,
	"double":  KindDouble,
}

// PrimitiveKind returns the kind for a primitive type name, or 0 if the
// name does not denote a primitive.
func PrimitiveKind(name string) Kind {
	return kindByName[name]
}
