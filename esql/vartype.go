package esql

// CobolVarType is the closed enumeration of host-variable storage shapes
// the marshalling layer must handle (spec.md §3).
type CobolVarType int

const (
	UnsignedNumber CobolVarType = iota
	SignedNumberTC              // trailing combined sign
	SignedNumberTS              // trailing separate sign
	SignedNumberLC              // leading combined sign
	SignedNumberLS              // leading separate sign
	UnsignedNumberPD             // packed decimal
	SignedNumberPD
	UnsignedBinary
	SignedBinary
	Alphanumeric
	Japanese
)

func (t CobolVarType) String() string {
	switch t {
	case UnsignedNumber:
		return "UNSIGNED_NUMBER"
	case SignedNumberTC:
		return "SIGNED_NUMBER_TC"
	case SignedNumberTS:
		return "SIGNED_NUMBER_TS"
	case SignedNumberLC:
		return "SIGNED_NUMBER_LC"
	case SignedNumberLS:
		return "SIGNED_NUMBER_LS"
	case UnsignedNumberPD:
		return "UNSIGNED_NUMBER_PD"
	case SignedNumberPD:
		return "SIGNED_NUMBER_PD"
	case UnsignedBinary:
		return "UNSIGNED_BINARY"
	case SignedBinary:
		return "SIGNED_BINARY"
	case Alphanumeric:
		return "ALPHANUMERIC"
	case Japanese:
		return "JAPANESE"
	default:
		return "UNKNOWN"
	}
}

// IsSigned reports whether the type carries a sign.
func (t CobolVarType) IsSigned() bool {
	switch t {
	case SignedNumberTC, SignedNumberTS, SignedNumberLC, SignedNumberLS, SignedNumberPD, SignedBinary:
		return true
	default:
		return false
	}
}

// IsPacked reports whether the type is stored as packed (COMP-3) decimal.
func (t CobolVarType) IsPacked() bool {
	return t == UnsignedNumberPD || t == SignedNumberPD
}

// IsBinary reports whether the type is stored as native binary (COMP).
func (t CobolVarType) IsBinary() bool {
	return t == UnsignedBinary || t == SignedBinary
}
