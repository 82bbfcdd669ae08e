package vm

import "github.com/rs/zerolog"

// ConstantKind tags how a constant pool entry is referenced by the text
// pool. Classification must run before decoding: a MethodRef constant
// marks a text offset as a method header rather than an opcode, and the
// decoder cannot tell the difference without this pass. See spec.md §4.2.
type ConstantKind int

const (
	KindNone ConstantKind = iota
	KindMethodRef
	KindStackValue
	KindEither
)

func (k ConstantKind) String() string {
	switch k {
	case KindMethodRef:
		return "MethodRef"
	case KindStackValue:
		return "StackValue"
	case KindEither:
		return "Either"
	default:
		return "None"
	}
}

func (k ConstantKind) asMethodRef() ConstantKind {
	switch k {
	case KindStackValue:
		return KindEither
	case KindNone:
		return KindMethodRef
	default:
		return k
	}
}

func (k ConstantKind) asStackValue() ConstantKind {
	switch k {
	case KindMethodRef:
		return KindEither
	case KindNone:
		return KindStackValue
	default:
		return k
	}
}

// classifyConstants scans the text pool for LDC_W and INVOKEVIRTUAL
// references and tags each constant pool index with how it is used.
// Unmapped constants are logged as warnings but classification never
// fails — spec.md §4.2 treats this as non-fatal.
func classifyConstants(log zerolog.Logger, numConstants int, text []byte) []ConstantKind {
	kinds := make([]ConstantKind, numConstants)

	for i := 0; i < len(text); i++ {
		if text[i] == byte(LdcW) && i+2 < len(text) {
			idx := int(text[i+1])<<8 | int(text[i+2])
			if idx < len(kinds) {
				kinds[idx] = kinds[idx].asStackValue()
			}
		}
	}

	for i := 0; i < len(text); i++ {
		if text[i] == byte(Invokevirtual) && i+2 < len(text) {
			idx := int(text[i+1])<<8 | int(text[i+2])
			if idx < len(kinds) {
				kinds[idx] = kinds[idx].asMethodRef()
			}
		}
	}

	for i, k := range kinds {
		if k == KindNone {
			log.Warn().Int("constant", i).Msg("constant is never referenced by LDC_W or INVOKEVIRTUAL")
		}
	}

	return kinds
}
