package types

type Kind uint8

const (
	KindScalar Kind = iota
	KindEnum
	KindStruct
	KindUnion
	KindArray
	KindRegister
	KindGroup
	KindFile
)

var kindNames = [...]string{
	KindScalar:   "scalar",
	KindEnum:     "enum",
	KindStruct:   "struct",
	KindUnion:    "union",
	KindArray:    "array",
	KindRegister: "register",
	KindGroup:    "group",
	KindFile:     "file",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsLeaf reports whether the kind has no fields of its own.
func (k Kind) IsLeaf() bool {
	return k <= KindEnum
}

// IsAssembly reports whether the kind places named fields in a bit range.
func (k Kind) IsAssembly() bool {
	switch k {
	case KindStruct, KindUnion, KindRegister:
		return true
	default:
		return false
	}
}

// IsAddressed reports whether the kind is laid out in byte address space
// rather than in a single bit vector.
func (k Kind) IsAddressed() bool {
	return k == KindGroup || k == KindFile
}

// ParseKind parses a kind name as printed by String.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}
