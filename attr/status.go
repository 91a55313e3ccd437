package attr

// ObjectStatus is the set membership of an object.
type ObjectStatus uint8

const (
	// ObjectUnset objects belong to neither the training nor the test set.
	ObjectUnset ObjectStatus = iota
	// ObjectActive objects form the training set.
	ObjectActive
	// ObjectPredict objects form the external test set.
	ObjectPredict
	// ObjectDeleted objects are excluded from everything.
	ObjectDeleted
)

func (s ObjectStatus) String() string {
	switch s {
	case ObjectActive:
		return "active"
	case ObjectPredict:
		return "predict"
	case ObjectDeleted:
		return "deleted"
	default:
		return "unset"
	}
}

// FieldStatus is the analysis membership of a field.
type FieldStatus uint8

const (
	FieldUnset FieldStatus = iota
	FieldActive
	FieldDeleted
)

func (s FieldStatus) String() string {
	switch s {
	case FieldActive:
		return "active"
	case FieldDeleted:
		return "deleted"
	default:
		return "unset"
	}
}

// VarFlags is the per (field, variable) bit set.
type VarFlags uint16

const (
	// VarActive marks a variable that passed classification.
	VarActive VarFlags = 1 << iota
	// VarDelete excludes a variable regardless of its variance.
	VarDelete
	VarTwoLevel
	VarThreeLevel
	VarFourLevel
	VarVoronoi
	VarSelected
)

// VarFlagBits lists every defined VarFlags bit in ascending order.
var VarFlagBits = []VarFlags{VarActive, VarDelete, VarTwoLevel, VarThreeLevel, VarFourLevel, VarVoronoi, VarSelected}

// Has reports whether all bits of mask are set.
func (f VarFlags) Has(mask VarFlags) bool { return f&mask == mask }

// YFlags is the per response-variable bit set.
type YFlags uint8

const (
	YActive YFlags = 1 << iota
	YOperate
)

// Has reports whether all bits of mask are set.
func (f YFlags) Has(mask YFlags) bool { return f&mask == mask }
