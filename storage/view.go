package storage

import "github.com/hupe1980/gridpls/attr"

// FieldView is a pinned view of one field's values.
type FieldView struct {
	s      *Store
	field  int
	info   attr.Field
	data   []float32
	unlock func()
}

// Field returns the viewed field index.
func (v *FieldView) Field() int { return v.field }

// Info returns the field attributes captured at Acquire.
func (v *FieldView) Info() attr.Field { return v.info }

// Raw returns the stored value without any read rule.
func (v *FieldView) Raw(obj, x int) float32 {
	return v.data[obj*v.s.stride+x]
}

// X returns the value of variable x of object obj with the read rules
// selected by flags.
func (v *FieldView) X(obj, x int, flags Flags) float64 {
	active := true
	if flags&FlagActiveOnly != 0 {
		active = v.info.Status == attr.FieldActive &&
			v.s.attrs.VarFlags(v.field, x).Has(attr.VarActive)
	}
	return transform(v.Raw(obj, x), v.info, active, flags)
}

// SetX stores a raw value.
func (v *FieldView) SetX(obj, x int, value float32) {
	v.data[obj*v.s.stride+x] = value
}

// Page returns the XVars raw values of object obj. The slice aliases the
// field's storage and is valid until Release.
func (v *FieldView) Page(obj int) []float32 {
	off := obj * v.s.stride
	return v.data[off : off+v.s.xVars : off+v.s.xVars]
}

// Release unpins the field. It is idempotent.
func (v *FieldView) Release() {
	if v.unlock != nil {
		u := v.unlock
		v.unlock = nil
		u()
	}
}
