package attr

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/gridpls/internal/conv"
)

var (
	// ErrInvalidListRange is returned when an index falls outside the valid set.
	ErrInvalidListRange = errors.New("invalid list range")
	// ErrWrongDataFormat is returned for malformed weights or numeric input.
	ErrWrongDataFormat = errors.New("wrong data format")
)

// Object is one conformer instance.
type Object struct {
	ID        int
	Structure int
	Weight    float64
	Status    ObjectStatus
}

// Field is the per-field attribute record.
type Field struct {
	Status  FieldStatus
	Operate bool
	// Weight multiplies values read with the weight flag.
	Weight float64
	// MinCutoff and MaxCutoff clip values read with the cutoff flag.
	MinCutoff float64
	MaxCutoff float64
	// SDCutoff is the standard deviation a variable must exceed to be active.
	SDCutoff float64
	// ActiveVars is maintained by classification.
	ActiveVars int

	Min   float64
	Max   float64
	Zeros int
}

// YVar is the per response-variable record.
type YVar struct {
	Name   string
	Flags  YFlags
	Weight float64
	Mean   float64
	SD     float64
}

// Counts are the derived set sizes refreshed by Recount.
type Counts struct {
	ActiveFields  int
	ActiveObjects int
	TestObjects   int
}

// Store holds all attribute state of a dataset.
type Store struct {
	xVars   int
	objects []Object
	fields  []Field
	vars    [][]VarFlags
	yvars   []YVar
	counts  Counts

	// structure key -> member object indices, in object order
	members map[int][]int
	keys    []int
}

// New returns an empty store for fields of xVars grid variables.
func New(xVars int) *Store {
	return &Store{
		xVars:   xVars,
		members: make(map[int][]int),
	}
}

// XVars returns the number of grid variables per field.
func (s *Store) XVars() int { return s.xVars }

// NumObjects returns the number of objects.
func (s *Store) NumObjects() int { return len(s.objects) }

// NumFields returns the number of fields.
func (s *Store) NumFields() int { return len(s.fields) }

// NumYVars returns the number of response variables.
func (s *Store) NumYVars() int { return len(s.yvars) }

// Counts returns the set sizes computed by the last Recount.
func (s *Store) Counts() Counts { return s.counts }

// AddObject appends a training-set object of weight 1 and returns its index.
func (s *Store) AddObject(id, structure int) int {
	idx := len(s.objects)
	s.objects = append(s.objects, Object{
		ID:        id,
		Structure: structure,
		Weight:    1,
		Status:    ObjectActive,
	})
	if _, ok := s.members[structure]; !ok {
		i, _ := slices.BinarySearch(s.keys, structure)
		s.keys = slices.Insert(s.keys, i, structure)
	}
	s.members[structure] = append(s.members[structure], idx)
	return idx
}

// AddFields appends n active fields with every variable active and no
// weighting or clipping, and returns the index of the first new field.
func (s *Store) AddFields(n int) int {
	first := len(s.fields)
	for i := 0; i < n; i++ {
		s.fields = append(s.fields, Field{
			Status:    FieldActive,
			Weight:    1,
			MinCutoff: -math.MaxFloat32,
			MaxCutoff: math.MaxFloat32,
		})
		v := make([]VarFlags, s.xVars)
		for j := range v {
			v[j] = VarActive
		}
		s.vars = append(s.vars, v)
	}
	return first
}

// AddYVar appends an active response variable and returns its index.
func (s *Store) AddYVar(name string) int {
	s.yvars = append(s.yvars, YVar{Name: name, Flags: YActive, Weight: 1})
	return len(s.yvars) - 1
}

func checkRange(kind string, i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %s %d not in [0,%d)", ErrInvalidListRange, kind, i, n)
	}
	return nil
}

// Object returns object i, or the zero Object when i is out of range.
func (s *Store) Object(i int) Object {
	if i < 0 || i >= len(s.objects) {
		return Object{}
	}
	return s.objects[i]
}

// ObjectStatus returns the status of object i.
func (s *Store) ObjectStatus(i int) ObjectStatus { return s.Object(i).Status }

// SetObjectStatus moves object i into the set named by status.
func (s *Store) SetObjectStatus(i int, status ObjectStatus) error {
	if err := checkRange("object", i, len(s.objects)); err != nil {
		return err
	}
	s.objects[i].Status = status
	return nil
}

// SetObjectWeight sets the weight of object i.
func (s *Store) SetObjectWeight(i int, w float64) error {
	if err := checkRange("object", i, len(s.objects)); err != nil {
		return err
	}
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: weight %g", ErrWrongDataFormat, w)
	}
	s.objects[i].Weight = w
	return nil
}

// ParseWeights parses a comma or whitespace separated list of non-negative weights.
func ParseWeights(text string) ([]float64, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	weights := make([]float64, 0, len(fields))
	for _, f := range fields {
		w, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrWrongDataFormat, f, err)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %q", ErrWrongDataFormat, f)
		}
		weights = append(weights, w)
	}
	return weights, nil
}

// SetObjectWeightsText assigns weights parsed from text to the objects in
// order. The number of weights must equal the number of objects; on error no
// weight is changed.
func (s *Store) SetObjectWeightsText(text string) error {
	weights, err := ParseWeights(text)
	if err != nil {
		return err
	}
	if len(weights) != len(s.objects) {
		return fmt.Errorf("%w: %d weights for %d objects", ErrWrongDataFormat, len(weights), len(s.objects))
	}
	for i, w := range weights {
		s.objects[i].Weight = w
	}
	return nil
}

// Field returns field f, or the zero Field when f is out of range.
func (s *Store) Field(f int) Field {
	if f < 0 || f >= len(s.fields) {
		return Field{}
	}
	return s.fields[f]
}

// SetFieldStatus sets the status of field f.
func (s *Store) SetFieldStatus(f int, status FieldStatus) error {
	if err := checkRange("field", f, len(s.fields)); err != nil {
		return err
	}
	s.fields[f].Status = status
	return nil
}

// SetFieldOperate marks field f as the target of editing operations.
func (s *Store) SetFieldOperate(f int, on bool) error {
	if err := checkRange("field", f, len(s.fields)); err != nil {
		return err
	}
	s.fields[f].Operate = on
	return nil
}

// OperateFields returns the indices of fields marked with SetFieldOperate.
func (s *Store) OperateFields() []int {
	var out []int
	for i, f := range s.fields {
		if f.Operate {
			out = append(out, i)
		}
	}
	return out
}

// SetFieldWeight sets the scalar weight of field f.
func (s *Store) SetFieldWeight(f int, w float64) error {
	if err := checkRange("field", f, len(s.fields)); err != nil {
		return err
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: field weight %g", ErrWrongDataFormat, w)
	}
	s.fields[f].Weight = w
	return nil
}

// SetFieldCutoffs sets the clipping range of field f.
func (s *Store) SetFieldCutoffs(f int, lo, hi float64) error {
	if err := checkRange("field", f, len(s.fields)); err != nil {
		return err
	}
	if lo > hi || math.IsNaN(lo) || math.IsNaN(hi) {
		return fmt.Errorf("%w: cutoffs [%g,%g]", ErrWrongDataFormat, lo, hi)
	}
	s.fields[f].MinCutoff = lo
	s.fields[f].MaxCutoff = hi
	return nil
}

// SetFieldSDCutoff sets the classification threshold of field f.
func (s *Store) SetFieldSDCutoff(f int, sd float64) error {
	if err := checkRange("field", f, len(s.fields)); err != nil {
		return err
	}
	if sd < 0 || math.IsNaN(sd) {
		return fmt.Errorf("%w: sd cutoff %g", ErrWrongDataFormat, sd)
	}
	s.fields[f].SDCutoff = sd
	return nil
}

// SetFieldSummary records min, max and zero count of field f.
func (s *Store) SetFieldSummary(f int, lo, hi float64, zeros int) error {
	if err := checkRange("field", f, len(s.fields)); err != nil {
		return err
	}
	s.fields[f].Min, s.fields[f].Max, s.fields[f].Zeros = lo, hi, zeros
	return nil
}

// VarFlags returns the flags of variable v in field f, or 0 when out of range.
func (s *Store) VarFlags(f, v int) VarFlags {
	if f < 0 || f >= len(s.vars) || v < 0 || v >= s.xVars {
		return 0
	}
	return s.vars[f][v]
}

// SetVarFlags sets mask on variable v of field f.
func (s *Store) SetVarFlags(f, v int, mask VarFlags) error {
	if err := s.checkVar(f, v); err != nil {
		return err
	}
	s.vars[f][v] |= mask
	return nil
}

// ClearVarFlags clears mask on variable v of field f.
func (s *Store) ClearVarFlags(f, v int, mask VarFlags) error {
	if err := s.checkVar(f, v); err != nil {
		return err
	}
	s.vars[f][v] &^= mask
	return nil
}

func (s *Store) checkVar(f, v int) error {
	if err := checkRange("field", f, len(s.fields)); err != nil {
		return err
	}
	return checkRange("variable", v, s.xVars)
}

// SetActiveVarCount records the classification result for field f.
func (s *Store) SetActiveVarCount(f, n int) error {
	if err := checkRange("field", f, len(s.fields)); err != nil {
		return err
	}
	s.fields[f].ActiveVars = n
	return nil
}

// YVar returns response variable y, or the zero YVar when out of range.
func (s *Store) YVar(y int) YVar {
	if y < 0 || y >= len(s.yvars) {
		return YVar{}
	}
	return s.yvars[y]
}

// SetYFlags sets mask on response variable y.
func (s *Store) SetYFlags(y int, mask YFlags) error {
	if err := checkRange("y variable", y, len(s.yvars)); err != nil {
		return err
	}
	s.yvars[y].Flags |= mask
	return nil
}

// ClearYFlags clears mask on response variable y.
func (s *Store) ClearYFlags(y int, mask YFlags) error {
	if err := checkRange("y variable", y, len(s.yvars)); err != nil {
		return err
	}
	s.yvars[y].Flags &^= mask
	return nil
}

// SetYWeight sets the weight coefficient of response variable y.
func (s *Store) SetYWeight(y int, w float64) error {
	if err := checkRange("y variable", y, len(s.yvars)); err != nil {
		return err
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: y weight %g", ErrWrongDataFormat, w)
	}
	s.yvars[y].Weight = w
	return nil
}

// SetYSummary records the mean and standard deviation of response variable y.
func (s *Store) SetYSummary(y int, mean, sd float64) error {
	if err := checkRange("y variable", y, len(s.yvars)); err != nil {
		return err
	}
	s.yvars[y].Mean, s.yvars[y].SD = mean, sd
	return nil
}

// Recount refreshes the derived set sizes.
func (s *Store) Recount() Counts {
	var c Counts
	for _, f := range s.fields {
		if f.Status == FieldActive {
			c.ActiveFields++
		}
	}
	for _, o := range s.objects {
		switch o.Status {
		case ObjectActive:
			c.ActiveObjects++
		case ObjectPredict:
			c.TestObjects++
		}
	}
	s.counts = c
	return c
}

// NumStructures returns the number of distinct parent structures.
func (s *Store) NumStructures() int { return len(s.keys) }

// Structures returns the member object indices of every structure, ordered
// by structure key. The returned slices must not be modified.
func (s *Store) Structures() [][]int {
	out := make([][]int, len(s.keys))
	for i, k := range s.keys {
		out[i] = s.members[k]
	}
	return out
}

// StructureKey returns the parent-structure key of structure index i.
func (s *Store) StructureKey(i int) int {
	if i < 0 || i >= len(s.keys) {
		return 0
	}
	return s.keys[i]
}

// ActiveStructures returns the indices (into Structures) of structures with
// at least one training object of positive weight.
func (s *Store) ActiveStructures() []int {
	var out []int
	for i, k := range s.keys {
		for _, o := range s.members[k] {
			if s.objects[o].Status == ObjectActive && s.objects[o].Weight > 0 {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func (s *Store) objectsWith(status ObjectStatus) *roaring.Bitmap {
	b := roaring.New()
	for i, o := range s.objects {
		if o.Status == status {
			id, err := conv.IntToUint32(i)
			if err != nil {
				break
			}
			b.Add(id)
		}
	}
	return b
}

// ActiveObjects returns the training set as a bitmap of object indices.
func (s *Store) ActiveObjects() *roaring.Bitmap { return s.objectsWith(ObjectActive) }

// TestObjects returns the test set as a bitmap of object indices.
func (s *Store) TestObjects() *roaring.Bitmap { return s.objectsWith(ObjectPredict) }

// VarsWith returns the variables of field f that carry all bits of mask.
func (s *Store) VarsWith(f int, mask VarFlags) *roaring.Bitmap {
	b := roaring.New()
	if f < 0 || f >= len(s.vars) {
		return b
	}
	for v, flags := range s.vars[f] {
		if flags.Has(mask) {
			b.Add(uint32(v))
		}
	}
	return b
}

// ActiveVars returns the active variables of field f.
func (s *Store) ActiveVars(f int) *roaring.Bitmap { return s.VarsWith(f, VarActive) }

// RestoreField overwrites the whole record of field f.
func (s *Store) RestoreField(f int, rec Field) error {
	if err := checkRange("field", f, len(s.fields)); err != nil {
		return err
	}
	s.fields[f] = rec
	return nil
}

// RestoreYVar overwrites the whole record of y variable y.
func (s *Store) RestoreYVar(y int, rec YVar) error {
	if err := checkRange("y variable", y, len(s.yvars)); err != nil {
		return err
	}
	s.yvars[y] = rec
	return nil
}

// ReplaceVarFlags overwrites every variable flag of field f from masks, one
// bitmap per flag bit. It is the inverse of VarsWith used when restoring.
func (s *Store) ReplaceVarFlags(f int, masks map[VarFlags]*roaring.Bitmap) error {
	if err := checkRange("field", f, len(s.fields)); err != nil {
		return err
	}
	clear(s.vars[f])
	for bit, b := range masks {
		it := b.Iterator()
		for it.HasNext() {
			v := int(it.Next())
			if v >= s.xVars {
				return fmt.Errorf("%w: variable %d not in [0,%d)", ErrInvalidListRange, v, s.xVars)
			}
			s.vars[f][v] |= bit
		}
	}
	return nil
}
