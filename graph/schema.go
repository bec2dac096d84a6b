package graph

import (
	"errors"
	"fmt"
	"reflect"
)

// StateSchema defines how a node's update is merged into the running state.
type StateSchema[S any] interface {
	// Init returns the initial state.
	Init() S

	// Update merges the new state into the current state.
	Update(current, new S) (S, error)
}

// StructSchema is a StateSchema driven by a single merge function.
type StructSchema[S any] struct {
	InitialValue S
	MergeFunc    func(current, new S) (S, error)
}

// NewStructSchema creates a StructSchema. A nil merge uses DefaultStructMerge.
func NewStructSchema[S any](initial S, merge func(S, S) (S, error)) *StructSchema[S] {
	if merge == nil {
		merge = DefaultStructMerge[S]
	}
	return &StructSchema[S]{
		InitialValue: initial,
		MergeFunc:    merge,
	}
}

// Init returns the initial value.
func (s *StructSchema[S]) Init() S {
	return s.InitialValue
}

// Update applies the merge function.
func (s *StructSchema[S]) Update(current, new S) (S, error) {
	return s.MergeFunc(current, new)
}

// DefaultStructMerge overwrites every exported field whose new value is non-zero.
func DefaultStructMerge[S any](current, new S) (S, error) {
	cur := reflect.ValueOf(current)
	if cur.Kind() != reflect.Struct {
		var zero S
		return zero, errors.New("DefaultStructMerge only works with struct types")
	}
	nv := reflect.ValueOf(new)

	result := reflect.New(cur.Type()).Elem()
	result.Set(cur)
	for i := 0; i < cur.NumField(); i++ {
		if !cur.Type().Field(i).IsExported() {
			continue
		}
		if f := nv.Field(i); !f.IsZero() {
			result.Field(i).Set(f)
		}
	}
	return result.Interface().(S), nil
}

// FieldMergeFunc merges one struct field.
type FieldMergeFunc func(current, new reflect.Value) reflect.Value

// FieldMerger merges struct states field by field. Fields without a registered merge
// function are overwritten when the update carries a non-zero value.
type FieldMerger[S any] struct {
	InitialValue S
	fieldMerges  map[string]FieldMergeFunc
}

// NewFieldMerger creates a FieldMerger seeded with initial.
func NewFieldMerger[S any](initial S) *FieldMerger[S] {
	return &FieldMerger[S]{
		InitialValue: initial,
		fieldMerges:  make(map[string]FieldMergeFunc),
	}
}

// RegisterFieldMerge sets the merge function for the named field.
func (fm *FieldMerger[S]) RegisterFieldMerge(fieldName string, fn FieldMergeFunc) {
	fm.fieldMerges[fieldName] = fn
}

// Init returns the initial value.
func (fm *FieldMerger[S]) Init() S {
	return fm.InitialValue
}

// Update merges new into current.
func (fm *FieldMerger[S]) Update(current, new S) (S, error) {
	cur := reflect.ValueOf(current)
	if cur.Kind() != reflect.Struct {
		var zero S
		return zero, errors.New("FieldMerger only works with struct types")
	}
	nv := reflect.ValueOf(new)
	typ := cur.Type()

	result := reflect.New(typ).Elem()
	result.Set(cur)
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		if fn, ok := fm.fieldMerges[field.Name]; ok {
			merged := fn(cur.Field(i), nv.Field(i))
			if merged.Type() != field.Type {
				var zero S
				return zero, fmt.Errorf("merge for field %s returned %s, want %s", field.Name, merged.Type(), field.Type)
			}
			result.Field(i).Set(merged)
			continue
		}
		if f := nv.Field(i); !f.IsZero() {
			result.Field(i).Set(f)
		}
	}
	return result.Interface().(S), nil
}

// AppendSliceMerge appends the new slice to the current one. The result never shares a
// backing array with current, so earlier states are not affected.
func AppendSliceMerge(current, new reflect.Value) reflect.Value {
	if current.Kind() != reflect.Slice || new.Kind() != reflect.Slice {
		return new
	}
	if new.Len() == 0 {
		return current
	}
	out := reflect.MakeSlice(current.Type(), 0, current.Len()+new.Len())
	out = reflect.AppendSlice(out, current)
	return reflect.AppendSlice(out, new)
}

// OverwriteMerge always takes the new value, zero or not.
func OverwriteMerge(current, new reflect.Value) reflect.Value {
	return new
}

// KeepCurrentMerge ignores updates for the field.
func KeepCurrentMerge(current, new reflect.Value) reflect.Value {
	return current
}
