// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vector

import (
	"fmt"
	"unsafe"

	"github.com/columnlab/colf"
	"github.com/columnlab/colf/bitutil"
	"github.com/columnlab/colf/memory"
)

// ValueType is the set of Go types storable in a fixed-width vector.
type ValueType interface {
	~int32 | ~int64 | ~float32 | ~float64
}

func sizeOf[T ValueType]() int { return int(unsafe.Sizeof(*new(T))) }

func typeIDOf[T ValueType]() colf.Type {
	switch any(*new(T)).(type) {
	case int32:
		return colf.INT32
	case int64:
		return colf.INT64
	case float32:
		return colf.FLOAT32
	default:
		return colf.FLOAT64
	}
}

func castSlice[T ValueType](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/sizeOf[T]())
}

// A Numeric is a column vector of one of the fixed-width value types.
// Values live in a single flat buffer of Len()*width bytes.
type Numeric[T ValueType] struct {
	vectorBase

	values *memory.Buffer
	data   []T
}

// NewNumeric allocates a fixed-width vector for the provided field with
// room for at least capacity rows. It fails when the field's type tag does
// not match T.
func NewNumeric[T ValueType](mem memory.Allocator, field colf.Field, capacity int) (*Numeric[T], error) {
	if id := typeIDOf[T](); field.Type == nil || field.Type.ID() != id {
		return nil, fmt.Errorf("vector: field %q has type %v, not %v: %w",
			field.Name, field.Type, colf.TypeOf(id), colf.ErrSchemaMismatch)
	}
	v := &Numeric[T]{
		vectorBase: newVectorBase(mem, field),
		values:     memory.NewResizableBuffer(mem),
	}
	if capacity < minVectorCapacity {
		capacity = minVectorCapacity
	}
	v.grow(capacity)
	return v, nil
}

func (v *Numeric[T]) grow(n int) {
	capacity := v.growValidity(n)
	if capacity > v.capacity {
		v.values.ResizeNoShrink(capacity * sizeOf[T]())
		v.data = castSlice[T](v.values.Bytes())
		v.capacity = capacity
	}
}

// Set writes value val at row i, growing the vector as needed. Rows in
// (Len(), i) skipped over by the write become null.
func (v *Numeric[T]) Set(i int, val T) error {
	if err := v.checkSet(i); err != nil {
		return err
	}
	v.grow(i + 1)
	v.data[i] = val
	bitutil.SetBit(v.validity.Bytes(), i)
	if i >= v.length {
		v.length = i + 1
	}
	return nil
}

// SetNull writes a null at row i.
func (v *Numeric[T]) SetNull(i int) error {
	if err := v.checkSetNull(i); err != nil {
		return err
	}
	v.grow(i + 1)
	v.data[i] = *new(T)
	bitutil.ClearBit(v.validity.Bytes(), i)
	if i >= v.length {
		v.length = i + 1
	}
	return nil
}

// Append writes val after the last written row.
func (v *Numeric[T]) Append(val T) error { return v.Set(v.length, val) }

// AppendNull writes a null after the last written row.
func (v *Numeric[T]) AppendNull() error { return v.SetNull(v.length) }

// Value returns the value at row i. Null rows yield the zero value; use
// IsNull to distinguish.
func (v *Numeric[T]) Value(i int) (T, error) {
	if err := v.checkGet(i); err != nil {
		return *new(T), err
	}
	return v.data[i], nil
}

// Values returns the value buffer as a typed slice of Len() elements.
// Null rows hold the zero value.
func (v *Numeric[T]) Values() []T { return v.data[:v.length] }

// ValueBytes returns the raw value buffer for [0, Len()).
func (v *Numeric[T]) ValueBytes() []byte {
	return v.values.Bytes()[:v.length*sizeOf[T]()]
}

// Finalize fixes the vector at rows visible rows.
func (v *Numeric[T]) Finalize(rows int) error {
	if err := v.checkFinalize(rows); err != nil {
		return err
	}
	v.grow(rows)
	v.length = rows
	if !v.field.Nullable && v.NullN() > 0 {
		return fmt.Errorf("vector: %d null rows in non-nullable field %q: %w",
			v.NullN(), v.field.Name, colf.ErrSchemaMismatch)
	}
	v.final = true
	return nil
}

// Reset re-arms a finalized vector for reuse, retaining its buffers.
func (v *Numeric[T]) Reset() {
	for i := range v.data[:v.length] {
		v.data[i] = *new(T)
	}
	v.reset()
}

// Release releases the underlying buffers.
func (v *Numeric[T]) Release() {
	v.release()
	if v.values != nil {
		v.values.Release()
		v.values = nil
		v.data = nil
	}
}

var (
	_ Vector = (*Numeric[int32])(nil)
	_ Vector = (*Numeric[int64])(nil)
	_ Vector = (*Numeric[float32])(nil)
	_ Vector = (*Numeric[float64])(nil)
)
