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

// Package vector provides in-memory column vectors and record batches.
//
// A vector holds one column's values for one batch: a validity bitmap plus
// either a fixed-width value buffer or, for binary columns, an offsets
// buffer and a data buffer. Vectors are populated with Set/Append, fixed
// with Finalize, and then assembled into a Record.
package vector

import (
	"fmt"

	"github.com/columnlab/colf"
	"github.com/columnlab/colf/bitutil"
	"github.com/columnlab/colf/memory"
)

const (
	minVectorCapacity = 32
)

// Vector is the interface implemented by all column vectors.
type Vector interface {
	// Field returns the field this vector holds values for.
	Field() colf.Field
	// DataType returns the vector's data type.
	DataType() colf.DataType

	// Len returns the number of rows. Before Finalize it is the high-water
	// mark of written rows; afterwards it is the finalized row count.
	Len() int
	// Cap returns the number of rows the vector can hold without growing.
	Cap() int
	// NullN returns the number of null rows in [0, Len()).
	NullN() int
	// IsNull reports whether row i is null. i must be in [0, Len()).
	IsNull(i int) bool
	// IsValid reports whether row i is non-null. i must be in [0, Len()).
	IsValid(i int) bool

	// SetNull writes a null at row i.
	SetNull(i int) error
	// AppendNull writes a null after the last written row.
	AppendNull() error

	// Finalize fixes the vector at rows visible rows. No further writes are
	// permitted until Reset.
	Finalize(rows int) error
	// Finalized reports whether the vector has been finalized.
	Finalized() bool
	// Reset re-arms a finalized vector for reuse, retaining its buffers.
	Reset()

	// ValidityBytes returns the validity bitmap bytes for [0, Len()).
	ValidityBytes() []byte

	// Release releases the underlying buffers.
	Release()
}

// New allocates a vector for the provided field with room for at least
// capacity rows.
func New(mem memory.Allocator, field colf.Field, capacity int) (Vector, error) {
	switch field.Type.ID() {
	case colf.INT32:
		return NewNumeric[int32](mem, field, capacity)
	case colf.INT64:
		return NewNumeric[int64](mem, field, capacity)
	case colf.FLOAT32:
		return NewNumeric[float32](mem, field, capacity)
	case colf.FLOAT64:
		return NewNumeric[float64](mem, field, capacity)
	case colf.BINARY:
		return NewBinary(mem, field, capacity)
	}
	return nil, fmt.Errorf("vector: unsupported data type %v: %w", field.Type, colf.ErrSchema)
}

// Buffers returns the serialized buffer views of a finalized vector, in
// body order: the validity bitmap, the offsets buffer (nil for fixed-width
// vectors) and the value buffer. The views alias the vector's storage and
// are valid until Reset or Release.
func Buffers(v Vector) (validity, offsets, values []byte) {
	validity = v.ValidityBytes()
	switch v := v.(type) {
	case *Numeric[int32]:
		values = v.ValueBytes()
	case *Numeric[int64]:
		values = v.ValueBytes()
	case *Numeric[float32]:
		values = v.ValueBytes()
	case *Numeric[float64]:
		values = v.ValueBytes()
	case *Binary:
		offsets = v.OffsetBytes()
		values = v.ValueBytes()
	}
	return validity, offsets, values
}

// vectorBase carries the state shared by all vector kinds.
type vectorBase struct {
	field colf.Field
	mem   memory.Allocator

	validity *memory.Buffer
	length   int
	capacity int
	final    bool
}

func newVectorBase(mem memory.Allocator, field colf.Field) vectorBase {
	return vectorBase{
		field:    field,
		mem:      mem,
		validity: memory.NewResizableBuffer(mem),
	}
}

func (vb *vectorBase) Field() colf.Field       { return vb.field }
func (vb *vectorBase) DataType() colf.DataType { return vb.field.Type }
func (vb *vectorBase) Len() int                { return vb.length }
func (vb *vectorBase) Cap() int                { return vb.capacity }
func (vb *vectorBase) Finalized() bool         { return vb.final }

func (vb *vectorBase) NullN() int {
	if vb.length == 0 {
		return 0
	}
	return vb.length - bitutil.CountSetBits(vb.validity.Bytes(), vb.length)
}

func (vb *vectorBase) IsNull(i int) bool  { return bitutil.BitIsNotSet(vb.validity.Bytes(), i) }
func (vb *vectorBase) IsValid(i int) bool { return bitutil.BitIsSet(vb.validity.Bytes(), i) }

// ValidityBytes returns the validity bitmap bytes for [0, Len()).
func (vb *vectorBase) ValidityBytes() []byte {
	return vb.validity.Bytes()[:bitutil.BytesForBits(vb.length)]
}

// growValidity ensures the validity bitmap covers at least n rows, at least
// doubling capacity so repeated writes amortize to O(1).
func (vb *vectorBase) growValidity(n int) int {
	if n <= vb.capacity {
		return vb.capacity
	}
	capacity := bitutil.NextPowerOf2(n)
	if capacity < 2*vb.capacity {
		capacity = 2 * vb.capacity
	}
	if capacity < minVectorCapacity {
		capacity = minVectorCapacity
	}
	vb.validity.ResizeNoShrink(bitutil.BytesForBits(capacity))
	return capacity
}

// checkSet validates a write of row i and reports the class of failure.
func (vb *vectorBase) checkSet(i int) error {
	if vb.final {
		return fmt.Errorf("vector: write to finalized vector for field %q: %w", vb.field.Name, colf.ErrState)
	}
	if i < 0 {
		return fmt.Errorf("vector: negative row index %d: %w", i, colf.ErrIndex)
	}
	return nil
}

func (vb *vectorBase) checkSetNull(i int) error {
	if err := vb.checkSet(i); err != nil {
		return err
	}
	if !vb.field.Nullable {
		return fmt.Errorf("vector: null value in non-nullable field %q: %w", vb.field.Name, colf.ErrSchemaMismatch)
	}
	return nil
}

func (vb *vectorBase) checkGet(i int) error {
	if i < 0 || i >= vb.length {
		return fmt.Errorf("vector: row index %d out of range [0, %d): %w", i, vb.length, colf.ErrIndex)
	}
	return nil
}

func (vb *vectorBase) checkFinalize(rows int) error {
	if vb.final {
		return fmt.Errorf("vector: vector for field %q already finalized: %w", vb.field.Name, colf.ErrState)
	}
	if rows < 0 {
		return fmt.Errorf("vector: negative row count %d: %w", rows, colf.ErrIndex)
	}
	return nil
}

func (vb *vectorBase) reset() {
	if vb.validity.Len() > 0 {
		memory.Set(vb.validity.Bytes(), 0)
	}
	vb.length = 0
	vb.final = false
}

func (vb *vectorBase) release() {
	if vb.validity != nil {
		vb.validity.Release()
		vb.validity = nil
	}
}
