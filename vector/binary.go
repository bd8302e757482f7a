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
	"math"

	"github.com/columnlab/colf"
	"github.com/columnlab/colf/bitutil"
	"github.com/columnlab/colf/memory"
)

const (
	binaryMaximumCapacity = math.MaxInt32
)

// A Binary is a column vector of variable-length byte values. Row i's bytes
// are the slice [offsets[i], offsets[i+1]) of the data buffer; a zero-length
// slice with the validity bit set is a valid empty value, distinct from
// null. Offsets are monotonically non-decreasing, so rows are written in
// non-decreasing index order; rows skipped over by a write become null.
type Binary struct {
	vectorBase

	offsets *memory.Buffer
	data    *memory.Buffer

	off     []int32
	dataLen int
}

// NewBinary allocates a binary vector for the provided field with room for
// at least capacity rows.
func NewBinary(mem memory.Allocator, field colf.Field, capacity int) (*Binary, error) {
	if field.Type == nil || field.Type.ID() != colf.BINARY {
		return nil, fmt.Errorf("vector: field %q has type %v, not binary: %w",
			field.Name, field.Type, colf.ErrSchemaMismatch)
	}
	v := &Binary{
		vectorBase: newVectorBase(mem, field),
		offsets:    memory.NewResizableBuffer(mem),
		data:       memory.NewResizableBuffer(mem),
	}
	if capacity < minVectorCapacity {
		capacity = minVectorCapacity
	}
	v.grow(capacity)
	return v, nil
}

func (v *Binary) grow(n int) {
	capacity := v.growValidity(n)
	if capacity > v.capacity {
		v.offsets.ResizeNoShrink((capacity + 1) * colf.Int32SizeBytes)
		v.off = castSlice[int32](v.offsets.Bytes())
		v.capacity = capacity
	}
}

// fill advances the offsets up to row n exclusive, marking skipped rows null.
func (v *Binary) fill(n int) {
	for j := v.length; j < n; j++ {
		v.off[j+1] = v.off[j]
	}
}

// Set writes value val at row i. Binary rows are write-once and written in
// non-decreasing index order: i must be at least Len(), and rows in
// (Len(), i) become null.
func (v *Binary) Set(i int, val []byte) error {
	if err := v.checkSet(i); err != nil {
		return err
	}
	if i < v.length {
		return fmt.Errorf("vector: binary row %d already written (next row is %d): %w",
			i, v.length, colf.ErrIndex)
	}
	if v.dataLen+len(val) > binaryMaximumCapacity {
		return fmt.Errorf("vector: binary data for field %q exceeds offset range: %w",
			v.field.Name, colf.ErrIndex)
	}
	v.grow(i + 1)
	v.fill(i)
	if len(val) > 0 {
		v.data.ResizeNoShrink(v.dataLen + len(val))
		copy(v.data.Bytes()[v.dataLen:], val)
		v.dataLen += len(val)
	}
	v.off[i+1] = int32(v.dataLen)
	bitutil.SetBit(v.validity.Bytes(), i)
	v.length = i + 1
	return nil
}

// SetString writes the string val at row i.
func (v *Binary) SetString(i int, val string) error { return v.Set(i, []byte(val)) }

// SetNull writes a null at row i.
func (v *Binary) SetNull(i int) error {
	if err := v.checkSetNull(i); err != nil {
		return err
	}
	if i < v.length {
		return fmt.Errorf("vector: binary row %d already written (next row is %d): %w",
			i, v.length, colf.ErrIndex)
	}
	v.grow(i + 1)
	v.fill(i + 1)
	bitutil.ClearBit(v.validity.Bytes(), i)
	v.length = i + 1
	return nil
}

// Append writes val after the last written row.
func (v *Binary) Append(val []byte) error { return v.Set(v.length, val) }

// AppendString writes the string val after the last written row.
func (v *Binary) AppendString(val string) error { return v.Set(v.length, []byte(val)) }

// AppendNull writes a null after the last written row.
func (v *Binary) AppendNull() error { return v.SetNull(v.length) }

// Value returns the bytes at row i. Null rows yield nil; zero-length valid
// rows yield an empty slice, distinguished from null by IsNull. The
// returned slice must not be mutated.
func (v *Binary) Value(i int) ([]byte, error) {
	if err := v.checkGet(i); err != nil {
		return nil, err
	}
	if v.IsNull(i) {
		return nil, nil
	}
	return v.data.Bytes()[v.off[i]:v.off[i+1]:v.off[i+1]], nil
}

// ValueString returns the bytes at row i as a string.
func (v *Binary) ValueString(i int) (string, error) {
	b, err := v.Value(i)
	return string(b), err
}

// ValueOffsets returns the offsets buffer as Len()+1 int32s.
func (v *Binary) ValueOffsets() []int32 { return v.off[:v.length+1] }

// OffsetBytes returns the raw offsets buffer for [0, Len()+1).
func (v *Binary) OffsetBytes() []byte {
	return v.offsets.Bytes()[:(v.length+1)*colf.Int32SizeBytes]
}

// ValueBytes returns the raw data buffer.
func (v *Binary) ValueBytes() []byte { return v.data.Bytes()[:v.dataLen] }

// DataLen returns the number of bytes in the data buffer.
func (v *Binary) DataLen() int { return v.dataLen }

// Finalize fixes the vector at rows visible rows.
func (v *Binary) Finalize(rows int) error {
	if err := v.checkFinalize(rows); err != nil {
		return err
	}
	if rows >= v.length {
		v.grow(rows)
		v.fill(rows)
		v.length = rows
	} else {
		v.length = rows
		v.dataLen = int(v.off[rows])
	}
	if !v.field.Nullable && v.NullN() > 0 {
		return fmt.Errorf("vector: %d null rows in non-nullable field %q: %w",
			v.NullN(), v.field.Name, colf.ErrSchemaMismatch)
	}
	v.final = true
	return nil
}

// Reset re-arms a finalized vector for reuse, retaining its buffers.
func (v *Binary) Reset() {
	if len(v.off) > 0 {
		v.off[0] = 0
	}
	v.dataLen = 0
	v.reset()
}

// Release releases the underlying buffers.
func (v *Binary) Release() {
	v.release()
	if v.offsets != nil {
		v.offsets.Release()
		v.offsets = nil
		v.off = nil
	}
	if v.data != nil {
		v.data.Release()
		v.data = nil
	}
	v.dataLen = 0
}

var _ Vector = (*Binary)(nil)
