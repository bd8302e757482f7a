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
	"encoding/binary"
	"fmt"

	"github.com/columnlab/colf"
	"github.com/columnlab/colf/bitutil"
	"github.com/columnlab/colf/memory"
)

// FromBuffers reconstructs a finalized vector from the raw buffers of a
// serialized column. The bytes are copied, so the caller may reuse its
// buffers; the vector owns its storage exclusively.
//
// The buffers are validated against the declared shape: bitmap length,
// null count vs. bitmap popcount, value-buffer length, and for binary
// columns the monotonicity of the offsets and their agreement with the
// data-buffer length. Violations fail with colf.ErrFormat.
func FromBuffers(mem memory.Allocator, field colf.Field, rows int, nullCount int64, validity, offsets, data []byte) (Vector, error) {
	if rows < 0 {
		return nil, fmt.Errorf("vector: negative row count %d: %w", rows, colf.ErrFormat)
	}
	if err := checkValidity(field, rows, nullCount, validity); err != nil {
		return nil, err
	}

	switch field.Type.ID() {
	case colf.INT32:
		return numericFromBuffers[int32](mem, field, rows, validity, offsets, data)
	case colf.INT64:
		return numericFromBuffers[int64](mem, field, rows, validity, offsets, data)
	case colf.FLOAT32:
		return numericFromBuffers[float32](mem, field, rows, validity, offsets, data)
	case colf.FLOAT64:
		return numericFromBuffers[float64](mem, field, rows, validity, offsets, data)
	case colf.BINARY:
		return binaryFromBuffers(mem, field, rows, validity, offsets, data)
	}
	return nil, fmt.Errorf("vector: unsupported data type %v: %w", field.Type, colf.ErrFormat)
}

func checkValidity(field colf.Field, rows int, nullCount int64, validity []byte) error {
	if len(validity) == 0 {
		if nullCount != 0 {
			return fmt.Errorf("vector: field %q declares %d nulls but carries no validity bitmap: %w",
				field.Name, nullCount, colf.ErrFormat)
		}
		return nil
	}
	if len(validity) < bitutil.BytesForBits(rows) {
		return fmt.Errorf("vector: field %q validity bitmap holds %d bytes, want at least %d: %w",
			field.Name, len(validity), bitutil.BytesForBits(rows), colf.ErrFormat)
	}
	if nulls := int64(rows - bitutil.CountSetBits(validity, rows)); nulls != nullCount {
		return fmt.Errorf("vector: field %q declares %d nulls, validity bitmap holds %d: %w",
			field.Name, nullCount, nulls, colf.ErrFormat)
	}
	if nullCount > 0 && !field.Nullable {
		return fmt.Errorf("vector: %d null rows in non-nullable field %q: %w",
			nullCount, field.Name, colf.ErrFormat)
	}
	return nil
}

// setValidity installs the on-disk validity bitmap, or all-valid when the
// serialized column carried none.
func (vb *vectorBase) setValidity(rows int, validity []byte) {
	vb.validity.Resize(bitutil.BytesForBits(rows))
	if len(validity) == 0 {
		memory.Set(vb.validity.Bytes(), 0xff)
	} else {
		copy(vb.validity.Bytes(), validity[:bitutil.BytesForBits(rows)])
	}
	vb.length = rows
	vb.capacity = rows
	vb.final = true
}

func numericFromBuffers[T ValueType](mem memory.Allocator, field colf.Field, rows int, validity, offsets, data []byte) (*Numeric[T], error) {
	if len(offsets) != 0 {
		return nil, fmt.Errorf("vector: fixed-width field %q carries an offsets buffer: %w",
			field.Name, colf.ErrFormat)
	}
	if want := rows * sizeOf[T](); len(data) != want {
		return nil, fmt.Errorf("vector: field %q value buffer holds %d bytes, want %d: %w",
			field.Name, len(data), want, colf.ErrFormat)
	}

	v, err := NewNumeric[T](mem, field, rows)
	if err != nil {
		return nil, err
	}
	v.values.Resize(len(data))
	copy(v.values.Bytes(), data)
	v.data = castSlice[T](v.values.Bytes())
	v.setValidity(rows, validity)
	return v, nil
}

func binaryFromBuffers(mem memory.Allocator, field colf.Field, rows int, validity, offsets, data []byte) (*Binary, error) {
	if want := (rows + 1) * colf.Int32SizeBytes; len(offsets) != want {
		return nil, fmt.Errorf("vector: field %q offsets buffer holds %d bytes, want %d: %w",
			field.Name, len(offsets), want, colf.ErrFormat)
	}

	// The raw buffer may not be word-aligned, so decode entry by entry
	// instead of casting.
	prev := int32(binary.LittleEndian.Uint32(offsets))
	if prev != 0 {
		return nil, fmt.Errorf("vector: field %q offsets start at %d, want 0: %w",
			field.Name, prev, colf.ErrFormat)
	}
	for i := 1; i <= rows; i++ {
		off := int32(binary.LittleEndian.Uint32(offsets[i*colf.Int32SizeBytes:]))
		if off < prev {
			return nil, fmt.Errorf("vector: field %q offsets decrease at row %d (%d < %d): %w",
				field.Name, i-1, off, prev, colf.ErrFormat)
		}
		prev = off
	}
	if int(prev) != len(data) {
		return nil, fmt.Errorf("vector: field %q final offset %d disagrees with %d data bytes: %w",
			field.Name, prev, len(data), colf.ErrFormat)
	}

	v, err := NewBinary(mem, field, rows)
	if err != nil {
		return nil, err
	}
	v.offsets.Resize(len(offsets))
	copy(v.offsets.Bytes(), offsets)
	v.off = castSlice[int32](v.offsets.Bytes())
	v.data.Resize(len(data))
	copy(v.data.Bytes(), data)
	v.dataLen = len(data)
	v.setValidity(rows, validity)
	return v, nil
}
