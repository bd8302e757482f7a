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

package colf

import "unsafe"

// Type is the tag identifying one of the logical column types supported by
// the format. The set is closed: readers and writers switch exhaustively
// over it.
type Type int8

const (
	// INT32 is a signed 32-bit little-endian integer.
	INT32 Type = iota

	// INT64 is a signed 64-bit little-endian integer.
	INT64

	// FLOAT32 is a 4-byte floating point value.
	FLOAT32

	// FLOAT64 is an 8-byte floating point value.
	FLOAT64

	// BINARY is a variable-length byte type (no guarantee of UTF8-ness).
	BINARY
)

// DataType describes one of the supported column types.
type DataType interface {
	ID() Type
	// Name is the name of the data type.
	Name() string
}

// FixedWidthDataType is a DataType that requires a fixed number of bits in
// memory and on disk for each element.
type FixedWidthDataType interface {
	DataType
	// BitWidth returns the number of bits required to store a single element.
	BitWidth() int
}

// BinaryDataType is a DataType whose values are variable-length byte
// sequences encoded with an offsets buffer and a data buffer.
type BinaryDataType interface {
	DataType
	binary()
}

type Int32Type struct{}

func (t *Int32Type) ID() Type       { return INT32 }
func (t *Int32Type) Name() string   { return "int32" }
func (t *Int32Type) String() string { return "int32" }
func (t *Int32Type) BitWidth() int  { return 32 }

type Int64Type struct{}

func (t *Int64Type) ID() Type       { return INT64 }
func (t *Int64Type) Name() string   { return "int64" }
func (t *Int64Type) String() string { return "int64" }
func (t *Int64Type) BitWidth() int  { return 64 }

type Float32Type struct{}

func (t *Float32Type) ID() Type       { return FLOAT32 }
func (t *Float32Type) Name() string   { return "float32" }
func (t *Float32Type) String() string { return "float32" }
func (t *Float32Type) BitWidth() int  { return 32 }

type Float64Type struct{}

func (t *Float64Type) ID() Type       { return FLOAT64 }
func (t *Float64Type) Name() string   { return "float64" }
func (t *Float64Type) String() string { return "float64" }
func (t *Float64Type) BitWidth() int  { return 64 }

type BinaryType struct{}

func (t *BinaryType) ID() Type       { return BINARY }
func (t *BinaryType) Name() string   { return "binary" }
func (t *BinaryType) String() string { return "binary" }
func (t *BinaryType) binary()        {}

var (
	// PrimitiveTypes provides the fixed-width data types.
	PrimitiveTypes = struct {
		Int32   FixedWidthDataType
		Int64   FixedWidthDataType
		Float32 FixedWidthDataType
		Float64 FixedWidthDataType
	}{
		Int32:   &Int32Type{},
		Int64:   &Int64Type{},
		Float32: &Float32Type{},
		Float64: &Float64Type{},
	}

	// BinaryTypes provides the variable-length data types.
	BinaryTypes = struct {
		Binary BinaryDataType
	}{
		Binary: &BinaryType{},
	}
)

// TypeOf returns the DataType for the given type tag, or nil if the tag is
// not one of the supported types.
func TypeOf(id Type) DataType {
	switch id {
	case INT32:
		return PrimitiveTypes.Int32
	case INT64:
		return PrimitiveTypes.Int64
	case FLOAT32:
		return PrimitiveTypes.Float32
	case FLOAT64:
		return PrimitiveTypes.Float64
	case BINARY:
		return BinaryTypes.Binary
	}
	return nil
}

const (
	// Int32SizeBytes specifies the number of bytes required to store a single int32 in memory
	Int32SizeBytes = int(unsafe.Sizeof(int32(0)))
	// Int64SizeBytes specifies the number of bytes required to store a single int64 in memory
	Int64SizeBytes = int(unsafe.Sizeof(int64(0)))
	// Float32SizeBytes specifies the number of bytes required to store a single float32 in memory
	Float32SizeBytes = int(unsafe.Sizeof(float32(0)))
	// Float64SizeBytes specifies the number of bytes required to store a single float64 in memory
	Float64SizeBytes = int(unsafe.Sizeof(float64(0)))
)
