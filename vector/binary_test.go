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

package vector_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/columnlab/colf"
	"github.com/columnlab/colf/memory"
	"github.com/columnlab/colf/vector"
)

func TestBinarySetGet(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	field := colf.Field{Name: "b", Type: colf.BinaryTypes.Binary, Nullable: true}
	v, err := vector.NewBinary(mem, field, 0)
	require.NoError(t, err)
	defer v.Release()

	require.NoError(t, v.SetString(0, "hello"))
	require.NoError(t, v.SetNull(1))
	require.NoError(t, v.SetString(2, ""))
	require.NoError(t, v.Set(3, []byte{0x00, 0xff}))
	require.NoError(t, v.Finalize(4))

	assert.Equal(t, 4, v.Len())
	assert.Equal(t, 1, v.NullN())
	assert.Equal(t, 7, v.DataLen())
	assert.Equal(t, []int32{0, 5, 5, 5, 7}, v.ValueOffsets())

	got, err := v.ValueString(0)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	// null row yields nil
	b, err := v.Value(1)
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.True(t, v.IsNull(1))

	// empty row is valid, distinct from null
	b, err = v.Value(2)
	require.NoError(t, err)
	assert.Len(t, b, 0)
	assert.False(t, v.IsNull(2))

	b, err = v.Value(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, b)
}

func TestBinaryGapRowsBecomeNull(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	field := colf.Field{Name: "b", Type: colf.BinaryTypes.Binary, Nullable: true}
	v, err := vector.NewBinary(mem, field, 0)
	require.NoError(t, err)
	defer v.Release()

	require.NoError(t, v.SetString(0, "a"))
	require.NoError(t, v.SetString(4, "b"))
	require.NoError(t, v.Finalize(5))

	assert.Equal(t, 3, v.NullN())
	for i := 1; i < 4; i++ {
		assert.True(t, v.IsNull(i), "row %d", i)
	}
	assert.Equal(t, []int32{0, 1, 1, 1, 1, 2}, v.ValueOffsets())
}

func TestBinaryWriteOnce(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	field := colf.Field{Name: "b", Type: colf.BinaryTypes.Binary, Nullable: true}
	v, err := vector.NewBinary(mem, field, 0)
	require.NoError(t, err)
	defer v.Release()

	require.NoError(t, v.SetString(0, "a"))
	require.NoError(t, v.SetString(1, "b"))
	assert.ErrorIs(t, v.SetString(0, "rewrite"), colf.ErrIndex)
	assert.ErrorIs(t, v.SetNull(1), colf.ErrIndex)
}

func TestBinaryGrowthFromTinyCapacity(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	const n = 10000
	field := colf.Field{Name: "b", Type: colf.BinaryTypes.Binary, Nullable: true}
	v, err := vector.NewBinary(mem, field, 1)
	require.NoError(t, err)
	defer v.Release()

	for i := 0; i < n; i++ {
		if i%5 == 2 {
			require.NoError(t, v.AppendNull())
			continue
		}
		require.NoError(t, v.AppendString(fmt.Sprintf("row-%d", i)))
	}
	require.NoError(t, v.Finalize(n))

	for i := 0; i < n; i++ {
		if i%5 == 2 {
			assert.True(t, v.IsNull(i), "row %d", i)
			continue
		}
		got, err := v.ValueString(i)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("row-%d", i), got, "row %d", i)
	}
}

func TestBinaryErrors(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	t.Run("type mismatch", func(t *testing.T) {
		field := colf.Field{Name: "b", Type: colf.PrimitiveTypes.Int32}
		_, err := vector.NewBinary(mem, field, 0)
		assert.ErrorIs(t, err, colf.ErrSchemaMismatch)
	})

	t.Run("non-nullable null", func(t *testing.T) {
		field := colf.Field{Name: "b", Type: colf.BinaryTypes.Binary}
		v, err := vector.NewBinary(mem, field, 0)
		require.NoError(t, err)
		defer v.Release()

		assert.ErrorIs(t, v.AppendNull(), colf.ErrSchemaMismatch)
	})

	t.Run("non-nullable gap", func(t *testing.T) {
		field := colf.Field{Name: "b", Type: colf.BinaryTypes.Binary}
		v, err := vector.NewBinary(mem, field, 0)
		require.NoError(t, err)
		defer v.Release()

		require.NoError(t, v.SetString(0, "a"))
		require.NoError(t, v.SetString(2, "c"))
		assert.ErrorIs(t, v.Finalize(3), colf.ErrSchemaMismatch)
	})

	t.Run("write after finalize", func(t *testing.T) {
		field := colf.Field{Name: "b", Type: colf.BinaryTypes.Binary, Nullable: true}
		v, err := vector.NewBinary(mem, field, 0)
		require.NoError(t, err)
		defer v.Release()

		require.NoError(t, v.SetString(0, "a"))
		require.NoError(t, v.Finalize(1))
		assert.ErrorIs(t, v.SetString(1, "b"), colf.ErrState)
	})
}

func TestBinaryTruncatingFinalize(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	field := colf.Field{Name: "b", Type: colf.BinaryTypes.Binary, Nullable: true}
	v, err := vector.NewBinary(mem, field, 0)
	require.NoError(t, err)
	defer v.Release()

	for _, s := range []string{"aa", "bb", "cc", "dd"} {
		require.NoError(t, v.AppendString(s))
	}
	require.NoError(t, v.Finalize(2))

	assert.Equal(t, 2, v.Len())
	assert.Equal(t, 4, v.DataLen())
	assert.Equal(t, []byte("aabb"), v.ValueBytes())
}

func TestBinaryReset(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	field := colf.Field{Name: "b", Type: colf.BinaryTypes.Binary, Nullable: true}
	v, err := vector.NewBinary(mem, field, 0)
	require.NoError(t, err)
	defer v.Release()

	require.NoError(t, v.SetString(0, "before"))
	require.NoError(t, v.Finalize(1))

	v.Reset()
	assert.Zero(t, v.Len())
	assert.Zero(t, v.DataLen())

	require.NoError(t, v.SetString(0, "x"))
	require.NoError(t, v.Finalize(1))
	got, err := v.ValueString(0)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}
