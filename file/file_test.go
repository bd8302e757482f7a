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

package file_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/columnlab/colf"
	"github.com/columnlab/colf/file"
	"github.com/columnlab/colf/memory"
	"github.com/columnlab/colf/vector"
)

func testSchema(t *testing.T) *colf.Schema {
	t.Helper()
	schema, err := colf.NewSchema([]colf.Field{
		{Name: "id", Type: colf.PrimitiveTypes.Int64},
		{Name: "name", Type: colf.BinaryTypes.Binary, Nullable: true},
	}, nil)
	require.NoError(t, err)
	return schema
}

func makeRecord(t *testing.T, mem memory.Allocator, schema *colf.Schema, base, rows int) *vector.Record {
	t.Helper()

	ids, err := vector.NewNumeric[int64](mem, schema.Field(0), rows)
	require.NoError(t, err)
	names, err := vector.NewBinary(mem, schema.Field(1), rows)
	require.NoError(t, err)

	for i := 0; i < rows; i++ {
		require.NoError(t, ids.Append(int64(base+i)))
		switch i % 3 {
		case 0:
			require.NoError(t, names.AppendString(fmt.Sprintf("name-%d", base+i)))
		case 1:
			require.NoError(t, names.AppendNull())
		default:
			require.NoError(t, names.AppendString(""))
		}
	}
	require.NoError(t, ids.Finalize(rows))
	require.NoError(t, names.Finalize(rows))

	rec, err := vector.NewRecord(schema, []vector.Vector{ids, names})
	require.NoError(t, err)
	return rec
}

func checkRecord(t *testing.T, rec *vector.Record, base, rows int) {
	t.Helper()

	require.Equal(t, int64(rows), rec.NumRows())
	ids := rec.Column(0).(*vector.Numeric[int64])
	names := rec.Column(1).(*vector.Binary)

	for i := 0; i < rows; i++ {
		id, err := ids.Value(i)
		require.NoError(t, err)
		assert.Equal(t, int64(base+i), id, "row %d", i)

		switch i % 3 {
		case 0:
			got, err := names.ValueString(i)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("name-%d", base+i), got, "row %d", i)
		case 1:
			assert.True(t, names.IsNull(i), "row %d", i)
		default:
			b, err := names.Value(i)
			require.NoError(t, err)
			assert.Len(t, b, 0, "row %d", i)
			assert.False(t, names.IsNull(i), "row %d", i)
		}
	}
}

func writeFile(t *testing.T, mem memory.Allocator, schema *colf.Schema, batches []int) []byte {
	t.Helper()

	var sink bytes.Buffer
	w := file.NewFileWriter(&sink, file.WithAllocator(mem))
	defer w.Close()

	require.NoError(t, w.Start(schema))
	for b, rows := range batches {
		rec := makeRecord(t, mem, schema, b*1000, rows)
		require.NoError(t, w.Write(rec))
		rec.Release()
	}
	require.NoError(t, w.Finish())
	return sink.Bytes()
}

func TestFileRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := testSchema(t)
	raw := writeFile(t, mem, schema, []int{3})

	r, err := file.NewFileReader(bytes.NewReader(raw), file.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Close()

	assert.True(t, schema.Equal(r.Schema()))
	require.Equal(t, 1, r.NumRecords())

	rec, err := r.Record(0)
	require.NoError(t, err)
	defer rec.Release()
	checkRecord(t, rec, 0, 3)
}

func TestFileInt32BinaryScenario(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema, err := colf.NewSchema([]colf.Field{
		{Name: "id", Type: colf.PrimitiveTypes.Int32},
		{Name: "name", Type: colf.BinaryTypes.Binary, Nullable: true},
	}, nil)
	require.NoError(t, err)

	ids, err := vector.NewNumeric[int32](mem, schema.Field(0), 3)
	require.NoError(t, err)
	names, err := vector.NewBinary(mem, schema.Field(1), 3)
	require.NoError(t, err)

	require.NoError(t, ids.Append(1))
	require.NoError(t, names.AppendString("a"))
	require.NoError(t, ids.Append(2))
	require.NoError(t, names.AppendNull())
	require.NoError(t, ids.Append(3))
	require.NoError(t, names.AppendString(""))
	require.NoError(t, ids.Finalize(3))
	require.NoError(t, names.Finalize(3))

	rec, err := vector.NewRecord(schema, []vector.Vector{ids, names})
	require.NoError(t, err)

	var sink bytes.Buffer
	w := file.NewFileWriter(&sink, file.WithAllocator(mem))
	defer w.Close()
	require.NoError(t, w.Start(schema))
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Finish())
	rec.Release()

	r, err := file.NewFileReader(bytes.NewReader(sink.Bytes()), file.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 1, r.NumRecords())

	got, err := r.Record(0)
	require.NoError(t, err)
	defer got.Release()
	require.Equal(t, int64(3), got.NumRows())

	gotIDs := got.Column(0).(*vector.Numeric[int32])
	assert.Equal(t, []int32{1, 2, 3}, gotIDs.Values())

	gotNames := got.Column(1).(*vector.Binary)
	s, err := gotNames.ValueString(0)
	require.NoError(t, err)
	assert.Equal(t, "a", s)
	assert.True(t, gotNames.IsNull(1))
	b, err := gotNames.Value(2)
	require.NoError(t, err)
	assert.Len(t, b, 0)
	assert.False(t, gotNames.IsNull(2))
}

func TestFileMultiBatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := testSchema(t)
	raw := writeFile(t, mem, schema, []int{100, 100, 100})

	r, err := file.NewFileReader(bytes.NewReader(raw), file.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 3, r.NumRecords())

	// out of order reads, and the same batch twice; each batch holds only
	// its own rows
	for _, i := range []int{2, 0, 1, 0} {
		rec, err := r.Record(i)
		require.NoError(t, err)
		checkRecord(t, rec, i*1000, 100)
		rec.Release()
	}
}

func TestFileEmpty(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := testSchema(t)
	raw := writeFile(t, mem, schema, nil)

	r, err := file.NewFileReader(bytes.NewReader(raw), file.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Close()

	assert.True(t, schema.Equal(r.Schema()))
	assert.Zero(t, r.NumRecords())
}

func TestFileZeroRowBatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := testSchema(t)
	raw := writeFile(t, mem, schema, []int{0})

	r, err := file.NewFileReader(bytes.NewReader(raw), file.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, 1, r.NumRecords())

	rec, err := r.Record(0)
	require.NoError(t, err)
	defer rec.Release()
	assert.Zero(t, rec.NumRows())
}

func TestFileRecordOutOfRange(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := testSchema(t)
	raw := writeFile(t, mem, schema, []int{3})

	r, err := file.NewFileReader(bytes.NewReader(raw), file.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Record(-1)
	assert.ErrorIs(t, err, colf.ErrIndex)
	_, err = r.Record(1)
	assert.ErrorIs(t, err, colf.ErrIndex)
}

func TestFileCorruption(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := testSchema(t)
	raw := writeFile(t, mem, schema, []int{3})

	open := func(b []byte) error {
		_, err := file.NewFileReader(bytes.NewReader(b))
		return err
	}

	t.Run("too small", func(t *testing.T) {
		assert.ErrorIs(t, open([]byte("COLF")), colf.ErrFormat)
	})

	t.Run("bad footer magic", func(t *testing.T) {
		// the magic is the last five bytes; a flip anywhere in it must fail
		for i := 1; i <= 5; i++ {
			bad := append([]byte(nil), raw...)
			bad[len(bad)-i] ^= 0xff
			assert.ErrorIs(t, open(bad), colf.ErrFormat, "magic byte %d", 5-i)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		assert.ErrorIs(t, open(raw[:len(raw)-10]), colf.ErrFormat)
	})

	t.Run("trailer out of bounds", func(t *testing.T) {
		bad := append([]byte(nil), raw...)
		// trailer offset field sits right after the version in the footer
		off := len(bad) - 25 + 4
		for i := 0; i < 8; i++ {
			bad[off+i] = 0xff
		}
		assert.ErrorIs(t, open(bad), colf.ErrFormat)
	})
}

func TestFileCorruptBufferLengths(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := testSchema(t)
	raw := writeFile(t, mem, schema, []int{0})

	// The batch metadata block sits right after the magic and the
	// length-prefixed schema descriptor. A zero-row batch of this schema
	// declares five buffer lengths, four of them zero. Rewriting those four
	// to 1<<62 makes their plain int64 sum wrap back to the body length the
	// trailer declares, so only an overflow-checked sum can reject it.
	meta := 9 + int(binary.LittleEndian.Uint32(raw[5:9]))
	bad := append([]byte(nil), raw...)
	for _, off := range []int{meta + 21, meta + 29, meta + 46, meta + 62} {
		binary.LittleEndian.PutUint64(bad[off:], 1<<62)
	}

	r, err := file.NewFileReader(bytes.NewReader(bad), file.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Record(0)
	assert.ErrorIs(t, err, colf.ErrFormat)
}

func TestFileSchemaMismatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := testSchema(t)
	other, err := colf.NewSchema([]colf.Field{
		{Name: "id", Type: colf.PrimitiveTypes.Int32},
	}, nil)
	require.NoError(t, err)

	var sink bytes.Buffer
	w := file.NewFileWriter(&sink, file.WithAllocator(mem))
	defer w.Close()
	require.NoError(t, w.Start(schema))

	ids, err := vector.NewNumeric[int32](mem, other.Field(0), 1)
	require.NoError(t, err)
	require.NoError(t, ids.Append(1))
	require.NoError(t, ids.Finalize(1))
	rec, err := vector.NewRecord(other, []vector.Vector{ids})
	require.NoError(t, err)
	defer rec.Release()

	assert.ErrorIs(t, w.Write(rec), colf.ErrSchemaMismatch)
}

func TestFileWriterStateMachine(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := testSchema(t)
	rec := makeRecord(t, mem, schema, 0, 2)
	defer rec.Release()

	var sink bytes.Buffer
	w := file.NewFileWriter(&sink)

	assert.ErrorIs(t, w.Write(rec), colf.ErrState)
	assert.ErrorIs(t, w.Finish(), colf.ErrState)

	require.NoError(t, w.Start(schema))
	assert.ErrorIs(t, w.Start(schema), colf.ErrState)

	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Finish())
	assert.ErrorIs(t, w.Write(rec), colf.ErrState)
	assert.ErrorIs(t, w.Finish(), colf.ErrState)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Start(schema), colf.ErrState)
}

func TestFileWithFooterOffset(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := testSchema(t)
	raw := writeFile(t, mem, schema, []int{3})

	// trailing junk after the footer, located explicitly
	junk := append(append([]byte(nil), raw...), "tail garbage"...)
	r, err := file.NewFileReader(bytes.NewReader(junk),
		file.WithAllocator(mem), file.WithFooterOffset(int64(len(raw))))
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Record(0)
	require.NoError(t, err)
	defer rec.Release()
	checkRecord(t, rec, 0, 3)
}

func TestFileConcurrentReads(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := testSchema(t)
	raw := writeFile(t, mem, schema, []int{50, 50, 50, 50})

	r, err := file.NewFileReader(bytes.NewReader(raw), file.WithAllocator(mem))
	require.NoError(t, err)
	defer r.Close()

	var g errgroup.Group
	for i := 0; i < r.NumRecords(); i++ {
		i := i
		g.Go(func() error {
			for j := 0; j < 10; j++ {
				rec, err := r.Record(i)
				if err != nil {
					return err
				}
				if rec.NumRows() != 50 {
					return fmt.Errorf("batch %d: got %d rows", i, rec.NumRows())
				}
				rec.Release()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
