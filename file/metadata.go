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

package file

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/JohnCGriffin/overflow"
	"github.com/columnlab/colf"
)

// All multi-byte integers in the file are little-endian.

// fileBlock describes where one record batch lives in the file: the byte
// offset of its metadata block, the metadata length, and the body length.
type fileBlock struct {
	Offset int64
	Meta   int32
	Body   int64
}

// colMeta describes one serialized column inside a batch metadata block:
// its null count and the byte length of each of its buffers, in body order
// (validity, then offsets for binary columns, then values).
type colMeta struct {
	Nulls   int64
	BufLens []int64
}

// batchMeta is the decoded form of a batch metadata block.
type batchMeta struct {
	Rows int64
	Cols []colMeta
}

// bodyLen sums the declared buffer lengths. ok is false when the sum does
// not fit in an int64, which only a corrupt metadata block can produce.
func (m batchMeta) bodyLen() (n int64, ok bool) {
	ok = true
	for _, c := range m.Cols {
		for _, l := range c.BufLens {
			if n, ok = overflow.Add64(n, l); !ok {
				return 0, false
			}
		}
	}
	return n, true
}

// encoder appends the file's primitive encodings to a byte slice.
type encoder struct {
	buf []byte
}

func (e *encoder) u8(v byte)    { e.buf = append(e.buf, v) }
func (e *encoder) u32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) i32(v int32)  { e.u32(uint32(v)) }
func (e *encoder) i64(v int64)  { e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v)) }

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

// decoder consumes the file's primitive encodings from a byte slice. The
// first underflow is sticky: subsequent reads return zero values and Err
// reports the failure.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) Err() error { return d.err }

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || n > len(d.buf) {
		d.err = fmt.Errorf("file: metadata truncated (want %d bytes, have %d): %w",
			n, len(d.buf), colf.ErrFormat)
		return nil
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b
}

func (d *decoder) u8() byte {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) i32() int32 { return int32(d.u32()) }

func (d *decoder) i64() int64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

func (d *decoder) str() string {
	n := d.u32()
	if d.err == nil && int64(n) > int64(len(d.buf)) {
		d.err = fmt.Errorf("file: string of %d bytes overruns metadata: %w", n, colf.ErrFormat)
		return ""
	}
	return string(d.take(int(n)))
}

func (d *decoder) remaining() int { return len(d.buf) }

// encodeFooter writes the fixed-size footer: version, trailer offset,
// trailer length, magic.
func encodeFooter(trailerOff, trailerLen int64) []byte {
	var e encoder
	e.buf = make([]byte, 0, footerSize)
	e.u32(Version)
	e.i64(trailerOff)
	e.i64(trailerLen)
	e.buf = append(e.buf, Magic...)
	return e.buf
}

// decodeFooter validates the magic marker and version and returns the
// trailer location.
func decodeFooter(buf []byte) (trailerOff, trailerLen int64, err error) {
	if len(buf) != footerSize {
		return 0, 0, fmt.Errorf("file: footer holds %d bytes, want %d: %w", len(buf), footerSize, colf.ErrFormat)
	}
	if !bytes.Equal(buf[footerSize-len(Magic):], Magic) {
		return 0, 0, fmt.Errorf("file: not a colf file (bad magic): %w", colf.ErrFormat)
	}
	d := decoder{buf: buf}
	version := d.u32()
	trailerOff = d.i64()
	trailerLen = d.i64()
	if version != Version {
		return 0, 0, fmt.Errorf("file: unsupported format version %d: %w", version, colf.ErrFormat)
	}
	return trailerOff, trailerLen, nil
}

// encodeTrailer writes the batch directory: a count followed by one
// offset/metadata-length/body-length triple per batch.
func encodeTrailer(blocks []fileBlock) []byte {
	var e encoder
	e.u32(uint32(len(blocks)))
	for _, blk := range blocks {
		e.i64(blk.Offset)
		e.i32(blk.Meta)
		e.i64(blk.Body)
	}
	return e.buf
}

func decodeTrailer(buf []byte) ([]fileBlock, error) {
	d := decoder{buf: buf}
	n := d.u32()
	if d.err == nil && int64(n)*20 != int64(d.remaining()) {
		return nil, fmt.Errorf("file: trailer declares %d batches but holds %d bytes: %w",
			n, d.remaining(), colf.ErrFormat)
	}
	blocks := make([]fileBlock, 0, n)
	for i := uint32(0); i < n; i++ {
		blk := fileBlock{
			Offset: d.i64(),
			Meta:   d.i32(),
			Body:   d.i64(),
		}
		if d.err == nil && (blk.Offset < 0 || blk.Meta < 0 || blk.Body < 0) {
			return nil, fmt.Errorf("file: batch %d has negative location %+v: %w", i, blk, colf.ErrFormat)
		}
		blocks = append(blocks, blk)
	}
	return blocks, d.Err()
}

func encodeMetadata(e *encoder, md colf.Metadata) {
	e.u32(uint32(md.Len()))
	for i, k := range md.Keys() {
		e.str(k)
		e.str(md.Values()[i])
	}
}

func decodeMetadata(d *decoder) colf.Metadata {
	n := d.u32()
	if d.err != nil {
		return colf.Metadata{}
	}
	keys := make([]string, 0, n)
	vals := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		keys = append(keys, d.str())
		vals = append(vals, d.str())
	}
	if d.err != nil {
		return colf.Metadata{}
	}
	return colf.NewMetadata(keys, vals)
}

// encodeSchema writes the schema descriptor: field count, then per field
// the name, type tag, nullable flag and field metadata, then the
// schema-level metadata.
func encodeSchema(schema *colf.Schema) []byte {
	var e encoder
	e.u32(uint32(schema.NumFields()))
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		e.str(f.Name)
		e.u8(byte(f.Type.ID()))
		if f.Nullable {
			e.u8(1)
		} else {
			e.u8(0)
		}
		encodeMetadata(&e, f.Metadata)
	}
	md := schema.Metadata()
	encodeMetadata(&e, md)
	return e.buf
}

func decodeSchema(buf []byte) (*colf.Schema, error) {
	d := decoder{buf: buf}
	n := d.u32()
	fields := make([]colf.Field, 0, n)
	for i := uint32(0); i < n && d.err == nil; i++ {
		name := d.str()
		tag := d.u8()
		nullable := d.u8()
		md := decodeMetadata(&d)
		if d.err != nil {
			break
		}
		dt := colf.TypeOf(colf.Type(tag))
		if dt == nil {
			return nil, fmt.Errorf("file: field %q has unknown type tag %d: %w", name, tag, colf.ErrFormat)
		}
		fields = append(fields, colf.Field{
			Name:     name,
			Type:     dt,
			Nullable: nullable != 0,
			Metadata: md,
		})
	}
	md := decodeMetadata(&d)
	if err := d.Err(); err != nil {
		return nil, err
	}
	schema, err := colf.NewSchema(fields, &md)
	if err != nil {
		return nil, fmt.Errorf("file: invalid schema descriptor: %w", err)
	}
	return schema, nil
}

// encodeBatchMeta writes a batch metadata block: row count, column count,
// then per column the null count and the byte length of each buffer.
func encodeBatchMeta(meta batchMeta) []byte {
	var e encoder
	e.i64(meta.Rows)
	e.u32(uint32(len(meta.Cols)))
	for _, c := range meta.Cols {
		e.i64(c.Nulls)
		e.u8(byte(len(c.BufLens)))
		for _, l := range c.BufLens {
			e.i64(l)
		}
	}
	return e.buf
}

func decodeBatchMeta(buf []byte) (batchMeta, error) {
	d := decoder{buf: buf}
	meta := batchMeta{Rows: d.i64()}
	n := d.u32()
	if d.err == nil && (meta.Rows < 0 || meta.Rows > math.MaxInt32) {
		return meta, fmt.Errorf("file: batch declares %d rows: %w", meta.Rows, colf.ErrFormat)
	}
	meta.Cols = make([]colMeta, 0, n)
	for i := uint32(0); i < n && d.err == nil; i++ {
		c := colMeta{Nulls: d.i64()}
		nbufs := d.u8()
		if d.err == nil && nbufs != 2 && nbufs != 3 {
			return meta, fmt.Errorf("file: column %d declares %d buffers: %w", i, nbufs, colf.ErrFormat)
		}
		for j := byte(0); j < nbufs; j++ {
			l := d.i64()
			if d.err == nil && l < 0 {
				return meta, fmt.Errorf("file: column %d buffer %d has negative length %d: %w",
					i, j, l, colf.ErrFormat)
			}
			c.BufLens = append(c.BufLens, l)
		}
		if d.err == nil && (c.Nulls < 0 || c.Nulls > meta.Rows) {
			return meta, fmt.Errorf("file: column %d declares %d nulls for %d rows: %w",
				i, c.Nulls, meta.Rows, colf.ErrFormat)
		}
		meta.Cols = append(meta.Cols, c)
	}
	if err := d.Err(); err != nil {
		return meta, err
	}
	if d.remaining() != 0 {
		return meta, fmt.Errorf("file: %d trailing bytes after batch metadata: %w",
			d.remaining(), colf.ErrFormat)
	}
	return meta, nil
}
