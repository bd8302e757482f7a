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
	"fmt"
	"io"

	"github.com/JohnCGriffin/overflow"
	"github.com/columnlab/colf"
	"github.com/columnlab/colf/vector"
)

// FileReader reads a colf file: it validates the footer, loads the batch
// directory and the schema at open time, and then loads batches on demand
// by index, in any order, repeatedly.
//
// Records returned by Record and Read own their buffers exclusively; the
// reader keeps no reference to them. Record is safe for concurrent use;
// the sequential Read is not.
type FileReader struct {
	r   ReadAtSeeker
	cfg *config

	size   int64
	schema *colf.Schema
	blocks []fileBlock

	irec   int
	closed bool
}

// NewFileReader opens a colf file from r. It fails with colf.ErrFormat when
// r does not hold a well-formed colf file.
func NewFileReader(r ReadAtSeeker, opts ...Option) (*FileReader, error) {
	fr := &FileReader{r: r, cfg: newConfig(opts...)}

	fr.size = fr.cfg.footer.offset
	if fr.size <= 0 {
		var err error
		fr.size, err = r.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, err
		}
	}

	if err := fr.readFooter(); err != nil {
		return nil, err
	}
	if err := fr.readSchema(); err != nil {
		return nil, err
	}
	return fr, nil
}

func (fr *FileReader) readFooter() error {
	if fr.size < int64(len(Magic))+footerSize {
		return fmt.Errorf("file: source of %d bytes is too small to be a colf file: %w",
			fr.size, colf.ErrFormat)
	}

	buf, err := fr.readAt(fr.size-footerSize, footerSize)
	if err != nil {
		return err
	}
	trailerOff, trailerLen, err := decodeFooter(buf)
	if err != nil {
		return err
	}

	trailerEnd, ok := overflow.Add64(trailerOff, trailerLen)
	if !ok || trailerOff < int64(len(Magic)) || trailerLen < 4 || trailerEnd > fr.size-footerSize {
		return fmt.Errorf("file: trailer at [%d, %d) is outside the source: %w",
			trailerOff, trailerEnd, colf.ErrFormat)
	}

	trailer, err := fr.readAt(trailerOff, int(trailerLen))
	if err != nil {
		return err
	}
	blocks, err := decodeTrailer(trailer)
	if err != nil {
		return err
	}
	for i, blk := range blocks {
		end, ok := overflow.Add64(blk.Offset, int64(blk.Meta))
		if ok {
			end, ok = overflow.Add64(end, blk.Body)
		}
		if !ok || end > trailerOff {
			return fmt.Errorf("file: batch %d at %+v overruns the trailer at %d: %w",
				i, blk, trailerOff, colf.ErrFormat)
		}
	}
	fr.blocks = blocks
	return nil
}

func (fr *FileReader) readSchema() error {
	lead, err := fr.readAt(0, len(Magic)+4)
	if err != nil {
		return err
	}
	d := decoder{buf: lead[len(Magic):]}
	payloadLen := int64(d.u32())

	end, ok := overflow.Add64(int64(len(Magic))+4, payloadLen)
	if !ok || end > fr.size-footerSize {
		return fmt.Errorf("file: schema descriptor of %d bytes overruns the source: %w",
			payloadLen, colf.ErrFormat)
	}
	payload, err := fr.readAt(int64(len(Magic))+4, int(payloadLen))
	if err != nil {
		return err
	}
	fr.schema, err = decodeSchema(payload)
	return err
}

// Schema returns the schema of the file.
func (fr *FileReader) Schema() *colf.Schema { return fr.schema }

// NumRecords returns the number of record batches in the file.
func (fr *FileReader) NumRecords() int { return len(fr.blocks) }

// Record loads the i-th record batch. The returned record is owned by the
// caller and must be Released.
func (fr *FileReader) Record(i int) (*vector.Record, error) {
	if fr.closed {
		return nil, fmt.Errorf("file: Record on closed reader: %w", colf.ErrState)
	}
	if i < 0 || i >= len(fr.blocks) {
		return nil, fmt.Errorf("file: batch index %d out of range [0, %d): %w",
			i, len(fr.blocks), colf.ErrIndex)
	}
	blk := fr.blocks[i]

	metaBuf, err := fr.readAt(blk.Offset, int(blk.Meta))
	if err != nil {
		return nil, err
	}
	meta, err := decodeBatchMeta(metaBuf)
	if err != nil {
		return nil, err
	}
	if len(meta.Cols) != fr.schema.NumFields() {
		return nil, fmt.Errorf("file: batch %d holds %d columns, schema has %d fields: %w",
			i, len(meta.Cols), fr.schema.NumFields(), colf.ErrFormat)
	}
	if got, ok := meta.bodyLen(); !ok || got != blk.Body {
		return nil, fmt.Errorf("file: batch %d metadata declares %d body bytes, trailer says %d: %w",
			i, got, blk.Body, colf.ErrFormat)
	}

	body, err := fr.readAt(blk.Offset+int64(blk.Meta), int(blk.Body))
	if err != nil {
		return nil, err
	}

	cols := make([]vector.Vector, 0, len(meta.Cols))
	defer func() {
		for _, col := range cols {
			if err != nil {
				col.Release()
			}
		}
	}()

	pos := int64(0)
	for j, c := range meta.Cols {
		field := fr.schema.Field(j)
		var bufs [][]byte
		for _, l := range c.BufLens {
			bufs = append(bufs, body[pos:pos+l])
			pos += l
		}
		validity := bufs[0]
		var offsets, values []byte
		if len(bufs) == 3 {
			offsets, values = bufs[1], bufs[2]
		} else {
			values = bufs[1]
		}
		var col vector.Vector
		col, err = vector.FromBuffers(fr.cfg.alloc, field, int(meta.Rows), c.Nulls, validity, offsets, values)
		if err != nil {
			return nil, fmt.Errorf("file: batch %d: %w", i, err)
		}
		cols = append(cols, col)
	}

	var rec *vector.Record
	rec, err = vector.NewRecord(fr.schema, cols)
	if err != nil {
		return nil, fmt.Errorf("file: batch %d: %w", i, err)
	}
	return rec, nil
}

// Read returns the next record batch in file order, or io.EOF after the
// last one. It is the sequential counterpart of Record.
func (fr *FileReader) Read() (*vector.Record, error) {
	if fr.irec >= len(fr.blocks) {
		return nil, io.EOF
	}
	rec, err := fr.Record(fr.irec)
	if err != nil {
		return nil, err
	}
	fr.irec++
	return rec, nil
}

// Close releases the source. It closes the underlying reader when it
// implements io.Closer. Close is idempotent.
func (fr *FileReader) Close() error {
	if fr.closed {
		return nil
	}
	fr.closed = true
	if c, ok := fr.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (fr *FileReader) readAt(off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := fr.r.ReadAt(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}
