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

	"github.com/columnlab/colf"
	"github.com/columnlab/colf/vector"
)

// FileWriter writes a colf file: one schema, then record batches appended
// sequentially, then the trailer and footer.
//
// The call sequence is Start, any number of Write, Finish, Close. A writer
// that fails mid-Write leaves the sink in an indeterminate state; the
// caller must discard the output. Close is idempotent and safe to defer on
// every exit path. FileWriter is not safe for concurrent use.
type FileWriter struct {
	w   io.Writer
	cfg *config

	schema *colf.Schema
	fp     uint64

	pos    int64
	blocks []fileBlock

	started  bool
	finished bool
	closed   bool
}

// NewFileWriter returns a writer for a new colf file on w.
func NewFileWriter(w io.Writer, opts ...Option) *FileWriter {
	return &FileWriter{w: w, cfg: newConfig(opts...)}
}

// Start writes the magic marker and the schema descriptor. It must be
// called exactly once, before the first Write.
func (fw *FileWriter) Start(schema *colf.Schema) error {
	switch {
	case fw.closed:
		return fmt.Errorf("file: Start on closed writer: %w", colf.ErrState)
	case fw.started:
		return fmt.Errorf("file: Start called twice: %w", colf.ErrState)
	case schema == nil:
		return fmt.Errorf("file: Start with nil schema: %w", colf.ErrSchema)
	}

	if err := fw.write(Magic); err != nil {
		return err
	}
	payload := encodeSchema(schema)
	var e encoder
	e.u32(uint32(len(payload)))
	if err := fw.write(e.buf); err != nil {
		return err
	}
	if err := fw.write(payload); err != nil {
		return err
	}

	fw.schema = schema
	fw.fp = schema.Fingerprint()
	fw.started = true
	return nil
}

// Write appends one record batch. The record's schema must be the schema
// passed to Start.
func (fw *FileWriter) Write(rec *vector.Record) error {
	switch {
	case fw.closed:
		return fmt.Errorf("file: Write on closed writer: %w", colf.ErrState)
	case !fw.started:
		return fmt.Errorf("file: Write before Start: %w", colf.ErrState)
	case fw.finished:
		return fmt.Errorf("file: Write after Finish: %w", colf.ErrState)
	}
	if rec.Schema() != fw.schema && (rec.Schema() == nil || rec.Schema().Fingerprint() != fw.fp) {
		return fmt.Errorf("file: record schema does not match the file schema: %w", colf.ErrSchemaMismatch)
	}

	meta, bufs := fw.serialize(rec)
	metaBuf := encodeBatchMeta(meta)

	bodyLen, _ := meta.bodyLen()
	blk := fileBlock{Offset: fw.pos, Meta: int32(len(metaBuf)), Body: bodyLen}
	if err := fw.write(metaBuf); err != nil {
		return err
	}
	for _, buf := range bufs {
		if err := fw.write(buf); err != nil {
			return err
		}
	}
	fw.blocks = append(fw.blocks, blk)
	return nil
}

// serialize collects the metadata block and the body buffers of a record,
// in field order: validity, then offsets for binary columns, then values.
// A column with no nulls carries a zero-length validity bitmap.
func (fw *FileWriter) serialize(rec *vector.Record) (batchMeta, [][]byte) {
	meta := batchMeta{Rows: rec.NumRows()}
	var bufs [][]byte
	for i := 0; i < rec.NumCols(); i++ {
		col := rec.Column(i)
		validity, offsets, values := vector.Buffers(col)
		nulls := int64(col.NullN())
		if nulls == 0 {
			validity = nil
		}

		c := colMeta{Nulls: nulls, BufLens: []int64{int64(len(validity))}}
		bufs = append(bufs, validity)
		if offsets != nil {
			c.BufLens = append(c.BufLens, int64(len(offsets)))
			bufs = append(bufs, offsets)
		}
		c.BufLens = append(c.BufLens, int64(len(values)))
		bufs = append(bufs, values)

		meta.Cols = append(meta.Cols, c)
	}
	return meta, bufs
}

// Finish writes the trailer and the footer. No further batches can be
// written afterwards.
func (fw *FileWriter) Finish() error {
	switch {
	case fw.closed:
		return fmt.Errorf("file: Finish on closed writer: %w", colf.ErrState)
	case !fw.started:
		return fmt.Errorf("file: Finish before Start: %w", colf.ErrState)
	case fw.finished:
		return fmt.Errorf("file: Finish called twice: %w", colf.ErrState)
	}

	trailerOff := fw.pos
	trailer := encodeTrailer(fw.blocks)
	if err := fw.write(trailer); err != nil {
		return err
	}
	if err := fw.write(encodeFooter(trailerOff, int64(len(trailer)))); err != nil {
		return err
	}
	fw.finished = true
	return nil
}

// Close releases the sink. It closes the underlying writer when it
// implements io.Closer. Close is idempotent; it does not write the trailer
// or footer, so a file closed without Finish is truncated and will not
// open.
func (fw *FileWriter) Close() error {
	if fw.closed {
		return nil
	}
	fw.closed = true
	if c, ok := fw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (fw *FileWriter) write(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := fw.w.Write(buf)
	fw.pos += int64(n)
	if err != nil {
		return err
	}
	return nil
}
