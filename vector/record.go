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

	"github.com/columnlab/colf"
)

// A Record is a record batch: an ordered set of finalized column vectors
// sharing one row count, one per field of its schema. Records are immutable
// once built; mutation happens on the vectors before assembly.
type Record struct {
	schema *colf.Schema
	rows   int64
	cols   []Vector
}

// NewRecord assembles a record batch from finalized column vectors. It
// fails when the column count, order, field or row count disagrees with the
// schema, or when a column has not been finalized.
func NewRecord(schema *colf.Schema, cols []Vector) (*Record, error) {
	if schema == nil {
		return nil, fmt.Errorf("vector: nil schema: %w", colf.ErrSchemaMismatch)
	}
	if len(cols) != schema.NumFields() {
		return nil, fmt.Errorf("vector: got %d columns for %d fields: %w",
			len(cols), schema.NumFields(), colf.ErrSchemaMismatch)
	}

	rec := &Record{schema: schema, cols: cols}
	for i, col := range cols {
		if !col.Finalized() {
			return nil, fmt.Errorf("vector: column %d (%q) not finalized: %w",
				i, col.Field().Name, colf.ErrState)
		}
		if field := schema.Field(i); !col.Field().Equal(field) {
			return nil, fmt.Errorf("vector: column %d holds field %q, schema wants %q: %w",
				i, col.Field().Name, field.Name, colf.ErrSchemaMismatch)
		}
		if i == 0 {
			rec.rows = int64(col.Len())
		} else if int64(col.Len()) != rec.rows {
			return nil, fmt.Errorf("vector: column %d (%q) has %d rows, want %d: %w",
				i, col.Field().Name, col.Len(), rec.rows, colf.ErrSchemaMismatch)
		}
	}
	return rec, nil
}

func (rec *Record) Schema() *colf.Schema { return rec.schema }
func (rec *Record) NumRows() int64       { return rec.rows }
func (rec *Record) NumCols() int         { return len(rec.cols) }

// Column returns the i-th column vector.
func (rec *Record) Column(i int) Vector { return rec.cols[i] }

// ColumnByName returns the column vector for the named field.
func (rec *Record) ColumnByName(n string) (Vector, bool) {
	i := rec.schema.FieldIndex(n)
	if i < 0 {
		return nil, false
	}
	return rec.cols[i], true
}

// Release releases every column's buffers.
func (rec *Record) Release() {
	for _, col := range rec.cols {
		col.Release()
	}
	rec.cols = nil
}

func (rec *Record) String() string {
	return fmt.Sprintf("record: %d rows, %d cols", rec.rows, len(rec.cols))
}
