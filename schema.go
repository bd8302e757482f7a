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

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
)

// Metadata is an immutable set of string key/value pairs attached to a
// Schema or a Field.
type Metadata struct {
	keys   []string
	values []string
}

// NewMetadata builds a Metadata from parallel key and value slices.
// It panics when the slices differ in length.
func NewMetadata(keys, values []string) Metadata {
	if len(keys) != len(values) {
		panic("colf: len mismatch")
	}

	n := len(keys)
	if n == 0 {
		return Metadata{}
	}

	md := Metadata{
		keys:   make([]string, n),
		values: make([]string, n),
	}
	copy(md.keys, keys)
	copy(md.values, values)
	return md
}

// MetadataFrom builds a Metadata from a map, with keys in sorted order.
func MetadataFrom(kv map[string]string) Metadata {
	md := Metadata{
		keys:   make([]string, 0, len(kv)),
		values: make([]string, 0, len(kv)),
	}
	for k := range kv {
		md.keys = append(md.keys, k)
	}
	sort.Strings(md.keys)
	for _, k := range md.keys {
		md.values = append(md.values, kv[k])
	}
	return md
}

func (md Metadata) Len() int         { return len(md.keys) }
func (md Metadata) Keys() []string   { return md.keys }
func (md Metadata) Values() []string { return md.values }

// ToMap returns the metadata as a map of keys to values.
func (md Metadata) ToMap() map[string]string {
	m := make(map[string]string, len(md.keys))
	for i := range md.keys {
		m[md.keys[i]] = md.values[i]
	}
	return m
}

func (md Metadata) String() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "[")
	for i := range md.keys {
		if i > 0 {
			fmt.Fprintf(o, ", ")
		}
		fmt.Fprintf(o, "%q: %q", md.keys[i], md.values[i])
	}
	fmt.Fprintf(o, "]")
	return o.String()
}

// FindKey returns the index of the key-value pair with the provided key
// name, or -1 if not found.
func (md Metadata) FindKey(k string) int {
	for i, v := range md.keys {
		if v == k {
			return i
		}
	}
	return -1
}

// GetValue returns the value associated with the provided key name.
// If the key does not exist, the second return value is false.
func (md Metadata) GetValue(k string) (string, bool) {
	i := md.FindKey(k)
	if i < 0 {
		return "", false
	}
	return md.values[i], true
}

func (md Metadata) clone() Metadata {
	if len(md.keys) == 0 {
		return Metadata{}
	}

	o := Metadata{
		keys:   make([]string, len(md.keys)),
		values: make([]string, len(md.values)),
	}
	copy(o.keys, md.keys)
	copy(o.values, md.values)
	return o
}

// Equal reports whether md and rhs hold the same pairs in the same order.
func (md Metadata) Equal(rhs Metadata) bool {
	if md.Len() != rhs.Len() {
		return false
	}
	for i := range md.keys {
		if md.keys[i] != rhs.keys[i] || md.values[i] != rhs.values[i] {
			return false
		}
	}
	return true
}

// Field is a named, typed, nullable column descriptor. It is immutable once
// constructed and owned by the Schema that holds it.
type Field struct {
	Name     string
	Type     DataType
	Nullable bool
	Metadata Metadata
}

// Equal reports whether f and o describe the same column.
func (f Field) Equal(o Field) bool {
	switch {
	case f.Name != o.Name:
		return false
	case f.Nullable != o.Nullable:
		return false
	case f.Type == nil || o.Type == nil:
		return f.Type == o.Type
	case f.Type.ID() != o.Type.ID():
		return false
	case !f.Metadata.Equal(o.Metadata):
		return false
	}
	return true
}

func (f Field) String() string {
	o := new(strings.Builder)
	nullable := ""
	if f.Nullable {
		nullable = ", nullable"
	}
	fmt.Fprintf(o, "%s: type=%v%v", f.Name, f.Type, nullable)
	if f.Metadata.Len() != 0 {
		fmt.Fprintf(o, "\n%*.smetadata: %v", len(f.Name)+2, "", f.Metadata)
	}
	return o.String()
}

// MarshalJSON implements json.Marshaler for Field.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string            `json:"name"`
		Type     string            `json:"type"`
		Nullable bool              `json:"nullable"`
		Metadata map[string]string `json:"metadata,omitempty"`
	}{
		Name:     f.Name,
		Type:     f.Type.Name(),
		Nullable: f.Nullable,
		Metadata: f.Metadata.ToMap(),
	})
}

// A Schema is an ordered, immutable sequence of uniquely named Fields,
// optionally with schema-level metadata. Schemas are safe to share
// (read-only) between a writer, a reader and every record built under them.
type Schema struct {
	fields []Field
	index  map[string]int
	meta   Metadata
	fp     uint64
}

// NewSchema builds a Schema from the provided fields and metadata.
// It returns an error wrapping ErrSchema when a field has no type or two
// fields share a name.
func NewSchema(fields []Field, metadata *Metadata) (*Schema, error) {
	sc := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	if metadata != nil {
		sc.meta = metadata.clone()
	}
	for i, field := range fields {
		if field.Type == nil {
			return nil, fmt.Errorf("colf: field %q has nil type: %w", field.Name, ErrSchema)
		}
		if _, dup := sc.index[field.Name]; dup {
			return nil, fmt.Errorf("colf: duplicate field name %q: %w", field.Name, ErrSchema)
		}
		sc.fields = append(sc.fields, field)
		sc.index[field.Name] = i
	}
	sc.fp = sc.fingerprint()
	return sc, nil
}

func (sc *Schema) Metadata() Metadata { return sc.meta }

// Fields returns a copy of the schema's fields.
func (sc *Schema) Fields() []Field {
	fields := make([]Field, len(sc.fields))
	copy(fields, sc.fields)
	return fields
}

// Field returns the i-th field of the schema.
func (sc *Schema) Field(i int) Field { return sc.fields[i] }

// NumFields returns the number of fields.
func (sc *Schema) NumFields() int { return len(sc.fields) }

// FieldIndex returns the index of the field with the provided name,
// or -1 if the schema has no such field.
func (sc *Schema) FieldIndex(n string) int {
	if i, ok := sc.index[n]; ok {
		return i
	}
	return -1
}

// HasField reports whether the schema contains a field with the provided name.
func (sc *Schema) HasField(n string) bool { return sc.FieldIndex(n) >= 0 }

// Equal reports whether sc and o hold the same fields in the same order.
// Metadata is not considered.
func (sc *Schema) Equal(o *Schema) bool {
	switch {
	case sc == o:
		return true
	case sc == nil || o == nil:
		return false
	case len(sc.fields) != len(o.fields):
		return false
	}

	for i := range sc.fields {
		if !sc.fields[i].Equal(o.fields[i]) {
			return false
		}
	}
	return true
}

// Fingerprint returns a 64-bit hash of the schema's shape (field names,
// type tags and nullability, in order). Two schemas with equal fingerprints
// hold the same columns; metadata does not participate.
func (sc *Schema) Fingerprint() uint64 { return sc.fp }

func (sc *Schema) fingerprint() uint64 {
	var buf bytes.Buffer
	for _, f := range sc.fields {
		buf.WriteString(f.Name)
		buf.WriteByte(0)
		buf.WriteByte(byte(f.Type.ID()))
		if f.Nullable {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
	return xxh3.Hash(buf.Bytes())
}

func (sc *Schema) String() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "schema:\n  fields: %d\n", sc.NumFields())
	for i, f := range sc.fields {
		if i > 0 {
			o.WriteString("\n")
		}
		fmt.Fprintf(o, "    - %v", f)
	}
	if sc.meta.Len() > 0 {
		fmt.Fprintf(o, "\n  metadata: %v", sc.meta)
	}
	return o.String()
}

// MarshalJSON implements json.Marshaler for Schema.
func (sc *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Fields   []Field           `json:"fields"`
		Metadata map[string]string `json:"metadata,omitempty"`
	}{
		Fields:   sc.fields,
		Metadata: sc.meta.ToMap(),
	})
}
