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

/*
Package colf provides the schema and type model of the colf columnar batch
file format.

A colf file carries one immutable Schema followed by zero or more record
batches. Each batch stores its columns as flat buffers: a validity bitmap
tracking nulls, plus either a fixed-width value buffer or, for binary
columns, an offsets buffer and a data buffer. A trailing directory and a
fixed footer let readers locate and load batches in any order without
scanning.

Sub-packages:

  - memory: allocators and reference-counted byte buffers.
  - bitutil: validity bitmap primitives.
  - vector: in-memory column vectors and record batches.
  - file: the file writer and reader.
  - batchio: piping records between readers and writers.
*/
package colf
