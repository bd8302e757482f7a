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

import "errors"

// Sentinel errors for the whole module. Call sites wrap them with
// fmt.Errorf and %w so errors.Is can discriminate the class while the
// message carries context.
var (
	// ErrSchema indicates a malformed schema, e.g. duplicate field names.
	ErrSchema = errors.New("schema error")
	// ErrSchemaMismatch indicates a record or column disagreeing with the
	// schema it is supposed to conform to.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrState indicates an API call out of sequence.
	ErrState = errors.New("invalid state")
	// ErrIndex indicates an out-of-range row or batch index.
	ErrIndex = errors.New("index out of range")
	// ErrFormat indicates a corrupt or truncated on-disk structure.
	ErrFormat = errors.New("invalid format")
)
