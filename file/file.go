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

// Package file implements reading and writing colf files.
//
// A colf file is laid out as
//
//	magic | schema | (batch metadata | batch body)* | trailer | footer
//
// The fixed-size footer at the end of the file locates the trailer, and the
// trailer is a directory of batch locations, so batches can be loaded in
// any order without a forward scan.
package file

import (
	"io"

	"github.com/columnlab/colf/memory"
)

// Magic string identifying a colf file.
var Magic = []byte("COLF1")

const (
	// Version is the current format version.
	Version uint32 = 1

	// footerSize is the fixed byte size of the footer: version, trailer
	// offset, trailer length, and the 5 magic bytes.
	footerSize = 4 + 8 + 8 + 5
)

// ReadAtSeeker is the interface a byte source must satisfy to be read as a
// colf file.
type ReadAtSeeker interface {
	io.Reader
	io.Seeker
	io.ReaderAt
}

type config struct {
	alloc  memory.Allocator
	footer struct {
		offset int64
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		alloc: memory.NewGoAllocator(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option is a functional option to configure opening or creating colf files.
type Option func(*config)

// WithFooterOffset specifies the end of the colf footer in bytes, for
// sources whose length cannot be discovered by seeking.
func WithFooterOffset(offset int64) Option {
	return func(cfg *config) {
		cfg.footer.offset = offset
	}
}

// WithAllocator specifies the memory allocator used while building records.
func WithAllocator(mem memory.Allocator) Option {
	return func(cfg *config) {
		cfg.alloc = mem
	}
}
