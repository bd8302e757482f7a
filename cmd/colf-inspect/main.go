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

// Command colf-inspect prints the schema, batch directory, and optionally
// the values of a colf file.
package main

import (
	"fmt"
	"os"

	"github.com/docopt/docopt-go"
	"github.com/goccy/go-json"

	"github.com/columnlab/colf"
	"github.com/columnlab/colf/file"
	"github.com/columnlab/colf/vector"
)

const usage = `Colf Inspector.
Usage:
  colf-inspect -h | --help
  colf-inspect [--json] [--values] [--batch=INDEX] <file>
Options:
  -h --help      Show this screen.
  --json         Format output as JSON instead of text.
  --values       Print row values, not just metadata.
  --batch=INDEX  Restrict output to a single batch index [default: -1].`

type fileSummary struct {
	File       string         `json:"file"`
	Schema     *colf.Schema   `json:"schema"`
	NumBatches int            `json:"num_batches"`
	Batches    []batchSummary `json:"batches"`
}

type batchSummary struct {
	Index   int     `json:"index"`
	Rows    int64   `json:"rows"`
	Nulls   []int   `json:"nulls"`
	Rowvals [][]any `json:"values,omitempty"`
}

func main() {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	var config struct {
		JSON   bool `docopt:"--json"`
		Values bool
		Batch  int
		File   string
	}
	if err := opts.Bind(&config); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	f, err := os.Open(config.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer f.Close()

	rdr, err := file.NewFileReader(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error opening colf file:", err)
		os.Exit(1)
	}

	batches := make([]int, 0, rdr.NumRecords())
	if config.Batch >= 0 {
		if config.Batch >= rdr.NumRecords() {
			fmt.Fprintln(os.Stderr, "error: batch index out of range")
			os.Exit(1)
		}
		batches = append(batches, config.Batch)
	} else {
		for i := 0; i < rdr.NumRecords(); i++ {
			batches = append(batches, i)
		}
	}

	sum := fileSummary{
		File:       config.File,
		Schema:     rdr.Schema(),
		NumBatches: rdr.NumRecords(),
	}
	for _, i := range batches {
		rec, err := rdr.Record(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading batch %d: %v\n", i, err)
			os.Exit(1)
		}
		sum.Batches = append(sum.Batches, summarize(i, rec, config.Values))
		rec.Release()
	}

	if config.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sum); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}
	printText(sum)
}

func summarize(i int, rec *vector.Record, values bool) batchSummary {
	b := batchSummary{Index: i, Rows: rec.NumRows()}
	for j := 0; j < rec.NumCols(); j++ {
		b.Nulls = append(b.Nulls, rec.Column(j).NullN())
	}
	if !values {
		return b
	}
	for r := 0; r < int(rec.NumRows()); r++ {
		row := make([]any, rec.NumCols())
		for j := 0; j < rec.NumCols(); j++ {
			row[j] = cellValue(rec.Column(j), r)
		}
		b.Rowvals = append(b.Rowvals, row)
	}
	return b
}

func cellValue(col vector.Vector, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch v := col.(type) {
	case *vector.Numeric[int32]:
		val, _ := v.Value(i)
		return val
	case *vector.Numeric[int64]:
		val, _ := v.Value(i)
		return val
	case *vector.Numeric[float32]:
		val, _ := v.Value(i)
		return val
	case *vector.Numeric[float64]:
		val, _ := v.Value(i)
		return val
	case *vector.Binary:
		val, _ := v.ValueString(i)
		return val
	}
	return nil
}

func printText(sum fileSummary) {
	fmt.Println("File name:", sum.File)
	fmt.Println("Schema:", sum.Schema)
	fmt.Println("Number of Batches:", sum.NumBatches)
	for _, b := range sum.Batches {
		fmt.Println("--- Batch:", b.Index, " ---")
		fmt.Println("--- Rows:", b.Rows, " ---")
		for j, n := range b.Nulls {
			fmt.Printf("Column %d: %s, Null Values: %d\n",
				j, sum.Schema.Field(j).Name, n)
		}
		if b.Rowvals == nil {
			continue
		}
		fmt.Println("--- Values ---")
		for _, row := range b.Rowvals {
			for _, cell := range row {
				if cell == nil {
					fmt.Print("(null)|")
					continue
				}
				fmt.Printf("%v|", cell)
			}
			fmt.Println()
		}
	}
}
