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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		id    Type
		want  DataType
		name  string
		width int
	}{
		{INT32, PrimitiveTypes.Int32, "int32", 32},
		{INT64, PrimitiveTypes.Int64, "int64", 64},
		{FLOAT32, PrimitiveTypes.Float32, "float32", 32},
		{FLOAT64, PrimitiveTypes.Float64, "float64", 64},
		{BINARY, BinaryTypes.Binary, "binary", 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dt := TypeOf(test.id)
			assert.Same(t, test.want, dt)
			assert.Equal(t, test.id, dt.ID())
			assert.Equal(t, test.name, dt.Name())
			if fw, ok := dt.(FixedWidthDataType); ok {
				assert.Equal(t, test.width, fw.BitWidth())
			} else {
				assert.Zero(t, test.width)
				_, isBinary := dt.(BinaryDataType)
				assert.True(t, isBinary)
			}
		})
	}

	assert.Nil(t, TypeOf(Type(42)))
}
