/*
 * Copyright 2024 CeresDB Project Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ceresdb

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDataTypeNames(t *testing.T) {
	for typ := NullDataType; typ <= BooleanDataType; typ++ {
		parsed, err := ParseDataType(typ.String())
		require.NoError(t, err)
		require.Equal(t, typ, parsed)
	}

	require.Equal(t, "DataType(99)", DataType(99).String())
	_, err := ParseDataType("decimal")
	require.Error(t, err)
}

func TestValueDataType(t *testing.T) {
	cases := []struct {
		v   Value
		typ DataType
	}{
		{Null{}, NullDataType},
		{Timestamp(1), TimestampDataType},
		{Double(1), DoubleDataType},
		{Float(1), FloatDataType},
		{NewVarbinary([]byte("x")), VarbinaryDataType},
		{String("x"), StringDataType},
		{UInt64(1), UInt64DataType},
		{UInt32(1), UInt32DataType},
		{UInt16(1), UInt16DataType},
		{UInt8(1), UInt8DataType},
		{Int64(1), Int64DataType},
		{Int32(1), Int32DataType},
		{Int16(1), Int16DataType},
		{Int8(1), Int8DataType},
		{Boolean(true), BooleanDataType},
	}
	for _, c := range cases {
		require.Equal(t, c.typ, c.v.DataType(), "%T", c.v)
	}
}

func TestVarbinaryNeverAliases(t *testing.T) {
	src := []byte{1, 2, 3}
	v := NewVarbinary(src)
	src[0] = 9
	require.Equal(t, []byte{1, 2, 3}, v.Bytes())

	out := v.Bytes()
	out[1] = 9
	require.Equal(t, []byte{1, 2, 3}, v.Bytes())
	require.Equal(t, 3, v.Len())
}

func TestInterface(t *testing.T) {
	v, err := Interface(Null{})
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = Interface(nil)
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = Interface(Int16(-7))
	require.NoError(t, err)
	require.Equal(t, int16(-7), v)

	v, err = Interface(NewVarbinary([]byte("ab")))
	require.NoError(t, err)
	require.Equal(t, []byte("ab"), v)

	v, err = Interface(Timestamp(1700000000000))
	require.NoError(t, err)
	require.Equal(t, int64(1700000000000), v)
}

func TestTimestampTime(t *testing.T) {
	ts := Timestamp(1700000000123)
	require.Equal(t, time.UnixMilli(1700000000123).UTC(), ts.Time())
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(Null{}, nil))
	require.True(t, Equal(Double(math.NaN()), Double(math.NaN())))
	require.True(t, Equal(NewVarbinary([]byte("a")), NewVarbinary([]byte("a"))))
	require.False(t, Equal(NewVarbinary([]byte("a")), NewVarbinary([]byte("b"))))
	require.False(t, Equal(Int32(1), Int64(1)))
	require.False(t, Equal(Int32(1), Null{}))
	require.True(t, Equal(String("x"), String("x")))
}
