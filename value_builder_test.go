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
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValueBuilderRanges(t *testing.T) {
	vb := NewValueBuilder()

	cases := []struct {
		name  string
		build func(int64) (Value, error)
		min   int64
		max   int64
	}{
		{"uint32", vb.UInt32, 0, math.MaxUint32},
		{"uint16", vb.UInt16, 0, math.MaxUint16},
		{"uint8", vb.UInt8, 0, math.MaxUint8},
		{"int32", vb.Int32, math.MinInt32, math.MaxInt32},
		{"int16", vb.Int16, math.MinInt16, math.MaxInt16},
		{"int8", vb.Int8, math.MinInt8, math.MaxInt8},
		{"uint64", vb.UInt64FromInt64, 0, math.MaxInt64},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := c.build(c.min)
			require.NoError(t, err)
			require.Equal(t, c.name, v.DataType().String())

			_, err = c.build(c.max)
			require.NoError(t, err)

			if c.min > math.MinInt64 {
				_, err = c.build(c.min - 1)
				require.ErrorIs(t, err, ErrOutOfRange)
				require.ErrorIs(t, err, ErrValidation)
			}
			if c.max < math.MaxInt64 {
				_, err = c.build(c.max + 1)
				require.ErrorIs(t, err, ErrOutOfRange)
				require.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestValueBuilderInfallible(t *testing.T) {
	vb := NewValueBuilder()

	require.Equal(t, Value(Null{}), vb.Null())
	require.Equal(t, Value(Timestamp(42)), vb.Timestamp(42))
	require.Equal(t, Value(Double(0.4242)), vb.Double(0.4242))
	require.Equal(t, Value(Float(1.5)), vb.Float(1.5))
	require.Equal(t, Value(String("test_tag1")), vb.String("test_tag1"))
	require.Equal(t, Value(Boolean(true)), vb.Bool(true))
	require.Equal(t, Value(UInt64(math.MaxUint64)), vb.UInt64(math.MaxUint64))
	require.Equal(t, Value(Int64(math.MinInt64)), vb.Int64(math.MinInt64))
	require.True(t, Equal(NewVarbinary([]byte{0xff}), vb.Varbinary([]byte{0xff})))

	now := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)
	require.Equal(t, Value(Timestamp(now.UnixMilli())), vb.TimestampFromTime(now))
}

func TestValueOf(t *testing.T) {
	vb := NewValueBuilder()

	cases := []struct {
		in  any
		typ DataType
	}{
		{nil, NullDataType},
		{time.Now(), TimestampDataType},
		{1.5, DoubleDataType},
		{float32(1.5), FloatDataType},
		{[]byte("raw"), VarbinaryDataType},
		{"s", StringDataType},
		{uint(1), UInt64DataType},
		{uint32(1), UInt32DataType},
		{uint16(1), UInt16DataType},
		{uint8(1), UInt8DataType},
		{1, Int64DataType},
		{int32(1), Int32DataType},
		{int16(1), Int16DataType},
		{int8(1), Int8DataType},
		{true, BooleanDataType},
		{Int16(3), Int16DataType},
	}
	for _, c := range cases {
		v, err := vb.ValueOf(c.in)
		require.NoError(t, err, "%T", c.in)
		require.Equal(t, c.typ, v.DataType(), "%T", c.in)
	}

	_, err := vb.ValueOf(struct{}{})
	require.True(t, errors.Is(err, ErrValidation))
}
