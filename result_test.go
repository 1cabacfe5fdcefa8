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
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/require"
)

// makeResultPayload encodes:
//
// name:string | value:int64
// ------------+------------
// a           | 1
// b           | NULL
func makeResultPayload(t *testing.T, names ...string) []byte {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: names[0], Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: names[1], Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues([]string{"a", "b"}, nil)
	b.Field(1).(*array.Int64Builder).Append(1)
	b.Field(1).(*array.Int64Builder).AppendNull()
	rec := b.NewRecord()
	defer rec.Release()

	payload, err := encodeRecordBatches(schema, []arrow.Record{rec})
	require.NoError(t, err)
	return payload
}

func TestSqlQueryResponseRows(t *testing.T) {
	resp := &SqlQueryResponse{}
	require.NoError(t, decodeResultRows(makeResultPayload(t, "name", "value"), resp))

	require.Equal(t, 2, resp.RowNum())
	require.Len(t, resp.Rows(), 2)
	require.Equal(t, Schema{
		{Name: "name", Type: StringDataType},
		{Name: "value", Type: Int64DataType},
	}, resp.Schema())

	_, ok := resp.Row(2)
	require.False(t, ok)
	_, ok = resp.Row(-1)
	require.False(t, ok)

	row, ok := resp.Row(0)
	require.True(t, ok)
	require.Equal(t, 2, row.NumCols())

	col, err := row.ColumnByIdx(0)
	require.NoError(t, err)
	require.Equal(t, Column{Name: "name", DataType: StringDataType, Value: String("a")}, col)

	col, err = row.ColumnByName("value")
	require.NoError(t, err)
	require.Equal(t, Value(Int64(1)), col.Value)

	_, err = row.ColumnByIdx(2)
	require.ErrorIs(t, err, ErrValidation)
	_, err = row.ColumnByName("missing")
	require.ErrorIs(t, err, ErrValidation)

	require.Equal(t, "name:a,value:1", row.String())
}

func TestRowColumnByNameMatchesIdx(t *testing.T) {
	resp := &SqlQueryResponse{}
	require.NoError(t, decodeResultRows(makeResultPayload(t, "name", "value"), resp))

	for _, row := range resp.Rows() {
		for i, field := range resp.Schema() {
			byIdx, err := row.ColumnByIdx(i)
			require.NoError(t, err)
			byName, err := row.ColumnByName(field.Name)
			require.NoError(t, err)
			require.Equal(t, byIdx, byName)
			require.Equal(t, field.Name, byName.Name)
		}
	}
}

func TestSqlQueryResponseNullKeepsType(t *testing.T) {
	resp := &SqlQueryResponse{}
	require.NoError(t, decodeResultRows(makeResultPayload(t, "name", "value"), resp))

	row, ok := resp.Row(1)
	require.True(t, ok)
	col, err := row.ColumnByName("value")
	require.NoError(t, err)
	require.Equal(t, Int64DataType, col.DataType)
	require.Equal(t, Value(Null{}), col.Value)

	values, err := resp.ToValues()
	require.NoError(t, err)
	require.Equal(t, [][]any{{"a", int64(1)}, {"b", nil}}, values)
}

func TestSqlQueryResponseSharedSchema(t *testing.T) {
	resp := &SqlQueryResponse{}
	require.NoError(t, decodeResultRows(makeResultPayload(t, "name", "value"), resp))

	rows := resp.Rows()
	require.Same(t, rows[0].schema, rows[1].schema)
}

func TestSqlQueryResponseEmpty(t *testing.T) {
	resp := &SqlQueryResponse{AffectedRows: 3}
	require.NoError(t, decodeResultRows(nil, resp))
	require.Equal(t, 0, resp.RowNum())
	require.Nil(t, resp.Schema())
	_, ok := resp.Row(0)
	require.False(t, ok)
}

func TestSqlQueryResponseDuplicateColumn(t *testing.T) {
	resp := &SqlQueryResponse{}
	require.Error(t, decodeResultRows(makeResultPayload(t, "x", "x"), resp))
}

func TestSqlQueryResponseMalformed(t *testing.T) {
	resp := &SqlQueryResponse{}
	require.Error(t, decodeResultRows([]byte("not arrow"), resp))
}
