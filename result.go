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
	"fmt"
	"strings"
)

// Schema describes the columns shared by every row of one query response.
type Schema []*FieldSchema

// FieldSchema describes a single column.
type FieldSchema struct {
	// Name is the column name.
	Name string
	// Type is the declared column type.
	Type DataType
}

// rowSchema is the per-response column layout. All rows of a response point
// at the same rowSchema so name lookups cost one map access.
type rowSchema struct {
	fields Schema
	index  map[string]int
}

func newRowSchema(fields Schema) (*rowSchema, error) {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate column name in result: %s", f.Name)
		}
		index[f.Name] = i
	}
	return &rowSchema{fields: fields, index: index}, nil
}

// Column is one cell of a Row.
//
// DataType is the declared type of the column. For a NULL cell it still
// reports the declared type while Value is Null.
type Column struct {
	Name     string
	DataType DataType
	Value    Value
}

func (c Column) String() string {
	v, _ := Interface(c.Value)
	return fmt.Sprintf("%s:%v", c.Name, v)
}

// Row is one row of a SqlQueryResponse.
type Row struct {
	schema *rowSchema
	values []Value
}

// NumCols returns the number of columns.
func (r *Row) NumCols() int {
	return len(r.values)
}

// ColumnByIdx returns the column at the zero-based index.
func (r *Row) ColumnByIdx(idx int) (Column, error) {
	if idx < 0 || idx >= len(r.values) {
		return Column{}, validationError("row.column", "invalid column idx:%d, total columns:%d", idx, len(r.values))
	}
	f := r.schema.fields[idx]
	return Column{Name: f.Name, DataType: f.Type, Value: r.values[idx]}, nil
}

// ColumnByName returns the column with the given name.
func (r *Row) ColumnByName(name string) (Column, error) {
	idx, ok := r.schema.index[name]
	if !ok {
		return Column{}, validationError("row.column", "column:%s not found", name)
	}
	return r.ColumnByIdx(idx)
}

// Columns returns all columns in schema order.
func (r *Row) Columns() []Column {
	cols := make([]Column, len(r.values))
	for i, f := range r.schema.fields {
		cols[i] = Column{Name: f.Name, DataType: f.Type, Value: r.values[i]}
	}
	return cols
}

func (r *Row) String() string {
	parts := make([]string, 0, len(r.values))
	for _, c := range r.Columns() {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ",")
}

// SqlQueryResponse is the fully materialized result of a query.
type SqlQueryResponse struct {
	// AffectedRows is set by statements that return no rows, e.g. INSERT.
	AffectedRows uint32

	schema *rowSchema
	rows   []*Row
}

// Schema returns the columns of the result, nil when there are none.
func (r *SqlQueryResponse) Schema() Schema {
	if r.schema == nil {
		return nil
	}
	return append(Schema(nil), r.schema.fields...)
}

// RowNum returns the number of rows.
func (r *SqlQueryResponse) RowNum() int {
	return len(r.rows)
}

// Row returns the row at idx, or false if idx is out of range.
func (r *SqlQueryResponse) Row(idx int) (*Row, bool) {
	if idx < 0 || idx >= len(r.rows) {
		return nil, false
	}
	return r.rows[idx], true
}

// Rows returns all rows.
func (r *SqlQueryResponse) Rows() []*Row {
	return append([]*Row(nil), r.rows...)
}

// ToValues returns the rows as Go natives, see Interface.
func (r *SqlQueryResponse) ToValues() ([][]any, error) {
	out := make([][]any, 0, len(r.rows))
	for _, row := range r.rows {
		vals := make([]any, len(row.values))
		for i, v := range row.values {
			native, err := Interface(v)
			if err != nil {
				return nil, err
			}
			vals[i] = native
		}
		out = append(out, vals)
	}
	return out, nil
}

func (r *SqlQueryResponse) String() string {
	return fmt.Sprintf("SqlQueryResponse{affected_rows: %d, rows: %d}", r.AffectedRows, len(r.rows))
}
