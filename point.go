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
	"maps"
	"sort"
	"time"
)

// Column names the server reserves for every table.
const (
	TimestampColumn = "timestamp"
	TSIDColumn      = "tsid"
)

// Point is one row to write: a table, a timestamp in milliseconds, tags
// identifying the series and fields carrying the measurements.
//
// A Point is immutable; accessors return copies.
type Point struct {
	table     string
	timestamp int64
	tags      map[string]Value
	fields    map[string]Value
}

func (p *Point) Table() string {
	return p.table
}

// Timestamp returns the point time in milliseconds since the Unix epoch.
func (p *Point) Timestamp() int64 {
	return p.timestamp
}

func (p *Point) Tags() map[string]Value {
	return maps.Clone(p.tags)
}

func (p *Point) Fields() map[string]Value {
	return maps.Clone(p.fields)
}

func (p *Point) Tag(name string) (Value, bool) {
	v, ok := p.tags[name]
	return v, ok
}

func (p *Point) Field(name string) (Value, bool) {
	v, ok := p.fields[name]
	return v, ok
}

// TagNames returns the tag names in ascending order.
func (p *Point) TagNames() []string {
	return sortedKeys(p.tags)
}

// FieldNames returns the field names in ascending order.
func (p *Point) FieldNames() []string {
	return sortedKeys(p.fields)
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PointBuilder accumulates a Point.
//
// Setting a tag or field name that is already set replaces the previous
// value. Once Build has been called the builder is spent: further setters
// are ignored and recorded as ErrInvalidState, and Build fails.
//
//	point, err := ceresdb.NewPointBuilder("cpu").
//		Timestamp(1000).
//		Tag("host", ceresdb.String("a")).
//		Field("usage", ceresdb.Double(0.5)).
//		Build()
type PointBuilder struct {
	table     string
	timestamp int64
	hasTS     bool
	tags      map[string]Value
	fields    map[string]Value

	built bool
	err   error
}

// NewPointBuilder creates a builder for a point of the given table.
func NewPointBuilder(table string) *PointBuilder {
	return &PointBuilder{
		table:  table,
		tags:   make(map[string]Value),
		fields: make(map[string]Value),
	}
}

func (b *PointBuilder) mutable(op string) bool {
	if b.built {
		if b.err == nil {
			b.err = invalidStateError(op, "point builder already built")
		}
		return false
	}
	return true
}

// Table overrides the table name.
func (b *PointBuilder) Table(table string) *PointBuilder {
	if b.mutable("point.table") {
		b.table = table
	}
	return b
}

// Timestamp sets the point time in milliseconds since the Unix epoch.
func (b *PointBuilder) Timestamp(millis int64) *PointBuilder {
	if b.mutable("point.timestamp") {
		b.timestamp = millis
		b.hasTS = true
	}
	return b
}

// TimestampTime sets the point time from t, truncated to milliseconds.
func (b *PointBuilder) TimestampTime(t time.Time) *PointBuilder {
	return b.Timestamp(t.UnixMilli())
}

func (b *PointBuilder) Tag(name string, v Value) *PointBuilder {
	if b.mutable("point.tag") {
		b.tags[name] = normalize(v)
	}
	return b
}

func (b *PointBuilder) Field(name string, v Value) *PointBuilder {
	if b.mutable("point.field") {
		b.fields[name] = normalize(v)
	}
	return b
}

func normalize(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

// Err returns the first misuse recorded by a setter, if any.
func (b *PointBuilder) Err() error {
	return b.err
}

// Build validates the accumulated state and returns the Point.
func (b *PointBuilder) Build() (*Point, error) {
	const op = "point.build"
	if b.built {
		return nil, invalidStateError(op, "point builder already built")
	}
	b.built = true

	if b.table == "" {
		return nil, validationError(op, "table is not set")
	}
	if !b.hasTS {
		return nil, validationError(op, "timestamp is not set")
	}
	if len(b.fields) == 0 {
		return nil, validationError(op, "point of table %s has no fields", b.table)
	}
	for name := range b.tags {
		if err := checkColumnName(op, name); err != nil {
			return nil, err
		}
		if _, dup := b.fields[name]; dup {
			return nil, validationError(op, "%s is both a tag and a field", name)
		}
	}
	for name := range b.fields {
		if err := checkColumnName(op, name); err != nil {
			return nil, err
		}
	}

	p := &Point{
		table:     b.table,
		timestamp: b.timestamp,
		tags:      b.tags,
		fields:    b.fields,
	}
	b.tags, b.fields = nil, nil
	return p, nil
}

func checkColumnName(op, name string) error {
	switch name {
	case "":
		return validationError(op, "empty column name")
	case TimestampColumn, TSIDColumn:
		return validationError(op, "column name %s is reserved", name)
	}
	return nil
}
