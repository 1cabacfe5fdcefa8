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
	"time"
)

// DataType is the type tag of a Value and of a result Column.
type DataType uint8

const (
	NullDataType DataType = iota
	TimestampDataType
	DoubleDataType
	FloatDataType
	VarbinaryDataType
	StringDataType
	UInt64DataType
	UInt32DataType
	UInt16DataType
	UInt8DataType
	Int64DataType
	Int32DataType
	Int16DataType
	Int8DataType
	BooleanDataType
)

var dataTypeNames = [...]string{
	NullDataType:      "null",
	TimestampDataType: "timestamp",
	DoubleDataType:    "double",
	FloatDataType:     "float",
	VarbinaryDataType: "varbinary",
	StringDataType:    "string",
	UInt64DataType:    "uint64",
	UInt32DataType:    "uint32",
	UInt16DataType:    "uint16",
	UInt8DataType:     "uint8",
	Int64DataType:     "int64",
	Int32DataType:     "int32",
	Int16DataType:     "int16",
	Int8DataType:      "int8",
	BooleanDataType:   "boolean",
}

func (t DataType) String() string {
	if int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return fmt.Sprintf("DataType(%d)", uint8(t))
}

// ParseDataType returns the DataType whose String form is name.
func ParseDataType(name string) (DataType, error) {
	for i, n := range dataTypeNames {
		if n == name {
			return DataType(i), nil
		}
	}
	return NullDataType, fmt.Errorf("unrecognized data type: %s", name)
}

// Value is a single typed cell, either written as a tag/field of a Point or
// read back from a query Row.
//
// The set of implementations is closed: Null, Timestamp, Double, Float,
// Varbinary, String, UInt64, UInt32, UInt16, UInt8, Int64, Int32, Int16,
// Int8 and Boolean. Use a type switch to get at the payload:
//
//	switch v := col.Value.(type) {
//	case ceresdb.Double:
//		fmt.Println(float64(v))
//	case ceresdb.String:
//		fmt.Println(string(v))
//	}
type Value interface {
	// DataType returns the tag of this value.
	DataType() DataType

	sealed()
}

type (
	// Null is the absent value.
	Null struct{}
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64
	Double    float64
	Float     float32
	String    string
	UInt64    uint64
	UInt32    uint32
	UInt16    uint16
	UInt8     uint8
	Int64     int64
	Int32     int32
	Int16     int16
	Int8      int8
	Boolean   bool
)

// Varbinary is an opaque byte string. The bytes are copied in and out so a
// Varbinary never aliases caller memory.
type Varbinary struct {
	b []byte
}

// NewVarbinary copies b into a new Varbinary.
func NewVarbinary(b []byte) Varbinary {
	return Varbinary{b: append([]byte(nil), b...)}
}

// Bytes returns a copy of the payload.
func (v Varbinary) Bytes() []byte {
	return append([]byte(nil), v.b...)
}

// Len returns the payload length.
func (v Varbinary) Len() int {
	return len(v.b)
}

// Time converts the timestamp to a time.Time in UTC.
func (v Timestamp) Time() time.Time {
	return time.UnixMilli(int64(v)).UTC()
}

func (Null) DataType() DataType      { return NullDataType }
func (Timestamp) DataType() DataType { return TimestampDataType }
func (Double) DataType() DataType    { return DoubleDataType }
func (Float) DataType() DataType     { return FloatDataType }
func (Varbinary) DataType() DataType { return VarbinaryDataType }
func (String) DataType() DataType    { return StringDataType }
func (UInt64) DataType() DataType    { return UInt64DataType }
func (UInt32) DataType() DataType    { return UInt32DataType }
func (UInt16) DataType() DataType    { return UInt16DataType }
func (UInt8) DataType() DataType     { return UInt8DataType }
func (Int64) DataType() DataType     { return Int64DataType }
func (Int32) DataType() DataType     { return Int32DataType }
func (Int16) DataType() DataType     { return Int16DataType }
func (Int8) DataType() DataType      { return Int8DataType }
func (Boolean) DataType() DataType   { return BooleanDataType }

func (Null) sealed()      {}
func (Timestamp) sealed() {}
func (Double) sealed()    {}
func (Float) sealed()     {}
func (Varbinary) sealed() {}
func (String) sealed()    {}
func (UInt64) sealed()    {}
func (UInt32) sealed()    {}
func (UInt16) sealed()    {}
func (UInt8) sealed()     {}
func (Int64) sealed()     {}
func (Int32) sealed()     {}
func (Int16) sealed()     {}
func (Int8) sealed()      {}
func (Boolean) sealed()   {}

// Interface unwraps v into the matching Go native: nil, int64 (timestamp
// millis), float64, float32, []byte, string, the unsigned and signed
// integer widths, or bool.
func Interface(v Value) (any, error) {
	switch v := v.(type) {
	case nil, Null:
		return nil, nil
	case Timestamp:
		return int64(v), nil
	case Double:
		return float64(v), nil
	case Float:
		return float32(v), nil
	case Varbinary:
		return v.Bytes(), nil
	case String:
		return string(v), nil
	case UInt64:
		return uint64(v), nil
	case UInt32:
		return uint32(v), nil
	case UInt16:
		return uint16(v), nil
	case UInt8:
		return uint8(v), nil
	case Int64:
		return int64(v), nil
	case Int32:
		return int32(v), nil
	case Int16:
		return int16(v), nil
	case Int8:
		return int8(v), nil
	case Boolean:
		return bool(v), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// IsNull reports whether v is absent.
func IsNull(v Value) bool {
	switch v.(type) {
	case nil, Null:
		return true
	default:
		return false
	}
}
