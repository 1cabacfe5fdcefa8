package ceresdb

import (
	"fmt"
	"math"
	"time"
)

// ValueBuilder constructs Values. It holds no state; the zero value is
// ready to use and may be shared.
//
// Factories for widths narrower than 64 bits take a wide input and fail
// with an error wrapping ErrOutOfRange instead of truncating.
type ValueBuilder struct{}

// NewValueBuilder returns a ValueBuilder.
func NewValueBuilder() ValueBuilder {
	return ValueBuilder{}
}

func (ValueBuilder) Null() Value {
	return Null{}
}

// Timestamp builds a timestamp from milliseconds since the Unix epoch.
func (ValueBuilder) Timestamp(millis int64) Value {
	return Timestamp(millis)
}

// TimestampFromTime builds a timestamp from t, truncated to milliseconds.
func (ValueBuilder) TimestampFromTime(t time.Time) Value {
	return Timestamp(t.UnixMilli())
}

func (ValueBuilder) Double(v float64) Value {
	return Double(v)
}

func (ValueBuilder) Float(v float32) Value {
	return Float(v)
}

func (ValueBuilder) String(v string) Value {
	return String(v)
}

func (ValueBuilder) Varbinary(v []byte) Value {
	return NewVarbinary(v)
}

func (ValueBuilder) Bool(v bool) Value {
	return Boolean(v)
}

func (ValueBuilder) UInt64(v uint64) Value {
	return UInt64(v)
}

func (ValueBuilder) UInt32(v int64) (Value, error) {
	if v < 0 || v > math.MaxUint32 {
		return nil, outOfRangeError("value.uint32", v, UInt32DataType)
	}
	return UInt32(v), nil
}

func (ValueBuilder) UInt16(v int64) (Value, error) {
	if v < 0 || v > math.MaxUint16 {
		return nil, outOfRangeError("value.uint16", v, UInt16DataType)
	}
	return UInt16(v), nil
}

func (ValueBuilder) UInt8(v int64) (Value, error) {
	if v < 0 || v > math.MaxUint8 {
		return nil, outOfRangeError("value.uint8", v, UInt8DataType)
	}
	return UInt8(v), nil
}

func (ValueBuilder) Int64(v int64) Value {
	return Int64(v)
}

func (ValueBuilder) Int32(v int64) (Value, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return nil, outOfRangeError("value.int32", v, Int32DataType)
	}
	return Int32(v), nil
}

func (ValueBuilder) Int16(v int64) (Value, error) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return nil, outOfRangeError("value.int16", v, Int16DataType)
	}
	return Int16(v), nil
}

func (ValueBuilder) Int8(v int64) (Value, error) {
	if v < math.MinInt8 || v > math.MaxInt8 {
		return nil, outOfRangeError("value.int8", v, Int8DataType)
	}
	return Int8(v), nil
}

// UInt64FromInt64 builds a UInt64 from a signed input, rejecting negatives.
func (ValueBuilder) UInt64FromInt64(v int64) (Value, error) {
	if v < 0 {
		return nil, outOfRangeError("value.uint64", v, UInt64DataType)
	}
	return UInt64(v), nil
}

// ValueOf maps a Go native to the Value of the same width and kind. Plain
// int and uint map to Int64 and UInt64; time.Time maps to Timestamp.
func (b ValueBuilder) ValueOf(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case time.Time:
		return b.TimestampFromTime(v), nil
	case float64:
		return Double(v), nil
	case float32:
		return Float(v), nil
	case string:
		return String(v), nil
	case []byte:
		return NewVarbinary(v), nil
	case bool:
		return Boolean(v), nil
	case uint:
		return UInt64(v), nil
	case uint64:
		return UInt64(v), nil
	case uint32:
		return UInt32(v), nil
	case uint16:
		return UInt16(v), nil
	case uint8:
		return UInt8(v), nil
	case int:
		return Int64(v), nil
	case int64:
		return Int64(v), nil
	case int32:
		return Int32(v), nil
	case int16:
		return Int16(v), nil
	case int8:
		return Int8(v), nil
	default:
		return nil, validationError("value.of", "unsupported type %T", v)
	}
}

// Equal reports whether two values carry the same tag and payload. Doubles
// and floats compare bitwise so NaN equals itself.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	if a.DataType() != b.DataType() {
		return false
	}
	switch a := a.(type) {
	case Double:
		return math.Float64bits(float64(a)) == math.Float64bits(float64(b.(Double)))
	case Float:
		return math.Float32bits(float32(a)) == math.Float32bits(float32(b.(Float)))
	case Varbinary:
		return string(a.b) == string(b.(Varbinary).b)
	case Timestamp, String, UInt64, UInt32, UInt16, UInt8, Int64, Int32, Int16, Int8, Boolean:
		return a == b
	default:
		panic(fmt.Sprintf("unhandled value type %T", a))
	}
}
