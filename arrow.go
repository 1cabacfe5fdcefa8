package ceresdb

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// Arrow metadata keys describing how a point column maps back to a point.
const (
	metaTable = "ceresdb.table"
	metaKind  = "ceresdb.kind"
	kindTS    = "timestamp"
	kindTag   = "tag"
	kindField = "field"
)

func arrowType(t DataType) (arrow.DataType, error) {
	switch t {
	case NullDataType:
		return arrow.Null, nil
	case TimestampDataType:
		return arrow.FixedWidthTypes.Timestamp_ms, nil
	case DoubleDataType:
		return arrow.PrimitiveTypes.Float64, nil
	case FloatDataType:
		return arrow.PrimitiveTypes.Float32, nil
	case VarbinaryDataType:
		return arrow.BinaryTypes.Binary, nil
	case StringDataType:
		return arrow.BinaryTypes.String, nil
	case UInt64DataType:
		return arrow.PrimitiveTypes.Uint64, nil
	case UInt32DataType:
		return arrow.PrimitiveTypes.Uint32, nil
	case UInt16DataType:
		return arrow.PrimitiveTypes.Uint16, nil
	case UInt8DataType:
		return arrow.PrimitiveTypes.Uint8, nil
	case Int64DataType:
		return arrow.PrimitiveTypes.Int64, nil
	case Int32DataType:
		return arrow.PrimitiveTypes.Int32, nil
	case Int16DataType:
		return arrow.PrimitiveTypes.Int16, nil
	case Int8DataType:
		return arrow.PrimitiveTypes.Int8, nil
	case BooleanDataType:
		return arrow.FixedWidthTypes.Boolean, nil
	default:
		return nil, fmt.Errorf("unsupported data type: %s", t)
	}
}

func dataTypeOf(t arrow.DataType) (DataType, error) {
	switch t.ID() {
	case arrow.NULL:
		return NullDataType, nil
	case arrow.TIMESTAMP:
		return TimestampDataType, nil
	case arrow.FLOAT64:
		return DoubleDataType, nil
	case arrow.FLOAT32:
		return FloatDataType, nil
	case arrow.BINARY, arrow.LARGE_BINARY:
		return VarbinaryDataType, nil
	case arrow.STRING, arrow.LARGE_STRING:
		return StringDataType, nil
	case arrow.UINT64:
		return UInt64DataType, nil
	case arrow.UINT32:
		return UInt32DataType, nil
	case arrow.UINT16:
		return UInt16DataType, nil
	case arrow.UINT8:
		return UInt8DataType, nil
	case arrow.INT64:
		return Int64DataType, nil
	case arrow.INT32:
		return Int32DataType, nil
	case arrow.INT16:
		return Int16DataType, nil
	case arrow.INT8:
		return Int8DataType, nil
	case arrow.BOOL:
		return BooleanDataType, nil
	default:
		return NullDataType, fmt.Errorf("unsupported arrow type: %s", t)
	}
}

// pointBatch is a run of consecutive points sharing table and column layout.
type pointBatch struct {
	table  string
	schema *arrow.Schema
	points []*Point
}

// groupPoints splits points into runs of identical layout, preserving order.
func groupPoints(points []*Point) ([]*pointBatch, error) {
	var (
		batches []*pointBatch
		lastSig string
	)
	for _, p := range points {
		sig := layoutSignature(p)
		if len(batches) > 0 && sig == lastSig {
			last := batches[len(batches)-1]
			last.points = append(last.points, p)
			continue
		}
		schema, err := pointSchema(p)
		if err != nil {
			return nil, err
		}
		batches = append(batches, &pointBatch{table: p.table, schema: schema, points: []*Point{p}})
		lastSig = sig
	}
	return batches, nil
}

func layoutSignature(p *Point) string {
	var b strings.Builder
	b.WriteString(p.table)
	for _, name := range p.TagNames() {
		fmt.Fprintf(&b, "\x00t%s\x00%d", name, p.tags[name].DataType())
	}
	for _, name := range p.FieldNames() {
		fmt.Fprintf(&b, "\x00f%s\x00%d", name, p.fields[name].DataType())
	}
	return b.String()
}

func pointSchema(p *Point) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, 1+len(p.tags)+len(p.fields))
	fields = append(fields, arrow.Field{
		Name:     TimestampColumn,
		Type:     arrow.FixedWidthTypes.Timestamp_ms,
		Metadata: arrow.NewMetadata([]string{metaKind}, []string{kindTS}),
	})
	add := func(kind string, names []string, values map[string]Value) error {
		for _, name := range names {
			typ, err := arrowType(values[name].DataType())
			if err != nil {
				return err
			}
			fields = append(fields, arrow.Field{
				Name:     name,
				Type:     typ,
				Nullable: true,
				Metadata: arrow.NewMetadata([]string{metaKind}, []string{kind}),
			})
		}
		return nil
	}
	if err := add(kindTag, p.TagNames(), p.tags); err != nil {
		return nil, err
	}
	if err := add(kindField, p.FieldNames(), p.fields); err != nil {
		return nil, err
	}
	md := arrow.NewMetadata([]string{metaTable}, []string{p.table})
	return arrow.NewSchema(fields, &md), nil
}

// encode builds one record batch from the run and returns it as an Arrow
// IPC stream.
func (pb *pointBatch) encode() (payload []byte, err error) {
	b := array.NewRecordBuilder(memory.DefaultAllocator, pb.schema)
	defer b.Release()

	for _, p := range pb.points {
		b.Field(0).(*array.TimestampBuilder).Append(arrow.Timestamp(p.timestamp))
		for i := 1; i < len(pb.schema.Fields()); i++ {
			f := pb.schema.Field(i)
			var v Value
			if kind, _ := f.Metadata.GetValue(metaKind); kind == kindTag {
				v = p.tags[f.Name]
			} else {
				v = p.fields[f.Name]
			}
			if err := appendValue(b.Field(i), v); err != nil {
				return nil, fmt.Errorf("column %s: %w", f.Name, err)
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()
	return encodeRecordBatches(pb.schema, []arrow.Record{rec})
}

func appendValue(b array.Builder, v Value) error {
	ok := true
	switch v := v.(type) {
	case Null:
		b.AppendNull()
	case Timestamp:
		var tb *array.TimestampBuilder
		if tb, ok = b.(*array.TimestampBuilder); ok {
			tb.Append(arrow.Timestamp(v))
		}
	case Double:
		var fb *array.Float64Builder
		if fb, ok = b.(*array.Float64Builder); ok {
			fb.Append(float64(v))
		}
	case Float:
		var fb *array.Float32Builder
		if fb, ok = b.(*array.Float32Builder); ok {
			fb.Append(float32(v))
		}
	case Varbinary:
		var bb *array.BinaryBuilder
		if bb, ok = b.(*array.BinaryBuilder); ok {
			bb.Append(v.b)
		}
	case String:
		var sb *array.StringBuilder
		if sb, ok = b.(*array.StringBuilder); ok {
			sb.Append(string(v))
		}
	case UInt64:
		var ub *array.Uint64Builder
		if ub, ok = b.(*array.Uint64Builder); ok {
			ub.Append(uint64(v))
		}
	case UInt32:
		var ub *array.Uint32Builder
		if ub, ok = b.(*array.Uint32Builder); ok {
			ub.Append(uint32(v))
		}
	case UInt16:
		var ub *array.Uint16Builder
		if ub, ok = b.(*array.Uint16Builder); ok {
			ub.Append(uint16(v))
		}
	case UInt8:
		var ub *array.Uint8Builder
		if ub, ok = b.(*array.Uint8Builder); ok {
			ub.Append(uint8(v))
		}
	case Int64:
		var ib *array.Int64Builder
		if ib, ok = b.(*array.Int64Builder); ok {
			ib.Append(int64(v))
		}
	case Int32:
		var ib *array.Int32Builder
		if ib, ok = b.(*array.Int32Builder); ok {
			ib.Append(int32(v))
		}
	case Int16:
		var ib *array.Int16Builder
		if ib, ok = b.(*array.Int16Builder); ok {
			ib.Append(int16(v))
		}
	case Int8:
		var ib *array.Int8Builder
		if ib, ok = b.(*array.Int8Builder); ok {
			ib.Append(int8(v))
		}
	case Boolean:
		var bb *array.BooleanBuilder
		if bb, ok = b.(*array.BooleanBuilder); ok {
			bb.Append(bool(v))
		}
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	if !ok {
		return fmt.Errorf("value of type %s does not match column type %s", v.DataType(), b.Type())
	}
	return nil
}

// encodeRecordBatches encodes the given record batches as one Arrow IPC stream.
func encodeRecordBatches(schema *arrow.Schema, batches []arrow.Record) (payload []byte, err error) {
	if len(batches) == 0 {
		return nil, errors.New("cannot encode empty batches")
	}

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	for _, batch := range batches {
		if err := writer.Write(batch); err != nil {
			return nil, errors.Join(err, writer.Close())
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeResultRows decodes an Arrow IPC stream into a response. An empty
// payload decodes into an empty response.
func decodeResultRows(data []byte, resp *SqlQueryResponse) error {
	if len(data) == 0 {
		return nil
	}

	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer reader.Release()

	fields := make(Schema, 0, len(reader.Schema().Fields()))
	for _, f := range reader.Schema().Fields() {
		typ, err := dataTypeOf(f.Type)
		if err != nil {
			return fmt.Errorf("column %s: %w", f.Name, err)
		}
		fields = append(fields, &FieldSchema{Name: f.Name, Type: typ})
	}
	schema, err := newRowSchema(fields)
	if err != nil {
		return err
	}
	resp.schema = schema

	for reader.Next() {
		rec := reader.Record()
		cols := rec.Columns()
		for i := 0; i < int(rec.NumRows()); i++ {
			values := make([]Value, len(cols))
			for j, col := range cols {
				v, err := valueAt(col, i)
				if err != nil {
					return fmt.Errorf("column %s: %w", fields[j].Name, err)
				}
				values[j] = v
			}
			resp.rows = append(resp.rows, &Row{schema: schema, values: values})
		}
	}
	return reader.Err()
}

// valueAt copies cell i of arr out of Arrow memory.
func valueAt(arr arrow.Array, i int) (Value, error) {
	if arr.IsNull(i) {
		return Null{}, nil
	}
	switch a := arr.(type) {
	case *array.Null:
		return Null{}, nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return Timestamp(a.Value(i).ToTime(unit).UnixMilli()), nil
	case *array.Float64:
		return Double(a.Value(i)), nil
	case *array.Float32:
		return Float(a.Value(i)), nil
	case *array.Binary:
		return NewVarbinary(a.Value(i)), nil
	case *array.LargeBinary:
		return NewVarbinary(a.Value(i)), nil
	case *array.String:
		return String(strings.Clone(a.Value(i))), nil
	case *array.LargeString:
		return String(strings.Clone(a.Value(i))), nil
	case *array.Uint64:
		return UInt64(a.Value(i)), nil
	case *array.Uint32:
		return UInt32(a.Value(i)), nil
	case *array.Uint16:
		return UInt16(a.Value(i)), nil
	case *array.Uint8:
		return UInt8(a.Value(i)), nil
	case *array.Int64:
		return Int64(a.Value(i)), nil
	case *array.Int32:
		return Int32(a.Value(i)), nil
	case *array.Int16:
		return Int16(a.Value(i)), nil
	case *array.Int8:
		return Int8(a.Value(i)), nil
	case *array.Boolean:
		return Boolean(a.Value(i)), nil
	default:
		return nil, fmt.Errorf("unsupported arrow array %s", arr.DataType())
	}
}
