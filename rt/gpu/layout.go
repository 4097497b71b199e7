package gpu

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"strconv"

	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
)

var ErrUnsupportedFormat = eris.New("unsupported format")

var ErrLayoutMismatch = eris.New("vertex layout does not match its struct")

// ParseVertexFormat maps a layout tag format name to a vertex format.
func ParseVertexFormat(name string) (gputypes.VertexFormat, error) {
	switch name {
	case "float", "float32":
		return gputypes.VertexFormatFloat32, nil
	case "float2", "float32x2":
		return gputypes.VertexFormatFloat32x2, nil
	case "float3", "float32x3":
		return gputypes.VertexFormatFloat32x3, nil
	case "float4", "float32x4":
		return gputypes.VertexFormatFloat32x4, nil
	case "uint", "uint32":
		return gputypes.VertexFormatUint32, nil
	default:
		return 0, eris.Wrapf(ErrUnsupportedFormat, "vertex format %q", name)
	}
}

// VertexLayoutOf builds a vertex buffer layout from the fields of a struct
// tagged `gpu:"layout" location:"N" format:"float3"`. Offsets are the real
// field offsets and the stride is the struct size, so padding is honored.
func VertexLayoutOf(v any, step gputypes.VertexStepMode) (gputypes.VertexBufferLayout, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return gputypes.VertexBufferLayout{}, eris.New("vertex type is nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return gputypes.VertexBufferLayout{}, eris.Errorf("vertex type %s is not a struct", t)
	}

	var attributes []gputypes.VertexAttribute
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("gpu") != "layout" {
			continue
		}
		format, err := ParseVertexFormat(field.Tag.Get("format"))
		if err != nil {
			return gputypes.VertexBufferLayout{}, eris.Wrapf(err, "field %s.%s", t.Name(), field.Name)
		}
		location, err := strconv.ParseUint(field.Tag.Get("location"), 10, 32)
		if err != nil {
			return gputypes.VertexBufferLayout{}, eris.Wrapf(err, "field %s.%s location", t.Name(), field.Name)
		}
		if format.Size() != uint64(field.Type.Size()) {
			return gputypes.VertexBufferLayout{}, eris.Wrapf(ErrLayoutMismatch,
				"field %s.%s is %d bytes, format %s is %d", t.Name(), field.Name, field.Type.Size(), format, format.Size())
		}
		attributes = append(attributes, gputypes.VertexAttribute{
			ShaderLocation: uint32(location),
			Offset:         uint64(field.Offset),
			Format:         format,
		})
	}

	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(t.Size()),
		StepMode:    step,
		Attributes:  attributes,
	}, nil
}

// MustVertexLayoutOf is VertexLayoutOf for static vertex types.
func MustVertexLayoutOf(v any, step gputypes.VertexStepMode) gputypes.VertexBufferLayout {
	layout, err := VertexLayoutOf(v, step)
	if err != nil {
		panic(err)
	}
	return layout
}

// CheckVertexLayout verifies a declared layout against the Go struct it
// describes: same stride, and every attribute lands on a tagged field with
// the same offset, size and location.
func CheckVertexLayout(layout gputypes.VertexBufferLayout, v any) error {
	want, err := VertexLayoutOf(v, layout.StepMode)
	if err != nil {
		return err
	}
	if want.ArrayStride != layout.ArrayStride {
		return eris.Wrapf(ErrLayoutMismatch, "stride %d, struct size %d", layout.ArrayStride, want.ArrayStride)
	}
	if len(want.Attributes) != len(layout.Attributes) {
		return eris.Wrapf(ErrLayoutMismatch, "%d attributes declared, struct has %d", len(layout.Attributes), len(want.Attributes))
	}
	for i, attr := range layout.Attributes {
		w := want.Attributes[i]
		if attr != w {
			return eris.Wrapf(ErrLayoutMismatch,
				"attribute %d: location %d offset %d %s, struct has location %d offset %d %s",
				i, attr.ShaderLocation, attr.Offset, attr.Format, w.ShaderLocation, w.Offset, w.Format)
		}
	}
	return nil
}

// ToBytes packs a uniform value into little endian bytes, field by field.
func ToBytes(data any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := writeUniformBytes(reflect.ValueOf(data), buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeUniformBytes(field reflect.Value, buf *bytes.Buffer) error {
	switch field.Kind() {
	case reflect.Ptr:
		if field.IsNil() {
			return eris.New("nil pointer in uniform data")
		}
		return writeUniformBytes(field.Elem(), buf)

	case reflect.Slice, reflect.Array:
		for i := 0; i < field.Len(); i++ {
			if err := writeUniformBytes(field.Index(i), buf); err != nil {
				return err
			}
		}

	case reflect.Struct:
		for i := 0; i < field.NumField(); i++ {
			if err := writeUniformBytes(field.Field(i), buf); err != nil {
				return eris.Wrapf(err, "field %s", field.Type().Field(i).Name)
			}
		}

	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Float32, reflect.Float64:
		if err := binary.Write(buf, binary.LittleEndian, field.Interface()); err != nil {
			return eris.Wrap(err, "failed to write scalar")
		}

	default:
		return eris.Errorf("unsupported uniform type: %s", field.Type())
	}
	return nil
}
