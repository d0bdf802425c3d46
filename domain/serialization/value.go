package serialization

import (
	"bytes"
	"io"
	"math"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/distributeddata/kvstore/util/binaryserializer"
	"github.com/pkg/errors"
)

// ErrMalformedValue is returned when stored bytes cannot be decoded into a
// value.
var ErrMalformedValue = errors.New("malformed serialized value")

// SerializeValue encodes value as a type-tag byte followed by its payload.
// Numbers are little-endian, FLOAT and DOUBLE as their IEEE-754 bits,
// BOOLEAN as a single byte. STRING and BYTE_ARRAY payloads are written raw.
func SerializeValue(value *model.Value) ([]byte, error) {
	if value == nil {
		return nil, errors.New("cannot serialize a nil value")
	}

	w := &bytes.Buffer{}
	err := binaryserializer.PutUint8(w, uint8(value.Type()))
	if err != nil {
		return nil, err
	}

	switch value.Type() {
	case model.ValueTypeString:
		s, _ := value.String()
		w.WriteString(s)
	case model.ValueTypeByteArray:
		b, _ := value.ByteArray()
		w.Write(b)
	case model.ValueTypeInteger:
		i, _ := value.Integer()
		err = binaryserializer.PutUint32(w, uint32(i))
	case model.ValueTypeFloat:
		f, _ := value.Float()
		err = binaryserializer.PutUint32(w, math.Float32bits(f))
	case model.ValueTypeDouble:
		d, _ := value.Double()
		err = binaryserializer.PutUint64(w, math.Float64bits(d))
	case model.ValueTypeBoolean:
		b, _ := value.Boolean()
		var flag uint8
		if b {
			flag = 1
		}
		err = binaryserializer.PutUint8(w, flag)
	default:
		return nil, errors.Errorf("cannot serialize a value of unknown type %s", value.Type())
	}
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DeserializeValue decodes bytes written by SerializeValue.
func DeserializeValue(serialized []byte) (*model.Value, error) {
	r := bytes.NewReader(serialized)
	tag, err := binaryserializer.Uint8(r)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedValue, "missing type tag")
	}

	valueType := model.ValueType(tag)
	payload := serialized[1:]
	var value *model.Value
	switch valueType {
	case model.ValueTypeString:
		value = model.NewStringValue(string(payload))
	case model.ValueTypeByteArray:
		value = model.NewByteArrayValue(payload)
	case model.ValueTypeInteger:
		var i uint32
		i, err = binaryserializer.Uint32(r)
		value = model.NewIntegerValue(int32(i))
	case model.ValueTypeFloat:
		var bits uint32
		bits, err = binaryserializer.Uint32(r)
		value = model.NewFloatValue(math.Float32frombits(bits))
	case model.ValueTypeDouble:
		var bits uint64
		bits, err = binaryserializer.Uint64(r)
		value = model.NewDoubleValue(math.Float64frombits(bits))
	case model.ValueTypeBoolean:
		var flag uint8
		flag, err = binaryserializer.Uint8(r)
		if err == nil && flag > 1 {
			return nil, errors.Wrapf(ErrMalformedValue, "invalid boolean byte %d", flag)
		}
		value = model.NewBooleanValue(flag == 1)
	default:
		return nil, errors.Wrapf(ErrMalformedValue, "unknown type tag %d", tag)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedValue, "short %s payload: %s", valueType, err)
	}

	if valueType != model.ValueTypeString && valueType != model.ValueTypeByteArray {
		if _, err := r.ReadByte(); err != io.EOF {
			return nil, errors.Wrapf(ErrMalformedValue, "trailing bytes after a %s payload", valueType)
		}
	}
	return value, nil
}
