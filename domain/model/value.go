package model

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

// ValueType is the type tag of a Value.
type ValueType uint8

// Value types. The numeric values are part of the on-disk format.
const (
	ValueTypeString    ValueType = 0
	ValueTypeInteger   ValueType = 1
	ValueTypeFloat     ValueType = 2
	ValueTypeByteArray ValueType = 3
	ValueTypeBoolean   ValueType = 4
	ValueTypeDouble    ValueType = 5
)

var valueTypeStrings = map[ValueType]string{
	ValueTypeString:    "STRING",
	ValueTypeInteger:   "INTEGER",
	ValueTypeFloat:     "FLOAT",
	ValueTypeByteArray: "BYTE_ARRAY",
	ValueTypeBoolean:   "BOOLEAN",
	ValueTypeDouble:    "DOUBLE",
}

func (vt ValueType) String() string {
	if s, ok := valueTypeStrings[vt]; ok {
		return s
	}
	return fmt.Sprintf("ValueType(%d)", uint8(vt))
}

// IsValid returns whether vt is one of the known value types.
func (vt ValueType) IsValid() bool {
	_, ok := valueTypeStrings[vt]
	return ok
}

// ErrValueType is returned by the typed accessors of Value when the value
// holds a different type.
var ErrValueType = errors.New("value type mismatch")

// Value is an immutable tagged union of the supported value types.
type Value struct {
	valueType ValueType

	stringValue  string
	integerValue int32
	floatValue   float32
	doubleValue  float64
	bytesValue   []byte
	booleanValue bool
}

// NewStringValue returns a STRING value.
func NewStringValue(s string) *Value {
	return &Value{valueType: ValueTypeString, stringValue: s}
}

// NewIntegerValue returns an INTEGER value.
func NewIntegerValue(i int32) *Value {
	return &Value{valueType: ValueTypeInteger, integerValue: i}
}

// NewFloatValue returns a FLOAT value.
func NewFloatValue(f float32) *Value {
	return &Value{valueType: ValueTypeFloat, floatValue: f}
}

// NewDoubleValue returns a DOUBLE value.
func NewDoubleValue(d float64) *Value {
	return &Value{valueType: ValueTypeDouble, doubleValue: d}
}

// NewByteArrayValue returns a BYTE_ARRAY value holding a copy of b.
func NewByteArrayValue(b []byte) *Value {
	bCopy := make([]byte, len(b))
	copy(bCopy, b)
	return &Value{valueType: ValueTypeByteArray, bytesValue: bCopy}
}

// NewBooleanValue returns a BOOLEAN value.
func NewBooleanValue(b bool) *Value {
	return &Value{valueType: ValueTypeBoolean, booleanValue: b}
}

// Type returns the type tag of the value.
func (v *Value) Type() ValueType {
	return v.valueType
}

func (v *Value) typeMismatch(requested ValueType) error {
	return errors.Wrapf(ErrValueType, "requested %s from a %s value", requested, v.valueType)
}

// String returns the payload of a STRING value.
func (v *Value) String() (string, error) {
	if v.valueType != ValueTypeString {
		return "", v.typeMismatch(ValueTypeString)
	}
	return v.stringValue, nil
}

// Integer returns the payload of an INTEGER value.
func (v *Value) Integer() (int32, error) {
	if v.valueType != ValueTypeInteger {
		return 0, v.typeMismatch(ValueTypeInteger)
	}
	return v.integerValue, nil
}

// Float returns the payload of a FLOAT value.
func (v *Value) Float() (float32, error) {
	if v.valueType != ValueTypeFloat {
		return 0, v.typeMismatch(ValueTypeFloat)
	}
	return v.floatValue, nil
}

// Double returns the payload of a DOUBLE value.
func (v *Value) Double() (float64, error) {
	if v.valueType != ValueTypeDouble {
		return 0, v.typeMismatch(ValueTypeDouble)
	}
	return v.doubleValue, nil
}

// ByteArray returns the payload of a BYTE_ARRAY value. The caller must not
// modify the returned slice.
func (v *Value) ByteArray() ([]byte, error) {
	if v.valueType != ValueTypeByteArray {
		return nil, v.typeMismatch(ValueTypeByteArray)
	}
	return v.bytesValue, nil
}

// Boolean returns the payload of a BOOLEAN value.
func (v *Value) Boolean() (bool, error) {
	if v.valueType != ValueTypeBoolean {
		return false, v.typeMismatch(ValueTypeBoolean)
	}
	return v.booleanValue, nil
}

// Equal returns whether v and other have the same type and payload.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.valueType != other.valueType {
		return false
	}
	switch v.valueType {
	case ValueTypeString:
		return v.stringValue == other.stringValue
	case ValueTypeInteger:
		return v.integerValue == other.integerValue
	case ValueTypeFloat:
		return v.floatValue == other.floatValue
	case ValueTypeDouble:
		return v.doubleValue == other.doubleValue
	case ValueTypeByteArray:
		return bytes.Equal(v.bytesValue, other.bytesValue)
	case ValueTypeBoolean:
		return v.booleanValue == other.booleanValue
	}
	return false
}

// Format renders the payload for humans, e.g. in kvctl output.
func (v *Value) Format() string {
	switch v.valueType {
	case ValueTypeString:
		return v.stringValue
	case ValueTypeInteger:
		return fmt.Sprintf("%d", v.integerValue)
	case ValueTypeFloat:
		return fmt.Sprintf("%g", v.floatValue)
	case ValueTypeDouble:
		return fmt.Sprintf("%g", v.doubleValue)
	case ValueTypeByteArray:
		return fmt.Sprintf("%x", v.bytesValue)
	case ValueTypeBoolean:
		return fmt.Sprintf("%t", v.booleanValue)
	}
	return fmt.Sprintf("<%s>", v.valueType)
}
