package serialization

import (
	"bytes"
	"math"
	"testing"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/pkg/errors"
)

func TestSerializeValueLayout(t *testing.T) {
	tests := []struct {
		name     string
		value    *model.Value
		expected []byte
	}{
		{
			name:     "string",
			value:    model.NewStringValue("hi"),
			expected: []byte{0, 'h', 'i'},
		},
		{
			name:     "empty string",
			value:    model.NewStringValue(""),
			expected: []byte{0},
		},
		{
			name:     "integer",
			value:    model.NewIntegerValue(-2),
			expected: []byte{1, 0xfe, 0xff, 0xff, 0xff},
		},
		{
			name:     "float",
			value:    model.NewFloatValue(1),
			expected: []byte{2, 0x00, 0x00, 0x80, 0x3f},
		},
		{
			name:     "byte array",
			value:    model.NewByteArrayValue([]byte{9, 8}),
			expected: []byte{3, 9, 8},
		},
		{
			name:     "boolean",
			value:    model.NewBooleanValue(true),
			expected: []byte{4, 1},
		},
		{
			name:     "double",
			value:    model.NewDoubleValue(math.Inf(1)),
			expected: []byte{5, 0, 0, 0, 0, 0, 0, 0xf0, 0x7f},
		},
	}

	for _, test := range tests {
		serialized, err := SerializeValue(test.value)
		if err != nil {
			t.Fatalf("TestSerializeValueLayout: %s: SerializeValue "+
				"unexpectedly failed: %s", test.name, err)
		}
		if !bytes.Equal(serialized, test.expected) {
			t.Fatalf("TestSerializeValueLayout: %s: wrong bytes. "+
				"Want: %x, got: %x", test.name, test.expected, serialized)
		}
		deserialized, err := DeserializeValue(serialized)
		if err != nil {
			t.Fatalf("TestSerializeValueLayout: %s: DeserializeValue "+
				"unexpectedly failed: %s", test.name, err)
		}
		if !deserialized.Equal(test.value) {
			t.Fatalf("TestSerializeValueLayout: %s: decoded value "+
				"differs: %s", test.name, deserialized.Format())
		}
	}
}

func TestDeserializeMalformedValue(t *testing.T) {
	tests := []struct {
		name       string
		serialized []byte
	}{
		{name: "empty", serialized: []byte{}},
		{name: "unknown tag", serialized: []byte{42, 1}},
		{name: "short integer", serialized: []byte{1, 1, 2}},
		{name: "short double", serialized: []byte{5, 1, 2, 3, 4}},
		{name: "long boolean", serialized: []byte{4, 1, 1}},
		{name: "invalid boolean", serialized: []byte{4, 2}},
	}
	for _, test := range tests {
		_, err := DeserializeValue(test.serialized)
		if !errors.Is(err, ErrMalformedValue) {
			t.Fatalf("TestDeserializeMalformedValue: %s: want "+
				"ErrMalformedValue, got: %v", test.name, err)
		}
	}
}
