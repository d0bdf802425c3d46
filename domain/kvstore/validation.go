package kvstore

import (
	"github.com/distributeddata/kvstore/domain/model"
	"github.com/distributeddata/kvstore/domain/serialization"
)

func (s *Store) maxKeyLength() int {
	if s.options.KVStoreType == model.KVStoreTypeDeviceCollaboration {
		return model.MaxKeyLengthDevice
	}
	return model.MaxKeyLength
}

func (s *Store) validateKey(key string) error {
	if key == "" {
		return invalidArgument("empty key")
	}
	if len(key) > s.maxKeyLength() {
		return invalidArgument("key is %d bytes long, the maximum is %d", len(key), s.maxKeyLength())
	}
	return nil
}

func (s *Store) validatePrefix(prefix string) error {
	if len(prefix) > s.maxKeyLength() {
		return invalidArgument("key prefix is %d bytes long, the maximum is %d", len(prefix), s.maxKeyLength())
	}
	return nil
}

// serializeValue validates value and returns its serialized form.
func serializeValue(value *model.Value) ([]byte, error) {
	if value == nil {
		return nil, invalidArgument("nil value")
	}
	if !value.Type().IsValid() {
		return nil, invalidArgument("unknown value type %s", value.Type())
	}
	serialized, err := serialization.SerializeValue(value)
	if err != nil {
		return nil, err
	}
	if len(serialized) > model.MaxValueLength {
		return nil, invalidArgument("value is %d bytes long, the maximum is %d",
			len(serialized), model.MaxValueLength)
	}
	return serialized, nil
}

func validateBatchSize(size int) error {
	if size == 0 {
		return invalidArgument("empty batch")
	}
	if size > model.MaxBatchSize {
		return invalidArgument("batch has %d items, the maximum is %d", size, model.MaxBatchSize)
	}
	return nil
}
