package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/distributeddata/kvstore/domain/kvmanager"
	"github.com/distributeddata/kvstore/domain/kvstore"
	"github.com/distributeddata/kvstore/domain/model"
	"github.com/distributeddata/kvstore/domain/query"
	"github.com/distributeddata/kvstore/infrastructure/config"
	"github.com/pkg/errors"
)

func storeOptions(cfg *config.Config, createIfMissing bool) *model.Options {
	options := model.DefaultOptions()
	options.CreateIfMissing = createIfMissing
	options.Encrypt = cfg.Encrypt
	options.Backend = cfg.Backend
	return options
}

func openStore(cfg *config.Config, manager *kvmanager.KVManager, storeID string, createIfMissing bool) (*kvstore.Store, error) {
	return manager.GetKVStore(storeID, storeOptions(cfg, createIfMissing))
}

// parseValue parses raw as a value of the named type.
func parseValue(valueType string, raw string) (*model.Value, error) {
	switch valueType {
	case "string":
		return model.NewStringValue(raw), nil
	case "integer":
		i, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid integer %s", raw)
		}
		return model.NewIntegerValue(int32(i)), nil
	case "float":
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid float %s", raw)
		}
		return model.NewFloatValue(float32(f)), nil
	case "double":
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid double %s", raw)
		}
		return model.NewDoubleValue(d), nil
	case "bytearray":
		b, err := hex.DecodeString(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid hex byte array %s", raw)
		}
		return model.NewByteArrayValue(b), nil
	case "boolean":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid boolean %s", raw)
		}
		return model.NewBooleanValue(b), nil
	}
	return nil, errors.Errorf("unknown value type %s", valueType)
}

func formatEntry(entry *model.Entry) string {
	return fmt.Sprintf("%s\t%s\t%s", entry.Key, entry.Value.Type(), entry.Value.Format())
}

func put(cfg *config.Config, manager *kvmanager.KVManager, conf *putConfig) error {
	value, err := parseValue(conf.ValueType, conf.Args.Value)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, manager, conf.StoreID, true)
	if err != nil {
		return err
	}
	return store.Put(conf.Args.Key, value)
}

func get(cfg *config.Config, manager *kvmanager.KVManager, conf *getConfig) error {
	store, err := openStore(cfg, manager, conf.StoreID, false)
	if err != nil {
		return err
	}
	value, err := store.Get(conf.Args.Key)
	if err != nil {
		return err
	}
	fmt.Println(value.Format())
	return nil
}

func deleteKey(cfg *config.Config, manager *kvmanager.KVManager, conf *deleteConfig) error {
	store, err := openStore(cfg, manager, conf.StoreID, false)
	if err != nil {
		return err
	}
	return store.Delete(conf.Args.Key)
}

func scan(cfg *config.Config, manager *kvmanager.KVManager, conf *scanConfig) error {
	store, err := openStore(cfg, manager, conf.StoreID, false)
	if err != nil {
		return err
	}
	rs, err := store.GetResultSetByQuery(query.New().PrefixKey(conf.Args.Prefix).Limit(conf.Limit, 0))
	if err != nil {
		return err
	}
	defer rs.Close()

	ok, err := rs.MoveToFirst()
	for ; ok; ok, err = rs.MoveToNext() {
		entry, err := rs.Entry()
		if err != nil {
			return err
		}
		fmt.Println(formatEntry(entry))
	}
	return err
}

func count(cfg *config.Config, manager *kvmanager.KVManager, conf *countConfig) error {
	store, err := openStore(cfg, manager, conf.StoreID, false)
	if err != nil {
		return err
	}
	size, err := store.GetResultSize(query.New().PrefixKey(conf.Args.Prefix))
	if err != nil {
		return err
	}
	fmt.Println(size)
	return nil
}

func stores(cfg *config.Config, manager *kvmanager.KVManager) error {
	storeIDs, err := manager.GetAllKVStoreIDs(cfg.BundleName)
	if err != nil {
		return err
	}
	for _, storeID := range storeIDs {
		fmt.Println(storeID)
	}
	return nil
}
