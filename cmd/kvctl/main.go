package main

import (
	"fmt"
	"os"

	"github.com/distributeddata/kvstore/domain/encryption"
	"github.com/distributeddata/kvstore/domain/kvmanager"
	"github.com/distributeddata/kvstore/infrastructure/config"
	"github.com/distributeddata/kvstore/infrastructure/logger"
	"github.com/distributeddata/kvstore/infrastructure/metrics"
	"github.com/pkg/errors"
)

func main() {
	subCmd, cfg, commandConfig := parseCommandLine()

	err := cfg.InitLogging()
	if err != nil {
		printErrorAndExit(err)
	}
	defer logger.BackendLog.Close()

	manager, collector, err := newManager(cfg)
	if err != nil {
		printErrorAndExit(err)
	}

	err = runCommand(subCmd, cfg, manager, commandConfig)
	closeErr := manager.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		printErrorAndExit(err)
	}

	if cfg.PrintMetrics {
		err = printMetrics(os.Stdout, collector)
		if err != nil {
			printErrorAndExit(err)
		}
	}
}

func newManager(cfg *config.Config) (*kvmanager.KVManager, *metrics.Collector, error) {
	var rootKey []byte
	if cfg.Encrypt {
		passphrase, err := getPassphrase("Passphrase: ")
		if err != nil {
			return nil, nil, err
		}
		rootKey, err = encryption.DeriveRootKey(passphrase, cfg.BundleName)
		if err != nil {
			return nil, nil, err
		}
	}

	collector := metrics.NewCollector("")
	manager, err := kvmanager.NewKVManager(&kvmanager.Config{
		BundleName:          cfg.BundleName,
		DataDir:             cfg.DataDir,
		RootKey:             rootKey,
		Metrics:             collector,
		LevelDBCacheSizeMiB: cfg.LDBCacheMiB,
	})
	if err != nil {
		return nil, nil, err
	}
	return manager, collector, nil
}

func runCommand(subCmd string, cfg *config.Config, manager *kvmanager.KVManager, commandConfig interface{}) error {
	switch subCmd {
	case putSubCmd:
		return put(cfg, manager, commandConfig.(*putConfig))
	case getSubCmd:
		return get(cfg, manager, commandConfig.(*getConfig))
	case deleteSubCmd:
		return deleteKey(cfg, manager, commandConfig.(*deleteConfig))
	case scanSubCmd:
		return scan(cfg, manager, commandConfig.(*scanConfig))
	case countSubCmd:
		return count(cfg, manager, commandConfig.(*countConfig))
	case storesSubCmd:
		return stores(cfg, manager)
	}
	return errors.Errorf("Unknown sub-command '%s'", subCmd)
}

func printErrorAndExit(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}
