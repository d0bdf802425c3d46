package main

import (
	"os"

	"github.com/distributeddata/kvstore/infrastructure/config"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	putSubCmd    = "put"
	getSubCmd    = "get"
	deleteSubCmd = "delete"
	scanSubCmd   = "scan"
	countSubCmd  = "count"
	storesSubCmd = "stores"

	defaultStoreID = "default"
)

type storeFlags struct {
	StoreID string `short:"s" long:"store" description:"ID of the store to use"`
}

type putConfig struct {
	storeFlags
	ValueType string `short:"t" long:"type" description:"Type of the value {string, integer, float, double, bytearray, boolean}. Byte arrays are given in hex"`
	Args      struct {
		Key   string `positional-arg-name:"KEY"`
		Value string `positional-arg-name:"VALUE"`
	} `positional-args:"yes" required:"yes"`
}

type getConfig struct {
	storeFlags
	Args struct {
		Key string `positional-arg-name:"KEY"`
	} `positional-args:"yes" required:"yes"`
}

type deleteConfig struct {
	storeFlags
	Args struct {
		Key string `positional-arg-name:"KEY"`
	} `positional-args:"yes" required:"yes"`
}

type scanConfig struct {
	storeFlags
	Limit int `short:"n" long:"limit" description:"Maximum number of entries to print. Negative means unlimited"`
	Args  struct {
		Prefix string `positional-arg-name:"PREFIX"`
	} `positional-args:"yes"`
}

type countConfig struct {
	storeFlags
	Args struct {
		Prefix string `positional-arg-name:"PREFIX"`
	} `positional-args:"yes"`
}

type storesConfig struct{}

func parseCommandLine() (subCommand string, cfg *config.Config, commandConfig interface{}) {
	cfgFlags := config.DefaultFlags()
	parser := flags.NewParser(cfgFlags, flags.PrintErrors|flags.HelpFlag)
	parser.Usage = "kvctl [OPTIONS] COMMAND [COMMAND OPTIONS] [ARGUMENTS]"

	putConf := &putConfig{storeFlags: storeFlags{StoreID: defaultStoreID}, ValueType: "string"}
	parser.AddCommand(putSubCmd, "Sets the value of a key",
		"Sets the value of a key, creating the store if it is missing", putConf)

	getConf := &getConfig{storeFlags: storeFlags{StoreID: defaultStoreID}}
	parser.AddCommand(getSubCmd, "Prints the value of a key", "Prints the value of a key", getConf)

	deleteConf := &deleteConfig{storeFlags: storeFlags{StoreID: defaultStoreID}}
	parser.AddCommand(deleteSubCmd, "Deletes a key", "Deletes a key", deleteConf)

	scanConf := &scanConfig{storeFlags: storeFlags{StoreID: defaultStoreID}, Limit: -1}
	parser.AddCommand(scanSubCmd, "Prints the entries whose key starts with a prefix",
		"Prints the entries whose key starts with PREFIX, in key order. "+
			"Without a prefix every entry is printed", scanConf)

	countConf := &countConfig{storeFlags: storeFlags{StoreID: defaultStoreID}}
	parser.AddCommand(countSubCmd, "Counts the entries whose key starts with a prefix",
		"Counts the entries whose key starts with PREFIX", countConf)

	storesConf := &storesConfig{}
	parser.AddCommand(storesSubCmd, "Lists the stores of the bundle", "Lists the stores of the bundle", storesConf)

	_, err := parser.Parse()
	if err == nil {
		// Options given on the command line override the config file
		err = config.LoadConfigFile(parser, cfgFlags)
		if err == nil {
			_, err = parser.Parse()
		}
	}
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		printErrorAndExit(err)
	}

	cfg, err = cfgFlags.Resolve()
	if err != nil {
		printErrorAndExit(err)
	}

	switch parser.Command.Active.Name {
	case putSubCmd:
		commandConfig = putConf
	case getSubCmd:
		commandConfig = getConf
	case deleteSubCmd:
		commandConfig = deleteConf
	case scanSubCmd:
		commandConfig = scanConf
	case countSubCmd:
		commandConfig = countConf
	case storesSubCmd:
		commandConfig = storesConf
	}

	return parser.Command.Active.Name, cfg, commandConfig
}
