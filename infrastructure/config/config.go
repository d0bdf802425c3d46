package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/distributeddata/kvstore/infrastructure/logger"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultAppDirname     = ".kvstore"
	defaultConfigFilename = "kvstore.conf"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "kvstore.log"
	defaultErrLogFilename = "kvstore_err.log"
	defaultLogLevel       = "info"
	defaultBundleName     = "default"
	defaultLDBCacheSize   = 16
)

var (
	// DefaultAppDir is the default home directory of the tools.
	DefaultAppDir = defaultAppDir()

	knownBackends = []string{model.BackendLevelDB, model.BackendBoltDB, model.BackendMemDB}
)

func defaultAppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultAppDirname
	}
	return filepath.Join(homeDir, defaultAppDirname)
}

// Flags defines the configuration options shared by the tools.
type Flags struct {
	AppDir      string `short:"A" long:"appdir" description:"Directory holding the configuration file, data and logs"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	LogLevel    string `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Backend     string `long:"backend" description:"Database backend of new stores {ldb, boltdb, memdb}"`
	Encrypt     bool   `long:"encrypt" description:"Encrypt the values of new stores. The passphrase is read from the terminal"`
	BundleName  string `long:"bundle" description:"Name of the bundle owning the stores"`
	LDBCacheMiB int    `long:"ldbcachesize" description:"LevelDB cache size in MiB"`

	PrintMetrics bool `long:"printmetrics" description:"Print the collected metrics in the Prometheus text format on exit"`
}

// Config is the resolved configuration.
type Config struct {
	*Flags
	LogFile    string
	ErrLogFile string
}

// DefaultFlags returns the flags with every default filled in.
func DefaultFlags() *Flags {
	return &Flags{
		AppDir:      DefaultAppDir,
		LogLevel:    defaultLogLevel,
		Backend:     model.BackendLevelDB,
		BundleName:  defaultBundleName,
		LDBCacheMiB: defaultLDBCacheSize,
	}
}

// LoadConfigFile reads the ini configuration file named by the flags, if
// there is one, into the flags of parser. Options given on the command
// line take precedence, so the command line must be parsed again after.
func LoadConfigFile(parser *flags.Parser, cfgFlags *Flags) error {
	configFile := cfgFlags.ConfigFile
	explicit := configFile != ""
	if !explicit {
		configFile = filepath.Join(CleanAndExpandPath(cfgFlags.AppDir), defaultConfigFilename)
	}
	configFile = CleanAndExpandPath(configFile)

	err := flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		if _, ok := err.(*os.PathError); ok && !explicit {
			return nil
		}
		return errors.Wrapf(err, "error parsing config file %s", configFile)
	}
	return nil
}

// Resolve validates cfgFlags and derives the directories and log files
// from them.
func (cfgFlags *Flags) Resolve() (*Config, error) {
	if !validBackend(cfgFlags.Backend) {
		return nil, errors.Errorf("the specified backend [%s] is invalid -- "+
			"supported backends %s", cfgFlags.Backend, knownBackends)
	}
	if cfgFlags.BundleName == "" {
		return nil, errors.New("the bundle name cannot be empty")
	}
	if cfgFlags.LDBCacheMiB <= 0 {
		return nil, errors.Errorf("the LevelDB cache size must be positive, got %d", cfgFlags.LDBCacheMiB)
	}

	cfgFlags.AppDir = CleanAndExpandPath(cfgFlags.AppDir)
	if cfgFlags.DataDir == "" {
		cfgFlags.DataDir = filepath.Join(cfgFlags.AppDir, defaultDataDirname)
	}
	cfgFlags.DataDir = CleanAndExpandPath(cfgFlags.DataDir)
	if cfgFlags.LogDir == "" {
		cfgFlags.LogDir = filepath.Join(cfgFlags.AppDir, defaultLogDirname)
	}
	cfgFlags.LogDir = CleanAndExpandPath(cfgFlags.LogDir)

	return &Config{
		Flags:      cfgFlags,
		LogFile:    filepath.Join(cfgFlags.LogDir, defaultLogFilename),
		ErrLogFile: filepath.Join(cfgFlags.LogDir, defaultErrLogFilename),
	}, nil
}

// InitLogging starts the log backend and sets the log levels. The special
// level "show" lists the subsystems and exits.
func (cfg *Config) InitLogging() error {
	if cfg.LogLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	logger.InitLog(cfg.LogFile, cfg.ErrLogFile)
	err := logger.ParseAndSetLogLevels(cfg.LogLevel)
	if err != nil {
		return err
	}
	return nil
}

func validBackend(backend string) bool {
	for _, knownBackend := range knownBackends {
		if backend == knownBackend {
			return true
		}
	}
	return false
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func CleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = strings.Replace(path, "~", homeDir, 1)
		}
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
