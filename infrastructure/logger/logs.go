package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// BackendLog is the logging backend used to create all subsystem loggers.
var BackendLog = NewBackend()

var (
	subsystemLoggersLock sync.Mutex
	subsystemLoggers     = make(map[string]*Logger)
)

// RegisterSubSystem returns the logger of the given subsystem tag, creating
// it on first use. Every package declares its logger in a log.go file:
//
//	var log = logger.RegisterSubSystem("KVST")
func RegisterSubSystem(subsystem string) *Logger {
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()

	logger, exists := subsystemLoggers[subsystem]
	if !exists {
		logger = BackendLog.Logger(subsystem)
		subsystemLoggers[subsystem] = logger
	}
	return logger
}

// InitLog attaches log file and error log file to the backend log and
// starts it. When logFile is empty the backend writes to stderr only.
func InitLog(logFile, errLogFile string) {
	var err error
	if logFile == "" {
		err = BackendLog.AddStderrWriter(LevelInfo)
	} else {
		err = BackendLog.AddLogFile(logFile, LevelTrace)
		if err == nil {
			err = BackendLog.AddLogFile(errLogFile, LevelWarn)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing log backend: %s\n", err)
		os.Exit(1)
	}

	err = BackendLog.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting the logger: %s\n", err)
		os.Exit(1)
	}
}

// SupportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func SupportedSubsystems() []string {
	subsystemLoggersLock.Lock()
	defer subsystemLoggersLock.Unlock()

	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// SetLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored.
func SetLogLevel(subsystemID string, logLevel string) {
	subsystemLoggersLock.Lock()
	logger, ok := subsystemLoggers[subsystemID]
	subsystemLoggersLock.Unlock()
	if !ok {
		return
	}

	level, _ := LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for all subsystem loggers to the passed
// level.
func SetLogLevels(logLevel string) {
	for _, subsystemID := range SupportedSubsystems() {
		SetLogLevel(subsystemID, logLevel)
	}
}

// ParseAndSetLogLevels attempts to parse the specified log level and
// sets the levels accordingly. An appropriate error is returned if anything is
// invalid.
//
// The level is either a single level for every subsystem, e.g. "debug",
// or a comma separated list of subsystem=level pairs, e.g.
// "KVST=trace,LDB=info".
func ParseAndSetLogLevels(logLevel string) error {
	if !strings.Contains(logLevel, ",") && !strings.Contains(logLevel, "=") {
		if _, ok := LevelFromString(logLevel); !ok {
			return errors.Errorf("the specified log level [%s] is invalid", logLevel)
		}
		SetLogLevels(logLevel)
		return nil
	}

	for _, logLevelPair := range strings.Split(logLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			return errors.Errorf("the specified log level contains an "+
				"invalid subsystem/level pair [%s]", logLevelPair)
		}

		fields := strings.Split(logLevelPair, "=")
		subsysID, levelStr := fields[0], fields[1]

		subsystemLoggersLock.Lock()
		_, exists := subsystemLoggers[subsysID]
		subsystemLoggersLock.Unlock()
		if !exists {
			return errors.Errorf("the specified subsystem [%s] is invalid -- "+
				"supported subsystems %s", subsysID, SupportedSubsystems())
		}

		if _, ok := LevelFromString(levelStr); !ok {
			return errors.Errorf("the specified log level [%s] is invalid", levelStr)
		}

		SetLogLevel(subsysID, levelStr)
	}
	return nil
}
