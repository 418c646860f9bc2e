package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// logWriter outputs to standard output and, once initialized, to the log
// rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator == nil {
		return len(p), nil
	}
	return logRotator.Write(p)
}

var (
	// backendLog is the logging backend used to create all subsystem loggers.
	backendLog = slog.NewBackend(logWriter{})

	// logRotator is nil until InitLogRotator is called.
	logRotator *rotator.Rotator

	subsystemLoggers = map[string]slog.Logger{}
)

// Subsystem identifiers.
const (
	SubsysHTTP     = "HTTP"
	SubsysJobs     = "JOBS"
	SubsysMatching = "MTCH"
	SubsysCheckout = "CHKT"
	SubsysUser     = "USER"
	SubsysVault    = "VALT"
	SubsysAlerts   = "ALRT"
	SubsysFeed     = "FEED"
	SubsysStore    = "STOR"
	SubsysWorker   = "WRKR"
)

// Logger returns the logger for a subsystem, creating it if needed.
func Logger(subsystemID string) slog.Logger {
	if l, ok := subsystemLoggers[subsystemID]; ok {
		return l
	}
	l := backendLog.Logger(subsystemID)
	l.SetLevel(slog.LevelInfo)
	subsystemLoggers[subsystemID] = l
	return l
}

// InitLogRotator writes logs to logFile as well as stdout, rolling files in
// the same directory.
func InitLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	logRotator = r
	return nil
}

// Close flushes and closes the rotator.
func Close() {
	if logRotator != nil {
		logRotator.Close()
	}
}

// SetLogLevel sets the level for one subsystem. Invalid levels default to
// info.
func SetLogLevel(subsystemID, logLevel string) {
	level, _ := slog.LevelFromString(logLevel)
	Logger(subsystemID).SetLevel(level)
}

// SetLogLevels sets every known subsystem to logLevel.
func SetLogLevels(logLevel string) {
	for id := range subsystemLoggers {
		SetLogLevel(id, logLevel)
	}
}

// Subsystems returns the sorted list of registered subsystems.
func Subsystems() []string {
	ids := make([]string, 0, len(subsystemLoggers))
	for id := range subsystemLoggers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func validLevel(level string) bool {
	_, ok := slog.LevelFromString(level)
	return ok
}

// ParseAndSetDebugLevels accepts either a single level applied to every
// subsystem or a comma separated list of SUBSYS=level pairs.
func ParseAndSetDebugLevels(debugLevel string) error {
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if !validLevel(debugLevel) {
			return fmt.Errorf("the specified debug level [%v] is invalid", debugLevel)
		}
		SetLogLevels(debugLevel)
		return nil
	}

	for _, pair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(pair, "=") {
			return fmt.Errorf("the specified debug level contains an invalid subsystem/level pair [%v]", pair)
		}
		fields := strings.Split(pair, "=")
		subsysID, level := fields[0], fields[1]
		if _, ok := subsystemLoggers[subsysID]; !ok {
			return fmt.Errorf("the specified subsystem [%v] is invalid -- supported subsystems %v",
				subsysID, Subsystems())
		}
		if !validLevel(level) {
			return fmt.Errorf("the specified debug level [%v] is invalid", level)
		}
		SetLogLevel(subsysID, level)
	}
	return nil
}
