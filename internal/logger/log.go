// Package logger provides the shared logrus instance for the automation
// toolkit. Level and format come from the HOUND_LOG and HOUND_LOG_FORMAT
// environment variables and can be overridden at runtime by the CLI.
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	log  *Logger
	once sync.Once
)

// Logger wraps logrus so call sites share one configured instance.
type Logger struct {
	*logrus.Logger
}

// Init configures the singleton. Defaults to info-level text output on
// stderr so driver progress is visible without any configuration.
func Init() {
	once.Do(func() {
		log = &Logger{Logger: logrus.New()}
		log.SetOutput(os.Stderr)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.InfoLevel)
		if lvl := os.Getenv("HOUND_LOG"); lvl != "" {
			log.SetLevel(parseLevel(lvl))
		}
		if strings.EqualFold(os.Getenv("HOUND_LOG_FORMAT"), "json") {
			log.SetFormatter(&logrus.JSONFormatter{})
		}
	})
}

// Get returns the initialized Logger.
func Get() *Logger {
	if log == nil {
		Init()
	}
	return log
}

// SetLevel reconfigures the singleton level from a string, for flag wiring.
func SetLevel(level string) {
	Get().SetLevel(parseLevel(level))
}

func parseLevel(s string) logrus.Level {
	switch strings.ToLower(s) {
	case "trace", "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "quiet", "off":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func init() {
	Init()
}
