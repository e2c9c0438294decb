// internal/infra/logger/logger.go
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"vaccination_tracker/internal/infra/config"
)

const appName = "vaccination_tracker"

// Log is the global logger instance
var Log = logrus.New()

// Init configures Log from cfg. Calling it again replaces the previous setup.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(formatterFor(cfg.Environment))

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	Log.ReplaceHooks(make(logrus.LevelHooks))
	Log.AddHook(&staticFieldsHook{fields: logrus.Fields{
		"app": appName,
		"env": cfg.Environment,
	}})

	if err != nil {
		Log.WithField("requested", cfg.LogLevel).Warn("Unknown log level, using info")
	}
	Log.WithField("level", level.String()).Info("Logger initialized")
}

// WithComponent returns an entry tagged with the component name, the way services log.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// formatterFor picks JSON for log shippers in deployed environments and text elsewhere.
func formatterFor(env string) logrus.Formatter {
	switch strings.ToLower(env) {
	case "production", "staging":
		return &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
	default:
		return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"}
	}
}

// staticFieldsHook stamps fixed fields on every entry without overriding ones set by the caller.
type staticFieldsHook struct {
	fields logrus.Fields
}

func (h *staticFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *staticFieldsHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}
