package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the process logger: JSON to stdout unless LOG_FORMAT=text,
// at the level named by LOG_LEVEL.
func New() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(formatter(os.Getenv("LOG_FORMAT")))
	l.SetLevel(Level(os.Getenv("LOG_LEVEL")))
	return l
}

func Level(v string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func formatter(v string) logrus.Formatter {
	if strings.EqualFold(strings.TrimSpace(v), "text") {
		return &logrus.TextFormatter{FullTimestamp: true}
	}
	return &logrus.JSONFormatter{}
}
