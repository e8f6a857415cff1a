package formdoc

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// parseLevel maps a config log level to a logrus level. "off" is reported as
// valid with PanicLevel; NewLogger discards output for it.
func parseLevel(s string) (logrus.Level, bool) {
	switch strings.ToLower(s) {
	case "off":
		return logrus.PanicLevel, true
	case "warning":
		return logrus.WarnLevel, true
	}
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel, false
	}
	switch lvl {
	case logrus.DebugLevel, logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel:
		return lvl, true
	}
	return logrus.InfoLevel, false
}

// NewLogger returns a text logger writing to w at the given level. Unknown
// levels fall back to info; "off" discards everything.
func NewLogger(w io.Writer, level string) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	lvl, _ := parseLevel(level)
	logger.SetLevel(lvl)
	if strings.EqualFold(level, "off") {
		logger.SetOutput(io.Discard)
	}
	return logger
}

// NewJSONLogger is NewLogger with JSON output, used by the HTTP server.
func NewJSONLogger(w io.Writer, level string) *logrus.Logger {
	logger := NewLogger(w, level)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

// discardLogger is used when no logger is configured.
func discardLogger() *logrus.Logger {
	return NewLogger(io.Discard, "off")
}
