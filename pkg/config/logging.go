package config

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// SetupLogging configures the standard logrus logger and, when LogErrorFile is set, tees
// error-level entries into that file. The returned func closes the file.
func SetupLogging(c Config) (func(), error) {
	switch c.LogFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch c.LogLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	if c.LogErrorFile == "" {
		return func() {}, nil
	}
	f, err := os.OpenFile(c.LogErrorFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return func() {}, fmt.Errorf("open error log: %w", err)
	}
	logrus.AddHook(NewErrorFileHook(f))
	return func() { _ = f.Close() }, nil
}

// ErrorFileHook writes error, fatal and panic entries to w in text form.
type ErrorFileHook struct {
	w         io.Writer
	formatter logrus.Formatter
}

func NewErrorFileHook(w io.Writer) *ErrorFileHook {
	return &ErrorFileHook{
		w:         w,
		formatter: &logrus.TextFormatter{FullTimestamp: true, DisableColors: true},
	}
}

func (h *ErrorFileHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *ErrorFileHook) Fire(e *logrus.Entry) error {
	line, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}
