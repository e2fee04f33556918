// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Params struct {
	Level      string
	File       string
	JSON       bool
	AlsoStdout bool
}

// Setup applies the level, formatter and output of params to the standard logger.
// Without a file, logs go to stdout; with one, they go to a rotating file.
func Setup(params Params) {
	if params.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logrus.SetLevel(GetLevel(params.Level))

	if params.File == "" {
		logrus.SetOutput(os.Stdout)
		return
	}

	if !strings.HasSuffix(params.File, ".log") {
		params.File += ".log"
	}

	rotating := &lumberjack.Logger{
		Filename:   params.File,
		MaxSize:    50, // megabytes
		MaxBackups: 10,
		Compress:   true,
	}

	if params.AlsoStdout {
		logrus.SetOutput(io.MultiWriter(os.Stdout, rotating))
	} else {
		logrus.SetOutput(rotating)
	}
	logrus.WithField("file", params.File).Info("writing logs to file")
}

// GetLevel parses a level name, defaulting to info.
func GetLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
