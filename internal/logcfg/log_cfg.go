// Package logcfg configures the global logrus logger shared by the server and the bot.
package logcfg

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

const (
	maxLogSizeMB  = 50 // rotate after this many megabytes
	maxLogBackups = 3  // rotated files kept on disk
	maxLogAgeDays = 30 // rotated files older than this are removed
)

// RunLoggerConfig sets the logrus level, the caller-aware text format and the
// output, which goes to stdout and to a rotated log file.
// Arguments:
//   - envLogs: log level name (e.g. debug, info, warn).
//   - logFileName: rotated log file; an empty name logs to stdout only.
//
// Exits the process if the level cannot be parsed.
func RunLoggerConfig(envLogs, logFileName string) {
	logLevel, err := logrus.ParseLevel(envLogs)
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.SetLevel(logLevel)
	logrus.SetReportCaller(true)

	logrus.SetFormatter(&logrus.TextFormatter{
		CallerPrettyfier: callerPrettyfier,
	})

	if logFileName == "" {
		logrus.SetOutput(os.Stdout)
		return
	}
	mw := io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   logFileName,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
	})
	logrus.SetOutput(mw)
}

// callerPrettyfier prints the caller as file.line.function.
func callerPrettyfier(f *runtime.Frame) (function string, file string) {
	_, filename := path.Split(f.File)
	filename = fmt.Sprintf("%s.%d.%s", filename, f.Line, f.Function)
	return "", filename
}
