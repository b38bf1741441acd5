// Copyright (C) 2025  congo authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package log provides the logging facilities used by this project.
// It is a thin layer on top of logrus with custom formatters.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured log fields.
type Fields = logrus.Fields

// Level is the severity of a log entry.
type Level = logrus.Level

const (
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
	TraceLevel = logrus.TraceLevel
)

var (
	Tracef = logrus.Tracef
	Debugf = logrus.Debugf
	Infof  = logrus.Infof
	Warnf  = logrus.Warnf
	Errorf = logrus.Errorf
	Fatalf = logrus.Fatalf

	WithFields = logrus.WithFields

	IsLevelEnabled = logrus.IsLevelEnabled
)

// init modifies the global logger instance with the desired output (stdout)
// and customized formatter.
func init() {
	SetOutput(os.Stdout)
	SetFormatter(&DaemonFormatter{})
}

// GetLevel returns the current log level.
func GetLevel() Level {
	return logrus.GetLevel()
}

// SetLevel sets the log level from a string. It returns true if the level
// is recognized and applied.
func SetLevel(level string) (ok bool) {
	l, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return false
	}
	logrus.SetLevel(l)
	return true
}

// SetOutput sets the destination where logs are written to.
func SetOutput(out io.Writer) {
	logrus.SetOutput(out)
}

// SetFormatter sets the formatter used to print log entries.
func SetFormatter(formatter logrus.Formatter) {
	logrus.SetFormatter(formatter)
}
