/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the concrete logger type handed out by NewLogger.
type Logger = logrus.Logger

const (
	ansiReset   = "\x1b[0m"
	ansiFaint   = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

var (
	defaultConsoleLevel = logrus.InfoLevel
	loggerRegistryMu    sync.RWMutex
	loggerRegistry      = map[string]*logrus.Logger{}
	consoleLogFormat    = EnvDefaultString("CONSOLE_LOG_FORMAT", "text")
)

// ParseLogLevel maps a level name to a logrus level, defaulting to info.
func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
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

// RegisterLogger adds a named logger to the registry for later level tuning.
func RegisterLogger(name string, l *logrus.Logger) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerRegistry[name] = l
}

// SetLoggerLevel adjusts one named logger; reports whether it was found.
func SetLoggerLevel(name string, lvlStr string) bool {
	loggerRegistryMu.RLock()
	l, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if !ok {
		return false
	}
	l.SetLevel(ParseLogLevel(lvlStr))
	return true
}

// SetAllLoggersLevel adjusts every registered logger.
func SetAllLoggersLevel(lvl logrus.Level) {
	loggerRegistryMu.RLock()
	defer loggerRegistryMu.RUnlock()
	for _, l := range loggerRegistry {
		l.SetLevel(lvl)
	}
}

// ConfigureLogLevel sets the default level for loggers created afterwards
// and updates the ones that already exist.
func ConfigureLogLevel(levelStr string) {
	defaultConsoleLevel = ParseLogLevel(levelStr)
	SetAllLoggersLevel(defaultConsoleLevel)
}

// NewLogger returns a named console logger. The same name yields the same
// instance.
func NewLogger(name string) *logrus.Logger {
	loggerRegistryMu.RLock()
	if l, ok := loggerRegistry[name]; ok {
		loggerRegistryMu.RUnlock()
		return l
	}
	loggerRegistryMu.RUnlock()

	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(defaultConsoleLevel)
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		l.SetLevel(ParseLogLevel(lvl))
	}
	if consoleLogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05.000"})
	} else {
		l.SetFormatter(&consoleColorFormatter{module: name})
	}

	RegisterLogger(name, l)
	return l
}

// consoleColorFormatter renders log4j-style lines:
//
//	2026-01-02 15:04:05.000 [ INFO] DATABASE : message
type consoleColorFormatter struct {
	module string
}

func (f *consoleColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	ts := entry.Time.Format("2006-01-02 15:04:05.000")
	level := strings.ToUpper(entry.Level.String())
	if level == "WARNING" {
		level = "WARN"
	}

	var b strings.Builder
	b.WriteString(colorWrap(ts, ansiFaint))
	b.WriteString(" [")
	b.WriteString(colorLevel(fmt.Sprintf("%5s", level), entry.Level))
	b.WriteString("] ")
	b.WriteString(colorWrap(f.module, ansiCyan))
	b.WriteString(" : ")
	b.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		b.WriteString(colorWrap(fmt.Sprintf(" %v", entry.Data), ansiFaint))
	}
	b.WriteString("\n")
	return []byte(b.String()), nil
}

func colorWrap(s, code string) string { return code + s + ansiReset }

func colorLevel(s string, level logrus.Level) string {
	switch level {
	case logrus.TraceLevel, logrus.DebugLevel:
		return colorWrap(s, ansiMagenta)
	case logrus.InfoLevel:
		return colorWrap(s, ansiGreen)
	case logrus.WarnLevel:
		return colorWrap(s, ansiYellow)
	default:
		return colorWrap(s, ansiRed)
	}
}

// EnvDefaultString returns the environment value or a default.
func EnvDefaultString(key string, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// EnvDefaultBool returns the environment value parsed as a bool, or a
// default when unset or unparseable.
func EnvDefaultBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
