/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// Package log is the diagnostic channel of go-dummy. Every failure of the
// register mapping and synchronization layer is reported here, in addition
// to the error returned to the caller.
package log

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type LogLevel int

const (
	LogPrefix     = "[go-dummy] "
	ErrorPrefix   = "[error] "
	WarningPrefix = "[warn] "
	InfoPrefix    = "[info] "
	DebugPrefix   = "[debug] "
	HelpLevels    = "Must be one of: error, warning, info, debug."
)

const (
	ErrorLevel LogLevel = iota
	WarningLevel
	InfoLevel
	DebugLevel
)

var levelMapping = map[string]LogLevel{
	"error":   ErrorLevel,
	"warning": WarningLevel,
	"warn":    WarningLevel,
	"info":    InfoLevel,
	"debug":   DebugLevel,
}

type Logger struct {
	level LogLevel
	out   io.Writer
	*log.Logger
}

var logger = &Logger{
	level:  InfoLevel,
	out:    os.Stderr,
	Logger: log.New(os.Stderr, LogPrefix, log.LstdFlags),
}

// ParseLevel converts a level name into LogLevel
func ParseLevel(strLevel string) (LogLevel, error) {
	level, ok := levelMapping[strings.ToLower(strLevel)]
	if !ok {
		return ErrorLevel, errors.New("Wrong log level. " + HelpLevels)
	}
	return level, nil
}

func SetLevel(strLevel string) error {
	level, err := ParseLevel(strLevel)
	if err != nil {
		return err
	}
	logger.level = level
	return nil
}

// Level returns the current log level
func Level() LogLevel {
	return logger.level
}

// Init sets the output and the level. An empty level keeps the current one.
func Init(out io.Writer, strLevel string) error {
	logger.out = out
	logger.SetOutput(out)
	if strLevel == "" {
		return nil
	}
	return SetLevel(strLevel)
}

// Writer returns the writer log records go to. It is used for HTTP access logs.
func Writer() io.Writer {
	return logger.out
}

func logf(level LogLevel, prefix, format string, v ...interface{}) {
	if logger.level >= level {
		logger.Println(fmt.Sprintf(prefix+format, v...))
	}
}

func Error(format string, v ...interface{}) {
	logf(ErrorLevel, ErrorPrefix, format, v...)
}

func Warning(format string, v ...interface{}) {
	logf(WarningLevel, WarningPrefix, format, v...)
}

func Info(format string, v ...interface{}) {
	logf(InfoLevel, InfoPrefix, format, v...)
}

func Debug(format string, v ...interface{}) {
	logf(DebugLevel, DebugPrefix, format, v...)
}
