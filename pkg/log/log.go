// Copyright 2024 The Okteto Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	successSymbol     = color.New(color.BgGreen, color.FgBlack).Sprint(" ✓ ")
	informationSymbol = color.New(color.BgHiBlue, color.FgBlack).Sprint(" i ")
	warningSymbol     = color.New(color.BgHiYellow, color.FgBlack).Sprint(" ! ")
	errorSymbol       = color.New(color.BgHiRed, color.FgBlack).Sprint(" x ")

	greenString  = color.New(color.FgGreen).SprintfFunc()
	blueString   = color.New(color.FgHiBlue).SprintfFunc()
	yellowString = color.New(color.FgHiYellow).SprintfFunc()
	redString    = color.New(color.FgHiRed).SprintfFunc()
)

type logger struct {
	mu      sync.Mutex
	out     *logrus.Logger
	file    *logrus.Entry
	w       io.Writer
	spinner *spinnerLogger
}

var log = &logger{
	out: logrus.New(),
	w:   os.Stdout,
}

// Init configures the logger for the package to use.
func Init(level logrus.Level) {
	log.out.SetOutput(os.Stdout)
	log.out.SetLevel(level)
	log.out.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	log.spinner = newSpinnerLogger()
}

// ConfigureFileLogger adds a rolling debug log under dir
func ConfigureFileLogger(dir, name string) {
	fileLogger := logrus.New()
	fileLogger.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})

	rolling := getRollingLog(filepath.Join(dir, fmt.Sprintf("%s.log", name)))
	fileLogger.SetOutput(rolling)
	fileLogger.SetLevel(logrus.DebugLevel)
	log.file = fileLogger.WithFields(logrus.Fields{"pid": os.Getpid()})
}

func getRollingLog(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1, // megabytes
		MaxBackups: 10,
		MaxAge:     28, //days
		Compress:   true,
	}
}

// SetLevel sets the level of the main logger
func SetLevel(level string) {
	l, err := logrus.ParseLevel(level)
	if err == nil {
		log.out.SetLevel(l)
	}
}

// SetOutput redirects both the diagnostic and the user-facing output
func SetOutput(w io.Writer) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.out.SetOutput(w)
	log.w = w
}

// Debug writes a debug-level log
func Debug(args ...interface{}) {
	log.out.Debug(args...)
	if log.file != nil {
		log.file.Debug(args...)
	}
}

// Debugf writes a debug-level log with a format
func Debugf(format string, args ...interface{}) {
	log.out.Debugf(format, args...)
	if log.file != nil {
		log.file.Debugf(format, args...)
	}
}

// Info writes a info-level log
func Info(args ...interface{}) {
	log.out.Info(args...)
	if log.file != nil {
		log.file.Info(args...)
	}
}

// Infof writes a info-level log with a format
func Infof(format string, args ...interface{}) {
	log.out.Infof(format, args...)
	if log.file != nil {
		log.file.Infof(format, args...)
	}
}

// Error writes a error-level log
func Error(args ...interface{}) {
	log.out.Error(args...)
	if log.file != nil {
		log.file.Error(args...)
	}
}

// Errorf writes a error-level log with a format
func Errorf(format string, args ...interface{}) {
	log.out.Errorf(format, args...)
	if log.file != nil {
		log.file.Errorf(format, args...)
	}
}

// Logf writes a log with a format at the given level
func Logf(level logrus.Level, format string, args ...interface{}) {
	log.out.Logf(level, format, args...)
	if log.file != nil {
		log.file.Logf(level, format, args...)
	}
}

// Success prints a message with the success symbol first, and the text in green
func Success(format string, args ...interface{}) {
	Infof(format, args...)
	printUser(fmt.Sprintf("%s %s\n", successSymbol, greenString(format, args...)))
}

// Information prints a message with the information symbol first, and the text in blue
func Information(format string, args ...interface{}) {
	Infof(format, args...)
	printUser(fmt.Sprintf("%s %s\n", informationSymbol, blueString(format, args...)))
}

// Warning prints a message with the warning symbol first, and the text in yellow
func Warning(format string, args ...interface{}) {
	Infof(format, args...)
	printUser(fmt.Sprintf("%s %s\n", warningSymbol, yellowString(format, args...)))
}

// Fail prints a message with the error symbol first, and the text in red
func Fail(format string, args ...interface{}) {
	Infof(format, args...)
	printUser(fmt.Sprintf("%s %s\n", errorSymbol, redString(format, args...)))
}

// Hint prints a message with the text in blue
func Hint(format string, args ...interface{}) {
	Infof(format, args...)
	printUser(fmt.Sprintf("%s\n", blueString(format, args...)))
}

// Println writes a line with colors
func Println(args ...interface{}) {
	Info(args...)
	printUser(fmt.Sprintln(args...))
}

func printUser(msg string) {
	holdSpinner()
	defer unholdSpinner()
	log.mu.Lock()
	defer log.mu.Unlock()
	fmt.Fprint(log.w, msg)
}

// Logger logs through the package-level logger. It's meant for packages that take a logger as a dependency.
type Logger struct{}

// Infof writes an info-level log with a format
func (Logger) Infof(format string, args ...interface{}) {
	Infof(format, args...)
}
