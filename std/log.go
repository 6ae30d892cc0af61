// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package std

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LogConfig selects where and how much a binary logs.
type LogConfig struct {
	Path  string // empty means stderr
	Debug bool   // debug level, JSON lines
	Quiet bool   // errors only
}

func logLevel(config LogConfig) logrus.Level {
	if config.Debug {
		return logrus.DebugLevel
	}
	if config.Quiet {
		return logrus.ErrorLevel
	}
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		return level
	}
	return logrus.InfoLevel
}

// NewLogger returns the logger for a binary and the file it writes to, if
// any, which the caller closes on exit.
func NewLogger(app string, config LogConfig) (*logrus.Entry, io.Closer, error) {
	log := logrus.New()
	log.SetLevel(logLevel(config))
	log.Out = os.Stderr
	if config.Debug {
		log.Formatter = &logrus.JSONFormatter{}
	}

	var closer io.Closer = io.NopCloser(nil)
	if config.Path != "" {
		f, err := os.OpenFile(config.Path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open log")
		}
		log.Out = f
		closer = f
	}
	return log.WithField("app", app), closer, nil
}
