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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xtaci/fastcopy/bufcopy"
)

// StatsLogger appends a CSV row of stats to path every interval seconds until
// done is closed. path may carry a Go time layout, like ./stats-20060102.log.
func StatsLogger(log logrus.FieldLogger, stats *bufcopy.Stats, path string, interval int, done <-chan struct{}) {
	if path == "" || interval == 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := WriteStats(stats, path, time.Now()); err != nil {
				log.WithError(err).Warn("stats log")
				return
			}
		case <-done:
			return
		}
	}
}

// WriteStats appends one CSV row of stats, writing the header first if the
// file is empty.
func WriteStats(stats *bufcopy.Stats, path string, now time.Time) error {
	// split path into dirname and filename
	logdir, logfile := filepath.Split(path)
	// only format logfile
	f, err := os.OpenFile(logdir+now.Format(logfile), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	// write header in empty file
	if stat, err := f.Stat(); err == nil && stat.Size() == 0 {
		if err := w.Write(append([]string{"Unix"}, stats.Header()...)); err != nil {
			return err
		}
	}
	if err := w.Write(append([]string{fmt.Sprint(now.Unix())}, stats.ToSlice()...)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
