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

package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/xtaci/fastcopy/bufcopy"
	"github.com/xtaci/fastcopy/std"
)

const (
	defaultBufSize = "64K"
	maxBufSize     = 64 * units.MiB
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	myApp := cli.NewApp()
	myApp.Name = "spyes"
	myApp.Usage = "repeatedly output a line, handing pages to the kernel where it can"
	myApp.ArgsUsage = "[STRING]..."
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "bytes, n",
			Value: "",
			Usage: "stop after this many bytes, eg: 4096, 64K, 1G; default runs until the reader goes away",
		},
		cli.StringFlag{
			Name:  "bufsize",
			Value: defaultBufSize,
			Usage: "size of the repeated buffer; vmsplice(2) moves at most one pipe buffer per call",
		},
		cli.BoolFlag{
			Name:   "nosplice",
			Usage:  "never use vmsplice(2), write through write(2)",
			EnvVar: "SPYES_NOSPLICE",
		},
		cli.BoolFlag{
			Name:  "stats",
			Usage: "print transfer counters to stderr when done",
		},
		cli.StringFlag{
			Name:  "statslog",
			Value: "",
			Usage: "collect transfer counters to file, aware of timeformat in golang, like: ./stats-20060102.log",
		},
		cli.IntFlag{
			Name:  "statsperiod",
			Value: 60,
			Usage: "stats collect period, in seconds",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "log every fallback decision, as JSON",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "only log errors",
		},
		cli.StringFlag{
			Name:  "c",
			Value: "", // when set, the referenced JSON file must exist on disk
			Usage: "config from json file, which will override the command from shell",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		config := Config{}
		config.Strings = c.Args()
		config.Bytes = c.String("bytes")
		config.BufSize = c.String("bufsize")
		config.NoSplice = c.Bool("nosplice")
		config.Stats = c.Bool("stats")
		config.StatsLog = c.String("statslog")
		config.StatsPeriod = c.Int("statsperiod")
		config.Log = c.String("log")
		config.Debug = c.Bool("debug")
		config.Quiet = c.Bool("quiet")

		if c.String("c") != "" {
			err := parseJSONConfig(&config, c.String("c"))
			checkError(err)
		}

		log, closer, err := std.NewLogger(myApp.Name, std.LogConfig{Path: config.Log, Debug: config.Debug, Quiet: config.Quiet})
		checkError(err)
		defer closer.Close()

		log.WithFields(logrus.Fields{
			"version":  VERSION,
			"bytes":    config.Bytes,
			"bufsize":  config.BufSize,
			"nosplice": config.NoSplice,
		}).Debug("starting")

		done := make(chan struct{})
		defer close(done)
		go std.StatsLogger(log, bufcopy.DefaultStats, config.StatsLog, config.StatsPeriod, done)

		err = run(&config, log, os.Stdout)
		if config.Stats {
			fmt.Fprintf(os.Stderr, "%v: %v\n", myApp.Name, bufcopy.DefaultStats)
		}
		if config.StatsLog != "" {
			if err := std.WriteStats(bufcopy.DefaultStats, config.StatsLog, time.Now()); err != nil {
				log.WithError(err).Warn("stats log")
			}
		}
		return err
	}
	if err := myApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v: %+v\n", myApp.Name, err)
		os.Exit(1)
	}
}

// run writes the line made of config.Strings to stdout until config.Bytes
// bytes went out, or forever when it is unset; "0" writes nothing. A reader
// going away ends the run without error.
func run(config *Config, log logrus.FieldLogger, stdout *os.File) error {
	limit := int64(-1)
	if config.Bytes != "" {
		var err error
		if limit, err = std.ParseSize(config.Bytes); err != nil {
			return err
		}
	}
	bufSize := config.BufSize
	if bufSize == "" {
		bufSize = defaultBufSize
	}
	size, err := std.ParseSize(bufSize)
	if err != nil {
		return err
	}
	if size > maxBufSize {
		return errors.Errorf("bufsize %v is above %v", bufSize, units.BytesSize(maxBufSize))
	}

	opts := []bufcopy.Option{bufcopy.WithLogger(log)}
	if config.NoSplice {
		opts = append(opts, bufcopy.WithoutSplice())
	}
	w := newSpliceWriter(bufcopy.New(opts...), log, stdout)
	defer w.Close()
	log.WithField("mode", w.mode).Debug("output")

	buf := fillBuffer(lineOf(config.Strings), int(size))
	var written int64
	for limit < 0 || written < limit {
		chunk := buf
		if limit >= 0 && limit-written < int64(len(chunk)) {
			chunk = chunk[:limit-written]
		}
		n, err := w.Write(chunk)
		written += int64(n)
		if errors.Is(err, syscall.EPIPE) {
			log.WithField("written", written).Debug("broken pipe")
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func lineOf(strs []string) string {
	if len(strs) == 0 {
		return "y\n"
	}
	return strings.Join(strs, " ") + "\n"
}

// fillBuffer returns as many whole copies of line as fit in size, at least one.
func fillBuffer(line string, size int) []byte {
	n := size / len(line)
	if n < 1 {
		n = 1
	}
	return bytes.Repeat([]byte(line), n)
}

// checkError logs the supplied fatal error and terminates the process.
func checkError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(-1)
	}
}
