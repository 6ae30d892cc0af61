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
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/xtaci/fastcopy/bufcopy"
	"github.com/xtaci/fastcopy/std"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	myApp := cli.NewApp()
	myApp.Name = "spcat"
	myApp.Usage = "concatenate files to standard output, splicing where the kernel allows"
	myApp.ArgsUsage = "[FILE|-]..."
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:   "nosplice",
			Usage:  "never use splice(2), copy through a user-space buffer",
			EnvVar: "SPCAT_NOSPLICE",
		},
		cli.StringFlag{
			Name:  "compress, z",
			Value: "",
			Usage: "compress the output stream: snappy, lz4",
		},
		cli.StringFlag{
			Name:  "decompress, d",
			Value: "",
			Usage: "decompress every input: snappy, lz4",
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
		config.Files = c.Args()
		config.NoSplice = c.Bool("nosplice")
		config.Compress = c.String("compress")
		config.Decompress = c.String("decompress")
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

		for _, msg := range warnings(&config) {
			color.Red(msg)
		}

		log.WithFields(logrus.Fields{
			"version":    VERSION,
			"nosplice":   config.NoSplice,
			"compress":   config.Compress,
			"decompress": config.Decompress,
		}).Debug("starting")

		done := make(chan struct{})
		defer close(done)
		go std.StatsLogger(log, bufcopy.DefaultStats, config.StatsLog, config.StatsPeriod, done)

		err = run(&config, log, os.Stdin, os.Stdout)
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
		fmt.Fprintf(os.Stderr, "%v: %v\n", myApp.Name, err)
		os.Exit(1)
	}
}

// run copies every file in config.Files, "-" meaning stdin, to stdout. A file
// that cannot be read is logged and skipped; the error is reported at the end.
func run(config *Config, log logrus.FieldLogger, stdin, stdout *os.File) error {
	opts := []bufcopy.Option{bufcopy.WithLogger(log)}
	if config.NoSplice {
		opts = append(opts, bufcopy.WithoutSplice())
	}
	copier := bufcopy.New(opts...)

	var out io.Writer = stdout
	var comp std.CompWriter
	if config.Compress != "" {
		var err error
		if comp, err = std.NewCompWriter(config.Compress, stdout); err != nil {
			return err
		}
		out = comp
	}

	files := config.Files
	if len(files) == 0 {
		files = []string{"-"}
	}

	var failed int
	for _, name := range files {
		n, err := catFile(copier, out, name, stdin, config.Decompress)
		if errors.Is(err, syscall.EPIPE) {
			// reader went away, like `spcat big | head`
			log.WithField("file", name).Debug("broken pipe")
			return nil
		}
		if err != nil {
			log.WithField("file", name).Error(err)
			failed++
			continue
		}
		log.WithFields(logrus.Fields{"file": name, "bytes": n}).Debug("copied")
	}

	if comp != nil {
		if err := comp.Close(); err != nil && !errors.Is(err, syscall.EPIPE) {
			return errors.Wrap(err, "close compressor")
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func catFile(copier *bufcopy.Copier, out io.Writer, name string, stdin *os.File, decompress string) (int64, error) {
	in := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return 0, errors.WithStack(err)
		}
		defer f.Close()
		in = f
	}

	var src io.Reader = in
	if decompress != "" {
		var err error
		if src, err = std.NewCompReader(decompress, in); err != nil {
			return 0, err
		}
	}
	return std.Copy(copier, out, src)
}

// checkError logs the supplied fatal error and terminates the process.
func checkError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(-1)
	}
}
