//go:build linux || darwin || freebsd

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtaci/fastcopy/bufcopy"
)

func init() {
	go sigHandler()
}

func sigHandler() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	signal.Ignore(syscall.SIGPIPE)

	for {
		switch <-ch {
		case syscall.SIGUSR1:
			fmt.Fprintf(os.Stderr, "spcat: %v\n", bufcopy.DefaultStats)
		}
	}
}
