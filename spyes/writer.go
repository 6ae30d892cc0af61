package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/xtaci/fastcopy/bufcopy"
)

type writeMode int

const (
	modeWrite  writeMode = iota // write(2)
	modePipe                    // vmsplice(2) straight into out
	modeHandle                  // vmsplice(2) into a private pipe, splice(2) on to out
)

func (m writeMode) String() string {
	switch m {
	case modePipe:
		return "pipe"
	case modeHandle:
		return "handle"
	default:
		return "write"
	}
}

// spliceWriter writes to out, handing the pages to the kernel where it can.
// Buffers passed to Write must not change afterwards: with vmsplice the pipe
// keeps referring to them.
type spliceWriter struct {
	copier *bufcopy.Copier
	log    logrus.FieldLogger
	out    *os.File
	pr, pw *os.File
	mode   writeMode
}

func newSpliceWriter(copier *bufcopy.Copier, log logrus.FieldLogger, out *os.File) *spliceWriter {
	w := &spliceWriter{copier: copier, log: log, out: out}
	if !copier.Splice {
		return w
	}

	isPipe, err := bufcopy.IsPipe(out)
	if err != nil {
		log.WithError(err).Debug("cannot probe output")
		return w
	}
	if isPipe {
		w.mode = modePipe
		return w
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		log.WithError(err).Debug("no intermediate pipe")
		return w
	}
	w.pr, w.pw, w.mode = pr, pw, modeHandle
	return w
}

func (w *spliceWriter) Write(b []byte) (int, error) {
	var n int64
	var fallback bool
	var err error
	switch w.mode {
	case modePipe:
		n, fallback, err = w.copier.InjectToPipe(b, w.out)
	case modeHandle:
		n, fallback, err = w.copier.InjectToHandle(b, w.pr, w.pw, w.out)
	default:
		return w.out.Write(b)
	}
	if err != nil || !fallback {
		return int(n), err
	}

	w.log.WithFields(logrus.Fields{"mode": w.mode, "written": n}).Debug("zero-copy refused, using write")
	w.closePipe()
	w.mode = modeWrite
	m, err := w.out.Write(b[n:])
	return int(n) + m, err
}

func (w *spliceWriter) closePipe() {
	if w.pr != nil {
		w.pr.Close()
		w.pw.Close()
		w.pr, w.pw = nil, nil
	}
}

// Close releases the intermediate pipe. out stays open.
func (w *spliceWriter) Close() error {
	w.closePipe()
	return nil
}
