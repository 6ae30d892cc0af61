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

package bufcopy

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"
)

// Condition is the class of a failed kernel call, as seen by the engine.
type Condition int

const (
	// Other covers every fatal condition (EPERM, EPIPE, ENOSPC, ...).
	Other Condition = iota
	// Unsupported means the kernel does not implement the call.
	Unsupported
	// InvalidArgument means the call is not applicable to these descriptors.
	InvalidArgument
	// BadDescriptor means a descriptor is not usable for this call.
	BadDescriptor
)

func (c Condition) String() string {
	switch c {
	case Unsupported:
		return "unsupported"
	case InvalidArgument:
		return "invalid argument"
	case BadDescriptor:
		return "bad descriptor"
	default:
		return "other"
	}
}

// Recoverable reports whether the zero-copy path should simply be abandoned
// in favour of a buffered copy.
func (c Condition) Recoverable() bool {
	return c != Other
}

// ConditionOf maps an error returned by a kernel call to its Condition.
func ConditionOf(err error) Condition {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return Other
	}
	switch errno {
	case syscall.ENOSYS:
		return Unsupported
	case syscall.EINVAL:
		return InvalidArgument
	case syscall.EBADF:
		return BadDescriptor
	}
	return Other
}

// IOError wraps a failed platform call.
type IOError struct {
	Op   string
	Cond Condition
	Err  error
}

func newIOError(op string, err error) *IOError {
	return &IOError{Op: op, Cond: ConditionOf(err), Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("I/O error: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// WriteError is returned when the second stage of a two-stage relay could not
// deliver the bytes staged in the intermediate pipe, even through read/write.
type WriteError struct {
	Msg string
	Err error
}

func (e *WriteError) Error() string {
	if e.Err == nil {
		return "splice() write error: " + e.Msg
	}
	return fmt.Sprintf("splice() write error: %s: %v", e.Msg, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// maybeUnsupported turns ENOSYS, EINVAL and EBADF into "fall back, nothing
// moved" and every other failure into a fatal *IOError.
func maybeUnsupported(op string, err error) (int64, bool, error) {
	if ConditionOf(err).Recoverable() {
		return 0, true, nil
	}
	return 0, false, errors.WithStack(newIOError(op, err))
}
