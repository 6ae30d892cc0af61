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
	"sync/atomic"
)

// Stats counts what the engine did, across all calls sharing it.
type Stats struct {
	SplicedBytes   atomic.Int64 // moved by splice(2)
	RecoveredBytes atomic.Int64 // drained from an intermediate pipe by read/write
	FallbackBytes  atomic.Int64 // moved by the buffered copy
	InjectedBytes  atomic.Int64 // moved by vmsplice(2)
	Fallbacks      atomic.Int64 // transfers that switched to the buffered copy
}

// DefaultStats is shared by Default and every Copier created without
// WithStats.
var DefaultStats = new(Stats)

// Header returns the CSV column names matching ToSlice.
func (s *Stats) Header() []string {
	return []string{"SplicedBytes", "RecoveredBytes", "FallbackBytes", "InjectedBytes", "Fallbacks"}
}

// ToSlice returns the current counter values as strings.
func (s *Stats) ToSlice() []string {
	return []string{
		fmt.Sprint(s.SplicedBytes.Load()),
		fmt.Sprint(s.RecoveredBytes.Load()),
		fmt.Sprint(s.FallbackBytes.Load()),
		fmt.Sprint(s.InjectedBytes.Load()),
		fmt.Sprint(s.Fallbacks.Load()),
	}
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.SplicedBytes.Store(0)
	s.RecoveredBytes.Store(0)
	s.FallbackBytes.Store(0)
	s.InjectedBytes.Store(0)
	s.Fallbacks.Store(0)
}

func (s *Stats) String() string {
	return fmt.Sprintf("spliced=%d recovered=%d fallback=%d injected=%d fallbacks=%d",
		s.SplicedBytes.Load(), s.RecoveredBytes.Load(), s.FallbackBytes.Load(),
		s.InjectedBytes.Load(), s.Fallbacks.Load())
}
