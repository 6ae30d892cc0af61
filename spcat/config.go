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
	"encoding/json"
	"os"
)

// Config for spcat
type Config struct {
	Files       []string `json:"files"`
	NoSplice    bool     `json:"nosplice"`
	Compress    string   `json:"compress"`
	Decompress  string   `json:"decompress"`
	Stats       bool     `json:"stats"`
	StatsLog    string   `json:"statslog"`
	StatsPeriod int      `json:"statsperiod"`
	Log         string   `json:"log"`
	Debug       bool     `json:"debug"`
	Quiet       bool     `json:"quiet"`
}

func parseJSONConfig(config *Config, path string) error {
	file, err := os.Open(path) // For read access.
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(config)
}

// warnings returns the messages for flag combinations that silently lose the
// zero-copy path.
func warnings(config *Config) []string {
	var msgs []string
	if config.Compress != "" && !config.NoSplice {
		msgs = append(msgs, "WARNING: --compress buffers the output stream, splice(2) will not be used.")
	}
	if config.Decompress != "" && !config.NoSplice {
		msgs = append(msgs, "WARNING: --decompress reads every input through a buffer, splice(2) will not be used.")
	}
	return msgs
}
