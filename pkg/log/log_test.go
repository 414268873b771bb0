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
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	Init(logrus.WarnLevel)
	var tests = []struct {
		name     string
		level    string
		expected logrus.Level
	}{
		{name: "debug", level: "debug", expected: logrus.DebugLevel},
		{name: "info", level: "info", expected: logrus.InfoLevel},
		{name: "invalid keeps previous", level: "verbose", expected: logrus.InfoLevel},
		{name: "error", level: "error", expected: logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetLevel(tt.level)
			assert.Equal(t, tt.expected, log.out.GetLevel())
		})
	}
}

func TestWriter(t *testing.T) {
	Init(logrus.InfoLevel)
	buf := &bytes.Buffer{}
	SetOutput(buf)

	w := Writer("port-forward", logrus.InfoLevel)
	_, err := w.Write([]byte("Forwarding from 127.0.0.1:2000 -> 22\nHandling conn"))
	assert.NoError(t, err)
	_, err = w.Write([]byte("ection for 2000\n\n"))
	assert.NoError(t, err)
	_, err = w.Write([]byte("tail without newline"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "[port-forward] Forwarding from 127.0.0.1:2000 -> 22")
	assert.Contains(t, lines[1], "[port-forward] Handling connection for 2000")
	assert.Contains(t, lines[2], "[port-forward] tail without newline")
}

func TestUserOutput(t *testing.T) {
	Init(logrus.WarnLevel)
	buf := &bytes.Buffer{}
	SetOutput(buf)

	Success("hook deployed for %s", "payments")
	Warning("outbound tunnels are not implemented")
	Fail("rollback %s", "failed")

	out := buf.String()
	assert.Contains(t, out, "hook deployed for payments")
	assert.Contains(t, out, "outbound tunnels are not implemented")
	assert.Contains(t, out, "rollback failed")
}

func TestUcFirst(t *testing.T) {
	assert.Equal(t, "Waiting", ucFirst("waiting"))
	assert.Equal(t, "", ucFirst(""))
}
