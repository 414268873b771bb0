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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLogger struct {
	lines []string
}

func (f *fakeLogger) Infof(format string, _ ...interface{}) {
	f.lines = append(f.lines, format)
}

func TestGetHookImage(t *testing.T) {
	var tests = []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{
			name:     "default",
			env:      map[string]string{},
			expected: DefaultHookImage,
		},
		{
			name:     "from env var",
			env:      map[string]string{hookImageEnvVar: "registry.local/khook:dev"},
			expected: "registry.local/khook:dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLogger{}
			c := &ImageConfig{
				ioCtrl: l,
				getEnv: func(k string) string { return tt.env[k] },
			}
			assert.Equal(t, tt.expected, c.GetHookImage())
		})
	}
}

func TestGetDurations(t *testing.T) {
	assert.Equal(t, DefaultPodTimeout, GetPodTimeout())
	assert.Equal(t, DefaultTunnelTimeout, GetTunnelTimeout())
	assert.Equal(t, DefaultPollInterval, GetPollInterval())

	t.Setenv(podTimeoutEnvVar, "2m")
	assert.Equal(t, 2*time.Minute, GetPodTimeout())

	t.Setenv(tunnelTimeoutEnvVar, "not-a-duration")
	assert.Equal(t, DefaultTunnelTimeout, GetTunnelTimeout())

	t.Setenv(pollIntervalEnvVar, "-1s")
	assert.Equal(t, DefaultPollInterval, GetPollInterval())
}

func TestGetSSHPortStart(t *testing.T) {
	assert.Equal(t, DefaultSSHPortStart, GetSSHPortStart())

	t.Setenv(sshPortStartEnvVar, "3000")
	assert.Equal(t, 3000, GetSSHPortStart())

	t.Setenv(sshPortStartEnvVar, "70000")
	assert.Equal(t, DefaultSSHPortStart, GetSSHPortStart())
}

func TestGetKhookHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(khookHomeEnvVar, dir)

	home, err := GetKhookHome()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, khookFolderName), home)

	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	t.Setenv(khookFolderEnvVar, filepath.Join(dir, "missing"))
	_, err = GetKhookHome()
	assert.Error(t, err)
}

func TestWorkingDirs(t *testing.T) {
	assert.Equal(t, "backed-up-resources", GetBackupDir())
	assert.Equal(t, "created-resources", GetCreateDir())

	t.Setenv(backupDirEnvVar, "/tmp/backups")
	assert.Equal(t, "/tmp/backups", GetBackupDir())
}
