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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/okteto/khook/pkg/log"
)

const (
	khookFolderName = ".khook"

	defaultBackupDir = "backed-up-resources"
	defaultCreateDir = "created-resources"

	// DefaultPodTimeout is the time the decoy pod has to reach a running state
	DefaultPodTimeout = 60 * time.Second

	// DefaultTunnelTimeout is the time the local tunnel endpoint has to become reachable
	DefaultTunnelTimeout = 15 * time.Second

	// DefaultPollInterval is the spacing between two readiness checks
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultKubernetesTimeout bounds every call done during a rollback
	DefaultKubernetesTimeout = 30 * time.Second

	// DefaultSSHPortStart is the first local port probed for the ssh port-forward
	DefaultSSHPortStart = 2000

	khookHomeEnvVar         = "KHOOK_HOME"
	khookFolderEnvVar       = "KHOOK_FOLDER"
	backupDirEnvVar         = "KHOOK_BACKUP_DIR"
	createDirEnvVar         = "KHOOK_CREATE_DIR"
	podTimeoutEnvVar        = "KHOOK_POD_TIMEOUT"
	tunnelTimeoutEnvVar     = "KHOOK_TUNNEL_TIMEOUT"
	pollIntervalEnvVar      = "KHOOK_POLL_INTERVAL"
	kubernetesTimeoutEnvVar = "KHOOK_KUBERNETES_TIMEOUT"
	sshPortStartEnvVar      = "KHOOK_SSH_PORT_START"
)

// VersionString the version of the cli
var VersionString string

// GetBinaryName returns the name of the binary
func GetBinaryName() string {
	return filepath.Base(os.Args[0])
}

// GetUserHomeDir returns the OS home dir
func GetUserHomeDir() string {
	if v, ok := os.LookupEnv(khookHomeEnvVar); ok {
		if _, err := os.Stat(v); err != nil {
			log.Infof("%s points to a non-existing directory: %s", khookHomeEnvVar, v)
		} else {
			return v
		}
	}

	home, err := homedir.Dir()
	if err != nil {
		log.Infof("couldn't determine your home directory: %s", err)
		return os.TempDir()
	}

	return home
}

// GetKhookHome returns the path of the khook folder, creating it if needed
func GetKhookHome() (string, error) {
	if v, ok := os.LookupEnv(khookFolderEnvVar); ok {
		if _, err := os.Stat(v); err != nil {
			return "", fmt.Errorf("%s doesn't exist: %s", khookFolderEnvVar, v)
		}
		return v, nil
	}

	d := filepath.Join(GetUserHomeDir(), khookFolderName)
	if err := os.MkdirAll(d, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", d, err)
	}

	return d, nil
}

// GetBackupDir returns the folder holding the backups of replaced services
func GetBackupDir() string {
	return getEnvOrDefault(backupDirEnvVar, defaultBackupDir)
}

// GetCreateDir returns the folder holding the generated decoy definitions
func GetCreateDir() string {
	return getEnvOrDefault(createDirEnvVar, defaultCreateDir)
}

// GetPodTimeout returns the readiness budget of the decoy pod
func GetPodTimeout() time.Duration {
	return getDuration(podTimeoutEnvVar, DefaultPodTimeout)
}

// GetTunnelTimeout returns the reachability budget of the local tunnel endpoint
func GetTunnelTimeout() time.Duration {
	return getDuration(tunnelTimeoutEnvVar, DefaultTunnelTimeout)
}

// GetPollInterval returns the interval between readiness checks
func GetPollInterval() time.Duration {
	return getDuration(pollIntervalEnvVar, DefaultPollInterval)
}

// GetKubernetesTimeout returns the timeout of the calls done outside of the hook sequence
func GetKubernetesTimeout() time.Duration {
	return getDuration(kubernetesTimeoutEnvVar, DefaultKubernetesTimeout)
}

// GetSSHPortStart returns the first local port probed for the ssh port-forward
func GetSSHPortStart() int {
	v, ok := os.LookupEnv(sshPortStartEnvVar)
	if !ok {
		return DefaultSSHPortStart
	}

	p, err := strconv.Atoi(v)
	if err != nil || p <= 0 || p > 65535 {
		log.Infof("'%s' is not a valid port, ignoring", v)
		return DefaultSSHPortStart
	}

	return p
}

func getDuration(envVar string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(envVar)
	if !ok {
		return def
	}

	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		log.Infof("'%s' is not a valid duration, ignoring", v)
		return def
	}

	log.Infof("%s applied: '%s'", envVar, parsed.String())
	return parsed
}

func getEnvOrDefault(envVar, def string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return def
}
