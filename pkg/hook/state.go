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

package hook

import (
	"sync"
	"time"
)

// State is a step of the hook sequence
type State string

const (
	// Init is the state before anything is done
	Init State = "Init"
	// ConfigResolved means the live service was read and the decoy resources derived
	ConfigResolved State = "ConfigResolved"
	// PreflightChecked means no decoy pod for the service exists
	PreflightChecked State = "PreflightChecked"
	// BackedUp means the live service is saved on disk
	BackedUp State = "BackedUp"
	// DecoyPodApplied means the decoy pod was created
	DecoyPodApplied State = "DecoyPodApplied"
	// DecoyPodRunning means the container of the decoy pod is running
	DecoyPodRunning State = "DecoyPodRunning"
	// KeysInstalled means the public key is authorized in the decoy pod
	KeysInstalled State = "KeysInstalled"
	// PortForwardStarted means the local port-forward to the decoy pod was started
	PortForwardStarted State = "PortForwardStarted"
	// PortForwardReachable means the local end of the port-forward accepts connections
	PortForwardReachable State = "PortForwardReachable"
	// ReverseTunnelsUp means the reverse tunnels were started
	ReverseTunnelsUp State = "ReverseTunnelsUp"
	// LiveServiceSwapped means the service routes to the decoy pod
	LiveServiceSwapped State = "LiveServiceSwapped"
	// OriginalPodsEvicted means the pods behind the original selector were deleted
	OriginalPodsEvicted State = "OriginalPodsEvicted"
	// SessionActive is held until the session is interrupted
	SessionActive State = "SessionActive"
)

// Session is the progress of a hook session. It's written by the hook sequence and read
// by the interrupt handler, every change is applied under the same lock.
type Session struct {
	mu              sync.Mutex
	startTime       time.Time
	serviceName     string
	hookPodName     string
	backupPath      string
	state           State
	podDeployed     bool
	serviceReplaced bool
	active          bool
	degraded        bool
	failedRules     []string
	rollbackFailed  bool
}

// Snapshot is a consistent copy of a Session
type Snapshot struct {
	StartTime       time.Time
	ServiceName     string
	HookPodName     string
	BackupPath      string
	State           State
	PodDeployed     bool
	ServiceReplaced bool
	Active          bool
	Degraded        bool
	FailedRules     []string
	RollbackFailed  bool
}

// NewSession returns a session started at startTime
func NewSession(startTime time.Time) *Session {
	return &Session{startTime: startTime, state: Init}
}

// Snapshot returns a copy of the session
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	failed := make([]string, len(s.failedRules))
	copy(failed, s.failedRules)
	return Snapshot{
		StartTime:       s.startTime,
		ServiceName:     s.serviceName,
		HookPodName:     s.hookPodName,
		BackupPath:      s.backupPath,
		State:           s.state,
		PodDeployed:     s.podDeployed,
		ServiceReplaced: s.serviceReplaced,
		Active:          s.active,
		Degraded:        s.degraded,
		FailedRules:     failed,
		RollbackFailed:  s.rollbackFailed,
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Session) setTarget(serviceName, hookPodName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serviceName = serviceName
	s.hookPodName = hookPodName
}

func (s *Session) setBackupPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backupPath = path
}

func (s *Session) markPodDeployed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.podDeployed = true
}

func (s *Session) markServiceReplaced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serviceReplaced = true
}

func (s *Session) markActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
}

func (s *Session) markDegraded(failed []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded = true
	s.failedRules = append(s.failedRules, failed...)
}

// markRollbackFailed is never cleared: a failed rollback step is not retried
func (s *Session) markRollbackFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollbackFailed = true
}

// claimServiceRestore clears the service flag and returns the backup to reapply.
// It returns false if the service doesn't need to be restored.
func (s *Session) claimServiceRestore() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.serviceReplaced {
		return "", false
	}
	s.serviceReplaced = false
	s.active = false
	return s.backupPath, true
}

// claimPodDeletion clears the pod flag and returns the pod to delete.
// It returns false if there is no decoy pod to delete.
func (s *Session) claimPodDeletion() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.podDeployed {
		return "", false
	}
	s.podDeployed = false
	s.active = false
	return s.hookPodName, true
}
