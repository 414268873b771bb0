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

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError is meant for errors displayed to the user. It can include a message and a hint
type UserError struct {
	E    error
	Hint string
}

// Error returns the error message
func (u UserError) Error() string {
	return u.E.Error()
}

func (u UserError) Unwrap() error {
	return u.E
}

var (
	// ErrConfiguration is raised when the target service is malformed or can't be hooked
	ErrConfiguration = errors.New("configuration error")

	// ErrConflict is raised when a decoy pod for the service already exists
	ErrConflict = errors.New("conflict")

	// ErrReadinessTimeout is raised when the decoy pod doesn't reach a running state in time
	ErrReadinessTimeout = errors.New("readiness timeout")

	// ErrTunnelTimeout is raised when the local tunnel endpoint doesn't become reachable in time
	ErrTunnelTimeout = errors.New("tunnel timeout")

	// ErrCollaborator is raised when the cluster or the remote shell report a failure
	ErrCollaborator = errors.New("collaborator error")

	// ErrRollbackStep is raised when reversing a mutation fails. It is never propagated out of a rollback
	ErrRollbackStep = errors.New("rollback step failed")

	// ErrIntSig is raised if we get an interrupt signal in the middle of a command
	ErrIntSig = errors.New("interrupt signal received")

	// ErrNotFound is raised when an object is not found
	ErrNotFound = errors.New("not found")

	// ErrOutboundNotImplemented is reported instead of silently skipping outbound tunnels
	ErrOutboundNotImplemented = errors.New("outbound tunnels are not implemented")
)

// StageError is the failure of one step of the hook sequence.
// It matches both its Kind and its cause with errors.Is.
type StageError struct {
	Stage string
	Kind  error
	Err   error
}

// NewStageError returns a StageError of the given kind
func NewStageError(stage string, kind, err error) StageError {
	return StageError{Stage: stage, Kind: kind, Err: err}
}

// Error returns the error message
func (e StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

// Unwrap returns the kind and the cause
func (e StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// RequiresRollback returns false for the errors raised before any cluster mutation
func RequiresRollback(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrConfiguration) && !errors.Is(err, ErrConflict)
}

// IsAlreadyExists raised if the Kubernetes API returns AlreadyExists
func IsAlreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

// IsNotFound returns true if err is of the type not found
func IsNotFound(err error) bool {
	return err != nil && (errors.Is(err, ErrNotFound) || strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "doesn't exist"))
}

// IsTransient returns true if err represents a transient error
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case strings.Contains(err.Error(), "operation time out"),
		strings.Contains(err.Error(), "operation timed out"),
		strings.Contains(err.Error(), "i/o timeout"),
		strings.Contains(err.Error(), "Client.Timeout exceeded while awaiting headers"),
		strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"),
		strings.Contains(err.Error(), "client connection lost"),
		strings.Contains(err.Error(), "no route to host"),
		strings.Contains(err.Error(), "unexpected EOF"),
		strings.Contains(err.Error(), "TLS handshake timeout"),
		strings.Contains(err.Error(), "broken pipe"),
		strings.Contains(err.Error(), "network is unreachable"),
		strings.Contains(err.Error(), "unable to upgrade connection"):
		return true
	default:
		return false
	}
}

// IsClosedNetwork returns true if the error is caused by a closed network connection
func IsClosedNetwork(err error) bool {
	if err == nil {
		return false
	}

	return strings.Contains(err.Error(), "use of closed network connection")
}
