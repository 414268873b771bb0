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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err      error
		name     string
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "non transient error",
			err:      assert.AnError,
			expected: false,
		},
		{
			name:     "i/o timeout",
			err:      errors.New("dial tcp 10.0.0.1:443: i/o timeout"),
			expected: true,
		},
		{
			name:     "connection refused",
			err:      errors.New("connection refused"),
			expected: true,
		},
		{
			name:     "unable to upgrade connection",
			err:      errors.New("unable to upgrade connection: pod does not exist"),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

func TestStageError(t *testing.T) {
	cause := errors.New("pods \"payments-hook\" is forbidden")
	err := NewStageError("apply decoy pod", ErrCollaborator, cause)

	assert.ErrorIs(t, err, ErrCollaborator)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, "apply decoy pod: pods \"payments-hook\" is forbidden", err.Error())

	wrapped := fmt.Errorf("hook failed: %w", err)
	var stageErr StageError
	assert.True(t, errors.As(wrapped, &stageErr))
	assert.Equal(t, "apply decoy pod", stageErr.Stage)

	noCause := NewStageError("wait for decoy pod", ErrReadinessTimeout, nil)
	assert.Equal(t, "wait for decoy pod: readiness timeout", noCause.Error())
	assert.ErrorIs(t, noCause, ErrReadinessTimeout)
}

func TestRequiresRollback(t *testing.T) {
	tests := []struct {
		err      error
		name     string
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "configuration", err: NewStageError("derive", ErrConfiguration, nil), expected: false},
		{name: "conflict", err: UserError{E: NewStageError("preflight", ErrConflict, nil)}, expected: false},
		{name: "readiness", err: NewStageError("wait", ErrReadinessTimeout, nil), expected: true},
		{name: "tunnel", err: NewStageError("wait", ErrTunnelTimeout, nil), expected: true},
		{name: "collaborator", err: NewStageError("apply", ErrCollaborator, assert.AnError), expected: true},
		{name: "interrupt", err: ErrIntSig, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RequiresRollback(tt.err))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("pod: %w", ErrNotFound)))
	assert.True(t, IsNotFound(errors.New("pods \"payments-hook\" not found")))
	assert.False(t, IsNotFound(assert.AnError))
	assert.False(t, IsNotFound(nil))
}
