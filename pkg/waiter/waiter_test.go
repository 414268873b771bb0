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

package waiter

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func countingPredicate(trueAfter int) (Predicate, *int) {
	calls := 0
	return func(context.Context) (bool, error) {
		calls++
		return trueAfter >= 0 && calls > trueAfter, nil
	}, &calls
}

func TestMaxAttempts(t *testing.T) {
	var tests = []struct {
		name        string
		maxDuration time.Duration
		interval    time.Duration
		expected    int
	}{
		{name: "pod budget", maxDuration: 60 * time.Second, interval: 500 * time.Millisecond, expected: 120},
		{name: "tunnel budget", maxDuration: 15 * time.Second, interval: 500 * time.Millisecond, expected: 30},
		{name: "rounds up", maxDuration: 1100 * time.Millisecond, interval: 500 * time.Millisecond, expected: 3},
		{name: "shorter than interval", maxDuration: 100 * time.Millisecond, interval: time.Second, expected: 1},
		{name: "zero interval", maxDuration: time.Second, interval: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaxAttempts(tt.maxDuration, tt.interval))
		})
	}
}

func TestWaitFor(t *testing.T) {
	var tests = []struct {
		name          string
		trueAfter     int
		maxDuration   time.Duration
		interval      time.Duration
		expected      bool
		expectedCalls int
	}{
		{
			name:          "true at first evaluation",
			trueAfter:     0,
			maxDuration:   50 * time.Millisecond,
			interval:      time.Millisecond,
			expected:      true,
			expectedCalls: 1,
		},
		{
			name:          "true after k intervals",
			trueAfter:     3,
			maxDuration:   50 * time.Millisecond,
			interval:      time.Millisecond,
			expected:      true,
			expectedCalls: 4,
		},
		{
			name:          "never true",
			trueAfter:     -1,
			maxDuration:   10 * time.Millisecond,
			interval:      time.Millisecond,
			expected:      false,
			expectedCalls: 10,
		},
		{
			name:          "never true with a partial interval",
			trueAfter:     -1,
			maxDuration:   5500 * time.Microsecond,
			interval:      time.Millisecond,
			expected:      false,
			expectedCalls: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predicate, calls := countingPredicate(tt.trueAfter)
			ok, err := WaitFor(context.Background(), predicate, tt.maxDuration, tt.interval, "")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.Equal(t, tt.expectedCalls, *calls)
		})
	}
}

func TestWaitForPredicateError(t *testing.T) {
	calls := 0
	predicate := func(context.Context) (bool, error) {
		calls++
		if calls == 2 {
			return false, assert.AnError
		}
		return false, nil
	}

	ok, err := WaitFor(context.Background(), predicate, time.Second, time.Millisecond, "")
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, ok)
	assert.Equal(t, 2, calls)
}

func TestWaitForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	predicate := func(context.Context) (bool, error) {
		cancel()
		return false, nil
	}

	ok, err := WaitFor(ctx, predicate, time.Minute, time.Second, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestWaitForFakeClock(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	p := NewWithClock(fc)
	predicate, calls := countingPredicate(-1)

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := p.WaitFor(context.Background(), predicate, 60*time.Second, 500*time.Millisecond, "waiting for pod")
		done <- result{ok: ok, err: err}
	}()

	for {
		select {
		case r := <-done:
			require.NoError(t, r.err)
			assert.False(t, r.ok)
			assert.Equal(t, 120, *calls)
			return
		default:
			if fc.HasWaiters() {
				fc.Step(500 * time.Millisecond)
			}
			runtime.Gosched()
		}
	}
}
