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

// Package waiter polls a predicate until it holds or a time budget is exhausted.
package waiter

import (
	"context"
	"time"

	"github.com/okteto/khook/pkg/log"
	"k8s.io/utils/clock"
)

// Predicate is evaluated on every attempt. Returning an error aborts the wait.
type Predicate func(ctx context.Context) (bool, error)

// Poller evaluates predicates at a fixed interval
type Poller struct {
	clock clock.Clock
}

// New returns a poller driven by the wall clock
func New() *Poller {
	return &Poller{clock: clock.RealClock{}}
}

// NewWithClock returns a poller driven by c
func NewWithClock(c clock.Clock) *Poller {
	return &Poller{clock: c}
}

// MaxAttempts returns the number of evaluations done within maxDuration
func MaxAttempts(maxDuration, interval time.Duration) int {
	if interval <= 0 {
		return 1
	}
	attempts := int(maxDuration / interval)
	if maxDuration%interval != 0 {
		attempts++
	}
	if attempts < 1 {
		return 1
	}
	return attempts
}

// WaitFor evaluates predicate every interval until it returns true or maxDuration elapses.
// A timeout returns false and a nil error. Errors returned by the predicate, or the
// cancellation of ctx, are returned to the caller.
func (p *Poller) WaitFor(ctx context.Context, predicate Predicate, maxDuration, interval time.Duration, message string) (bool, error) {
	attempts := MaxAttempts(maxDuration, interval)
	for i := 0; i < attempts; i++ {
		if message != "" {
			log.Infof("%s (attempt %d/%d)", message, i+1, attempts)
		}

		ok, err := predicate(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			log.Infof("wait cancelled: %s", ctx.Err())
			return false, ctx.Err()
		case <-p.clock.After(interval):
		}
	}

	return false, nil
}

// WaitFor polls predicate with the wall clock
func WaitFor(ctx context.Context, predicate Predicate, maxDuration, interval time.Duration, message string) (bool, error) {
	return New().WaitFor(ctx, predicate, maxDuration, interval, message)
}
