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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionClaims(t *testing.T) {
	s := NewSession(time.Now())
	s.setTarget("payments", "payments-hook")
	s.setBackupPath("/backups/payments.bak.yml")

	_, ok := s.claimServiceRestore()
	assert.False(t, ok)
	_, ok = s.claimPodDeletion()
	assert.False(t, ok)

	s.markPodDeployed()
	s.markServiceReplaced()
	s.markActive()

	path, ok := s.claimServiceRestore()
	assert.True(t, ok)
	assert.Equal(t, "/backups/payments.bak.yml", path)
	_, ok = s.claimServiceRestore()
	assert.False(t, ok)

	name, ok := s.claimPodDeletion()
	assert.True(t, ok)
	assert.Equal(t, "payments-hook", name)
	_, ok = s.claimPodDeletion()
	assert.False(t, ok)

	snapshot := s.Snapshot()
	assert.False(t, snapshot.Active)
	assert.False(t, snapshot.PodDeployed)
	assert.False(t, snapshot.ServiceReplaced)
}

func TestSessionConcurrentClaims(t *testing.T) {
	s := NewSession(time.Now())
	s.setTarget("payments", "payments-hook")
	s.markPodDeployed()

	var wg sync.WaitGroup
	var mu sync.Mutex
	claimed := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.claimPodDeletion(); ok {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, claimed)
}

func TestSessionDegraded(t *testing.T) {
	s := NewSession(time.Now())
	s.markDegraded([]string{"8080->8080"})

	snapshot := s.Snapshot()
	assert.True(t, snapshot.Degraded)
	assert.Equal(t, []string{"8080->8080"}, snapshot.FailedRules)

	// snapshots don't share memory with the session
	snapshot.FailedRules[0] = "changed"
	assert.Equal(t, []string{"8080->8080"}, s.Snapshot().FailedRules)
}
