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

package tunnel

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	oktetoErrors "github.com/okteto/khook/pkg/errors"
	"github.com/okteto/khook/pkg/log"
	"github.com/okteto/khook/pkg/model"
)

// Process is a long-lived tunnel started by the supervisor
type Process interface {
	Stop()
}

// Forwarder forwards a local port to the decoy pod
type Forwarder interface {
	Process
	Start() error
	String() string
}

// ReverseTunnels opens reverse tunnels from the decoy pod to the local machine
type ReverseTunnels interface {
	Process
	Add(r model.Reverse) error
	Start() error
}

// Supervisor starts the tunnels of a session. Tunnels are never stopped by the supervisor itself:
// they live as long as the process, StopAll is only called on exit.
type Supervisor struct {
	mu        sync.Mutex
	processes []Process
}

// NewSupervisor returns an empty supervisor
func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

// StartPortForward starts pf in the background
func (s *Supervisor) StartPortForward(pf Forwarder) error {
	log.Infof("starting port-forward %s", pf.String())
	if err := pf.Start(); err != nil {
		return err
	}
	s.track(pf)
	return nil
}

// StartReverseTunnels opens one reverse tunnel per rule. Failed rules are logged and
// returned in a multierror, they never stop the remaining rules.
func (s *Supervisor) StartReverseTunnels(r ReverseTunnels, rules []model.Reverse) error {
	var result *multierror.Error
	added := 0
	for _, rule := range rules {
		log.Infof("setting up inbound traffic redirect %s", rule)
		if err := r.Add(rule); err != nil {
			log.Infof("skipping reverse tunnel %s: %s", rule, err)
			result = multierror.Append(result, fmt.Errorf("reverse tunnel %s: %w", rule, err))
			continue
		}
		added++
	}

	if added > 0 {
		if err := r.Start(); err != nil {
			if merr, ok := err.(*multierror.Error); ok {
				result = multierror.Append(result, merr.Errors...)
			} else {
				result = multierror.Append(result, err)
			}
		}
		s.track(r)
	}

	if result != nil {
		for _, err := range result.Errors {
			log.Infof("inbound traffic redirect failed: %s", err)
		}
	}
	return result.ErrorOrNil()
}

// ReportOutbound reports that outbound traffic is not redirected
func (s *Supervisor) ReportOutbound() {
	log.Infof("%s", oktetoErrors.ErrOutboundNotImplemented)
	log.Information("Only inbound traffic is redirected, %s", oktetoErrors.ErrOutboundNotImplemented)
}

// Processes returns the tunnels started so far
func (s *Supervisor) Processes() []Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Process, len(s.processes))
	copy(result, s.processes)
	return result
}

// StopAll stops every tunnel, most recent first
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	processes := s.processes
	s.processes = nil
	s.mu.Unlock()

	for i := len(processes) - 1; i >= 0; i-- {
		processes[i].Stop()
	}
}

func (s *Supervisor) track(p Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processes = append(s.processes, p)
}
