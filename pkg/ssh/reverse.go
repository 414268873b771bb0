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

package ssh

import (
	"context"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	oktetoErrors "github.com/okteto/khook/pkg/errors"
	"github.com/okteto/khook/pkg/log"
	"github.com/okteto/khook/pkg/model"
	"golang.org/x/crypto/ssh"
)

const (
	defaultUser          = "root"
	defaultRetries       = 10
	defaultRetryInterval = 500 * time.Millisecond
)

type reverse struct {
	rule     model.Reverse
	iface    string
	listener net.Listener
}

// ReverseManager opens one reverse tunnel per rule over a single ssh connection
type ReverseManager struct {
	mu             sync.Mutex
	ctx            context.Context
	sshAddr        string
	localInterface string
	config         *ssh.ClientConfig
	reverses       map[int]*reverse
	client         *ssh.Client
	retries        int
	retryInterval  time.Duration
}

// NewReverseManager returns a newly initialized instance of ReverseManager
func NewReverseManager(ctx context.Context, sshAddr, localInterface string, signer ssh.Signer) *ReverseManager {
	return &ReverseManager{
		ctx:            ctx,
		sshAddr:        sshAddr,
		localInterface: localInterface,
		reverses:       make(map[int]*reverse),
		retries:        defaultRetries,
		retryInterval:  defaultRetryInterval,
		config: &ssh.ClientConfig{
			User: defaultUser,
			Auth: []ssh.AuthMethod{ssh.PublicKeys(signer)},
			// skipcq GSC-G106
			// The decoy pod doesn't have a stable identity, and it's only reachable through the k8s port-forward.
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         10 * time.Second,
		},
	}
}

// Add registers a reverse tunnel
func (r *ReverseManager) Add(f model.Reverse) error {
	if err := f.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reverses[f.Remote]; ok {
		return fmt.Errorf("remote port %d is listed multiple times", f.Remote)
	}

	r.reverses[f.Remote] = &reverse{rule: f, iface: r.localInterface}
	return nil
}

// Rules returns the registered rules sorted by remote port
func (r *ReverseManager) Rules() []model.Reverse {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]model.Reverse, 0, len(r.reverses))
	for _, rt := range r.reverses {
		result = append(result, rt.rule)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Remote < result[j].Remote })
	return result
}

// Start connects to the ssh server and opens every reverse tunnel.
// A failed rule doesn't prevent opening the others: the returned error holds one entry per failed rule.
func (r *ReverseManager) Start() error {
	log.Info("starting reverse forward manager")
	rules := r.Rules()

	client, err := r.connect()
	if err != nil {
		var result *multierror.Error
		for _, rule := range rules {
			result = multierror.Append(result, &RuleError{Rule: rule, Err: err})
		}
		return result.ErrorOrNil()
	}

	r.mu.Lock()
	r.client = client
	r.mu.Unlock()

	var result *multierror.Error
	for _, rule := range rules {
		listener, err := client.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", rule.Remote))
		if err != nil {
			log.Infof("failed to open reverse tunnel %s: %s", rule, err)
			result = multierror.Append(result, &RuleError{Rule: rule, Err: err})
			continue
		}

		r.mu.Lock()
		rt := r.reverses[rule.Remote]
		rt.listener = listener
		r.mu.Unlock()

		log.Infof("started reverse tunnel %s", rule)
		go rt.serve(r.ctx, listener)
	}

	return result.ErrorOrNil()
}

// Stop closes every reverse tunnel and the ssh connection
func (r *ReverseManager) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rt := range r.reverses {
		if rt.listener != nil {
			if err := rt.listener.Close(); err != nil && !oktetoErrors.IsClosedNetwork(err) {
				log.Infof("failed to close reverse tunnel %s: %s", rt.rule, err)
			}
			rt.listener = nil
		}
	}

	if r.client != nil {
		if err := r.client.Close(); err != nil && !oktetoErrors.IsClosedNetwork(err) {
			log.Infof("failed to close ssh connection: %s", err)
		}
		r.client = nil
	}
	log.Info("stopped reverse forward manager")
}

func (r *ReverseManager) connect() (*ssh.Client, error) {
	var lastErr error
	for i := 0; i < r.retries; i++ {
		if i > 0 {
			select {
			case <-time.After(r.retryInterval):
			case <-r.ctx.Done():
				return nil, r.ctx.Err()
			}
		}

		d := net.Dialer{Timeout: r.config.Timeout}
		conn, err := d.DialContext(r.ctx, "tcp", r.sshAddr)
		if err != nil {
			lastErr = err
			log.Infof("ssh connection to %s is not yet ready: %s", r.sshAddr, err)
			continue
		}

		clientConn, chans, reqs, err := ssh.NewClientConn(conn, r.sshAddr, r.config)
		if err != nil {
			conn.Close()
			lastErr = err
			log.Infof("ssh handshake with %s failed: %s", r.sshAddr, err)
			continue
		}

		log.Infof("ssh connection to %s is ready", r.sshAddr)
		return ssh.NewClient(clientConn, chans, reqs), nil
	}

	return nil, fmt.Errorf("failed to connect to %s: %w", r.sshAddr, lastErr)
}

func (rt *reverse) serve(ctx context.Context, listener net.Listener) {
	for {
		remote, err := listener.Accept()
		if err != nil {
			if err != io.EOF && !oktetoErrors.IsClosedNetwork(err) {
				log.Infof("reverse tunnel %s stopped accepting connections: %s", rt.rule, err)
			}
			return
		}
		go rt.handle(ctx, remote)
	}
}

func (rt *reverse) handle(ctx context.Context, remote net.Conn) {
	defer remote.Close()

	var d net.Dialer
	local, err := d.DialContext(ctx, "tcp", net.JoinHostPort(rt.iface, fmt.Sprintf("%d", rt.rule.Local)))
	if err != nil {
		log.Infof("reverse tunnel %s failed to open local port %d: %s", rt.rule, rt.rule.Local, err)
		return
	}
	defer local.Close()

	chDone := make(chan bool, 2)
	go func() {
		if _, err := io.Copy(remote, local); err != nil && !oktetoErrors.IsClosedNetwork(err) {
			log.Infof("error while copying %d->%d: %s", rt.rule.Local, rt.rule.Remote, err)
		}
		chDone <- true
	}()

	go func() {
		if _, err := io.Copy(local, remote); err != nil && !oktetoErrors.IsClosedNetwork(err) {
			log.Infof("error while copying %d->%d: %s", rt.rule.Remote, rt.rule.Local, err)
		}
		chDone <- true
	}()

	log.Debugf("reverse tunnel %s transferring", rt.rule)
	<-chDone
}

// RuleError is the failure to open the reverse tunnel of a rule
type RuleError struct {
	Rule model.Reverse
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("reverse tunnel %s: %s", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}
