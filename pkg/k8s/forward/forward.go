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

package forward

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/okteto/khook/pkg/log"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/httpstream"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"
)

// PortForward forwards a local port to a port of a pod
type PortForward struct {
	iface      string
	namespace  string
	pod        string
	local      int
	remote     int
	restConfig *rest.Config
	client     kubernetes.Interface

	mu       sync.Mutex
	stopChan chan struct{}
	err      error
}

// NewPortForward initializes a new instance
func NewPortForward(iface string, restConfig *rest.Config, c kubernetes.Interface, namespace, pod string, local, remote int) *PortForward {
	return &PortForward{
		iface:      iface,
		namespace:  namespace,
		pod:        pod,
		local:      local,
		remote:     remote,
		restConfig: restConfig,
		client:     c,
	}
}

// String returns the forward as 'local->pod:remote'
func (p *PortForward) String() string {
	return fmt.Sprintf("%d->%s:%d", p.local, p.pod, p.remote)
}

// Start starts forwarding in the background. It returns once the forwarder is built,
// reachability of the local port must be checked by the caller.
func (p *PortForward) Start() error {
	dialer, err := p.buildDialer()
	if err != nil {
		return fmt.Errorf("failed to k8s forward to pod/%s: %w", p.pod, err)
	}

	prefix := fmt.Sprintf("port-forward %s", p.String())
	out := log.Writer(prefix, logrus.DebugLevel)
	errOut := log.Writer(prefix, logrus.InfoLevel)

	p.mu.Lock()
	p.stopChan = make(chan struct{}, 1)
	stopChan := p.stopChan
	p.mu.Unlock()

	pf, err := portforward.NewOnAddresses(
		dialer,
		[]string{p.iface},
		[]string{fmt.Sprintf("%d:%d", p.local, p.remote)},
		stopChan,
		make(chan struct{}, 1),
		out,
		errOut)
	if err != nil {
		return fmt.Errorf("failed to k8s forward to pod/%s: %w", p.pod, err)
	}

	go func() {
		defer out.Close()
		defer errOut.Close()
		if err := pf.ForwardPorts(); err != nil {
			log.Infof("k8s forwarding %s finished with errors: %s", p.String(), err)
			p.mu.Lock()
			p.err = err
			p.mu.Unlock()
			return
		}
		log.Infof("k8s forwarding %s finished", p.String())
	}()

	return nil
}

// Error returns the error the forwarder finished with, if any
func (p *PortForward) Error() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stop stops the forwarder
func (p *PortForward) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopChan != nil {
		close(p.stopChan)
		p.stopChan = nil
		log.Infof("stopped k8s forwarding %s", p.String())
	}
}

func (p *PortForward) buildDialer() (httpstream.Dialer, error) {
	if p.restConfig == nil {
		return nil, fmt.Errorf("restConfig is nil")
	}

	url := p.client.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(p.namespace).
		Name(p.pod).
		SubResource("portforward").URL()

	transport, upgrader, err := spdy.RoundTripperFor(p.restConfig)
	if err != nil {
		return nil, err
	}

	return spdy.NewDialer(upgrader, &http.Client{Transport: transport}, http.MethodPost, url), nil
}
