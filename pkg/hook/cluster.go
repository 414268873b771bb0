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
	"context"
	"fmt"
	"io"

	"github.com/okteto/khook/pkg/k8s/apply"
	"github.com/okteto/khook/pkg/k8s/forward"
	"github.com/okteto/khook/pkg/k8s/pods"
	"github.com/okteto/khook/pkg/k8s/services"
	"github.com/okteto/khook/pkg/model"
	khookssh "github.com/okteto/khook/pkg/ssh"
	"github.com/okteto/khook/pkg/tunnel"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
	apiv1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// Cluster is the control plane as seen by a hook session
type Cluster interface {
	GetService(ctx context.Context, name string) (*apiv1.Service, error)
	GetPod(ctx context.Context, name string) (*apiv1.Pod, error)
	PodExists(ctx context.Context, name string) (bool, error)
	ApplyFile(ctx context.Context, path string) error
	DeletePod(ctx context.Context, name string) error
	DeletePodsBySelector(ctx context.Context, selector map[string]string, exclude string) ([]string, error)
}

// Shell runs commands in the decoy pod
type Shell interface {
	CopyFile(ctx context.Context, pod *apiv1.Pod, content io.Reader, remotePath string) error
	Exec(ctx context.Context, pod *apiv1.Pod, stdin io.Reader, command []string) error
}

// TunnelFactory builds the tunnels of a session
type TunnelFactory interface {
	PortForward(pod string, local, remote int) tunnel.Forwarder
	ReverseTunnels(ctx context.Context, sshPort int) tunnel.ReverseTunnels
}

type kubeCluster struct {
	c         kubernetes.Interface
	namespace string
	fs        afero.Fs
}

// NewCluster returns a Cluster working on namespace. Files are read from fs.
func NewCluster(c kubernetes.Interface, namespace string, fs afero.Fs) Cluster {
	return &kubeCluster{c: c, namespace: namespace, fs: fs}
}

func (k *kubeCluster) GetService(ctx context.Context, name string) (*apiv1.Service, error) {
	return services.Get(ctx, name, k.namespace, k.c)
}

func (k *kubeCluster) GetPod(ctx context.Context, name string) (*apiv1.Pod, error) {
	return pods.Get(ctx, name, k.namespace, k.c)
}

// PodExists lists every pod of the namespace, terminating pods included
func (k *kubeCluster) PodExists(ctx context.Context, name string) (bool, error) {
	podList, err := pods.List(ctx, k.namespace, "", k.c)
	if err != nil {
		return false, err
	}
	for i := range podList {
		if podList[i].Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (k *kubeCluster) ApplyFile(ctx context.Context, path string) error {
	_, err := apply.ApplyFile(ctx, k.fs, path, k.namespace, k.c)
	return err
}

func (k *kubeCluster) DeletePod(ctx context.Context, name string) error {
	return pods.Destroy(ctx, name, k.namespace, k.c)
}

func (k *kubeCluster) DeletePodsBySelector(ctx context.Context, selector map[string]string, exclude string) ([]string, error) {
	return pods.DestroyBySelector(ctx, k.namespace, selector, exclude, k.c)
}

type kubeTunnels struct {
	c          kubernetes.Interface
	restConfig *rest.Config
	namespace  string
	signer     ssh.Signer
}

// NewTunnelFactory returns a factory of k8s port-forwards and ssh reverse tunnels authenticated by signer
func NewTunnelFactory(c kubernetes.Interface, restConfig *rest.Config, namespace string, signer ssh.Signer) TunnelFactory {
	return &kubeTunnels{c: c, restConfig: restConfig, namespace: namespace, signer: signer}
}

func (k *kubeTunnels) PortForward(pod string, local, remote int) tunnel.Forwarder {
	return forward.NewPortForward(model.Localhost, k.restConfig, k.c, k.namespace, pod, local, remote)
}

func (k *kubeTunnels) ReverseTunnels(ctx context.Context, sshPort int) tunnel.ReverseTunnels {
	sshAddr := fmt.Sprintf("%s:%d", model.Localhost, sshPort)
	return khookssh.NewReverseManager(ctx, sshAddr, model.Localhost, k.signer)
}
