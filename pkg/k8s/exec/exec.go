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

package exec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/okteto/khook/pkg/log"
	"github.com/sirupsen/logrus"
	apiv1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
)

// Executor runs one-shot commands in the containers of a pod
type Executor struct {
	c      kubernetes.Interface
	config *rest.Config
}

// NewExecutor returns an Executor for the cluster behind config
func NewExecutor(c kubernetes.Interface, config *rest.Config) *Executor {
	return &Executor{c: c, config: config}
}

// Exec runs command in the first container of pod and waits for it to finish
func (e *Executor) Exec(ctx context.Context, pod *apiv1.Pod, stdin io.Reader, command []string) error {
	if len(pod.Spec.Containers) == 0 {
		return fmt.Errorf("pod/%s has no containers", pod.Name)
	}
	container := pod.Spec.Containers[0].Name

	req := e.c.CoreV1().RESTClient().Post().
		Namespace(pod.Namespace).
		Resource("pods").
		Name(pod.Name).
		SubResource("exec").
		VersionedParams(&apiv1.PodExecOptions{
			Container: container,
			Command:   command,
			Stdin:     stdin != nil,
			Stdout:    true,
			Stderr:    true,
			TTY:       false,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(e.config, http.MethodPost, req.URL())
	if err != nil {
		log.Errorf("failed to establish the remote executor: %s", err.Error())
		return err
	}

	prefix := fmt.Sprintf("exec %s", pod.Name)
	stdout := log.Writer(prefix, logrus.DebugLevel)
	defer stdout.Close()
	stderr := &bytes.Buffer{}

	err = executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	})
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("'%s' failed: %w: %s", strings.Join(command, " "), err, msg)
		}
		return fmt.Errorf("'%s' failed: %w", strings.Join(command, " "), err)
	}

	if stderr.Len() > 0 {
		log.Infof("[%s] %s", prefix, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// CopyFile writes content to remotePath in the first container of pod, creating its folder
func (e *Executor) CopyFile(ctx context.Context, pod *apiv1.Pod, content io.Reader, remotePath string) error {
	command := []string{"sh", "-c", CopyCommand(remotePath)}
	return e.Exec(ctx, pod, content, command)
}

// CopyCommand returns the shell command that stores its stdin at remotePath
func CopyCommand(remotePath string) string {
	return fmt.Sprintf("mkdir -p %s && cat > %s", shellquote.Join(path.Dir(remotePath)), shellquote.Join(remotePath))
}
