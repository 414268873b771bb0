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

package pods

import (
	"context"
	"fmt"
	"sort"

	oktetoErrors "github.com/okteto/khook/pkg/errors"
	"github.com/okteto/khook/pkg/k8s/labels"
	"github.com/okteto/khook/pkg/log"
	apiv1 "k8s.io/api/core/v1"
	k8sErrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Get returns a pod by name
func Get(ctx context.Context, name, namespace string, c kubernetes.Interface) (*apiv1.Pod, error) {
	return c.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
}

// List returns the pods of a namespace that match labelSelector
func List(ctx context.Context, namespace, labelSelector string, c kubernetes.Interface) ([]apiv1.Pod, error) {
	podList, err := c.CoreV1().Pods(namespace).List(
		ctx,
		metav1.ListOptions{
			LabelSelector: labelSelector,
		},
	)
	if err != nil {
		return nil, err
	}
	return podList.Items, nil
}

// Exists returns true if the pod is present and is not being deleted
func Exists(ctx context.Context, name, namespace string, c kubernetes.Interface) bool {
	pod, err := Get(ctx, name, namespace, c)
	if err != nil {
		return false
	}
	return pod.GetObjectMeta().GetDeletionTimestamp() == nil
}

// Create creates the pod. Creating again the same definition is a no-op, but a pod with the
// same name created from another definition is never overwritten.
func Create(ctx context.Context, pod *apiv1.Pod, c kubernetes.Interface) error {
	_, err := c.CoreV1().Pods(pod.Namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err == nil {
		return nil
	}

	if !k8sErrors.IsAlreadyExists(err) {
		return err
	}

	existing, getErr := Get(ctx, pod.Name, pod.Namespace, c)
	if getErr != nil {
		return err
	}

	token := pod.Annotations[labels.HookTokenAnnotation]
	if token != "" && existing.Annotations[labels.HookTokenAnnotation] == token {
		log.Infof("pod/%s already created from this definition", pod.Name)
		return nil
	}

	return fmt.Errorf("pod/%s already exists and was not created from this definition: %w", pod.Name, err)
}

// Destroy deletes a pod without waiting for its termination
func Destroy(ctx context.Context, name, namespace string, c kubernetes.Interface) error {
	err := c.CoreV1().Pods(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		if oktetoErrors.IsNotFound(err) {
			log.Infof("pod/%s was already deleted", name)
			return nil
		}
		return fmt.Errorf("error deleting kubernetes pod: %w", err)
	}

	log.Infof("pod/%s deleted", name)
	return nil
}

// DestroyBySelector deletes, without waiting for their termination, the pods matching selector.
// The pod named exclude is never deleted. It returns the names of the deleted pods.
func DestroyBySelector(ctx context.Context, namespace string, selector map[string]string, exclude string, c kubernetes.Interface) ([]string, error) {
	if len(selector) == 0 {
		return nil, fmt.Errorf("empty selector")
	}

	podList, err := List(ctx, namespace, labels.TransformLabelsToSelector(selector), c)
	if err != nil {
		return nil, err
	}

	sort.Slice(podList, func(i, j int) bool { return podList[i].Name < podList[j].Name })
	deleted := []string{}
	for i := range podList {
		name := podList[i].Name
		if name == exclude {
			continue
		}
		if err := Destroy(ctx, name, namespace, c); err != nil {
			return deleted, err
		}
		deleted = append(deleted, name)
	}

	return deleted, nil
}

// IsContainerRunning returns true once the first container of the pod reports a running state
func IsContainerRunning(pod *apiv1.Pod) bool {
	if pod == nil || pod.GetObjectMeta().GetDeletionTimestamp() != nil {
		return false
	}

	if len(pod.Status.ContainerStatuses) == 0 {
		return false
	}

	running := pod.Status.ContainerStatuses[0].State.Running
	return running != nil && !running.StartedAt.IsZero()
}
