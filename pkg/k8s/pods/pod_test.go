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
	"testing"
	"time"

	"github.com/okteto/khook/pkg/k8s/labels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apiv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func newPod(name string, podLabels map[string]string) *apiv1.Pod {
	return &apiv1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "test",
			Labels:    podLabels,
		},
	}
}

func TestDestroyBySelector(t *testing.T) {
	var tests = []struct {
		name     string
		selector map[string]string
		exclude  string
		pods     []*apiv1.Pod
		expected []string
		wantErr  bool
	}{
		{
			name:     "empty-selector",
			selector: map[string]string{},
			pods:     []*apiv1.Pod{newPod("payments-1", map[string]string{"app": "payments"})},
			wantErr:  true,
		},
		{
			name:     "single-selector",
			selector: map[string]string{"app": "payments"},
			pods: []*apiv1.Pod{
				newPod("payments-1", map[string]string{"app": "payments"}),
				newPod("payments-2", map[string]string{"app": "payments"}),
				newPod("orders-1", map[string]string{"app": "orders"}),
			},
			expected: []string{"payments-1", "payments-2"},
		},
		{
			name:     "multiple-labels",
			selector: map[string]string{"app": "payments", "tier": "web"},
			pods: []*apiv1.Pod{
				newPod("payments-web", map[string]string{"app": "payments", "tier": "web"}),
				newPod("payments-worker", map[string]string{"app": "payments", "tier": "worker"}),
			},
			expected: []string{"payments-web"},
		},
		{
			name:     "excluded",
			selector: map[string]string{"app": "payments"},
			exclude:  "payments-hook",
			pods: []*apiv1.Pod{
				newPod("payments-1", map[string]string{"app": "payments"}),
				newPod("payments-hook", map[string]string{"app": "payments"}),
			},
			expected: []string{"payments-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c := fake.NewSimpleClientset()
			for _, p := range tt.pods {
				require.NoError(t, c.Tracker().Add(p))
			}

			deleted, err := DestroyBySelector(ctx, "test", tt.selector, tt.exclude, c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.expected, deleted)
			for _, name := range tt.expected {
				assert.False(t, Exists(ctx, name, "test", c))
			}
		})
	}
}

func TestDestroyNotFound(t *testing.T) {
	c := fake.NewSimpleClientset()
	assert.NoError(t, Destroy(context.Background(), "missing", "test", c))
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := &apiv1.Service{ObjectMeta: metav1.ObjectMeta{Name: "payments", Namespace: "test"}}

	c := fake.NewSimpleClientset()
	pod := TranslateHookPod(svc, "gigurra/khook:1.0.0", "token-a")
	require.NoError(t, Create(ctx, pod, c))

	// same definition applied twice
	require.NoError(t, Create(ctx, pod.DeepCopy(), c))

	stale := TranslateHookPod(svc, "gigurra/khook:1.0.0", "token-b")
	assert.Error(t, Create(ctx, stale, c))
}

func TestIsContainerRunning(t *testing.T) {
	now := metav1.NewTime(time.Now())
	var tests = []struct {
		name     string
		pod      *apiv1.Pod
		expected bool
	}{
		{
			name:     "nil",
			pod:      nil,
			expected: false,
		},
		{
			name:     "no-statuses",
			pod:      &apiv1.Pod{},
			expected: false,
		},
		{
			name: "waiting",
			pod: &apiv1.Pod{Status: apiv1.PodStatus{ContainerStatuses: []apiv1.ContainerStatus{
				{State: apiv1.ContainerState{Waiting: &apiv1.ContainerStateWaiting{Reason: "ContainerCreating"}}},
			}}},
			expected: false,
		},
		{
			name: "running-without-start",
			pod: &apiv1.Pod{Status: apiv1.PodStatus{ContainerStatuses: []apiv1.ContainerStatus{
				{State: apiv1.ContainerState{Running: &apiv1.ContainerStateRunning{}}},
			}}},
			expected: false,
		},
		{
			name: "running",
			pod: &apiv1.Pod{Status: apiv1.PodStatus{ContainerStatuses: []apiv1.ContainerStatus{
				{State: apiv1.ContainerState{Running: &apiv1.ContainerStateRunning{StartedAt: now}}},
			}}},
			expected: true,
		},
		{
			name: "terminating",
			pod: &apiv1.Pod{
				ObjectMeta: metav1.ObjectMeta{DeletionTimestamp: &now},
				Status: apiv1.PodStatus{ContainerStatuses: []apiv1.ContainerStatus{
					{State: apiv1.ContainerState{Running: &apiv1.ContainerStateRunning{StartedAt: now}}},
				}},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsContainerRunning(tt.pod))
		})
	}
}

func TestTranslateHookPod(t *testing.T) {
	svc := &apiv1.Service{ObjectMeta: metav1.ObjectMeta{Name: "payments", Namespace: "test"}}
	pod := TranslateHookPod(svc, "gigurra/khook:1.0.0", "abc")

	assert.Equal(t, "payments-hook", pod.Name)
	assert.Equal(t, "test", pod.Namespace)
	assert.Equal(t, map[string]string{labels.NameLabel: "payments-hook"}, pod.Labels)
	assert.Equal(t, "abc", pod.Annotations[labels.HookTokenAnnotation])
	assert.Equal(t, "Pod", pod.Kind)
	require.Len(t, pod.Spec.Containers, 1)
	assert.Equal(t, "gigurra/khook:1.0.0", pod.Spec.Containers[0].Image)
}

func TestValidateHookPodName(t *testing.T) {
	assert.NoError(t, ValidateHookPodName("payments-hook"))
	assert.Error(t, ValidateHookPodName("a-very-long-service-name-that-goes-well-beyond-the-label-limit-hook"))
	assert.Error(t, ValidateHookPodName("Payments_hook"))
}
