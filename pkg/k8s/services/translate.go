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

package services

import (
	"github.com/okteto/khook/pkg/k8s/labels"
	apiv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

var (
	// strippedAnnotations are written by tooling that owns the original service
	strippedAnnotations = []string{
		"field.cattle.io/targetWorkloadIds",
		"kubectl.kubernetes.io/last-applied-configuration",
		"workload.cattle.io/targetWorkloadIdNoop",
		"workload.cattle.io/workloadPortBased",
	}

	strippedLabels = []string{
		"cattle.io/creator",
	}
)

// TranslateHook returns a copy of s whose selector points only to the pod named podName.
// Server-assigned metadata and tooling ownership markers are removed, ports are kept as they are.
func TranslateHook(s *apiv1.Service, podName string) *apiv1.Service {
	result := Sanitize(s)
	result.ResourceVersion = ""
	result.UID = ""
	result.Generation = 0
	result.CreationTimestamp = metav1.Time{}
	result.OwnerReferences = nil
	result.ManagedFields = nil
	result.Status = apiv1.ServiceStatus{}

	for _, key := range strippedAnnotations {
		delete(result.Annotations, key)
	}
	if len(result.Annotations) == 0 {
		result.Annotations = nil
	}
	for _, key := range strippedLabels {
		delete(result.Labels, key)
	}
	if len(result.Labels) == 0 {
		result.Labels = nil
	}

	result.Spec.Selector = map[string]string{
		labels.NameLabel: podName,
	}
	return result
}

// Sanitize returns a copy of s that can be applied again once the live object has changed
func Sanitize(s *apiv1.Service) *apiv1.Service {
	result := s.DeepCopy()
	result.TypeMeta = metav1.TypeMeta{
		APIVersion: "v1",
		Kind:       "Service",
	}
	result.ResourceVersion = ""
	result.SelfLink = ""
	return result
}
