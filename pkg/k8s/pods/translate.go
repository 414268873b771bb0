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
	"fmt"

	"github.com/okteto/khook/pkg/k8s/labels"
	apiv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
)

// HookPodName returns the name of the decoy pod of a service
func HookPodName(service string) string {
	return fmt.Sprintf("%s-hook", service)
}

// ValidateHookPodName returns an error if name can't be used both as a pod name and as a label value
func ValidateHookPodName(name string) error {
	if errs := validation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("'%s' is not a valid pod name: %s", name, errs[0])
	}
	if errs := validation.IsValidLabelValue(name); len(errs) > 0 {
		return fmt.Errorf("'%s' is not a valid label value: %s", name, errs[0])
	}
	return nil
}

// TranslateHookPod returns the decoy pod that receives the traffic of service
func TranslateHookPod(service *apiv1.Service, image, token string) *apiv1.Pod {
	name := HookPodName(service.Name)
	pod := &apiv1.Pod{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Pod",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: service.Namespace,
			Annotations: map[string]string{
				labels.HookTokenAnnotation:   token,
				labels.HookServiceAnnotation: service.Name,
			},
		},
		Spec: apiv1.PodSpec{
			Containers: []apiv1.Container{
				{
					Name:  name,
					Image: image,
				},
			},
		},
	}
	labels.SetInMetadata(&pod.ObjectMeta, labels.NameLabel, name)
	return pod
}
