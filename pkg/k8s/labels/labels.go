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

package labels

import (
	"fmt"
	"sort"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// NameLabel is the identity label matched by the decoy service selector
	NameLabel = "name"

	// HookTokenAnnotation carries the random token of a decoy pod definition
	HookTokenAnnotation = "khook.okteto.com/token"

	// HookServiceAnnotation records the service a decoy pod was created for
	HookServiceAnnotation = "khook.okteto.com/service"
)

// TransformLabelsToSelector returns the label selector matching all the given labels.
// Keys are sorted so the selector is stable.
func TransformLabelsToSelector(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, labels[k]))
	}
	return strings.Join(pairs, ",")
}

// SetInMetadata sets the label in the object metadata
func SetInMetadata(om *metav1.ObjectMeta, key, value string) {
	if om.Labels == nil {
		om.Labels = map[string]string{}
	}
	om.Labels[key] = value
}
