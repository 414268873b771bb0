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

package apply

import (
	"context"
	"fmt"

	"github.com/okteto/khook/pkg/k8s/pods"
	"github.com/okteto/khook/pkg/k8s/services"
	"github.com/okteto/khook/pkg/log"
	"github.com/spf13/afero"
	apiv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/yaml"
)

// Marshal returns the yaml manifest of a service or a pod
func Marshal(obj runtime.Object) ([]byte, error) {
	switch o := obj.(type) {
	case *apiv1.Service:
		o = o.DeepCopy()
		o.TypeMeta = metav1.TypeMeta{APIVersion: "v1", Kind: "Service"}
		return yaml.Marshal(o)
	case *apiv1.Pod:
		o = o.DeepCopy()
		o.TypeMeta = metav1.TypeMeta{APIVersion: "v1", Kind: "Pod"}
		return yaml.Marshal(o)
	default:
		return nil, fmt.Errorf("unsupported kind '%s'", obj.GetObjectKind().GroupVersionKind().Kind)
	}
}

// Decode returns the object defined by a yaml or json manifest
func Decode(b []byte) (runtime.Object, error) {
	obj, _, err := scheme.Codecs.UniversalDeserializer().Decode(b, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("could not decode manifest: %w", err)
	}
	return obj, nil
}

// WriteFile writes the manifest of obj to path
func WriteFile(fs afero.Fs, path string, obj runtime.Object) error {
	b, err := Marshal(obj)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, b, 0600)
}

// ReadFile returns the object defined by the manifest stored at path
func ReadFile(fs afero.Fs, path string) (runtime.Object, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("could not read '%s': %w", path, err)
	}
	return Decode(b)
}

// ApplyFile applies the manifest stored at path
func ApplyFile(ctx context.Context, fs afero.Fs, path, namespace string, c kubernetes.Interface) (runtime.Object, error) {
	obj, err := ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	log.Infof("applying '%s'", path)
	if err := Apply(ctx, obj, namespace, c); err != nil {
		return nil, err
	}
	return obj, nil
}

// Apply creates or updates a service, or creates a pod.
// Objects without a namespace are applied to namespace.
func Apply(ctx context.Context, obj runtime.Object, namespace string, c kubernetes.Interface) error {
	switch o := obj.(type) {
	case *apiv1.Service:
		if o.Namespace == "" {
			o.Namespace = namespace
		}
		return services.Deploy(ctx, o, c)
	case *apiv1.Pod:
		if o.Namespace == "" {
			o.Namespace = namespace
		}
		return pods.Create(ctx, o, c)
	default:
		return fmt.Errorf("unsupported kind '%s'", obj.GetObjectKind().GroupVersionKind().Kind)
	}
}
