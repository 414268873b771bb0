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

package test

import (
	"github.com/okteto/khook/pkg/k8s/client"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/rest"
)

// FakeK8sProvider provides a fake clientset preloaded with objects
type FakeK8sProvider struct {
	objects    []runtime.Object
	client     *fake.Clientset
	restConfig *rest.Config
	Namespace  string
	ErrProvide error
	LastOpts   client.Options
}

// NewFakeK8sProvider returns a provider whose clientset holds objects
func NewFakeK8sProvider(objects ...runtime.Object) *FakeK8sProvider {
	return &FakeK8sProvider{objects: objects, Namespace: "test"}
}

// Provide returns always the same fake clientset
func (f *FakeK8sProvider) Provide(opts client.Options) (kubernetes.Interface, *rest.Config, string, error) {
	f.LastOpts = opts
	if f.ErrProvide != nil {
		return nil, nil, "", f.ErrProvide
	}

	namespace := f.Namespace
	if opts.Namespace != "" {
		namespace = opts.Namespace
	}

	return f.Client(), f.restConfig, namespace, nil
}

// Client returns the fake clientset, creating it on first use
func (f *FakeK8sProvider) Client() *fake.Clientset {
	if f.client == nil {
		f.client = fake.NewSimpleClientset(f.objects...)
	}
	return f.client
}
