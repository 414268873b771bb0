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

package client

import (
	"fmt"

	"github.com/okteto/khook/pkg/log"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Options selects the kubeconfig context and namespace a client works on
type Options struct {
	Context   string
	Namespace string
}

// Provider provides a kubernetes client, its rest config and the namespace to work on
type Provider interface {
	Provide(opts Options) (kubernetes.Interface, *rest.Config, string, error)
}

// KubeConfigProvider provides clients from the local kubeconfig. It honors KUBECONFIG.
type KubeConfigProvider struct {
	loadingRules *clientcmd.ClientConfigLoadingRules
}

// NewKubeConfigProvider returns a provider using the default loading rules
func NewKubeConfigProvider() *KubeConfigProvider {
	return &KubeConfigProvider{
		loadingRules: clientcmd.NewDefaultClientConfigLoadingRules(),
	}
}

// Provide returns a client for the context and namespace in opts, or the current ones if empty
func (p *KubeConfigProvider) Provide(opts Options) (kubernetes.Interface, *rest.Config, string, error) {
	clientConfig := p.clientConfig(opts)

	namespace, _, err := clientConfig.Namespace()
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to resolve the namespace: %w", err)
	}

	config, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to load your kubeconfig: %w", err)
	}

	c, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to create the kubernetes client: %w", err)
	}

	log.Infof("using context '%s' and namespace '%s'", p.currentContext(clientConfig), namespace)
	return c, config, namespace, nil
}

func (p *KubeConfigProvider) clientConfig(opts Options) clientcmd.ClientConfig {
	overrides := &clientcmd.ConfigOverrides{}
	if opts.Context != "" {
		overrides.CurrentContext = opts.Context
	}
	if opts.Namespace != "" {
		overrides.Context.Namespace = opts.Namespace
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(p.loadingRules, overrides)
}

func (p *KubeConfigProvider) currentContext(clientConfig clientcmd.ClientConfig) string {
	raw, err := clientConfig.RawConfig()
	if err != nil {
		return ""
	}
	return raw.CurrentContext
}
