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

package cmd

import (
	"fmt"

	"github.com/okteto/khook/pkg/config"
	"github.com/okteto/khook/pkg/k8s/client"
	"github.com/okteto/khook/pkg/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// K8sOptions are the flags that select the cluster
type K8sOptions struct {
	Namespace  string
	K8sContext string
}

func (o *K8sOptions) clientOptions() client.Options {
	return client.Options{Context: o.K8sContext, Namespace: o.Namespace}
}

// NewRoot returns the khook command. Its subcommands restore backups and print the version.
func NewRoot(k8sProvider client.Provider, fs afero.Fs) *cobra.Command {
	var logLevel string
	k8sOpts := &K8sOptions{}

	root := Hook(k8sProvider, fs, k8sOpts)
	root.Use = fmt.Sprintf("%s [options] <service-name>", config.GetBinaryName())
	root.SilenceErrors = true
	root.PersistentPreRun = func(ccmd *cobra.Command, args []string) {
		log.SetLevel(logLevel)
		ccmd.SilenceUsage = true
	}

	root.PersistentFlags().StringVarP(&logLevel, "loglevel", "l", "warn", "amount of information outputted (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&k8sOpts.Namespace, "namespace", "n", "", "namespace of the service (defaults to the namespace of the current context)")
	root.PersistentFlags().StringVarP(&k8sOpts.K8sContext, "context", "c", "", "kubeconfig context to use (defaults to the current context)")

	root.AddCommand(Restore(k8sProvider, fs, k8sOpts))
	root.AddCommand(Version())
	return root
}
