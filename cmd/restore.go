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
	"context"
	"fmt"

	oktetoErrors "github.com/okteto/khook/pkg/errors"
	"github.com/okteto/khook/pkg/k8s/apply"
	"github.com/okteto/khook/pkg/k8s/client"
	"github.com/okteto/khook/pkg/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	apiv1 "k8s.io/api/core/v1"
)

// Restore applies a backup taken by a hook session
func Restore(k8sProvider client.Provider, fs afero.Fs, k8sOpts *K8sOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Apply a service backup, to recover from a failed rollback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Debug("starting restore command")
			return executeRestore(cmd.Context(), args[0], k8sProvider, fs, k8sOpts)
		},
	}
}

func executeRestore(ctx context.Context, path string, k8sProvider client.Provider, fs afero.Fs, k8sOpts *K8sOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if ok, err := afero.Exists(fs, path); err != nil || !ok {
		return oktetoErrors.UserError{
			E:    fmt.Errorf("backup file '%s' doesn't exist", path),
			Hint: "Backups are stored in the 'backed-up-resources' folder of the directory the service was hooked from",
		}
	}

	c, _, namespace, err := k8sProvider.Provide(k8sOpts.clientOptions())
	if err != nil {
		return err
	}

	obj, err := apply.ApplyFile(ctx, fs, path, namespace, c)
	if err != nil {
		return fmt.Errorf("failed to restore '%s': %w", path, err)
	}

	switch o := obj.(type) {
	case *apiv1.Service:
		log.Success("Service '%s' restored from %s", o.Name, path)
	case *apiv1.Pod:
		log.Success("Pod '%s' restored from %s", o.Name, path)
	}
	return nil
}
