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
	"os"
	"os/signal"
	"syscall"

	"github.com/okteto/khook/pkg/config"
	oktetoErrors "github.com/okteto/khook/pkg/errors"
	"github.com/okteto/khook/pkg/hook"
	"github.com/okteto/khook/pkg/k8s/client"
	"github.com/okteto/khook/pkg/k8s/exec"
	"github.com/okteto/khook/pkg/log"
	khookssh "github.com/okteto/khook/pkg/ssh"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// HookOptions are the flags of the hook command
type HookOptions struct {
	KillOriginalPods bool
}

// session is a hook sequence that can be rolled back
type session interface {
	Run(ctx context.Context) error
	Rollback() bool
	State() hook.Snapshot
}

// Hook redirects the traffic of a service to the local machine until it's interrupted
func Hook(k8sProvider client.Provider, fs afero.Fs, k8sOpts *K8sOptions) *cobra.Command {
	opts := &HookOptions{}
	cmd := &cobra.Command{
		Short: "Redirect the traffic of a Kubernetes service to your local machine",
		Long: `Redirect the traffic of a Kubernetes service to your local machine.

A decoy pod running an ssh server replaces the pods behind the service, and every port of
the service is tunneled to the same port of your machine. Press Ctrl+C to restore the service.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Debug("starting hook command")
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(stop)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return executeHook(ctx, args[0], opts, k8sOpts, k8sProvider, fs, stop)
		},
	}

	cmd.Flags().BoolVarP(&opts.KillOriginalPods, "kill-original-pod", "k", false, "delete the pods behind the service once it routes to the decoy pod")
	return cmd
}

func executeHook(ctx context.Context, serviceName string, opts *HookOptions, k8sOpts *K8sOptions, k8sProvider client.Provider, fs afero.Fs, stop <-chan os.Signal) error {
	c, restConfig, namespace, err := k8sProvider.Provide(k8sOpts.clientOptions())
	if err != nil {
		return oktetoErrors.UserError{
			E:    err,
			Hint: "Check your kubeconfig, or select a context with '--context'",
		}
	}

	home, err := config.GetKhookHome()
	if err != nil {
		return err
	}

	public, private, err := khookssh.EnsureKeys(fs, home)
	if err != nil {
		return err
	}

	publicKey, err := afero.ReadFile(fs, public)
	if err != nil {
		return fmt.Errorf("failed to read the ssh public key: %w", err)
	}

	signer, err := khookssh.LoadSigner(fs, private)
	if err != nil {
		return err
	}

	h := hook.New(
		hook.Options{
			ServiceName:       serviceName,
			KillOriginalPods:  opts.KillOriginalPods,
			Image:             config.NewImageConfig(log.Logger{}).GetHookImage(),
			PublicKey:         publicKey,
			PodTimeout:        config.GetPodTimeout(),
			TunnelTimeout:     config.GetTunnelTimeout(),
			PollInterval:      config.GetPollInterval(),
			KubernetesTimeout: config.GetKubernetesTimeout(),
			SSHPortStart:      config.GetSSHPortStart(),
		},
		hook.NewCluster(c, namespace, fs),
		exec.NewExecutor(c, restConfig),
		hook.NewTunnelFactory(c, restConfig, namespace, signer),
		hook.NewStore(fs, config.GetBackupDir(), config.GetCreateDir()),
	)

	log.Information("Hooking service '%s' in namespace '%s'", serviceName, namespace)
	err = runSession(ctx, h, stop)
	h.Supervisor().StopAll()
	return err
}

// runSession runs s until it's interrupted, then rolls it back.
// An interrupt received while s is running cancels it and waits for the step in flight before rolling back.
// It returns nil if the session ended because of an interrupt, or the error of the failed step.
func runSession(ctx context.Context, s session, stop <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exit := make(chan error, 1)
	go func() {
		exit <- s.Run(ctx)
	}()

	select {
	case sig := <-stop:
		log.Infof("%s received, starting shutdown sequence", sig)
		cancel()
		if err := <-exit; err != nil {
			log.Infof("hook sequence stopped: %s", err)
		}
		rollback(s)
		return nil
	case err := <-exit:
		if err != nil {
			log.Infof("exit signal received due to error: %s", err)
			if oktetoErrors.RequiresRollback(err) {
				rollback(s)
			}
			return err
		}
	}

	sig := <-stop
	log.Infof("%s received, starting shutdown sequence", sig)
	rollback(s)
	return nil
}

func rollback(s session) {
	state := s.State()
	if !state.PodDeployed && !state.ServiceReplaced {
		log.Infof("nothing to roll back")
		return
	}

	log.Information("Rolling back the changes of the session...")
	if s.Rollback() {
		log.Success("Rollback completed")
		return
	}

	log.Warning("Rollback completed with errors")
	if state.BackupPath != "" {
		log.Hint("    The original service is backed up at %s", state.BackupPath)
	}
}
