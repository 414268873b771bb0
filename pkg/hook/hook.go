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

package hook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/okteto/khook/pkg/config"
	oktetoErrors "github.com/okteto/khook/pkg/errors"
	"github.com/okteto/khook/pkg/k8s/pods"
	"github.com/okteto/khook/pkg/log"
	"github.com/okteto/khook/pkg/model"
	"github.com/okteto/khook/pkg/tunnel"
	"github.com/okteto/khook/pkg/waiter"
	"k8s.io/utils/clock"
)

const (
	sshServerPort     = 22
	authorizedKeyPath = "/root/.ssh/authorized_keys"
	probeTimeout      = time.Second
)

// Options configures a hook session
type Options struct {
	ServiceName       string
	KillOriginalPods  bool
	Image             string
	PublicKey         []byte
	PodTimeout        time.Duration
	TunnelTimeout     time.Duration
	PollInterval      time.Duration
	KubernetesTimeout time.Duration
	SSHPortStart      int
}

// Hook redirects the traffic of a service to the local machine
type Hook struct {
	opts       Options
	cluster    Cluster
	shell      Shell
	tunnels    TunnelFactory
	store      *Store
	supervisor *tunnel.Supervisor
	poller     *waiter.Poller
	clock      clock.PassiveClock
	probe      func(ctx context.Context, port int) bool
	newToken   func() string
	session    *Session
	rollbackMu sync.Mutex

	derivation *Derivation
	sshPort    int
}

type transition struct {
	to   State
	run  func(ctx context.Context) error
	skip bool
}

// New returns a hook session for opts.ServiceName
func New(opts Options, cluster Cluster, shell Shell, tunnels TunnelFactory, store *Store) *Hook {
	opts = withDefaults(opts)
	c := clock.RealClock{}
	return &Hook{
		opts:       opts,
		cluster:    cluster,
		shell:      shell,
		tunnels:    tunnels,
		store:      store,
		supervisor: tunnel.NewSupervisor(),
		poller:     waiter.NewWithClock(c),
		clock:      c,
		probe: func(ctx context.Context, port int) bool {
			return model.IsPortReachable(ctx, model.Localhost, port, probeTimeout)
		},
		newToken: NewToken,
		session:  NewSession(c.Now()),
	}
}

func withDefaults(opts Options) Options {
	if opts.Image == "" {
		opts.Image = config.DefaultHookImage
	}
	if opts.PodTimeout <= 0 {
		opts.PodTimeout = config.DefaultPodTimeout
	}
	if opts.TunnelTimeout <= 0 {
		opts.TunnelTimeout = config.DefaultTunnelTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = config.DefaultPollInterval
	}
	if opts.KubernetesTimeout <= 0 {
		opts.KubernetesTimeout = config.DefaultKubernetesTimeout
	}
	if opts.SSHPortStart <= 0 {
		opts.SSHPortStart = config.DefaultSSHPortStart
	}
	return opts
}

// State returns a consistent copy of the session progress
func (h *Hook) State() Snapshot {
	return h.session.Snapshot()
}

// Supervisor returns the supervisor of the session tunnels
func (h *Hook) Supervisor() *tunnel.Supervisor {
	return h.supervisor
}

func (h *Hook) transitions() []transition {
	return []transition{
		{to: ConfigResolved, run: h.resolveConfig},
		{to: PreflightChecked, run: h.preflight},
		{to: BackedUp, run: h.backup},
		{to: DecoyPodApplied, run: h.applyDecoyPod},
		{to: DecoyPodRunning, run: h.waitDecoyPodRunning},
		{to: KeysInstalled, run: h.installKeys},
		{to: PortForwardStarted, run: h.startPortForward},
		{to: PortForwardReachable, run: h.waitPortForwardReachable},
		{to: ReverseTunnelsUp, run: h.startReverseTunnels},
		{to: LiveServiceSwapped, run: h.swapLiveService},
		{to: OriginalPodsEvicted, run: h.evictOriginalPods, skip: !h.opts.KillOriginalPods},
		{to: SessionActive, run: h.activate},
	}
}

// Run executes the hook sequence until the session is active. Steps run strictly in order,
// the first failure is returned and nothing is rolled back: call Rollback if RequiresRollback(err).
func (h *Hook) Run(ctx context.Context) error {
	for _, t := range h.transitions() {
		if t.skip {
			continue
		}

		if err := ctx.Err(); err != nil {
			return oktetoErrors.NewStageError(string(t.to), oktetoErrors.ErrIntSig, err)
		}

		log.Debugf("%s -> %s", h.session.Snapshot().State, t.to)
		if err := t.run(ctx); err != nil {
			return h.stageError(ctx, t.to, err)
		}
		h.session.setState(t.to)
	}
	return nil
}

// stageError makes sure every failure carries its kind
func (h *Hook) stageError(ctx context.Context, stage State, err error) error {
	var stageErr oktetoErrors.StageError
	if errors.As(err, &stageErr) {
		return err
	}
	if ctx.Err() != nil {
		return oktetoErrors.NewStageError(string(stage), oktetoErrors.ErrIntSig, err)
	}
	return oktetoErrors.NewStageError(string(stage), oktetoErrors.ErrCollaborator, err)
}

func (h *Hook) resolveConfig(ctx context.Context) error {
	name := h.opts.ServiceName
	if name == "" {
		return oktetoErrors.NewStageError(string(ConfigResolved), oktetoErrors.ErrConfiguration, fmt.Errorf("the name of the service is empty"))
	}

	svc, err := h.cluster.GetService(ctx, name)
	if err != nil {
		if oktetoErrors.IsNotFound(err) {
			return oktetoErrors.NewStageError(string(ConfigResolved), oktetoErrors.ErrConfiguration, oktetoErrors.UserError{
				E:    fmt.Errorf("service '%s' not found", name),
				Hint: "Check the name of the service and the namespace of your current context",
			})
		}
		return oktetoErrors.NewStageError(string(ConfigResolved), oktetoErrors.ErrCollaborator, fmt.Errorf("failed to get service '%s': %w", name, err))
	}

	d, err := Derive(svc, h.opts.Image, h.newToken())
	if err != nil {
		return oktetoErrors.NewStageError(string(ConfigResolved), oktetoErrors.ErrConfiguration, err)
	}

	h.derivation = d
	h.session.setTarget(svc.Name, d.DecoyPod.Name)
	log.Success("Service '%s' found", svc.Name)
	return nil
}

func (h *Hook) preflight(ctx context.Context) error {
	podName := h.derivation.DecoyPod.Name
	exists, err := h.cluster.PodExists(ctx, podName)
	if err != nil {
		return oktetoErrors.NewStageError(string(PreflightChecked), oktetoErrors.ErrCollaborator, fmt.Errorf("failed to list pods: %w", err))
	}

	if exists {
		return oktetoErrors.NewStageError(string(PreflightChecked), oktetoErrors.ErrConflict, oktetoErrors.UserError{
			E:    fmt.Errorf("pod '%s' already exists", podName),
			Hint: fmt.Sprintf("Another session may be hooking '%s'. If it's a leftover, delete it with 'kubectl delete pod %s'", h.opts.ServiceName, podName),
		})
	}
	return nil
}

func (h *Hook) backup(_ context.Context) error {
	path, err := h.store.WriteBackup(h.derivation.Service, h.clock.Now())
	if err != nil {
		return oktetoErrors.NewStageError(string(BackedUp), oktetoErrors.ErrCollaborator, err)
	}

	h.session.setBackupPath(path)
	log.Success("Service '%s' backed up to %s", h.opts.ServiceName, path)
	return nil
}

func (h *Hook) applyDecoyPod(ctx context.Context) error {
	pod := h.derivation.DecoyPod
	path, err := h.store.WriteStaged(pod.Name, pod)
	if err != nil {
		return oktetoErrors.NewStageError(string(DecoyPodApplied), oktetoErrors.ErrCollaborator, err)
	}

	if err := h.cluster.ApplyFile(ctx, path); err != nil {
		if oktetoErrors.IsAlreadyExists(err) {
			return oktetoErrors.NewStageError(string(DecoyPodApplied), oktetoErrors.ErrConflict, err)
		}
		return oktetoErrors.NewStageError(string(DecoyPodApplied), oktetoErrors.ErrCollaborator, err)
	}

	h.session.markPodDeployed()
	log.Success("Decoy pod '%s' created", pod.Name)
	return nil
}

func (h *Hook) waitDecoyPodRunning(ctx context.Context) error {
	podName := h.derivation.DecoyPod.Name
	log.Spinner(fmt.Sprintf("Waiting for pod '%s' to be running...", podName))
	log.StartSpinner()
	defer log.StopSpinner()

	running := func(ctx context.Context) (bool, error) {
		pod, err := h.cluster.GetPod(ctx, podName)
		if err != nil {
			if oktetoErrors.IsNotFound(err) || oktetoErrors.IsTransient(err) {
				log.Infof("pod '%s' is not available yet: %s", podName, err)
				return false, nil
			}
			return false, err
		}
		return pods.IsContainerRunning(pod), nil
	}

	ok, err := h.poller.WaitFor(ctx, running, h.opts.PodTimeout, h.opts.PollInterval, fmt.Sprintf("waiting for pod '%s'", podName))
	if err != nil {
		return h.stageError(ctx, DecoyPodRunning, err)
	}
	if !ok {
		return oktetoErrors.NewStageError(string(DecoyPodRunning), oktetoErrors.ErrReadinessTimeout, fmt.Errorf("pod '%s' didn't reach a running state within %s", podName, h.opts.PodTimeout))
	}

	log.Success("Decoy pod '%s' is running", podName)
	return nil
}

func (h *Hook) installKeys(ctx context.Context) error {
	pod := h.derivation.DecoyPod
	if err := h.shell.CopyFile(ctx, pod, bytes.NewReader(h.opts.PublicKey), authorizedKeyPath); err != nil {
		return h.stageError(ctx, KeysInstalled, fmt.Errorf("failed to copy the ssh public key: %w", err))
	}

	if err := h.shell.Exec(ctx, pod, nil, []string{"chown", "root:root", authorizedKeyPath}); err != nil {
		return h.stageError(ctx, KeysInstalled, fmt.Errorf("failed to set the owner of the ssh public key: %w", err))
	}

	log.Success("SSH public key installed in '%s'", pod.Name)
	return nil
}

func (h *Hook) startPortForward(_ context.Context) error {
	port, err := model.GetAvailablePortFrom(model.Localhost, h.opts.SSHPortStart)
	if err != nil {
		return oktetoErrors.NewStageError(string(PortForwardStarted), oktetoErrors.ErrCollaborator, err)
	}
	h.sshPort = port

	pf := h.tunnels.PortForward(h.derivation.DecoyPod.Name, port, sshServerPort)
	if err := h.supervisor.StartPortForward(pf); err != nil {
		return oktetoErrors.NewStageError(string(PortForwardStarted), oktetoErrors.ErrCollaborator, err)
	}
	return nil
}

func (h *Hook) waitPortForwardReachable(ctx context.Context) error {
	log.Spinner(fmt.Sprintf("Waiting for local port %d to be reachable...", h.sshPort))
	log.StartSpinner()
	defer log.StopSpinner()

	reachable := func(ctx context.Context) (bool, error) {
		return h.probe(ctx, h.sshPort), nil
	}

	ok, err := h.poller.WaitFor(ctx, reachable, h.opts.TunnelTimeout, h.opts.PollInterval, fmt.Sprintf("waiting for local port %d", h.sshPort))
	if err != nil {
		return h.stageError(ctx, PortForwardReachable, err)
	}
	if !ok {
		return oktetoErrors.NewStageError(string(PortForwardReachable), oktetoErrors.ErrTunnelTimeout, fmt.Errorf("ssh tunnel on local port %d didn't open within %s", h.sshPort, h.opts.TunnelTimeout))
	}

	log.Success("Local port %d forwarded to '%s'", h.sshPort, h.derivation.DecoyPod.Name)
	return nil
}

// startReverseTunnels never fails: failed rules downgrade the session to degraded
func (h *Hook) startReverseTunnels(ctx context.Context) error {
	failed := []string{}
	failed = append(failed, h.derivation.Skipped...)
	for _, s := range h.derivation.Skipped {
		log.Warning("Port %s", s)
	}

	if len(h.derivation.Rules) > 0 {
		rt := h.tunnels.ReverseTunnels(ctx, h.sshPort)
		if err := h.supervisor.StartReverseTunnels(rt, h.derivation.Rules); err != nil {
			var merr *multierror.Error
			if errors.As(err, &merr) {
				for _, e := range merr.Errors {
					failed = append(failed, e.Error())
				}
			} else {
				failed = append(failed, err.Error())
			}
		}
	} else {
		log.Warning("Service '%s' doesn't expose any port that can be tunneled", h.opts.ServiceName)
		failed = append(failed, "no tunnelable ports")
	}
	h.supervisor.ReportOutbound()

	if len(failed) > 0 {
		h.session.markDegraded(failed)
		log.Warning("Some inbound traffic won't reach your machine:\n    %s", strings.Join(failed, "\n    "))
		return nil
	}

	rules := make([]string, 0, len(h.derivation.Rules))
	for _, r := range h.derivation.Rules {
		rules = append(rules, r.String())
	}
	log.Success("Inbound traffic redirected: %s", strings.Join(rules, ", "))
	return nil
}

func (h *Hook) swapLiveService(ctx context.Context) error {
	svc := h.derivation.DecoyService
	path, err := h.store.WriteStaged(svc.Name, svc)
	if err != nil {
		return oktetoErrors.NewStageError(string(LiveServiceSwapped), oktetoErrors.ErrCollaborator, err)
	}

	if err := h.cluster.ApplyFile(ctx, path); err != nil {
		return h.stageError(ctx, LiveServiceSwapped, fmt.Errorf("failed to replace service '%s': %w", svc.Name, err))
	}

	h.session.markServiceReplaced()
	log.Success("Service '%s' now routes to '%s'", svc.Name, h.derivation.DecoyPod.Name)
	return nil
}

func (h *Hook) evictOriginalPods(ctx context.Context) error {
	selector := h.derivation.Service.Spec.Selector
	deleted, err := h.cluster.DeletePodsBySelector(ctx, selector, h.derivation.DecoyPod.Name)
	if err != nil {
		log.Warning("Failed to delete the original pods of service '%s': %s", h.opts.ServiceName, err)
		h.session.markDegraded([]string{fmt.Sprintf("evict original pods: %s", err)})
		return nil
	}

	if len(deleted) == 0 {
		log.Information("No original pods to delete")
		return nil
	}
	log.Success("Original pods deleted: %s", strings.Join(deleted, ", "))
	return nil
}

func (h *Hook) activate(_ context.Context) error {
	h.session.markActive()
	state := h.session.Snapshot()
	if state.Degraded {
		log.Warning("Service '%s' is hooked with errors. Press Ctrl+C to restore it", h.opts.ServiceName)
		return nil
	}
	log.Success("Service '%s' is hooked. Press Ctrl+C to restore it", h.opts.ServiceName)
	return nil
}
