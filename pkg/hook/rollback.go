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
	"context"
	"fmt"

	"github.com/okteto/khook/pkg/config"
	oktetoErrors "github.com/okteto/khook/pkg/errors"
	"github.com/okteto/khook/pkg/log"
)

// Rollback reverses the mutations recorded in the session: the live service is restored first,
// then the decoy pod is deleted. Each step runs at most once, even across calls, and a failed step
// doesn't prevent the other. Rollback never fails: it returns false if any step of this call
// or of a previous call failed.
func (h *Hook) Rollback() bool {
	h.rollbackMu.Lock()
	defer h.rollbackMu.Unlock()

	ok := true
	if path, claimed := h.session.claimServiceRestore(); claimed {
		if err := h.rollbackStep("restore service", func(ctx context.Context) error {
			return h.cluster.ApplyFile(ctx, path)
		}); err != nil {
			ok = false
			log.Fail("Failed to restore service '%s': %s", h.opts.ServiceName, err)
			log.Hint("    Restore it with '%s restore %s'", config.GetBinaryName(), path)
		} else {
			log.Success("Service '%s' restored", h.opts.ServiceName)
		}
	}

	if name, claimed := h.session.claimPodDeletion(); claimed {
		if err := h.rollbackStep("delete decoy pod", func(ctx context.Context) error {
			return h.cluster.DeletePod(ctx, name)
		}); err != nil {
			ok = false
			log.Fail("Failed to delete pod '%s': %s", name, err)
		} else {
			log.Success("Decoy pod '%s' deleted", name)
		}
	}

	if !ok {
		h.session.markRollbackFailed()
	}
	return !h.session.Snapshot().RollbackFailed
}

// rollbackStep runs step with its own deadline: the session context may be cancelled already
func (h *Hook) rollbackStep(name string, step func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", oktetoErrors.ErrRollbackStep, name, r)
			log.Errorf("%s", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.KubernetesTimeout)
	defer cancel()

	if stepErr := step(ctx); stepErr != nil {
		err = fmt.Errorf("%w: %s: %w", oktetoErrors.ErrRollbackStep, name, stepErr)
		log.Errorf("%s", err)
		return err
	}
	log.Infof("rollback step '%s' completed", name)
	return nil
}
