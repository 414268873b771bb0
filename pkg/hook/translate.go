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
	"fmt"

	"github.com/google/uuid"
	oktetoErrors "github.com/okteto/khook/pkg/errors"
	"github.com/okteto/khook/pkg/k8s/pods"
	"github.com/okteto/khook/pkg/k8s/services"
	"github.com/okteto/khook/pkg/model"
	apiv1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// Derivation holds the resources derived from a live service
type Derivation struct {
	// Service is the live service, as it was read
	Service      *apiv1.Service
	DecoyPod     *apiv1.Pod
	DecoyService *apiv1.Service
	Rules        []model.Reverse
	// Skipped lists the service ports that can't be tunneled
	Skipped []string
}

// NewToken returns a new disambiguation token for the decoy pod
func NewToken() string {
	return uuid.NewString()
}

// Derive computes the decoy pod and the decoy service of svc. It has no side effects.
func Derive(svc *apiv1.Service, image, token string) (*Derivation, error) {
	if len(svc.Spec.Selector) == 0 {
		return nil, oktetoErrors.UserError{
			E:    fmt.Errorf("%w: service '%s' has no selector, cannot be hooked", oktetoErrors.ErrConfiguration, svc.Name),
			Hint: "Only services that route to pods through a label selector can be hooked",
		}
	}

	podName := pods.HookPodName(svc.Name)
	if err := pods.ValidateHookPodName(podName); err != nil {
		return nil, oktetoErrors.UserError{
			E:    fmt.Errorf("%w: %w", oktetoErrors.ErrConfiguration, err),
			Hint: "The name of the service is too long to derive the name of the decoy pod",
		}
	}

	rules, skipped := TranslateRules(svc.Spec.Ports)
	return &Derivation{
		Service:      svc.DeepCopy(),
		DecoyPod:     pods.TranslateHookPod(svc, image, token),
		DecoyService: services.TranslateHook(svc, podName),
		Rules:        rules,
		Skipped:      skipped,
	}, nil
}

// TranslateRules returns one reverse tunnel per service port, with remote and local set to its target port.
// Ports that can't be tunneled over ssh are returned as skipped.
func TranslateRules(ports []apiv1.ServicePort) ([]model.Reverse, []string) {
	rules := []model.Reverse{}
	skipped := []string{}
	seen := map[int]bool{}
	for _, p := range ports {
		if p.Protocol != "" && p.Protocol != apiv1.ProtocolTCP {
			skipped = append(skipped, fmt.Sprintf("%d/%s: only TCP ports can be tunneled", p.Port, p.Protocol))
			continue
		}

		target := int(p.Port)
		switch p.TargetPort.Type {
		case intstr.String:
			if p.TargetPort.StrVal != "" {
				skipped = append(skipped, fmt.Sprintf("%d: named target port '%s' can't be tunneled", p.Port, p.TargetPort.StrVal))
				continue
			}
		default:
			if p.TargetPort.IntVal != 0 {
				target = int(p.TargetPort.IntVal)
			}
		}

		if seen[target] {
			continue
		}
		seen[target] = true
		rules = append(rules, model.Reverse{Remote: target, Local: target})
	}
	return rules, skipped
}
