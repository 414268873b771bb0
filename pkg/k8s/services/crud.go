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

package services

import (
	"context"
	"fmt"

	oktetoErrors "github.com/okteto/khook/pkg/errors"
	"github.com/okteto/khook/pkg/log"
	apiv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Get returns a service by name
func Get(ctx context.Context, name, namespace string, c kubernetes.Interface) (*apiv1.Service, error) {
	return c.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
}

// Deploy creates or updates a service.
// An update replaces the live service with s, keeping only its resourceVersion.
func Deploy(ctx context.Context, s *apiv1.Service, c kubernetes.Interface) error {
	old, err := Get(ctx, s.Name, s.Namespace, c)
	if err != nil {
		if !oktetoErrors.IsNotFound(err) {
			return fmt.Errorf("error getting kubernetes service: %w", err)
		}
		s = s.DeepCopy()
		s.ResourceVersion = ""
		if _, err := c.CoreV1().Services(s.Namespace).Create(ctx, s, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("error creating kubernetes service: %w", err)
		}
		log.Infof("created service '%s'", s.Name)
		return nil
	}

	s = s.DeepCopy()
	s.ResourceVersion = old.ResourceVersion
	if _, err := c.CoreV1().Services(s.Namespace).Update(ctx, s, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("error updating kubernetes service: %w", err)
	}
	log.Infof("updated service '%s'", s.Name)
	return nil
}
