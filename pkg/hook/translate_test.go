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
	"errors"
	"fmt"
	"testing"

	oktetoErrors "github.com/okteto/khook/pkg/errors"
	"github.com/okteto/khook/pkg/k8s/labels"
	"github.com/okteto/khook/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apiv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

func TestDerive(t *testing.T) {
	var tests = []struct {
		name    string
		svc     *apiv1.Service
		rules   []model.Reverse
		skipped int
		wantErr error
	}{
		{
			name: "single-port",
			svc: &apiv1.Service{
				ObjectMeta: metav1.ObjectMeta{Name: "payments", Namespace: "test"},
				Spec: apiv1.ServiceSpec{
					Selector: map[string]string{"app": "payments"},
					Ports:    []apiv1.ServicePort{{Port: 80, TargetPort: intstr.FromInt32(8080)}},
				},
			},
			rules: []model.Reverse{{Remote: 8080, Local: 8080}},
		},
		{
			name: "empty-selector",
			svc: &apiv1.Service{
				ObjectMeta: metav1.ObjectMeta{Name: "payments", Namespace: "test"},
				Spec: apiv1.ServiceSpec{
					Ports: []apiv1.ServicePort{{Port: 80, TargetPort: intstr.FromInt32(8080)}},
				},
			},
			wantErr: oktetoErrors.ErrConfiguration,
		},
		{
			name: "name-too-long",
			svc: &apiv1.Service{
				ObjectMeta: metav1.ObjectMeta{Name: "a-service-with-a-name-long-enough-to-exceed-the-label-limit-xx", Namespace: "test"},
				Spec: apiv1.ServiceSpec{
					Selector: map[string]string{"app": "payments"},
				},
			},
			wantErr: oktetoErrors.ErrConfiguration,
		},
		{
			name: "mixed-ports",
			svc: &apiv1.Service{
				ObjectMeta: metav1.ObjectMeta{Name: "payments", Namespace: "test"},
				Spec: apiv1.ServiceSpec{
					Selector: map[string]string{"app": "payments", "tier": "web"},
					Ports: []apiv1.ServicePort{
						{Name: "http", Port: 80, TargetPort: intstr.FromInt32(8080), Protocol: apiv1.ProtocolTCP},
						{Name: "alt", Port: 8081, TargetPort: intstr.FromInt32(8080), Protocol: apiv1.ProtocolTCP},
						{Name: "grpc", Port: 9090},
						{Name: "metrics", Port: 9100, TargetPort: intstr.FromString("metrics")},
						{Name: "dns", Port: 53, Protocol: apiv1.ProtocolUDP},
					},
				},
			},
			rules:   []model.Reverse{{Remote: 8080, Local: 8080}, {Remote: 9090, Local: 9090}},
			skipped: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Derive(tt.svc, "gigurra/khook:1.0.0", "token")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.rules, d.Rules)
			assert.Len(t, d.Skipped, tt.skipped)

			podName := tt.svc.Name + "-hook"
			assert.Equal(t, podName, d.DecoyPod.Name)
			assert.Equal(t, map[string]string{labels.NameLabel: podName}, d.DecoyPod.Labels)
			assert.Equal(t, d.DecoyPod.Labels, d.DecoyService.Spec.Selector)
			assert.Equal(t, tt.svc.Spec.Ports, d.DecoyService.Spec.Ports)
			assert.Equal(t, tt.svc.Spec.Selector, d.Service.Spec.Selector)
		})
	}
}

func TestDerivePreservesPorts(t *testing.T) {
	ports := []apiv1.ServicePort{}
	for i := int32(1); i <= 20; i++ {
		ports = append(ports, apiv1.ServicePort{
			Name:       fmt.Sprintf("p%d", i),
			Port:       i * 100,
			TargetPort: intstr.FromInt32(i*100 + 1),
			NodePort:   30000 + i,
		})
	}
	svc := &apiv1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "payments"},
		Spec: apiv1.ServiceSpec{
			Selector: map[string]string{"app": "payments"},
			Ports:    ports,
		},
	}

	d, err := Derive(svc, "image", "token")
	require.NoError(t, err)
	assert.Equal(t, svc.Spec.Ports, d.DecoyService.Spec.Ports)
	assert.Len(t, d.Rules, len(ports))
	for i, r := range d.Rules {
		assert.Equal(t, int(ports[i].TargetPort.IntVal), r.Remote)
		assert.Equal(t, r.Remote, r.Local)
	}
}

func TestNewToken(t *testing.T) {
	assert.NotEqual(t, NewToken(), NewToken())
}
