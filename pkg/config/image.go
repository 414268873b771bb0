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

package config

import (
	"os"
)

const (
	// hookImageEnvVar overrides the image of the decoy pod
	hookImageEnvVar = "KHOOK_IMAGE"

	// DefaultHookImage runs an ssh server listening on port 22
	DefaultHookImage = "gigurra/khook:1.0.0"
)

// Logger is the interface used to log messages
type Logger interface {
	Infof(format string, args ...interface{})
}

// ImageConfig resolves the image used by the decoy pod
type ImageConfig struct {
	ioCtrl Logger
	getEnv func(string) string
}

// NewImageConfig creates a new ImageConfig instance
func NewImageConfig(ioCtrl Logger) *ImageConfig {
	return &ImageConfig{
		ioCtrl: ioCtrl,
		getEnv: os.Getenv,
	}
}

// GetHookImage returns the image of the decoy pod
func (c *ImageConfig) GetHookImage() string {
	image := c.getEnv(hookImageEnvVar)
	if image != "" {
		c.ioCtrl.Infof("using hook image (from env var): %s", image)
		return image
	}

	return DefaultHookImage
}
