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

package model

import (
	"fmt"
)

// Reverse is a tunnel rule that makes a port of the decoy pod reach a port of the local machine
type Reverse struct {
	Remote int
	Local  int
}

// String returns the remote->local representation of the rule
func (r Reverse) String() string {
	return fmt.Sprintf("%d->%d", r.Remote, r.Local)
}

// Validate returns an error if any of the ports is out of range
func (r Reverse) Validate() error {
	if r.Remote <= 0 || r.Remote > maxPort {
		return fmt.Errorf("remote port %d is not a valid port", r.Remote)
	}

	if r.Local <= 0 || r.Local > maxPort {
		return fmt.Errorf("local port %d is not a valid port", r.Local)
	}

	return nil
}
