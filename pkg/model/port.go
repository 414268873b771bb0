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
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// Localhost is the interface used by the local tunnel endpoints
	Localhost = "localhost"

	maxPort = 65535
)

// GetAvailablePort returns a random port that's available
func GetAvailablePort(iface string) (int, error) {
	address, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(iface, "0"))
	if err != nil {
		return 0, err
	}

	listener, err := net.ListenTCP("tcp", address)
	if err != nil {
		return 0, err
	}

	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// GetAvailablePortFrom returns the first available port starting at start
func GetAvailablePortFrom(iface string, start int) (int, error) {
	for p := start; p <= maxPort; p++ {
		if IsPortAvailable(iface, p) {
			return p, nil
		}
	}

	return 0, fmt.Errorf("no available port found in %s starting at %d", iface, start)
}

// IsPortAvailable checks if a given port is available on the given interface
func IsPortAvailable(iface string, port int) bool {
	address := net.JoinHostPort(iface, strconv.Itoa(port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return false
	}

	listener.Close()
	return true
}

// IsPortReachable returns true if a tcp connection to the given port can be opened
func IsPortReachable(ctx context.Context, iface string, port int, timeout time.Duration) bool {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(iface, strconv.Itoa(port)))
	if err != nil {
		return false
	}

	conn.Close()
	return true
}
