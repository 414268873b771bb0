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

package ssh

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"path/filepath"

	"github.com/okteto/khook/pkg/log"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

const (
	privateKeyFile = "id_ecdsa_khook"
	publicKeyFile  = "id_ecdsa_khook.pub"
)

var (
	curve = elliptic.P256()
)

// KeyPaths returns the paths of the public and the private key stored in dir
func KeyPaths(dir string) (string, string) {
	return filepath.Join(dir, publicKeyFile), filepath.Join(dir, privateKeyFile)
}

// KeyExists returns true if both keys of the pair exist
func KeyExists(fs afero.Fs, public, private string) bool {
	for _, path := range []string{public, private} {
		if ok, err := afero.Exists(fs, path); err != nil || !ok {
			log.Infof("%s doesn't exist", path)
			return false
		}
	}
	return true
}

// EnsureKeys generates the key pair in dir unless it's already there.
// It returns the paths of the public and the private key.
func EnsureKeys(fs afero.Fs, dir string) (string, string, error) {
	public, private := KeyPaths(dir)
	if KeyExists(fs, public, private) {
		log.Infof("using ssh keypair at %s", public)
		return public, private, nil
	}

	if err := fs.MkdirAll(dir, 0700); err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	if err := generate(fs, public, private); err != nil {
		return "", "", err
	}
	return public, private, nil
}

// LoadSigner returns the signer of the private key stored at path
func LoadSigner(fs afero.Fs, path string) (ssh.Signer, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private SSH key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private SSH key: %w", err)
	}
	return signer, nil
}

func generate(fs afero.Fs, public, private string) error {
	privateKey, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate private SSH key: %w", err)
	}

	publicKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to generate public SSH key: %w", err)
	}

	privDER, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to encode private SSH key: %w", err)
	}
	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: privDER,
	})

	if err := afero.WriteFile(fs, public, ssh.MarshalAuthorizedKey(publicKey), 0600); err != nil {
		return fmt.Errorf("failed to write public SSH key: %w", err)
	}

	if err := afero.WriteFile(fs, private, privatePEM, 0600); err != nil {
		return fmt.Errorf("failed to write private SSH key: %w", err)
	}

	log.Infof("created ssh keypair at %s and %s", public, private)
	return nil
}
