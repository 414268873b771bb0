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
	"os"
	"path/filepath"
	"time"

	"github.com/okteto/khook/pkg/k8s/apply"
	"github.com/okteto/khook/pkg/k8s/services"
	"github.com/okteto/khook/pkg/log"
	"github.com/spf13/afero"
	apiv1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

const (
	backupTimeFormat = "20060102-150405"
	manifestExt      = "yml"
)

// Store writes the backups and the staged resources of a session
type Store struct {
	fs        afero.Fs
	backupDir string
	createDir string
}

// NewStore returns a store writing to backupDir and createDir. Both are created on demand.
func NewStore(fs afero.Fs, backupDir, createDir string) *Store {
	return &Store{fs: fs, backupDir: backupDir, createDir: createDir}
}

// BackupPath returns the path of the backup of service taken at t
func (s *Store) BackupPath(service string, t time.Time) string {
	return filepath.Join(s.backupDir, fmt.Sprintf("%s--%s.bak.%s", service, t.Format(backupTimeFormat), manifestExt))
}

// StagedPath returns the path of a staged resource
func (s *Store) StagedPath(name string) string {
	return filepath.Join(s.createDir, fmt.Sprintf("%s.%s", name, manifestExt))
}

// WriteBackup saves svc so it can be reapplied over a newer version of itself.
// It returns once the backup is flushed to disk.
func (s *Store) WriteBackup(svc *apiv1.Service, t time.Time) (string, error) {
	path := s.BackupPath(svc.Name, t)
	if err := s.write(s.backupDir, path, services.Sanitize(svc)); err != nil {
		return "", fmt.Errorf("failed to back up service '%s': %w", svc.Name, err)
	}
	log.Infof("service '%s' backed up to %s", svc.Name, path)
	return path, nil
}

// WriteStaged saves obj as the resource name that is applied next
func (s *Store) WriteStaged(name string, obj runtime.Object) (string, error) {
	path := s.StagedPath(name)
	if err := s.write(s.createDir, path, obj); err != nil {
		return "", fmt.Errorf("failed to stage '%s': %w", name, err)
	}
	log.Infof("'%s' staged at %s", name, path)
	return path, nil
}

func (s *Store) write(dir, path string, obj runtime.Object) error {
	b, err := apply.Marshal(obj)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
