// Copyright 2026 The Talaria Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package layout

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/errkind"
)

// WorkspaceLock is a file-based exclusive lock on one in-progress ingest
// directory (spec §5: "one workspace lock per in-progress ingest directory,
// file-based, exclusive, stale-cleaned after a configurable age").
type WorkspaceLock struct {
	path string
}

// AcquireWorkspaceLock takes the lock at dir/.lock, retrying with backoff
// while the lock file exists, and reclaiming it if the existing lock file is
// older than staleAfter. Whether the recorded holder PID is still alive is
// not checked.
func AcquireWorkspaceLock(ctx context.Context, dir string, staleAfter time.Duration) (*WorkspaceLock, error) {
	path := filepath.Join(dir, ".lock")

	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	operation := func() error {
		if err := tryCreateLockFile(path); err != nil {
			if !os.IsExist(err) {
				return backoff.Permanent(errors.Wrapf(errkind.IOError, "creating lock %s: %v", path, err))
			}
			if reclaimed, rerr := reclaimStaleLock(path, staleAfter); rerr != nil {
				return backoff.Permanent(rerr)
			} else if reclaimed {
				return tryCreateLockFile(path)
			}
			return errors.Wrapf(errkind.LockContention, "workspace locked: %s", dir)
		}
		return nil
	}

	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return &WorkspaceLock{path: path}, nil
}

func tryCreateLockFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%d\n", os.Getpid())
	return err
}

// reclaimStaleLock removes path if its modification time is older than
// staleAfter, reporting whether it did so.
func reclaimStaleLock(path string, staleAfter time.Duration) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrapf(errkind.IOError, "statting lock %s: %v", path, err)
	}
	if time.Since(info.ModTime()) < staleAfter {
		return false, nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, errors.Wrapf(errkind.IOError, "removing stale lock %s: %v", path, err)
	}
	return true, nil
}

// Release removes the lock file.
func (l *WorkspaceLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(errkind.IOError, "releasing lock %s: %v", l.path, err)
	}
	return nil
}

// HolderPID reads the PID recorded in a lock file, for diagnostics.
func HolderPID(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(errkind.IOError, "reading lock %s: %v", path, err)
	}
	pid, err := strconv.Atoi(trimTrailingNewlineString(string(b)))
	if err != nil {
		return 0, errors.Wrapf(errkind.ParseError, "parsing lock pid: %v", err)
	}
	return pid, nil
}

func trimTrailingNewlineString(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
