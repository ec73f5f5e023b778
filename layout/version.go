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
	"os"

	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/errkind"
)

// EnsureVersionDir creates sequences/<source>/<dataset>/versions/<timestamp>
// if it doesn't already exist.
func (r Root) EnsureVersionDir(source, dataset, timestamp string) error {
	dir := r.VersionDir(source, dataset, timestamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(errkind.IOError, "creating version dir %s: %v", dir, err)
	}
	return nil
}

// SetAlias points alias at the given version timestamp directory,
// replacing any existing symlink atomically. alias may be a reserved name
// (current/latest/stable) or a user/upstream alias.
func (r Root) SetAlias(source, dataset, alias, timestamp string) error {
	if !IsValidVersionDirName(timestamp) {
		return errors.Wrapf(errkind.ConfigError, "alias target %q is not a valid version directory name", timestamp)
	}

	linkPath := r.AliasPath(source, dataset, alias)
	tmp := linkPath + ".tmp"
	_ = os.Remove(tmp)

	if err := os.Symlink(timestamp, tmp); err != nil {
		return errors.Wrapf(errkind.IOError, "creating symlink %s: %v", tmp, err)
	}
	if err := os.Rename(tmp, linkPath); err != nil {
		return errors.Wrapf(errkind.IOError, "renaming symlink into place %s: %v", linkPath, err)
	}
	return nil
}

// ResolveAlias reads the symlink at alias and returns the timestamp it
// points to.
func (r Root) ResolveAlias(source, dataset, alias string) (string, error) {
	linkPath := r.AliasPath(source, dataset, alias)
	target, err := os.Readlink(linkPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(errkind.ManifestNotFound, "alias %s", linkPath)
		}
		return "", errors.Wrapf(errkind.IOError, "reading alias %s: %v", linkPath, err)
	}
	return target, nil
}

// ListVersions returns every timestamp-format directory name under
// versions/ for source/dataset, excluding aliases.
func (r Root) ListVersions(source, dataset string) ([]string, error) {
	dir := r.VersionsDir(source, dataset)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(errkind.IOError, "listing %s: %v", dir, err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.Type()&os.ModeSymlink != 0 {
			continue // alias, not a version directory
		}
		if IsValidVersionDirName(name) {
			out = append(out, name)
		}
	}
	return out, nil
}
