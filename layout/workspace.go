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
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/errkind"
)

// WorkspaceStatus tags where a resumable download currently stands.
type WorkspaceStatus string

const (
	WorkspacePending   WorkspaceStatus = "pending"
	WorkspaceFetching  WorkspaceStatus = "fetching"
	WorkspaceVerifying WorkspaceStatus = "verifying"
	WorkspaceComplete  WorkspaceStatus = "complete"
	WorkspaceFailed    WorkspaceStatus = "failed"
)

// WorkspaceState is the resumable-download handoff contract (spec §6): the
// ingest pipeline that actually performs downloads is out of scope, but its
// state.json shape is specified here so Talaria core and that external
// pipeline agree on the wire format.
type WorkspaceState struct {
	DownloadID   string          `json:"download_id"`
	Source       string          `json:"source"`
	Dataset      string          `json:"dataset"`
	Status       WorkspaceStatus `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	BytesTotal   int64           `json:"bytes_total,omitempty"`
	BytesFetched int64           `json:"bytes_fetched,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// NewWorkspaceID generates a fresh download id.
func NewWorkspaceID() string {
	return uuid.NewString()
}

// ReadWorkspaceState loads state.json from path.
func ReadWorkspaceState(path string) (WorkspaceState, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return WorkspaceState{}, errors.Wrapf(errkind.ManifestNotFound, "workspace state %s", path)
		}
		return WorkspaceState{}, errors.Wrapf(errkind.IOError, "reading %s: %v", path, err)
	}
	var s WorkspaceState
	if err := json.Unmarshal(b, &s); err != nil {
		return WorkspaceState{}, errors.Wrapf(errkind.ParseError, "decoding %s: %v", path, err)
	}
	return s, nil
}

// WriteWorkspaceState writes state atomically: to a temp file in the same
// directory, then renamed into place, so a reader never observes a
// partially-written state.json.
func WriteWorkspaceState(path string, s WorkspaceState) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrapf(errkind.ParseError, "encoding workspace state: %v", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrapf(errkind.IOError, "writing %s: %v", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(errkind.IOError, "renaming %s to %s: %v", tmp, path, err)
	}
	return nil
}
