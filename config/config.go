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

// Package config builds an explicit Registry from TALARIA_* environment
// variables and an optional TOML file, replacing the package-level mutable
// globals spec §9 calls out ("global mutable state replaced by explicit
// config + per-operation context"). Nothing is read from the environment
// after Load returns.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/errkind"
)

// ChunkingDefaults mirrors spec §4.4's ChunkingStrategy knobs so they can be
// set once from a config file rather than hardcoded per call site.
type ChunkingDefaults struct {
	TargetChunkSize      int64   `toml:"target_chunk_size"`
	MaxChunkSize         int64   `toml:"max_chunk_size"`
	MinSequencesPerChunk int     `toml:"min_sequences_per_chunk"`
	TaxonomicCoherence   float64 `toml:"taxonomic_coherence"`
}

// DeltaDefaults mirrors spec §4.6's reference-selection and batching knobs.
type DeltaDefaults struct {
	SimilarityThreshold     float64 `toml:"similarity_threshold"`
	ReferenceRatio          float64 `toml:"reference_ratio"`
	MaxDeltaOpsThreshold    int     `toml:"max_delta_ops_threshold"`
	TargetSequencesPerChunk int     `toml:"target_sequences_per_chunk"`
}

// Registry is the complete, explicit configuration surface for one process
// invocation. It is constructed once by Load and passed into component
// constructors; no component reads os.Getenv itself.
type Registry struct {
	PreserveOnFailure bool
	PreserveAlways    bool
	WorkspaceDir      string
	Silent            bool

	WorkspaceStaleAfter time.Duration
	MemoryLimitMB       int64

	Chunking ChunkingDefaults
	Delta    DeltaDefaults
}

// Default returns the Registry with every documented default applied,
// before any file or environment override.
func Default() Registry {
	return Registry{
		WorkspaceDir:        os.TempDir(),
		WorkspaceStaleAfter: 24 * time.Hour,
		MemoryLimitMB:       4096,
		Chunking: ChunkingDefaults{
			TargetChunkSize:      64 << 20,
			MaxChunkSize:         256 << 20,
			MinSequencesPerChunk: 100,
			TaxonomicCoherence:   0.9,
		},
		Delta: DeltaDefaults{
			SimilarityThreshold:     0.3,
			ReferenceRatio:          0.1,
			MaxDeltaOpsThreshold:    64,
			TargetSequencesPerChunk: 1000,
		},
	}
}

// fileDoc is the shape of the optional TOML config file; only the sections
// a deployment wants to override need be present.
type fileDoc struct {
	WorkspaceDir        string           `toml:"workspace_dir"`
	WorkspaceStaleAfter string           `toml:"workspace_stale_after"`
	MemoryLimitMB       int64            `toml:"memory_limit_mb"`
	Chunking            ChunkingDefaults `toml:"chunking"`
	Delta               DeltaDefaults    `toml:"delta"`
}

// Load builds a Registry starting from Default, applying tomlPath (if
// non-empty) and then TALARIA_* environment variables, in that order, so
// env vars always win over the file.
func Load(tomlPath string) (Registry, error) {
	reg := Default()

	if tomlPath != "" {
		var doc fileDoc
		if _, err := toml.DecodeFile(tomlPath, &doc); err != nil {
			if os.IsNotExist(err) {
				return Registry{}, errors.Wrapf(errkind.ConfigError, "config file %s not found", tomlPath)
			}
			return Registry{}, errors.Wrapf(errkind.ConfigError, "parsing %s: %v", tomlPath, err)
		}
		applyFileDoc(&reg, doc)
	}

	applyEnv(&reg)
	return reg, nil
}

func applyFileDoc(reg *Registry, doc fileDoc) {
	if doc.WorkspaceDir != "" {
		reg.WorkspaceDir = doc.WorkspaceDir
	}
	if doc.WorkspaceStaleAfter != "" {
		if d, err := time.ParseDuration(doc.WorkspaceStaleAfter); err == nil {
			reg.WorkspaceStaleAfter = d
		}
	}
	if doc.MemoryLimitMB > 0 {
		reg.MemoryLimitMB = doc.MemoryLimitMB
	}
	if doc.Chunking.TargetChunkSize > 0 {
		reg.Chunking = doc.Chunking
	}
	if doc.Delta.MaxDeltaOpsThreshold > 0 {
		reg.Delta = doc.Delta
	}
}

func applyEnv(reg *Registry) {
	if v, ok := os.LookupEnv("TALARIA_PRESERVE_ON_FAILURE"); ok {
		reg.PreserveOnFailure = parseBoolEnv(v)
	}
	if v, ok := os.LookupEnv("TALARIA_PRESERVE_ALWAYS"); ok {
		reg.PreserveAlways = parseBoolEnv(v)
	}
	if v, ok := os.LookupEnv("TALARIA_WORKSPACE_DIR"); ok && v != "" {
		reg.WorkspaceDir = v
	}
	if v, ok := os.LookupEnv("TALARIA_SILENT"); ok {
		reg.Silent = parseBoolEnv(v)
	}
}

// parseBoolEnv treats any value other than "", "0", or "false" (case
// sensitive) as true, so TALARIA_PRESERVE_ALWAYS=1 and =true both work.
func parseBoolEnv(v string) bool {
	return v != "" && v != "0" && v != "false"
}
