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

// Package logging wires up the zap logger every Talaria component takes,
// using field-heavy structured logging rather than the stdlib log package.
package logging

import (
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-profile zap.Logger, or a development-profile one
// with human-friendly console output when dev is true. silent suppresses
// everything below Warn, mirroring TALARIA_SILENT (spec §6).
func New(dev bool, silent bool) (*zap.Logger, error) {
	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if silent {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return cfg.Build()
}

// Nop returns a logger that discards everything, the default every
// component falls back to when no logger is supplied (spec: "AMBIENT
// STACK" — "*zap.Logger (defaulting to zap.NewNop() when not supplied)").
func Nop() *zap.Logger {
	return zap.NewNop()
}

// ByteSize renders n as a human-readable byte count for log fields
// (e.g. "chunk_size", "bytes_fetched").
func ByteSize(n uint64) zapcore.Field {
	return zap.String("bytes_human", humanize.Bytes(n))
}

// Fingerprint is a convenience field constructor for the hex-encoded
// content hash that chunkstore and verify log lines carry.
func Fingerprint(key, hex string) zapcore.Field {
	return zap.String(key, hex)
}
