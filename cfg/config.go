// Copyright 2024 Google Inc. All Rights Reserved.
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

// Package cfg holds the allocator's configuration surface: the slab class
// table, the slab/chunk tier split point, and the checksum mode, loaded from
// YAML and/or bound to command-line flags.
package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ChecksumMode selects how a chunk's boundary-marker checksum is produced.
type ChecksumMode string

const (
	// ChecksumSentinel writes the fixed sentinel value into every marker
	// instead of computing a real checksum over the chunk payload.
	ChecksumSentinel ChecksumMode = "sentinel"
	// ChecksumComputed computes a real checksum over the chunk's payload
	// span on every free and revalidates it on every access.
	ChecksumComputed ChecksumMode = "computed"
)

// SlabClassSpec describes one fixed-size unit class of the slab tier.
type SlabClassSpec struct {
	UnitSize  int `yaml:"unit-size"`
	UnitCount int `yaml:"unit-count"`
}

// Config is the full allocator configuration.
type Config struct {
	AppName string `yaml:"app-name"`

	Debug DebugConfig `yaml:"debug"`

	Allocator AllocatorConfig `yaml:"allocator"`

	Logging LoggingConfig `yaml:"logging"`
}

// LogRotateConfig configures lumberjack-backed log-file rotation.
type LogRotateConfig struct {
	MaxFileSizeMB   int  `yaml:"max-file-size-mb"`
	BackupFileCount int  `yaml:"backup-file-count"`
	Compress        bool `yaml:"compress"`
}

// LoggingConfig selects where and how the allocator's structured log lines
// are written. An empty FilePath means stderr.
type LoggingConfig struct {
	FilePath  string          `yaml:"file-path"`
	Format    string          `yaml:"format"` // "json" or "text"
	Severity  string          `yaml:"severity"`
	LogRotate LogRotateConfig `yaml:"log-rotate"`
}

type DebugConfig struct {
	ExitOnInvariantViolation bool `yaml:"exit-on-invariant-violation"`

	TraceLog bool `yaml:"trace-log"`
}

// AllocatorConfig is the knob surface for duotier.Allocator.
type AllocatorConfig struct {
	// SlabClasses is the fixed-unit-size class table handed to the slab
	// tier, ascending by UnitSize. DefaultConfig fills it with
	// DefaultSlabClasses; an explicitly empty slice leaves the slab tier
	// without classes, so every request goes to the chunk tier.
	SlabClasses []SlabClassSpec `yaml:"slab-classes"`

	// MaxSlabBytes bounds how much of the region the slab tier may claim;
	// the remainder becomes the chunk tier's range.
	MaxSlabBytes int `yaml:"max-slab-bytes"`

	// Checksum selects the boundary-marker checksum strategy.
	Checksum ChecksumMode `yaml:"checksum"`
}

// DefaultSlabClasses mirrors the three populated classes of the allocator
// this module was modeled on: 16, 32 and 64-byte units.
func DefaultSlabClasses() []SlabClassSpec {
	return []SlabClassSpec{
		{UnitSize: 16, UnitCount: 400},
		{UnitSize: 32, UnitCount: 200},
		{UnitSize: 64, UnitCount: 50},
	}
}

// DefaultLogRotateConfig mirrors the rotation defaults of the logger this
// package's Logging section configures: 10MB files, two backups, gzipped.
func DefaultLogRotateConfig() LogRotateConfig {
	return LogRotateConfig{MaxFileSizeMB: 10, BackupFileCount: 2, Compress: true}
}

// DefaultLoggingConfig returns stderr, JSON-formatted, INFO-severity logging.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Format:    "json",
		Severity:  "INFO",
		LogRotate: DefaultLogRotateConfig(),
	}
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		AppName: "duotier",
		Allocator: AllocatorConfig{
			SlabClasses:  DefaultSlabClasses(),
			MaxSlabBytes: 400*16 + 200*32 + 50*64 + 4096,
			Checksum:     ChecksumSentinel,
		},
		Logging: DefaultLoggingConfig(),
	}
}

func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("app-name", "", "duotier", "Application name stored in the config; log lines and metric labels do not carry it.")

	err = viper.BindPFlag("app-name", flagSet.Lookup("app-name"))
	if err != nil {
		return err
	}

	flagSet.BoolP("debug_invariants", "", false, "Sets debug.exit-on-invariant-violation in the config; neither duotierctl nor the allocator reads it.")

	err = viper.BindPFlag("debug.exit-on-invariant-violation", flagSet.Lookup("debug_invariants"))
	if err != nil {
		return err
	}

	flagSet.BoolP("trace_log", "", false, "Emit trace-level structured log entries for allocator decisions; they are written only when log-severity is TRACE.")

	err = viper.BindPFlag("debug.trace-log", flagSet.Lookup("trace_log"))
	if err != nil {
		return err
	}

	flagSet.IntP("max-slab-bytes", "", 0, "Bytes of the region reserved for the slab tier. 0 selects the built-in default.")

	err = viper.BindPFlag("allocator.max-slab-bytes", flagSet.Lookup("max-slab-bytes"))
	if err != nil {
		return err
	}

	flagSet.StringP("checksum", "", string(ChecksumSentinel), "Boundary-marker checksum strategy: sentinel or computed.")

	err = viper.BindPFlag("allocator.checksum", flagSet.Lookup("checksum"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to write structured logs to. Empty means stderr.")

	err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "json", "Structured log output format: json or text.")

	err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "INFO", "Minimum severity logged: TRACE, DEBUG, INFO, WARNING, ERROR or OFF.")

	err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity"))
	if err != nil {
		return err
	}

	return nil
}
