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

package cfg

import "fmt"

const (
	SlabClassCountTooHighError = "allocator supports at most 32 slab classes"
	SlabUnitSizeInvalidError   = "slab class unit-size must be a positive multiple of 8"
	SlabUnitCountInvalidError  = "slab class unit-count must not be negative"
	MaxSlabBytesInvalidError   = "allocator.max-slab-bytes must not be negative"
	ChecksumModeInvalidError   = "allocator.checksum must be either \"sentinel\" or \"computed\""
	LogFormatInvalidError      = "logging.format must be either \"json\" or \"text\""
	LogSeverityInvalidError    = "logging.severity must be one of TRACE, DEBUG, INFO, WARNING, ERROR or OFF"
	LogRotateSizeInvalidError  = "logging.log-rotate.max-file-size-mb must be positive"
	LogRotateCountInvalidError = "logging.log-rotate.backup-file-count must not be negative"
)

func isValidSlabClasses(specs []SlabClassSpec) error {
	if len(specs) > 32 {
		return fmt.Errorf(SlabClassCountTooHighError)
	}
	for _, s := range specs {
		if s.UnitSize <= 0 || s.UnitSize%8 != 0 {
			return fmt.Errorf(SlabUnitSizeInvalidError)
		}
		if s.UnitCount < 0 {
			return fmt.Errorf(SlabUnitCountInvalidError)
		}
	}
	return nil
}

func isValidChecksumMode(m ChecksumMode) error {
	switch m {
	case ChecksumSentinel, ChecksumComputed:
		return nil
	default:
		return fmt.Errorf(ChecksumModeInvalidError)
	}
}

func isValidLogFormat(format string) error {
	switch format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf(LogFormatInvalidError)
	}
}

func isValidLogSeverity(severity string) error {
	switch severity {
	case "TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF":
		return nil
	default:
		return fmt.Errorf(LogSeverityInvalidError)
	}
}

func isValidLogRotateConfig(r *LogRotateConfig) error {
	if r.MaxFileSizeMB <= 0 {
		return fmt.Errorf(LogRotateSizeInvalidError)
	}
	if r.BackupFileCount < 0 {
		return fmt.Errorf(LogRotateCountInvalidError)
	}
	return nil
}

// ValidateConfig returns a non-nil error if the config is invalid.
func ValidateConfig(config *Config) error {
	if err := isValidSlabClasses(config.Allocator.SlabClasses); err != nil {
		return fmt.Errorf("error parsing allocator.slab-classes config: %w", err)
	}

	if config.Allocator.MaxSlabBytes < 0 {
		return fmt.Errorf(MaxSlabBytesInvalidError)
	}

	if err := isValidChecksumMode(config.Allocator.Checksum); err != nil {
		return fmt.Errorf("error parsing allocator.checksum config: %w", err)
	}

	if err := isValidLogFormat(config.Logging.Format); err != nil {
		return fmt.Errorf("error parsing logging.format config: %w", err)
	}

	if err := isValidLogSeverity(config.Logging.Severity); err != nil {
		return fmt.Errorf("error parsing logging.severity config: %w", err)
	}

	if err := isValidLogRotateConfig(&config.Logging.LogRotate); err != nil {
		return fmt.Errorf("error parsing logging.log-rotate config: %w", err)
	}

	return nil
}
