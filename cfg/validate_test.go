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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfig_DefaultIsValid(t *testing.T) {
	c := DefaultConfig()
	assert.NoError(t, ValidateConfig(&c))
}

func TestValidateConfig_RejectsOddUnitSize(t *testing.T) {
	c := DefaultConfig()
	c.Allocator.SlabClasses = []SlabClassSpec{{UnitSize: 17, UnitCount: 10}}
	err := ValidateConfig(&c)
	assert.ErrorContains(t, err, SlabUnitSizeInvalidError)
}

func TestValidateConfig_RejectsNegativeUnitCount(t *testing.T) {
	c := DefaultConfig()
	c.Allocator.SlabClasses = []SlabClassSpec{{UnitSize: 16, UnitCount: -1}}
	err := ValidateConfig(&c)
	assert.ErrorContains(t, err, SlabUnitCountInvalidError)
}

func TestValidateConfig_RejectsTooManySlabClasses(t *testing.T) {
	c := DefaultConfig()
	specs := make([]SlabClassSpec, 33)
	for i := range specs {
		specs[i] = SlabClassSpec{UnitSize: 8, UnitCount: 1}
	}
	c.Allocator.SlabClasses = specs
	err := ValidateConfig(&c)
	assert.ErrorContains(t, err, SlabClassCountTooHighError)
}

func TestValidateConfig_RejectsNegativeMaxSlabBytes(t *testing.T) {
	c := DefaultConfig()
	c.Allocator.MaxSlabBytes = -1
	err := ValidateConfig(&c)
	assert.ErrorContains(t, err, MaxSlabBytesInvalidError)
}

func TestValidateConfig_RejectsUnknownChecksumMode(t *testing.T) {
	c := DefaultConfig()
	c.Allocator.Checksum = "crc32"
	err := ValidateConfig(&c)
	assert.ErrorContains(t, err, ChecksumModeInvalidError)
}

func TestValidateConfig_RejectsUnknownLogFormat(t *testing.T) {
	c := DefaultConfig()
	c.Logging.Format = "xml"
	err := ValidateConfig(&c)
	assert.ErrorContains(t, err, LogFormatInvalidError)
}

func TestValidateConfig_RejectsUnknownLogSeverity(t *testing.T) {
	c := DefaultConfig()
	c.Logging.Severity = "VERBOSE"
	err := ValidateConfig(&c)
	assert.ErrorContains(t, err, LogSeverityInvalidError)
}

func TestValidateConfig_RejectsNonPositiveLogRotateSize(t *testing.T) {
	c := DefaultConfig()
	c.Logging.LogRotate.MaxFileSizeMB = 0
	err := ValidateConfig(&c)
	assert.ErrorContains(t, err, LogRotateSizeInvalidError)
}

func TestValidateConfig_RejectsNegativeLogRotateBackupCount(t *testing.T) {
	c := DefaultConfig()
	c.Logging.LogRotate.BackupFileCount = -1
	err := ValidateConfig(&c)
	assert.ErrorContains(t, err, LogRotateCountInvalidError)
}
