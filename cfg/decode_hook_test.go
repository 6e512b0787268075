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

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, input map[string]interface{}, out interface{}) error {
	t.Helper()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     out,
	})
	require.NoError(t, err)
	return decoder.Decode(input)
}

func TestDecodeHook_ParsesChecksumMode(t *testing.T) {
	var out struct {
		Checksum ChecksumMode
	}
	err := decode(t, map[string]interface{}{"checksum": "COMPUTED"}, &out)
	require.NoError(t, err)
	assert.Equal(t, ChecksumComputed, out.Checksum)
}

func TestDecodeHook_RejectsUnknownChecksumMode(t *testing.T) {
	var out struct {
		Checksum ChecksumMode
	}
	err := decode(t, map[string]interface{}{"checksum": "crc32"}, &out)
	assert.Error(t, err)
}
