// Copyright 2025 Google LLC
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

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_NowAdvances(t *testing.T) {
	var c RealClock
	t1 := c.Now()
	time.Sleep(time.Millisecond)
	t2 := c.Now()
	assert.True(t, t2.After(t1))
}

func TestFakeClock_NowHoldsUntilAdvanced(t *testing.T) {
	seed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(seed)

	assert.Equal(t, seed, c.Now())
	c.AdvanceTime(5 * time.Minute)
	assert.Equal(t, seed.Add(5*time.Minute), c.Now())
}

func TestFakeClock_AfterDoesNotBlock(t *testing.T) {
	seed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(seed)

	select {
	case got := <-c.After(time.Second):
		assert.Equal(t, seed.Add(time.Second), got)
	default:
		t.Fatal("After channel should have been ready immediately")
	}
}

var _ Clock = RealClock{}
var _ Clock = (*FakeClock)(nil)
