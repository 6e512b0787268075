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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/duotier/duotier"
	"github.com/duotier/duotier/internal/diag"
)

var statRegionSize int

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Print the initial layout of a freshly initialized allocator",
	Long: `stat builds one duotier.Allocator over a region-size-byte buffer,
allocates nothing, and prints the resulting layout: the slab class table's
starting occupancy and the chunk tier's single initial free chunk.`,
	RunE: runStat,
}

func init() {
	statCmd.Flags().IntVar(&statRegionSize, "region-size", 1<<16, "Size in bytes of the backing buffer to allocate.")
}

func runStat(cmd *cobra.Command, args []string) error {
	if statRegionSize <= 0 {
		return fmt.Errorf("--region-size must be positive")
	}

	opts := toOptions(Config.Allocator, nil)

	buf := make([]byte, statRegionSize)
	alloc, err := duotier.New(buf, opts)
	if err != nil {
		return fmt.Errorf("initializing allocator: %w", err)
	}

	printer := diag.NewPrinter(os.Stdout, alloc.ID())
	return printer.Print(alloc.Stats())
}
