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
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/duotier/duotier"
	"github.com/duotier/duotier/common"
	"github.com/duotier/duotier/internal/diag"
	"github.com/duotier/duotier/internal/logger"
)

var (
	runRegionSize int
	runScriptPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a command script against one in-process allocator",
	Long: `run builds a single duotier.Allocator over a freshly allocated
region-size-byte buffer and replays a line-oriented script of alloc/free/
stat/corrupt commands against it, printing occupancy after every stat
line. A command that fails aborts the run; the commands that were never
reached are reported so the caller can see exactly how far it got.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runRegionSize, "region-size", 1<<16, "Size in bytes of the backing buffer to allocate.")
	runCmd.Flags().StringVar(&runScriptPath, "script", "", "Path to the command script. Required.")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runScriptPath == "" {
		return fmt.Errorf("--script is required")
	}
	if runRegionSize <= 0 {
		return fmt.Errorf("--region-size must be positive")
	}

	f, err := os.Open(runScriptPath)
	if err != nil {
		return fmt.Errorf("opening script: %w", err)
	}
	defer f.Close()

	queue, err := readScriptLines(f)
	if err != nil {
		return err
	}

	if err := logger.InitLogFile(Config.Logging); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	shutdown := common.JoinShutdownFunc(logger.Shutdown)
	defer shutdown(context.Background())

	var log *logger.Logger
	if Config.Debug.TraceLog {
		log = logger.New()
	}
	opts := toOptions(Config.Allocator, log)

	buf := make([]byte, runRegionSize)
	alloc, err := duotier.New(buf, opts)
	if err != nil {
		return fmt.Errorf("initializing allocator: %w", err)
	}

	printer := diag.NewPrinter(os.Stdout, alloc.ID())
	runner := newScriptRunner(alloc, printer, diag.NoopMetrics(), os.Stdout)

	runErr := runner.run(queue)

	if !queue.IsEmpty() {
		remaining := queue.Drain()
		fmt.Fprintf(os.Stderr, "run aborted with %d command(s) never reached:\n", len(remaining))
		for _, line := range remaining {
			fmt.Fprintf(os.Stderr, "  %s\n", line.raw)
		}
	}

	return runErr
}
