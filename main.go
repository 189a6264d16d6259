// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// nmessenger is a terminal chat transcript with grouped message bubbles.
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/nmessenger-tui/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
}

func main() {
	os.Exit(cli.Execute())
}
