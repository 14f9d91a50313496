// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-decrypt CLI.
package main

import (
	"os"

	"github.com/kmorita/pdf-decrypt/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd(defaultDeps()).Execute(); err != nil {
		logging.New(false, false).Errorf("%v", err)
		os.Exit(1)
	}
}
