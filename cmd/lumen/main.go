// Package main is the single-binary entrypoint for lumen.
// lumen picks the refresh rate a display should run at — one binary,
// one daemon, one decision at a time.
package main

import "github.com/lumen-display/lumen/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
