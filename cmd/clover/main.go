// Package main is the entry point for the clover contact deduplication service.
package main

import "github.com/Ramsey-B/clover/cmd/clover/cmd"

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd.Execute(version, commit)
}
