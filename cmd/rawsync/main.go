// Package main implements the rawsync CLI.
//
// The CLI drives the stress harness against the primitives and keeps a
// history of results so that regressions show up as throughput deltas:
//
//	rawsync stress                       # run every configured scenario
//	rawsync stress -f rawsync.yaml --scenario counter --save --trace
//	rawsync baseline list --scenario counter
//	rawsync version --require v0.1.0
//
// Exit status is 0 on success and 1 on any error, including stress runs
// that report failures or tracer violations.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
