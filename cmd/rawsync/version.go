package main

import (
	"fmt"

	"github.com/kolkov/rawsync/rawsync"
)

// VersionCmd prints the library version.
type VersionCmd struct {
	Require string `long:"require" description:"Fail unless this build satisfies the given version"`

	root *Options
}

func (c *VersionCmd) Execute(_ []string) error {
	info := rawsync.GetInfo()
	fmt.Fprintf(c.root.out, "rawsync version %s\n", info.Version)
	if c.Require == "" {
		return nil
	}
	return rawsync.Compatible(c.Require)
}
