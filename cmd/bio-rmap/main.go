// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
bio-rmap maps short reads (letter-space, colour-space or paired) to a
reference genome using spaced seeds, and writes the alignments as SAM or TSV.

	bio-rmap map [flags] reads.fa genome.fa...
	bio-rmap seed pattern...
	bio-rmap index-stats [flags] reads.fa
*/
package main

import (
	"github.com/grailbio/base/grail"
	"v.io/x/lib/cmdline"
)

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-rmap",
		Short:    "Spaced-seed short-read mapper",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdMap(),
			newCmdSeed(),
			newCmdIndexStats(),
		},
	}
}

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}
