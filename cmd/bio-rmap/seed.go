package main

import (
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/rmap/seed"
	"v.io/x/lib/cmdline"
)

func newCmdSeed() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "seed",
		Short:    "Describe spaced seed patterns",
		ArgsName: "pattern...",
		Long: `
Seed parses each spaced seed pattern ('1' is a match position, '0' a don't
care; an optional ":off|off..." suffix restricts the read offsets it is
applied at) and prints its span, weight and key space.`,
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("seed takes at least one pattern")
		}
		return describeSeeds(os.Stdout, argv)
	})
	return cmd
}

func describeSeeds(w io.Writer, patterns []string) error {
	for _, p := range patterns {
		sd, err := seed.Parse(p)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\tspan=%d\tweight=%d\tkeys=%d\toffsets=%v\n",
			sd, sd.Span, sd.Weight, sd.NumKeys(), sd.Positions); err != nil {
			return err
		}
	}
	return nil
}
