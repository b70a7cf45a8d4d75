package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/rmap/index"
	"github.com/grailbio/rmap/mapper"
	"github.com/grailbio/rmap/reads"
	"v.io/x/lib/cmdline"
)

func newCmdIndexStats() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "index-stats",
		Short:    "Show seed index statistics for a reads file",
		ArgsName: "readspath",
	}
	opts := mapper.DefaultOpts
	bindIndexFlags(&cmd.Flags, &opts)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("index-stats takes one reads path, but got %v", argv)
		}
		return indexStats(vcontext.Background(), os.Stdout, opts, argv[0])
	})
	return cmd
}

// indexStats builds the index of every seed over the reads and prints slot
// occupancy before pruning, and the number of slots pruning would drop.
func indexStats(ctx context.Context, w io.Writer, opts mapper.Opts, readsPath string) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	seeds, err := opts.ParseSeeds()
	if err != nil {
		return err
	}
	g, err := reads.Load(ctx, readsPath, opts.ReadOpts())
	if err != nil {
		return err
	}
	for _, sd := range seeds {
		idx, err := index.Build(sd, g)
		if err != nil {
			return err
		}
		st := idx.Stats()
		pruned := idx.Prune(opts.KmerStddevLimit)
		_, err = fmt.Fprintf(w, "%s\tslots=%d\thashed=%v\tentries=%d\tmean=%.3f\tstddev=%.3f\tmax=%d\tpruned=%d\n",
			sd, idx.NumSlots(), idx.Hashed(), idx.NumEntries(), st.Mean, st.Stddev, st.MaxSlot, pruned)
		idx.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
