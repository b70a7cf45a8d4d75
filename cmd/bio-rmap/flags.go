package main

import (
	"flag"

	"github.com/grailbio/rmap/mapper"
	"github.com/grailbio/rmap/reads"
)

// thresholdFlag binds a reads.Threshold to a flag.  Values containing '%' or
// '.' are percentages.
type thresholdFlag struct{ t *reads.Threshold }

func (f thresholdFlag) String() string {
	if f.t == nil {
		return ""
	}
	return f.t.String()
}

func (f thresholdFlag) Set(s string) error {
	t, err := reads.ParseThreshold(s)
	if err != nil {
		return err
	}
	*f.t = t
	return nil
}

type modeFlag struct{ m *reads.Mode }

func (f modeFlag) String() string {
	if f.m == nil {
		return ""
	}
	return f.m.String()
}

func (f modeFlag) Set(s string) error {
	m, err := reads.ParseMode(s)
	if err != nil {
		return err
	}
	*f.m = m
	return nil
}

// bindIndexFlags registers the flags that shape the seed index.
func bindIndexFlags(fs *flag.FlagSet, o *mapper.Opts) {
	fs.Var(modeFlag{&o.Mode}, "mode", "Read mode: letter, colour or paired")
	fs.StringVar(&o.Seeds, "s", o.Seeds, "Comma-separated spaced seeds, e.g. 1111011111. Empty selects the mode's default")
	fs.Var(thresholdFlag{&o.Window}, "w", "Window length, absolute or as a percentage of the read length")
	fs.Float64Var(&o.KmerStddevLimit, "d", o.KmerStddevLimit, "Prune seed slots holding more than mean+d*stddev reads; negative disables pruning")
}

// bindMapFlags registers all mapping flags on fs, with defaults taken from o.
func bindMapFlags(fs *flag.FlagSet, o *mapper.Opts) {
	bindIndexFlags(fs, o)
	fs.IntVar(&o.MatchesPerWindow, "n", o.MatchesPerWindow, "Seed hits required within a window")
	fs.IntVar(&o.TabooLen, "t", o.TabooLen, "Minimum distance between consecutive seed hits of a read")
	fs.IntVar(&o.MaxHitsPerRead, "o", o.MaxHitsPerRead, "Best windows kept per read")
	fs.IntVar(&o.Params.Match, "m", o.Params.Match, "Match score")
	fs.IntVar(&o.Params.Mismatch, "i", o.Params.Mismatch, "Mismatch score")
	fs.IntVar(&o.Params.ReadGapOpen, "g", o.Params.ReadGapOpen, "Gap open penalty for a reference base opposite a read gap")
	fs.IntVar(&o.Params.ReadGapExtend, "e", o.Params.ReadGapExtend, "Gap extend penalty for a reference base opposite a read gap")
	fs.IntVar(&o.Params.RefGapOpen, "q", o.Params.RefGapOpen, "Gap open penalty for a read base opposite a reference gap")
	fs.IntVar(&o.Params.RefGapExtend, "f", o.Params.RefGapExtend, "Gap extend penalty for a read base opposite a reference gap")
	fs.Var(thresholdFlag{&o.PrefilterThreshold}, "v", "Prefilter score threshold; letter mode uses the full threshold")
	fs.Var(thresholdFlag{&o.FullThreshold}, "h", "Full alignment score threshold")
	fs.BoolVar(&o.ForwardOnly, "F", o.ForwardOnly, "Scan the forward strand only")
	fs.BoolVar(&o.ReverseOnly, "C", o.ReverseOnly, "Scan the reverse-complement strand only")
}
