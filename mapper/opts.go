package mapper

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/rmap/align"
	"github.com/grailbio/rmap/reads"
	"github.com/grailbio/rmap/seed"
)

// Opts configures a mapping run.
type Opts struct {
	Mode reads.Mode
	// Seeds is a comma-separated list of spaced seeds.  Empty selects
	// DefaultSeeds(Mode).
	Seeds string
	// MatchesPerWindow is the number of seed hits a read needs within one
	// window before the window is scored.
	MatchesPerWindow int
	// TabooLen discards a seed hit that starts fewer than TabooLen bases after
	// the read's previous hit.
	TabooLen int
	// Window is the candidate window length, usually a percentage of the read
	// length.  The window scored around a candidate spans twice this length.
	Window reads.Threshold
	// MaxHitsPerRead is the number of best windows kept per read.
	MaxHitsPerRead int
	// KmerStddevLimit prunes index slots holding more than mean +
	// KmerStddevLimit*stddev reads.  Negative disables pruning.
	KmerStddevLimit float64
	// Params is the alignment scoring scheme, shared by the prefilter and
	// the full aligner.
	Params align.Params
	// PrefilterThreshold is the score a window must reach to be kept as a
	// candidate.  In letter mode it is replaced by FullThreshold.
	PrefilterThreshold reads.Threshold
	// FullThreshold is the score a full alignment must reach to be reported.
	FullThreshold reads.Threshold
	// ForwardOnly and ReverseOnly restrict scanning to one strand of the
	// genome.  Neither means both.
	ForwardOnly, ReverseOnly bool
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	Mode:               reads.Letter,          // -mode
	Seeds:              "",                    // -s
	MatchesPerWindow:   2,                     // -n
	TabooLen:           4,                     // -t
	Window:             reads.Percentage(115), // -w
	MaxHitsPerRead:     100,                   // -o
	KmerStddevLimit:    -1,                    // -d
	Params:             align.DefaultParams,   // -m, -i, -g, -e, -q, -f
	PrefilterThreshold: reads.Percentage(60),  // -v
	FullThreshold:      reads.Percentage(68),  // -h
	ForwardOnly:        false,                 // -F
	ReverseOnly:        false,                 // -C
}

// DefaultSeeds returns the seeds used for mode when Opts.Seeds is empty.
func DefaultSeeds(mode reads.Mode) string {
	if mode == reads.Colour {
		return "11110111111"
	}
	return "111111011111"
}

// Validate checks the options for consistency.
func (o *Opts) Validate() error {
	if o.Mode != reads.Letter && o.Mode != reads.Colour && o.Mode != reads.Paired {
		return errors.E(errors.Invalid, "invalid mode", o.Mode.String())
	}
	if _, err := o.ParseSeeds(); err != nil {
		return err
	}
	if o.MatchesPerWindow < 1 {
		return errors.E(errors.Invalid, "matches per window must be at least 1")
	}
	if o.TabooLen < 0 {
		return errors.E(errors.Invalid, "taboo length must not be negative")
	}
	if o.MaxHitsPerRead < 1 {
		return errors.E(errors.Invalid, "hits per read must be at least 1")
	}
	if o.Window.Value <= 0 {
		return errors.E(errors.Invalid, "window length must be positive")
	}
	if o.Window.Percent && o.Window.Value < 100 {
		return errors.E(errors.Invalid, "window length must be at least 100% of the read length")
	}
	if err := o.Params.Validate(); err != nil {
		return err
	}
	for _, t := range []reads.Threshold{o.PrefilterThreshold, o.FullThreshold} {
		if t.Percent && t.Value > 100 {
			return errors.E(errors.Invalid, "threshold", t.String(), "exceeds 100%")
		}
	}
	if o.ForwardOnly && o.ReverseOnly {
		return errors.E(errors.Invalid, "forward-only and reverse-only are mutually exclusive")
	}
	return nil
}

// ParseSeeds parses Seeds, or the mode's default seeds.
func (o *Opts) ParseSeeds() ([]*seed.Seed, error) {
	s := o.Seeds
	if s == "" {
		s = DefaultSeeds(o.Mode)
	}
	return seed.ParseList(s)
}

// readOpts derives the read loading options.
func (o *Opts) readOpts() reads.Opts {
	ro := reads.Opts{
		Mode:           o.Mode,
		Window:         o.Window,
		Prefilter:      o.PrefilterThreshold,
		Final:          o.FullThreshold,
		Match:          o.Params.Match,
		MaxHitsPerRead: o.MaxHitsPerRead,
	}
	if o.Mode == reads.Letter {
		ro.Prefilter = o.FullThreshold
	}
	return ro
}

// ReadOpts returns the options for loading reads for this run.
func (o *Opts) ReadOpts() reads.Opts { return o.readOpts() }

// strands lists the strands to scan: false is forward, true reverse.
func (o *Opts) strands() []bool {
	switch {
	case o.ForwardOnly:
		return []bool{false}
	case o.ReverseOnly:
		return []bool{true}
	}
	return []bool{false, true}
}
