package mapper

import "github.com/grailbio/base/log"

// Stats counts the work done by a run.
type Stats struct {
	// Contigs and GenomeBases count the reference scanned.
	Contigs     int
	GenomeBases int
	// Lookups is the number of seed windows probed in the index.
	Lookups int
	// ListEntries is the number of index entries visited.
	ListEntries int
	// TabooSkips counts hits discarded for following the previous hit of the
	// same read too closely.
	TabooSkips int
	// Candidates counts windows passed to the prefilter.
	Candidates int
	// PrefilterCalls counts prefilter invocations; paired reads may need two
	// per candidate.
	PrefilterCalls int
	// HeapInserts counts windows that cleared the prefilter threshold.
	HeapInserts int
	// WindowsNarrowed counts successful window halvings in the final pass.
	WindowsNarrowed int
	// FullAlignments counts full aligner invocations.
	FullAlignments int
	// ScoreMismatches counts full alignments that did not reproduce the
	// prefilter score.
	ScoreMismatches int
	// BacktraceErrors counts alignments dropped on an inconsistent matrix.
	BacktraceErrors int
	// Alignments is the number of alignments reported.
	Alignments int
	// ReadsMatched is the number of reads with at least one alignment.
	ReadsMatched int
}

// Merge adds the field values of the two Stats objects and creates new Stats.
func (s Stats) Merge(o Stats) Stats {
	s.Contigs += o.Contigs
	s.GenomeBases += o.GenomeBases
	s.Lookups += o.Lookups
	s.ListEntries += o.ListEntries
	s.TabooSkips += o.TabooSkips
	s.Candidates += o.Candidates
	s.PrefilterCalls += o.PrefilterCalls
	s.HeapInserts += o.HeapInserts
	s.WindowsNarrowed += o.WindowsNarrowed
	s.FullAlignments += o.FullAlignments
	s.ScoreMismatches += o.ScoreMismatches
	s.BacktraceErrors += o.BacktraceErrors
	s.Alignments += o.Alignments
	s.ReadsMatched += o.ReadsMatched
	return s
}

// Log prints the stats.
func (s Stats) Log() {
	log.Printf("stats: %d contigs, %d bases; %d lookups, %d list entries, %d taboo skips",
		s.Contigs, s.GenomeBases, s.Lookups, s.ListEntries, s.TabooSkips)
	log.Printf("stats: %d candidates, %d prefilter calls, %d kept",
		s.Candidates, s.PrefilterCalls, s.HeapInserts)
	log.Printf("stats: %d full alignments (%d narrowed windows, %d score mismatches, %d backtrace errors)",
		s.FullAlignments, s.WindowsNarrowed, s.ScoreMismatches, s.BacktraceErrors)
	log.Printf("stats: %d alignments reported for %d reads", s.Alignments, s.ReadsMatched)
}
