package mapper

import (
	"github.com/grailbio/rmap/align"
	"github.com/grailbio/rmap/reads"
)

// Alignment is one reported alignment of a read (or of one mate) to a
// contig.
type Alignment struct {
	Read *reads.Read
	// Mate is the index of the aligned mate in Read.Mates.
	Mate      int
	Contig    string
	ContigLen int
	// Reverse is set when the read aligned to the reverse-complement strand.
	Reverse bool
	// WindowOffset is the strand coordinate of the aligned window's first
	// base.  Result offsets are relative to it.
	WindowOffset int
	Result       align.Result
}

// RefStart is the forward-strand coordinate (0-based) of the leftmost
// reference base covered by the alignment.
func (a *Alignment) RefStart() int {
	if !a.Reverse {
		return a.WindowOffset + a.Result.GenomeStart
	}
	return a.ContigLen - 1 - (a.WindowOffset + a.Result.GenomeEnd)
}

// RefEnd is the forward-strand coordinate of the rightmost reference base
// covered by the alignment.
func (a *Alignment) RefEnd() int {
	if !a.Reverse {
		return a.WindowOffset + a.Result.GenomeEnd
	}
	return a.ContigLen - 1 - (a.WindowOffset + a.Result.GenomeStart)
}

// Sink receives reported alignments, one contig at a time, forward strand
// before reverse strand, best first within a strand.
type Sink interface {
	Write(a *Alignment) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(a *Alignment) error

// Write implements Sink.
func (f SinkFunc) Write(a *Alignment) error { return f(a) }
