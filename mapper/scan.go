package mapper

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/rmap/circular"
	"github.com/grailbio/rmap/dna"
	"github.com/grailbio/rmap/index"
	"github.com/grailbio/rmap/reads"
	"github.com/grailbio/rmap/topk"
)

// seedCursor rolls one seed's window along a strand.  Besides the window
// ending at the current position it holds the slot bounds of the window
// ending at the next position, loaded one iteration ahead so that the index
// reads overlap with hit processing.
type seedCursor struct {
	idx    *index.Index
	span   int
	wmask  uint64
	window uint64
	skip   int
	valid  bool
	lo, hi uint32
}

func (c *seedCursor) init(idx *index.Index) {
	c.idx = idx
	c.span = idx.Seed.Span
	c.wmask = idx.Seed.WindowMask()
}

func (c *seedCursor) reset() {
	c.window = 0
	c.skip = c.span - 1
	c.valid = false
}

// advance shifts base code b into the window and loads the new window's slot
// bounds.  A window holding an ambiguous base is invalid.
func (c *seedCursor) advance(b byte) {
	c.window = (c.window<<2 | uint64(b&3)) & c.wmask
	if b > 3 {
		c.skip = c.span
	}
	if c.skip > 0 {
		c.skip--
		c.valid = false
		return
	}
	c.valid = true
	c.lo, c.hi = c.idx.Bounds(c.idx.Slot(c.idx.Seed.Key(c.window)))
}

// candidateWindow returns the window scored around a candidate whose
// triggering hit ends at strand position end: windowLen bases on either
// side, clipped to the strand.
func candidateWindow(end, windowLen, strandLen int) (off, n int) {
	off = end - windowLen
	if off < 0 {
		off = 0
	}
	n = 2 * windowLen
	if off+n >= strandLen {
		n = strandLen - off
	}
	return off, n
}

// Scan streams every contig of genome and records each read's best windows.
// Strands of a contig are scanned concurrently.
func (s *Session) Scan(ctx context.Context, genome Genome) error {
	s.contigs = s.contigs[:0]
	return genome.Contigs(ctx, func(c Contig) error {
		s.contigs = append(s.contigs, ContigInfo{Name: c.Name, Length: len(c.Seq)})
		err := traverse.Each(len(s.strands), func(k int) error {
			w := s.workers[k]
			scanSeq, letters := s.strandSeqs(w, c.Seq, s.strands[k])
			w.table.Reset()
			s.scanStrand(w, uint32(c.Index), s.strands[k], scanSeq, letters)
			return nil
		})
		if err != nil {
			return err
		}
		s.addStats(Stats{Contigs: 1, GenomeBases: len(c.Seq)})
		log.Printf("scan: contig %s (%d bases) done", c.Name, len(c.Seq))
		return nil
	})
}

// strandSeqs returns the letter codes of one strand of a contig, and the
// codes that reads are matched against: the letters themselves, or their
// colours in colour mode.
func (s *Session) strandSeqs(w *worker, seq []byte, reverse bool) (scanSeq, letters []byte) {
	letters = seq
	if reverse {
		w.rev = append(w.rev[:0], seq...)
		dna.ReverseComplementInplace(w.rev)
		letters = w.rev
	}
	if s.opts.Mode != reads.Colour {
		return letters, letters
	}
	w.colours = dna.ToColours(w.colours, letters, dna.PrimerBase)
	return w.colours, letters
}

// scanStrand makes one pass over a strand.  Every seed window is looked up in
// the index; each hit goes into its read's ring, and a read whose oldest ring
// hit lies within one window length of the new hit has a candidate window,
// unless its previous candidate is less than a window length behind.
func (s *Session) scanStrand(w *worker, contig uint32, reverse bool, scanSeq, letters []byte) {
	st := &w.stats
	n := len(scanSeq)
	if n == 0 {
		return
	}
	for i := range w.cursors {
		w.cursors[i].reset()
		w.cursors[i].advance(scanSeq[0])
	}
	for i := 0; i < n; i++ {
		for ci := range w.cursors {
			c := &w.cursors[ci]
			valid, lo, hi := c.valid, c.lo, c.hi
			if i+1 < n {
				c.advance(scanSeq[i+1])
			}
			if !valid {
				continue
			}
			st.Lookups++
			if lo == hi {
				continue
			}
			s.processHits(w, c.idx.Entries(lo, hi), i, i-c.span+1, contig, reverse, scanSeq, letters)
		}
	}
}

// processHits handles the index entries of the seed window spanning strand
// positions [start, end].
func (s *Session) processHits(w *worker, entries []index.Entry, end, start int, contig uint32, reverse bool, scanSeq, letters []byte) {
	var (
		st    = &w.stats
		table = w.table
		taboo = s.opts.TabooLen
	)
	st.ListEntries += len(entries)
	for _, e := range entries {
		r := int(e.ReadID)
		read := s.reads.Reads[r]
		// Hits of seeds with different spans can arrive out of order; only a
		// hit starting at or after the previous one can fall in its taboo.
		if prev := table.Newest(r); !prev.IsEmpty() {
			if d := start - int(prev.GenomeIdx); d >= 0 && d < taboo {
				st.TabooSkips++
				continue
			}
		}
		table.Push(r, circular.Hit{GenomeIdx: uint32(start), ReadIdx: uint32(e.Offset())})
		oldest := table.Oldest(r)
		if oldest.IsEmpty() || start-int(oldest.GenomeIdx) >= read.WindowLen {
			continue
		}
		if last := table.LastMatch(r); last != circular.Empty && end-int(last) < read.WindowLen {
			continue
		}
		st.Candidates++
		off, n := candidateWindow(end, read.WindowLen, len(letters))
		score, ok := s.prefilterScore(w, read, scanSeq, letters, off, n)
		if !ok {
			continue
		}
		st.HeapInserts++
		read.SaveScore(topk.Entry{
			Score:     int32(score),
			Contig:    contig,
			Reverse:   reverse,
			GenomeIdx: uint32(end),
		})
		table.SetLastMatch(r, uint32(end))
	}
}

// prefilterScore scores the candidate window of n bases at strand offset off
// and reports whether it clears the read's prefilter threshold.  Mate pairs
// must clear both thresholds and score the length-weighted mean of the
// mates' scores.
func (s *Session) prefilterScore(w *worker, read *reads.Read, scanSeq, letters []byte, off, n int) (int, bool) {
	m1 := &read.Mates[0]
	s1 := s.mateScore(w, m1, scanSeq, letters, off, n)
	if s1 < m1.PrefilterThreshold {
		return s1, false
	}
	if len(read.Mates) == 1 {
		return s1, true
	}
	m2 := &read.Mates[1]
	s2 := s.mateScore(w, m2, scanSeq, letters, off, n)
	if s2 < m2.PrefilterThreshold {
		return s2, false
	}
	l1, l2 := len(m1.Letters), len(m2.Letters)
	return (s1*l1 + s2*l2) / (l1 + l2), true
}

// mateScore runs the prefilter for one mate.  Colour reads are scored in
// colour space.
func (s *Session) mateScore(w *worker, m *reads.Mate, scanSeq, letters []byte, off, n int) int {
	w.stats.PrefilterCalls++
	if s.opts.Mode == reads.Colour {
		return w.pf.ScoreColours(scanSeq[off:off+n], letters[off:off+n], m.Seq, m.Letters[0])
	}
	return w.pf.Score(letters[off:off+n], m.Letters)
}
