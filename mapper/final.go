package mapper

import (
	"context"
	"sort"
	"strconv"

	"github.com/grailbio/base/bitset"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/rmap/align"
	"github.com/grailbio/rmap/reads"
	"github.com/grailbio/rmap/topk"
)

// candidate is a drained heap entry together with its read.
type candidate struct {
	topk.Entry
	readID uint32
}

// candidateLists drains every read's heap into one list per contig and
// strand, ordered by descending score, then ascending position, then read.
func (s *Session) candidateLists() [][]candidate {
	lists := make([][]candidate, 2*len(s.contigs))
	for _, r := range s.reads.Reads {
		for _, e := range r.DrainHits() {
			k := 2 * int(e.Contig)
			if e.Reverse {
				k++
			}
			lists[k] = append(lists[k], candidate{Entry: e, readID: r.ID})
		}
	}
	for _, l := range lists {
		sort.Slice(l, func(i, j int) bool {
			if l[i].Score != l[j].Score {
				return l[i].Score > l[j].Score
			}
			if l[i].GenomeIdx != l[j].GenomeIdx {
				return l[i].GenomeIdx < l[j].GenomeIdx
			}
			return l[i].readID < l[j].readID
		})
	}
	return lists
}

// FinalPass fully aligns the windows kept by Scan and writes those reaching
// the final threshold to sink.  genome must yield the contigs that Scan saw.
func (s *Session) FinalPass(ctx context.Context, genome Genome, sink Sink) error {
	var (
		lists   = s.candidateLists()
		matched = make([]uintptr, (s.reads.Len()+bitset.BitsPerWord-1)/bitset.BitsPerWord)
		n       int
		results = make([][]*Alignment, len(s.strands))
		st      Stats
	)
	err := genome.Contigs(ctx, func(c Contig) error {
		if c.Index >= len(s.contigs) || s.contigs[c.Index].Name != c.Name || s.contigs[c.Index].Length != len(c.Seq) {
			return errors.E(errors.Invalid, "genome changed since scanning: contig", strconv.Itoa(c.Index), c.Name)
		}
		n++
		err := traverse.Each(len(s.strands), func(k int) error {
			results[k] = results[k][:0]
			reverse := s.strands[k]
			l := lists[2*c.Index]
			if reverse {
				l = lists[2*c.Index+1]
			}
			if len(l) == 0 {
				return nil
			}
			w := s.workers[k]
			scanSeq, letters := s.strandSeqs(w, c.Seq, reverse)
			for _, cand := range l {
				results[k] = s.alignCandidate(w, c, reverse, scanSeq, letters, cand, results[k])
			}
			return nil
		})
		if err != nil {
			return err
		}
		for k := range s.strands {
			for _, a := range results[k] {
				if err := sink.Write(a); err != nil {
					return err
				}
				st.Alignments++
				if !bitset.Test(matched, int(a.Read.ID)) {
					bitset.Set(matched, int(a.Read.ID))
					st.ReadsMatched++
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if n != len(s.contigs) {
		return errors.E(errors.Invalid, "genome changed since scanning: found", strconv.Itoa(n), "contigs, want", strconv.Itoa(len(s.contigs)))
	}
	s.addStats(st)
	log.Printf("final pass: %d alignments for %d reads", st.Alignments, st.ReadsMatched)
	return nil
}

// alignCandidate aligns the mates of one candidate and appends those that
// reach their final threshold to out.
func (s *Session) alignCandidate(w *worker, c Contig, reverse bool, scanSeq, letters []byte, cand candidate, out []*Alignment) []*Alignment {
	read := s.reads.Reads[cand.readID]
	off, n := candidateWindow(int(cand.GenomeIdx), read.WindowLen, len(letters))
	for mi := range read.Mates {
		m := &read.Mates[mi]
		expected := -1
		if len(read.Mates) == 1 {
			// The prefilter score is exact and unbanded; the full alignment can
			// only do worse.
			if int(cand.Score) < m.FinalThreshold {
				continue
			}
			expected = int(cand.Score)
			if s.opts.Mode == reads.Letter {
				off, n = s.narrowWindow(w, letters, m.Letters, off, n, expected)
			}
		}
		w.stats.FullAlignments++
		var (
			res align.Result
			err error
		)
		if s.opts.Mode == reads.Colour {
			res, err = w.aligner.AlignColours(scanSeq[off:off+n], letters[off:off+n], m.Seq, m.Letters[0], m.FinalThreshold, expected)
		} else {
			res, err = w.aligner.Align(letters[off:off+n], m.Letters, m.FinalThreshold, expected)
		}
		if err != nil {
			log.Error.Printf("read %s, contig %s: %v", read.Name, c.Name, err)
			w.stats.BacktraceErrors++
			continue
		}
		if res.ExpectedMissed {
			w.stats.ScoreMismatches++
		}
		if res.Empty() || res.Score < m.FinalThreshold {
			continue
		}
		out = append(out, &Alignment{
			Read:         read,
			Mate:         mi,
			Contig:       c.Name,
			ContigLen:    len(letters),
			Reverse:      reverse,
			WindowOffset: off,
			Result:       res,
		})
	}
	return out
}

// narrowWindow repeatedly halves a window, keeping its middle, for as long as
// the prefilter still finds the same score in the narrower window and the
// window stays at least as long as the read.
func (s *Session) narrowWindow(w *worker, letters, read []byte, off, n, score int) (int, int) {
	for {
		tryLen := n / 2
		if tryLen < len(read) {
			return off, n
		}
		tryOff := off + tryLen/2
		w.stats.PrefilterCalls++
		if w.pf.Score(letters[tryOff:tryOff+tryLen], read) != score {
			return off, n
		}
		off, n = tryOff, tryLen
		w.stats.WindowsNarrowed++
	}
}
