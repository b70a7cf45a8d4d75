// Package prefilter scores candidate windows cheaply before full alignment.
//
// Scorer runs the same local-alignment recurrence as align.Aligner, but
// unbanded and without keeping a matrix: it keeps two rows of the three score
// planes and returns only the best score.  The score is therefore always
// achievable by align.Aligner on the same window when the band admits the
// optimal path, which is what the final pass relies on when it passes the
// prefilter score as the expected maximum.
package prefilter

import (
	"github.com/grailbio/rmap/align"
)

// Scorer computes best local alignment scores.  Not thread safe.
type Scorer struct {
	p align.Params

	// Previous and current rows of the diagonal, north and west planes,
	// indexed by window offset + 1.
	pd, pn, pw []int32
	cd, cn, cw []int32
}

// New creates a Scorer for windows of up to maxGenomeLen bases.
func New(maxGenomeLen int, p align.Params) *Scorer {
	s := &Scorer{p: p}
	s.reserve(maxGenomeLen)
	return s
}

func (s *Scorer) reserve(n int) {
	if len(s.pd) >= n+1 {
		return
	}
	s.pd, s.pn, s.pw = make([]int32, n+1), make([]int32, n+1), make([]int32, n+1)
	s.cd, s.cn, s.cw = make([]int32, n+1), make([]int32, n+1), make([]int32, n+1)
}

// Score returns the best local alignment score of read against genome, both
// as 2-bit codes.
func (s *Scorer) Score(genome, read []byte) int {
	return s.score(genome, read, nil, 0)
}

// ScoreColours returns the best local alignment score of a colour-space read
// against a window given as colours and as the bases they encode, scored the
// way align.Aligner.AlignColours scores it: the read's first base, first, is
// compared with the window's bases, and every later colour with the window's
// colours.
func (s *Scorer) ScoreColours(colours, letters, read []byte, first byte) int {
	if len(letters) != len(colours) {
		return 0
	}
	return s.score(colours, read, letters, first)
}

// score runs the recurrence.  If row0 is set, the first read row compares
// first against row0 instead of read[0] against genome.
func (s *Scorer) score(genome, read, row0 []byte, first byte) int {
	n := len(genome)
	if n == 0 || len(read) == 0 {
		return 0
	}
	s.reserve(n)
	var (
		p        = s.p
		match    = int32(p.Match)
		mismatch = int32(p.Mismatch)
		rgOpen   = int32(p.RefGapOpen + p.RefGapExtend)
		rgExtend = int32(p.RefGapExtend)
		dgOpen   = int32(p.ReadGapOpen + p.ReadGapExtend)
		dgExtend = int32(p.ReadGapExtend)
		best     int32
	)
	pd, pn, pw := s.pd[:n+1], s.pn[:n+1], s.pw[:n+1]
	cd, cn, cw := s.cd[:n+1], s.cn[:n+1], s.cw[:n+1]
	for j := range pd {
		pd[j], pn[j], pw[j] = 0, 0, 0
	}
	cd[0], cn[0], cw[0] = 0, 0, 0
	for i, rb := range read {
		row := genome
		if i == 0 && row0 != nil {
			row, rb = row0, first
		}
		for j, gb := range row {
			ms := mismatch
			if gb == rb && gb < 4 {
				ms = match
			}
			d := pd[j] + ms
			if v := pn[j] + ms; v > d {
				d = v
			}
			if v := pw[j] + ms; v > d {
				d = v
			}
			if d < 0 {
				d = 0
			}
			no := pd[j+1] - rgOpen
			if v := pn[j+1] - rgExtend; v > no {
				no = v
			}
			if no < 0 {
				no = 0
			}
			we := cd[j] - dgOpen
			if v := cw[j] - dgExtend; v > we {
				we = v
			}
			if we < 0 {
				we = 0
			}
			cd[j+1], cn[j+1], cw[j+1] = d, no, we
			if d > best {
				best = d
			}
			if no > best {
				best = no
			}
			if we > best {
				best = we
			}
		}
		pd, cd = cd, pd
		pn, cn = cn, pn
		pw, cw = cw, pw
	}
	return int(best)
}
