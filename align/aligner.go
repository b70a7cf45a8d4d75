package align

import (
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/simd"
	"github.com/grailbio/rmap/dna"
)

// cell is one entry of the alignment matrix: the best score of an alignment
// ending at the cell in each of the three planes, and where it came from.
type cell struct {
	diag, north, west             int32
	diagFrom, northFrom, westFrom Origin
}

// Result describes one local alignment.  Offsets are 0-based and inclusive,
// in window and read coordinates.
type Result struct {
	Score int

	GenomeStart, GenomeEnd int
	ReadStart, ReadEnd     int

	Matches    int
	Mismatches int
	// Insertions counts read bases aligned against reference gaps.
	Insertions int
	// Deletions counts reference bases aligned against read gaps.
	Deletions int

	// GenomeAlign and ReadAlign are the gapped alignment strings, with '-'
	// opposite each gap.
	GenomeAlign, ReadAlign string
	// Ops lists the alignment columns from GenomeStart/ReadStart onward.
	Ops []Op

	// ExpectedMissed is set when the caller supplied an expected score that
	// the aligner did not reach.
	ExpectedMissed bool
}

// Empty reports whether no positive-scoring alignment was found.
func (r *Result) Empty() bool { return r.Score <= 0 }

// GenomeMapped is the number of reference bases covered by the alignment.
func (r *Result) GenomeMapped() int {
	if r.Empty() {
		return 0
	}
	return r.GenomeEnd - r.GenomeStart + 1
}

// ReadMapped is the number of read bases covered by the alignment.
func (r *Result) ReadMapped() int {
	if r.Empty() {
		return 0
	}
	return r.ReadEnd - r.ReadStart + 1
}

// Aligner computes banded local alignments.  Its matrix and buffers are
// sized once for the largest window and read of a run and reused for every
// call.  An Aligner is not thread safe; use one per goroutine.
type Aligner struct {
	p         Params
	maxGenome int
	maxRead   int
	cells     []cell
	tape      []Op
	dbBuf     []byte
	qrBuf     []byte
}

// NewAligner creates an aligner for windows of up to maxGenomeLen reference
// bases and reads of up to maxReadLen bases.  Longer inputs are accepted, at
// the price of reallocating the matrix.
func NewAligner(maxGenomeLen, maxReadLen int, p Params) *Aligner {
	a := &Aligner{p: p}
	a.reserve(maxGenomeLen, maxReadLen)
	return a
}

// Params returns the scoring scheme.
func (a *Aligner) Params() Params { return a.p }

func (a *Aligner) reserve(genomeLen, readLen int) {
	if genomeLen <= a.maxGenome && readLen <= a.maxRead {
		return
	}
	if genomeLen < a.maxGenome {
		genomeLen = a.maxGenome
	}
	if readLen < a.maxRead {
		readLen = a.maxRead
	}
	if a.cells != nil {
		log.Debug.Printf("align: growing matrix to %dx%d", genomeLen+1, readLen+1)
	}
	a.maxGenome, a.maxRead = genomeLen, readLen
	a.cells = make([]cell, (genomeLen+1)*(readLen+1))
	a.tape = make([]Op, 0, genomeLen+readLen)
	simd.ResizeUnsafe(&a.dbBuf, genomeLen+readLen)
	simd.ResizeUnsafe(&a.qrBuf, genomeLen+readLen)
}

// colourRow describes the first row of a colour-space alignment.  A read's
// first colour encodes its first base relative to the primer, not to the
// preceding reference base, so row 0 compares the read's first base with the
// window's bases instead of comparing colours.
type colourRow struct {
	letters []byte
	first   byte
}

// Align finds the best local alignment of read against genome (both as 2-bit
// codes) whose path stays inside the band implied by threshold.  If expected
// is non-negative, the fill stops at the first cell scoring exactly expected;
// if no cell reaches it, a diagnostic is logged, Result.ExpectedMissed is set
// and the best cell found is used instead.
//
// A zero-scoring alignment is returned as an empty Result, not an error.  An
// error is returned only if the backtrace finds an inconsistent matrix.
func (a *Aligner) Align(genome, read []byte, threshold, expected int) (Result, error) {
	return a.align(genome, read, threshold, expected, nil)
}

// AlignColours aligns a colour-space read against a window given both as
// colours and as the bases the colours were computed from.  first is the
// read's first base, decoded from its primer.  Scoring is done on colours, so
// a single miscalled colour costs one mismatch.  The alignment strings and
// match counts of the Result are in bases: each read base is taken from the
// reference wherever the read's colour agrees with it, and decoded from the
// previous read base elsewhere.
func (a *Aligner) AlignColours(colours, letters, read []byte, first byte, threshold, expected int) (Result, error) {
	if len(colours) != len(letters) {
		return Result{}, errors.E(errors.Invalid, "align: window has", strconv.Itoa(len(colours)),
			"colours but", strconv.Itoa(len(letters)), "bases")
	}
	return a.align(colours, read, threshold, expected, &colourRow{letters: letters, first: first})
}

func (a *Aligner) align(genome, read []byte, threshold, expected int, cs *colourRow) (Result, error) {
	lena, lenb := len(genome), len(read)
	if lena == 0 || lenb == 0 {
		return Result{}, nil
	}
	a.reserve(lena, lenb)
	var (
		p         = a.p
		stride    = lena + 1
		cells     = a.cells[:(lenb+1)*stride]
		sw, ne    = p.Band(lena, lenb, threshold)
		rgOpen    = int32(p.RefGapOpen + p.RefGapExtend)
		rgExtend  = int32(p.RefGapExtend)
		dgOpen    = int32(p.ReadGapOpen + p.ReadGapExtend)
		dgExtend  = int32(p.ReadGapExtend)
		best      int32
		bi, bj    = -1, -1
		want      = int32(expected)
		hasWanted = expected >= 0
	)
	for j := 0; j <= lena; j++ {
		cells[j] = cell{}
	}
	for i := 1; i <= lenb; i++ {
		cells[i*stride] = cell{}
	}

fill:
	for i := 0; i < lenb; i++ {
		jlo := i - sw + 1
		if jlo < 0 {
			jlo = 0
		}
		if jlo >= lena {
			continue
		}
		row := (i + 1) * stride
		if jlo > 0 {
			// West neighbour of the first in-band cell.
			cells[row+jlo] = cell{}
		}
		rb, rowGenome := read[i], genome
		if i == 0 && cs != nil {
			rb, rowGenome = cs.first, cs.letters
		}
		for j := jlo; j < lena; j++ {
			cur := &cells[row+j+1]
			if j >= ne+i {
				*cur = cell{}
				break
			}
			nw := &cells[row-stride+j]
			n := &cells[row-stride+j+1]
			w := &cells[row+j]

			ms := p.score(rowGenome[j], rb)
			d, df := nw.diag+ms, DiagFromDiag
			if v := nw.north + ms; v > d {
				d, df = v, DiagFromNorth
			}
			if v := nw.west + ms; v > d {
				d, df = v, DiagFromWest
			}
			if d <= 0 {
				d, df = 0, Restart
			}

			no, nf := n.diag-rgOpen, NorthFromDiag
			if v := n.north - rgExtend; v > no {
				no, nf = v, NorthFromNorth
			}
			if no <= 0 {
				no, nf = 0, Restart
			}

			we, wf := w.diag-dgOpen, WestFromDiag
			if v := w.west - dgExtend; v > we {
				we, wf = v, WestFromWest
			}
			if we <= 0 {
				we, wf = 0, Restart
			}
			*cur = cell{diag: d, north: no, west: we, diagFrom: df, northFrom: nf, westFrom: wf}

			m := d
			if no > m {
				m = no
			}
			if we > m {
				m = we
			}
			if m > best {
				best, bi, bj = m, i, j
				if hasWanted && best == want {
					break fill
				}
			}
		}
	}

	var res Result
	if hasWanted && best != want {
		log.Error.Printf("align: expected score %d, found %d (genome %d bases, read %d bases)",
			expected, best, lena, lenb)
		res.ExpectedMissed = true
	}
	if best <= 0 {
		return res, nil
	}
	res.Score = int(best)
	if err := a.backtrace(stride, bi, bj, &res); err != nil {
		return Result{}, err
	}
	if cs == nil {
		a.render(genome, read, &res)
	} else {
		a.renderColours(genome, read, cs, &res)
	}
	return res, nil
}

// backtrace follows the origins from cell (bi, bj) back to a restart and
// sets the ops, gap counts and extent of res.
func (a *Aligner) backtrace(stride, bi, bj int, res *Result) error {
	cells := a.cells
	c := &cells[(bi+1)*stride+bj+1]
	from, s := c.diagFrom, c.diag
	if c.west > s {
		from, s = c.westFrom, c.west
	}
	if c.north > s {
		from = c.northFrom
	}
	if from == Restart {
		return errors.E(errors.Integrity, "align: backtrace starts at a restart cell")
	}

	tape := a.tape[:0]
	i, j := bi, bj
	readStart, genomeStart := i, j
	for i >= 0 && j >= 0 && from != Restart {
		switch from {
		case NorthFromNorth, NorthFromDiag:
			tape = append(tape, OpRefGap)
			res.Insertions++
			readStart = i
			i--
			if from == NorthFromNorth {
				from = cells[(i+1)*stride+j+1].northFrom
			} else {
				from = cells[(i+1)*stride+j+1].diagFrom
			}
		case WestFromWest, WestFromDiag:
			tape = append(tape, OpReadGap)
			res.Deletions++
			genomeStart = j
			j--
			if from == WestFromWest {
				from = cells[(i+1)*stride+j+1].westFrom
			} else {
				from = cells[(i+1)*stride+j+1].diagFrom
			}
		case DiagFromDiag, DiagFromNorth, DiagFromWest:
			tape = append(tape, OpMatch)
			readStart, genomeStart = i, j
			i--
			j--
			c := &cells[(i+1)*stride+j+1]
			switch from {
			case DiagFromDiag:
				from = c.diagFrom
			case DiagFromNorth:
				from = c.northFrom
			default:
				from = c.westFrom
			}
		default:
			return errors.E(errors.Integrity, "align: invalid origin", from.String())
		}
	}
	a.tape = tape

	// The tape was recorded end to start.
	ops := make([]Op, len(tape))
	for k, op := range tape {
		ops[len(tape)-1-k] = op
	}
	res.Ops = ops
	res.GenomeStart, res.GenomeEnd = genomeStart, bj
	res.ReadStart, res.ReadEnd = readStart, bi
	return nil
}

// render fills in the alignment strings and match counts of res.
func (a *Aligner) render(genome, read []byte, res *Result) {
	ops := res.Ops
	db, qr := a.dbBuf[:len(ops)], a.qrBuf[:len(ops)]
	i, j := res.ReadStart, res.GenomeStart
	for k, op := range ops {
		switch op {
		case OpMatch:
			if genome[j] == read[i] && genome[j] < 4 {
				res.Matches++
			} else {
				res.Mismatches++
			}
			db[k], qr[k] = dna.Letter(genome[j]), dna.Letter(read[i])
			i++
			j++
		case OpReadGap:
			db[k], qr[k] = dna.Letter(genome[j]), '-'
			j++
		case OpRefGap:
			db[k], qr[k] = '-', dna.Letter(read[i])
			i++
		}
	}
	res.GenomeAlign, res.ReadAlign = string(db), string(qr)
}

// renderColours is render for a colour-space alignment of read colours
// against genome colours, reporting bases.
func (a *Aligner) renderColours(genome, read []byte, cs *colourRow, res *Result) {
	ops := res.Ops
	db, qr := a.dbBuf[:len(ops)], a.qrBuf[:len(ops)]
	i, j := res.ReadStart, res.GenomeStart
	prev := dna.N
	decode := func() byte {
		if prev > dna.T || read[i] > dna.T {
			return dna.N
		}
		return prev ^ read[i]
	}
	for k, op := range ops {
		switch op {
		case OpMatch:
			var b byte
			switch {
			case i == 0:
				b = cs.first
			case read[i] == genome[j] && genome[j] <= dna.T:
				b = cs.letters[j]
			default:
				b = decode()
			}
			if b == cs.letters[j] && b <= dna.T {
				res.Matches++
			} else {
				res.Mismatches++
			}
			db[k], qr[k] = dna.Letter(cs.letters[j]), dna.Letter(b)
			prev = b
			i++
			j++
		case OpReadGap:
			db[k], qr[k] = dna.Letter(cs.letters[j]), '-'
			j++
		case OpRefGap:
			b := decode()
			if i == 0 {
				b = cs.first
			}
			db[k], qr[k] = '-', dna.Letter(b)
			prev = b
			i++
		}
	}
	res.GenomeAlign, res.ReadAlign = string(db), string(qr)
}
