package output

import (
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/rmap/align"
	"github.com/grailbio/rmap/dna"
	"github.com/grailbio/rmap/mapper"
)

const (
	// unknownMapQ is the SAM mapping quality for "not computed".
	unknownMapQ = 255
	// missingQual marks absent base qualities, as in FASTA input.
	missingQual = 0xff
)

var (
	asTag = sam.NewTag("AS")
	nmTag = sam.NewTag("NM")
)

// samEncoder renders alignments as SAM records.  The first alignment of each
// read (or mate) is primary; later ones are flagged secondary.
type samEncoder struct {
	w    *sam.Writer
	refs map[string]*sam.Reference
	seen map[uint64]struct{}

	codes, buf []byte
}

func newSAMEncoder(w io.Writer, contigs []mapper.ContigInfo) (*samEncoder, error) {
	e := &samEncoder{
		refs: make(map[string]*sam.Reference, len(contigs)),
		seen: make(map[uint64]struct{}),
	}
	refs := make([]*sam.Reference, len(contigs))
	for i, c := range contigs {
		ref, err := sam.NewReference(c.Name, "", "", c.Length, nil, nil)
		if err != nil {
			return nil, errors.E(err, "contig", c.Name)
		}
		refs[i] = ref
		e.refs[c.Name] = ref
	}
	header, err := sam.NewHeader(nil, refs)
	if err != nil {
		return nil, err
	}
	if e.w, err = sam.NewWriter(w, header, sam.FlagDecimal); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *samEncoder) encode(a *mapper.Alignment) error {
	ref, ok := e.refs[a.Contig]
	if !ok {
		return errors.E(errors.Invalid, "alignment to unknown contig", a.Contig)
	}
	m := &a.Read.Mates[a.Mate]
	var flags sam.Flags
	if a.Reverse {
		flags |= sam.Reverse
	}
	if len(a.Read.Mates) > 1 {
		flags |= sam.Paired
		if a.Mate == 0 {
			flags |= sam.Read1
		} else {
			flags |= sam.Read2
		}
	}
	key := uint64(a.Read.ID)<<1 | uint64(a.Mate)
	if _, dup := e.seen[key]; dup {
		flags |= sam.Secondary
	} else {
		e.seen[key] = struct{}{}
	}

	e.codes = append(e.codes[:0], m.Letters...)
	if a.Reverse {
		dna.ReverseComplementInplace(e.codes)
	}
	e.buf = dna.Decode(e.buf[:0], e.codes)
	qual := make([]byte, len(e.buf))
	if m.Qual != nil {
		copy(qual, m.Qual)
		if a.Reverse {
			for i, j := 0, len(qual)-1; i < j; i, j = i+1, j-1 {
				qual[i], qual[j] = qual[j], qual[i]
			}
		}
	} else {
		for i := range qual {
			qual[i] = missingQual
		}
	}
	res := &a.Result
	as, err := sam.NewAux(asTag, res.Score)
	if err != nil {
		return err
	}
	nm, err := sam.NewAux(nmTag, res.Mismatches+res.Insertions+res.Deletions)
	if err != nil {
		return err
	}
	r := sam.GetFromFreePool()
	r.Name = a.Read.Name
	r.Ref = ref
	r.Pos = a.RefStart()
	r.MapQ = unknownMapQ
	r.Cigar = cigar(res, len(m.Letters), a.Reverse)
	r.Flags = flags
	r.MatePos = -1
	r.Seq = sam.NewSeq(e.buf)
	r.Qual = qual
	r.AuxFields = sam.AuxFields{as, nm}
	err = e.w.Write(r)
	sam.PutInFreePool(r)
	return err
}

func (e *samEncoder) flush() error { return nil }

// cigar builds the forward-strand CIGAR of res for a read of readLen bases.
// Unaligned read ends become soft clips.
func cigar(res *align.Result, readLen int, reverse bool) sam.Cigar {
	var c sam.Cigar
	add := func(t sam.CigarOpType, n int) {
		if n == 0 {
			return
		}
		if k := len(c) - 1; k >= 0 && c[k].Type() == t {
			c[k] = sam.NewCigarOp(t, c[k].Len()+n)
			return
		}
		c = append(c, sam.NewCigarOp(t, n))
	}
	opType := func(op align.Op) sam.CigarOpType {
		switch op {
		case align.OpReadGap:
			return sam.CigarDeletion
		case align.OpRefGap:
			return sam.CigarInsertion
		}
		return sam.CigarMatch
	}
	head, tail := res.ReadStart, readLen-1-res.ReadEnd
	if reverse {
		head, tail = tail, head
	}
	add(sam.CigarSoftClipped, head)
	if reverse {
		for k := len(res.Ops) - 1; k >= 0; k-- {
			add(opType(res.Ops[k]), 1)
		}
	} else {
		for _, op := range res.Ops {
			add(opType(op), 1)
		}
	}
	add(sam.CigarSoftClipped, tail)
	return c
}
