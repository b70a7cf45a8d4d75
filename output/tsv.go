package output

import (
	"io"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/rmap/mapper"
)

// tsvHeader names the columns written by tsvEncoder.  Coordinates are
// 1-based and inclusive on the forward strand.
const tsvHeader = "#READ\tMATE\tCONTIG\tSTRAND\tSTART\tEND\tSCORE\tMATCHES\tMISMATCHES\tINSERTIONS\tDELETIONS\tREAD_START\tREAD_END\tGENOME_ALIGN\tREAD_ALIGN"

type tsvEncoder struct {
	w *tsv.Writer
}

func newTSVEncoder(w io.Writer) (*tsvEncoder, error) {
	e := &tsvEncoder{w: tsv.NewWriter(w)}
	e.w.WriteString(tsvHeader)
	if err := e.w.EndLine(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *tsvEncoder) encode(a *mapper.Alignment) error {
	res := &a.Result
	w := e.w
	w.WriteString(a.Read.Name)
	w.WriteInt64(int64(a.Mate + 1))
	w.WriteString(a.Contig)
	if a.Reverse {
		w.WriteByte('-')
	} else {
		w.WriteByte('+')
	}
	w.WriteInt64(int64(a.RefStart() + 1))
	w.WriteInt64(int64(a.RefEnd() + 1))
	w.WriteInt64(int64(res.Score))
	w.WriteInt64(int64(res.Matches))
	w.WriteInt64(int64(res.Mismatches))
	w.WriteInt64(int64(res.Insertions))
	w.WriteInt64(int64(res.Deletions))
	w.WriteInt64(int64(res.ReadStart + 1))
	w.WriteInt64(int64(res.ReadEnd + 1))
	w.WriteString(res.GenomeAlign)
	w.WriteString(res.ReadAlign)
	return w.EndLine()
}

func (e *tsvEncoder) flush() error { return e.w.Flush() }
