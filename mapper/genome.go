package mapper

import (
	"context"
	"math"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/rmap/dna"
	"github.com/grailbio/rmap/encoding/fasta"
)

// Contig is one reference sequence as 2-bit codes.
type Contig struct {
	// Index is the contig's position across all genome files, from 0.
	Index int
	Name  string
	// Seq is owned by the Genome and is only valid during the callback.
	Seq []byte
}

// Genome streams reference contigs.  Each call to Contigs must visit the
// same contigs in the same order: the final pass reloads the genome after
// scanning it.
type Genome interface {
	Contigs(ctx context.Context, fn func(c Contig) error) error
}

// FileGenome reads contigs from FASTA files, in order.
type FileGenome struct {
	Paths []string
}

// Contigs implements Genome.
func (g FileGenome) Contigs(ctx context.Context, fn func(c Contig) error) error {
	var (
		buf []byte
		n   int
	)
	for _, path := range g.Paths {
		sc, err := fasta.Open(ctx, path)
		if err != nil {
			return err
		}
		for sc.Scan() {
			buf = dna.Encode(buf[:0], sc.Seq())
			if uint64(len(buf)) >= math.MaxUint32 {
				_ = sc.Close(ctx)
				return errors.E(errors.Invalid, path, "contig", sc.Name(), "is too long")
			}
			log.Debug.Printf("%s: contig %s, %d bases", path, sc.Name(), len(buf))
			if err := fn(Contig{Index: n, Name: sc.Name(), Seq: buf}); err != nil {
				_ = sc.Close(ctx)
				return err
			}
			n++
		}
		err = sc.Err()
		if err2 := sc.Close(ctx); err == nil {
			err = err2
		}
		if err != nil {
			return errors.E(err, path)
		}
	}
	return nil
}

// MemGenome is a Genome held in memory, as ASCII sequences.
type MemGenome struct {
	Names []string
	Seqs  []string
}

// Contigs implements Genome.
func (g MemGenome) Contigs(ctx context.Context, fn func(c Contig) error) error {
	for i, s := range g.Seqs {
		if err := fn(Contig{Index: i, Name: g.Names[i], Seq: dna.EncodeString(s)}); err != nil {
			return err
		}
	}
	return nil
}
