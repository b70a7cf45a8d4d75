// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package reads holds the reads being mapped together with the per-read
// state that survives a whole run: derived thresholds and the best candidate
// windows found so far.
package reads

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/rmap/dna"
	"github.com/grailbio/rmap/encoding/fasta"
	"github.com/grailbio/rmap/encoding/fastq"
	"github.com/grailbio/rmap/topk"
)

// Mate is one sequenced fragment end.
type Mate struct {
	// Seq holds the codes that are indexed: base codes in letter mode, colour
	// codes in colour mode.
	Seq []byte
	// Letters holds the base codes that are aligned.  In letter mode it
	// aliases Seq; in colour mode it is Seq decoded from Primer.
	Letters []byte
	// Primer is the base preceding the first colour (colour mode only).
	Primer byte
	// Qual holds the Phred base qualities, one per element of Letters, or is
	// nil when the input had none.
	Qual []byte
	// PrefilterThreshold is the minimum prefilter score of a candidate window.
	PrefilterThreshold int
	// FinalThreshold is the minimum full alignment score reported.
	FinalThreshold int
}

// Read is one read, or one mate pair in paired mode.
type Read struct {
	ID   uint32
	Name string
	// Mates has one element, or two in paired mode.
	Mates []Mate
	// WindowLen is the candidate window length derived from the longest mate.
	WindowLen int

	mu   sync.Mutex
	hits topk.Heap
}

// Len is the length of the longest mate.
func (r *Read) Len() int {
	n := 0
	for i := range r.Mates {
		if l := len(r.Mates[i].Letters); l > n {
			n = l
		}
	}
	return n
}

// SaveScore offers a scored window to the read's top-K heap.  Thread safe.
func (r *Read) SaveScore(e topk.Entry) bool {
	r.mu.Lock()
	ok := r.hits.Insert(e)
	r.mu.Unlock()
	return ok
}

// NumHits is the number of windows currently held.  Thread safe.
func (r *Read) NumHits() int {
	r.mu.Lock()
	n := r.hits.Len()
	r.mu.Unlock()
	return n
}

// DrainHits empties the heap and returns its entries, best first.  Thread
// safe.
func (r *Read) DrainHits() []topk.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits.Drain()
}

// Opts controls how reads are loaded.
type Opts struct {
	Mode Mode
	// Window sets each read's candidate window length.
	Window Threshold
	// Prefilter and Final set the two score thresholds.
	Prefilter, Final Threshold
	// Match is the per-base match score used to resolve percentage
	// thresholds.
	Match int
	// MaxHitsPerRead is the capacity of each read's heap.
	MaxHitsPerRead int
}

// Registry owns all reads of a run.  Read IDs are indexes into Reads.
type Registry struct {
	Mode  Mode
	Reads []*Read

	maxLen    int
	maxWindow int
}

// Len is the number of reads (pairs in paired mode).
func (g *Registry) Len() int { return len(g.Reads) }

// MaxReadLen is the length of the longest mate.
func (g *Registry) MaxReadLen() int { return g.maxLen }

// MaxWindowLen is the largest WindowLen.
func (g *Registry) MaxWindowLen() int { return g.maxWindow }

// Get returns the read with the given ID.
func (g *Registry) Get(id uint32) *Read { return g.Reads[id] }

// NewRegistry creates an empty registry.
func NewRegistry(mode Mode) *Registry {
	return &Registry{Mode: mode}
}

// Add appends a read built from the ASCII sequences of its mates.  A colour
// mate must start with its primer base.
func (g *Registry) Add(name string, seqs [][]byte, opts Opts) (*Read, error) {
	return g.AddQual(name, seqs, nil, opts)
}

// AddQual is Add for reads with base qualities.  quals, if not nil, holds
// one Phred+33 quality string per mate, as long as its sequence.  The
// quality of a colour read's primer is dropped.
func (g *Registry) AddQual(name string, seqs, quals [][]byte, opts Opts) (*Read, error) {
	want := 1
	if g.Mode == Paired {
		want = 2
	}
	if len(seqs) != want {
		return nil, errors.E(errors.Invalid, "read", name, "has", strconv.Itoa(len(seqs)), "mates, want", strconv.Itoa(want))
	}
	if quals != nil && len(quals) != len(seqs) {
		return nil, errors.E(errors.Invalid, "read", name, "has", strconv.Itoa(len(quals)), "quality strings for", strconv.Itoa(len(seqs)), "mates")
	}
	r := &Read{ID: uint32(len(g.Reads)), Name: name, Mates: make([]Mate, len(seqs))}
	for i, seq := range seqs {
		m := &r.Mates[i]
		if g.Mode == Colour {
			primer, colours, ok := dna.ParseColourRead(seq)
			if !ok {
				return nil, errors.E(errors.Invalid, "colour read", name, "does not start with a primer base")
			}
			m.Primer, m.Seq = primer, colours
			m.Letters = dna.ColoursToLetters(nil, colours, primer)
		} else {
			m.Seq = dna.Encode(make([]byte, 0, len(seq)), seq)
			m.Letters = m.Seq
		}
		if len(m.Seq) == 0 {
			return nil, errors.E(errors.Invalid, "read", name, "is empty")
		}
		if quals != nil {
			q, err := phred(quals[i], len(seq), len(m.Letters))
			if err != nil {
				return nil, errors.E(err, "read", name)
			}
			m.Qual = q
		}
		m.PrefilterThreshold = opts.Prefilter.Score(len(m.Letters), opts.Match)
		m.FinalThreshold = opts.Final.Score(len(m.Letters), opts.Match)
	}
	n := r.Len()
	r.WindowLen = opts.Window.Window(n)
	if r.WindowLen < 1 {
		r.WindowLen = 1
	}
	r.hits.Init(opts.MaxHitsPerRead)
	if n > g.maxLen {
		g.maxLen = n
	}
	if r.WindowLen > g.maxWindow {
		g.maxWindow = r.WindowLen
	}
	g.Reads = append(g.Reads, r)
	return r, nil
}

// phred converts the Phred+33 qualities of a sequence of seqLen characters
// to the qualities of its last n codes.
func phred(qual []byte, seqLen, n int) ([]byte, error) {
	if len(qual) != seqLen {
		return nil, errors.E(errors.Invalid, strconv.Itoa(len(qual)), "qualities for", strconv.Itoa(seqLen), "bases")
	}
	qual = qual[seqLen-n:]
	q := make([]byte, n)
	for i, c := range qual {
		if c < 33 {
			return nil, errors.E(errors.Invalid, "bad quality", strconv.Quote(string(c)))
		}
		q[i] = c - 33
	}
	return q, nil
}

// mateName strips a trailing "/1" or "/2" from a mate's record name.
func mateName(name string) string {
	if strings.HasSuffix(name, "/1") || strings.HasSuffix(name, "/2") {
		return name[:len(name)-2]
	}
	return name
}

// Source is a stream of named sequences, such as a FASTA or FASTQ scanner.
type Source interface {
	Scan() bool
	Name() string
	Seq() []byte
	Err() error
}

// qualSource is a Source that also has base qualities, such as a FASTQ
// scanner.
type qualSource interface {
	Source
	Qual() []byte
}

// Scan adds every record of sc.  In paired mode consecutive records form a
// pair.  Base qualities are kept when sc has them.
func (g *Registry) Scan(sc Source, opts Opts) error {
	qs, hasQual := sc.(qualSource)
	var (
		pending                 string
		pendingSeq, pendingQual []byte
	)
	for sc.Scan() {
		var qual []byte
		if hasQual {
			qual = qs.Qual()
		}
		if g.Mode != Paired {
			if _, err := g.AddQual(sc.Name(), [][]byte{sc.Seq()}, mateQuals(qual), opts); err != nil {
				return err
			}
			continue
		}
		if pendingSeq == nil {
			pending = sc.Name()
			pendingSeq = append([]byte{}, sc.Seq()...)
			pendingQual = append(pendingQual[:0], qual...)
			continue
		}
		if _, err := g.AddQual(mateName(pending), [][]byte{pendingSeq, sc.Seq()}, mateQuals(pendingQual, qual), opts); err != nil {
			return err
		}
		pendingSeq = nil
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if pendingSeq != nil {
		return errors.E(errors.Invalid, "paired read", pending, "has no mate")
	}
	return nil
}

// mateQuals returns q as per-mate qualities, or nil if the mates have none.
func mateQuals(q ...[]byte) [][]byte {
	if q[0] == nil {
		return nil
	}
	return q
}

// ScanFASTQPairs adds one pair per record pair of p.
func (g *Registry) ScanFASTQPairs(p *fastq.PairScanner, opts Opts) error {
	if g.Mode != Paired {
		return errors.E(errors.Invalid, "mate files need paired mode, not", g.Mode.String())
	}
	for p.Scan() {
		r1, r2 := p.R1(), p.R2()
		if _, err := g.AddQual(mateName(r1.Name()), [][]byte{r1.Seq(), r2.Seq()}, [][]byte{r1.Qual(), r2.Qual()}, opts); err != nil {
			return err
		}
	}
	err := p.Err()
	if err == fastq.ErrDiscordant {
		return errors.E(errors.Invalid, err, "mate files hold different numbers of reads")
	}
	return err
}

// ScanPairs adds one pair per record of r1, taking the second mate from the
// matching record of r2.  The registry must be in paired mode.
func (g *Registry) ScanPairs(r1, r2 Source, opts Opts) error {
	if g.Mode != Paired {
		return errors.E(errors.Invalid, "mate files need paired mode, not", g.Mode.String())
	}
	for r1.Scan() {
		if !r2.Scan() {
			if err := r2.Err(); err != nil {
				return err
			}
			return errors.E(errors.Invalid, "read", r1.Name(), "has no mate in the second file")
		}
		if _, err := g.Add(mateName(r1.Name()), [][]byte{r1.Seq(), r2.Seq()}, opts); err != nil {
			return err
		}
	}
	if err := r1.Err(); err != nil {
		return err
	}
	if r2.Scan() {
		return errors.E(errors.Invalid, "read", r2.Name(), "has no mate in the first file")
	}
	return r2.Err()
}

type sourceFile interface {
	Source
	Close(ctx context.Context) error
}

// isFASTQ reports whether path names a FASTQ file, ignoring a compression
// suffix.
func isFASTQ(path string) bool {
	for _, ext := range []string{".gz", ".bz2", ".zst"} {
		path = strings.TrimSuffix(path, ext)
	}
	return strings.HasSuffix(path, ".fq") || strings.HasSuffix(path, ".fastq")
}

func openSource(ctx context.Context, path string) (sourceFile, error) {
	if isFASTQ(path) {
		return fastq.Open(ctx, path)
	}
	return fasta.Open(ctx, path)
}

func closeSource(ctx context.Context, sc sourceFile, err *error) {
	if err2 := sc.Close(ctx); err2 != nil && *err == nil {
		*err = err2
	}
}

// Load reads all reads from a FASTA or FASTQ file.  Files named *.fq or
// *.fastq, possibly compressed, are read as FASTQ.
func Load(ctx context.Context, path string, opts Opts) (g *Registry, err error) {
	sc, err := openSource(ctx, path)
	if err != nil {
		return nil, err
	}
	defer closeSource(ctx, sc, &err)
	g = NewRegistry(opts.Mode)
	if err := g.Scan(sc, opts); err != nil {
		return nil, errors.E(err, path)
	}
	log.Printf("%s: loaded %d reads, longest %d bases, window up to %d bases",
		path, g.Len(), g.MaxReadLen(), g.MaxWindowLen())
	return g, nil
}

// LoadPairs reads mate pairs from two files holding the first and second
// mates in the same order.
func LoadPairs(ctx context.Context, path1, path2 string, opts Opts) (g *Registry, err error) {
	if isFASTQ(path1) && isFASTQ(path2) {
		return loadFASTQPairs(ctx, path1, path2, opts)
	}
	sc1, err := openSource(ctx, path1)
	if err != nil {
		return nil, err
	}
	defer closeSource(ctx, sc1, &err)
	sc2, err := openSource(ctx, path2)
	if err != nil {
		return nil, err
	}
	defer closeSource(ctx, sc2, &err)
	g = NewRegistry(opts.Mode)
	if err := g.ScanPairs(sc1, sc2, opts); err != nil {
		return nil, errors.E(err, path1, path2)
	}
	log.Printf("%s, %s: loaded %d pairs, longest mate %d bases", path1, path2, g.Len(), g.MaxReadLen())
	return g, nil
}

func loadFASTQPairs(ctx context.Context, path1, path2 string, opts Opts) (g *Registry, err error) {
	sc1, err := fastq.Open(ctx, path1)
	if err != nil {
		return nil, err
	}
	defer closeSource(ctx, sc1, &err)
	sc2, err := fastq.Open(ctx, path2)
	if err != nil {
		return nil, err
	}
	defer closeSource(ctx, sc2, &err)
	g = NewRegistry(opts.Mode)
	if err := g.ScanFASTQPairs(fastq.Pair(sc1.Scanner, sc2.Scanner), opts); err != nil {
		return nil, errors.E(err, path1, path2)
	}
	log.Printf("%s, %s: loaded %d pairs, longest mate %d bases", path1, path2, g.Len(), g.MaxReadLen())
	return g, nil
}
