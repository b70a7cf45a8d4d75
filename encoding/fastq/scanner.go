// Package fastq reads FASTQ files as a stream of named reads.  Only the read
// name (the header up to the first space), sequence and quality lines are
// kept.
package fastq

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/pkg/errors"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
	// ErrDiscordant is returned when two mate files hold different numbers of
	// reads.
	ErrDiscordant = errors.New("discordant FASTQ pairs")
)

var errEOF = errors.New("eof")

// Scanner reads FASTQ records.  It requires header lines to begin with "@"
// and the third line of each record to begin with "+", and that the quality
// line is as long as the sequence.  Scanners are not threadsafe.
type Scanner struct {
	b    *bufio.Scanner
	err  error
	line int

	name      string
	seq, qual []byte
}

// NewScanner constructs a Scanner that reads raw FASTQ data from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{b: bufio.NewScanner(r)}
}

// Scan advances to the next read.  Once Scan returns false, it never returns
// true again; Err tells whether scanning stopped on an error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	if !s.b.Scan() {
		if s.err = s.b.Err(); s.err == nil {
			s.err = errEOF
		}
		return false
	}
	s.line++
	header := s.b.Bytes()
	if len(header) == 0 || header[0] != '@' {
		s.err = errors.Wrapf(ErrInvalid, "line %d: header does not start with '@'", s.line)
		return false
	}
	header = header[1:]
	if i := bytes.IndexAny(header, " \t"); i >= 0 {
		header = header[:i]
	}
	s.name = string(header)
	if !s.scan() {
		return false
	}
	s.seq = append(s.seq[:0], s.b.Bytes()...)
	if !s.scan() {
		return false
	}
	if sep := s.b.Bytes(); len(sep) == 0 || sep[0] != '+' {
		s.err = errors.Wrapf(ErrInvalid, "line %d: separator does not start with '+'", s.line)
		return false
	}
	if !s.scan() {
		return false
	}
	s.qual = append(s.qual[:0], s.b.Bytes()...)
	if len(s.qual) != len(s.seq) {
		s.err = errors.Wrapf(ErrInvalid, "read %s: %d bases but %d qualities", s.name, len(s.seq), len(s.qual))
		return false
	}
	return true
}

func (s *Scanner) scan() bool {
	ok := s.b.Scan()
	if !ok {
		if s.err = s.b.Err(); s.err == nil {
			s.err = ErrShort
		}
		return false
	}
	s.line++
	return true
}

// Name is the current read's name: its header without the leading '@' and
// without any description.
func (s *Scanner) Name() string { return s.name }

// Seq is the current read's sequence.  The slice is reused by Scan.
func (s *Scanner) Seq() []byte { return s.seq }

// Qual is the current read's quality string.  The slice is reused by Scan.
func (s *Scanner) Qual() []byte { return s.qual }

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	if s.err == errEOF {
		return nil
	}
	return s.err
}

// PairScanner composes a pair of scanners to scan the R1 and R2 files of a
// paired run in lockstep.
type PairScanner struct {
	r1, r2 *Scanner
	err    error
}

// NewPairScanner creates a new FASTQ pair scanner from the provided
// R1 and R2 readers.
func NewPairScanner(r1, r2 io.Reader) *PairScanner {
	return Pair(NewScanner(r1), NewScanner(r2))
}

// Pair composes two existing scanners, such as those of two opened files.
func Pair(r1, r2 *Scanner) *PairScanner {
	return &PairScanner{r1: r1, r2: r2}
}

// Scan advances both scanners.  Mates are then available through R1 and R2.
func (p *PairScanner) Scan() bool {
	ok1 := p.r1.Scan()
	ok2 := p.r2.Scan()
	if ok1 != ok2 {
		p.err = ErrDiscordant
	}
	return ok1 && ok2
}

// R1 returns the scanner positioned at the first mate.
func (p *PairScanner) R1() *Scanner { return p.r1 }

// R2 returns the scanner positioned at the second mate.
func (p *PairScanner) R2() *Scanner { return p.r2 }

// Err returns the scanning error, if any. It should be checked
// after Scan returns false.
func (p *PairScanner) Err() error {
	if err := p.r1.Err(); err != nil {
		return err
	}
	if err := p.r2.Err(); err != nil {
		return err
	}
	return p.err
}

// FileScanner is a Scanner over a file opened by Open.
type FileScanner struct {
	*Scanner
	f file.File
}

// Open opens a FASTQ file, decompressing it based on its extension.
func Open(ctx context.Context, path string) (*FileScanner, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	var r io.Reader = f.Reader(ctx)
	if u := compress.NewReaderPath(r, f.Name()); u != nil {
		r = u
	}
	return &FileScanner{Scanner: NewScanner(r), f: f}, nil
}

// Close closes the underlying file.
func (s *FileScanner) Close(ctx context.Context) error {
	return s.f.Close(ctx)
}
