// Package fasta reads FASTA files as a stream of named sequences.  Briefly,
// FASTA files consist of a number of named sequences that may be interrupted
// by newlines.  For example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text appear after a space are ignored.
// For example, '>chr1 A viral sequence' becomes 'chr1'.
package fasta

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

const readBufferSize = 1 << 20

// Scanner iterates over the sequences of a FASTA stream.  Typical use:
//
//	sc := fasta.NewScanner(r)
//	for sc.Scan() {
//	  name, seq := sc.Name(), sc.Seq()
//	  ...
//	}
//	if err := sc.Err(); err != nil {...}
type Scanner struct {
	r      *bufio.Reader
	lineno int
	name   string
	seq    []byte
	// header holds the name of the next record, read while scanning the
	// previous one.
	header    string
	hasHeader bool
	err       error
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, readBufferSize)}
}

// readLine returns the next line without its terminator.  The slice is valid
// until the next call.
func (s *Scanner) readLine(buf []byte) ([]byte, error) {
	buf = buf[:0]
	for {
		frag, err := s.r.ReadSlice('\n')
		buf = append(buf, frag...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && len(buf) > 0 {
			err = nil
		}
		s.lineno++
		return bytes.TrimRight(buf, "\r\n"), err
	}
}

func parseName(line []byte) string {
	name := line[1:]
	if i := bytes.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

// Scan advances to the next sequence.  It returns false at the end of the
// stream or on error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	var line []byte
	if !s.hasHeader {
		for {
			var err error
			if line, err = s.readLine(line); err != nil {
				if err != io.EOF {
					s.err = errors.Wrap(err, "couldn't read FASTA data")
				}
				return false
			}
			if len(line) == 0 {
				continue
			}
			if line[0] != '>' {
				s.err = errors.Errorf("malformed FASTA file: line %d: sequence data before the first header", s.lineno)
				return false
			}
			s.header, s.hasHeader = parseName(line), true
			break
		}
	}
	s.name, s.hasHeader = s.header, false
	s.seq = s.seq[:0]
	for {
		var err error
		line, err = s.readLine(line)
		if err == io.EOF {
			return true
		}
		if err != nil {
			s.err = errors.Wrap(err, "couldn't read FASTA data")
			return false
		}
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			s.header, s.hasHeader = parseName(line), true
			return true
		}
		s.seq = append(s.seq, bytes.TrimSpace(line)...)
	}
}

// Name returns the name of the current sequence.
func (s *Scanner) Name() string { return s.name }

// Seq returns the current sequence, in ASCII with line breaks removed.  The
// slice is reused by the next call to Scan.
func (s *Scanner) Seq() []byte { return s.seq }

// Err returns the first error encountered, if any.
func (s *Scanner) Err() error { return s.err }
