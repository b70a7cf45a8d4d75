// Package bgzf writes the blocked gzip format used for SAM/BAM files.  A
// BGZF stream is a series of gzip members, each holding at most 64KB of
// payload and recording its own compressed size in a "BC" extra subfield,
// followed by an empty terminator member.  Any gzip reader that handles
// multi-member streams can read it.
//
// See the SAM/BAM spec: https://samtools.github.io/hts-specs/SAMv1.pdf
package bgzf

import (
	"bytes"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/klauspost/compress/gzip"
)

const (
	// DefaultBlockSize is the default payload per block, as chosen by
	// samtools and biogo.
	DefaultBlockSize = 0x0ff00
	// MaxBlockSize is the largest legal payload per block.
	MaxBlockSize = 0x10000

	// maxCompressedSize bounds a compressed block, header included.
	maxCompressedSize = 0x10000
	// bsizeOffset is the position of the BSIZE field in a block.
	bsizeOffset = 16
)

var (
	// extra is the gzip extra field of every block: subfield "BC" of length 2
	// holding BSIZE, the block size minus one, patched after compression.
	extra = []byte{'B', 'C', 2, 0, 0, 0}

	// terminator is the empty block that ends a BGZF stream.
	terminator = []byte{
		0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00, 0x42, 0x43,
		0x02, 0x00, 0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
)

// Writer compresses its input into BGZF blocks.  It is not threadsafe.
type Writer struct {
	w         io.Writer
	blockSize int
	gz        *gzip.Writer
	pending   bytes.Buffer
	block     bytes.Buffer
}

// NewWriter returns a Writer compressing at the given gzip level with the
// default block size.
func NewWriter(w io.Writer, level int) (*Writer, error) {
	return NewWriterSize(w, level, DefaultBlockSize)
}

// NewWriterSize returns a Writer whose blocks hold at most blockSize bytes of
// payload.
func NewWriterSize(w io.Writer, level, blockSize int) (*Writer, error) {
	if blockSize <= 0 || blockSize > MaxBlockSize {
		return nil, errors.E(errors.Invalid, "bgzf: block size", strconv.Itoa(blockSize), "out of range")
	}
	gz, err := gzip.NewWriterLevel(&bytes.Buffer{}, level)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w, blockSize: blockSize, gz: gz}, nil
}

// Write buffers buf, writing out every block it completes.
func (w *Writer) Write(buf []byte) (int, error) {
	n := len(buf)
	for len(buf) > 0 {
		k := w.blockSize - w.pending.Len()
		if k > len(buf) {
			k = len(buf)
		}
		w.pending.Write(buf[:k])
		buf = buf[k:]
		if w.pending.Len() == w.blockSize {
			if err := w.flushBlock(); err != nil {
				return n - len(buf), err
			}
		}
	}
	return n, nil
}

// Close writes the last partial block and the terminator.  It does not close
// the underlying writer.
func (w *Writer) Close() error {
	if w.pending.Len() > 0 {
		if err := w.flushBlock(); err != nil {
			return err
		}
	}
	_, err := w.w.Write(terminator)
	return err
}

// flushBlock compresses the pending payload into one block.
func (w *Writer) flushBlock() error {
	w.block.Reset()
	w.gz.Reset(&w.block)
	w.gz.Header.Extra = append(w.gz.Header.Extra[:0], extra...)
	w.gz.Header.OS = 0xff
	if _, err := w.gz.Write(w.pending.Bytes()); err != nil {
		return err
	}
	if err := w.gz.Close(); err != nil {
		return err
	}
	w.pending.Reset()
	b := w.block.Bytes()
	if len(b) > maxCompressedSize {
		return errors.E(errors.Invalid, "bgzf: compressed block too big:", strconv.Itoa(len(b)))
	}
	if len(b) < bsizeOffset+2 || !bytes.Equal(b[bsizeOffset-4:bsizeOffset], extra[:4]) {
		return errors.E(errors.Integrity, "bgzf: block lacks the BC extra subfield")
	}
	bsize := len(b) - 1
	b[bsizeOffset] = byte(bsize)
	b[bsizeOffset+1] = byte(bsize >> 8)
	_, err := w.w.Write(b)
	return err
}
