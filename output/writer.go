// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package output writes alignments reported by the mapper as SAM or TSV,
// optionally gzip or BGZF compressed.
package output

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/rmap/encoding/bgzf"
	"github.com/grailbio/rmap/mapper"
	"github.com/klauspost/compress/gzip"
)

type encoder interface {
	encode(a *mapper.Alignment) error
	flush() error
}

// Writer is a mapper.Sink that encodes alignments to a stream.
type Writer struct {
	enc encoder
	zw  io.WriteCloser
	f   file.File
	n   int
}

var _ mapper.Sink = (*Writer)(nil)

// NewWriter creates a Writer on w.  contigs supplies the SAM header and must
// list every contig an alignment may refer to.
func NewWriter(w io.Writer, format Format, contigs []mapper.ContigInfo) (*Writer, error) {
	out := &Writer{}
	var err error
	switch format {
	case SAM:
		out.enc, err = newSAMEncoder(w, contigs)
	case TSV:
		out.enc, err = newTSVEncoder(w)
	default:
		err = errors.E(errors.Invalid, "unknown output format", format.String())
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create creates path and returns a Writer on it.  A path ending in ".gz" is
// gzip-compressed; one ending in ".bgz" is BGZF-compressed.
func Create(ctx context.Context, path string, format Format, contigs []mapper.ContigInfo) (*Writer, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	var (
		w  = f.Writer(ctx)
		zw io.WriteCloser
	)
	switch {
	case strings.HasSuffix(path, ".gz"):
		zw = gzip.NewWriter(w)
	case strings.HasSuffix(path, ".bgz"):
		zw, err = bgzf.NewWriter(w, gzip.DefaultCompression)
	}
	if zw != nil {
		w = zw
	}
	var out *Writer
	if err == nil {
		out, err = NewWriter(w, format, contigs)
	}
	if err != nil {
		_ = f.Close(ctx)
		return nil, errors.E(err, path)
	}
	out.zw, out.f = zw, f
	return out, nil
}

// Write implements mapper.Sink.
func (w *Writer) Write(a *mapper.Alignment) error {
	w.n++
	return w.enc.encode(a)
}

// Len is the number of alignments written.
func (w *Writer) Len() int { return w.n }

// Close flushes buffered output and closes the underlying file, if the
// Writer was created by Create.
func (w *Writer) Close(ctx context.Context) error {
	var e errors.Once
	e.Set(w.enc.flush())
	if w.zw != nil {
		e.Set(w.zw.Close())
	}
	if w.f != nil {
		e.Set(w.f.Close(ctx))
	}
	return e.Err()
}
