package fasta

import (
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
)

// FileScanner is a Scanner over a file opened by Open.
type FileScanner struct {
	*Scanner
	f file.File
}

// Open opens a FASTA file through the grailbio file layer, so path may be
// local or use any registered scheme such as s3://.  Compressed files are
// decompressed based on their extension.
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
