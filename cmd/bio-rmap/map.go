package main

import (
	"context"
	"fmt"
	"os"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/rmap/mapper"
	"github.com/grailbio/rmap/output"
	"github.com/grailbio/rmap/reads"
	"v.io/x/lib/cmdline"
)

type mapFlags struct {
	opts   mapper.Opts
	out    string
	format string
	mates  string
}

func newCmdMap() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "map",
		Short:    "Map reads to a reference genome",
		ArgsName: "readspath genomepath...",
		Long: `
Map aligns every read of readspath (FASTA or FASTQ; colour reads start with
their primer base, paired reads are consecutive records unless -mates names a
second file) against the contigs of the
genome FASTA files, and writes each alignment reaching the full threshold.

Thresholds and the window length accept absolute values ("300") or
percentages of the read length or perfect score ("68%", "68.0").`,
	}
	flags := mapFlags{opts: mapper.DefaultOpts}
	bindMapFlags(&cmd.Flags, &flags.opts)
	cmd.Flags.StringVar(&flags.out, "out", "-", "Output path; '-' writes to stdout. A .gz suffix compresses the output")
	cmd.Flags.StringVar(&flags.mates, "mates", "", "FASTA/FASTQ file holding the second mates of readspath, in order. Implies -mode=paired")
	cmd.Flags.StringVar(&flags.format, "format", "", "Output format, 'sam' or 'tsv'. Guessed from -out when empty")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) < 2 {
			return fmt.Errorf("map takes a reads path and at least one genome path, but got %v", argv)
		}
		return runMap(vcontext.Background(), flags, argv[0], argv[1:])
	})
	return cmd
}

func runMap(ctx context.Context, flags mapFlags, readsPath string, genomePaths []string) (err error) {
	opts := flags.opts
	if flags.mates != "" {
		opts.Mode = reads.Paired
	}
	if err = opts.Validate(); err != nil {
		return err
	}
	format := output.FormatFromPath(flags.out)
	if flags.format != "" {
		if format, err = output.ParseFormat(flags.format); err != nil {
			return err
		}
	}
	var g *reads.Registry
	if flags.mates != "" {
		g, err = reads.LoadPairs(ctx, readsPath, flags.mates, opts.ReadOpts())
	} else {
		g, err = reads.Load(ctx, readsPath, opts.ReadOpts())
	}
	if err != nil {
		return err
	}
	s, err := mapper.NewSession(opts, g)
	if err != nil {
		return err
	}
	defer s.Close()

	genome := mapper.FileGenome{Paths: genomePaths}
	if err = s.Scan(ctx, genome); err != nil {
		return err
	}
	var w *output.Writer
	if flags.out == "-" {
		w, err = output.NewWriter(os.Stdout, format, s.Contigs())
	} else {
		w, err = output.Create(ctx, flags.out, format, s.Contigs())
	}
	if err != nil {
		return err
	}
	var e errors.Once
	e.Set(s.FinalPass(ctx, genome, w))
	e.Set(w.Close(ctx))
	if err = e.Err(); err != nil {
		return err
	}
	s.Stats().Log()
	log.Printf("map: wrote %d alignments to %s", w.Len(), flags.out)
	return nil
}
