// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package mapper maps short reads to a reference genome.
//
// A run builds a spaced-seed index over the reads, streams every contig of the
// genome once per strand looking for windows in which a read collects enough
// seed hits, scores those windows with a cheap prefilter and keeps the best
// ones per read.  A final pass reloads the genome and fully aligns the kept
// windows.
//
// All run state lives in a Session; there are no package globals.
package mapper

import (
	"context"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/rmap/align"
	"github.com/grailbio/rmap/circular"
	"github.com/grailbio/rmap/index"
	"github.com/grailbio/rmap/prefilter"
	"github.com/grailbio/rmap/reads"
	"github.com/grailbio/rmap/seed"
)

// worker owns the mutable state of one strand scan and its final-pass
// alignments.  Workers are reused across contigs.
type worker struct {
	table   *circular.HitTable
	pf      *prefilter.Scorer
	aligner *align.Aligner
	cursors []seedCursor
	rev     []byte
	colours []byte
	stats   Stats
}

// ContigInfo describes a contig seen by Scan.
type ContigInfo struct {
	Name   string
	Length int
}

// Session holds the state of one mapping run.
type Session struct {
	opts    Opts
	reads   *reads.Registry
	seeds   []*seed.Seed
	indexes []*index.Index
	strands []bool
	workers []*worker
	contigs []ContigInfo

	mu    sync.Mutex
	stats Stats
}

// NewSession validates opts and indexes the reads of g.  g must have been
// loaded with opts.ReadOpts().
func NewSession(opts Opts, g *reads.Registry) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if g.Mode != opts.Mode {
		return nil, errors.E(errors.Invalid, "reads loaded in", g.Mode.String(), "mode, want", opts.Mode.String())
	}
	seeds, err := opts.ParseSeeds()
	if err != nil {
		return nil, err
	}
	s := &Session{
		opts:    opts,
		reads:   g,
		seeds:   seeds,
		indexes: make([]*index.Index, len(seeds)),
		strands: opts.strands(),
	}
	err = traverse.Each(len(seeds), func(i int) error {
		idx, err := index.Build(seeds[i], g)
		if err != nil {
			return err
		}
		idx.Prune(opts.KmerStddevLimit)
		s.indexes[i] = idx
		return nil
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	maxWindow := 2 * g.MaxWindowLen()
	for range s.strands {
		w := &worker{
			table:   circular.NewHitTable(g.Len(), opts.MatchesPerWindow),
			pf:      prefilter.New(maxWindow, opts.Params),
			aligner: align.NewAligner(maxWindow, g.MaxReadLen(), opts.Params),
			cursors: make([]seedCursor, len(seeds)),
		}
		for i, idx := range s.indexes {
			w.cursors[i].init(idx)
		}
		s.workers = append(s.workers, w)
	}
	log.Printf("session: %d reads, %d seeds, %d strands", g.Len(), len(seeds), len(s.strands))
	return s, nil
}

// Close releases the seed indexes.
func (s *Session) Close() {
	for _, idx := range s.indexes {
		if idx != nil {
			idx.Close()
		}
	}
}

// Reads returns the session's read registry.
func (s *Session) Reads() *reads.Registry { return s.reads }

// Contigs lists the contigs seen by the last Scan, in genome order.
func (s *Session) Contigs() []ContigInfo { return s.contigs }

// Indexes returns the seed indexes, one per seed.
func (s *Session) Indexes() []*index.Index { return s.indexes }

// Stats returns the counters accumulated so far.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	for _, w := range s.workers {
		st = st.Merge(w.stats)
	}
	return st
}

func (s *Session) addStats(st Stats) {
	s.mu.Lock()
	s.stats = s.stats.Merge(st)
	s.mu.Unlock()
}

// Run scans the genome, then aligns the best windows of every read and
// writes the alignments to sink.
func (s *Session) Run(ctx context.Context, genome Genome, sink Sink) error {
	if err := s.Scan(ctx, genome); err != nil {
		return err
	}
	return s.FinalPass(ctx, genome, sink)
}
