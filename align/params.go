// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package align implements banded local alignment (Smith-Waterman with
// affine gaps) of a read against a window of the reference, with full
// alignment reconstruction.
package align

import (
	"github.com/grailbio/base/errors"
)

// Params holds the scoring scheme.  Penalties are positive numbers that are
// subtracted from the score.
type Params struct {
	// Match is added for each identical, unambiguous base pair.  Must be > 0.
	Match int
	// Mismatch is added for each differing pair.  Usually negative.
	Mismatch int
	// ReadGapOpen and ReadGapExtend price a reference base aligned against a
	// gap in the read.  A gap of length n costs Open + n*Extend.
	ReadGapOpen, ReadGapExtend int
	// RefGapOpen and RefGapExtend price a read base aligned against a gap in
	// the reference.
	RefGapOpen, RefGapExtend int
}

// DefaultParams is the scoring scheme used unless overridden.
var DefaultParams = Params{
	Match:         10,
	Mismatch:      -15,
	ReadGapOpen:   40,
	ReadGapExtend: 7,
	RefGapOpen:    40,
	RefGapExtend:  7,
}

// Validate checks that p is usable.
func (p Params) Validate() error {
	if p.Match <= 0 {
		return errors.E(errors.Invalid, "match score must be positive")
	}
	if p.ReadGapOpen < 0 || p.ReadGapExtend < 0 || p.RefGapOpen < 0 || p.RefGapExtend < 0 {
		return errors.E(errors.Invalid, "gap penalties must not be negative")
	}
	return nil
}

// score returns the diagonal score of aligning genome base g against read
// base r.  Ambiguous bases never match.
func (p Params) score(g, r byte) int32 {
	if g == r && g < 4 {
		return int32(p.Match)
	}
	return int32(p.Mismatch)
}

// Band returns the two band limits used by Aligner.Align for a read of
// readLen bases, a window of genomeLen bases and the given score threshold.
// Cells (i, j) (read offset i, window offset j) with i >= sw+j or j >= ne+i
// are excluded: an alignment reaching threshold cannot use them.
func (p Params) Band(genomeLen, readLen, threshold int) (sw, ne int) {
	sw = (readLen*p.Match-threshold+p.Match-1)/p.Match + 1
	ne = genomeLen - (readLen - sw)
	return sw, ne
}
