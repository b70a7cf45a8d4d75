// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package seed implements spaced seeds.  A spaced seed is a pattern of match
// ('1') and don't-care ('0') positions laid over a window of consecutive
// bases; the bases under the match positions form the seed key.
package seed

import (
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

const (
	// MaxSpan is the longest window a seed may cover.  Windows are kept in a
	// uint64 at two bits per base.
	MaxSpan = 32
	// MaxWeight is the largest number of match positions.  Keys are uint64.
	MaxWeight = 32
)

// run is a maximal stretch of consecutive match positions.  shift is the bit
// offset of the run's last base within a rolling window; mask selects the
// run's 2*len bits after shifting.
type run struct {
	shift uint
	bits  uint
	mask  uint64
}

// Seed is an immutable spaced seed.
type Seed struct {
	pattern string
	// Span is the number of bases covered by the seed.
	Span int
	// Weight is the number of match positions.
	Weight int
	// Mask has bit p set iff pattern position p is a match position.  Position
	// 0 is the leftmost (earliest) base of the window.
	Mask uint64
	// Positions lists the read offsets at which the seed may be applied.  Nil
	// means everywhere.
	Positions []int

	runs []run
}

// Parse parses a seed such as "1101011" or "1101011:0|4|8".
func Parse(s string) (*Seed, error) {
	pattern, positions := s, ""
	if i := strings.IndexByte(s, ':'); i >= 0 {
		pattern, positions = s[:i], s[i+1:]
	}
	if len(pattern) == 0 {
		return nil, errors.E(errors.Invalid, "seed: empty pattern", s)
	}
	if len(pattern) > MaxSpan {
		return nil, errors.E(errors.Invalid, "seed", s, "spans more than", strconv.Itoa(MaxSpan), "bases")
	}
	sd := &Seed{pattern: pattern, Span: len(pattern)}
	zeros := 0
	for p := 0; p < len(pattern); p++ {
		switch pattern[p] {
		case '1':
			sd.Weight++
			sd.Mask |= 1 << uint(p)
		case '0':
			zeros++
		default:
			return nil, errors.E(errors.Invalid, "seed", s, "contains invalid character", strconv.Quote(pattern[p:p+1]))
		}
	}
	if sd.Weight == 0 {
		return nil, errors.E(errors.Invalid, "seed", s, "has no match positions")
	}
	if zeros != sd.Span-sd.Weight {
		return nil, errors.E(errors.Invalid, "seed", s, "is inconsistent")
	}
	if positions != "" {
		for _, f := range strings.Split(positions, "|") {
			pos, err := strconv.Atoi(f)
			if err != nil || pos < 0 {
				return nil, errors.E(errors.Invalid, "seed", s, "has a bad position", strconv.Quote(f))
			}
			sd.Positions = append(sd.Positions, pos)
		}
	}
	sd.initRuns()
	return sd, nil
}

// MustParse is Parse that panics on error.  For seeds known at compile time.
func MustParse(s string) *Seed {
	sd, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return sd
}

func (sd *Seed) initRuns() {
	for p := 0; p < sd.Span; {
		if sd.pattern[p] != '1' {
			p++
			continue
		}
		end := p
		for end < sd.Span && sd.pattern[end] == '1' {
			end++
		}
		n := uint(end - p)
		r := run{shift: 2 * uint(sd.Span-end), bits: 2 * n}
		if n >= 32 {
			r.mask = ^uint64(0)
		} else {
			r.mask = 1<<r.bits - 1
		}
		sd.runs = append(sd.runs, r)
		p = end
	}
}

// String returns the seed in the syntax accepted by Parse.
func (sd *Seed) String() string {
	if len(sd.Positions) == 0 {
		return sd.pattern
	}
	buf := strings.Builder{}
	buf.WriteString(sd.pattern)
	for i, p := range sd.Positions {
		if i == 0 {
			buf.WriteByte(':')
		} else {
			buf.WriteByte('|')
		}
		buf.WriteString(strconv.Itoa(p))
	}
	return buf.String()
}

// Pattern returns the '1'/'0' pattern without positions.
func (sd *Seed) Pattern() string { return sd.pattern }

// NumKeys is the number of distinct keys, 4^Weight.  It saturates at 0 for
// Weight == 32.
func (sd *Seed) NumKeys() uint64 {
	if sd.Weight >= 32 {
		return 0
	}
	return 1 << (2 * uint(sd.Weight))
}

// WindowMask selects the low 2*Span bits of a rolling window.
func (sd *Seed) WindowMask() uint64 {
	if sd.Span >= 32 {
		return ^uint64(0)
	}
	return 1<<(2*uint(sd.Span)) - 1
}

// Key extracts the key from a rolling window, in which the newest base
// occupies the low two bits.  The leftmost match position is the most
// significant digit of the key.
func (sd *Seed) Key(window uint64) uint64 {
	var key uint64
	for _, r := range sd.runs {
		key = key<<r.bits | (window>>r.shift)&r.mask
	}
	return key
}

// KeyAt computes the key of the window codes[start:start+Span].  ok is false
// if the window runs off the end of codes or contains an ambiguous base.
func (sd *Seed) KeyAt(codes []byte, start int) (key uint64, ok bool) {
	if start < 0 || start+sd.Span > len(codes) {
		return 0, false
	}
	var window uint64
	for _, c := range codes[start : start+sd.Span] {
		if c > 3 {
			return 0, false
		}
		window = window<<2 | uint64(c)
	}
	return sd.Key(window), true
}

// AppliesAt reports whether the seed may be used for the window starting at
// the given read offset.
func (sd *Seed) AppliesAt(readOff int) bool {
	if sd.Positions == nil {
		return true
	}
	for _, p := range sd.Positions {
		if p == readOff {
			return true
		}
	}
	return false
}

// ParseList parses a comma-separated list of seeds.
func ParseList(s string) ([]*Seed, error) {
	var seeds []*Seed
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		sd, err := Parse(f)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, sd)
	}
	if len(seeds) == 0 {
		return nil, errors.E(errors.Invalid, "no seeds in", strconv.Quote(s))
	}
	return seeds, nil
}
