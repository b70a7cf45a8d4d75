// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package index implements the seed index: a map from spaced-seed keys to the
// reads, and read offsets, at which each key occurs.
//
// The index is a slot table in compressed-row form.  offsets[s] and
// offsets[s+1] bound slot s's entries in one flat entries array, so a lookup
// is two loads and a slice.  Seeds of weight up to MaxDenseWeight get one
// slot per possible key.  Heavier seeds are hashed into a power-of-two table;
// two keys sharing a slot only produce extra hits, which the prefilter
// rejects.
package index

import (
	"math"
	"sort"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/bitset"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/rmap/circular"
	"github.com/grailbio/rmap/reads"
	"github.com/grailbio/rmap/seed"
)

// MaxDenseWeight is the heaviest seed indexed with one slot per key.
const MaxDenseWeight = 13

// mate2Bit marks entries of the second mate of a pair.
const mate2Bit = 1 << 31

// Entry is one occurrence of a key.
type Entry struct {
	ReadID uint32
	pos    uint32
}

// Offset is the read offset of the start of the seed window.
func (e Entry) Offset() int { return int(e.pos &^ mate2Bit) }

// Mate is 0 for the first (or only) mate and 1 for the second.
func (e Entry) Mate() int { return int(e.pos >> 31) }

// Index maps seed keys to read occurrences.  It is read-only once built and
// safe for concurrent lookups.
type Index struct {
	Seed *seed.Seed

	hashed  bool
	mask    uint64
	nSlots  int
	offsets []uint32
	entries []Entry
	release func()

	pruned  []uintptr
	nPruned int
}

type slotPos struct {
	slot uint32
	pos  uint32
}

// Slot maps a key to its slot.
func (idx *Index) Slot(key uint64) uint32 {
	if idx.hashed {
		return uint32(farm.Hash64WithSeed(nil, key) & idx.mask)
	}
	return uint32(key)
}

// Bounds returns the range of slot's entries.
func (idx *Index) Bounds(slot uint32) (lo, hi uint32) {
	return idx.offsets[slot], idx.offsets[slot+1]
}

// Entries returns the entries in [lo, hi).
func (idx *Index) Entries(lo, hi uint32) []Entry {
	return idx.entries[lo:hi]
}

// Lookup returns the entries of key, ordered by read ID.
func (idx *Index) Lookup(key uint64) []Entry {
	lo, hi := idx.Bounds(idx.Slot(key))
	return idx.entries[lo:hi]
}

// NumSlots is the size of the slot table.
func (idx *Index) NumSlots() int { return idx.nSlots }

// NumEntries is the total number of entries.
func (idx *Index) NumEntries() int { return len(idx.entries) }

// Hashed reports whether keys are hashed into slots.
func (idx *Index) Hashed() bool { return idx.hashed }

// Pruned reports whether slot was emptied by Prune.
func (idx *Index) Pruned(slot uint32) bool {
	return idx.pruned != nil && bitset.Test(idx.pruned, int(slot))
}

// NumPruned is the number of slots emptied by Prune.
func (idx *Index) NumPruned() int { return idx.nPruned }

// Close releases the slot table.  The index must not be used afterwards.
func (idx *Index) Close() {
	if idx.release != nil {
		idx.release()
		idx.release = nil
	}
	idx.offsets, idx.entries = nil, nil
}

// forEachWindow calls fn for every window of codes that the seed indexes:
// windows without ambiguous bases, at offsets the seed applies to, and, if
// skipFirst, not at offset 0.
func forEachWindow(sd *seed.Seed, codes []byte, skipFirst bool, fn func(start int, key uint64)) {
	var (
		span   = sd.Span
		wmask  = sd.WindowMask()
		window uint64
		skip   = span - 1
	)
	for i, c := range codes {
		window = (window<<2 | uint64(c&3)) & wmask
		if c > 3 {
			skip = span
		}
		if skip > 0 {
			skip--
			continue
		}
		start := i - span + 1
		if (skipFirst && start == 0) || !sd.AppliesAt(start) {
			continue
		}
		fn(start, sd.Key(window))
	}
}

// readSlots lists the distinct slots of read r with the first offset at
// which each occurs.
func (idx *Index) readSlots(r *reads.Read, skipFirst bool, buf []slotPos) []slotPos {
	buf = buf[:0]
	for m := range r.Mates {
		bit := uint32(0)
		if m == 1 {
			bit = mate2Bit
		}
		forEachWindow(idx.Seed, r.Mates[m].Seq, skipFirst, func(start int, key uint64) {
			buf = append(buf, slotPos{idx.Slot(key), uint32(start) | bit})
		})
	}
	sort.Slice(buf, func(i, j int) bool {
		if buf[i].slot != buf[j].slot {
			return buf[i].slot < buf[j].slot
		}
		return buf[i].pos < buf[j].pos
	})
	n := 0
	for i := range buf {
		if n > 0 && buf[n-1].slot == buf[i].slot {
			continue
		}
		buf[n] = buf[i]
		n++
	}
	return buf[:n]
}

// Build indexes every read of g under sd.  In colour mode the first window of
// each read is not indexed: its first colour depends on the primer base.
func Build(sd *seed.Seed, g *reads.Registry) (*Index, error) {
	idx := &Index{Seed: sd}
	skipFirst := g.Mode == reads.Colour
	if sd.Weight <= MaxDenseWeight {
		idx.nSlots = int(sd.NumKeys())
	} else {
		total := 0
		for _, r := range g.Reads {
			for _, m := range r.Mates {
				if n := len(m.Seq) - sd.Span + 1; n > 0 {
					total += n
				}
			}
		}
		idx.hashed = true
		idx.nSlots = circular.NextExp2(total)
		idx.mask = uint64(idx.nSlots - 1)
	}
	if uint64(idx.nSlots) >= math.MaxUint32 {
		return nil, errors.E(errors.Invalid, "index: seed", sd.String(), "needs too many slots")
	}
	idx.offsets, idx.release = allocSlots(idx.nSlots + 1)

	// Count, then turn counts into running ends, then fill backwards so that
	// each offsets[s] ends at the start of slot s.  Reads are visited in
	// reverse so that each slot lists reads in ascending ID order.
	var (
		buf   []slotPos
		total uint64
	)
	for _, r := range g.Reads {
		buf = idx.readSlots(r, skipFirst, buf)
		for _, sp := range buf {
			idx.offsets[sp.slot]++
		}
		total += uint64(len(buf))
	}
	if total >= math.MaxUint32 {
		idx.Close()
		return nil, errors.E(errors.Invalid, "index: too many seed occurrences")
	}
	var sum uint32
	for s := 0; s < idx.nSlots; s++ {
		sum += idx.offsets[s]
		idx.offsets[s] = sum
	}
	idx.offsets[idx.nSlots] = sum
	idx.entries = make([]Entry, sum)
	for i := len(g.Reads) - 1; i >= 0; i-- {
		r := g.Reads[i]
		buf = idx.readSlots(r, skipFirst, buf)
		for _, sp := range buf {
			idx.offsets[sp.slot]--
			idx.entries[idx.offsets[sp.slot]] = Entry{ReadID: r.ID, pos: sp.pos}
		}
	}
	mode := "dense"
	if idx.hashed {
		mode = "hashed"
	}
	log.Printf("index: seed %s: %d entries in %d %s slots", sd, len(idx.entries), idx.nSlots, mode)
	return idx, nil
}

// Stats summarizes slot occupancy.
type Stats struct {
	Mean, Stddev float64
	MaxSlot      int
}

// Stats computes occupancy statistics over all slots, empty ones included.
func (idx *Index) Stats() Stats {
	var (
		sum, sumSq float64
		max        int
	)
	for s := 0; s < idx.nSlots; s++ {
		n := int(idx.offsets[s+1] - idx.offsets[s])
		sum += float64(n)
		sumSq += float64(n) * float64(n)
		if n > max {
			max = n
		}
	}
	st := Stats{MaxSlot: max}
	if idx.nSlots > 0 {
		st.Mean = sum / float64(idx.nSlots)
		if v := sumSq/float64(idx.nSlots) - st.Mean*st.Mean; v > 0 {
			st.Stddev = math.Sqrt(v)
		}
	}
	return st
}

// Prune empties every slot holding more than mean + limit*stddev entries.
// A negative limit disables pruning.  It returns the number of slots pruned.
func (idx *Index) Prune(limit float64) int {
	if limit < 0 {
		return 0
	}
	st := idx.Stats()
	cutoff := st.Mean + limit*st.Stddev
	log.Printf("index: seed %s: slot occupancy mean %.3f, stddev %.3f, max %d, pruning above %.3f",
		idx.Seed, st.Mean, st.Stddev, st.MaxSlot, cutoff)
	if st.Mean < 1 {
		log.Printf("index: seed %s: mean occupancy below one, pruning may drop slots holding a single read", idx.Seed)
	}
	if idx.pruned == nil {
		idx.pruned = make([]uintptr, (idx.nSlots+bitset.BitsPerWord-1)/bitset.BitsPerWord)
	}
	var w uint32
	n := 0
	for s := 0; s < idx.nSlots; s++ {
		lo, hi := idx.offsets[s], idx.offsets[s+1]
		idx.offsets[s] = w
		if float64(hi-lo) > cutoff {
			bitset.Set(idx.pruned, s)
			n++
			continue
		}
		w += uint32(copy(idx.entries[w:], idx.entries[lo:hi]))
	}
	idx.offsets[idx.nSlots] = w
	idx.entries = idx.entries[:w]
	idx.nPruned += n
	log.Printf("index: seed %s: pruned %d slots, %d entries remain", idx.Seed, n, w)
	return n
}
