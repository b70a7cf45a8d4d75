package circular

import "math"

// Empty is the sentinel stored in unused ring slots and in an unset last
// match.
const Empty = math.MaxUint32

// Hit is one seed hit: the genome offset of the k-mer start and the read
// offset it was indexed under.
type Hit struct {
	GenomeIdx uint32
	ReadIdx   uint32
}

// EmptyHit fills unused slots.
var EmptyHit = Hit{GenomeIdx: Empty, ReadIdx: Empty}

// IsEmpty reports whether h is the sentinel.
func (h Hit) IsEmpty() bool { return h.GenomeIdx == Empty }

// HitTable keeps, for each of a fixed set of reads, a ring of its last n hits
// and the genome position of its last candidate window.  All rings share one
// flat allocation.
//
// A HitTable belongs to a single strand scan and is not thread safe.
type HitTable struct {
	n         int
	hits      []Hit
	next      []uint32 // per read: slot overwritten by the next push, i.e. the oldest.
	lastMatch []uint32
}

// NewHitTable creates a table of nReads rings of n hits each.  It panics if n
// < 1.
func NewHitTable(nReads, n int) *HitTable {
	if n < 1 {
		panic("circular: ring size must be positive")
	}
	t := &HitTable{
		n:         n,
		hits:      make([]Hit, nReads*n),
		next:      make([]uint32, nReads),
		lastMatch: make([]uint32, nReads),
	}
	t.Reset()
	return t
}

// Reset empties every ring and clears every last match.
func (t *HitTable) Reset() {
	for i := range t.hits {
		t.hits[i] = EmptyHit
	}
	for i := range t.next {
		t.next[i] = 0
		t.lastMatch[i] = Empty
	}
}

// RingSize is the number of hits kept per read.
func (t *HitTable) RingSize() int { return t.n }

// Push records a hit for read r, evicting its oldest hit.
func (t *HitTable) Push(r int, h Hit) {
	next := int(t.next[r])
	t.hits[r*t.n+next] = h
	if next++; next == t.n {
		next = 0
	}
	t.next[r] = uint32(next)
}

// Newest returns the most recent hit of read r, or EmptyHit.
func (t *HitTable) Newest(r int) Hit {
	prev := int(t.next[r]) - 1
	if prev < 0 {
		prev = t.n - 1
	}
	return t.hits[r*t.n+prev]
}

// Oldest returns the hit pushed n pushes ago for read r, or EmptyHit if
// fewer than n hits were pushed since the last Reset.
func (t *HitTable) Oldest(r int) Hit {
	return t.hits[r*t.n+int(t.next[r])]
}

// LastMatch returns the genome position of read r's last candidate window,
// or Empty.
func (t *HitTable) LastMatch(r int) uint32 { return t.lastMatch[r] }

// SetLastMatch records a candidate window for read r at genome position pos.
func (t *HitTable) SetLastMatch(r int, pos uint32) { t.lastMatch[r] = pos }
