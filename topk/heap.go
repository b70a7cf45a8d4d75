// Package topk keeps the best K scores seen for a read.
package topk

// Entry is one scored candidate window.
type Entry struct {
	Score int32
	// Contig is the index of the contig in the genome files, in file order.
	Contig uint32
	// Reverse is true for the reverse-complement strand.
	Reverse bool
	// GenomeIdx is the strand coordinate of the last base of the seed hit that
	// triggered the window.
	GenomeIdx uint32
}

// foundBefore reports whether e was discovered before o by a scan that visits
// contigs in order, the forward strand before the reverse strand, and each
// strand left to right.
func (e Entry) foundBefore(o Entry) bool {
	if e.Contig != o.Contig {
		return e.Contig < o.Contig
	}
	if e.Reverse != o.Reverse {
		return !e.Reverse
	}
	return e.GenomeIdx < o.GenomeIdx
}

// Better reports whether e ranks above o: a higher score, or an equal score
// found earlier.
func (e Entry) Better(o Entry) bool {
	if e.Score != o.Score {
		return e.Score > o.Score
	}
	return e.foundBefore(o)
}

// Heap is a bounded min-heap of Entries.  The root holds the worst entry kept
// so far.  A full heap admits a new entry only if it is Better than the root,
// so among equal scores the earliest-found entries survive regardless of the
// order in which they are inserted.
//
// The storage is 1-based: slots[0] is unused and the root is slots[1].  The
// zero Heap is empty with capacity zero; call Init before use.  Heap is not
// thread safe.
type Heap struct {
	k     int
	slots []Entry
}

// Init sets the capacity to k and empties the heap.  Storage is allocated as
// entries arrive.
func (h *Heap) Init(k int) {
	h.k = k
	h.slots = h.slots[:0]
}

// Len is the number of entries held.
func (h *Heap) Len() int {
	if len(h.slots) == 0 {
		return 0
	}
	return len(h.slots) - 1
}

// Cap is the maximum number of entries held.
func (h *Heap) Cap() int { return h.k }

// Min returns the root.  It panics if the heap is empty.
func (h *Heap) Min() Entry { return h.slots[1] }

// At returns the entry at 1-based heap position i.
func (h *Heap) At(i int) Entry { return h.slots[i] }

// Insert offers e to the heap and reports whether it was kept.
func (h *Heap) Insert(e Entry) bool {
	if h.k <= 0 {
		return false
	}
	if len(h.slots) == 0 {
		h.slots = append(h.slots, Entry{})
	}
	if n := len(h.slots) - 1; n < h.k {
		h.slots = append(h.slots, e)
		h.up(n + 1)
		return true
	}
	if !e.Better(h.slots[1]) {
		return false
	}
	h.slots[1] = e
	h.down(1, len(h.slots)-1)
	return true
}

func (h *Heap) up(i int) {
	s := h.slots
	e := s[i]
	for i > 1 {
		p := i / 2
		if !s[p].Better(e) {
			break
		}
		s[i] = s[p]
		i = p
	}
	s[i] = e
}

// down restores the heap property below i, considering slots [1,n].
func (h *Heap) down(i, n int) {
	s := h.slots
	e := s[i]
	for {
		c := 2 * i
		if c > n {
			break
		}
		if c+1 <= n && s[c].Better(s[c+1]) {
			c++
		}
		if !e.Better(s[c]) {
			break
		}
		s[i] = s[c]
		i = c
	}
	s[i] = e
}

// Drain empties the heap and returns its entries, best first.  The heap is
// sorted in place; the returned slice aliases its storage, and the heap
// allocates fresh storage if reused.
func (h *Heap) Drain() []Entry {
	n := h.Len()
	if n == 0 {
		h.slots = nil
		return nil
	}
	for last := n; last > 1; last-- {
		h.slots[1], h.slots[last] = h.slots[last], h.slots[1]
		h.down(1, last-1)
	}
	out := h.slots[1 : n+1]
	h.slots = nil
	return out
}
