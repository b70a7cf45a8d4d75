package index

import (
	"unsafe"

	"github.com/grailbio/base/log"
	"golang.org/x/sys/unix"
)

// allocSlots allocates a zeroed []uint32 of length n for a slot table.  Large
// tables are created in an anon-mapped region with madvise(MADV_HUGEPAGE) to
// reduce TLB misses during scanning; Ubuntu, by default, activates THPs only
// for madvised regions.  The returned function releases the memory.
func allocSlots(n int) ([]uint32, func()) {
	const minMmapBytes = 2 << 20 // size of Linux transparent hugetlb.
	nBytes := n * 4
	if nBytes < minMmapBytes {
		return make([]uint32, n), func() {}
	}
	data, err := unix.Mmap(-1, 0, nBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		log.Debug.Printf("index: mmap %d bytes: %v, using the Go heap", nBytes, err)
		return make([]uint32, n), func() {}
	}
	if err := unix.Madvise(data, unix.MADV_HUGEPAGE); err != nil {
		log.Debug.Printf("index: madvise: %v", err)
	}
	slots := unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), n)
	return slots, func() {
		if err := unix.Munmap(data); err != nil {
			log.Panic(err)
		}
	}
}
