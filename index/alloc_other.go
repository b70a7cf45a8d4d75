//go:build !linux
// +build !linux

package index

func allocSlots(n int) ([]uint32, func()) {
	return make([]uint32, n), func() {}
}
