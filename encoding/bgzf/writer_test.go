package bgzf

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	for _, length := range []int{0, 1, 100, 65279, 65280, 65281, 500000} {
		input := make([]byte, length)
		rand.New(rand.NewSource(int64(length))).Read(input)

		var buf bytes.Buffer
		w, err := NewWriter(&buf, gzip.BestSpeed)
		require.NoError(t, err)
		n, err := w.Write(input)
		require.NoError(t, err)
		assert.Equal(t, length, n)
		require.NoError(t, w.Close())
		assert.True(t, bytes.HasSuffix(buf.Bytes(), terminator))

		r, err := gzip.NewReader(&buf)
		require.NoError(t, err)
		actual, err := ioutil.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, length, len(actual))
		assert.True(t, bytes.Equal(input, actual), "length %d", length)
	}
}

func TestBlocks(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriterSize(&buf, gzip.DefaultCompression, 5)
	require.NoError(t, err)
	for _, s := range []string{"ABC", "DEFGHIJ", "K"} {
		_, err := w.Write([]byte(s))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	// Walk the blocks through their BSIZE fields: ABCDE, FGHIJ, K and the
	// terminator.
	b := buf.Bytes()
	var blocks int
	for len(b) > 0 {
		require.True(t, len(b) >= bsizeOffset+2)
		assert.Equal(t, []byte{0x1f, 0x8b}, b[:2])
		bsize := int(binary.LittleEndian.Uint16(b[bsizeOffset:]))
		b = b[bsize+1:]
		blocks++
	}
	assert.Equal(t, 4, blocks)

	_, err = NewWriterSize(&buf, gzip.DefaultCompression, MaxBlockSize+1)
	assert.Error(t, err)
}
