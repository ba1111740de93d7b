package bytesrc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_SliceReader_readsWholeBuffer(t *testing.T) {
	r := NewSliceReader([]byte("hello world"))

	dest := make([]byte, 11)
	require.True(t, r.Read(dest))
	require.Equal(t, "hello world", string(dest))
	require.Equal(t, int64(11), r.Pos())
}

func Test_SliceReader_pullPastEndFails(t *testing.T) {
	r := NewSliceReader([]byte("abc"))
	require.True(t, r.Pull(3, 0))
	require.False(t, r.Pull(4, 0))
	require.True(t, r.Healthy())
}

func Test_SliceReader_seekWithinAndPastEnd(t *testing.T) {
	r := NewSliceReader([]byte("abcdef"))
	require.True(t, r.Seek(2))
	require.Equal(t, int64(2), r.Pos())

	dest := make([]byte, 4)
	require.True(t, r.Read(dest))
	require.Equal(t, "cdef", string(dest))

	require.False(t, r.Seek(100))
}

func Test_SliceReader_sizeAndRandomAccess(t *testing.T) {
	r := NewSliceReader([]byte("abcdef"))
	require.True(t, r.SupportsRandomAccess())
	require.True(t, r.SupportsSize())

	size, ok := r.Size()
	require.True(t, ok)
	require.Equal(t, int64(6), size)
}

func Test_SliceReader_skipNegativeFails(t *testing.T) {
	r := NewSliceReader([]byte("abc"))
	require.False(t, r.Skip(-1))
	require.False(t, r.Healthy())
}

func Test_SliceReader_fragmentZeroCopy(t *testing.T) {
	r := NewSliceReader([]byte("abcdef"))
	require.True(t, r.Pull(1, 0))
	buf, cursor := r.Fragment()
	require.Equal(t, "abcdef", string(buf[cursor:]))
	r.Advance(3)
	buf, cursor = r.Fragment()
	require.Equal(t, "def", string(buf[cursor:]))
}
