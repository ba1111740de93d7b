package bytesrc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ChainReader_readsAcrossBlocks(t *testing.T) {
	r := NewChainReader([][]byte{[]byte("ab"), []byte("cde"), []byte("f")})

	dest := make([]byte, 6)
	require.True(t, r.Read(dest))
	require.Equal(t, "abcdef", string(dest))
	require.Equal(t, int64(6), r.Pos())
}

func Test_ChainReader_pullSpanningBoundaryUsesScratch(t *testing.T) {
	r := NewChainReader([][]byte{[]byte("ab"), []byte("cde")})

	require.True(t, r.Pull(4, 0))
	buf, cursor := r.Fragment()
	require.GreaterOrEqual(t, len(buf)-cursor, 4)
	require.Equal(t, "abcd", string(buf[cursor:cursor+4]))
}

func Test_ChainReader_skipsEmptyBlocks(t *testing.T) {
	r := NewChainReader([][]byte{{}, []byte("x"), {}, []byte("y")})

	dest := make([]byte, 2)
	require.True(t, r.Read(dest))
	require.Equal(t, "xy", string(dest))
}

func Test_ChainReader_seekBackwardAndForward(t *testing.T) {
	r := NewChainReader([][]byte{[]byte("abc"), []byte("def"), []byte("ghi")})

	require.True(t, r.Seek(7))
	dest := make([]byte, 2)
	require.True(t, r.Read(dest))
	require.Equal(t, "hi", string(dest))

	require.True(t, r.Seek(1))
	dest = make([]byte, 3)
	require.True(t, r.Read(dest))
	require.Equal(t, "bcd", string(dest))
}

func Test_ChainReader_seekPastEndFails(t *testing.T) {
	r := NewChainReader([][]byte{[]byte("abc")})
	require.False(t, r.Seek(10))
}

func Test_ChainReader_sizeIsSumOfBlocks(t *testing.T) {
	r := NewChainReader([][]byte{[]byte("ab"), []byte("cde")})
	size, ok := r.Size()
	require.True(t, ok)
	require.Equal(t, int64(5), size)
}

func Test_ChainReader_emptyChainIsHealthyAtEOF(t *testing.T) {
	r := NewChainReader(nil)
	require.True(t, r.Healthy())
	require.False(t, r.Pull(1, 0))
	size, ok := r.Size()
	require.True(t, ok)
	require.Equal(t, int64(0), size)
}
