package bytesrc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_pullableReader_positionInvariantHoldsThroughScratch(t *testing.T) {
	r := NewChainReader([][]byte{[]byte("ab"), []byte("cde"), []byte("f")})

	require.True(t, r.Pull(4, 0))
	require.Equal(t, r.startPos+int64(r.cursor-r.start), r.Pos())

	r.Advance(4)
	require.Equal(t, int64(4), r.Pos())
	require.Equal(t, r.startPos+int64(r.cursor-r.start), r.Pos())
}

func Test_pullableReader_behindScratchExposesUnderlyingFragment(t *testing.T) {
	r := NewChainReader([][]byte{[]byte("ab"), []byte("cde")})
	require.True(t, r.Pull(4, 0))
	require.True(t, r.scratchActive())

	bs := r.EnterBehindScratch()
	require.False(t, r.scratchActive())
	bs.Leave()
	require.True(t, r.scratchActive())
}
