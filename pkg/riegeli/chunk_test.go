package riegeli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ChunkHeader_roundTrip(t *testing.T) {
	data := []byte("some chunk payload")
	h := ChunkHeader{
		Type:               ChunkSimple,
		NumRecords:         3,
		DecodedDataSize:    19,
		CompressedDataSize: uint64(len(data)),
		DataHash:           dataHash(data),
	}
	encoded := EncodeChunkHeader(h)
	require.Len(t, encoded, ChunkHeaderSize)

	decoded, err := DecodeChunkHeader(encoded)
	require.NoError(t, err)
	require.Equal(t, h.Type, decoded.Type)
	require.Equal(t, h.NumRecords, decoded.NumRecords)
	require.Equal(t, h.DecodedDataSize, decoded.DecodedDataSize)
	require.Equal(t, h.CompressedDataSize, decoded.CompressedDataSize)
	require.Equal(t, h.DataHash, decoded.DataHash)
}

func Test_DecodeChunkHeader_rejectsCorruptedBytes(t *testing.T) {
	encoded := EncodeChunkHeader(ChunkHeader{Type: ChunkSimple})
	encoded[20] ^= 0xff // corrupt a byte covered by the header hash

	_, err := DecodeChunkHeader(encoded)
	require.Error(t, err)
}

func Test_DecodeChunkHeader_rejectsTruncated(t *testing.T) {
	_, err := DecodeChunkHeader(make([]byte, ChunkHeaderSize-1))
	require.Error(t, err)
}

func Test_ChunkType_String(t *testing.T) {
	require.Equal(t, "Simple", ChunkSimple.String())
	require.Equal(t, "Transposed", ChunkTransposed.String())
	require.Equal(t, "Unknown", ChunkType(99).String())
}
