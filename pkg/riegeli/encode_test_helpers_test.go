package riegeli

import (
	"encoding/binary"
	"testing"
)

// encodeChunkBytes serializes a header+data chunk exactly as ChunkReader
// expects to read it back, filling in DataHash. Tests build whole files by
// concatenating the result of this helper.
func encodeChunkBytes(t *testing.T, typ ChunkType, numRecords uint64, decodedSize uint64, data []byte) []byte {
	t.Helper()
	h := ChunkHeader{
		Type:               typ,
		NumRecords:         numRecords,
		DecodedDataSize:    decodedSize,
		CompressedDataSize: uint64(len(data)),
		DataHash:           dataHash(data),
	}
	return append(EncodeChunkHeader(h), data...)
}

// encodeNoneCompressedBlock wraps raw with the {varint size}{bytes} framing
// Decompress expects for CompressionNone, per spec §6's "compressed-block"
// layout.
func encodeNoneCompressedBlock(raw []byte) []byte {
	block := binary.AppendUvarint(nil, uint64(len(raw)))
	return append(block, raw...)
}
