package riegeli

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"
)

// ChunkType identifies what a chunk's data section holds (spec §6).
// Numeric codes are fixed for this package but, per the spec, are otherwise
// implementation-defined.
type ChunkType byte

const (
	ChunkFileSignature ChunkType = 0
	ChunkFileMetadata  ChunkType = 1
	ChunkPadding       ChunkType = 2
	ChunkSimple        ChunkType = 3
	ChunkTransposed    ChunkType = 4
)

func (c ChunkType) String() string {
	switch c {
	case ChunkFileSignature:
		return "FileSignature"
	case ChunkFileMetadata:
		return "FileMetadata"
	case ChunkPadding:
		return "Padding"
	case ChunkSimple:
		return "Simple"
	case ChunkTransposed:
		return "Transposed"
	default:
		return "Unknown"
	}
}

// ChunkHeaderSize is the fixed on-disk size of a ChunkHeader (spec §6:
// "recommended 40 bytes").
const ChunkHeaderSize = 40

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// ChunkHeader is the fixed-width framing that precedes every chunk's data
// (spec §3, "Chunk"). Layout, 40 bytes total:
//
//	[0:4)   HeaderHash         uint32 LE, CRC32C over bytes [4:40)
//	[4:8)   DataHash           uint32 LE, CRC32C over the chunk's Data
//	[8:9)   ChunkType          byte
//	[9:16)  reserved           7 zero bytes
//	[16:24) NumRecords         uint64 LE
//	[24:32) DecodedDataSize    uint64 LE
//	[32:40) CompressedDataSize uint64 LE
type ChunkHeader struct {
	HeaderHash         uint32
	DataHash           uint32
	Type               ChunkType
	NumRecords         uint64
	DecodedDataSize    uint64
	CompressedDataSize uint64
}

// EncodeChunkHeader serializes h to its 40-byte on-disk form, computing
// HeaderHash from the other fields.
func EncodeChunkHeader(h ChunkHeader) []byte {
	buf := make([]byte, ChunkHeaderSize)
	buf[8] = byte(h.Type)
	binary.LittleEndian.PutUint64(buf[16:24], h.NumRecords)
	binary.LittleEndian.PutUint64(buf[24:32], h.DecodedDataSize)
	binary.LittleEndian.PutUint64(buf[32:40], h.CompressedDataSize)
	binary.LittleEndian.PutUint32(buf[4:8], h.DataHash)
	binary.LittleEndian.PutUint32(buf[0:4], crc32.Checksum(buf[4:40], crcTable))
	return buf
}

// DecodeChunkHeader parses a 40-byte chunk header, validating HeaderHash.
// A header-hash mismatch is the primary corruption signal ChunkReader.Recover
// resynchronizes on.
func DecodeChunkHeader(buf []byte) (ChunkHeader, error) {
	if len(buf) < ChunkHeaderSize {
		return ChunkHeader{}, rstatus.New(rstatus.DataLoss, "chunk header truncated: got %d bytes, want %d", len(buf), ChunkHeaderSize)
	}
	buf = buf[:ChunkHeaderSize]

	wantHash := binary.LittleEndian.Uint32(buf[0:4])
	if gotHash := crc32.Checksum(buf[4:40], crcTable); gotHash != wantHash {
		return ChunkHeader{}, rstatus.New(rstatus.DataLoss, "chunk header hash mismatch: got %x, want %x", gotHash, wantHash)
	}

	return ChunkHeader{
		HeaderHash:         wantHash,
		DataHash:           binary.LittleEndian.Uint32(buf[4:8]),
		Type:               ChunkType(buf[8]),
		NumRecords:         binary.LittleEndian.Uint64(buf[16:24]),
		DecodedDataSize:    binary.LittleEndian.Uint64(buf[24:32]),
		CompressedDataSize: binary.LittleEndian.Uint64(buf[32:40]),
	}, nil
}

// Chunk is a fully-read chunk: its header plus the (still compressed, where
// applicable) data section.
type Chunk struct {
	Header ChunkHeader
	Data   []byte
}

// dataHash computes the hash ChunkHeader.DataHash should equal for data.
func dataHash(data []byte) uint32 { return crc32.Checksum(data, crcTable) }
