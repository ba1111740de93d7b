package riegeli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/breakds/riegeli/pkg/riegeli/internal/bytesrc"
	"github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"
	"github.com/breakds/riegeli/pkg/riegeli/internal/varint"
)

// encodeSimpleChunkData builds the raw data section of a Simple chunk
// (uncompressed) holding records, matching internal/chunkenc's expected
// layout.
func encodeSimpleChunkData(t *testing.T, records [][]byte) []byte {
	t.Helper()

	var table []byte
	prev := int64(0)
	for _, r := range records {
		size := int64(len(r))
		table = varint.Append(table, varint.EncodeZigZag(size-prev))
		prev = size
	}

	decompressed := varint.Append(nil, uint64(len(table)))
	decompressed = append(decompressed, table...)
	for _, r := range records {
		decompressed = append(decompressed, r...)
	}

	block := encodeNoneCompressedBlock(decompressed)
	return append([]byte{0 /* CompressionNone */}, block...)
}

func newSimpleRecordReader(t *testing.T, chunksOfRecords ...[][]byte) (*RecordReader, int64) {
	t.Helper()

	var file []byte
	file = append(file, encodeChunkBytes(t, ChunkFileSignature, 0, 0, nil)...)
	sigEnd := int64(len(file))

	for _, records := range chunksOfRecords {
		data := encodeSimpleChunkData(t, records)
		file = append(file, encodeChunkBytes(t, ChunkSimple, uint64(len(records)), uint64(len(data)), data)...)
	}

	rr := NewRecordReader(bytesrc.Owned(bytesrc.NewSliceReader(file)), DefaultReaderOptions())
	return rr, sigEnd
}

func Test_RecordReader_scenario1_emptyFileSignatureOnly(t *testing.T) {
	rr, _ := newSimpleRecordReader(t)

	meta, ok := rr.ReadMetadata()
	require.True(t, ok)
	require.Equal(t, RecordsMetadata{}, meta)

	_, ok = rr.ReadRecord()
	require.False(t, ok)
	require.True(t, rr.Healthy())
}

func Test_RecordReader_scenario2_threeRecordSimpleChunk(t *testing.T) {
	records := [][]byte{[]byte("a"), []byte(""), []byte("hello")}
	rr, chunkEnd := newSimpleRecordReader(t, records)

	for i, want := range records {
		got, ok := rr.ReadRecord()
		require.True(t, ok)
		require.Equal(t, want, got)
		require.Equal(t, RecordPosition{ChunkBegin: chunkEnd, RecordIndex: i}, rr.LastPos())
	}

	_, ok := rr.ReadRecord()
	require.False(t, ok)
	require.True(t, rr.Healthy())
}

func Test_RecordReader_scenario3_corruptedHeaderRecovered(t *testing.T) {
	good1 := [][]byte{[]byte("a"), []byte("b")}
	good2 := [][]byte{[]byte("c")}

	var file []byte
	file = append(file, encodeChunkBytes(t, ChunkFileSignature, 0, 0, nil)...)

	data1 := encodeSimpleChunkData(t, good1)
	chunk1 := encodeChunkBytes(t, ChunkSimple, uint64(len(good1)), uint64(len(data1)), data1)
	chunk1Begin := int64(len(file))
	file = append(file, chunk1...)

	data2 := encodeSimpleChunkData(t, good2)
	chunk2 := encodeChunkBytes(t, ChunkSimple, uint64(len(good2)), uint64(len(data2)), data2)
	chunk2[20] ^= 0xff // flip a header-hash-covered byte in the second chunk's header
	badHeaderBegin := int64(len(file))
	file = append(file, chunk2...)

	data3 := encodeSimpleChunkData(t, [][]byte{[]byte("d")})
	chunk3 := encodeChunkBytes(t, ChunkSimple, 1, uint64(len(data3)), data3)
	chunk3Begin := int64(len(file))
	file = append(file, chunk3...)

	rr := NewRecordReader(bytesrc.Owned(bytesrc.NewSliceReader(file)), DefaultReaderOptions())

	got, ok := rr.ReadRecord()
	require.True(t, ok)
	require.Equal(t, []byte("a"), got)
	require.Equal(t, RecordPosition{ChunkBegin: chunk1Begin, RecordIndex: 0}, rr.LastPos())

	got, ok = rr.ReadRecord()
	require.True(t, ok)
	require.Equal(t, []byte("b"), got)

	_, ok = rr.ReadRecord()
	require.False(t, ok)
	require.False(t, rr.Healthy())
	require.True(t, rstatus.IsDataLoss(rr.Status()))

	var region SkippedRegion
	require.True(t, rr.Recover(&region))
	require.Equal(t, badHeaderBegin, region.Begin)
	require.Equal(t, chunk3Begin, region.End)
	require.True(t, rr.Healthy())

	got, ok = rr.ReadRecord()
	require.True(t, ok)
	require.Equal(t, []byte("d"), got)
}

func Test_RecordReader_scenario5_midChunkSeekByNumericPosition(t *testing.T) {
	chunk1 := make([][]byte, 5)
	chunk2 := make([][]byte, 5)
	for i := range chunk1 {
		chunk1[i] = []byte{byte('a' + i)}
		chunk2[i] = []byte{byte('A' + i)}
	}
	rr, _ := newSimpleRecordReader(t, chunk1, chunk2)

	// Walk the reader forward to learn chunk 2's begin offset the same way
	// a caller would: by position after reading past chunk 1.
	for range chunk1 {
		_, ok := rr.ReadRecord()
		require.True(t, ok)
	}
	chunk2Begin := rr.Pos().ChunkBegin

	require.True(t, rr.Seek(chunk2Begin+3))
	got, ok := rr.ReadRecord()
	require.True(t, ok)
	require.Equal(t, chunk2[3], got)
	require.Equal(t, RecordPosition{ChunkBegin: chunk2Begin, RecordIndex: 3}, rr.LastPos())
}

func Test_RecordReader_scenario6_metadataAfterDataIsRejected(t *testing.T) {
	rr, _ := newSimpleRecordReader(t, [][]byte{[]byte("x")})

	_, ok := rr.ReadRecord()
	require.True(t, ok)

	_, ok = rr.ReadMetadata()
	require.False(t, ok)
	require.Equal(t, rstatus.InvalidArgument, rstatus.KindOf(rr.Status()))
}

func Test_RecordReader_scenario4_unknownCompressionTypeFailsAndClosePropagates(t *testing.T) {
	data := encodeSimpleChunkData(t, [][]byte{[]byte("x")})
	data[0] = 99 // invalid compression type tag

	var file []byte
	file = append(file, encodeChunkBytes(t, ChunkSimple, 1, uint64(len(data)), data)...)

	rr := NewRecordReader(bytesrc.Owned(bytesrc.NewSliceReader(file)), DefaultReaderOptions())
	_, ok := rr.ReadRecord()
	require.False(t, ok)
	require.False(t, rr.Healthy())
	require.True(t, rstatus.IsDataLoss(rr.Status()))

	err := rr.Close()
	require.Error(t, err)
	require.Equal(t, rr.Status(), err)
}

func Test_RecordReader_seekIdempotence(t *testing.T) {
	records := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	rr, chunkBegin := newSimpleRecordReader(t, records)

	pos := RecordPosition{ChunkBegin: chunkBegin, RecordIndex: 1}
	require.True(t, rr.SeekToRecord(pos))
	got1, ok := rr.ReadRecord()
	require.True(t, ok)

	rr2, _ := newSimpleRecordReader(t, records)
	require.True(t, rr2.SeekToRecord(pos))
	got2, ok := rr2.ReadRecord()
	require.True(t, ok)

	require.Equal(t, got1, got2)
}

func Test_RecordReader_readThenSeekToLastPosRepeats(t *testing.T) {
	records := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	rr, _ := newSimpleRecordReader(t, records)

	_, ok := rr.ReadRecord()
	require.True(t, ok)
	got, ok := rr.ReadRecord()
	require.True(t, ok)

	require.True(t, rr.SeekToRecord(rr.LastPos()))
	again, ok := rr.ReadRecord()
	require.True(t, ok)
	require.Equal(t, got, again)
}
