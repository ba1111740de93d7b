package chunkenc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/breakds/riegeli/pkg/riegeli/internal/varint"
)

func buildSimpleChunkData(t *testing.T, records [][]byte) []byte {
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

	block := varint.Append(nil, uint64(len(decompressed)))
	block = append(block, decompressed...)

	data := []byte{byte(CompressionNone)}
	return append(data, block...)
}

func Test_DecodeSimple_threeRecords(t *testing.T) {
	records := [][]byte{[]byte("a"), []byte(""), []byte("hello")}
	data := buildSimpleChunkData(t, records)

	dec, err := DecodeSimple(data, len(records))
	require.NoError(t, err)
	require.Equal(t, 3, dec.NumRecords())

	for i, want := range records {
		require.Equal(t, i, dec.Index())
		got, ok := dec.ReadRecord()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, ok := dec.ReadRecord()
	require.False(t, ok)
}

func Test_DecodeSimple_setIndexReposition(t *testing.T) {
	records := [][]byte{[]byte("x"), []byte("yy"), []byte("zzz")}
	data := buildSimpleChunkData(t, records)

	dec, err := DecodeSimple(data, len(records))
	require.NoError(t, err)

	dec.SetIndex(2)
	got, ok := dec.ReadRecord()
	require.True(t, ok)
	require.Equal(t, []byte("zzz"), got)
}

func Test_DecodeSimple_truncatedTableIsDataLoss(t *testing.T) {
	data := buildSimpleChunkData(t, [][]byte{[]byte("a"), []byte("b")})
	_, err := DecodeSimple(data, 5)
	require.Error(t, err)
}
