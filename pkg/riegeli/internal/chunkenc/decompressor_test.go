package chunkenc

import (
	"bytes"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/require"

	"github.com/breakds/riegeli/pkg/riegeli/internal/varint"
)

func Test_Decompress_none(t *testing.T) {
	payload := []byte("hello world")
	block := varint.Append(nil, uint64(len(payload)))
	block = append(block, payload...)

	got, err := Decompress(block, CompressionNone)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func Test_Decompress_none_sizeMismatchIsDataLoss(t *testing.T) {
	block := varint.Append(nil, 99)
	block = append(block, []byte("short")...)

	_, err := Decompress(block, CompressionNone)
	require.Error(t, err)
}

func Test_Decompress_snappy(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated, repeated, repeated")
	var compressed bytes.Buffer
	w := snappy.NewBufferedWriter(&compressed)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	block := varint.Append(nil, uint64(len(payload)))
	block = append(block, compressed.Bytes()...)

	got, err := Decompress(block, CompressionSnappy)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func Test_Decompress_malformedSizeVarint(t *testing.T) {
	_, err := Decompress(nil, CompressionNone)
	require.Error(t, err)
}
