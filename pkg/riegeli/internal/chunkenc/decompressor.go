// Package chunkenc decodes chunk payloads: decompression, and the simple and
// transposed record layouts.
package chunkenc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"
	"github.com/breakds/riegeli/pkg/riegeli/internal/varint"
)

// CompressionType tags how a chunk's data section was compressed. Values
// match the one-byte tag riegeli writes immediately before the compressed
// bytes (spec §4.D).
type CompressionType byte

const (
	CompressionNone   CompressionType = 0
	CompressionBrotli CompressionType = 1
	CompressionZstd   CompressionType = 2
	CompressionSnappy CompressionType = 3
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionBrotli:
		return "brotli"
	case CompressionZstd:
		return "zstd"
	case CompressionSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("CompressionType(%d)", byte(c))
	}
}

// Decompress reads the uncompressed-size varint from the front of compressed
// and decodes the rest per kind, returning the decoded bytes. Mirrors
// Decompressor's Initialize in decompressor.h: a leading varint gives the
// exact decoded size so callers (the chunk decoders) can preallocate.
func Decompress(compressed []byte, kind CompressionType) ([]byte, error) {
	size, n, ok := varint.ReadFromBytes(compressed)
	if !ok {
		return nil, rstatus.New(rstatus.DataLoss, "reading uncompressed size failed")
	}
	body := compressed[n:]

	if kind == CompressionNone {
		if uint64(len(body)) != size {
			return nil, rstatus.New(rstatus.DataLoss, "uncompressed size %d does not match declared size %d", len(body), size)
		}
		return body, nil
	}

	var r io.Reader
	switch kind {
	case CompressionBrotli:
		r = brotli.NewReader(bytes.NewReader(body))

	case CompressionZstd:
		zr, err := zstd.NewReader(bytes.NewReader(body), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, rstatus.Wrap(rstatus.DataLoss, err, "opening zstd stream")
		}
		defer zr.Close()
		r = zr

	case CompressionSnappy:
		r = snappy.NewReader(bytes.NewReader(body))

	default:
		return nil, rstatus.New(rstatus.DataLoss, "unknown compression type %d", byte(kind))
	}

	out := make([]byte, 0, size)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, rstatus.Wrap(rstatus.DataLoss, err, "decompressing chunk data")
	}
	decoded := buf.Bytes()
	if uint64(len(decoded)) != size {
		return nil, rstatus.New(rstatus.DataLoss, "decompressed size %d does not match declared size %d", len(decoded), size)
	}
	return decoded, nil
}
