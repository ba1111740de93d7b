// Package varint implements riegeli's LEB128-style variable-length integer
// encoding, used for record-size tables, decompressor uncompressed-size
// prefixes, and transposed-chunk bucket lengths.
package varint

import (
	"encoding/binary"
	"sync"

	"github.com/breakds/riegeli/pkg/riegeli/internal/bytesrc"
	"github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"
)

// MaxLength64 is the longest encoding of a uint64 (10 bytes of 7 bits each).
const MaxLength64 = 10

// bufPool recycles small scratch buffers for Append, mirroring the teacher's
// varintPool in pool.go.
var bufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, MaxLength64)
		return &buf
	},
}

// Append encodes v and appends it to dst, the way binary.AppendUvarint does,
// but routed through a pooled scratch buffer so repeated single-value
// encodes (one varint at a time, as in the record-size table) don't each
// allocate.
func Append(dst []byte, v uint64) []byte {
	bufPtr := bufPool.Get().(*[]byte)
	buf := binary.AppendUvarint((*bufPtr)[:0], v)
	dst = append(dst, buf...)
	*bufPtr = buf
	bufPool.Put(bufPtr)
	return dst
}

// Read decodes a varint from r's Pull/Fragment interface, advancing r past
// the encoded bytes. It returns false on a malformed (too long, or truncated
// at EOF) encoding; it records no status, so callers report the failure
// themselves (for example with ErrMalformed).
func Read(r bytesrc.Reader) (uint64, bool) {
	var value uint64
	var shift uint
	for i := 0; i < MaxLength64; i++ {
		if !r.Pull(1, MaxLength64) {
			return 0, false
		}
		buf, cursor := r.Fragment()
		b := buf[cursor]
		r.Advance(1)

		value |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return value, true
		}
		shift += 7
	}
	return 0, false
}

// ReadFromBytes decodes a varint from the front of buf, returning the
// decoded value and the number of bytes consumed, or ok=false on a malformed
// encoding (mirrors encoding/binary.Uvarint but reports failure uniformly).
func ReadFromBytes(buf []byte) (value uint64, n int, ok bool) {
	v, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, 0, false
	}
	return v, n, true
}

// Length returns the number of bytes Append(nil, v) would produce.
func Length(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// ErrMalformed is the DataLoss error Read's callers typically wrap it as.
func ErrMalformed() error {
	return rstatus.New(rstatus.DataLoss, "malformed varint")
}

// EncodeZigZag maps a signed delta to an unsigned value so small magnitudes
// of either sign encode compactly, the way protobuf's sint32/64 do.
func EncodeZigZag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// DecodeZigZag inverts EncodeZigZag.
func DecodeZigZag(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}
