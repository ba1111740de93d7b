package chunkenc

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"
	"github.com/breakds/riegeli/pkg/riegeli/internal/varint"
)

// wireType tags how a field's value is encoded in its bucket stream, and
// doubles as the low 3 bits of the protobuf wire tag the decoder
// reconstructs.
type wireType byte

const (
	wireVarint  wireType = 0
	wireBytes   wireType = 2
	wireFixed64 wireType = 1
	wireFixed32 wireType = 5
)

// TransposedDecoder expands a Transposed chunk's data section into an
// indexable sequence of records (spec §4.F, "Transposed chunks"). Fields are
// demultiplexed into per-bucket byte streams; a state machine stream
// interleaves field references (bucket index + wire type) with per-record
// boundary markers, which this decoder walks once, reconstructing each
// record's bytes in ordinary protobuf wire format so downstream parsing
// doesn't need to know a chunk was transposed at all.
//
// Data section layout (spec §6, "Transposed chunk data layout", with the
// state machine stream folded into slot 0 of the size table):
//
//	[compression_type: byte]
//	[varint num_buckets]
//	[(num_buckets+1) varints: compressed block size, slot 0 = state machine]
//	[state machine compressed block]
//	[bucket 0 compressed block] ... [bucket N-1 compressed block]
//
// Each compressed block is {varint uncompressed_size}{codec bytes}, the same
// framing Decompress expects.
type TransposedDecoder struct {
	records [][]byte
	index   int
}

// DecodeTransposed parses data (a Transposed chunk's raw data section) into
// numRecords records, materializing only the fields projection selects.
func DecodeTransposed(data []byte, numRecords int, projection FieldProjection) (*TransposedDecoder, error) {
	if len(data) < 1 {
		return nil, rstatus.New(rstatus.DataLoss, "transposed chunk data too short for compression tag")
	}
	compType := CompressionType(data[0])
	rest := data[1:]

	numBuckets, n, ok := varint.ReadFromBytes(rest)
	if !ok {
		return nil, rstatus.New(rstatus.DataLoss, "reading transposed chunk bucket count failed")
	}
	rest = rest[n:]

	sizes := make([]int, numBuckets+1)
	for i := range sizes {
		size, n, ok := varint.ReadFromBytes(rest)
		if !ok {
			return nil, rstatus.New(rstatus.DataLoss, "reading transposed chunk block size %d failed", i)
		}
		rest = rest[n:]
		sizes[i] = int(size)
	}

	blocks := make([][]byte, numBuckets+1)
	for i, size := range sizes {
		if size < 0 || size > len(rest) {
			return nil, rstatus.New(rstatus.DataLoss, "transposed chunk block %d size %d exceeds remaining data", i, size)
		}
		decoded, err := Decompress(rest[:size], compType)
		if err != nil {
			return nil, err
		}
		blocks[i] = decoded
		rest = rest[size:]
	}

	stateMachine := blocks[0]
	buckets := blocks[1:]
	bucketOffsets := make([]int, len(buckets))

	records := make([][]byte, 0, numRecords)
	var current []byte
	pos := 0

	readBucketBytes := func(bucketIdx int, n int) ([]byte, error) {
		if bucketIdx < 0 || bucketIdx >= len(buckets) {
			return nil, rstatus.New(rstatus.DataLoss, "transposed chunk field references unknown bucket %d", bucketIdx)
		}
		off := bucketOffsets[bucketIdx]
		if off+n > len(buckets[bucketIdx]) {
			return nil, rstatus.New(rstatus.DataLoss, "transposed chunk bucket %d exhausted", bucketIdx)
		}
		b := buckets[bucketIdx][off : off+n]
		bucketOffsets[bucketIdx] = off + n
		return b, nil
	}

	for len(records) < numRecords {
		if pos >= len(stateMachine) {
			return nil, rstatus.New(rstatus.DataLoss, "transposed chunk state machine ended after %d of %d records", len(records), numRecords)
		}
		fieldNum, n, ok := varint.ReadFromBytes(stateMachine[pos:])
		if !ok {
			return nil, rstatus.New(rstatus.DataLoss, "reading transposed chunk field number failed")
		}
		pos += n

		if fieldNum == 0 {
			records = append(records, current)
			current = nil
			continue
		}

		bucketIdx64, n, ok := varint.ReadFromBytes(stateMachine[pos:])
		if !ok {
			return nil, rstatus.New(rstatus.DataLoss, "reading transposed chunk bucket index failed")
		}
		pos += n
		if pos >= len(stateMachine) {
			return nil, rstatus.New(rstatus.DataLoss, "transposed chunk state machine truncated before wire type")
		}
		wt := wireType(stateMachine[pos])
		pos++

		value, err := readFieldValue(wt, int(bucketIdx64), readBucketBytes)
		if err != nil {
			return nil, err
		}

		if projection.Includes(strconv.FormatUint(fieldNum, 10)) {
			current = appendWireField(current, fieldNum, wt, value)
		}
	}

	return &TransposedDecoder{records: records}, nil
}

// readFieldValue consumes exactly one field value from the appropriate
// bucket, per the value's wire type.
func readFieldValue(wt wireType, bucketIdx int, readBucket func(int, int) ([]byte, error)) ([]byte, error) {
	switch wt {
	case wireVarint:
		// The varint's own encoding tells us its length; decode bytes one at
		// a time from the bucket until the continuation bit clears.
		var out []byte
		for {
			b, err := readBucket(bucketIdx, 1)
			if err != nil {
				return nil, err
			}
			out = append(out, b[0])
			if b[0] < 0x80 {
				break
			}
			if len(out) > varint.MaxLength64 {
				return nil, rstatus.New(rstatus.DataLoss, "transposed chunk varint field overflows")
			}
		}
		return out, nil

	case wireFixed32:
		return readBucket(bucketIdx, 4)

	case wireFixed64:
		return readBucket(bucketIdx, 8)

	case wireBytes:
		lenBytes, err := readVarintFromBucket(bucketIdx, readBucket)
		if err != nil {
			return nil, err
		}
		length, n, ok := varint.ReadFromBytes(lenBytes)
		if !ok || n != len(lenBytes) {
			return nil, rstatus.New(rstatus.DataLoss, "transposed chunk length-delimited field has malformed length")
		}
		return readBucket(bucketIdx, int(length))

	default:
		return nil, rstatus.New(rstatus.DataLoss, "transposed chunk field has unknown wire type %d", wt)
	}
}

// readVarintFromBucket reads a varint one byte at a time from the bucket,
// returning its raw encoded bytes.
func readVarintFromBucket(bucketIdx int, readBucket func(int, int) ([]byte, error)) ([]byte, error) {
	var out []byte
	for {
		b, err := readBucket(bucketIdx, 1)
		if err != nil {
			return nil, err
		}
		out = append(out, b[0])
		if b[0] < 0x80 {
			return out, nil
		}
		if len(out) > varint.MaxLength64 {
			return nil, rstatus.New(rstatus.DataLoss, "transposed chunk length varint overflows")
		}
	}
}

// appendWireField appends one protobuf-wire-format tag+value pair to dst, so
// that a fully reconstructed record can be handed to an ordinary proto
// unmarshaler without it knowing the source chunk was transposed.
func appendWireField(dst []byte, fieldNum uint64, wt wireType, value []byte) []byte {
	tag := (fieldNum << 3) | uint64(wt)
	dst = binary.AppendUvarint(dst, tag)
	switch wt {
	case wireBytes:
		dst = binary.AppendUvarint(dst, uint64(len(value)))
		dst = append(dst, value...)
	case wireVarint:
		dst = append(dst, value...)
	case wireFixed32, wireFixed64:
		dst = append(dst, value...)
	default:
		panic(fmt.Sprintf("chunkenc: appendWireField: unexpected wire type %d", wt))
	}
	return dst
}

// NumRecords returns the total record count.
func (d *TransposedDecoder) NumRecords() int { return len(d.records) }

// Index returns the cursor: the index of the next record ReadRecord will
// return.
func (d *TransposedDecoder) Index() int { return d.index }

// SetIndex repositions the cursor without reading.
func (d *TransposedDecoder) SetIndex(i int) { d.index = i }

// ReadRecord returns the record at the cursor and advances it, or ok=false
// once every record has been delivered.
func (d *TransposedDecoder) ReadRecord() (record []byte, ok bool) {
	if d.index >= len(d.records) {
		return nil, false
	}
	record = d.records[d.index]
	d.index++
	return record, true
}
