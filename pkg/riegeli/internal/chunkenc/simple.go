package chunkenc

import (
	"github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"
	"github.com/breakds/riegeli/pkg/riegeli/internal/varint"
)

// SimpleDecoder expands a Simple chunk's data section into an indexable
// sequence of records (spec §4.F, "Simple chunks"). The data section is
// laid out as:
//
//	[compression_type: byte][compressed-block]
//
// and the decompressed block is:
//
//	[varint table_size][varint-zigzag-delta record sizes][concatenated records]
type SimpleDecoder struct {
	records [][]byte
	index   int
}

// DecodeSimple parses data (a Simple chunk's raw data section) into numRecords
// records.
func DecodeSimple(data []byte, numRecords int) (*SimpleDecoder, error) {
	if len(data) < 1 {
		return nil, rstatus.New(rstatus.DataLoss, "simple chunk data too short for compression tag")
	}
	decompressed, err := Decompress(data[1:], CompressionType(data[0]))
	if err != nil {
		return nil, err
	}

	tableSize, off, ok := varint.ReadFromBytes(decompressed)
	if !ok {
		return nil, rstatus.New(rstatus.DataLoss, "reading simple chunk size table length failed")
	}
	tableEnd := off + int(tableSize)
	if tableEnd < off || tableEnd > len(decompressed) {
		return nil, rstatus.New(rstatus.DataLoss, "simple chunk size table length %d exceeds chunk data", tableSize)
	}

	sizes := make([]int, numRecords)
	prev := int64(0)
	pos := off
	for i := 0; i < numRecords; i++ {
		deltaRaw, n, ok := varint.ReadFromBytes(decompressed[pos:tableEnd])
		if !ok {
			return nil, rstatus.New(rstatus.DataLoss, "reading simple chunk record size %d failed", i)
		}
		pos += n
		size := prev + varint.DecodeZigZag(deltaRaw)
		if size < 0 {
			return nil, rstatus.New(rstatus.DataLoss, "simple chunk record size %d is negative", i)
		}
		sizes[i] = int(size)
		prev = size
	}
	if pos != tableEnd {
		return nil, rstatus.New(rstatus.DataLoss, "simple chunk size table has %d trailing bytes", tableEnd-pos)
	}

	payload := decompressed[tableEnd:]
	records := make([][]byte, numRecords)
	limit := 0
	for i, size := range sizes {
		next := limit + size
		if next > len(payload) {
			return nil, rstatus.New(rstatus.DataLoss, "simple chunk record %d exceeds payload size", i)
		}
		records[i] = payload[limit:next]
		limit = next
	}

	return &SimpleDecoder{records: records}, nil
}

// NumRecords returns the total record count.
func (d *SimpleDecoder) NumRecords() int { return len(d.records) }

// Index returns the cursor: the index of the next record ReadRecord will
// return.
func (d *SimpleDecoder) Index() int { return d.index }

// SetIndex repositions the cursor without reading.
func (d *SimpleDecoder) SetIndex(i int) { d.index = i }

// ReadRecord returns the record at the cursor and advances it, or ok=false
// once every record has been delivered.
func (d *SimpleDecoder) ReadRecord() (record []byte, ok bool) {
	if d.index >= len(d.records) {
		return nil, false
	}
	record = d.records[d.index]
	d.index++
	return record, true
}
