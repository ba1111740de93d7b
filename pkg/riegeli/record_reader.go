package riegeli

import (
	"github.com/gogo/protobuf/proto"

	"github.com/breakds/riegeli/pkg/riegeli/internal/bytesrc"
	"github.com/breakds/riegeli/pkg/riegeli/internal/chunkenc"
	"github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"
)

// recoverable classifies why a RecordReader is unhealthy, mirroring
// RecordReaderBase's three-way Recoverable enum (spec §4.G).
type recoverable int

const (
	recoverableNo recoverable = iota
	recoverableChunkReader
	recoverableChunkDecoder
)

// recordDecoder is implemented by both chunk data layouts (spec §4.F);
// RecordReader doesn't care which one backs the current chunk.
type recordDecoder interface {
	NumRecords() int
	Index() int
	SetIndex(int)
	ReadRecord() ([]byte, bool)
}

// RecordReader turns a byte source into an ordered sequence of records,
// bootstrapping optional metadata and recovering from corruption at chunk or
// record granularity (spec §4.G).
type RecordReader struct {
	cr  *ChunkReader
	opt ReaderOptions

	projection chunkenc.FieldProjection

	closed      bool
	healthy     bool
	recoverable recoverable
	status      error

	chunkBegin int64
	decoder    recordDecoder

	// decoderIndexBefore records the decoder index at the moment a
	// recoverable decoder-level failure occurred, so Recover can compute the
	// skipped region [chunkBegin+decoderIndexBefore, pos()).
	decoderIndexBefore int

	everRead bool
	lastPos  RecordPosition
}

// NewRecordReader constructs a RecordReader over src with the given
// options, materializing every field of transposed chunks.
func NewRecordReader(src bytesrc.Dependency, opt ReaderOptions) *RecordReader {
	return &RecordReader{
		cr:         NewChunkReader(src, opt),
		opt:        opt,
		projection: chunkenc.AllFields(),
		healthy:    true,
	}
}

// SetFieldProjection restricts which fields subsequent transposed chunks
// materialize. It has no effect on a chunk already being read.
func (rr *RecordReader) SetFieldProjection(p chunkenc.FieldProjection) { rr.projection = p }

// Healthy reports whether the reader has not failed.
func (rr *RecordReader) Healthy() bool { return rr.healthy }

// Status returns the failure status, or nil if healthy.
func (rr *RecordReader) Status() error { return rr.status }

// Pos returns the position ReadRecord would return next. Once the current
// chunk is exhausted (or none is loaded), that is the byte position of the
// next chunk with RecordIndex 0.
func (rr *RecordReader) Pos() RecordPosition {
	if rr.decoder != nil && rr.decoder.Index() < rr.decoder.NumRecords() {
		return RecordPosition{ChunkBegin: rr.chunkBegin, RecordIndex: rr.decoder.Index()}
	}
	return RecordPosition{ChunkBegin: rr.cr.Pos()}
}

// LastPos returns the position of the last successfully read record.
func (rr *RecordReader) LastPos() RecordPosition { return rr.lastPos }

func (rr *RecordReader) fail(kind recoverable, err error) {
	rr.healthy = false
	rr.recoverable = kind
	rr.status = err
}

func (rr *RecordReader) clearFailure() {
	rr.healthy = true
	rr.recoverable = recoverableNo
	rr.status = nil
}

// CheckFileFormat probes whether the source looks like a well-framed file,
// advancing only the framing reader, never the decoder.
func (rr *RecordReader) CheckFileFormat() (bool, error) { return rr.cr.CheckFileFormat() }

// advanceChunk fetches chunks from the ChunkReader, skipping framing-only
// chunk types, until it finds a record-bearing chunk (installing its
// decoder), hits a clean EOF, or hits a failure.
func (rr *RecordReader) advanceChunk() bool {
	for {
		chunk, err := rr.cr.ReadChunk()
		if err != nil {
			rr.fail(recoverableChunkReader, err)
			return false
		}
		if chunk == nil {
			rr.decoder = nil
			return false
		}
		rr.chunkBegin = rr.cr.ChunkBegin()

		switch chunk.Header.Type {
		case ChunkSimple:
			dec, err := chunkenc.DecodeSimple(chunk.Data, int(chunk.Header.NumRecords))
			if err != nil {
				rr.decoder = nil
				rr.decoderIndexBefore = 0
				rr.fail(recoverableChunkDecoder, err)
				return false
			}
			rr.decoder = dec
			return true

		case ChunkTransposed:
			dec, err := chunkenc.DecodeTransposed(chunk.Data, int(chunk.Header.NumRecords), rr.projection)
			if err != nil {
				rr.decoder = nil
				rr.decoderIndexBefore = 0
				rr.fail(recoverableChunkDecoder, err)
				return false
			}
			rr.decoder = dec
			return true

		default:
			// FileSignature, FileMetadata, Padding, and any forward-compatible
			// unknown type carry no records; keep scanning.
			continue
		}
	}
}

// ReadRecord returns the next record's raw bytes. At EOF it returns false
// with Healthy() still true.
func (rr *RecordReader) ReadRecord() ([]byte, bool) {
	for {
		if !rr.healthy {
			return nil, false
		}
		if rr.decoder != nil && rr.decoder.Index() < rr.decoder.NumRecords() {
			idx := rr.decoder.Index()
			rec, ok := rr.decoder.ReadRecord()
			if ok {
				rr.lastPos = RecordPosition{ChunkBegin: rr.chunkBegin, RecordIndex: idx}
				rr.everRead = true
				return rec, true
			}
		}
		if rr.advanceChunk() {
			continue
		}
		if rr.healthy {
			return nil, false // clean EOF
		}
		if rr.opt.AutoRecover && rr.Recover(nil) {
			continue
		}
		return nil, false
	}
}

// ReadRecordProto reads the next record and parses it into msg. A parse
// failure does not invalidate the whole chunk: it leaves the reader
// recoverably failed with the decoder already positioned past the bad
// record (spec §4.F).
func (rr *RecordReader) ReadRecordProto(msg proto.Message) bool {
	rec, ok := rr.ReadRecord()
	if !ok {
		return false
	}
	if err := proto.Unmarshal(rec, msg); err != nil {
		rr.decoderIndexBefore = rr.lastPos.RecordIndex
		rr.fail(recoverableChunkDecoder, rstatus.Wrap(rstatus.DataLoss, err, "parsing record as message"))
		return false
	}
	return true
}

// ReadMetadata reads the file's RecordsMetadata, valid only at stream start
// (spec §4.G). If the chunk after the signature isn't FileMetadata, it
// returns an empty metadata without consuming that chunk.
func (rr *RecordReader) ReadMetadata() (RecordsMetadata, bool) {
	if rr.everRead {
		rr.fail(recoverableNo, rstatus.New(rstatus.InvalidArgument, "ReadMetadata called after ReadRecord"))
		return RecordsMetadata{}, false
	}
	if rr.cr.Pos() != 0 {
		rr.fail(recoverableNo, rstatus.New(rstatus.InvalidArgument, "ReadMetadata called mid-stream at position %d", rr.cr.Pos()))
		return RecordsMetadata{}, false
	}

	sig, err := rr.cr.ReadChunk()
	if err != nil {
		rr.fail(recoverableChunkReader, err)
		return RecordsMetadata{}, false
	}
	if sig == nil {
		return RecordsMetadata{}, true
	}

	header, ok, err := rr.cr.PeekHeader()
	if err != nil {
		rr.fail(recoverableChunkReader, err)
		return RecordsMetadata{}, false
	}
	if !ok || header.Type != ChunkFileMetadata {
		return RecordsMetadata{}, true
	}

	metaChunk, err := rr.cr.ReadChunk()
	if err != nil {
		rr.fail(recoverableChunkReader, err)
		return RecordsMetadata{}, false
	}

	dec, err := chunkenc.DecodeTransposed(metaChunk.Data, int(metaChunk.Header.NumRecords), chunkenc.AllFields())
	if err != nil {
		rr.fail(recoverableChunkDecoder, err)
		return RecordsMetadata{}, false
	}
	if dec.NumRecords() != 1 {
		rr.fail(recoverableNo, rstatus.New(rstatus.Internal, "metadata chunk has %d records, want 1", dec.NumRecords()))
		return RecordsMetadata{}, false
	}
	rec, _ := dec.ReadRecord()

	meta, err := parseRecordsMetadata(rec)
	if err != nil {
		rr.fail(recoverableChunkDecoder, err)
		return RecordsMetadata{}, false
	}
	return meta, true
}

// SeekToRecord repositions to pos, avoiding a chunk re-read when pos lies
// within the currently loaded chunk. Seeking to a chunk boundary with
// RecordIndex == 0 does not read the chunk, since that chunk may not exist
// (EOF).
func (rr *RecordReader) SeekToRecord(pos RecordPosition) bool {
	if pos.ChunkBegin < 0 || pos.RecordIndex < 0 {
		rr.fail(recoverableNo, rstatus.New(rstatus.InvalidArgument, "SeekToRecord: negative position %+v", pos))
		return false
	}
	if rr.decoder != nil && pos.ChunkBegin == rr.chunkBegin && pos.RecordIndex <= rr.decoder.NumRecords() {
		rr.decoder.SetIndex(pos.RecordIndex)
		rr.clearFailure()
		return true
	}
	if !rr.cr.Seek(pos.ChunkBegin) {
		return false
	}
	rr.chunkBegin = pos.ChunkBegin
	rr.clearFailure()

	if pos.RecordIndex == 0 {
		rr.decoder = nil
		return true
	}
	if !rr.advanceChunk() {
		return false
	}
	if pos.RecordIndex > rr.decoder.NumRecords() {
		rr.fail(recoverableNo, rstatus.New(rstatus.InvalidArgument, "SeekToRecord: record index %d exceeds chunk size %d", pos.RecordIndex, rr.decoder.NumRecords()))
		return false
	}
	rr.decoder.SetIndex(pos.RecordIndex)
	return true
}

// Seek repositions by the linearized Position described in
// RecordPosition.Numeric's doc comment.
func (rr *RecordReader) Seek(pos int64) bool {
	if pos < 0 {
		rr.fail(recoverableNo, rstatus.New(rstatus.InvalidArgument, "Seek: negative position %d", pos))
		return false
	}
	if rr.decoder != nil && pos >= rr.chunkBegin && pos < rr.chunkBegin+int64(rr.decoder.NumRecords()) {
		rr.decoder.SetIndex(int(pos - rr.chunkBegin))
		rr.clearFailure()
		return true
	}
	if !rr.cr.Seek(0) {
		return false
	}
	rr.decoder = nil
	rr.clearFailure()

	for {
		if !rr.advanceChunk() {
			return false
		}
		if pos >= rr.chunkBegin && pos < rr.chunkBegin+int64(rr.decoder.NumRecords()) {
			rr.decoder.SetIndex(int(pos - rr.chunkBegin))
			return true
		}
		if pos < rr.chunkBegin {
			rr.fail(recoverableNo, rstatus.New(rstatus.InvalidArgument, "Seek: position %d does not address any record", pos))
			return false
		}
	}
}

// Recover consults the recoverable flag and, if set, resynchronizes the
// reader and clears the failure (spec §4.G).
func (rr *RecordReader) Recover(out *SkippedRegion) bool {
	if rr.healthy {
		return false
	}
	switch rr.recoverable {
	case recoverableChunkReader:
		if !rr.cr.Recover(out) {
			return false
		}
		rr.decoder = nil
		rr.clearFailure()
		return true

	case recoverableChunkDecoder:
		end := rr.cr.Pos()
		if out != nil {
			*out = SkippedRegion{Begin: rr.chunkBegin + int64(rr.decoderIndexBefore), End: end}
		}
		rr.clearFailure()
		return true

	default:
		return false
	}
}

// Close releases the underlying source if the reader owns it. Close on a
// healthy reader always succeeds; Close on a failed reader returns the
// saved status.
func (rr *RecordReader) Close() error {
	if rr.closed {
		return rr.status
	}
	rr.closed = true
	closeErr := rr.cr.Close()
	if !rr.healthy {
		return rr.status
	}
	return closeErr
}
