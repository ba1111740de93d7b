package riegeli

import (
	"github.com/breakds/riegeli/pkg/riegeli/internal/bytesrc"
	"github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"
)

// ChunkReader parses the container's chunk framing: it turns a byte source
// into a sequence of Chunks, tracking each chunk's begin offset for seeking
// and recovery (spec §4.E).
type ChunkReader struct {
	src bytesrc.Dependency
	opt ReaderOptions

	chunkBegin int64 // begin offset of the most recently returned (or attempted) chunk

	healthy     bool
	recoverable bool
	status      error
}

// NewChunkReader wraps src, a byte source the ChunkReader does (src.IsOwned())
// or does not own.
func NewChunkReader(src bytesrc.Dependency, opt ReaderOptions) *ChunkReader {
	return &ChunkReader{src: src, opt: opt, healthy: true}
}

// Pos returns the underlying source's current byte position.
func (cr *ChunkReader) Pos() int64 { return cr.src.Get().Pos() }

// ChunkBegin returns the begin offset of the most recently read (or
// attempted) chunk.
func (cr *ChunkReader) ChunkBegin() int64 { return cr.chunkBegin }

// Healthy reports whether the last operation succeeded.
func (cr *ChunkReader) Healthy() bool { return cr.healthy }

// Status returns the failure status, or nil if healthy.
func (cr *ChunkReader) Status() error { return cr.status }

// SupportsRandomAccess reports whether Seek is meaningful.
func (cr *ChunkReader) SupportsRandomAccess() bool { return cr.src.Get().SupportsRandomAccess() }

// Size returns the underlying source's length, if known.
func (cr *ChunkReader) Size() (int64, bool) { return cr.src.Get().Size() }

func (cr *ChunkReader) fail(recoverable bool, err error) {
	cr.healthy = false
	cr.recoverable = recoverable
	cr.status = err
}

func (cr *ChunkReader) clearFailure() {
	cr.healthy = true
	cr.recoverable = false
	cr.status = nil
}

// CheckFileFormat probes whether the source begins with a well-formed
// FileSignature chunk header, without consuming any bytes: Pull followed by
// inspecting Fragment (and never calling Advance) leaves the source
// positioned exactly where it started (spec §4.G, "CheckFileFormat").
func (cr *ChunkReader) CheckFileFormat() (bool, error) {
	r := cr.src.Get()
	if !r.Pull(ChunkHeaderSize, 0) {
		if !r.Healthy() {
			return false, r.Status()
		}
		return false, nil
	}
	buf, cursor := r.Fragment()
	header, err := DecodeChunkHeader(buf[cursor : cursor+ChunkHeaderSize])
	if err != nil {
		return false, nil
	}
	return header.Type == ChunkFileSignature, nil
}

// PeekHeader reports the header of the next chunk without consuming any
// bytes, the way CheckFileFormat peeks a FileSignature chunk. ok is false at
// a clean EOF.
func (cr *ChunkReader) PeekHeader() (header ChunkHeader, ok bool, err error) {
	r := cr.src.Get()
	if !r.Pull(ChunkHeaderSize, 0) {
		if !r.Healthy() {
			return ChunkHeader{}, false, r.Status()
		}
		return ChunkHeader{}, false, nil
	}
	buf, cursor := r.Fragment()
	header, err = DecodeChunkHeader(buf[cursor : cursor+ChunkHeaderSize])
	if err != nil {
		return ChunkHeader{}, false, err
	}
	return header, true, nil
}

// Close releases the underlying source if this ChunkReader owns it.
func (cr *ChunkReader) Close() error { return cr.src.Close() }

// ReadChunk reads and returns the next chunk. At a clean EOF (no bytes
// remain before the next chunk would start), it returns (nil, nil) with
// Healthy() still true; a partial header at EOF is a recoverable DataLoss.
func (cr *ChunkReader) ReadChunk() (*Chunk, error) {
	if !cr.healthy {
		return nil, cr.status
	}
	r := cr.src.Get()
	cr.chunkBegin = r.Pos()

	if !r.Pull(ChunkHeaderSize, 0) {
		if !r.Healthy() {
			cr.fail(false, r.Status())
			return nil, cr.status
		}
		if buf, cursor := r.Fragment(); cursor < len(buf) {
			err := rstatus.New(rstatus.DataLoss, "chunk at %d truncated: header has %d of %d bytes", cr.chunkBegin, len(buf)-cursor, ChunkHeaderSize)
			cr.fail(true, err)
			return nil, cr.status
		}
		// Clean EOF: no partial header sitting at this offset.
		return nil, nil
	}

	buf, cursor := r.Fragment()
	header, err := DecodeChunkHeader(buf[cursor : cursor+ChunkHeaderSize])
	if err != nil {
		cr.fail(true, err)
		return nil, cr.status
	}
	r.Advance(ChunkHeaderSize)

	if max := uint64(cr.opt.MaxChunkSize); max != 0 {
		if header.CompressedDataSize > max || header.DecodedDataSize > max {
			err := rstatus.New(rstatus.DataLoss, "chunk at %d declares size %d/%d exceeding MaxChunkSize %d",
				cr.chunkBegin, header.CompressedDataSize, header.DecodedDataSize, max)
			cr.fail(true, err)
			return nil, cr.status
		}
	}

	data := make([]byte, header.CompressedDataSize)
	if !bytesrc.ReadInto(r, data) {
		if !r.Healthy() {
			cr.fail(false, r.Status())
			return nil, cr.status
		}
		err := rstatus.New(rstatus.DataLoss, "chunk at %d truncated: wanted %d bytes of data", cr.chunkBegin, header.CompressedDataSize)
		cr.fail(true, err)
		return nil, cr.status
	}

	if got := dataHash(data); got != header.DataHash {
		err := rstatus.New(rstatus.DataLoss, "chunk at %d data hash mismatch: got %x, want %x", cr.chunkBegin, got, header.DataHash)
		cr.fail(true, err)
		return nil, cr.status
	}

	return &Chunk{Header: header, Data: data}, nil
}

// Seek repositions to the chunk beginning at byte offset pos. pos must be a
// chunk boundary the caller already knows (typically from a previously
// observed ChunkBegin); Seek does not itself validate that a chunk starts
// there until the next ReadChunk.
func (cr *ChunkReader) Seek(pos int64) bool {
	if !cr.src.Get().SupportsRandomAccess() {
		return false
	}
	if !cr.src.Get().Seek(pos) {
		return false
	}
	cr.chunkBegin = pos
	cr.clearFailure()
	return true
}

// SeekToChunkContaining seeks to the chunk boundary at or before pos by
// scanning forward from the start of the file. Production riegeli keeps a
// block index for this; this package does a linear scan, which is correct
// but not fast for large files with many preceding chunks.
func (cr *ChunkReader) SeekToChunkContaining(pos int64) bool {
	if !cr.Seek(0) {
		return false
	}
	lastBegin := int64(0)
	for {
		chunk, err := cr.ReadChunk()
		if err != nil {
			return false
		}
		if chunk == nil {
			return cr.Seek(lastBegin)
		}
		lastBegin = cr.chunkBegin
		if cr.src.Get().Pos() > pos {
			return cr.Seek(lastBegin)
		}
	}
}

// Recover scans forward from the byte position the failed ReadChunk left the
// source at, looking for the next offset where a valid chunk header starts.
// On success it reports the skipped region and clears the failure.
func (cr *ChunkReader) Recover(out *SkippedRegion) bool {
	if cr.healthy || !cr.recoverable {
		return false
	}
	r := cr.src.Get()
	if !r.Healthy() {
		return false
	}

	begin := cr.chunkBegin
	const maxScan = 256 << 20
	for scanned := 0; scanned < maxScan; scanned++ {
		if !r.Pull(ChunkHeaderSize, 0) {
			return false
		}
		buf, cursor := r.Fragment()
		if _, err := DecodeChunkHeader(buf[cursor : cursor+ChunkHeaderSize]); err == nil {
			if out != nil {
				*out = SkippedRegion{Begin: begin, End: r.Pos()}
			}
			cr.chunkBegin = r.Pos()
			cr.clearFailure()
			return true
		}
		r.Advance(1)
	}
	return false
}
