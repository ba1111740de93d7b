package riegeli

import "github.com/grafana/dskit/flagext"

// ReaderOptions configures a RecordReader.
type ReaderOptions struct {
	// MaxChunkSize bounds a chunk's declared DecodedDataSize and
	// CompressedDataSize. A corrupted header can claim an arbitrarily large
	// size; without a cap, acting on it (allocating a buffer, say) turns a
	// single bad header into an out-of-memory failure. Chunks claiming more
	// than MaxChunkSize are treated as corrupt (DataLoss, recoverable via
	// ChunkReader.Recover) rather than attempted.
	//
	// Zero means unbounded.
	MaxChunkSize flagext.Bytes

	// AutoRecover, when true, makes ReadRecord transparently call Recover on
	// a recoverable failure and retry once instead of returning false. The
	// skipped region is discarded; callers that need to observe it should
	// leave this false and call Recover themselves.
	AutoRecover bool
}

// DefaultReaderOptions returns the options a bare RecordReader is
// constructed with: no size cap, no automatic recovery.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{}
}
