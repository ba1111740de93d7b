// Package riegeli implements the reader half of the riegeli record
// container format: a chunked, optionally compressed, optionally
// column-transposed sequence of records with chunk-granularity random
// access and skip-and-recover corruption handling.
//
// The stack is layered the way the format itself is layered:
//
//   - internal/bytesrc supplies the pull-based byte source contract that
//     every other layer reads through.
//   - internal/chunkenc decodes a chunk's data section, whether laid out as
//     a flat record-size table (Simple) or demultiplexed into per-field
//     byte streams (Transposed).
//   - ChunkReader parses the container's chunk framing.
//   - RecordReader drives the whole pipeline: it turns chunks into records,
//     bootstraps file-level metadata, and recovers from corruption.
package riegeli
