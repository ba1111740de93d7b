package bytesrc

import "github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"

// CordChunks is the narrow iterator a CordReader pulls from: each call
// returns the next fragment in the cord, or ok==false once exhausted.
// Unlike ChainReader's pre-built block list, a CordReader's fragments are
// produced lazily and forgotten once consumed, the way absl::Cord's chunk
// iterator works.
type CordChunks func() (chunk []byte, ok bool)

// CordReader reads a sequence of fragments produced on demand by a
// CordChunks iterator (spec §4.C, "Cord reader"). It never supports random
// access or Size, since the iterator can't be rewound or measured in
// advance; it exists for sources where buffering everything up front
// (ChainReader) is undesirable.
type CordReader struct {
	pullableReader

	next CordChunks
	eof  bool
}

var _ Reader = (*CordReader)(nil)

// NewCordReader builds a CordReader pulling fragments from next.
func NewCordReader(next CordChunks) *CordReader {
	r := &CordReader{next: next}
	r.initOpen()
	r.advanceChunk()
	return r
}

// advanceChunk pulls the next non-empty chunk from the iterator, setting eof
// once it's exhausted. Mirrors CordReaderBase::MakeBuffer skipping empty
// chunks.
func (r *CordReader) advanceChunk() bool {
	for {
		chunk, ok := r.next()
		if !ok {
			r.eof = true
			r.setFragment(nil, 0)
			return false
		}
		if len(chunk) == 0 {
			continue
		}
		r.startPos = r.Pos()
		r.setFragment(chunk, 0)
		return true
	}
}

func (r *CordReader) pullNatural(min, recommended int) bool {
	if r.available() > 0 {
		return true
	}
	if r.eof {
		return false
	}
	return r.advanceChunk()
}

func (r *CordReader) Pull(min, recommended int) bool {
	return r.pullWithScratch(min, recommended, r.pullNatural)
}

func (r *CordReader) Read(dest []byte) bool { return ReadInto(r, dest) }

func (r *CordReader) Skip(n int64) bool {
	if n < 0 {
		return failf(&r.base, rstatus.InvalidArgument, "Skip: negative length %d", n)
	}
	remaining := n
	for remaining > 0 {
		if !r.Pull(1, int(remaining)) {
			return false
		}
		avail := int64(r.available())
		if avail > remaining {
			avail = remaining
		}
		r.Advance(int(avail))
		remaining -= avail
	}
	return true
}

// Seek only supports staying in place or moving forward: a cord iterator
// can't be rewound.
func (r *CordReader) Seek(pos int64) bool {
	cur := r.Pos()
	if pos < cur {
		return failf(&r.base, rstatus.InvalidArgument, "Seek: CordReader cannot seek backward (at %d, want %d)", cur, pos)
	}
	return r.Skip(pos - cur)
}

func (r *CordReader) Size() (int64, bool)       { return 0, false }
func (r *CordReader) SupportsRandomAccess() bool { return false }
func (r *CordReader) SupportsSize() bool         { return false }

func (r *CordReader) Close() error {
	r.releaseScratch()
	r.closed = true
	return r.status
}
