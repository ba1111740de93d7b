package bytesrc

import "github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"

// SliceReader wraps a contiguous immutable byte range (spec §4.C, "String/Bytes
// reader"). The fragment is the whole range; since the whole source is
// naturally available, SliceReader never needs scratch, and its PullSlow only
// ever needs to deal with the EOF case. Unlike bytes.NewReader, SliceReader
// does not take ownership of buf.
type SliceReader struct {
	base
	src []byte
}

var _ Reader = (*SliceReader)(nil)

// NewSliceReader creates a SliceReader over src. src must not be modified
// while the reader is in use.
func NewSliceReader(src []byte) *SliceReader {
	r := &SliceReader{src: src}
	r.initOpen()
	r.setFragment(src, 0)
	return r
}

// Reset rebinds the reader to src, as if newly constructed.
func (r *SliceReader) Reset(src []byte) {
	r.src = src
	r.initOpen()
	r.setFragment(src, 0)
}

func (r *SliceReader) Pull(min, recommended int) bool {
	if ok, fast := r.pullFast(min); fast {
		return ok
	}
	// Only the EOF case is possible: the whole slice is already the
	// fragment, so a request for more than what's left can never succeed.
	return false
}

func (r *SliceReader) Read(dest []byte) bool { return ReadInto(r, dest) }

func (r *SliceReader) Skip(n int64) bool {
	if n < 0 {
		return failf(&r.base, rstatus.InvalidArgument, "Skip: negative length %d", n)
	}
	if int64(r.available()) < n {
		r.cursor = r.limit
		return false
	}
	r.cursor += int(n)
	return true
}

func (r *SliceReader) Seek(pos int64) bool {
	if pos < 0 {
		return failf(&r.base, rstatus.InvalidArgument, "Seek: negative position %d", pos)
	}
	if pos >= r.startPos && pos <= r.startPos+int64(r.limit-r.start) {
		r.cursor = r.start + int(pos-r.startPos)
		return true
	}
	return r.seekSlow(pos)
}

// seekSlow only handles forward-past-end: any other target is unreachable
// because the whole slice is always the current fragment.
func (r *SliceReader) seekSlow(pos int64) bool {
	if !r.Healthy() {
		return false
	}
	if pos > int64(len(r.src)) {
		r.cursor = r.limit
		return false
	}
	// pos must be within [start, limit) relative to startPos==0; reaching
	// here for an in-range pos would mean the fast path above had a bug.
	panic("bytesrc: SliceReader.seekSlow called for an in-fragment target")
}

func (r *SliceReader) Size() (int64, bool) {
	if !r.Healthy() {
		return 0, false
	}
	return int64(len(r.src)), true
}

func (r *SliceReader) SupportsRandomAccess() bool { return true }
func (r *SliceReader) SupportsSize() bool         { return true }

func (r *SliceReader) Close() error {
	r.closed = true
	return r.status
}
