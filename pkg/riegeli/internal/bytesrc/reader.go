// Package bytesrc implements the pull-based byte source contract that the
// rest of the reader pipeline is built on: a reader exposes a current
// fragment of bytes between a cursor and a limit, refilling that fragment on
// demand via Pull, and optionally supporting random access via Seek.
//
// The design mirrors riegeli's Reader/PullableReader split: base fragment
// bookkeeping lives here, and a scratch overflow buffer for short natural
// fragments lives in pullable.go.
package bytesrc

import (
	"io"

	"github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"
)

// Reader is the pull-based byte source contract (spec §4.A). Implementations
// embed base to get fragment bookkeeping and most of the interface for free,
// and implement Pull, Seek and the other source-specific methods themselves.
type Reader interface {
	// Pull ensures the fragment has at least min bytes available after the
	// cursor, installing scratch if the natural fragment is too short.
	// recommended is a performance hint with no semantic effect.
	Pull(min, recommended int) bool

	// Read consumes exactly n bytes into dest, which must have length n.
	// Returns false (without partial consumption reported) on short read.
	Read(dest []byte) bool

	// Skip advances the logical position by n bytes without exposing them.
	Skip(n int64) bool

	// Seek repositions to an absolute stream offset.
	Seek(pos int64) bool

	// Size returns the stream length, if known.
	Size() (int64, bool)

	// SupportsRandomAccess reports whether Seek is meaningful.
	SupportsRandomAccess() bool

	// SupportsSize reports whether Size is meaningful.
	SupportsSize() bool

	// Pos returns the current logical stream position.
	Pos() int64

	// Healthy reports whether the reader has not failed (EOF alone does not
	// make a reader unhealthy).
	Healthy() bool

	// Closed reports whether Close has been called.
	Closed() bool

	// Status returns the failure status, or nil if healthy.
	Status() error

	// Close releases resources. Closing a healthy reader always succeeds;
	// closing a failed reader returns the saved status.
	Close() error

	// Fragment exposes the bytes currently available for zero-copy reads:
	// callers may read buf[cursor:] directly without calling Read.
	Fragment() (buf []byte, cursor int)

	// Advance consumes n bytes that the caller already read from Fragment.
	Advance(n int)
}

// base implements fragment bookkeeping shared by every concrete Reader. A
// concrete adapter embeds base and implements Pull and Seek itself, trying
// the current fragment first (pullFast, or an in-fragment cursor move) and
// falling back to its own slow path (pullNatural, seekSlow) to refill or
// relocate the fragment.
//
// Invariant: pos == startPos + (cursor - start); at EOF no bytes are
// available (cursor == limit).
type base struct {
	buf   []byte // current fragment; buf[start:limit] is valid
	start int
	limit int
	cursor int

	startPos int64 // stream offset of buf[start]

	closed  bool
	status  error // nil while healthy
}

func (b *base) initOpen() {
	b.closed = false
	b.status = nil
}

func (b *base) initClosed() {
	b.closed = true
	b.buf, b.start, b.limit, b.cursor = nil, 0, 0, 0
	b.startPos = 0
}

// setFragment installs a new fragment with the cursor at offset
// cursorOffset bytes into it (0 unless resuming mid-fragment).
func (b *base) setFragment(buf []byte, cursorOffset int) {
	b.buf = buf
	b.start = 0
	b.limit = len(buf)
	b.cursor = cursorOffset
}

func (b *base) available() int { return b.limit - b.cursor }

func (b *base) Pos() int64 {
	return b.startPos + int64(b.cursor-b.start)
}

func (b *base) Healthy() bool { return !b.closed && b.status == nil }

func (b *base) Closed() bool { return b.closed }

func (b *base) Status() error { return b.status }

// fail records a failure status. Once failed, healthy() returns false until
// an explicit Reset (handled by the concrete adapter).
func (b *base) fail(err error) bool {
	if b.status == nil {
		b.status = err
	}
	return false
}

func (b *base) Fragment() (buf []byte, cursor int) { return b.buf, b.cursor }

func (b *base) Advance(n int) {
	if n < 0 || b.cursor+n > b.limit {
		panic("bytesrc: Advance past the current fragment")
	}
	b.cursor += n
}

// pullFast is the fast path shared by every adapter's Pull: it succeeds
// without calling the slow hook when the fragment already has min bytes.
func (b *base) pullFast(min int) (ok, fast bool) {
	if !b.Healthy() {
		return false, true
	}
	if b.available() >= min {
		return true, true
	}
	return false, false
}

// readFromFragment copies up to len(dest) bytes from the current fragment,
// advancing the cursor. It returns the number of bytes copied.
func (b *base) readFromFragment(dest []byte) int {
	n := copy(dest, b.buf[b.cursor:b.limit])
	b.cursor += n
	return n
}

// ensureHealthyForRead is a tiny helper so adapters can write
//
//	if !ensureHealthyForRead(r) { return false }
func ensureHealthyForRead(r Reader) bool { return r.Healthy() }

var _ = ensureHealthyForRead // silence unused warnings for adapters that don't need it yet

// readAll reads n bytes from r into dest using Pull+Fragment+Advance, falling
// back to repeated Pulls when a single fragment can't satisfy the request
// (each Pull asks for only one byte, so no scratch is needed here).
func readAll(r Reader, dest []byte) bool {
	remaining := dest
	for len(remaining) > 0 {
		if !r.Pull(1, len(remaining)) {
			return false
		}
		buf, cursor := r.Fragment()
		n := copy(remaining, buf[cursor:])
		r.Advance(n)
		remaining = remaining[n:]
	}
	return true
}

// ReadInto is the exported helper backing every adapter's Read method.
func ReadInto(r Reader, dest []byte) bool { return readAll(r, dest) }

// CopyTo drains exactly n bytes from r into w, the way riegeli's CopyTo does,
// without requiring the whole span to fit in one fragment.
func CopyTo(r Reader, w io.Writer, n int64) bool {
	for n > 0 {
		want := n
		if want > 1<<20 {
			want = 1 << 20
		}
		if !r.Pull(1, int(want)) {
			return false
		}
		buf, cursor := r.Fragment()
		avail := int64(len(buf) - cursor)
		if avail > n {
			avail = n
		}
		if avail == 0 {
			return false
		}
		if _, err := w.Write(buf[cursor : cursor+int(avail)]); err != nil {
			return false
		}
		r.Advance(int(avail))
		n -= avail
	}
	return true
}

// failf is a convenience for adapters to record a status of the given kind
// and return false in one expression.
func failf(b *base, kind rstatus.Kind, format string, args ...any) bool {
	return b.fail(rstatus.New(kind, format, args...))
}
