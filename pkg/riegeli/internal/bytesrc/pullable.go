package bytesrc

import "sync"

// scratchPool recycles the overflow buffers PullableReader installs when an
// adapter's natural fragment is shorter than a caller's minimum pull length.
// Mirrors the teacher's varintPool: a sync.Pool of reusable byte slices keyed
// by nothing more than "give me a slice, I'll grow it myself".
var scratchPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 4096)
		return &buf
	},
}

// pullableReader augments base with a scratch buffer, used when a caller's
// Pull(min, ...) demands more contiguous bytes than the underlying source's
// natural fragment currently offers. While scratch is active, base's fragment
// points into the scratch slice instead of the underlying source, and the
// pre-scratch fragment is saved so SyncScratch can restore it once the
// caller's cursor has moved past the copied-in bytes.
type pullableReader struct {
	base

	scratch *[]byte // non-nil while scratch is active

	// Saved underlying fragment state, valid only while scratch is active.
	savedBuf      []byte
	savedStart    int
	savedLimit    int
	savedCursor   int
	savedStartPos int64
}

func (p *pullableReader) scratchActive() bool { return p.scratch != nil }

// pullSlowFn is implemented by the concrete adapter: it tries to refill the
// natural (non-scratch) fragment and reports whether at least one more byte
// became available (it may still be shorter than min).
type pullSlowFn func(min, recommended int) bool

// pullWithScratch is the shared PullSlow driver: it first asks the adapter to
// grow its natural fragment, and if that's still not enough, copies bytes
// into a scratch buffer sized to at least min.
func (p *pullableReader) pullWithScratch(min, recommended int, pullNatural pullSlowFn) bool {
	if ok, fast := p.pullFast(min); fast {
		return ok
	}
	if p.scratchActive() {
		if !p.syncScratchLocked() {
			return false
		}
		if p.available() >= min {
			return true
		}
	}

	// Try the natural fragment first: when the current one is exhausted, the
	// adapter replaces it with its next fragment, which may be long enough.
	for p.available() < min {
		before := p.available()
		if !pullNatural(min, recommended) {
			break
		}
		if p.available() <= before {
			break
		}
	}
	if p.available() >= min {
		return true
	}
	if !p.Healthy() {
		return false
	}

	// Not enough in one natural fragment: install scratch and accumulate.
	return p.fillScratch(min, recommended, pullNatural)
}

func (p *pullableReader) fillScratch(min, recommended int, pullNatural pullSlowFn) bool {
	size := min
	if recommended > size {
		size = recommended
	}

	bufPtr := scratchPool.Get().(*[]byte)
	buf := (*bufPtr)[:0]
	if cap(buf) < size {
		buf = make([]byte, 0, size)
	}

	// Accumulate bytes by repeatedly asking the adapter to refill its
	// natural fragment and draining it into buf, entirely behind the
	// caller's back: p still looks like an ordinary (non-scratch) reader to
	// pullNatural at every step.
	startPos := p.startPos + int64(p.cursor-p.start)
	for len(buf) < min {
		buf = append(buf, p.buf[p.cursor:p.limit]...)
		p.cursor = p.limit
		if len(buf) >= min {
			break
		}
		if !pullNatural(1, recommended) {
			break
		}
	}

	// Save the underlying fragment as it stands now (fully drained into buf,
	// or wherever the last failed pull left it) so SyncScratch can restore
	// it once the caller finishes consuming scratch.
	p.savedBuf, p.savedStart, p.savedLimit, p.savedCursor = p.buf, p.start, p.limit, p.cursor
	p.savedStartPos = p.startPos

	*bufPtr = buf
	p.scratch = bufPtr
	p.startPos = startPos
	p.setFragment(buf, 0)
	if len(buf) < min {
		return false
	}
	return true
}

// syncScratchLocked flushes the consumed portion of the scratch buffer and,
// if the cursor has reached its end, releases scratch and restores the saved
// underlying fragment advanced by the number of scratch bytes consumed.
func (p *pullableReader) syncScratchLocked() bool {
	if !p.scratchActive() {
		return true
	}
	consumed := p.cursor
	total := len(*p.scratch)
	if consumed < total {
		// Caller hasn't finished the scratch buffer yet; nothing to sync.
		return true
	}

	scratchPool.Put(p.scratch)
	p.scratch = nil

	p.buf, p.start, p.limit, p.cursor = p.savedBuf, p.savedStart, p.savedLimit, p.savedCursor
	p.startPos = p.savedStartPos
	// Advance the restored fragment by however much of it had already been
	// folded into scratch (savedCursor..savedLimit was copied in full).
	p.startPos += int64(p.limit - p.start)
	p.start = p.limit
	p.cursor = p.limit
	p.savedBuf = nil
	return true
}

// BehindScratch temporarily exits the scratch state so code that needs to
// see or manipulate the raw underlying fragment (SeekSlow, move-construction)
// can do so, then restores scratch on Leave. Use via defer:
//
//	bs := pr.EnterBehindScratch()
//	defer bs.Leave()
type BehindScratch struct {
	p             *pullableReader
	wasActive     bool
	writtenCursor int
	savedScratch  *[]byte
}

// EnterBehindScratch exits scratch if active, returning a scope that must be
// Left to restore it. While entered, scratchActive reports false and the
// fragment is the real underlying one, so SeekSlow and move-construction can
// inspect or relocate it without scratch bookkeeping getting in the way.
func (p *pullableReader) EnterBehindScratch() *BehindScratch {
	bs := &BehindScratch{p: p, wasActive: p.scratchActive()}
	if bs.wasActive {
		bs.writtenCursor = p.cursor
		bs.savedScratch = p.scratch
		p.scratch = nil
		p.buf, p.start, p.limit, p.cursor = p.savedBuf, p.savedStart, p.savedLimit, p.savedCursor
		p.startPos = p.savedStartPos
	}
	return bs
}

// Leave restores scratch if it was active when Enter was called.
func (bs *BehindScratch) Leave() {
	if !bs.wasActive {
		return
	}
	p := bs.p
	p.savedBuf, p.savedStart, p.savedLimit, p.savedCursor = p.buf, p.start, p.limit, p.cursor
	p.savedStartPos = p.startPos
	p.scratch = bs.savedScratch
	buf := *p.scratch
	p.setFragment(buf, bs.writtenCursor)
}

func (p *pullableReader) releaseScratch() {
	if p.scratchActive() {
		scratchPool.Put(p.scratch)
		p.scratch = nil
	}
	p.savedBuf = nil
}
