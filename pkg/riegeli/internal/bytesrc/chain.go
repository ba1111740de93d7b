package bytesrc

import "github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"

// ChainReader reads a rope of disjoint byte blocks as one contiguous stream
// (spec §4.C, "Chain reader"). Each Pull across a block boundary needs
// scratch, since the blocks are not contiguous in memory; within a block,
// reads are zero-copy straight out of the block slice.
type ChainReader struct {
	pullableReader

	blocks []chainBlock
	index  int // index of the block containing the current natural fragment
}

type chainBlock struct {
	data     []byte
	startPos int64 // stream offset of data[0]
}

var _ Reader = (*ChainReader)(nil)

// NewChainReader builds a ChainReader over blocks, read in order. Empty
// blocks are skipped; they would otherwise appear as spurious zero-length
// fragments.
func NewChainReader(blocks [][]byte) *ChainReader {
	r := &ChainReader{}
	r.initOpen()

	var pos int64
	r.blocks = make([]chainBlock, 0, len(blocks))
	for _, b := range blocks {
		if len(b) == 0 {
			continue
		}
		r.blocks = append(r.blocks, chainBlock{data: b, startPos: pos})
		pos += int64(len(b))
	}
	if len(r.blocks) > 0 {
		r.startPos = r.blocks[0].startPos
		r.setFragment(r.blocks[0].data, 0)
	}
	return r
}

func (r *ChainReader) totalSize() int64 {
	if len(r.blocks) == 0 {
		return 0
	}
	last := r.blocks[len(r.blocks)-1]
	return last.startPos + int64(len(last.data))
}

// pullNatural advances to the next block if the current one is exhausted. It
// never installs scratch itself; pullWithScratch does that when this isn't
// enough.
func (r *ChainReader) pullNatural(min, recommended int) bool {
	if r.available() > 0 {
		return true
	}
	if r.index+1 >= len(r.blocks) {
		return false
	}
	r.index++
	b := r.blocks[r.index]
	r.startPos = b.startPos
	r.setFragment(b.data, 0)
	return true
}

func (r *ChainReader) Pull(min, recommended int) bool {
	return r.pullWithScratch(min, recommended, r.pullNatural)
}

func (r *ChainReader) Read(dest []byte) bool { return ReadInto(r, dest) }

func (r *ChainReader) Skip(n int64) bool {
	if n < 0 {
		return failf(&r.base, rstatus.InvalidArgument, "Skip: negative length %d", n)
	}
	return r.Seek(r.Pos() + n)
}

func (r *ChainReader) Seek(pos int64) bool {
	if pos < 0 {
		return failf(&r.base, rstatus.InvalidArgument, "Seek: negative position %d", pos)
	}
	if !r.scratchActive() && pos >= r.startPos && pos <= r.startPos+int64(r.limit-r.start) {
		r.cursor = r.start + int(pos-r.startPos)
		return true
	}
	return r.seekSlow(pos)
}

func (r *ChainReader) seekSlow(pos int64) bool {
	if !r.Healthy() {
		return false
	}
	// A real seek invalidates any scratch content outright; there is nothing
	// to resume behind it, unlike BehindScratch's position-preserving use.
	r.releaseScratch()

	if pos > r.totalSize() {
		if len(r.blocks) > 0 {
			last := r.blocks[len(r.blocks)-1]
			r.index = len(r.blocks) - 1
			r.startPos = last.startPos
			r.setFragment(last.data, len(last.data))
		}
		return false
	}

	// Binary search would be the production choice for many blocks; a linear
	// scan keeps this readable and the expected block counts are small.
	for i, b := range r.blocks {
		end := b.startPos + int64(len(b.data))
		if pos < end || (pos == end && i == len(r.blocks)-1) {
			r.index = i
			r.startPos = b.startPos
			r.setFragment(b.data, int(pos-b.startPos))
			return true
		}
	}
	// pos == totalSize() with zero blocks.
	r.setFragment(nil, 0)
	return true
}

func (r *ChainReader) Size() (int64, bool) {
	if !r.Healthy() {
		return 0, false
	}
	return r.totalSize(), true
}

func (r *ChainReader) SupportsRandomAccess() bool { return true }
func (r *ChainReader) SupportsSize() bool         { return true }

func (r *ChainReader) Close() error {
	r.releaseScratch()
	r.closed = true
	return r.status
}
