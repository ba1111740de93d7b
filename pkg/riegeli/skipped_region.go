package riegeli

import "fmt"

// SkippedRegion is the byte range Recover jumped over to resynchronize on
// the next valid chunk boundary (spec §4.E/§4.G).
type SkippedRegion struct {
	Begin int64
	End   int64
}

func (s SkippedRegion) String() string {
	return fmt.Sprintf("[%d, %d)", s.Begin, s.End)
}

// Len returns the number of bytes skipped.
func (s SkippedRegion) Len() int64 { return s.End - s.Begin }
