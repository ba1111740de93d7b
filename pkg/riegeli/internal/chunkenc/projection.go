package chunkenc

import "strings"

// FieldProjection restricts which fields a transposed chunk materializes
// (spec §4.F, "field projection"). A projection is either "match any" (the
// default reading path) or a set of dotted field paths, each component
// either a literal field number or "*" matching any single component at
// that depth.
type FieldProjection struct {
	allowAll bool
	paths    []string
}

// AllFields returns the projection that materializes every field.
func AllFields() FieldProjection { return FieldProjection{allowAll: true} }

// NoFields returns the projection that materializes nothing; useful for
// counting records without paying for field reconstruction.
func NoFields() FieldProjection { return FieldProjection{} }

// NewFieldProjection returns a projection restricted to the given dotted
// paths.
func NewFieldProjection(paths ...string) FieldProjection {
	return FieldProjection{paths: paths}
}

// Includes reports whether path (a dotted field path, e.g. "3" or "3.1") is
// materialized under this projection.
func (p FieldProjection) Includes(path string) bool {
	if p.allowAll {
		return true
	}
	for _, candidate := range p.paths {
		if pathMatches(candidate, path) {
			return true
		}
	}
	return false
}

func pathMatches(pattern, path string) bool {
	pc := strings.Split(pattern, ".")
	ac := strings.Split(path, ".")
	if len(pc) != len(ac) {
		return false
	}
	for i, c := range pc {
		if c != "*" && c != ac[i] {
			return false
		}
	}
	return true
}
