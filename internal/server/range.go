package server

import (
	"strconv"
	"strings"
)

// rangeDecision is the outcome of negotiating a Range header against an
// object size.
type rangeDecision int

const (
	rangeFull rangeDecision = iota
	rangePartial
	rangeUnsatisfiable
)

// negotiateRange parses a single-range Range header against the object size
// and returns the decision plus the inclusive byte window for partial
// responses.
//
// An absent header means a full response. An empty start position is read as
// 0, so "bytes=-" and "bytes=-500" start at the beginning of the object. A
// start or end that is present but not a number is unsatisfiable, as is any
// window that is inverted or starts at or past the object size. A
// well-formed end is clamped to the last byte, so over-long suffixes like
// "bytes=0-999999" on a small object still succeed.
func negotiateRange(header string, size int64) (rangeDecision, int64, int64) {
	if header == "" {
		return rangeFull, 0, 0
	}

	spec := strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(spec, "-", 2)

	var start int64
	if parts[0] != "" {
		parsed, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return rangeUnsatisfiable, 0, 0
		}
		start = parsed
	}

	end := size - 1
	if len(parts) > 1 && parts[1] != "" {
		parsed, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return rangeUnsatisfiable, 0, 0
		}
		end = parsed
	}

	if start < 0 || end < start || start >= size {
		return rangeUnsatisfiable, 0, 0
	}

	if end > size-1 {
		end = size - 1
	}

	return rangePartial, start, end
}
