package server

import (
	"errors"
	"net/url"
	"strings"
)

var (
	errMissingIdentifier = errors.New("no file specified")
	errInvalidIdentifier = errors.New("invalid file identifier")
)

// identifierFromSegment turns a raw (still percent-encoded) path segment
// into a logical file identifier. The segment is decoded once as transport
// escaping; a decode failure keeps the raw value rather than rejecting the
// request. The result then goes through normalizeIdentifier for the
// client-side encoding pass and safety checks.
func identifierFromSegment(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return normalizeIdentifier(decoded)
}

// normalizeIdentifier applies the second, conditional decoding pass for
// clients that percent-encode the identifier themselves before the URL is
// escaped again in transit. The pass only runs when an escape marker is
// still present, so single-encoded names containing a literal percent are
// left alone once decoded. It then rejects identifiers that could escape
// the storage namespace.
func normalizeIdentifier(id string) (string, error) {
	if strings.Contains(id, "%") {
		if decoded, err := url.PathUnescape(id); err == nil {
			id = decoded
		}
	}

	if id == "" {
		return "", errMissingIdentifier
	}

	if strings.HasPrefix(id, "/") || strings.HasPrefix(id, "\\") {
		return "", errInvalidIdentifier
	}
	for _, part := range strings.FieldsFunc(id, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return "", errInvalidIdentifier
		}
	}

	return id, nil
}
