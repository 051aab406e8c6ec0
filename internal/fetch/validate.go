// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import "bytes"

// pdfMagic is the first four bytes every valid PDF begins with.
var pdfMagic = []byte("%PDF")

// eofMarker is checked for within the last 2KiB of the file as a rough
// structural check; a file without it is rejected (trailing bytes after
// the marker are tolerated as long as it still falls in that window), and
// its presence plus the magic bytes is treated as sufficient evidence of a
// well-formed PDF per §4.2.
var eofMarker = []byte("%%EOF")

// ValidatePDF enforces the magic-byte and size checks from §4.2/§4.4:
// bytes in [min, max], first four bytes "%PDF", and a trailing %%EOF
// within the last 2KiB. Content-Type is intentionally not consulted —
// validation is by magic bytes, never by header alone.
func ValidatePDF(data []byte, minBytes, maxBytes int64) error {
	n := int64(len(data))
	if n < minBytes {
		return errTooSmall
	}
	if maxBytes > 0 && n > maxBytes {
		return errTooLarge
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return errBadMagic
	}

	tail := data
	const tailWindow = 2048
	if len(tail) > tailWindow {
		tail = tail[len(tail)-tailWindow:]
	}
	if !bytes.Contains(tail, eofMarker) {
		return errNoEOF
	}
	return nil
}

type validationError string

func (e validationError) Error() string { return string(e) }

const (
	errTooSmall  validationError = "pdf too small: likely an error page"
	errTooLarge  validationError = "pdf exceeds configured maximum size"
	errBadMagic  validationError = "content does not begin with %PDF"
	errNoEOF     validationError = "content has no trailing %%EOF marker"
)
