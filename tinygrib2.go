// Package tinygrib2 decodes GRIB edition 2 messages.
//
// A GRIB2 stream is a concatenation of messages, each made of numbered
// sections: 0 indicator, 1 identification, 2 local use, 3 grid definition,
// 4 product definition, 5 data representation, 6 bit-map, 7 data and the
// "7777" end section. Sections 2 to 7 may repeat within a message so that
// several fields share one grid.
//
// The Reader frames sections and parses their fixed headers. The variable
// part of each section (its template) is handed to a Handler as a reader
// limited to that section, and the Reader skips whatever the Handler left
// unread. Template parsing for the supported template numbers lives in the
// templates package.
//
// GRIB2 is specified here: https://library.wmo.int/doc_num.php?explnum_id=11283
package tinygrib2

import "github.com/sdifrance/tinygrib2/internal"

var (
	// ErrInvalidData is matched (with errors.Is) by every format violation.
	ErrInvalidData = internal.ErrInvalidData

	// ErrUnsupported is matched by errors for template variants this
	// package recognises but does not implement.
	ErrUnsupported = internal.ErrUnsupported
)
