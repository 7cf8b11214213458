// Package internal contains the primitive field reader and the error kinds
// shared by the GRIB2 section and template readers.
package internal

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

/*
Note on endianness (WMO-No. 306, GRIB2 regulations):

	Octets are numbered 1, 2, 3, etc., starting at the beginning of each
	section. Bit 1 is the most significant and bit 8 the least significant
	bit of an octet, so every multi-octet integer is big-endian.

The only exception handled here is the reserved field of Section 0, which
is read in the platform byte order.
*/

// Reader reads fixed-width integers from a byte stream.
//
// The first error is sticky: once a read fails, every later read returns
// zero and Err reports the original failure. This lets a template reader
// decode a run of fields and check for failure once.
type Reader struct {
	r   io.Reader
	err error
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Uint8 reads a single octet.
func (r *Reader) Uint8() uint8 { return read[uint8](r, binary.BigEndian) }

// Uint16 reads a big-endian 2-octet unsigned integer.
func (r *Reader) Uint16() uint16 { return read[uint16](r, binary.BigEndian) }

// Uint32 reads a big-endian 4-octet unsigned integer.
func (r *Reader) Uint32() uint32 { return read[uint32](r, binary.BigEndian) }

// Uint64 reads a big-endian 8-octet unsigned integer.
func (r *Reader) Uint64() uint64 { return read[uint64](r, binary.BigEndian) }

// NativeUint16 reads a 2-octet unsigned integer in the platform byte order.
func (r *Reader) NativeUint16() uint16 { return read[uint16](r, binary.NativeEndian) }

func read[T constraints.Unsigned](r *Reader, order binary.ByteOrder) T {
	var v T
	if r.err != nil {
		return 0
	}
	if err := binary.Read(r.r, order, &v); err != nil {
		r.fail(err)
		return 0
	}
	return v
}

// fail records err. A clean EOF in the middle of a field means the stream
// ended inside a section.
func (r *Reader) fail(err error) {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	r.err = errors.WithStack(err)
}
