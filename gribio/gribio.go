// Package gribio partitions files of concatenated GRIB2 messages into
// independently decodable byte ranges.
package gribio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/sdifrance/tinygrib2/internal"
)

// Extent locates one message within a file.
type Extent struct {
	Index      int
	Offset     int64
	Length     uint64
	Discipline uint8
}

// Section returns a reader over the message described by e. The result
// can be decoded by a tinygrib2.Reader on its own.
func (e Extent) Section(ra io.ReaderAt) *io.SectionReader {
	return io.NewSectionReader(ra, e.Offset, int64(e.Length))
}

// indicatorLength is the size of Section 0 including the "GRIB" magic.
const indicatorLength = 16

// minMessageLength is Section 0 plus the end section.
const minMessageLength = indicatorLength + 4

// Scan reads r to the end and returns the extent of every message. Zero
// octets between messages are skipped.
func Scan(r io.Reader) ([]Extent, error) {
	var extents []Extent

	rr := bufio.NewReader(r)
	var offset int64
	for {
		skipCount, err := skipZeros(rr)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return extents, nil
			}
			return extents, fmt.Errorf("error scanning file: %w", err)
		}
		offset += int64(skipCount)

		e, err := peekExtent(rr)
		if err != nil {
			return extents, fmt.Errorf("error encountered when expecting a GRIB message at byte offset %d: %w", offset, err)
		}
		e.Index = len(extents)
		e.Offset = offset
		glog.V(1).Infof("message %d: %d octets at byte offset %d, discipline %d", e.Index, e.Length, e.Offset, e.Discipline)

		if n, err := io.CopyN(io.Discard, rr, int64(e.Length)); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return extents, fmt.Errorf("error while skipping message of expected length %d; only %d bytes left: %w", e.Length, n, err)
		}
		extents = append(extents, e)
		offset += int64(e.Length)
	}
}

func skipZeros(rr *bufio.Reader) (int, error) {
	skipCount := 0
	for {
		b, err := rr.ReadByte()
		if err != nil {
			return skipCount, err
		}
		if b == 0 {
			skipCount++
			continue
		}
		if err := rr.UnreadByte(); err != nil {
			return skipCount, err
		}
		return skipCount, nil
	}
}

func peekExtent(rr *bufio.Reader) (Extent, error) {
	data, err := rr.Peek(indicatorLength)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Extent{}, fmt.Errorf("error while expecting GRIB record: %w", err)
	}

	if got, want := string(data[0:4]), "GRIB"; got != want {
		return Extent{}, internal.InvalidDataf("first four bytes = %q, want %q", got, want)
	}
	switch edition := data[7]; edition {
	case 2:
		// https://codes.ecmwf.int/grib/format/grib2/sections/0/
		length := binary.BigEndian.Uint64(data[8:16])
		if length < minMessageLength || length > 1<<62 {
			return Extent{}, internal.InvalidDataf("message length %d out of range", length)
		}
		return Extent{Length: length, Discipline: data[6]}, nil
	case 1:
		return Extent{}, internal.Unsupportedf("GRIB edition 1 message")
	default:
		return Extent{}, internal.InvalidDataf("invalid edition %d, wanted 2", edition)
	}
}
