package templates

import (
	"bufio"
	"io"

	"github.com/sdifrance/tinygrib2"
	"github.com/sdifrance/tinygrib2/internal"
)

// MaxPoints bounds the number of values a single field may decode to. The
// largest operational grids are a few tens of millions of points; the cap
// keeps crafted run lengths from exhausting memory.
const MaxPoints = 1 << 28

// Value is one decoded grid point. Missing points have Valid == false.
type Value struct {
	Scaled uint16
	Valid  bool
}

// DecodeRunLength decodes the body of a data section packed with template
// 7.200, size octets long, into one Value per grid point. At most size
// octets are consumed from r.
//
// Each packet starts with a level octet, at most tmpl.MV. The octets that
// follow and exceed MV are digits, least significant first and in base
// 255-MV, of the run length minus one:
//
//	run = 1 + (b1-MV-1) + (b2-MV-1)*(255-MV) + (b3-MV-1)*(255-MV)^2 ...
//
// The first octet not above MV starts the next packet.
func DecodeRunLength(r io.Reader, size uint32, drs tinygrib2.DataRepresentationSection, tmpl *RunLengthLevels) ([]Value, error) {
	if tmpl.NumberOfBits != 8 {
		return nil, internal.Unsupportedf("run length packing with %d bits per value, only 8 is implemented", tmpl.NumberOfBits)
	}
	if size == 0 {
		return []Value{}, nil
	}

	// Buffering must not read ahead of the payload: r may continue with
	// the next section.
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(io.LimitReader(r, int64(size)))
	}
	readByte := func() (byte, error) {
		b, err := br.ReadByte()
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return b, err
	}

	values := make([]Value, 0, min(uint64(drs.NumberOfValues), MaxPoints))
	mv := uint64(tmpl.MV)

	lv, err := readByte()
	if err != nil {
		return nil, err
	}
	for p := uint32(0); p < size; {
		p++
		run, m := uint64(1), uint64(1)
		var next byte
		for p < size {
			if next, err = readByte(); err != nil {
				return nil, err
			}
			if uint64(next) <= mv {
				break
			}
			run += (uint64(next) - mv - 1) * m
			if run > MaxPoints {
				return nil, internal.InvalidDataf("run length %d at octet %d exceeds %d", run, p, MaxPoints)
			}
			// Saturate: once m is past the cap any further non-zero digit
			// overflows the run check above.
			if m *= 255 - mv; m > MaxPoints {
				m = MaxPoints + 1
			}
			p++
		}
		v, err := tmpl.Lookup(lv)
		if err != nil {
			return nil, err
		}
		if uint64(len(values))+run > MaxPoints {
			return nil, internal.InvalidDataf("decoded values exceed %d", MaxPoints)
		}
		for i := uint64(0); i < run; i++ {
			values = append(values, v)
		}
		lv = next
	}
	return values, nil
}
