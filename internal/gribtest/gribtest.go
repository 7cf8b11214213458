// Package gribtest encodes synthetic GRIB2 messages for tests.
package gribtest

import (
	"bytes"
	"encoding/binary"
	"time"
)

// Message returns a complete message: the indicator section, the given
// sections in order and the end section. The total length is filled in.
func Message(discipline uint8, sections ...[]byte) []byte {
	return MessageWithEdition(discipline, 2, sections...)
}

// MessageWithEdition is Message with an arbitrary edition number.
func MessageWithEdition(discipline, edition uint8, sections ...[]byte) []byte {
	total := 16 + 4
	for _, s := range sections {
		total += len(s)
	}
	var b bytes.Buffer
	b.WriteString("GRIB")
	put(&b, uint16(0))
	put(&b, discipline)
	put(&b, edition)
	put(&b, uint64(total))
	for _, s := range sections {
		b.Write(s)
	}
	b.WriteString("7777")
	return b.Bytes()
}

// Section returns a section with its 5-octet header. Each field is written
// big-endian.
func Section(number uint8, fields ...interface{}) []byte {
	var body bytes.Buffer
	for _, f := range fields {
		put(&body, f)
	}
	var b bytes.Buffer
	put(&b, uint32(5+body.Len()))
	put(&b, number)
	b.Write(body.Bytes())
	return b.Bytes()
}

// Identification returns section 1 with template number 0 and extra as the
// template body.
func Identification(ref time.Time, extra []byte) []byte {
	return Section(1,
		// centre, sub-centre, tables versions, significance of reference time
		uint16(34), uint16(0), uint8(2), uint8(1), uint8(0),
		uint16(ref.Year()), uint8(ref.Month()), uint8(ref.Day()),
		uint8(ref.Hour()), uint8(ref.Minute()), uint8(ref.Second()),
		// production status, type of processed data, template number
		uint8(0), uint8(1), uint16(0),
		extra,
	)
}

// MinimalIdentification returns the 21-octet section 1 without a template
// number.
func MinimalIdentification(ref time.Time) []byte {
	return Section(1,
		uint16(34), uint16(0),
		uint8(2), uint8(1), uint8(0),
		uint16(ref.Year()), uint8(ref.Month()), uint8(ref.Day()),
		uint8(ref.Hour()), uint8(ref.Minute()), uint8(ref.Second()),
		uint8(0), uint8(1),
	)
}

// LocalUse returns section 2.
func LocalUse(payload []byte) []byte {
	return Section(2, payload)
}

// Grid holds the template 3.0 fields tests care about. Angles are in
// 1e-6 degree.
type Grid struct {
	Ni, Nj          uint32
	La1, Lo1        uint32
	La2, Lo2        uint32
	Di, Dj          uint32
	ScanningMode    uint8
	TemplateNumber  uint16
	TrailingPayload []byte
}

// GridDefinition returns section 3 with template 3.0, or with the given
// template number and no template body when TemplateNumber is not 0.
func GridDefinition(g Grid) []byte {
	fixed := []interface{}{
		uint8(0), g.Ni * g.Nj, uint8(0), uint8(0), g.TemplateNumber,
	}
	if g.TemplateNumber != 0 {
		return Section(3, append(fixed, g.TrailingPayload)...)
	}
	return Section(3, append(fixed,
		// shape of the earth, then radius, major and minor axis
		uint8(6), uint8(0), uint32(0), uint8(0), uint32(0), uint8(0), uint32(0),
		g.Ni, g.Nj,
		// basic angle and subdivisions, both missing
		uint32(0), uint32(0xffffffff),
		g.La1, g.Lo1,
		uint8(0x30),
		g.La2, g.Lo2,
		g.Di, g.Dj,
		g.ScanningMode,
		g.TrailingPayload,
	)...)
}

// Product holds the fields of product templates 4.0, 4.8 and 4.50011.
type Product struct {
	TemplateNumber       uint16
	Category, Number     uint8
	GeneratingProcess    uint8
	Background           uint8
	ForecastTime         uint32
	End                  time.Time
	Missing              uint32
	StatisticalProcesses []uint8
	ProcessIdentifiers   []uint16
}

// ProductDefinition returns section 4 encoding p.
func ProductDefinition(p Product) []byte {
	fields := []interface{}{uint16(0), p.TemplateNumber}
	if p.TemplateNumber == 50011 {
		fields = append(fields, uint8(len(p.ProcessIdentifiers)))
		for _, id := range p.ProcessIdentifiers {
			fields = append(fields, id)
		}
	}
	fields = append(fields,
		p.Category, p.Number, p.GeneratingProcess, p.Background, uint8(0),
		uint16(0), uint8(0),
		uint8(0), p.ForecastTime,
		// ground or water surface, then a missing second surface
		uint8(1), uint8(0), uint32(0),
		uint8(255), uint8(0), uint32(0),
	)
	if p.TemplateNumber == 0 {
		return Section(4, fields...)
	}
	fields = append(fields,
		uint16(p.End.Year()), uint8(p.End.Month()), uint8(p.End.Day()),
		uint8(p.End.Hour()), uint8(p.End.Minute()), uint8(p.End.Second()),
		uint8(len(p.StatisticalProcesses)), p.Missing,
	)
	for i, sp := range p.StatisticalProcesses {
		fields = append(fields, sp, uint8(2), uint8(0), uint32(10*(i+1)), uint8(255), uint32(0))
	}
	return Section(4, fields...)
}

// RunLength holds the fields of data representation template 5.200.
type RunLength struct {
	NumberOfValues     uint32
	Bits               uint8
	MV                 uint16
	DecimalScaleFactor uint8
	Levels             []uint16
}

// DataRepresentation returns section 5 with template 5.200.
func DataRepresentation(r RunLength) []byte {
	fields := []interface{}{
		r.NumberOfValues, uint16(200),
		r.Bits, r.MV, uint16(len(r.Levels)), r.DecimalScaleFactor,
	}
	for _, l := range r.Levels {
		fields = append(fields, l)
	}
	return Section(5, fields...)
}

// Bitmap returns section 6.
func Bitmap(indicator uint8, bitmap []byte) []byte {
	return Section(6, indicator, bitmap)
}

// Data returns section 7.
func Data(payload []byte) []byte {
	return Section(7, payload)
}

// PackRunLength encodes levels (each at most mv) with template 7.200 run
// length packing.
func PackRunLength(levels []uint8, mv uint16) []byte {
	var out []byte
	base := 255 - int(mv)
	for i := 0; i < len(levels); {
		j := i + 1
		for j < len(levels) && levels[j] == levels[i] {
			j++
		}
		out = append(out, levels[i])
		for rest := j - i - 1; rest > 0; rest /= base {
			out = append(out, byte(rest%base+int(mv)+1))
		}
		i = j
	}
	return out
}

func put(b *bytes.Buffer, v interface{}) {
	if raw, ok := v.([]byte); ok {
		b.Write(raw)
		return
	}
	if err := binary.Write(b, binary.BigEndian, v); err != nil {
		panic(err)
	}
}
