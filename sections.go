package tinygrib2

import (
	"io"
	"time"

	"github.com/sdifrance/tinygrib2/internal"
)

// Fixed overhead, in octets, of each section type. The body of a section
// is its declared length minus this overhead.
const (
	identificationOverhead      = 23
	identificationMinimalLength = 21 // legacy form without a template number
	localUseOverhead            = 5
	gridDefinitionOverhead      = 14
	productDefinitionOverhead   = 9
	dataRepresentationOverhead  = 11
	bitmapOverhead              = 6
	dataOverhead                = 5
)

// endSectionMarker is "7777" read as a big-endian integer.
const endSectionMarker uint32 = 0x37373737

// SectionHeader is the 5-octet prefix shared by sections 1 to 7: the
// section length including the prefix and the section number.
//
// The end section is reported as a synthetic header of length 4 and
// number 8.
type SectionHeader struct {
	Length uint32
	Number uint8
}

// IsEnd reports whether h is the end section.
func (h SectionHeader) IsEnd() bool {
	return h.Number == 8
}

func readSectionHeader(r io.Reader, allowEnd bool) (SectionHeader, error) {
	fr := internal.NewReader(r)
	length := fr.Uint32()
	if err := fr.Err(); err != nil {
		return SectionHeader{}, err
	}
	if allowEnd && length == endSectionMarker {
		return SectionHeader{Length: 4, Number: 8}, nil
	}
	number := fr.Uint8()
	if err := fr.Err(); err != nil {
		return SectionHeader{}, err
	}
	return SectionHeader{Length: length, Number: number}, nil
}

// ensureNumber checks that h belongs to section number. A mismatch means
// the stream is out of step with the section framing.
func (h SectionHeader) ensureNumber(number uint8) error {
	if got, want := h.Number, number; got != want {
		return internal.InvalidDataf("number of section must be %d, but got %d", want, got)
	}
	return nil
}

// ensureLength rejects a declared length shorter than the fixed part of
// the section so that body lengths never wrap around.
func (h SectionHeader) ensureLength(overhead uint32) error {
	if h.Length < overhead {
		return internal.InvalidDataf("section %d too short: length %d, need at least %d", h.Number, h.Length, overhead)
	}
	return nil
}

// IndicatorSection is Section 0, less the "GRIB" magic that precedes it.
type IndicatorSection struct {
	Reserved   uint16
	Discipline uint8
	Edition    uint8
	// TotalLength is the length of the whole message including Section 0.
	// Framing relies on section lengths instead.
	TotalLength uint64
}

func readIndicatorSection(r io.Reader) (IndicatorSection, error) {
	/* https://codes.ecmwf.int/grib/format/grib2/sections/0/

	Octet No. Contents
	1–4 GRIB (coded according to the International Alphabet No. 5)
	5–6 Reserved
	7 Discipline – GRIB Master table number (see Code table 0.0)
	8 GRIB edition number (currently 2)
	9–16 Total length of GRIB message in octets (including Section 0)
	*/
	fr := internal.NewReader(r)
	var is IndicatorSection
	is.Reserved = fr.NativeUint16()
	is.Discipline = fr.Uint8()
	is.Edition = fr.Uint8()
	if err := fr.Err(); err != nil {
		return IndicatorSection{}, err
	}
	if got, want := is.Edition, uint8(2); got != want {
		return IndicatorSection{}, internal.InvalidDataf("edition number must be %d (grib2), but got %d", want, got)
	}
	is.TotalLength = fr.Uint64()
	if err := fr.Err(); err != nil {
		return IndicatorSection{}, err
	}
	return is, nil
}

// IdentificationSection is Section 1.
type IdentificationSection struct {
	Length                      uint32
	Centre                      uint16
	SubCentre                   uint16
	TablesVersion               uint8
	LocalTablesVersion          uint8
	SignificanceOfReferenceTime uint8
	Year                        uint16
	Month                       uint8
	Day                         uint8
	Hour                        uint8
	Minute                      uint8
	Second                      uint8
	ProductionStatus            uint8
	TypeOfProcessedData         uint8
	// TemplateNumber is only meaningful when HasTemplate reports true.
	TemplateNumber uint16
}

// HasTemplate reports whether the section carries a template number. The
// minimal 21-octet form does not.
func (s IdentificationSection) HasTemplate() bool {
	return s.Length != identificationMinimalLength
}

// BodyLen returns the length of the identification template.
func (s IdentificationSection) BodyLen() uint32 {
	if !s.HasTemplate() {
		return 0
	}
	return s.Length - identificationOverhead
}

// ReferenceTime returns the reference time in UTC.
func (s IdentificationSection) ReferenceTime() time.Time {
	return time.Date(int(s.Year), time.Month(s.Month), int(s.Day), int(s.Hour), int(s.Minute), int(s.Second), 0, time.UTC)
}

func readIdentificationSection(h SectionHeader, r io.Reader) (IdentificationSection, error) {
	if err := h.ensureNumber(1); err != nil {
		return IdentificationSection{}, err
	}
	if h.Length != identificationMinimalLength {
		if err := h.ensureLength(identificationOverhead); err != nil {
			return IdentificationSection{}, err
		}
	}
	fr := internal.NewReader(r)
	s := IdentificationSection{Length: h.Length}
	s.Centre = fr.Uint16()
	s.SubCentre = fr.Uint16()
	s.TablesVersion = fr.Uint8()
	s.LocalTablesVersion = fr.Uint8()
	s.SignificanceOfReferenceTime = fr.Uint8()
	s.Year = fr.Uint16()
	s.Month = fr.Uint8()
	s.Day = fr.Uint8()
	s.Hour = fr.Uint8()
	s.Minute = fr.Uint8()
	s.Second = fr.Uint8()
	s.ProductionStatus = fr.Uint8()
	s.TypeOfProcessedData = fr.Uint8()
	if s.HasTemplate() {
		s.TemplateNumber = fr.Uint16()
	}
	if err := fr.Err(); err != nil {
		return IdentificationSection{}, err
	}
	return s, nil
}

// LocalUseSection is Section 2. Its body is free-form.
type LocalUseSection struct {
	Length uint32
}

// BodyLen returns the length of the local use payload.
func (s LocalUseSection) BodyLen() uint32 {
	return s.Length - localUseOverhead
}

func readLocalUseSection(h SectionHeader) (LocalUseSection, error) {
	if err := h.ensureNumber(2); err != nil {
		return LocalUseSection{}, err
	}
	if err := h.ensureLength(localUseOverhead); err != nil {
		return LocalUseSection{}, err
	}
	return LocalUseSection{Length: h.Length}, nil
}

// GridDefinitionSection is Section 3.
type GridDefinitionSection struct {
	Length                          uint32
	SourceOfGridDefinition          uint8
	NumberOfDataPoints              uint32
	NumberOfOctetsForNumberOfPoints uint8
	InterpretationOfNumberOfPoints  uint8
	TemplateNumber                  uint16
}

// BodyLen returns the length of the grid definition template.
func (s GridDefinitionSection) BodyLen() uint32 {
	return s.Length - gridDefinitionOverhead
}

func readGridDefinitionSection(h SectionHeader, r io.Reader) (GridDefinitionSection, error) {
	if err := h.ensureNumber(3); err != nil {
		return GridDefinitionSection{}, err
	}
	if err := h.ensureLength(gridDefinitionOverhead); err != nil {
		return GridDefinitionSection{}, err
	}
	fr := internal.NewReader(r)
	s := GridDefinitionSection{Length: h.Length}
	s.SourceOfGridDefinition = fr.Uint8()
	s.NumberOfDataPoints = fr.Uint32()
	s.NumberOfOctetsForNumberOfPoints = fr.Uint8()
	s.InterpretationOfNumberOfPoints = fr.Uint8()
	s.TemplateNumber = fr.Uint16()
	if err := fr.Err(); err != nil {
		return GridDefinitionSection{}, err
	}
	return s, nil
}

// ProductDefinitionSection is Section 4.
type ProductDefinitionSection struct {
	Length uint32
	// NV is the number of coordinate values after the template.
	NV             uint16
	TemplateNumber uint16
}

// BodyLen returns the length of the product definition template.
func (s ProductDefinitionSection) BodyLen() uint32 {
	return s.Length - productDefinitionOverhead
}

func readProductDefinitionSection(h SectionHeader, r io.Reader) (ProductDefinitionSection, error) {
	if err := h.ensureNumber(4); err != nil {
		return ProductDefinitionSection{}, err
	}
	if err := h.ensureLength(productDefinitionOverhead); err != nil {
		return ProductDefinitionSection{}, err
	}
	fr := internal.NewReader(r)
	s := ProductDefinitionSection{Length: h.Length}
	s.NV = fr.Uint16()
	s.TemplateNumber = fr.Uint16()
	if err := fr.Err(); err != nil {
		return ProductDefinitionSection{}, err
	}
	return s, nil
}

// DataRepresentationSection is Section 5.
type DataRepresentationSection struct {
	Length         uint32
	NumberOfValues uint32
	TemplateNumber uint16
}

// BodyLen returns the length of the data representation template.
func (s DataRepresentationSection) BodyLen() uint32 {
	return s.Length - dataRepresentationOverhead
}

func readDataRepresentationSection(h SectionHeader, r io.Reader) (DataRepresentationSection, error) {
	if err := h.ensureNumber(5); err != nil {
		return DataRepresentationSection{}, err
	}
	if err := h.ensureLength(dataRepresentationOverhead); err != nil {
		return DataRepresentationSection{}, err
	}
	fr := internal.NewReader(r)
	s := DataRepresentationSection{Length: h.Length}
	s.NumberOfValues = fr.Uint32()
	s.TemplateNumber = fr.Uint16()
	if err := fr.Err(); err != nil {
		return DataRepresentationSection{}, err
	}
	return s, nil
}

// Bitmap indicator values (Code table 6.0).
const (
	BitmapIndicatorPresent  = 0
	BitmapIndicatorPrevious = 254
	BitmapIndicatorNone     = 255
)

// BitmapSection is Section 6. The bit-map itself, if any, is the body.
type BitmapSection struct {
	Length    uint32
	Indicator uint8
}

// BodyLen returns the length of the bit-map.
func (s BitmapSection) BodyLen() uint32 {
	return s.Length - bitmapOverhead
}

func readBitmapSection(h SectionHeader, r io.Reader) (BitmapSection, error) {
	if err := h.ensureNumber(6); err != nil {
		return BitmapSection{}, err
	}
	if err := h.ensureLength(bitmapOverhead); err != nil {
		return BitmapSection{}, err
	}
	fr := internal.NewReader(r)
	s := BitmapSection{Length: h.Length, Indicator: fr.Uint8()}
	if err := fr.Err(); err != nil {
		return BitmapSection{}, err
	}
	return s, nil
}

// DataSection is Section 7. The packed data is the body.
type DataSection struct {
	Length uint32
}

// BodyLen returns the length of the packed data.
func (s DataSection) BodyLen() uint32 {
	return s.Length - dataOverhead
}

func readDataSection(h SectionHeader) (DataSection, error) {
	if err := h.ensureNumber(7); err != nil {
		return DataSection{}, err
	}
	if err := h.ensureLength(dataOverhead); err != nil {
		return DataSection{}, err
	}
	return DataSection{Length: h.Length}, nil
}
