package templates

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/sdifrance/tinygrib2"
	"github.com/sdifrance/tinygrib2/internal"
)

// DataRepresentationTemplate is a parsed data representation template. The
// only implementation is *RunLengthLevels.
type DataRepresentationTemplate interface {
	DataRepresentationTemplateNumber() uint16
}

// ReadDataRepresentationTemplate parses the template of drs from body.
func ReadDataRepresentationTemplate(drs tinygrib2.DataRepresentationSection, body io.Reader) (DataRepresentationTemplate, error) {
	switch drs.TemplateNumber {
	case 200:
		t, err := readRunLengthLevels(drs.BodyLen(), body)
		if err != nil {
			return nil, errors.Wrap(err, "data representation template 5.200")
		}
		return t, nil
	default:
		return nil, internal.Unsupportedf("data representation template 5.%d", drs.TemplateNumber)
	}
}

// RunLengthLevels is data representation template 5.200, run length
// packing with level values. Levels maps level k (1-based) to the scaled
// representative value Levels[k-1]; level 0 means missing.
type RunLengthLevels struct {
	NumberOfBits uint8
	// MV is the largest level value; packed octets above it extend a run.
	MV uint16
	// MVL is the number of levels defined.
	MVL                uint16
	DecimalScaleFactor uint8
	Levels             []uint16
}

// runLengthFixedSize is the size of the scalar fields of template 5.200.
const runLengthFixedSize = 6

func readRunLengthLevels(size uint32, r io.Reader) (*RunLengthLevels, error) {
	/* https://codes.ecmwf.int/grib/format/grib2/templates/5/200/

	12      number of bits used for each packed value
	13-14   MV maximum value within the levels used
	15-16   MVL maximum value of level (predefined)
	17      decimal scale factor of representative value of each level
	18-nn   list of scaled representative values of each level from 1 to MVL
	*/
	fr := internal.NewReader(r)
	t := &RunLengthLevels{}
	t.NumberOfBits = fr.Uint8()
	t.MV = fr.Uint16()
	t.MVL = fr.Uint16()
	t.DecimalScaleFactor = fr.Uint8()
	if err := fr.Err(); err != nil {
		return nil, err
	}
	if need := runLengthFixedSize + 2*uint64(t.MVL); need > uint64(size) {
		return nil, internal.InvalidDataf("%d levels need %d octets, section body has %d", t.MVL, need, size)
	}
	t.Levels = make([]uint16, t.MVL)
	for i := range t.Levels {
		t.Levels[i] = fr.Uint16()
	}
	if err := fr.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// DataRepresentationTemplateNumber returns 200.
func (t *RunLengthLevels) DataRepresentationTemplateNumber() uint16 { return 200 }

// Lookup resolves a level to its value. Level 0 is missing.
func (t *RunLengthLevels) Lookup(level uint8) (Value, error) {
	if level == 0 {
		return Value{}, nil
	}
	if int(level) > len(t.Levels) {
		return Value{}, internal.InvalidDataf("level %d out of range, %d representative values defined", level, len(t.Levels))
	}
	return Value{Scaled: t.Levels[level-1], Valid: true}, nil
}

// Physical returns the value of v in the units of the parameter, or false
// when v is missing.
func (t *RunLengthLevels) Physical(v Value) (float64, bool) {
	if !v.Valid {
		return 0, false
	}
	d := internal.SignMagnitude8(t.DecimalScaleFactor)
	if d < 0 {
		return float64(v.Scaled) * math.Pow(10, float64(-d)), true
	}
	return float64(v.Scaled) / math.Pow(10, float64(d)), true
}
