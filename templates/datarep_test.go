package templates

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sdifrance/tinygrib2"
	"github.com/sdifrance/tinygrib2/internal/gribtest"
)

func readDataRepresentation(sec []byte, templateNumber uint16) (DataRepresentationTemplate, error) {
	drs := tinygrib2.DataRepresentationSection{Length: uint32(len(sec)), TemplateNumber: templateNumber}
	return ReadDataRepresentationTemplate(drs, bytes.NewReader(sec[11:]))
}

func TestReadRunLengthLevels(t *testing.T) {
	sec := gribtest.DataRepresentation(gribtest.RunLength{
		NumberOfValues:     100,
		Bits:               8,
		MV:                 4,
		DecimalScaleFactor: 1,
		Levels:             []uint16{0, 5, 10, 25},
	})
	tmpl, err := readDataRepresentation(sec, 200)
	if err != nil {
		t.Fatalf("ReadDataRepresentationTemplate() = %v", err)
	}
	rl, ok := tmpl.(*RunLengthLevels)
	if !ok {
		t.Fatalf("ReadDataRepresentationTemplate() = %T, want *RunLengthLevels", tmpl)
	}
	if rl.DataRepresentationTemplateNumber() != 200 || rl.NumberOfBits != 8 || rl.MV != 4 || rl.MVL != 4 {
		t.Errorf("ReadDataRepresentationTemplate() = %+v", rl)
	}
	if got, want := len(rl.Levels), 4; got != want || rl.Levels[3] != 25 {
		t.Errorf("Levels = %v, want [0 5 10 25]", rl.Levels)
	}
}

func TestReadDataRepresentationTemplateErrors(t *testing.T) {
	if _, err := readDataRepresentation(gribtest.Section(5, uint32(1), uint16(0), make([]byte, 10)), 0); !errors.Is(err, tinygrib2.ErrUnsupported) {
		t.Errorf("ReadDataRepresentationTemplate(5.0) = %v, want ErrUnsupported", err)
	}

	// MVL promises far more levels than the section holds.
	sec := gribtest.Section(5, uint32(4), uint16(200), uint8(8), uint16(3), uint16(1000), uint8(0), uint16(1))
	if _, err := readDataRepresentation(sec, 200); !errors.Is(err, tinygrib2.ErrInvalidData) {
		t.Errorf("ReadDataRepresentationTemplate(MVL 1000) = %v, want ErrInvalidData", err)
	}
}

func TestLookup(t *testing.T) {
	rl := levels(3, 10, 20)
	tests := []struct {
		level   uint8
		want    Value
		wantErr bool
	}{
		{0, Value{}, false},
		{1, Value{Scaled: 10, Valid: true}, false},
		{2, Value{Scaled: 20, Valid: true}, false},
		{3, Value{}, true},
	}
	for _, tt := range tests {
		got, err := rl.Lookup(tt.level)
		if (err != nil) != tt.wantErr {
			t.Errorf("Lookup(%d) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Lookup(%d) = %+v, want %+v", tt.level, got, tt.want)
		}
	}
}

func TestPhysical(t *testing.T) {
	tests := []struct {
		dsf    uint8
		scaled uint16
		want   float64
	}{
		{0, 25, 25},
		{1, 25, 2.5},
		{2, 125, 1.25},
		{0x81, 25, 250},
	}
	for _, tt := range tests {
		rl := &RunLengthLevels{DecimalScaleFactor: tt.dsf}
		got, ok := rl.Physical(Value{Scaled: tt.scaled, Valid: true})
		if !ok || got != tt.want {
			t.Errorf("Physical(%d) with scale factor %#x = %v, %v, want %v", tt.scaled, tt.dsf, got, ok, tt.want)
		}
	}
	if _, ok := (&RunLengthLevels{}).Physical(Value{}); ok {
		t.Errorf("Physical(missing) reported a value")
	}
}
