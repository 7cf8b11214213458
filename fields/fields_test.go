package fields

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sdifrance/tinygrib2"
	"github.com/sdifrance/tinygrib2/internal/gribtest"
	"github.com/sdifrance/tinygrib2/templates"
)

var refTime = time.Date(2023, time.July, 14, 0, 30, 0, 0, time.UTC)

var grid2x2 = gribtest.GridDefinition(gribtest.Grid{
	Ni: 2, Nj: 2,
	La1: 36000000, Lo1: 140000000,
	La2: 35000000, Lo2: 141000000,
	Di: 1000000, Dj: 1000000,
})

func field(p gribtest.Product, levels ...uint8) [][]byte {
	return [][]byte{
		gribtest.ProductDefinition(p),
		gribtest.DataRepresentation(gribtest.RunLength{
			NumberOfValues:     uint32(len(levels)),
			Bits:               8,
			MV:                 3,
			DecimalScaleFactor: 1,
			Levels:             []uint16{5, 10, 125},
		}),
		gribtest.Bitmap(tinygrib2.BitmapIndicatorNone, nil),
		gribtest.Data(gribtest.PackRunLength(levels, 3)),
	}
}

func message(parts ...[][]byte) []byte {
	all := [][]byte{gribtest.Identification(refTime, nil), grid2x2}
	for _, p := range parts {
		all = append(all, p...)
	}
	return gribtest.Message(0, all...)
}

var (
	temperature   = gribtest.Product{}
	precipitation = gribtest.Product{TemplateNumber: 8, Category: 1, Number: 204, End: refTime, StatisticalProcesses: []uint8{1}}
	unsupported   = gribtest.Product{TemplateNumber: 1}
)

func TestDecode(t *testing.T) {
	stream := append(
		message(field(temperature, 1, 1, 0, 3), field(precipitation, 2, 2, 2, 2)),
		message(field(temperature, 3, 3, 3, 3))...,
	)
	got, err := Decode(bytes.NewReader(stream), Config{})
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Decode() returned %d fields, want 3", len(got))
	}

	tests := []struct {
		message, index int
		kind           templates.Kind
		physical       []float64
	}{
		{0, 0, templates.KindTemperature, []float64{0.5, 0.5, math.NaN(), 12.5}},
		{0, 1, templates.KindTotalPrecipitation, []float64{1, 1, 1, 1}},
		{1, 0, templates.KindTemperature, []float64{12.5, 12.5, 12.5, 12.5}},
	}
	for i, tt := range tests {
		f := got[i]
		if f.Message != tt.message || f.Index != tt.index {
			t.Errorf("field %d: Message, Index = %d, %d, want %d, %d", i, f.Message, f.Index, tt.message, tt.index)
		}
		if f.Kind != tt.kind {
			t.Errorf("field %d: Kind = %v, want %v", i, f.Kind, tt.kind)
		}
		if !f.ReferenceTime().Equal(refTime) {
			t.Errorf("field %d: ReferenceTime() = %v, want %v", i, f.ReferenceTime(), refTime)
		}
		if got, want := f.Grid.Points(), uint64(4); got != want {
			t.Errorf("field %d: Grid.Points() = %d, want %d", i, got, want)
		}
		physical := f.Physical()
		for j, want := range tt.physical {
			if math.IsNaN(want) != math.IsNaN(physical[j]) || (!math.IsNaN(want) && physical[j] != want) {
				t.Errorf("field %d: Physical()[%d] = %v, want %v", i, j, physical[j], want)
			}
		}
	}
	if got[0].Grid != got[1].Grid {
		t.Errorf("fields of one grid do not share the grid template")
	}
}

func TestDecodeUnsupported(t *testing.T) {
	stream := message(field(temperature, 1, 1, 1, 1), field(unsupported, 2, 2, 2, 2), field(precipitation, 3, 3, 3, 3))

	if _, err := Decode(bytes.NewReader(stream), Config{}); !errors.Is(err, tinygrib2.ErrUnsupported) {
		t.Errorf("Decode() = %v, want ErrUnsupported", err)
	}

	got, err := Decode(bytes.NewReader(stream), Config{SkipUnsupported: true})
	if err != nil {
		t.Fatalf("Decode(SkipUnsupported) = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Decode(SkipUnsupported) returned %d fields, want 2", len(got))
	}
	if got[1].Index != 2 || got[1].Kind != templates.KindTotalPrecipitation {
		t.Errorf("second field = index %d, %v, want index 2, %v", got[1].Index, got[1].Kind, templates.KindTotalPrecipitation)
	}
}

func TestDecodeUnsupportedGrid(t *testing.T) {
	otherGrid := gribtest.GridDefinition(gribtest.Grid{Ni: 2, Nj: 2, TemplateNumber: 90, TrailingPayload: make([]byte, 20)})
	all := [][]byte{gribtest.Identification(refTime, nil), otherGrid}
	all = append(all, field(temperature, 1, 1, 1, 1)...)
	all = append(all, grid2x2)
	all = append(all, field(temperature, 2, 2, 2, 2)...)
	stream := gribtest.Message(0, all...)

	got, err := Decode(bytes.NewReader(stream), Config{SkipUnsupported: true})
	if err != nil {
		t.Fatalf("Decode(SkipUnsupported) = %v", err)
	}
	if len(got) != 1 || got[0].Values[0].Scaled != 10 {
		t.Errorf("Decode(SkipUnsupported) = %d fields, want only the field on the supported grid", len(got))
	}
}

func TestDecodeBitmap(t *testing.T) {
	f := field(temperature, 1, 1, 1, 1)
	f[2] = gribtest.Bitmap(tinygrib2.BitmapIndicatorPresent, []byte{0xf0})
	stream := message(f)
	if _, err := Decode(bytes.NewReader(stream), Config{}); !errors.Is(err, tinygrib2.ErrUnsupported) {
		t.Errorf("Decode() = %v, want ErrUnsupported", err)
	}
}

func TestDecodeValueCountMismatch(t *testing.T) {
	stream := message(field(temperature, 1, 1, 1))
	if _, err := Decode(bytes.NewReader(stream), Config{}); !errors.Is(err, tinygrib2.ErrInvalidData) {
		t.Errorf("Decode() = %v, want ErrInvalidData", err)
	}
}

func TestDecodeGridPointMismatch(t *testing.T) {
	sec := gribtest.GridDefinition(gribtest.Grid{Ni: 2, Nj: 2})
	sec[6+3] = 5 // low octet of the number of data points
	all := [][]byte{gribtest.Identification(refTime, nil), sec}
	stream := gribtest.Message(0, append(all, field(temperature, 1, 1, 1, 1)...)...)
	if _, err := Decode(bytes.NewReader(stream), Config{}); !errors.Is(err, tinygrib2.ErrInvalidData) {
		t.Errorf("Decode() = %v, want ErrInvalidData", err)
	}
}

func TestCollectorMissingSections(t *testing.T) {
	c := NewCollector(Config{}, func(*Field) error { return nil })
	if err := c.HandleIndicator(tinygrib2.IndicatorSection{Edition: 2}); err != nil {
		t.Fatalf("HandleIndicator() = %v", err)
	}
	err := c.HandleData(tinygrib2.DataSection{Length: 6}, bytes.NewReader([]byte{1}))
	if !errors.Is(err, tinygrib2.ErrInvalidData) {
		t.Errorf("HandleData() before a grid = %v, want ErrInvalidData", err)
	}
}

func TestCollectorEmitError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	c := NewCollector(Config{}, func(*Field) error {
		calls++
		return stop
	})
	stream := message(field(temperature, 1, 1, 1, 1), field(temperature, 2, 2, 2, 2))
	if _, err := tinygrib2.NewReader(bytes.NewReader(stream), c).ReadAll(); !errors.Is(err, stop) {
		t.Errorf("ReadAll() = %v, want %v", err, stop)
	}
	if calls != 1 {
		t.Errorf("emit called %d times, want 1", calls)
	}
}
