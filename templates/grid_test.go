package templates

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/sdifrance/tinygrib2"
	"github.com/sdifrance/tinygrib2/internal/gribtest"
)

// readGrid parses a section 3 built by gribtest.
func readGrid(t *testing.T, g gribtest.Grid) (GridTemplate, error) {
	t.Helper()
	sec := gribtest.GridDefinition(g)
	gds := tinygrib2.GridDefinitionSection{Length: uint32(len(sec)), NumberOfDataPoints: g.Ni * g.Nj, TemplateNumber: g.TemplateNumber}
	return ReadGridTemplate(gds, bytes.NewReader(sec[14:]))
}

var japanGrid = gribtest.Grid{
	Ni: 3, Nj: 2,
	La1: 36000000, Lo1: 140000000,
	La2: 35000000, Lo2: 142000000,
	Di: 1000000, Dj: 1000000,
}

func TestReadGridTemplate(t *testing.T) {
	tmpl, err := readGrid(t, japanGrid)
	if err != nil {
		t.Fatalf("ReadGridTemplate() = %v", err)
	}
	g, ok := tmpl.(*LatLonGrid)
	if !ok {
		t.Fatalf("ReadGridTemplate() = %T, want *LatLonGrid", tmpl)
	}
	if got, want := g.GridTemplateNumber(), uint16(0); got != want {
		t.Errorf("GridTemplateNumber() = %d, want %d", got, want)
	}
	if got, want := g.Points(), uint64(6); got != want {
		t.Errorf("Points() = %d, want %d", got, want)
	}
	if g.ShapeOfEarth != 6 || g.ResolutionAndComponentFlags != 0x30 {
		t.Errorf("ShapeOfEarth = %d, ResolutionAndComponentFlags = %#x, want 6, 0x30", g.ShapeOfEarth, g.ResolutionAndComponentFlags)
	}
	assertLatLng(t, "FirstPoint()", g.FirstPoint(), LatLng{36, 140})
	assertLatLng(t, "LastPoint()", g.LastPoint(), LatLng{35, 142})
	di, dj := g.Increments()
	if !near(di, 1) || !near(dj, -1) {
		t.Errorf("Increments() = %v, %v, want 1, -1", di, dj)
	}
}

func TestReadGridTemplateErrors(t *testing.T) {
	if _, err := readGrid(t, gribtest.Grid{Ni: 1, Nj: 1, TemplateNumber: 40}); !errors.Is(err, tinygrib2.ErrUnsupported) {
		t.Errorf("ReadGridTemplate(3.40) = %v, want ErrUnsupported", err)
	}

	sec := gribtest.GridDefinition(japanGrid)
	gds := tinygrib2.GridDefinitionSection{Length: uint32(len(sec))}
	if _, err := ReadGridTemplate(gds, bytes.NewReader(sec[14:40])); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadGridTemplate(truncated) = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestLatLonGridNegativeAngles(t *testing.T) {
	g := &LatLonGrid{
		La1: 1<<31 | 10000000, Lo1: 1<<31 | 20500000,
		SubdivisionsOfBasicAngle: math.MaxUint32,
	}
	assertLatLng(t, "FirstPoint()", g.FirstPoint(), LatLng{-10, -20.5})
}

func TestLatLonGridBasicAngle(t *testing.T) {
	g := &LatLonGrid{BasicAngle: 1, SubdivisionsOfBasicAngle: 1000, La1: 45000, Lo1: 90000}
	assertLatLng(t, "FirstPoint()", g.FirstPoint(), LatLng{45, 90})
}

func TestCoordinates(t *testing.T) {
	tests := []struct {
		name string
		mode ScanningMode
		want []LatLng
	}{
		{
			name: "rows north to south",
			mode: 0,
			want: []LatLng{{36, 140}, {36, 141}, {36, 142}, {35, 140}, {35, 141}, {35, 142}},
		},
		{
			name: "rows south to north",
			mode: 0x40,
			want: []LatLng{{36, 140}, {36, 141}, {36, 142}, {37, 140}, {37, 141}, {37, 142}},
		},
		{
			name: "columns",
			mode: 0x20,
			want: []LatLng{{36, 140}, {35, 140}, {36, 141}, {35, 141}, {36, 142}, {35, 142}},
		},
		{
			name: "rows westwards",
			mode: 0x80,
			want: []LatLng{{36, 140}, {36, 139}, {36, 138}, {35, 140}, {35, 139}, {35, 138}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := japanGrid
			grid.ScanningMode = uint8(tt.mode)
			tmpl, err := readGrid(t, grid)
			if err != nil {
				t.Fatalf("ReadGridTemplate() = %v", err)
			}
			got, err := tmpl.(*LatLonGrid).Coordinates()
			if err != nil {
				t.Fatalf("Coordinates() = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Coordinates() returned %d points, want %d", len(got), len(tt.want))
			}
			for i := range got {
				assertLatLng(t, "Coordinates()", got[i], tt.want[i])
			}
		})
	}
}

func TestCoordinatesTooLarge(t *testing.T) {
	g := &LatLonGrid{Ni: 1 << 16, Nj: 1 << 16}
	if _, err := g.Coordinates(); !errors.Is(err, tinygrib2.ErrInvalidData) {
		t.Errorf("Coordinates() = %v, want ErrInvalidData", err)
	}
}

func TestScanningModeString(t *testing.T) {
	tests := []struct {
		mode ScanningMode
		want string
	}{
		{0, "(+i, -j, iDirAdj)"},
		{0x40, "(+i, +j, iDirAdj)"},
		{0x20, "(+i, -j, jDirAdj)"},
		{0x80, "(-i, -j, iDirAdj)"},
		{0xe0, "(-i, +j, jDirAdj)"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("ScanningMode(%#x).String() = %q, want %q", uint8(tt.mode), got, tt.want)
		}
	}
}

func near(a Angle, want float64) bool {
	return math.Abs(a.Degrees()-want) < 1e-9
}

func assertLatLng(t *testing.T, what string, got, want LatLng) {
	t.Helper()
	if !near(got.Lat, want.Lat.Degrees()) || !near(got.Lng, want.Lng.Degrees()) {
		t.Errorf("%s = %v, want %v", what, got, want)
	}
}
