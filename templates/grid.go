// Package templates reads the variable part of GRIB2 sections 3, 4 and 5
// for the supported template numbers, and decodes data section template
// 7.200.
//
// Each section kind has a closed set of template types behind an
// interface. Dispatch functions return an error matching
// tinygrib2.ErrUnsupported for any other template number, since the layout
// of an unknown template cannot be guessed.
package templates

import (
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/sdifrance/tinygrib2"
	"github.com/sdifrance/tinygrib2/internal"
)

// GridTemplate is a parsed grid definition template. The only
// implementation is *LatLonGrid.
type GridTemplate interface {
	GridTemplateNumber() uint16
	// Points returns the number of grid points described.
	Points() uint64
}

// ReadGridTemplate parses the template of gds from body.
func ReadGridTemplate(gds tinygrib2.GridDefinitionSection, body io.Reader) (GridTemplate, error) {
	switch gds.TemplateNumber {
	case 0:
		g, err := readLatLonGrid(body)
		if err != nil {
			return nil, errors.Wrap(err, "grid definition template 3.0")
		}
		return g, nil
	default:
		return nil, internal.Unsupportedf("grid definition template 3.%d", gds.TemplateNumber)
	}
}

// LatLonGrid is grid definition template 3.0, a regular latitude/longitude
// (equidistant cylindrical) grid.
//
// Angles are kept as transmitted. Unless BasicAngle says otherwise they are
// in units of 1e-6 degree; use the accessor methods for degrees.
type LatLonGrid struct {
	ShapeOfEarth           uint8
	ScaleFactorOfRadius    uint8
	ScaledValueOfRadius    uint32
	ScaleFactorOfMajorAxis uint8
	ScaledValueOfMajorAxis uint32
	ScaleFactorOfMinorAxis uint8
	ScaledValueOfMinorAxis uint32
	// Ni is the number of points along a parallel, Nj along a meridian.
	Ni, Nj                      uint32
	BasicAngle                  uint32
	SubdivisionsOfBasicAngle    uint32
	La1, Lo1                    uint32
	ResolutionAndComponentFlags uint8
	La2, Lo2                    uint32
	Di, Dj                      uint32
	ScanningMode                ScanningMode
}

func readLatLonGrid(r io.Reader) (*LatLonGrid, error) {
	/* https://codes.ecmwf.int/grib/format/grib2/templates/3/0/

	15      shapeOfTheEarth
	16      scaleFactorOfRadiusOfSphericalEarth
	17-20   scaledValueOfRadiusOfSphericalEarth
	21      scaleFactorOfEarthMajorAxis
	22-25   scaledValueOfEarthMajorAxis
	26      scaleFactorOfEarthMinorAxis
	27-30   scaledValueOfEarthMinorAxis
	31-34   Ni number of points along a parallel
	35-38   Nj number of points along a meridian
	39-42   basicAngleOfTheInitialProductionDomain
	43-46   subdivisionsOfBasicAngle
	47-50   La1 latitude of first grid point
	51-54   Lo1 longitude of first grid point
	55      resolutionAndComponentFlags
	56-59   La2 latitude of last grid point
	60-63   Lo2 longitude of last grid point
	64-67   Di i direction increment
	68-71   Dj j direction increment
	72      scanningMode
	*/
	fr := internal.NewReader(r)
	g := &LatLonGrid{}
	g.ShapeOfEarth = fr.Uint8()
	g.ScaleFactorOfRadius = fr.Uint8()
	g.ScaledValueOfRadius = fr.Uint32()
	g.ScaleFactorOfMajorAxis = fr.Uint8()
	g.ScaledValueOfMajorAxis = fr.Uint32()
	g.ScaleFactorOfMinorAxis = fr.Uint8()
	g.ScaledValueOfMinorAxis = fr.Uint32()
	g.Ni = fr.Uint32()
	g.Nj = fr.Uint32()
	g.BasicAngle = fr.Uint32()
	g.SubdivisionsOfBasicAngle = fr.Uint32()
	g.La1 = fr.Uint32()
	g.Lo1 = fr.Uint32()
	g.ResolutionAndComponentFlags = fr.Uint8()
	g.La2 = fr.Uint32()
	g.Lo2 = fr.Uint32()
	g.Di = fr.Uint32()
	g.Dj = fr.Uint32()
	g.ScanningMode = ScanningMode(fr.Uint8())
	if err := fr.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// GridTemplateNumber returns 0.
func (g *LatLonGrid) GridTemplateNumber() uint16 { return 0 }

// Points returns Ni*Nj.
func (g *LatLonGrid) Points() uint64 {
	return uint64(g.Ni) * uint64(g.Nj)
}

// unit returns the size in degrees of one unit of the transmitted angles.
func (g *LatLonGrid) unit() float64 {
	if g.BasicAngle == 0 || g.SubdivisionsOfBasicAngle == 0 || g.SubdivisionsOfBasicAngle == math.MaxUint32 {
		return 1e-6
	}
	return float64(g.BasicAngle) / float64(g.SubdivisionsOfBasicAngle)
}

func (g *LatLonGrid) angle(raw uint32) Angle {
	return Angle(float64(internal.SignMagnitude32(raw)) * g.unit())
}

// FirstPoint returns the latitude/longitude of the first grid point.
func (g *LatLonGrid) FirstPoint() LatLng { return LatLng{g.angle(g.La1), g.angle(g.Lo1)} }

// LastPoint returns the latitude/longitude of the last grid point.
func (g *LatLonGrid) LastPoint() LatLng { return LatLng{g.angle(g.La2), g.angle(g.Lo2)} }

// Increments returns the signed i and j increments in degrees. The sign
// follows the scanning direction.
func (g *LatLonGrid) Increments() (di, dj Angle) {
	di = Angle(float64(g.Di) * g.unit())
	dj = Angle(float64(g.Dj) * g.unit())
	if !g.ScanningMode.PointsScanInPlusIDirection() {
		di = -di
	}
	if !g.ScanningMode.PointsScanInPlusJDirection() {
		dj = -dj
	}
	return di, dj
}

// Coordinates returns the location of every grid point in the order the
// data values are stored.
func (g *LatLonGrid) Coordinates() ([]LatLng, error) {
	if n := g.Points(); n > MaxPoints {
		return nil, internal.InvalidDataf("grid of %dx%d points exceeds %d", g.Ni, g.Nj, MaxPoints)
	}
	first := g.FirstPoint()
	di, dj := g.Increments()
	out := make([]LatLng, 0, g.Points())

	if g.ScanningMode.AdjacentPointsInIDirectionAreConsecutive() {
		for j := 0; j < int(g.Nj); j++ {
			lat := first.Lat + Angle(j)*dj
			for i := 0; i < int(g.Ni); i++ {
				out = append(out, LatLng{lat, first.Lng + Angle(i)*di})
			}
		}
	} else {
		for i := 0; i < int(g.Ni); i++ {
			lng := first.Lng + Angle(i)*di
			for j := 0; j < int(g.Nj); j++ {
				out = append(out, LatLng{first.Lat + Angle(j)*dj, lng})
			}
		}
	}
	return out, nil
}

// Angle is an angle in degrees.
type Angle float64

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 { return float64(a) }

// LatLng represents a latitude/longitude point.
type LatLng struct {
	Lat, Lng Angle
}

// String returns a human-readable representation of the lat/lng.
func (ll LatLng) String() string {
	return fmt.Sprintf("%f, %f", ll.Lat.Degrees(), ll.Lng.Degrees())
}

// ScanningMode is the flag table 3.4 value that orders grid points.
type ScanningMode uint8

const (
	pointsScanInMinusIDirection    = 1 << 7
	pointsScanInPlusJDirection     = 1 << 6
	adjPointsJDirectionConsecutive = 1 << 5
)

// PointsScanInPlusIDirection reports whether i increases eastwards.
func (m ScanningMode) PointsScanInPlusIDirection() bool {
	return (m & pointsScanInMinusIDirection) == 0
}

// PointsScanInPlusJDirection reports whether j increases northwards.
func (m ScanningMode) PointsScanInPlusJDirection() bool {
	return (m & pointsScanInPlusJDirection) != 0
}

// AdjacentPointsInIDirectionAreConsecutive reports row-major storage.
func (m ScanningMode) AdjacentPointsInIDirectionAreConsecutive() bool {
	return (m & adjPointsJDirectionConsecutive) == 0
}

func (m ScanningMode) String() string {
	iDir := "-i"
	if m.PointsScanInPlusIDirection() {
		iDir = "+i"
	}
	jDir := "-j"
	if m.PointsScanInPlusJDirection() {
		jDir = "+j"
	}
	adj := "jDirAdj"
	if m.AdjacentPointsInIDirectionAreConsecutive() {
		adj = "iDirAdj"
	}

	return fmt.Sprintf("(%s, %s, %s)", iDir, jDir, adj)
}
