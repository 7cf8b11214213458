package templates

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sdifrance/tinygrib2"
	"github.com/sdifrance/tinygrib2/internal"
)

// ProductTemplate is a parsed product definition template: one of
// *AnalysisForecast (4.0), *StatisticalProduct (4.8) or
// *LocalStatisticalProduct (4.50011).
type ProductTemplate interface {
	ProductTemplateNumber() uint16
	// Level returns the fields shared by every supported template.
	Level() *HorizontalLevel
}

// ReadProductTemplate parses the template of pds from body.
func ReadProductTemplate(pds tinygrib2.ProductDefinitionSection, body io.Reader) (ProductTemplate, error) {
	var t ProductTemplate
	fr := internal.NewReader(body)
	switch pds.TemplateNumber {
	case 0:
		t = &AnalysisForecast{HorizontalLevel: readHorizontalLevel(fr)}
	case 8:
		t = readStatisticalProduct(fr)
	case 50011:
		t = readLocalStatisticalProduct(fr)
	default:
		return nil, internal.Unsupportedf("product definition template 4.%d", pds.TemplateNumber)
	}
	if err := fr.Err(); err != nil {
		return nil, errors.Wrapf(err, "product definition template 4.%d", pds.TemplateNumber)
	}
	return t, nil
}

// Surface is a fixed surface: its type (code table 4.5) and its scaled
// value.
type Surface struct {
	Type        uint8
	ScaleFactor uint8
	ScaledValue uint32
}

// HorizontalLevel holds the fields of template 4.0, which the statistical
// templates extend. ParameterCategory and ParameterNumber identify the
// variable within the message discipline.
type HorizontalLevel struct {
	ParameterCategory uint8
	ParameterNumber   uint8
	// TypeOfGeneratingProcess is code table 4.3: 0 analysis, 2 forecast...
	TypeOfGeneratingProcess    uint8
	BackgroundProcess          uint8
	ForecastProcess            uint8
	HoursOfObservationCutoff   uint16
	MinutesOfObservationCutoff uint8
	UnitOfTimeRange            uint8
	ForecastTime               uint32
	FirstSurface               Surface
	SecondSurface              Surface
}

// Level returns l.
func (l *HorizontalLevel) Level() *HorizontalLevel { return l }

func readHorizontalLevel(fr *internal.Reader) HorizontalLevel {
	/* https://codes.ecmwf.int/grib/format/grib2/templates/4/0/

	10      parameterCategory
	11      parameterNumber
	12      typeOfGeneratingProcess
	13      backgroundProcess
	14      generatingProcessIdentifier
	15-16   hoursAfterDataCutoff
	17      minutesAfterDataCutoff
	18      indicatorOfUnitOfTimeRange
	19-22   forecastTime
	23-28   first fixed surface: type, scale factor, scaled value
	29-34   second fixed surface: type, scale factor, scaled value
	*/
	var l HorizontalLevel
	l.ParameterCategory = fr.Uint8()
	l.ParameterNumber = fr.Uint8()
	l.TypeOfGeneratingProcess = fr.Uint8()
	l.BackgroundProcess = fr.Uint8()
	l.ForecastProcess = fr.Uint8()
	l.HoursOfObservationCutoff = fr.Uint16()
	l.MinutesOfObservationCutoff = fr.Uint8()
	l.UnitOfTimeRange = fr.Uint8()
	l.ForecastTime = fr.Uint32()
	l.FirstSurface = readSurface(fr)
	l.SecondSurface = readSurface(fr)
	return l
}

func readSurface(fr *internal.Reader) Surface {
	var s Surface
	s.Type = fr.Uint8()
	s.ScaleFactor = fr.Uint8()
	s.ScaledValue = fr.Uint32()
	return s
}

// AnalysisForecast is product definition template 4.0: analysis or
// forecast at a horizontal level or in a horizontal layer at a point in
// time.
type AnalysisForecast struct {
	HorizontalLevel
}

// ProductTemplateNumber returns 0.
func (t *AnalysisForecast) ProductTemplateNumber() uint16 { return 0 }

// Statistical processes (code table 4.10).
const (
	StatisticalProcessAverage      = 0
	StatisticalProcessAccumulation = 1
	StatisticalProcessMaximum      = 2
	StatisticalProcessMinimum      = 3
)

// TimeRange describes one step of the statistical processing of a 4.8
// product.
type TimeRange struct {
	// StatisticalProcess is code table 4.10: average, accumulation, maximum...
	StatisticalProcess  uint8
	TypeOfTimeIncrement uint8
	UnitOfTime          uint8
	Length              uint32
	UnitOfIncrement     uint8
	Increment           uint32
}

// StatisticalProduct is product definition template 4.8: average,
// accumulation, extreme or other statistically processed values over a
// time interval.
type StatisticalProduct struct {
	HorizontalLevel
	// End of the overall time interval.
	Year                  uint16
	Month, Day            uint8
	Hour, Minute, Second  uint8
	NumberOfMissingValues uint32
	TimeRanges            []TimeRange
}

// ProductTemplateNumber returns 8.
func (t *StatisticalProduct) ProductTemplateNumber() uint16 { return 8 }

// EndOfInterval returns the end of the overall time interval in UTC.
func (t *StatisticalProduct) EndOfInterval() time.Time {
	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day), int(t.Hour), int(t.Minute), int(t.Second), 0, time.UTC)
}

// StatisticalProcess returns the process of the first time range, or false
// when there is none.
func (t *StatisticalProduct) StatisticalProcess() (uint8, bool) {
	if len(t.TimeRanges) == 0 {
		return 0, false
	}
	return t.TimeRanges[0].StatisticalProcess, true
}

func readStatisticalProduct(fr *internal.Reader) *StatisticalProduct {
	/* https://codes.ecmwf.int/grib/format/grib2/templates/4/8/

	10-34   as template 4.0
	35-41   end of overall time interval: year (2), month, day, hour, minute, second
	42      n number of time range specifications
	43-46   total number of data values missing in statistical process
	47-58   time range specification, repeated n times:
	        statistical process, type of time increment, unit of time range,
	        length of time range (4), unit of increment, time increment (4)
	*/
	t := &StatisticalProduct{HorizontalLevel: readHorizontalLevel(fr)}
	t.Year = fr.Uint16()
	t.Month = fr.Uint8()
	t.Day = fr.Uint8()
	t.Hour = fr.Uint8()
	t.Minute = fr.Uint8()
	t.Second = fr.Uint8()
	n := fr.Uint8()
	t.NumberOfMissingValues = fr.Uint32()
	if fr.Err() != nil {
		return t
	}
	t.TimeRanges = make([]TimeRange, 0, n)
	for i := 0; i < int(n); i++ {
		var tr TimeRange
		tr.StatisticalProcess = fr.Uint8()
		tr.TypeOfTimeIncrement = fr.Uint8()
		tr.UnitOfTime = fr.Uint8()
		tr.Length = fr.Uint32()
		tr.UnitOfIncrement = fr.Uint8()
		tr.Increment = fr.Uint32()
		if fr.Err() != nil {
			return t
		}
		t.TimeRanges = append(t.TimeRanges, tr)
	}
	return t
}

// LocalStatisticalProduct is the JMA local product definition template
// 4.50011, used for high-resolution precipitation nowcasts: a list of
// generating process identifiers followed by a 4.8 layout.
type LocalStatisticalProduct struct {
	ProcessIdentifiers []uint16
	StatisticalProduct
}

// ProductTemplateNumber returns 50011.
func (t *LocalStatisticalProduct) ProductTemplateNumber() uint16 { return 50011 }

func readLocalStatisticalProduct(fr *internal.Reader) *LocalStatisticalProduct {
	t := &LocalStatisticalProduct{}
	k := fr.Uint8()
	if fr.Err() != nil {
		return t
	}
	t.ProcessIdentifiers = make([]uint16, 0, k)
	for i := 0; i < int(k); i++ {
		t.ProcessIdentifiers = append(t.ProcessIdentifiers, fr.Uint16())
	}
	if fr.Err() != nil {
		return t
	}
	t.StatisticalProduct = *readStatisticalProduct(fr)
	return t
}
