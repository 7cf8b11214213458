// Package fields turns the sections of a GRIB2 stream into decoded fields:
// one grid, one product and one array of values per data section.
package fields

import (
	"io"
	"math"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/sdifrance/tinygrib2"
	"github.com/sdifrance/tinygrib2/internal"
	"github.com/sdifrance/tinygrib2/templates"
)

// Field is one decoded data section together with the sections that
// describe it.
type Field struct {
	// Message is the index of the message in the stream, Index the index of
	// the field within its message.
	Message, Index int

	Discipline     uint8
	Identification tinygrib2.IdentificationSection
	Grid           templates.GridTemplate
	Product        templates.ProductTemplate
	Kind           templates.Kind
	Representation *templates.RunLengthLevels
	Values         []templates.Value
}

// ReferenceTime returns the reference time of the message.
func (f *Field) ReferenceTime() time.Time {
	return f.Identification.ReferenceTime()
}

// Physical returns the values in the units of the parameter, with NaN for
// missing points.
func (f *Field) Physical() []float64 {
	out := make([]float64, len(f.Values))
	for i, v := range f.Values {
		p, ok := f.Representation.Physical(v)
		if !ok {
			p = math.NaN()
		}
		out[i] = p
	}
	return out
}

// Config controls a Collector.
type Config struct {
	// SkipUnsupported logs and skips fields whose grid, product or data
	// representation template is not implemented, instead of failing.
	SkipUnsupported bool
}

// Collector is a tinygrib2.Handler that decodes every field of a stream
// and passes it to a callback. A Collector keeps the state of the message
// being decoded and must not be shared between Readers.
type Collector struct {
	tinygrib2.NopHandler

	cfg  Config
	emit func(*Field) error

	message    int
	index      int
	discipline uint8
	ids        tinygrib2.IdentificationSection

	grid    templates.GridTemplate
	product templates.ProductTemplate
	drs     tinygrib2.DataRepresentationSection
	rep     *templates.RunLengthLevels
	// skipGrid and skipField are set while a skipped template is in scope.
	skipGrid, skipField bool
}

var _ tinygrib2.Handler = (*Collector)(nil)

// NewCollector returns a Collector calling emit for each decoded field.
// An error returned by emit aborts decoding.
func NewCollector(cfg Config, emit func(*Field) error) *Collector {
	return &Collector{cfg: cfg, emit: emit, message: -1}
}

// Decode reads every message of r and returns the decoded fields.
func Decode(r io.Reader, cfg Config) ([]*Field, error) {
	var out []*Field
	c := NewCollector(cfg, func(f *Field) error {
		out = append(out, f)
		return nil
	})
	if _, err := tinygrib2.NewReader(r, c).ReadAll(); err != nil {
		return out, err
	}
	return out, nil
}

// HandleIndicator starts a new message.
func (c *Collector) HandleIndicator(is tinygrib2.IndicatorSection) error {
	c.message++
	c.index = 0
	c.discipline = is.Discipline
	c.ids = tinygrib2.IdentificationSection{}
	c.resetGrid()
	return nil
}

func (c *Collector) resetGrid() {
	c.grid = nil
	c.skipGrid = false
	c.resetField()
}

func (c *Collector) resetField() {
	c.product = nil
	c.rep = nil
	c.drs = tinygrib2.DataRepresentationSection{}
	c.skipField = false
}

// HandleIdentification records the reference time of the message.
func (c *Collector) HandleIdentification(ids tinygrib2.IdentificationSection, _ io.Reader) error {
	c.ids = ids
	return nil
}

// HandleGridDefinition parses the grid shared by the following fields.
func (c *Collector) HandleGridDefinition(gds tinygrib2.GridDefinitionSection, body io.Reader) error {
	c.resetGrid()
	g, err := templates.ReadGridTemplate(gds, body)
	if err != nil {
		c.skipGrid, err = c.skippable(err)
		return err
	}
	if got, want := g.Points(), uint64(gds.NumberOfDataPoints); got != want {
		return internal.InvalidDataf("grid template describes %d points, section 3 declares %d", got, want)
	}
	c.grid = g
	return nil
}

// HandleProductDefinition parses the product of the next field.
func (c *Collector) HandleProductDefinition(pds tinygrib2.ProductDefinitionSection, body io.Reader) error {
	c.resetField()
	if c.skipGrid {
		return nil
	}
	p, err := templates.ReadProductTemplate(pds, body)
	if err != nil {
		c.skipField, err = c.skippable(err)
		return err
	}
	c.product = p
	return nil
}

// HandleDataRepresentation parses the packing of the next field.
func (c *Collector) HandleDataRepresentation(drs tinygrib2.DataRepresentationSection, body io.Reader) error {
	if c.skipGrid || c.skipField {
		return nil
	}
	t, err := templates.ReadDataRepresentationTemplate(drs, body)
	if err != nil {
		c.skipField, err = c.skippable(err)
		return err
	}
	rep, ok := t.(*templates.RunLengthLevels)
	if !ok {
		return internal.Unsupportedf("data representation template 5.%d", t.DataRepresentationTemplateNumber())
	}
	c.drs = drs
	c.rep = rep
	return nil
}

// HandleBitmap rejects fields with a bit-map, which is not applied.
func (c *Collector) HandleBitmap(bms tinygrib2.BitmapSection, _ io.Reader) error {
	if c.skipGrid || c.skipField || bms.Indicator == tinygrib2.BitmapIndicatorNone {
		return nil
	}
	var err error
	c.skipField, err = c.skippable(internal.Unsupportedf("bit-map indicator %d", bms.Indicator))
	return err
}

// HandleData decodes the values of the field and emits it.
func (c *Collector) HandleData(ds tinygrib2.DataSection, body io.Reader) error {
	defer func() { c.index++ }()
	if c.skipGrid || c.skipField {
		return nil
	}
	switch {
	case c.grid == nil:
		return internal.InvalidDataf("data section without a grid definition")
	case c.product == nil:
		return internal.InvalidDataf("data section without a product definition")
	case c.rep == nil:
		return internal.InvalidDataf("data section without a data representation")
	}

	values, err := templates.DecodeRunLength(body, ds.BodyLen(), c.drs, c.rep)
	if err != nil {
		return errors.Wrap(err, "data template 7.200")
	}
	if got, want := uint64(len(values)), c.grid.Points(); got != want {
		return internal.InvalidDataf("decoded %d values for a grid of %d points", got, want)
	}
	f := &Field{
		Message:        c.message,
		Index:          c.index,
		Discipline:     c.discipline,
		Identification: c.ids,
		Grid:           c.grid,
		Product:        c.product,
		Kind:           templates.Classify(c.product),
		Representation: c.rep,
		Values:         values,
	}
	glog.V(1).Infof("message %d field %d: %s, %d values", f.Message, f.Index, f.Kind, len(values))
	return c.emit(f)
}

// skippable reports whether err may be skipped under the configuration,
// returning nil in its place if so.
func (c *Collector) skippable(err error) (bool, error) {
	if c.cfg.SkipUnsupported && errors.Is(err, tinygrib2.ErrUnsupported) {
		glog.Warningf("message %d field %d: skipping: %v", c.message, c.index, err)
		return true, nil
	}
	return false, err
}
