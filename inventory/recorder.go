package inventory

import (
	"errors"
	"io"

	"github.com/golang/glog"
	"github.com/sdifrance/tinygrib2"
	"github.com/sdifrance/tinygrib2/templates"
)

// Recorder is a tinygrib2.Handler that writes one Entry per field of a
// scan. It parses the product template to classify each field and leaves
// the data payload unread.
type Recorder struct {
	tinygrib2.NopHandler

	db   *DB
	scan *Scan

	message int
	entry   Entry
}

var _ tinygrib2.Handler = (*Recorder)(nil)

// NewRecorder returns a Recorder adding the fields it sees to scan.
func NewRecorder(db *DB, scan *Scan) *Recorder {
	return &Recorder{db: db, scan: scan, message: -1}
}

// HandleIndicator starts a new message.
func (r *Recorder) HandleIndicator(is tinygrib2.IndicatorSection) error {
	r.message++
	r.scan.Messages++
	r.entry = Entry{ScanID: r.scan.ID, Message: r.message, Discipline: is.Discipline}
	return nil
}

// HandleIdentification records the reference time.
func (r *Recorder) HandleIdentification(ids tinygrib2.IdentificationSection, _ io.Reader) error {
	r.entry.ReferenceTime = ids.ReferenceTime()
	return nil
}

// HandleGridDefinition records the grid template and its size.
func (r *Recorder) HandleGridDefinition(gds tinygrib2.GridDefinitionSection, _ io.Reader) error {
	r.entry.GridTemplate = gds.TemplateNumber
	r.entry.Points = gds.NumberOfDataPoints
	return nil
}

// HandleProductDefinition classifies the field. Products with an
// unsupported template are recorded as unknown.
func (r *Recorder) HandleProductDefinition(pds tinygrib2.ProductDefinitionSection, body io.Reader) error {
	r.entry.ProductTemplate = pds.TemplateNumber
	r.entry.Category, r.entry.Number = 0, 0
	r.entry.Kind = templates.KindUnknown.String()

	p, err := templates.ReadProductTemplate(pds, body)
	switch {
	case errors.Is(err, tinygrib2.ErrUnsupported):
		glog.V(1).Infof("message %d: %v", r.message, err)
		return nil
	case err != nil:
		return err
	}
	r.entry.Category = p.Level().ParameterCategory
	r.entry.Number = p.Level().ParameterNumber
	r.entry.Kind = templates.Classify(p).String()
	return nil
}

// HandleDataRepresentation records the packing of the field.
func (r *Recorder) HandleDataRepresentation(drs tinygrib2.DataRepresentationSection, _ io.Reader) error {
	r.entry.DataTemplate = drs.TemplateNumber
	r.entry.NumberOfValues = drs.NumberOfValues
	return nil
}

// HandleData stores the entry.
func (r *Recorder) HandleData(ds tinygrib2.DataSection, _ io.Reader) error {
	r.entry.DataLength = ds.BodyLen()
	if _, err := r.db.Insert(r.entry); err != nil {
		return err
	}
	r.scan.Fields++
	r.entry.Index++
	return nil
}
