package tinygrib2

import (
	"bufio"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/sdifrance/tinygrib2/internal"
)

// Handler receives the sections of each message in stream order.
//
// Every method except HandleIndicator is given a reader bounded to the body
// of its section. A handler may read all, part or none of it: whatever is
// left is discarded by the Reader once the method returns, so the next
// section is always read from its first octet.
//
// Returning an error aborts the message being decoded.
type Handler interface {
	HandleIndicator(is IndicatorSection) error
	HandleIdentification(ids IdentificationSection, body io.Reader) error
	HandleLocalUse(loc LocalUseSection, body io.Reader) error
	HandleGridDefinition(gds GridDefinitionSection, body io.Reader) error
	HandleProductDefinition(pds ProductDefinitionSection, body io.Reader) error
	HandleDataRepresentation(drs DataRepresentationSection, body io.Reader) error
	HandleBitmap(bms BitmapSection, body io.Reader) error
	HandleData(ds DataSection, body io.Reader) error
}

// NopHandler implements Handler by ignoring every section. Embed it to
// handle only the sections you need.
type NopHandler struct{}

func (NopHandler) HandleIndicator(IndicatorSection) error                              { return nil }
func (NopHandler) HandleIdentification(IdentificationSection, io.Reader) error         { return nil }
func (NopHandler) HandleLocalUse(LocalUseSection, io.Reader) error                     { return nil }
func (NopHandler) HandleGridDefinition(GridDefinitionSection, io.Reader) error         { return nil }
func (NopHandler) HandleProductDefinition(ProductDefinitionSection, io.Reader) error   { return nil }
func (NopHandler) HandleDataRepresentation(DataRepresentationSection, io.Reader) error { return nil }
func (NopHandler) HandleBitmap(BitmapSection, io.Reader) error                         { return nil }
func (NopHandler) HandleData(DataSection, io.Reader) error                             { return nil }

var _ Handler = NopHandler{}

// magic is the identifier that starts every message.
var magic = [4]byte{'G', 'R', 'I', 'B'}

// Reader decodes a stream of GRIB2 messages, passing each section to a
// Handler. A Reader is not safe for concurrent use.
type Reader struct {
	r        *countingReader
	h        Handler
	messages int
}

// NewReader returns a Reader decoding messages from r into h.
//
// If r does not implement io.ByteReader it is buffered, and the Reader may
// read past the end of the last decoded message. Readers that already
// implement io.ByteReader, such as *bufio.Reader or *bytes.Reader, are read
// directly and are left positioned at Offset.
func NewReader(r io.Reader, h Handler) *Reader {
	if _, ok := r.(io.ByteReader); !ok {
		r = bufio.NewReader(r)
	}
	return &Reader{
		r: &countingReader{r: r},
		h: h,
	}
}

// Offset returns the number of octets consumed from the stream so far.
func (r *Reader) Offset() int64 {
	return r.r.n
}

// ReadAll decodes messages until the end of the stream and returns how
// many were decoded.
func (r *Reader) ReadAll() (int, error) {
	count := 0
	for {
		ok, err := r.Next()
		if err != nil {
			return count, err
		}
		if !ok {
			return count, nil
		}
		count++
	}
}

// Next decodes the next message. It returns false with a nil error when
// the stream ends cleanly before a message starts.
func (r *Reader) Next() (bool, error) {
	start := r.r.n
	var got [4]byte
	n, err := io.ReadFull(r.r, got[:])
	switch {
	case err == io.EOF && n == 0:
		return false, nil
	case err != nil:
		return false, errors.Wrapf(err, "message %d at byte offset %d: reading identifier", r.messages, start)
	case got != magic:
		return false, errors.Wrapf(internal.InvalidDataf("message identifier must be %q, but got %q", magic[:], got[:]),
			"message %d at byte offset %d", r.messages, start)
	}

	if err := r.readMessage(); err != nil {
		return false, errors.Wrapf(err, "message %d starting at byte offset %d, failed near offset %d", r.messages, start, r.r.n)
	}
	glog.V(1).Infof("decoded message %d: %d octets at byte offset %d", r.messages, r.r.n-start, start)
	r.messages++
	return true, nil
}

// readMessage walks the sections of one message following the "GRIB"
// identifier. Sections 2 to 7 may repeat: 4 to 7 for another field on the
// same grid, 2 or 3 to start a new grid.
func (r *Reader) readMessage() error {
	// 0. Indicator section
	is, err := readIndicatorSection(r.r)
	if err != nil {
		return errors.Wrap(err, "section 0")
	}
	glog.V(2).Infof("read indicator section %+v", is)
	if err := r.h.HandleIndicator(is); err != nil {
		return errors.Wrap(err, "handling section 0")
	}

	// 1. Identification section
	h, err := r.header(false)
	if err != nil {
		return err
	}
	ids, err := readIdentificationSection(h, r.r)
	if err != nil {
		return errors.Wrap(err, "section 1")
	}
	if err := r.body(1, ids.BodyLen(), func(body io.Reader) error {
		return r.h.HandleIdentification(ids, body)
	}); err != nil {
		return err
	}

	if h, err = r.header(false); err != nil {
		return err
	}
	for {
		// 2. Local use section
		if h.Number == 2 {
			loc, err := readLocalUseSection(h)
			if err != nil {
				return errors.Wrap(err, "section 2")
			}
			if err := r.body(2, loc.BodyLen(), func(body io.Reader) error {
				return r.h.HandleLocalUse(loc, body)
			}); err != nil {
				return err
			}
			if h, err = r.header(false); err != nil {
				return err
			}
		}

		// 3. Grid definition section
		gds, err := readGridDefinitionSection(h, r.r)
		if err != nil {
			return errors.Wrap(err, "section 3")
		}
		if err := r.body(3, gds.BodyLen(), func(body io.Reader) error {
			return r.h.HandleGridDefinition(gds, body)
		}); err != nil {
			return err
		}
		if h, err = r.header(false); err != nil {
			return err
		}

		for {
			if err := r.readField(h); err != nil {
				return err
			}
			if h, err = r.header(true); err != nil {
				return err
			}
			switch h.Number {
			case 4:
				continue
			case 2, 3:
			case 8:
				return nil
			default:
				return internal.InvalidDataf("invalid section number %d after section 7", h.Number)
			}
			break
		}
	}
}

// readField reads sections 4 to 7, starting with the already read header
// of section 4.
func (r *Reader) readField(h SectionHeader) error {
	// 4. Product definition section
	pds, err := readProductDefinitionSection(h, r.r)
	if err != nil {
		return errors.Wrap(err, "section 4")
	}
	if err := r.body(4, pds.BodyLen(), func(body io.Reader) error {
		return r.h.HandleProductDefinition(pds, body)
	}); err != nil {
		return err
	}

	// 5. Data representation section
	if h, err = r.header(false); err != nil {
		return err
	}
	drs, err := readDataRepresentationSection(h, r.r)
	if err != nil {
		return errors.Wrap(err, "section 5")
	}
	if err := r.body(5, drs.BodyLen(), func(body io.Reader) error {
		return r.h.HandleDataRepresentation(drs, body)
	}); err != nil {
		return err
	}

	// 6. Bit-map section
	if h, err = r.header(false); err != nil {
		return err
	}
	bms, err := readBitmapSection(h, r.r)
	if err != nil {
		return errors.Wrap(err, "section 6")
	}
	if err := r.body(6, bms.BodyLen(), func(body io.Reader) error {
		return r.h.HandleBitmap(bms, body)
	}); err != nil {
		return err
	}

	// 7. Data section
	if h, err = r.header(false); err != nil {
		return err
	}
	ds, err := readDataSection(h)
	if err != nil {
		return errors.Wrap(err, "section 7")
	}
	return r.body(7, ds.BodyLen(), func(body io.Reader) error {
		return r.h.HandleData(ds, body)
	})
}

func (r *Reader) header(allowEnd bool) (SectionHeader, error) {
	offset := r.r.n
	h, err := readSectionHeader(r.r, allowEnd)
	if err != nil {
		return SectionHeader{}, errors.Wrapf(err, "reading section header at byte offset %d", offset)
	}
	glog.V(2).Infof("section %d: %d octets at byte offset %d", h.Number, h.Length, offset)
	return h, nil
}

// body hands a reader bounded to the next size octets to handle, then
// discards whatever handle left unread.
func (r *Reader) body(section int, size uint32, handle func(io.Reader) error) error {
	lr := &io.LimitedReader{R: r.r, N: int64(size)}
	if err := handle(lr); err != nil {
		return errors.Wrapf(err, "handling section %d", section)
	}
	if _, err := io.Copy(io.Discard, lr); err != nil {
		return errors.Wrapf(err, "skipping section %d", section)
	}
	if lr.N != 0 {
		return errors.Wrapf(io.ErrUnexpectedEOF, "section %d: %d of %d octets missing", section, lr.N, size)
	}
	return nil
}

// countingReader counts the octets read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
