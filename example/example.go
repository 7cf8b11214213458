package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/sdifrance/tinygrib2"
	"github.com/sdifrance/tinygrib2/fields"
	"github.com/sdifrance/tinygrib2/gribio"
	"github.com/sdifrance/tinygrib2/inventory"
	"github.com/sdifrance/tinygrib2/templates"
)

var (
	input           = flag.String("input", "", "Path to the input grib2 file.")
	dbPath          = flag.String("db", "", "Path to an inventory database to record the fields in. Empty to skip.")
	values          = flag.Int("values", 0, "Number of values to print per field.")
	kind            = flag.String("kind", "", "Only report fields of this kind, e.g. \"Total precipitation\".")
	skipUnsupported = flag.Bool("skip_unsupported", false, "Skip fields with unsupported templates instead of failing.")
)

func main() {
	flag.Parse()
	if err := run(context.Background()); err != nil {
		glog.Exitf("got fatal error: %v", err)
	}
}

func run(_ context.Context) error {
	if *input == "" {
		return fmt.Errorf("-input is required")
	}
	f, err := os.Open(*input)
	if err != nil {
		return err
	}
	defer f.Close()

	extents, err := gribio.Scan(f)
	if err != nil {
		return fmt.Errorf("error scanning grib file contents: %w", err)
	}
	glog.Infof("%s: %d messages", *input, len(extents))

	if *dbPath != "" {
		if err := record(f, extents); err != nil {
			return err
		}
	}

	var decoded []*fields.Field
	c := fields.NewCollector(fields.Config{SkipUnsupported: *skipUnsupported}, func(fld *fields.Field) error {
		decoded = append(decoded, fld)
		return nil
	})
	for _, e := range extents {
		if _, err := tinygrib2.NewReader(e.Section(f), c).Next(); err != nil {
			return fmt.Errorf("error decoding message %d at byte offset %d: %w", e.Index, e.Offset, err)
		}
	}

	if *kind != "" {
		decoded = filter(decoded, func(fld *fields.Field) bool {
			return strings.EqualFold(fld.Kind.String(), *kind)
		})
	}
	for _, fld := range decoded {
		report(fld)
	}
	return nil
}

// record writes the inventory of every extent to the database.
func record(f *os.File, extents []gribio.Extent) error {
	db, err := inventory.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	scan, err := db.BeginScan(*input)
	if err != nil {
		return err
	}
	rec := inventory.NewRecorder(db, scan)
	for _, e := range extents {
		if _, err := tinygrib2.NewReader(e.Section(f), rec).Next(); err != nil {
			return fmt.Errorf("error recording message %d: %w", e.Index, err)
		}
	}
	if err := db.FinishScan(scan); err != nil {
		return err
	}
	counts, err := db.CountByKind(scan.ID)
	if err != nil {
		return err
	}
	glog.Infof("scan %s: %d fields by kind: %v", scan.ID, scan.Fields, counts)
	return nil
}

func report(fld *fields.Field) {
	var grid string
	if g, ok := fld.Grid.(*templates.LatLonGrid); ok {
		grid = fmt.Sprintf("%dx%d from %v to %v", g.Ni, g.Nj, g.FirstPoint(), g.LastPoint())
	}
	fmt.Printf("message %d field %d: %s (discipline %d, template 4.%d) at %s, grid %s, %d values\n",
		fld.Message, fld.Index, fld.Kind, fld.Discipline, fld.Product.ProductTemplateNumber(),
		fld.ReferenceTime().Format("2006-01-02T15:04:05Z"), grid, len(fld.Values))

	n := min(*values, len(fld.Values))
	if n <= 0 {
		return
	}
	physical := fld.Physical()[:n]
	parts := make([]string, n)
	for i, v := range physical {
		if math.IsNaN(v) {
			parts[i] = "missing"
			continue
		}
		parts[i] = fmt.Sprintf("%g", v)
	}
	fmt.Printf("  %s\n", strings.Join(parts, " "))
}

func filter[E any](slice []E, predicate func(E) bool) []E {
	var out []E
	for _, e := range slice {
		if predicate(e) {
			out = append(out, e)
		}
	}
	return out
}
