// Package lifelist ingests life-list CSV exports into the life-list map
// the recommenders consume.
package lifelist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/vireo/internal/domain/model"
)

// dateLayout is the export's "DD Mon YYYY" date form.
const dateLayout = "02 Jan 2006"

// Required CSV columns.
const (
	colScientificName = "Scientific Name"
	colDate           = "Date"
)

// ErrUnknownSpecies marks rows whose scientific name has no taxonomy entry.
var ErrUnknownSpecies = errors.New("unknown species in life list")

// Parse reads life-list rows and resolves scientific names to species codes
// through the taxonomy map. Rows with unknown names are reported through
// the returned error; the rest of the list is still returned. When a
// species appears more than once the earliest date wins.
func Parse(r io.Reader, sciNameToCode map[string]string) (model.LifeList, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read life list header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{colScientificName, colDate} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: life list missing column %q", model.ErrInvalidArgument, required)
		}
	}

	lifeList := make(model.LifeList)
	var errs []error
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read life list row %d: %w", line, err)
		}

		sciName := row[cols[colScientificName]]
		code, ok := sciNameToCode[sciName]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q (row %d)", ErrUnknownSpecies, sciName, line))
			continue
		}
		first, err := time.Parse(dateLayout, row[cols[colDate]])
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: bad date %q: %w", line, row[cols[colDate]], err))
			continue
		}
		if existing, seen := lifeList[code]; !seen || first.Before(existing) {
			lifeList[code] = first
		}
	}
	return lifeList, errors.Join(errs...)
}

// ParseFile parses a life-list CSV from a file path.
func ParseFile(path string, sciNameToCode map[string]string) (model.LifeList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open life list: %w", err)
	}
	defer f.Close()
	return Parse(f, sciNameToCode)
}
