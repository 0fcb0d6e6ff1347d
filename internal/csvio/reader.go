// Package csvio reads parcel input files and writes screening results.
package csvio

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

// ErrEmptyInput is returned for input without a header line.
var ErrEmptyInput = eris.New("csv input has no header")

// paddedReader makes every record as wide as the header so short or long
// rows decode instead of failing the whole file.
type paddedReader struct {
	r     *csv.Reader
	width int
}

func (p *paddedReader) Read() ([]string, error) {
	rec, err := p.r.Read()
	if err != nil {
		return nil, err
	}
	switch {
	case len(rec) < p.width:
		rec = append(rec, make([]string, p.width-len(rec))...)
	case len(rec) > p.width:
		rec = rec[:p.width]
	}
	return rec, nil
}

// ReadParcels decodes every record of r. Required columns missing from the
// header are recorded on each row rather than failing the read, so each row
// fails on its own when parsed. Malformed CSV is an error.
func ReadParcels(r io.Reader) ([]models.RawParcelRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	missing := missingColumns(header)

	dec, err := csvutil.NewDecoder(&paddedReader{r: cr, width: len(header)}, header...)
	if err != nil {
		return nil, eris.Wrap(err, "csv: init decoder")
	}

	rows := []models.RawParcelRow{}
	for {
		var row models.RawParcelRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "csv: decode row %d", len(rows)+1)
		}
		if len(missing) > 0 {
			row.Missing = missing
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func missingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, col := range models.RequiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
