package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/jpgoodman17/SPN-Site-Search/internal/models"
)

// resultRow is one line of the results file. Cells are pre-formatted so
// degraded rows can leave everything but address and error blank.
type resultRow struct {
	Address           string `csv:"address"`
	PriceUSD          string `csv:"price_usd"`
	Acres             string `csv:"acres"`
	Lat               string `csv:"lat"`
	Lon               string `csv:"lon"`
	Utility           string `csv:"utility"`
	Municipality      string `csv:"municipality"`
	County            string `csv:"county"`
	EstClearedAcres   string `csv:"est_cleared_acres"`
	DECWetlandsAc     string `csv:"dec_wetlands_ac"`
	DECAdjacentAreaAc string `csv:"dec_adjacent_area_ac"`
	NWIAc             string `csv:"nwi_ac"`
	EstBuildableAcres string `csv:"est_buildable_acres"`
	ReqDCKW           string `csv:"req_dc_kw"`
	ReqACMW           string `csv:"req_ac_mw"`
	HCFeederBestMW    string `csv:"hc_feeder_best_mw"`
	Decision          string `csv:"decision"`
	Notes             string `csv:"notes"`
	Error             string `csv:"error"`
}

// ResultHeader is the column order of the results file.
var ResultHeader = []string{
	"address", "price_usd", "acres", "lat", "lon", "utility", "municipality", "county",
	"est_cleared_acres", "dec_wetlands_ac", "dec_adjacent_area_ac", "nwi_ac",
	"est_buildable_acres", "req_dc_kw", "req_ac_mw", "hc_feeder_best_mw",
	"decision", "notes", "error",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toResultRow(o models.RowOutcome) resultRow {
	if o.Failed() {
		return resultRow{Address: o.Address, Error: o.Error}
	}
	r := o.Result
	return resultRow{
		Address:           r.Address,
		PriceUSD:          formatFloat(r.PriceUSD),
		Acres:             formatFloat(r.Acres),
		Lat:               formatFloat(r.Lat),
		Lon:               formatFloat(r.Lon),
		Utility:           r.Utility,
		Municipality:      r.Municipality,
		County:            r.County,
		EstClearedAcres:   formatFloat(r.EstClearedAcres),
		DECWetlandsAc:     formatFloat(r.DECWetlandsAc),
		DECAdjacentAreaAc: formatFloat(r.DECAdjacentAreaAc),
		NWIAc:             formatFloat(r.NWIAc),
		EstBuildableAcres: formatFloat(r.EstBuildableAcres),
		ReqDCKW:           formatFloat(r.ReqDCKW),
		ReqACMW:           formatFloat(r.ReqACMW),
		HCFeederBestMW:    formatFloat(r.HCFeederBestMW),
		Decision:          string(r.Decision),
		Notes:             r.Notes,
	}
}

// WriteOutcomes writes a header and one line per outcome, in order.
func WriteOutcomes(w io.Writer, outcomes []models.RowOutcome) error {
	rows := make([]resultRow, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, toResultRow(o))
	}
	return encodeAll(w, resultRow{}, rows)
}

// WriteParcels writes rows in the input file layout.
func WriteParcels(w io.Writer, rows []models.RawParcelRow) error {
	return encodeAll(w, models.RawParcelRow{}, rows)
}

// encodeAll writes the header of proto even when rows is empty.
func encodeAll[T any](w io.Writer, proto T, rows []T) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false

	if err := enc.EncodeHeader(proto); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "csv: write row %d", i+1)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "csv: flush")
	}
	return nil
}
