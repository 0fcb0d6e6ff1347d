package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

// Input column names.
const (
	ColumnAddress     = "address"
	ColumnCity        = "city"
	ColumnState       = "state"
	ColumnZip         = "zip"
	ColumnPriceUSD    = "price_usd"
	ColumnAcres       = "acres"
	ColumnLat         = "lat"
	ColumnLon         = "lon"
	ColumnClearedHint = "cleared_hint"
)

// RequiredColumns must appear in every input header. cleared_hint is optional.
var RequiredColumns = []string{
	ColumnAddress, ColumnCity, ColumnState, ColumnZip,
	ColumnPriceUSD, ColumnAcres, ColumnLat, ColumnLon,
}

// Row-fatal parse errors.
var (
	ErrMissingColumn  = eris.New("missing column")
	ErrMalformedField = eris.New("malformed field")
	ErrInvalidParcel  = eris.New("invalid parcel")
)

// RawParcelRow is one input record with every cell kept as text.
type RawParcelRow struct {
	Address     string `csv:"address"`
	City        string `csv:"city"`
	State       string `csv:"state"`
	Zip         string `csv:"zip"`
	PriceUSD    string `csv:"price_usd"`
	Acres       string `csv:"acres"`
	Lat         string `csv:"lat"`
	Lon         string `csv:"lon"`
	ClearedHint string `csv:"cleared_hint,omitempty"`

	// Missing lists required columns absent from the input header.
	Missing []string `csv:"-"`
}

// ParcelInput is a parsed, validated candidate site.
type ParcelInput struct {
	Address     string  `json:"address"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	Zip         string  `json:"zip"`
	PriceUSD    float64 `json:"price_usd"`
	Acres       float64 `json:"acres" validate:"gt=0"`
	Lat         float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon         float64 `json:"lon" validate:"gte=-180,lte=180"`
	ClearedHint string  `json:"cleared_hint,omitempty"`
}

// FullAddress joins the address parts as "street, city, state zip".
func (p ParcelInput) FullAddress() string {
	return fmt.Sprintf("%s, %s, %s %s", p.Address, p.City, p.State, p.Zip)
}

var validate = validator.New()

// ParseParcelRow converts a raw row into a ParcelInput. Missing columns,
// unparseable or non-finite numbers and out-of-range values are errors.
func ParseParcelRow(raw RawParcelRow) (ParcelInput, error) {
	if len(raw.Missing) > 0 {
		return ParcelInput{}, eris.Wrapf(ErrMissingColumn, "%s", strings.Join(raw.Missing, ", "))
	}

	in := ParcelInput{
		Address:     raw.Address,
		City:        raw.City,
		State:       raw.State,
		Zip:         raw.Zip,
		ClearedHint: raw.ClearedHint,
	}

	var err error
	if in.PriceUSD, err = parseNumber(ColumnPriceUSD, raw.PriceUSD); err != nil {
		return ParcelInput{}, err
	}
	if in.Acres, err = parseNumber(ColumnAcres, raw.Acres); err != nil {
		return ParcelInput{}, err
	}
	if in.Lat, err = parseNumber(ColumnLat, raw.Lat); err != nil {
		return ParcelInput{}, err
	}
	if in.Lon, err = parseNumber(ColumnLon, raw.Lon); err != nil {
		return ParcelInput{}, err
	}

	if err := ValidateParcel(in); err != nil {
		return ParcelInput{}, err
	}
	return in, nil
}

// ValidateParcel checks the acreage and coordinate ranges of a parcel.
func ValidateParcel(in ParcelInput) error {
	if err := validate.Struct(in); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return eris.Wrapf(ErrInvalidParcel, "%s must satisfy %s=%s, got %v",
				columnFor(fe.Field()), fe.Tag(), fe.Param(), fe.Value())
		}
		return eris.Wrap(ErrInvalidParcel, err.Error())
	}
	return nil
}

func parseNumber(column, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, eris.Wrapf(ErrMalformedField, "%s: could not convert %q to a number", column, value)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Wrapf(ErrMalformedField, "%s: %q is not a finite number", column, value)
	}
	return v, nil
}

func columnFor(field string) string {
	switch field {
	case "Acres":
		return ColumnAcres
	case "Lat":
		return ColumnLat
	case "Lon":
		return ColumnLon
	default:
		return strings.ToLower(field)
	}
}
