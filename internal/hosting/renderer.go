package hosting

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Renderer is the part of an Esri drawingInfo.renderer the screener reads.
type Renderer struct {
	Type             string            `json:"type"`
	Symbol           *Symbol           `json:"symbol"`
	Field            string            `json:"field"`
	Field1           string            `json:"field1"`
	Field2           string            `json:"field2"`
	Field3           string            `json:"field3"`
	FieldDelimiter   string            `json:"fieldDelimiter"`
	UniqueValueInfos []UniqueValueInfo `json:"uniqueValueInfos"`
	ClassBreakInfos  []ClassBreakInfo  `json:"classBreakInfos"`
}

// Symbol carries a fill color and an optional outline.
type Symbol struct {
	Color   []float64 `json:"color"`
	Outline *struct {
		Color []float64 `json:"color"`
	} `json:"outline"`
}

// UniqueValueInfo is one class of a unique-value renderer.
type UniqueValueInfo struct {
	Value  interface{} `json:"value"`
	Symbol *Symbol     `json:"symbol"`
}

// ClassBreakInfo is one class of a class-breaks renderer.
type ClassBreakInfo struct {
	ClassMinValue *float64 `json:"classMinValue"`
	ClassMaxValue *float64 `json:"classMaxValue"`
	MinValue      *float64 `json:"minValue"`
	MaxValue      *float64 `json:"maxValue"`
	Symbol        *Symbol  `json:"symbol"`
}

// color returns the fill color, or the outline color when there is no fill.
func (s *Symbol) color() []float64 {
	if s == nil {
		return nil
	}
	if len(s.Color) > 0 {
		return s.Color
	}
	if s.Outline != nil {
		return s.Outline.Color
	}
	return nil
}

// RendererRule decides whether a feature is drawn in a capacity color.
// The implementations are AcceptAll, AcceptValues and AcceptRanges.
type RendererRule interface {
	Accepts(attrs map[string]interface{}) bool
	rendererRule()
}

// AcceptAll matches every feature of a layer drawn entirely in a capacity color.
type AcceptAll struct{}

// AcceptValues matches features whose field values form one of Values.
// With more than one field the values are joined by Delimiter.
type AcceptValues struct {
	Fields    []string
	Delimiter string
	Values    map[string]struct{}
}

// AcceptRanges matches features whose Field falls inside any of Ranges.
type AcceptRanges struct {
	Field  string
	Ranges []Range
}

// Range is inclusive; a nil bound is unbounded.
type Range struct {
	Min *float64
	Max *float64
}

func (AcceptAll) rendererRule()    {}
func (AcceptValues) rendererRule() {}
func (AcceptRanges) rendererRule() {}

// Accepts always matches.
func (AcceptAll) Accepts(map[string]interface{}) bool { return true }

// Accepts compares the canonical string form of the feature's value.
func (r AcceptValues) Accepts(attrs map[string]interface{}) bool {
	if len(r.Fields) == 0 {
		return false
	}

	var key string
	if len(r.Fields) == 1 {
		v, ok := canonical(attrs[r.Fields[0]])
		if !ok {
			return false
		}
		key = v
	} else {
		parts := make([]string, len(r.Fields))
		for i, f := range r.Fields {
			parts[i], _ = canonical(attrs[f])
		}
		key = strings.Join(parts, r.Delimiter)
	}

	_, hit := r.Values[key]
	return hit
}

// Accepts reports whether the numeric value of Field is inside a range.
func (r AcceptRanges) Accepts(attrs map[string]interface{}) bool {
	x, ok := toFloat(attrs[r.Field])
	if !ok {
		return false
	}
	for _, rg := range r.Ranges {
		if (rg.Min == nil || x >= *rg.Min) && (rg.Max == nil || x <= *rg.Max) {
			return true
		}
	}
	return false
}

// ClassifyRenderer turns a layer renderer into a rule. It returns false for
// renderers that mark nothing in a capacity color and for unknown types.
func ClassifyRenderer(r *Renderer) (RendererRule, bool) {
	if r == nil {
		return nil, false
	}

	switch strings.ToLower(r.Type) {
	case "simple":
		if IsCapacityColor(r.Symbol.color()) {
			return AcceptAll{}, true
		}
		return nil, false

	case "uniquevalue":
		var fields []string
		for _, f := range []string{r.Field1, r.Field2, r.Field3} {
			if f != "" {
				fields = append(fields, f)
			}
		}
		if len(fields) == 0 {
			return nil, false
		}
		delim := r.FieldDelimiter
		if delim == "" {
			delim = ","
		}

		values := map[string]struct{}{}
		for _, info := range r.UniqueValueInfos {
			if !IsCapacityColor(info.Symbol.color()) {
				continue
			}
			if v, ok := canonical(info.Value); ok {
				values[v] = struct{}{}
			}
		}
		if len(values) == 0 {
			return nil, false
		}
		return AcceptValues{Fields: fields, Delimiter: delim, Values: values}, true

	case "classbreaks":
		if r.Field == "" {
			return nil, false
		}
		var ranges []Range
		for _, info := range r.ClassBreakInfos {
			if !IsCapacityColor(info.Symbol.color()) {
				continue
			}
			ranges = append(ranges, Range{
				Min: firstSet(info.ClassMinValue, info.MinValue),
				Max: firstSet(info.ClassMaxValue, info.MaxValue),
			})
		}
		if len(ranges) == 0 {
			return nil, false
		}
		return AcceptRanges{Field: r.Field, Ranges: ranges}, true
	}

	return nil, false
}

func firstSet(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// canonical renders an attribute value as a string so that "1" and 1 compare
// equal. nil has no canonical form.
func canonical(v interface{}) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return fmt.Sprint(x), true
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
