// Package nutrition computes per-recipe nutrient totals from an ingredient
// reference table whose cells follow heterogeneous spreadsheet conventions.
package nutrition

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind classifies a raw reference cell.
type Kind int

const (
	// KindMissing means the cell carries no usable value.
	KindMissing Kind = iota
	// KindTrace means the cell is a trace or explicit zero marker.
	KindTrace
	// KindNumeric means the cell resolved to a number.
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindTrace:
		return "trace"
	case KindNumeric:
		return "numeric"
	default:
		return "missing"
	}
}

var missingTokens = map[string]struct{}{
	"-":   {},
	"":    {},
	"nan": {},
	"n/a": {},
	"na":  {},
}

var traceTokens = map[string]struct{}{
	"traces": {},
	"trace":  {},
	"tr":     {},
	"<0.1":   {},
	"<0,1":   {},
	"0":      {},
	"0.0":    {},
	"0,0":    {},
}

// NormalizeCell converts a raw nutrient-per-100g cell into a number. The
// boolean is false when the cell carries no data.
func NormalizeCell(raw any) (float64, bool) {
	v, kind := Classify(raw)
	return v, kind != KindMissing
}

// Classify resolves a raw cell and reports how it was interpreted. Every Go
// integer and float type is accepted, as are json.Number, string and *string.
// Any other type is missing.
func Classify(raw any) (float64, Kind) {
	switch v := raw.(type) {
	case nil:
		return 0, KindMissing
	case float64:
		return classifyNumber(v)
	case float32:
		return classifyNumber(float64(v))
	case int:
		return classifyNumber(float64(v))
	case int8:
		return classifyNumber(float64(v))
	case int16:
		return classifyNumber(float64(v))
	case int32:
		return classifyNumber(float64(v))
	case int64:
		return classifyNumber(float64(v))
	case uint:
		return classifyNumber(float64(v))
	case uint8:
		return classifyNumber(float64(v))
	case uint16:
		return classifyNumber(float64(v))
	case uint32:
		return classifyNumber(float64(v))
	case uint64:
		return classifyNumber(float64(v))
	case json.Number:
		return classifyString(v.String())
	case string:
		return classifyString(v)
	case *string:
		if v == nil {
			return 0, KindMissing
		}
		return classifyString(*v)
	default:
		return 0, KindMissing
	}
}

func classifyNumber(f float64) (float64, Kind) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, KindMissing
	}
	if f == 0 {
		return 0, KindTrace
	}
	return f, KindNumeric
}

func classifyString(raw string) (float64, Kind) {
	s := strings.ToLower(strings.TrimSpace(raw))

	if _, ok := missingTokens[s]; ok {
		return 0, KindMissing
	}
	if _, ok := traceTokens[s]; ok {
		return 0, KindTrace
	}

	// "<X" is an upper bound: take half of it, or treat as trace.
	if rest, ok := strings.CutPrefix(s, "<"); ok {
		x, err := parseDecimal(rest)
		if err != nil {
			return 0, KindTrace
		}
		return x / 2, KindNumeric
	}

	// ">X" is a lower bound taken as the value.
	if rest, ok := strings.CutPrefix(s, ">"); ok {
		if x, err := parseDecimal(rest); err == nil {
			return x, KindNumeric
		}
	}

	if lo, hi, ok := strings.Cut(s, "-"); ok && lo != "" && !strings.Contains(hi, "-") {
		a, errA := parseDecimal(lo)
		b, errB := parseDecimal(hi)
		if errA == nil && errB == nil {
			return (a + b) / 2, KindNumeric
		}
	}

	f, err := parseDecimal(s)
	if err != nil {
		return 0, KindMissing
	}
	return f, KindNumeric
}

// parseDecimal accepts either a comma or a dot as decimal separator.
func parseDecimal(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}
