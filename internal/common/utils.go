package common

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToFloat coerces a decoded JSON value into a finite float64.
// Numbers and numeric strings are accepted; everything else reports false.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Round1 rounds to one decimal place.
func Round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}
