package store

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var errNotAList = errors.New("vector literal must be enclosed in brackets")

// ParseVector parses a numeric sequence literal such as "[0.12, -0.4, 1e-05]".
func ParseVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, errNotAList
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []float64{}, nil
	}

	parts := strings.Split(inner, ",")
	vec := make([]float64, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("element %d is empty", i)
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("element %d is not finite: %s", i, part)
		}
		vec[i] = v
	}
	return vec, nil
}

// FormatVector writes v as a sequence literal. Values use the shortest
// representation that parses back to the same float64.
func FormatVector(v []float64) string {
	var sb strings.Builder
	sb.Grow(len(v) * 12)
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	sb.WriteByte(']')
	return sb.String()
}
