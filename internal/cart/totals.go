package cart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	pointsStep    = 10000
	pointsPerStep = 10
)

func Count(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity()
	}
	return n
}

func Total(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Subtotal()
	}
	return total
}

// PointsForAmount awards 10 points for every full 10.000 CLP.
func PointsForAmount(amount float64) int {
	if amount <= 0 {
		return 0
	}
	return int(math.Floor(amount/pointsStep)) * pointsPerStep
}

// Points sums PointsForAmount over each line's subtotal. This is not the
// same as PointsForAmount(Total(items)): remainders of separate lines never
// add up to an extra step.
func Points(items []LineItem) int {
	points := 0
	for _, it := range items {
		points += PointsForAmount(it.Subtotal())
	}
	return points
}

// ParseQty turns a user-supplied quantity into a positive integer.
func ParseQty(raw any) int {
	var f float64
	switch v := raw.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 1
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 1
		}
		f = n
	default:
		return 1
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return 1
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
