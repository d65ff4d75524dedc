// Package money normalizes currency amounts to whole cents.
//
// Prices travel through the API as JSON numbers and live in float64 fields.
// Round2 works on the float directly; Accumulator and LineTotal sum lines in
// decimal so recomputed totals never pick up binary drift.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// epsilon is the gap between 1 and the next float64.
const epsilon = 0x1p-52

// Round2 rounds x to the nearest cent, halves toward positive infinity.
//
// x is nudged up by one epsilon before scaling, so 1.005 and 100.005 round
// up even though their binary forms sit just below the half cent. Larger
// values whose error exceeds the nudge, such as 9.995, round down. NaN and
// infinities are returned unchanged.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return math.Floor((x+epsilon)*100+0.5) / 100
}

// FromCents converts an integer cent amount to a price.
func FromCents(cents int64) float64 {
	f, _ := decimal.New(cents, -2).Float64()
	return f
}

// Cents converts a price to whole cents using Round2 semantics.
func Cents(x float64) int64 {
	return decimal.NewFromFloat(Round2(x)).Shift(2).IntPart()
}

// Format renders a price as "$12.34".
func Format(x float64) string {
	return "$" + decimal.NewFromFloat(Round2(x)).StringFixed(2)
}

// Accumulator sums price × quantity lines in decimal.
//
// The zero value is an empty sum.
type Accumulator struct {
	sum decimal.Decimal
}

// Add accumulates one line.
func (a *Accumulator) Add(price float64, quantity int) {
	a.sum = a.sum.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity))))
}

// Total returns the accumulated sum rounded to cents.
func (a *Accumulator) Total() float64 {
	f, _ := a.sum.Round(2).Float64()
	return f
}

// LineTotal returns price × quantity rounded to cents.
func LineTotal(price float64, quantity int) float64 {
	var acc Accumulator
	acc.Add(price, quantity)
	return acc.Total()
}
