package entities

import "math"

// MinorUnitDigits is the USDC convention: six digits of minor-unit precision.
const MinorUnitDigits = 6

// RoundMinorUnit rounds a USDC amount to six minor-unit digits, the way
// the teacher's CostEngine rounds USD costs before they're compared or stored.
func RoundMinorUnit(amount float64) float64 {
	scale := math.Pow(10, MinorUnitDigits)
	return math.Round(amount*scale) / scale
}
