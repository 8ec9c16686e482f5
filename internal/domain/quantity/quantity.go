// Package quantity normalizes user-entered counts according to each
// department's numeric policy.
package quantity

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
)

// Policy is the numeric precision a department accepts.
type Policy int

const (
	Integer Policy = iota
	OneDecimal
	TwoDecimal
)

var (
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrNegativeQuantity = errors.New("negative quantity")
)

// Places returns the number of fractional digits allowed by p.
func (p Policy) Places() int32 {
	switch p {
	case OneDecimal:
		return 1
	case TwoDecimal:
		return 2
	default:
		return 0
	}
}

func (p Policy) String() string {
	switch p {
	case OneDecimal:
		return "one-decimal"
	case TwoDecimal:
		return "two-decimal"
	default:
		return "integer"
	}
}

// PolicyFor returns the policy of a department. Tableware and packaging are
// counted in whole pieces, household goods may be weighed or measured.
func PolicyFor(departmentID string) Policy {
	switch departmentID {
	case constants.DepartmentHousehold:
		return TwoDecimal
	default:
		return Integer
	}
}

// Quantity is a parsed, non-negative count.
type Quantity struct {
	d decimal.Decimal
}

// FromFloat wraps an already-normalized value.
func FromFloat(v float64) Quantity {
	return Quantity{d: decimal.NewFromFloat(v)}
}

// Float64 returns the value as float64.
func (q Quantity) Float64() float64 {
	return q.d.InexactFloat64()
}

// Format renders q for display with the policy's scale and a comma separator.
func (q Quantity) Format(p Policy) string {
	return strings.Replace(q.d.StringFixed(p.Places()), ".", ",", 1)
}

// Parse converts raw user input into a Quantity under policy p.
// Empty input means zero. Both "," and "." are accepted as decimal separator.
func Parse(raw string, p Policy) (Quantity, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Quantity{d: decimal.Zero}, nil
	}
	s = strings.ReplaceAll(s, " ", "")
	if strings.Count(s, ",")+strings.Count(s, ".") > 1 {
		return Quantity{}, fmt.Errorf("%w: %q", ErrInvalidQuantity, raw)
	}
	s = strings.Replace(s, ",", ".", 1)
	if strings.HasPrefix(s, "+") || strings.ContainsAny(s, "eE") {
		return Quantity{}, fmt.Errorf("%w: %q", ErrInvalidQuantity, raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("%w: %q", ErrInvalidQuantity, raw)
	}
	if d.IsNegative() {
		return Quantity{}, fmt.Errorf("%w: %q", ErrNegativeQuantity, raw)
	}
	if p == Integer && !d.IsInteger() {
		return Quantity{}, fmt.Errorf("%w: %q must be a whole number", ErrInvalidQuantity, raw)
	}
	return Quantity{d: d.Round(p.Places())}, nil
}

// ParseFloat normalizes a numeric value coming from storage or JSON: negative
// values become zero and the result is rounded to the policy's scale.
func ParseFloat(v float64, p Policy) Quantity {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Quantity{d: decimal.Zero}
	}
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return Quantity{d: decimal.Zero}
	}
	return Quantity{d: d.Round(p.Places())}
}
