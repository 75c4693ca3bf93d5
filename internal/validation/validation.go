package validation

import (
	"github.com/shopspring/decimal"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records a violation unless the field already has one.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

// Basic validators
func RequiredID(field string, id uint, v Violations) {
	if id == 0 {
		v.Add(field, "required")
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v.Add(field, "must_be_positive")
	}
}

func MaxInt(field string, val, max int, v Violations) {
	if val > max {
		v.Add(field, "too_large")
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, "must_not_be_negative")
	}
}

func MaxDecimal(field string, val, max decimal.Decimal, v Violations) {
	if val.GreaterThan(max) {
		v.Add(field, "too_large")
	}
}

// DecimalPlaces rejects values that would be rounded when stored with the
// given scale.
func DecimalPlaces(field string, val decimal.Decimal, places int32, v Violations) {
	if !val.Round(places).Equal(val) {
		v.Add(field, "too_many_decimals")
	}
}

func MaxLength(field, value string, max int, v Violations) {
	if len(value) > max {
		v.Add(field, "too_long")
	}
}
