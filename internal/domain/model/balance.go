// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is one component of a claimable balance, e.g. "1.234 HIVE".
type Amount struct {
	Symbol    string
	Value     decimal.Decimal
	Precision int32
}

// NewAmount builds an Amount from an integer number of base units.
func NewAmount(symbol string, units int64, precision int32) Amount {
	return Amount{Symbol: symbol, Value: decimal.New(units, -precision), Precision: precision}
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool { return a.Value.IsZero() }

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool { return a.Value.IsNegative() }

// String renders the amount in chain asset notation.
func (a Amount) String() string {
	return a.Value.StringFixed(a.Precision) + " " + a.Symbol
}

// Balance is a snapshot of an account's claimable reward components.
type Balance []Amount

// IsZero is true when there is nothing to claim.
func (b Balance) IsZero() bool {
	for _, a := range b {
		if !a.IsZero() {
			return false
		}
	}
	return true
}

// Validate rejects negative components.
func (b Balance) Validate() error {
	for _, a := range b {
		if a.IsNegative() {
			return fmt.Errorf("negative %s component: %s", a.Symbol, a)
		}
	}
	return nil
}

// NonZero returns only the components with something to claim.
func (b Balance) NonZero() Balance {
	out := make(Balance, 0, len(b))
	for _, a := range b {
		if !a.IsZero() {
			out = append(out, a)
		}
	}
	return out
}

// Get returns the component with the given symbol.
func (b Balance) Get(symbol string) (Amount, bool) {
	for _, a := range b {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return Amount{}, false
}

// String joins the components, e.g. "1.000 HIVE, 0.000 HBD".
func (b Balance) String() string {
	parts := make([]string, len(b))
	for i, a := range b {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// Clone returns an independent copy.
func (b Balance) Clone() Balance {
	if b == nil {
		return nil
	}
	out := make(Balance, len(b))
	copy(out, b)
	return out
}
