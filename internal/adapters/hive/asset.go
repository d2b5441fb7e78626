package hive

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/hiveclaim/internal/domain/model"
)

// ParseAsset parses condenser asset text such as "1.234 HIVE". The precision
// is taken from the number of fractional digits.
func ParseAsset(s string) (model.Amount, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return model.Amount{}, fmt.Errorf("%w: %q", ErrMalformedAsset, s)
	}
	value, err := decimal.NewFromString(fields[0])
	if err != nil {
		return model.Amount{}, fmt.Errorf("%w: %q", ErrMalformedAsset, s)
	}
	var precision int32
	if i := strings.IndexByte(fields[0], '.'); i >= 0 {
		precision = int32(len(fields[0]) - i - 1)
	}
	return model.Amount{Symbol: fields[1], Value: value, Precision: precision}, nil
}

// FormatAsset renders amount as condenser asset text.
func FormatAsset(amount model.Amount) string {
	return amount.String()
}

// assetOrZero returns the balance component for symbol, or a zero amount.
func assetOrZero(b model.Balance, symbol string, precision int32) string {
	if a, ok := b.Get(symbol); ok {
		return FormatAsset(model.Amount{Symbol: symbol, Value: a.Value, Precision: precision})
	}
	return FormatAsset(model.NewAmount(symbol, 0, precision))
}
