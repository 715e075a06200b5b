// Package money normalizes the heterogeneous numeric representations that
// reach the finance engines (Postgres numerics, decimals, strings, plain
// numbers) into float64 for aggregation. It is the only package that knows
// about the store's native decimal type.
package money

import (
	"encoding/json"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ToNumber converts v into a float64. Nil and anything unparseable become 0;
// the function never returns an error. Every monetary aggregation and every
// numeric field written to a response goes through here first.
func ToNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case decimal.Decimal:
		return x.InexactFloat64()
	case *decimal.Decimal:
		if x == nil {
			return 0
		}
		return x.InexactFloat64()
	case decimal.NullDecimal:
		if !x.Valid {
			return 0
		}
		return x.Decimal.InexactFloat64()
	case pgtype.Numeric:
		if !x.Valid {
			return 0
		}
		f, err := x.Float64Value()
		if err != nil {
			return 0
		}
		return f.Float64
	case json.Number:
		return parseString(x.String())
	case string:
		return parseString(x)
	default:
		return 0
	}
}

// Round2 rounds f to two decimal places using half-up rounding.
func Round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

func parseString(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
