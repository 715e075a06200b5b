package money

import (
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestToNumber(t *testing.T) {
	num := pgtype.Numeric{}
	require.NoError(t, num.Scan("350.50"))

	d := decimal.NewFromFloat(250.5)

	cases := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float64", 100.25, 100.25},
		{"float32", float32(2.5), 2.5},
		{"int", 42, 42},
		{"int64", int64(7), 7},
		{"decimal", d, 250.5},
		{"decimal pointer", &d, 250.5},
		{"nil decimal pointer", (*decimal.Decimal)(nil), 0},
		{"null decimal invalid", decimal.NullDecimal{}, 0},
		{"null decimal valid", decimal.NullDecimal{Decimal: d, Valid: true}, 250.5},
		{"pg numeric", num, 350.5},
		{"pg numeric null", pgtype.Numeric{}, 0},
		{"string", "123.45", 123.45},
		{"string padded", "  99.90 ", 99.9},
		{"string garbage", "not-a-number", 0},
		{"empty string", "", 0},
		{"json number", json.Number("17.5"), 17.5},
		{"unsupported type", struct{}{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, ToNumber(tc.in), 1e-9)
		})
	}
}

func TestRound2(t *testing.T) {
	require.InDelta(t, 10.57, Round2(10.566), 1e-9)
	require.InDelta(t, 10.56, Round2(10.564), 1e-9)
	require.InDelta(t, 175, Round2(175), 1e-9)
	require.InDelta(t, 0, Round2(0), 1e-9)
	require.InDelta(t, -3.33, Round2(-3.333), 1e-9)
}
