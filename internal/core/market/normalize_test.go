package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNormalize_DropRules(t *testing.T) {
	tests := []struct {
		name string
		raw  RawRecord
		kept bool
	}{
		{
			name: "valid record",
			raw:  RawRecord{"arrival_date": "2025-01-05", "modal_price": "20"},
			kept: true,
		},
		{
			name: "numeric price",
			raw:  RawRecord{"arrival_date": "2025-01-05", "modal_price": float64(1850)},
			kept: true,
		},
		{
			name: "negative price dropped",
			raw:  RawRecord{"arrival_date": "2025-01-05", "modal_price": "-5"},
			kept: false,
		},
		{
			name: "zero price dropped",
			raw:  RawRecord{"arrival_date": "2025-01-05", "modal_price": "0"},
			kept: false,
		},
		{
			name: "non-numeric price dropped",
			raw:  RawRecord{"arrival_date": "2025-01-05", "modal_price": "abc"},
			kept: false,
		},
		{
			name: "missing price dropped",
			raw:  RawRecord{"arrival_date": "2025-01-05"},
			kept: false,
		},
		{
			name: "missing date dropped",
			raw:  RawRecord{"modal_price": "20"},
			kept: false,
		},
		{
			name: "unparsable date dropped",
			raw:  RawRecord{"arrival_date": "not-a-date", "modal_price": "20"},
			kept: false,
		},
		{
			name: "slash date layout accepted",
			raw:  RawRecord{"arrival_date": "05/01/2025", "modal_price": "20"},
			kept: true,
		},
		{
			name: "timestamp suffix stripped",
			raw:  RawRecord{"arrival_date": "2025-01-05T00:00:00Z", "modal_price": "20"},
			kept: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := Normalize([]RawRecord{tc.raw})
			if tc.kept {
				require.Len(t, out, 1)
				require.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), out[0].Date)
			} else {
				require.Empty(t, out)
			}
		})
	}
}

func TestNormalize_FieldAliasPriority(t *testing.T) {
	// arrival_date wins over date; modal_price wins over modalprice.
	out := Normalize([]RawRecord{{
		"arrival_date": "2025-03-10",
		"date":         "1999-01-01",
		"modal_price":  "100",
		"modalprice":   "999",
	}})
	require.Len(t, out, 1)
	require.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), out[0].Date)
	require.True(t, decimal.NewFromInt(100).Equal(out[0].Price))

	// Fallback aliases are used when the primary is absent.
	out = Normalize([]RawRecord{{
		"date_of_arrival": "2025-03-11",
		"modalprice":      "42.5",
	}})
	require.Len(t, out, 1)
	require.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), out[0].Date)
	require.True(t, decimal.NewFromFloat(42.5).Equal(out[0].Price))
}

func TestNormalize_PreservesOrderAndDuplicates(t *testing.T) {
	raw := []RawRecord{
		{"arrival_date": "2025-01-02", "modal_price": "30", "market": "Kochi", "state": "Kerala"},
		{"arrival_date": "2025-01-01", "modal_price": "20"},
		{"arrival_date": "2025-01-01", "modal_price": "20"}, // duplicate quote, valid
	}
	out := Normalize(raw)
	require.Len(t, out, 3)
	require.Equal(t, "Kochi", out[0].Market)
	require.Equal(t, "Kerala", out[0].State)
	require.Equal(t, out[1].Date, out[2].Date)
	require.True(t, out[1].Price.Equal(out[2].Price))
}

func TestNormalize_OutputPlusDroppedEqualsInput(t *testing.T) {
	raw := []RawRecord{
		{"arrival_date": "2025-01-01", "modal_price": "10"},
		{"arrival_date": "2025-01-01", "modal_price": "-1"},
		{"arrival_date": "bad", "modal_price": "10"},
		{"arrival_date": "2025-01-02", "modal_price": "15"},
		{},
	}
	out := Normalize(raw)
	require.Equal(t, len(raw), len(out)+3)
}
