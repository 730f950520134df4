package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestFlexibleDate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"day first slash", "05/03/2024", "2024-03-05"},
		{"day first dash", "5-3-2024", "2024-03-05"},
		{"day first dot", "05.03.2024", "2024-03-05"},
		{"two digit year", "01/02/24", "2024-02-01"},
		{"iso", "2024-03-05", "2024-03-05"},
		{"iso with time", "2024-03-05T10:20:00Z", "2024-03-05"},
		{"serial float", float64(45292), "2024-01-01"},
		{"serial int", 45292, "2024-01-01"},
		{"serial string", "45292", "2024-01-01"},
		{"slash iso", "2024/03/05", "2024-03-05"},
		{"written", "5 March 2024", "2024-03-05"},
		{"time value", time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC), "2024-03-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlexibleDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatDate(got))
		})
	}
}

func TestFlexibleDateRejects(t *testing.T) {
	for _, in := range []any{"32/13/2024", "31/02/2024", "bad", "", nil, float64(100), "2024-13-01", true} {
		_, err := FlexibleDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %v", in)
	}
}

func TestFlexibleAmount(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"1.234,56", "1234.56"},
		{"12,5", "12.5"},
		{"45,20", "45.2"},
		{"1 234,56 €", "1234.56"},
		{"1 234,56", "1234.56"},
		{"$12.34", "12.34"},
		{"-45.20", "-45.2"},
		{"CHF 10", "10"},
		{"(12,50)", "-12.5"},
		{"(€ 1 234,56)", "-1234.56"},
		{12.5, "12.5"},
		{42, "42"},
	}
	for _, tt := range tests {
		got, ok := FlexibleAmount(tt.in)
		require.True(t, ok, "input %v", tt.in)
		assert.True(t, got.Equal(decimalOf(t, tt.want)), "input %v: got %s", tt.in, got)
	}
}

func TestFlexibleAmountRejects(t *testing.T) {
	for _, in := range []any{"abc", "", "€", "()", "(12", nil, struct{}{}} {
		_, ok := FlexibleAmount(in)
		assert.False(t, ok, "input %v", in)
	}
}

func TestFlexibleAmountToMoney(t *testing.T) {
	d, ok := FlexibleAmount("45,20")
	require.True(t, ok)
	assert.Equal(t, core.Cents(4520), core.MoneyFromDecimal(d))
}
