package money

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3.416.346,00", "3416346.00"},
		{"34163,46", "34163.46"},
		{"-550,00", "-550.00"},
		{"R$ 1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1234.56", "1234.56"},
		{"1.234,5", "1234.50"},
		{"1,234.5", "1234.50"},
		{"12,5", "12.50"},
		{"100", "100.00"},
		{"+42,10", "42.10"},
		{"US$ 9.99", "9.99"},
		{" 7 ", "7.00"},
		{"", "0.00"},
		{"abc", "0.00"},
		{"1,2,3", "0.00"},
	}
	for _, tt := range tests {
		got := ParseAmount(tt.in)
		assert.Equal(t, tt.want, got.StringFixed(2), "ParseAmount(%q)", tt.in)
	}
}

func TestParseAmount_RoundTrip(t *testing.T) {
	values := []string{"0.01", "1", "12.30", "999.99", "1234.56", "-550", "3416346", "1000000.10"}
	for _, v := range values {
		d := decimal.RequireFromString(v)
		br := FormatBR(d)
		plain := d.StringFixed(2)
		assert.True(t, d.Equal(ParseAmount(br)), "BR %q", br)
		assert.True(t, d.Equal(ParseAmount(plain)), "plain %q", plain)
	}
}

func TestFormatBR(t *testing.T) {
	assert.Equal(t, "3.416.346,00", FormatBR(decimal.RequireFromString("3416346")))
	assert.Equal(t, "-550,00", FormatBR(decimal.RequireFromString("-550")))
	assert.Equal(t, "0,05", FormatBR(decimal.RequireFromString("0.05")))
	assert.Equal(t, "123,40", FormatBR(decimal.RequireFromString("123.4")))
}

func TestParseDate(t *testing.T) {
	want := civil.Date{Year: 2025, Month: time.January, Day: 28}
	for _, in := range []string{"28/01/2025", "28-01-2025", "2025-01-28", "28/01/25", "28-01-25", " 28/01/2025 "} {
		got, ok := ParseDate(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	short := civil.Date{Year: 2025, Month: time.March, Day: 5}
	for _, in := range []string{"5/3/2025", "05/3/2025", "5-3-25", "2025-3-5"} {
		got, ok := ParseDate(in)
		assert.True(t, ok, in)
		assert.Equal(t, short, got, in)
	}

	for _, in := range []string{"", "2025/01/28", "31/02/2025", "yesterday"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, in)
	}
}
