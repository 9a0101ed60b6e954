package core

import "testing"

func TestParseAmountToCents(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{"simple dot", "12.34", 1234, false},
		{"simple comma", "12,34", 1234, false},
		{"integer", "12", 1200, false},
		{"negative sign", "-25.50", -2550, false},
		{"positive sign", "+25.50", 2550, false},
		{"parenthesized negative", "(25.50)", -2550, false},
		{"currency symbol", "$1,234.56", 123456, false},
		{"euro symbol", "€1.234,56", 123456, false},
		{"thousands comma only", "1,234", 123400, false},
		{"multiple grouping commas", "1,234,567", 123456700, false},
		{"decimal comma single digit", "12,5", 1250, false},
		{"rounds down", "12.344", 1234, false},
		{"rounds up", "12.346", 1235, false},
		{"zero", "0.00", 0, false},
		{"zero parens", "(0)", 0, false},
		{"empty", "", 0, true},
		{"letters", "abc", 0, true},
		{"mixed garbage", "12.3a", 0, true},
		{"double dot", "1.2.3", 0, true},
		{"trailing dot", "12.", 0, true},
		{"bare sign", "-", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmountToCents(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseAmountToCents(%q) = %d, want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmountToCents(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseAmountToCents(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{-2550, "-25.50"},
		{5, "0.05"},
		{0, "0.00"},
		{100000, "1000.00"},
	}

	for _, tc := range cases {
		if got := FormatCents(tc.cents); got != tc.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, cents := range []int64{-987654, -1, 0, 1, 99, 100, 123456} {
		got, err := ParseAmountToCents(FormatCents(cents))
		if err != nil {
			t.Fatalf("round trip %d: %v", cents, err)
		}
		if got != cents {
			t.Fatalf("round trip %d: got %d", cents, got)
		}
	}
}
