package metadata

import "testing"

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   float64
		wantOK bool
	}{
		{"dollar", "Price: $19.99 today", 19.99, true},
		{"no price", "no price here", 0, false},
		{"euro comma", "Nur €4,50 im Angebot", 4.50, true},
		{"pound with space", "£ 120.00 incl. VAT", 120.00, true},
		{"yen", "¥1500.00", 1500.00, true},
		{"no currency", "Pack of 3 for 7.25", 7.25, true},
		{"first match wins", "was $30.00 now $19.99", 30.00, true},
		{"one fractional digit", "costs 4.5 dollars", 0, false},
		{"integer only", "buy 2 get 1", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractPrice(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ExtractPrice(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ExtractPrice(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"19.99", 19.99, true},
		{"USD 1299", 1299, true},
		{"4,50 €", 4.50, true},
		{"1.299.99", 1.299, true},
		{"free", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePrice(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParsePrice(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundPrice(t *testing.T) {
	if got := roundPrice(19.994); got != 19.99 {
		t.Errorf("roundPrice(19.994) = %v, want 19.99", got)
	}
	if got := roundPrice(2.675001); got != 2.68 {
		t.Errorf("roundPrice(2.675001) = %v, want 2.68", got)
	}
}
