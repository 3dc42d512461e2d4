package data

import "testing"

func TestUnicodeLower(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"Ёлки", "ёлки"},
		{"КОМЕДИЯ", "комедия"},
		{"Heat", "heat"},
		{[]byte("ÄRGER"), "ärger"},
		{[]byte(nil), nil},
		{int64(42), int64(42)},
	}
	for _, tt := range tests {
		if got := unicodeLower(tt.in); got != tt.want {
			t.Errorf("unicodeLower(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
