package version

import "testing"

func TestParse(t *testing.T) {
	v, err := Parse("2.10.3")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(v) != 3 || v[0] != 2 || v[1] != 10 || v[2] != 3 {
		t.Errorf("unexpected parts: %v", v)
	}

	if _, err := Parse("not-a-version"); err == nil {
		t.Error("expected error for garbage input")
	}
	if _, err := Parse(""); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.0.1", "1.0.0", 1},
		{"1.2", "1.2.0", 0},
		{"1.2", "1.2.1", -1},
		{"2", "1.9.9", 1},
		{"1.10.0", "1.9.0", 1},
	}

	for _, tt := range tests {
		a, err := Parse(tt.a)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.a, err)
		}
		b, err := Parse(tt.b)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.b, err)
		}
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOlder(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.0.1", "1.0.0", false},
		{"1.0.0", "1.0.0", false},
		{"0.9", "1.0.0", true},
	}

	for _, tt := range tests {
		if got := Older(tt.a, tt.b); got != tt.want {
			t.Errorf("Older(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}

	// Unparseable versions never count as older: a client sending a
	// broken version string is not rejected on version grounds.
	if Older("garbage", "1.0.0") {
		t.Error("unparseable a should not be older")
	}
	if Older("1.0.0", "garbage") {
		t.Error("unparseable b should not make a older")
	}
}
