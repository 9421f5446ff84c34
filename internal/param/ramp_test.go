package param

import "testing"

func TestNewRamp(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantLen int
		wantErr bool
	}{
		{name: "default ramp", in: DefaultRamp, wantLen: 10},
		{name: "single character", in: "#", wantLen: 1},
		{name: "two characters", in: "AB", wantLen: 2},
		{name: "unicode blocks", in: " ░▒▓█", wantLen: 5},
		{name: "empty", in: "", wantErr: true},
		{name: "double-width character", in: " .月", wantErr: true},
		{name: "newline", in: "a\nb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRamp(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewRamp(%q) succeeded, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRamp(%q): %v", tt.in, err)
			}
			if r.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", r.Len(), tt.wantLen)
			}
			if r.String() != tt.in {
				t.Errorf("String() = %q, want %q", r.String(), tt.in)
			}
		})
	}
}

func TestClusterForFormula(t *testing.T) {
	r := MustRamp(DefaultRamp)

	tests := []struct {
		luminance uint8
		want      string
	}{
		{0, " "},
		{28, " "},   // 28*9/255 = 0
		{29, "."},   // 29*9/255 = 1
		{128, "="},  // 128*9/255 = 4
		{254, "@"},  // 254*9/255 = 8
		{255, "#"},
	}

	for _, tt := range tests {
		if got := r.ClusterFor(tt.luminance); got != tt.want {
			t.Errorf("ClusterFor(%d) = %q, want %q", tt.luminance, got, tt.want)
		}
	}
}

func TestClusterForMonotonic(t *testing.T) {
	r := MustRamp(DefaultRamp)
	index := func(cl string) int {
		for i := range r.clusters {
			if r.clusters[i] == cl {
				return i
			}
		}
		return -1
	}

	prev := 0
	for l := 0; l <= 255; l++ {
		i := index(r.ClusterFor(uint8(l)))
		if i < prev {
			t.Fatalf("mapping not monotonic: luminance %d maps to index %d after %d", l, i, prev)
		}
		prev = i
	}
	if prev != r.Len()-1 {
		t.Errorf("luminance 255 maps to index %d, want %d", prev, r.Len()-1)
	}
}

func TestSingleClusterRamp(t *testing.T) {
	r := MustRamp("#")
	for _, l := range []uint8{0, 100, 255} {
		if got := r.ClusterFor(l); got != "#" {
			t.Errorf("ClusterFor(%d) = %q, want %q", l, got, "#")
		}
	}
}

func TestReversed(t *testing.T) {
	r := MustRamp("AB")
	if got := r.Reversed().String(); got != "BA" {
		t.Errorf("Reversed() = %q, want %q", got, "BA")
	}
	// Reversal is non-destructive.
	if got := r.String(); got != "AB" {
		t.Errorf("original ramp changed to %q", got)
	}

	// Grapheme-aware: multi-byte clusters survive reversal intact.
	u := MustRamp(" ░▒▓█")
	if got := u.Reversed().String(); got != "█▓▒░ " {
		t.Errorf("Reversed() = %q, want %q", got, "█▓▒░ ")
	}
}
