package spot

import "testing"

func TestInferMode(t *testing.T) {
	tests := []struct {
		freq float64
		want string
	}{
		{14074, "FT8"},
		{14075.5, "FT8"}, // within tolerance of the 20m FT8 dial
		{14080, "FT4"},
		{7074, "FT8"},
		{7047.5, "FT4"},
		{3573, "FT8"}, // 80m dials are 2 kHz apart; nearest wins
		{3575, "FT4"},
		{3574, "FT8"}, // equidistant, FT8 wins ties
		{50313, "FT8"},
		{14025, BandUnknown}, // CW segment, no dial nearby
		{14100, BandUnknown},
		{0, BandUnknown},
	}
	for _, tt := range tests {
		if got := InferMode(tt.freq); got != tt.want {
			t.Errorf("InferMode(%v) = %q, want %q", tt.freq, got, tt.want)
		}
	}
}
