package loader

import "testing"

func TestFactorToByte(t *testing.T) {
	tests := []struct {
		name   string
		factor float32
		want   byte
	}{
		{"zero", 0, 0},
		{"one", 1, 255},
		{"half rounds up", 0.5, 128},
		{"clamps negative", -0.25, 0},
		{"clamps above one", 1.5, 255},
		{"quarter", 0.25, 64},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := factorToByte(tc.factor); got != tc.want {
				t.Errorf("factorToByte(%v) = %d, want %d", tc.factor, got, tc.want)
			}
		})
	}
}
