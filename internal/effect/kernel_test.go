package effect

import (
	"math"
	"testing"
)

func TestGaussianKernel(t *testing.T) {
	tests := []struct {
		radius   int
		sigma    float64
		wantSize int
	}{
		{0, 1, 1},
		{3, 0, 1},
		{1, 0.5, 3},
		{4, 4.0 / 3, 9},
		{12, 4, 25},
	}

	for _, tt := range tests {
		k := GaussianKernel(tt.radius, tt.sigma)
		if len(k) != tt.wantSize {
			t.Errorf("GaussianKernel(%d, %v) len = %d, want %d", tt.radius, tt.sigma, len(k), tt.wantSize)
			continue
		}
		var sum float64
		for _, v := range k {
			sum += float64(v)
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("GaussianKernel(%d, %v) sums to %v", tt.radius, tt.sigma, sum)
		}
		for i := 0; i < len(k)/2; i++ {
			if k[i] != k[len(k)-1-i] {
				t.Errorf("GaussianKernel(%d, %v) not symmetric at %d", tt.radius, tt.sigma, i)
			}
			if k[i] > k[i+1] {
				t.Errorf("GaussianKernel(%d, %v) not increasing toward center at %d", tt.radius, tt.sigma, i)
			}
		}
	}
}

func TestKernelCache(t *testing.T) {
	c := newKernelCache(4)
	a := c.get(3, 1)
	b := c.get(3, 1)
	if &a[0] != &b[0] {
		t.Error("second get did not return the cached kernel")
	}
	for r := 0; r < 10; r++ {
		c.get(r, 1)
	}
	if len(c.cache) > 4 {
		t.Errorf("cache holds %d kernels, max 4", len(c.cache))
	}
}

func TestBlurTaps_Bounded(t *testing.T) {
	if k := blurTaps(1000, 300); len(k) != maxBlurTaps*2+1 {
		t.Errorf("len = %d, want %d", len(k), maxBlurTaps*2+1)
	}
}
