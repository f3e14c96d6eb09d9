package effect

import (
	"math"
	"sync"
)

// GaussianKernel generates a normalized 1D Gaussian kernel of 2*radius+1
// taps with the given sigma.
//
// For radius <= 0 or sigma <= 0, returns a single-element kernel [1.0] (identity).
func GaussianKernel(radius int, sigma float64) []float32 {
	if radius <= 0 || sigma <= 0 {
		return []float32{1.0}
	}

	size := radius*2 + 1
	kernel := make([]float32, size)

	// Gaussian formula: G(x) = exp(-x²/(2σ²)) / (σ√(2π))
	// We skip the normalization constant since we'll normalize sum to 1
	twoSigmaSq := 2 * sigma * sigma
	sum := float64(0)

	for i := 0; i < size; i++ {
		x := float64(i - radius)
		val := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(val)
		sum += val
	}

	if sum > 0 {
		invSum := float32(1.0 / sum)
		for i := range kernel {
			kernel[i] *= invSum
		}
	}

	return kernel
}

// kernelKey quantizes sigma to 0.01 precision.
type kernelKey struct {
	radius int
	sigma  int
}

// kernelCache caches computed Gaussian kernels. Live preview asks for the
// same handful of radii every frame.
type kernelCache struct {
	mu     sync.RWMutex
	cache  map[kernelKey][]float32
	maxLen int
}

var defaultKernelCache = newKernelCache(64)

func newKernelCache(maxLen int) *kernelCache {
	return &kernelCache{
		cache:  make(map[kernelKey][]float32),
		maxLen: maxLen,
	}
}

func (c *kernelCache) get(radius int, sigma float64) []float32 {
	key := kernelKey{radius: radius, sigma: int(sigma * 100)}

	c.mu.RLock()
	if kernel, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return kernel
	}
	c.mu.RUnlock()

	kernel := GaussianKernel(radius, float64(key.sigma)/100)

	c.mu.Lock()
	if len(c.cache) >= c.maxLen {
		// Simple eviction: clear half the cache
		count := 0
		for k := range c.cache {
			delete(c.cache, k)
			count++
			if count >= c.maxLen/2 {
				break
			}
		}
	}
	c.cache[key] = kernel
	c.mu.Unlock()

	return kernel
}

// blurTaps returns the kernel for a blur block radius and sigma.
func blurTaps(radius, sigma float32) []float32 {
	r := int(math.Ceil(float64(radius)))
	if r > maxBlurTaps {
		r = maxBlurTaps
	}
	return defaultKernelCache.get(r, float64(sigma))
}

// maxBlurTaps bounds the half-width of a blur pass.
const maxBlurTaps = 64
