package utils

import (
	"math"
)

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// ModAngRad wraps an angle in radians into [0, 2pi).
func ModAngRad(ang float64) float64 {
	return math.Mod(math.Mod(ang, 2*math.Pi)+2*math.Pi, 2*math.Pi)
}

// AbsInt returns the absolute value of n.
func AbsInt(n int) int {
	if n < 0 {
		return -1 * n
	}
	return n
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// MinInt returns the smaller of a and b.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ClampInt restricts n to [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// ClampF64 restricts n to [lo, hi].
func ClampF64(n, lo, hi float64) float64 {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// RoundInt rounds half away from zero and converts to int.
func RoundInt(x float64) int {
	return int(math.Round(x))
}

// Gaussian returns the unnormalized 2D gaussian weight exp(-(x^2+y^2)/(2 sig^2)).
func Gaussian(x, y, sig float64) float64 {
	return math.Exp(-(x*x + y*y) / (2 * sig * sig))
}
