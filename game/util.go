package game

import "math"

const degToRad = math.Pi / 180

// Dst2 returns the squared length of (x, y)
func Dst2(x, y float64) float64 {
	return x*x + y*y
}

// Dst returns the length of (x, y)
func Dst(x, y float64) float64 {
	return math.Sqrt(x*x + y*y)
}

// NormalizeAngle wraps angle to [-PI, PI]
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// DeltaAngle returns the signed shortest rotation from a to b in radians.
func DeltaAngle(a, b float64) float64 {
	return NormalizeAngle(b - a)
}
