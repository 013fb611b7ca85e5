package utils

// MaxInt returns the larger of x or y.
func MaxInt(x, y int64) int64 {
	if x < y {
		return y
	}
	return x
}
