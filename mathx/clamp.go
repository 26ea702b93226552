package mathx

// Clamp returns x bounded to the range [low, high].
func Clamp[N Number](x, low, high N) N {
	if x < low {
		return low
	}
	if x > high {
		return high
	}
	return x
}

// CeilDiv returns a / b rounded up. b must be positive.
func CeilDiv[N Integer](a, b N) N {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
