package mathx

const bytesPerMB = 1024 * 1024

// BytesToMB converts a number of bytes to megabytes.
func BytesToMB[N Integer](bytes N) float64 {
	return float64(bytes) / bytesPerMB
}
