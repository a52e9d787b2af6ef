package policy

// Decision is the outcome of evaluating a candidate compressed file
// against the original.
type Decision int

const (
	// Reject means the original file should be kept (or copied through
	// unchanged) instead of the candidate.
	Reject Decision = iota
	// Accept means the candidate is small enough to replace the original.
	Accept
)

// String returns a human-readable name for the decision.
func (d Decision) String() string {
	if d == Accept {
		return "accept"
	}
	return "reject"
}

// Decide evaluates whether a compressed candidate should replace the
// original. The candidate is accepted only when it is strictly smaller
// than the original and the byte savings, expressed as a percentage of
// the original size, meet the minimum ratio. A minRatio of 0 accepts
// any strict size reduction.
func Decide(originalBytes, compressedBytes int64, minRatio float64) Decision {
	if originalBytes <= 0 {
		return Reject
	}
	if compressedBytes >= originalBytes {
		return Reject
	}
	if SavedPercent(originalBytes, compressedBytes) < minRatio {
		return Reject
	}
	return Accept
}

// SavedPercent returns the percentage of bytes saved going from the
// original size to the compressed size. Returns 0 for a non-positive
// original size.
func SavedPercent(originalBytes, compressedBytes int64) float64 {
	if originalBytes <= 0 {
		return 0
	}
	return float64(originalBytes-compressedBytes) * 100 / float64(originalBytes)
}
