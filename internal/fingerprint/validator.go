package fingerprint

// Validate reports whether a fingerprint presented at use time still
// matches the one stored at session creation. Any single-field mismatch
// fails the whole match; there is no fuzzy tolerance at this layer.
func Validate(stored, presented Fingerprint) bool {
	return stored.Equal(presented)
}
