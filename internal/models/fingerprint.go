package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const fingerprintSeparator = "|"

// NormalizeField lowercases and collapses whitespace for fingerprint input.
func NormalizeField(value string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(value)))
	return strings.Join(fields, " ")
}

// GenerateFingerprint derives the stable dedup key for a posting.
// Identical (company, title, location, sourceURL) always yield the same
// value; the sink upserts on it.
func GenerateFingerprint(company, title, location, sourceURL string) string {
	parts := []string{
		NormalizeField(company),
		NormalizeField(title),
		NormalizeField(location),
		NormalizeField(sourceURL),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, fingerprintSeparator)))
	return hex.EncodeToString(sum[:])
}

// SetFingerprint fills and returns the job's fingerprint from its identity
// fields. Normalization never touches the fields themselves.
func (j *Job) SetFingerprint() string {
	j.Fingerprint = GenerateFingerprint(j.Company, j.Title, j.Location, j.URL)
	return j.Fingerprint
}
