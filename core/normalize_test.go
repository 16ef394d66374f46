package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeValueByType(t *testing.T) {
	tests := []struct {
		name  string
		value string
		typ   PIIType
		want  string
	}{
		{"aadhaar strips separators", "2345 6789-0123", PIIAadhaar, "234567890123"},
		{"ssn digits only", "123-45-6789", PIISSN, "123456789"},
		{"credit card digits only", "4111 1111 1111 1111", PIICreditCard, "4111111111111111"},
		{"phone keeps last ten digits", "+91 98765 43210", PIIPhone, "9876543210"},
		{"phone already ten digits", "9876543210", PIIPhone, "9876543210"},
		{"email lowercased", " Ravi@Example.COM ", PIIEmail, "ravi@example.com"},
		{"ip lowercased", "FE80::1", PIIIPAddress, "fe80::1"},
		{"pan uppercased", "abcde 1234f", PIIPan, "ABCDE1234F"},
		{"passport uppercased", "a1234567", PIIPassport, "A1234567"},
		{"health keyword lowercased", "Diabetes", PIIHealth, "diabetes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeValue(tt.value, tt.typ))
		})
	}
}

func TestNormalizeDOBDayFirst(t *testing.T) {
	// Day-first formats all canonicalize to the same ISO date.
	assert.Equal(t, "1990-05-15", normalizeValue("15-05-1990", PIIDOB))
	assert.Equal(t, "1990-05-15", normalizeValue("15/05/1990", PIIDOB))
	assert.Equal(t, "1990-05-15", normalizeValue("15.05.1990", PIIDOB))
	assert.Equal(t, "1990-05-15", normalizeValue("1990-05-15", PIIDOB))
}

func TestNormalizeDOBUnparseableFallsBack(t *testing.T) {
	// Impossible or unrecognized dates are kept verbatim rather than dropped.
	assert.Equal(t, "31-02-1990", normalizeValue("31-02-1990", PIIDOB))
	assert.Equal(t, "sometime in May", normalizeValue("sometime in May", PIIDOB))
}
