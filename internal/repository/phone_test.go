package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneNumber(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare ten digits", "4155551234", "+14155551234"},
		{"eleven digits with country code", "14155551234", "+14155551234"},
		{"already normalized", "+14155551234", "+14155551234"},
		{"formatted with punctuation", "(415) 555-1234", "+14155551234"},
		{"dotted", "415.555.1234", "+14155551234"},
		{"international length passes through", "+442071234567", "+442071234567"},
		{"short number degrades", "911", "+911"},
		{"empty", "", "+"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizePhoneNumber(tc.input))
		})
	}
}

func TestNormalizePhoneNumberIdempotent(t *testing.T) {
	inputs := []string{"4155551234", "14155551234", "+14155551234", "(415) 555-1234", "+442071234567"}
	for _, in := range inputs {
		once := NormalizePhoneNumber(in)
		assert.Equal(t, once, NormalizePhoneNumber(once), "normalizing %q twice diverged", in)
	}
}

func TestNormalizePhoneNumberEquivalenceSet(t *testing.T) {
	variants := []string{"4155551234", "14155551234", "+14155551234", "(415) 555-1234"}
	for _, v := range variants {
		assert.Equal(t, "+14155551234", NormalizePhoneNumber(v))
	}
}
