package passgen

import (
	"strings"
	"unicode/utf8"
)

// Strength ratings.
const (
	Strong = "Strong"
	Weak   = "Weak"
)

const (
	// StrongMinLength is the shortest password rated Strong.
	StrongMinLength = 12
	// StrongMinClasses is how many character classes a Strong password mixes.
	StrongMinClasses = 3
	// strengthSymbols are the punctuation characters counted as a class.
	strengthSymbols = "!@#$%^&*(),.?\":{}|<>"
)

// Strength rates password Strong when it has at least StrongMinLength
// characters and draws on StrongMinClasses of upper case, lower case, digits
// and symbols. Everything else is Weak.
func Strength(password string) string {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(strengthSymbols, r):
			symbol = true
		}
	}

	classes := 0
	for _, ok := range []bool{upper, lower, digit, symbol} {
		if ok {
			classes++
		}
	}

	if utf8.RuneCountInString(password) >= StrongMinLength && classes >= StrongMinClasses {
		return Strong
	}
	return Weak
}
