// Package accountnumber generates and validates user-facing account numbers:
// 12 to 16 digit numerals whose final digit is a Luhn check digit over the
// preceding digits. Generation is random so numbers are not guessable from
// one another; uniqueness against existing accounts is the caller's concern.
package accountnumber

import (
	"math/rand/v2"
	"strings"
)

const (
	minLength = 12
	maxLength = 16
)

// Generate returns a new random account number. The first digit is never
// zero (a leading zero would be stripped by numeral-based storage) and the
// whole numeral satisfies Validate.
func Generate() string {
	length := minLength + rand.IntN(maxLength-minLength+1)

	var b strings.Builder
	b.Grow(length)
	b.WriteByte(byte('1' + rand.IntN(9)))
	for i := 1; i < length-1; i++ {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	b.WriteByte(byte('0' + checkDigit(b.String())))

	return b.String()
}

// Validate reports whether number is a well-formed Luhn numeral: digits
// only, at least two of them, weighted digit sum divisible by 10. Traversing
// right to left, every second digit starting from the one left of the check
// digit is doubled, with 9 subtracted from doubled values above 9.
func Validate(number string) bool {
	if len(number) < 2 {
		return false
	}

	sum := 0
	parity := len(number) % 2
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if i%2 == parity {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}

	return sum%10 == 0
}

// checkDigit computes the digit that, appended to partial, makes the full
// numeral valid. The weighting is applied as if the check digit were already
// in place, so positions are taken over length(partial)+1.
func checkDigit(partial string) int {
	sum := 0
	parity := (len(partial) + 1) % 2
	for i := len(partial) - 1; i >= 0; i-- {
		digit := int(partial[i] - '0')
		if i%2 == parity {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}

	return (10 - sum%10) % 10
}
