package accountnumber

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_AlwaysValid(t *testing.T) {
	for i := 0; i < 1000; i++ {
		number := Generate()

		require.True(t, Validate(number), "generated number %q must validate", number)
		assert.GreaterOrEqual(t, len(number), 12)
		assert.LessOrEqual(t, len(number), 16)
		assert.NotEqual(t, byte('0'), number[0], "first digit must not be zero")
	}
}

func TestGenerate_CoversAllLengths(t *testing.T) {
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		seen[len(Generate())] = true
	}

	for length := 12; length <= 16; length++ {
		assert.True(t, seen[length], "expected at least one number of length %d", length)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   bool
	}{
		{
			name:   "known valid numeral",
			number: "79927398713",
			want:   true,
		},
		{
			name:   "known valid even-length numeral",
			number: "4539148803436467",
			want:   true,
		},
		{
			name:   "check digit off by one",
			number: "79927398714",
			want:   false,
		},
		{
			name:   "empty input",
			number: "",
			want:   false,
		},
		{
			name:   "single digit",
			number: "0",
			want:   false,
		},
		{
			name:   "non-digit characters",
			number: "79927a98713",
			want:   false,
		},
		{
			name:   "spaces rejected",
			number: "7992 7398 713",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.number))
		})
	}
}

// Luhn detects every single-digit alteration deterministically, so assert
// it exactly: changing any one digit of a valid numeral must invalidate it.
func TestValidate_CatchesEverySingleDigitAlteration(t *testing.T) {
	for i := 0; i < 50; i++ {
		number := Generate()
		require.True(t, Validate(number))

		for pos := 0; pos < len(number); pos++ {
			for d := byte('0'); d <= '9'; d++ {
				if number[pos] == d {
					continue
				}
				altered := number[:pos] + string(d) + number[pos+1:]
				assert.False(t, Validate(altered),
					"altering %q at position %d to %c must invalidate", number, pos, d)
			}
		}
	}
}

// Adjacent transpositions are caught except for the 09/90 pair, which the
// weighting cannot distinguish.
func TestValidate_CatchesAdjacentTranspositions(t *testing.T) {
	for i := 0; i < 50; i++ {
		number := Generate()

		for pos := 0; pos < len(number)-1; pos++ {
			a, b := number[pos], number[pos+1]
			if a == b {
				continue
			}
			if (a == '0' && b == '9') || (a == '9' && b == '0') {
				continue
			}
			swapped := number[:pos] + string(b) + string(a) + number[pos+2:]
			assert.False(t, Validate(swapped),
				"transposing %q at position %d must invalidate", number, pos)
		}
	}
}

func TestCheckDigit_MakesNumeralValid(t *testing.T) {
	partials := []string{
		"7992739871",
		"123456789012345",
		"999999999999",
		"100000000000000",
	}

	for _, partial := range partials {
		digit := checkDigit(partial)
		full := partial + string(byte('0'+digit))
		assert.True(t, Validate(full), "appending check digit %d to %q must validate", digit, partial)
		assert.False(t, strings.ContainsFunc(full, func(r rune) bool { return r < '0' || r > '9' }))
	}
}
