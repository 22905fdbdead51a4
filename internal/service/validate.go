package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	cpfPattern   = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$|^\d{11}$`)
	cepPattern   = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	cnaePattern  = regexp.MustCompile(`^\d{4}-?\d/?\d{2}$`)
)

// validCPF checks format and the two verification digits.
func validCPF(raw string) bool {
	if !cpfPattern.MatchString(raw) {
		return false
	}
	digits := strings.NewReplacer(".", "", "-", "").Replace(raw)
	if len(digits) != 11 {
		return false
	}
	// All-same-digit numbers pass the checksum but are not valid CPFs.
	same := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}

	check := func(length int) int {
		sum := 0
		for i := 0; i < length; i++ {
			sum += int(digits[i]-'0') * (length + 1 - i)
		}
		rest := (sum * 10) % 11
		if rest == 10 {
			rest = 0
		}
		return rest
	}

	return check(9) == int(digits[9]-'0') && check(10) == int(digits[10]-'0')
}

func validCEP(raw string) bool {
	return cepPattern.MatchString(raw)
}

func validEmail(raw string) bool {
	return emailPattern.MatchString(raw)
}

func validCNAE(raw string) bool {
	return cnaePattern.MatchString(raw)
}

// parsePrice parses a decimal money string and rejects non-positive values.
func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid price %q", ErrInvalidInput, raw)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return price, nil
}
