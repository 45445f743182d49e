package payment

import (
	"errors"
	"strings"
)

// Method is a payout method a user can register.
type Method string

const (
	MethodSite Method = "site"
	MethodCard Method = "card"
	MethodUSDT Method = "usdt"
)

var (
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrInvalidCard   = errors.New("card number must be 16 digits with a valid checksum")
	ErrInvalidUSDT   = errors.New("usdt address must start with T and be 34 characters long")
)

const (
	cardLength = 16
	usdtLength = 34
	usdtPrefix = "T"

	base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
)

// ParseMethod parses a method name as carried in callback data.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodSite, MethodCard, MethodUSDT:
		return m, nil
	}
	return "", ErrUnknownMethod
}

// Title returns the human label for a method.
func (m Method) Title() string {
	switch m {
	case MethodSite:
		return "Баланс на сайте"
	case MethodCard:
		return "Банковская карта"
	case MethodUSDT:
		return "USDT (TRC-20)"
	}
	return string(m)
}

// NeedsDetails reports whether the wizard must collect details for m.
func (m Method) NeedsDetails() bool {
	return m == MethodCard || m == MethodUSDT
}

// NormalizeDetails validates raw user input for method m and returns
// the value to persist.
func NormalizeDetails(m Method, raw string) (string, error) {
	switch m {
	case MethodSite:
		return "", nil
	case MethodCard:
		return normalizeCard(raw)
	case MethodUSDT:
		return normalizeUSDT(raw)
	}
	return "", ErrUnknownMethod
}

func normalizeCard(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, raw)

	if len(digits) != cardLength {
		return "", ErrInvalidCard
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", ErrInvalidCard
		}
	}
	if !Luhn(digits) {
		return "", ErrInvalidCard
	}
	return digits, nil
}

func normalizeUSDT(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if len(addr) != usdtLength || !strings.HasPrefix(addr, usdtPrefix) {
		return "", ErrInvalidUSDT
	}
	for _, r := range addr {
		if !strings.ContainsRune(base58Alphabet, r) {
			return "", ErrInvalidUSDT
		}
	}
	return addr, nil
}

// Luhn reports whether a string of decimal digits passes the Luhn checksum.
func Luhn(digits string) bool {
	if digits == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Mask hides all but the last four characters of details.
func Mask(details string) string {
	if len(details) <= 4 {
		return details
	}
	return strings.Repeat("•", 4) + details[len(details)-4:]
}
