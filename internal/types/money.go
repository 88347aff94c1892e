package types

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in minor currency units (1 = 0.01).
//
// Amounts are summed as integers so balances never drift the way float
// sums do. JSON carries them as decimal numbers with two fraction digits.
type Money int64

// minorPerMajor is the number of minor units in one whole unit.
const minorPerMajor = 100

// MaxAmount is the largest single charge or payment the ledger accepts.
// It keeps every student's running totals far inside int64, which is also
// the range SQLite's SUM works in.
const MaxAmount = Money(1_000_000_000 * minorPerMajor)

// Valid reports whether m is a positive amount no larger than MaxAmount.
func (m Money) Valid() bool { return m > 0 && m <= MaxAmount }

var errMoneyFormat = errors.New("invalid money format")

// Whole returns n whole currency units as Money.
func Whole(n int64) Money { return Money(n * minorPerMajor) }

// ParseMoney parses a decimal string such as "3000", "1000.5" or "-12.25".
// At most two fraction digits are accepted; exponents are not.
func ParseMoney(s string) (Money, error) {
	raw := s
	s = strings.TrimSpace(s)

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("%w: %q", errMoneyFormat, raw)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: %q has more than two decimal places", errMoneyFormat, raw)
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("%w: %q", errMoneyFormat, raw)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	n, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", errMoneyFormat, raw, err)
	}
	if neg {
		n = -n
	}
	return Money(n), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String formats m with exactly two fraction digits, e.g. "2000.00".
func (m Money) String() string {
	sign := ""
	u := uint64(m)
	if m < 0 {
		sign = "-"
		u = uint64(-(m + 1)) + 1
	}
	return fmt.Sprintf("%s%d.%02d", sign, u/minorPerMajor, u%minorPerMajor)
}

// MarshalJSON encodes m as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	s := string(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("%w: %v", errMoneyFormat, err)
		}
		s = unq
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
