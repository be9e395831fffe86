// README: Money value object stored in minor units (paise), rendered as a 2-decimal string.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const DefaultCurrency = "INR"

var ErrInvalidAmount = errors.New("invalid amount")

type Money struct {
	Amount   int64
	Currency string
}

func NewMoney(minor int64) Money {
	return Money{Amount: minor, Currency: DefaultCurrency}
}

// MaxAmount is the largest representable amount, 99,999,999.99.
const MaxAmount int64 = 9_999_999_999

var amountPattern = regexp.MustCompile(`^(-?)(\d{1,8})(?:\.(\d{1,2}))?$`)

// ParseMoney accepts "150", "150.5" or "150.00", optionally with a leading
// minus. More than two decimals or more than eight integer digits is rejected.
func ParseMoney(s string) (Money, error) {
	m := amountPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Money{}, ErrInvalidAmount
	}
	whole, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	frac := m[3]
	for len(frac) < 2 {
		frac += "0"
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	amount := whole*100 + f
	if m[1] == "-" {
		amount = -amount
	}
	return NewMoney(amount), nil
}

func (m Money) IsNegative() bool { return m.Amount < 0 }

func (m Money) String() string {
	sign := ""
	a := m.Amount
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%02d", sign, a/100, a%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both JSON strings and numbers.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return ErrInvalidAmount
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	v, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
