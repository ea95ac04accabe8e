package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money は金額を最小単位（1/100）の整数で表します
type Money int64

// maxUnits は最小単位に換算しても int64 に収まる整数部の上限です
const maxUnits = (math.MaxInt64 - 99) / 100

// ParseMoney は "12.50" / "12,5" / "12" 形式の金額を解析します。負の値は受け付けません
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return 0, fmt.Errorf("%w: 金額が空です", ErrInvalid)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 || strings.HasPrefix(whole, "+") || strings.HasPrefix(whole, "-") {
		return 0, fmt.Errorf("%w: 金額の形式が不正です (%q)", ErrInvalid, s)
	}
	if units > maxUnits {
		return 0, fmt.Errorf("%w: 金額が大きすぎます (%q)", ErrInvalid, s)
	}

	var cents int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("%w: 小数点以下は2桁までです (%q)", ErrInvalid, s)
		}
		for _, r := range frac {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("%w: 金額の形式が不正です (%q)", ErrInvalid, s)
			}
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}

	return Money(units*100 + cents), nil
}

// String は "12.50" 形式で返します
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Abs は絶対値を返します
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}
