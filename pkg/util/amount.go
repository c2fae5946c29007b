package util

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// YoctoDecimals is the number of decimals in one NEAR.
	YoctoDecimals = 24
	// TeraGas is 10^12 gas units.
	TeraGas uint64 = 1_000_000_000_000
	// MaxGas is the maximum amount of prepaid gas for one function call
	// (300 TGas).
	MaxGas = 300 * TeraGas
)

var errInvalidAmount = errors.New("invalid NEAR amount")

// ParseNEAR converts a decimal NEAR amount ("1", "0.25") to yoctoNEAR.
func ParseNEAR(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errInvalidAmount
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if len(fracPart) > YoctoDecimals {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", errInvalidAmount, s, YoctoDecimals)
	}
	if intPart == "" {
		intPart = "0"
	}
	digits := intPart + fracPart + strings.Repeat("0", YoctoDecimals-len(fracPart))
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", errInvalidAmount, s)
	}
	return v, nil
}

// FormatNEAR converts yoctoNEAR to a decimal NEAR string without trailing
// zeroes.
func FormatNEAR(yocto *big.Int) string {
	if yocto == nil {
		return "0"
	}
	s := yocto.String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if len(s) <= YoctoDecimals {
		s = strings.Repeat("0", YoctoDecimals-len(s)+1) + s
	}
	intPart, fracPart := s[:len(s)-YoctoDecimals], strings.TrimRight(s[len(s)-YoctoDecimals:], "0")
	res := intPart
	if fracPart != "" {
		res += "." + fracPart
	}
	if neg {
		res = "-" + res
	}
	return res
}
