package compose

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Placeholder is rendered in place of any missing figure.
const Placeholder = "Unknown"

// FormatPrice renders a USD price with precision scaled to its magnitude.
// Prices under 0.00001 use exponent notation with four fraction digits.
func FormatPrice(price float64) string {
	switch {
	case price < 0.00001:
		return formatExponent(price, 4)
	case price < 0.001:
		return strconv.FormatFloat(price, 'f', 6, 64)
	case price < 1:
		return strconv.FormatFloat(price, 'f', 4, 64)
	case price < 100:
		return strconv.FormatFloat(price, 'f', 2, 64)
	default:
		return strconv.FormatFloat(price, 'f', 0, 64)
	}
}

// formatExponent formats like 1.2345e-6: the exponent carries no leading zeros.
func formatExponent(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'e', digits, 64)
	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	sign := exp[:1]
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + sign + exp
}

// FormatLargeNumber renders a USD amount with a T/B/M/K suffix and two decimals.
func FormatLargeNumber(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.2fK", v/1e3)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// RSIInterpretation names the condition an RSI value indicates.
func RSIInterpretation(rsi float64) string {
	switch {
	case rsi > 70:
		return "overbought conditions"
	case rsi < 30:
		return "oversold conditions"
	case rsi > 60:
		return "bullish momentum"
	case rsi < 40:
		return "bearish momentum"
	default:
		return "neutral territory"
	}
}

// price renders v as a dollar price, or Placeholder.
func price(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return "$" + FormatPrice(*v)
}

// large renders v with FormatLargeNumber, or Placeholder.
func large(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return FormatLargeNumber(*v)
}

// signedPercent renders a change as +1.23% / -1.23% / 0.00%, or Placeholder.
func signedPercent(v *float64) string {
	if v == nil {
		return Placeholder
	}
	if *v > 0 {
		return fmt.Sprintf("+%.2f%%", *v)
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// decimal renders v with two decimals, or Placeholder.
func decimal(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.2f", *v)
}
