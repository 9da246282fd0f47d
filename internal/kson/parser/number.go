package parser

import (
	"strconv"
	"strings"

	"github.com/kson-org/kson-sub001/internal/kson/diag"
)

// ParsedNumber is the result of running the number sub-grammar over a
// NUMBER token's greedily-consumed lexeme (see §4.4):
//
//	number   → integer fraction exponent
//	integer  → "-"? digits
//	fraction → ε | "." digits
//	exponent → ε | ("e"|"E") ("+"|"-")? digits
//
// with one extension over strict JSON: leading zeros are permitted.
type ParsedNumber struct {
	Value float64
	Raw   string
	Err   diag.Kind // "" on success
}

// ParseNumber validates and converts a NUMBER lexeme. It never panics on
// malformed input — it reports one of INVALID_DIGITS, ILLEGAL_MINUS_SIGN,
// DANGLING_DECIMAL, or DANGLING_EXP_INDICATOR via Err.
func ParseNumber(lexeme string) ParsedNumber {
	s := lexeme
	i := 0
	n := len(s)

	if i < n && s[i] == '-' {
		i++
		if i >= n || !isDigit(s[i]) {
			return ParsedNumber{Raw: lexeme, Err: diag.IllegalMinusSign}
		}
	}

	digitsStart := i
	for i < n && isDigit(s[i]) {
		i++
	}
	if i == digitsStart {
		return ParsedNumber{Raw: lexeme, Err: diag.InvalidDigits}
	}

	if i < n && s[i] == '.' {
		i++
		fracStart := i
		for i < n && isDigit(s[i]) {
			i++
		}
		if i == fracStart {
			return ParsedNumber{Raw: lexeme, Err: diag.DanglingDecimal}
		}
	}

	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expStart := i
		for i < n && isDigit(s[i]) {
			i++
		}
		if i == expStart {
			return ParsedNumber{Raw: lexeme, Err: diag.DanglingExpIndicator}
		}
	}

	if i != n {
		return ParsedNumber{Raw: lexeme, Err: diag.InvalidDigits}
	}

	v, err := strconv.ParseFloat(normalizeLeadingZeros(s), 64)
	if err != nil {
		return ParsedNumber{Raw: lexeme, Err: diag.InvalidDigits}
	}
	return ParsedNumber{Value: v, Raw: lexeme}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// normalizeLeadingZeros strips redundant leading zeros (e.g. "007" -> "7",
// "-00.5" -> "-0.5") since Go's strconv rejects them in some contexts that
// JSON's grammar would reject but KSON's extension explicitly allows.
func normalizeLeadingZeros(s string) string {
	neg := strings.HasPrefix(s, "-")
	body := s
	if neg {
		body = s[1:]
	}
	for len(body) > 1 && body[0] == '0' && isDigit(body[1]) {
		body = body[1:]
	}
	if neg {
		return "-" + body
	}
	return body
}
