package host

import (
	"fmt"
	"strings"

	"github.com/roach88/hostval/internal/ir"
)

// SymbolSmallMaxLen is the longest symbol with an inline representation.
const SymbolSmallMaxLen = 9

const symbolCodeBits = 6

// symbolCode maps a symbol char to a non-zero 6-bit code:
// '_' = 1, '0'..'9' = 2..11, 'A'..'Z' = 12..37, 'a'..'z' = 38..63.
func symbolCode(c byte) (uint64, bool) {
	switch {
	case c == '_':
		return 1, true
	case c >= '0' && c <= '9':
		return 2 + uint64(c-'0'), true
	case c >= 'A' && c <= 'Z':
		return 12 + uint64(c-'A'), true
	case c >= 'a' && c <= 'z':
		return 38 + uint64(c-'a'), true
	}
	return 0, false
}

func symbolChar(code uint64) byte {
	switch {
	case code == 1:
		return '_'
	case code <= 11:
		return '0' + byte(code-2)
	case code <= 37:
		return 'A' + byte(code-12)
	default:
		return 'a' + byte(code-38)
	}
}

// TrySymbolSmall returns the inline form of s, or false if s is too long or
// not a valid symbol.
func TrySymbolSmall(s string) (Val, bool) {
	if len(s) > SymbolSmallMaxLen || ir.ValidateSymbol(s) != nil {
		return 0, false
	}
	var body uint64
	for i := 0; i < len(s); i++ {
		code, _ := symbolCode(s[i])
		body = body<<symbolCodeBits | code
	}
	return fromBody(TagSymbolSmall, body), true
}

// SymbolSmall returns the inline symbol payload. Malformed bodies decode to "".
func (v Val) SymbolSmall() string {
	s, _ := decodeSymbolSmall(v.Body())
	return s
}

// decodeSymbolSmall unpacks 6-bit codes, last char in the lowest bits.
// A zero code may only appear above the first char.
func decodeSymbolSmall(body uint64) (string, error) {
	if body == 0 {
		return "", fmt.Errorf("empty small symbol")
	}
	var buf [SymbolSmallMaxLen]byte
	n := 0
	for body != 0 {
		if n == SymbolSmallMaxLen {
			return "", fmt.Errorf("small symbol longer than %d chars", SymbolSmallMaxLen)
		}
		code := body & (1<<symbolCodeBits - 1)
		if code == 0 {
			return "", fmt.Errorf("small symbol with embedded zero code")
		}
		buf[n] = symbolChar(code)
		n++
		body >>= symbolCodeBits
	}
	var sb strings.Builder
	for i := n - 1; i >= 0; i-- {
		sb.WriteByte(buf[i])
	}
	return sb.String(), nil
}
