// Package trytes implements the ledger's character encoding: every byte of a
// payload maps to a pair of characters from the 27-letter tryte alphabet.
package trytes

import (
	"fmt"
	"strings"
)

// Alphabet is the tryte character set. Index 0 is '9', the ledger's filler
// character, which pads unused signature message fragments.
const Alphabet = "9ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const Filler = '9'

// FromASCII encodes raw bytes as trytes. Each byte b becomes two characters:
// Alphabet[b%27] followed by Alphabet[b/27]. The output length is always even.
func FromASCII(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 2)
	for _, c := range b {
		sb.WriteByte(Alphabet[c%27])
		sb.WriteByte(Alphabet[c/27])
	}
	return sb.String()
}

// ToASCII decodes a tryte string produced by FromASCII. The input length must
// be even; pairs decoding outside the byte range are rejected.
func ToASCII(t string) ([]byte, error) {
	if len(t)%2 != 0 {
		return nil, fmt.Errorf("trytes: odd input length %d", len(t))
	}
	out := make([]byte, 0, len(t)/2)
	for i := 0; i < len(t); i += 2 {
		low := strings.IndexByte(Alphabet, t[i])
		high := strings.IndexByte(Alphabet, t[i+1])
		if low < 0 || high < 0 {
			return nil, fmt.Errorf("trytes: invalid character at offset %d", i)
		}
		v := low + high*27
		if v > 255 {
			return nil, fmt.Errorf("trytes: pair %q out of byte range", t[i:i+2])
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// IsFiller reports whether a fragment consists entirely of filler characters
// and whitespace. Such fragments carry no payload.
func IsFiller(fragment string) bool {
	if fragment == "" {
		return false
	}
	for i := 0; i < len(fragment); i++ {
		switch fragment[i] {
		case Filler, ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
