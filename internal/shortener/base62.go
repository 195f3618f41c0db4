package shortener

import (
	"fmt"
	"strings"
)

// Base62 characters in byte order: 0-9, A-Z, a-z. Equal-length codes therefore
// sort the same way as the numbers they encode.
const base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Encode converts a number to its base62 representation
func Encode(num uint64) string {
	if num == 0 {
		return "0"
	}

	var buf [11]byte // 62^11 > 2^64
	i := len(buf)
	for num > 0 {
		i--
		buf[i] = base62Chars[num%62]
		num /= 62
	}

	return string(buf[i:])
}

// Decode converts a base62 string back to a number
func Decode(str string) (uint64, error) {
	if str == "" {
		return 0, fmt.Errorf("empty base62 string")
	}

	result := uint64(0)
	for _, char := range str {
		idx := strings.IndexRune(base62Chars, char)
		if idx < 0 {
			return 0, fmt.Errorf("invalid base62 character %q in %q", char, str)
		}
		next := result*62 + uint64(idx)
		if next/62 != result {
			return 0, fmt.Errorf("base62 value %q overflows uint64", str)
		}
		result = next
	}

	return result, nil
}
