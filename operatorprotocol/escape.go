package operatorprotocol

import "strings"

const hexDigits = "0123456789ABCDEF"

// needsEscape reports whether b must be percent-encoded before it can be
// embedded in a single-line command.
func needsEscape(b byte) bool {
	switch b {
	case '#', '"', '$', '{', '}', '`', '&', '|', '<', '>', ';', '\n':
		return true
	}
	return b < 32 || b > 128
}

// EscapeLine replaces every byte the Operator's command interpreter would
// treat specially with a percent sign followed by two uppercase hex digits.
// The percent sign itself is not escaped, so input that already contains
// "%XX" sequences is ambiguous after escaping.
func EscapeLine(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(line); i++ {
		c := line[i]
		if needsEscape(c) {
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0F])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// UnescapeLine decodes "%XX" sequences produced by EscapeLine. A percent sign
// not followed by two hex digits is copied unchanged.
func UnescapeLine(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '%' && i+2 < len(line) {
			hi, okHi := unhex(line[i+1])
			lo, okLo := unhex(line[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
