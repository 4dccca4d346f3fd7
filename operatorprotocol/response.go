package operatorprotocol

import (
	"math"
	"strings"
)

// Atoi parses a leading integer the way C's atoi does: leading whitespace is
// skipped, an optional sign is accepted, digits are consumed until the first
// non-digit and everything after is ignored. A string without a numeric
// prefix yields 0. Values outside the int range saturate.
func Atoi(s string) int {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	negative := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}
	n := 0
	for ; i < len(s) && '0' <= s[i] && s[i] <= '9'; i++ {
		d := int(s[i] - '0')
		if n > (math.MaxInt-d)/10 {
			if negative {
				return math.MinInt
			}
			return math.MaxInt
		}
		n = n*10 + d
	}
	if negative {
		return -n
	}
	return n
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// IsSuccess classifies a free-text response. A response counts as success
// when it is blank, when its leading integer is non-zero, or when it
// contains the prompt character anywhere.
func IsSuccess(response string) bool {
	if strings.TrimSpace(response) == "" {
		return true
	}
	if Atoi(response) != 0 {
		return true
	}
	return HasPrompt(response)
}

// HasPrompt reports whether the response contains the prompt character.
func HasPrompt(response string) bool {
	return strings.Contains(response, Prompt)
}

// IsBarePrompt reports whether the response consists of nothing but the
// prompt and surrounding whitespace.
func IsBarePrompt(response string) bool {
	return strings.TrimSpace(response) == Prompt
}

// StripPrompt removes surrounding whitespace and prompt characters from a
// response, leaving only the text the Operator printed.
func StripPrompt(response string) string {
	return strings.Trim(response, " \t\r\n"+Prompt)
}

// StatusCode derives the numeric status of a response. Boolean answers map
// to 1 (true) and 0 (false); anything else is parsed with Atoi.
func StatusCode(response string) int {
	body := StripPrompt(response)
	switch strings.ToLower(body) {
	case "true":
		return 1
	case "false":
		return 0
	}
	return Atoi(body)
}
