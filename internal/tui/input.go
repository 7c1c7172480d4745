package tui

import "unicode/utf8"

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 120

// editRune processes a keystroke for inline text editing. Handles backspace
// (rune-aware) and single printable characters; non-printable keys (enter,
// esc, arrows) leave the text unchanged.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// editDigits is editRune restricted to the characters a phone or OTP field
// accepts. maxLen caps the field length; allowPlus admits a leading '+'.
func editDigits(text string, key string, maxLen int, allowPlus bool) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			return text[:len(text)-1]
		}
		return text
	default:
		if len(key) != 1 {
			return text
		}
		if len(text) >= maxLen {
			return text
		}
		c := key[0]
		if c >= '0' && c <= '9' {
			return text + key
		}
		if allowPlus && c == '+' && len(text) == 0 {
			return text + key
		}
		return text
	}
}

// truncateToHeight limits output to maxLines newline-delimited lines.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}
